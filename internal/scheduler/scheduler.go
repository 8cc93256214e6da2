package scheduler

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/models"
)

// Runner performs one full scrape.
type Runner interface {
	Run(ctx context.Context) (*models.ScrapeRun, error)
}

// Scheduler triggers scrape runs on a cron schedule. At most one run is in
// progress at any time; a tick that fires during a run is skipped.
type Scheduler struct {
	runner    Runner
	logger    *logrus.Logger
	cron      *cron.Cron
	cronExpr  string
	onStartup bool
	jobMutex  sync.Mutex
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(runner Runner, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:    runner,
		logger:    logger,
		cron:      cron.New(),
		cronExpr:  cfg.Schedule.Cron,
		onStartup: cfg.Schedule.OnStartup,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start registers the cron job and, if configured, kicks off a first run
// in the background.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronExpr, func() {
		s.RunNow()
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cronExpr, err)
	}
	s.cron.Start()

	s.logger.WithFields(logrus.Fields{
		"cron":       s.cronExpr,
		"on_startup": s.onStartup,
	}).Info("Scheduler started")

	if s.onStartup {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.RunNow()
		}()
	}
	return nil
}

// RunNow runs a scrape unless one is already in progress. It reports
// whether a run was started.
func (s *Scheduler) RunNow() bool {
	if !s.jobMutex.TryLock() {
		s.logger.Warn("Skipping scrape run: previous run still in progress")
		return false
	}
	defer s.jobMutex.Unlock()

	if s.ctx.Err() != nil {
		return false
	}

	run, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.WithError(err).Error("Scrape run failed")
		return true
	}

	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID,
		"status": run.Status,
	}).Info("Scrape run completed")
	return true
}

// Stop cancels an in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}
