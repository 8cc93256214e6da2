package scraping

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Persister stores the result of one complex and reports how many price
// snapshots were written.
type Persister interface {
	Persist(ctx context.Context, result *Collection) (int, error)
}

// RunStore records scrape runs and compacts price history after a run.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.ScrapeRun) error
	FinishRun(ctx context.Context, run *models.ScrapeRun) error
	CompactPrices(ctx context.Context) (int64, error)
}

// Manager drives a full scrape: discovery, sequential collection of every
// complex, persistence and a final compaction of price history.
type Manager struct {
	fetcher     PageFetcher
	collector   *Collector
	persister   Persister
	store       RunStore
	projectsURL string
	logger      *logrus.Logger
	now         func() time.Time
}

func NewManager(cfg *config.Config, fetcher PageFetcher, persister Persister, store RunStore, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Manager{
		fetcher:     fetcher,
		collector:   NewCollector(fetcher, cfg, logger),
		persister:   persister,
		store:       store,
		projectsURL: cfg.Scraper.ProjectsURL,
		logger:      logger,
		now:         time.Now,
	}
}

// Run performs one scrape. It returns an error only when discovery fails,
// the run cannot be recorded, or ctx is cancelled; failures of individual
// complexes are logged and reflected in the run status.
func (m *Manager) Run(ctx context.Context) (*models.ScrapeRun, error) {
	started := m.now()
	run := &models.ScrapeRun{
		ID:        uuid.NewString(),
		StartedAt: started,
		Status:    models.RunStatusRunning,
	}
	if err := m.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	log := m.logger.WithField("run_id", run.ID)
	log.Info("Starting scrape run")

	projects, err := m.discover(ctx)
	if err != nil {
		log.WithError(err).Error("Project discovery failed")
		run.Error = err.Error()
		m.finish(ctx, run, models.RunStatusFailed)
		return run, err
	}
	run.ComplexesFound = len(projects)
	log.WithField("complexes", len(projects)).Info("Projects discovered")

	observedAt := started.Format("2006-01-02")
	var runErr error
	for i, project := range projects {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		plog := log.WithFields(logrus.Fields{
			"complex_id": project.ID,
			"name":       project.Name,
			"position":   fmt.Sprintf("%d/%d", i+1, len(projects)),
		})

		collection, err := m.collector.Collect(ctx, project, observedAt)
		failed := err != nil
		if err != nil {
			plog.WithError(err).Error("Complex collection failed")
		}

		if collection != nil {
			run.FlatsFound += len(collection.Flats)
			inserted, perr := m.persister.Persist(context.WithoutCancel(ctx), collection)
			run.PricesInserted += inserted
			if perr != nil {
				failed = true
				plog.WithError(perr).Error("Failed to persist complex")
			}
		}

		if failed {
			run.ComplexesFailed++
		} else {
			run.ComplexesScraped++
		}
	}

	// Compaction reasons over the whole run, so it runs once all complexes are stored.
	compacted, err := m.store.CompactPrices(context.WithoutCancel(ctx))
	if err != nil {
		log.WithError(err).Error("Price compaction failed")
		run.Error = err.Error()
	}
	run.PricesCompacted = compacted

	status := models.RunStatusCompleted
	if run.ComplexesFailed > 0 || runErr != nil || err != nil {
		status = models.RunStatusPartial
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	m.finish(ctx, run, status)

	log.WithFields(logrus.Fields{
		"status":           run.Status,
		"complexes_found":  run.ComplexesFound,
		"complexes_failed": run.ComplexesFailed,
		"flats":            run.FlatsFound,
		"prices_inserted":  run.PricesInserted,
		"prices_compacted": run.PricesCompacted,
	}).Info("Scrape run finished")

	return run, runErr
}

func (m *Manager) discover(ctx context.Context) ([]models.Project, error) {
	html, err := m.fetcher.Get(ctx, m.projectsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch projects page: %w", err)
	}

	projects, err := DiscoverProjects(html)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("%w: no projects listed", ErrNoProjectData)
	}
	return projects, nil
}

func (m *Manager) finish(ctx context.Context, run *models.ScrapeRun, status models.RunStatus) {
	finished := m.now()
	run.FinishedAt = &finished
	run.Status = status

	if err := m.store.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		m.logger.WithFields(logrus.Fields{
			"run_id": run.ID,
			"error":  err,
		}).Error("Failed to record run result")
	}
}

// IsDiscoveryError reports whether err means the run could not start scraping.
func IsDiscoveryError(err error) bool {
	return errors.Is(err, ErrNoProjectData) || errors.Is(err, ErrFetchFailed)
}
