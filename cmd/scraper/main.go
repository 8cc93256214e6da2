package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/database"
	"github.com/darkus007/FlatScrapper/internal/processor"
	"github.com/darkus007/FlatScrapper/internal/scheduler"
	"github.com/darkus007/FlatScrapper/internal/scraping"
)

func main() {
	once := flag.Bool("once", false, "run a single scrape and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	db, err := database.NewDatabase(cfg.Database.Path, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	fetcher := scraping.NewFetcher(cfg, logger)
	batchProcessor := processor.NewBatchProcessor(db, cfg, logger)
	manager := scraping.NewManager(cfg, fetcher, batchProcessor, db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		run, err := manager.Run(ctx)
		if err != nil {
			logger.WithError(err).Error("Scrape run failed")
			if scraping.IsDiscoveryError(err) {
				db.Close()
				os.Exit(1)
			}
			return
		}
		logger.WithFields(logrus.Fields{
			"run_id": run.ID,
			"status": run.Status,
		}).Info("Scrape run finished")
		return
	}

	s := scheduler.NewScheduler(manager, cfg, logger)
	if err := s.Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start scheduler")
	}

	<-ctx.Done()
	logger.Info("Shutting down scheduler")
	s.Stop()
}
