package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/darkus007/FlatScrapper/config"
	"github.com/darkus007/FlatScrapper/internal/database"
	"github.com/darkus007/FlatScrapper/internal/models"
	"github.com/darkus007/FlatScrapper/internal/scraping"
)

// Store is the write side of the database used by the processor.
type Store interface {
	InsertComplexes(ctx context.Context, complexes []models.Complex) (database.WriteStats, error)
	InsertFlats(ctx context.Context, flats []models.Flat) (database.WriteStats, error)
	InsertPrices(ctx context.Context, prices []models.Price) (database.WriteStats, error)
}

// BatchProcessor persists the collection of one complex as three ordered
// batches: the complex, its flats, then their prices. Each batch commits
// on its own so a crash keeps everything written before it.
type BatchProcessor struct {
	store  Store
	logger *logrus.Logger
	config *config.Config
	sleep  func(time.Duration)
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(store Store, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &BatchProcessor{
		store:  store,
		logger: logger,
		config: config,
		sleep:  time.Sleep,
	}
}

// Persist writes result and returns the number of price snapshots stored.
// A batch that keeps failing is logged and the following batches still
// run; the returned error joins every batch failure.
func (p *BatchProcessor) Persist(ctx context.Context, result *scraping.Collection) (int, error) {
	log := p.logger.WithField("complex_id", result.Complex.ComplexID)

	var errs []error

	complexStats, err := p.processBatch(ctx, "complexes", func(ctx context.Context) (database.WriteStats, error) {
		return p.store.InsertComplexes(ctx, []models.Complex{result.Complex})
	})
	if err != nil {
		errs = append(errs, err)
	}

	flatStats, err := p.processBatch(ctx, "flats", func(ctx context.Context) (database.WriteStats, error) {
		return p.store.InsertFlats(ctx, result.Flats)
	})
	if err != nil {
		errs = append(errs, err)
	}

	priceStats, err := p.processBatch(ctx, "prices", func(ctx context.Context) (database.WriteStats, error) {
		return p.store.InsertPrices(ctx, result.Prices)
	})
	if err != nil {
		errs = append(errs, err)
	}

	log.WithFields(logrus.Fields{
		"complex_new":    complexStats.Inserted,
		"flats_new":      flatStats.Inserted,
		"flats_known":    flatStats.Skipped,
		"prices":         priceStats.Inserted,
		"records_lost":   complexStats.Failed + flatStats.Failed + priceStats.Failed,
		"failed_batches": len(errs),
	}).Info("Complex persisted")

	return priceStats.Inserted, errors.Join(errs...)
}

// processBatch runs write with transaction-level retries. Only a busy store
// is retried; any other error will not go away by trying again.
func (p *BatchProcessor) processBatch(ctx context.Context, name string, write func(context.Context) (database.WriteStats, error)) (database.WriteStats, error) {
	var err error
	for attempt := 0; attempt <= p.config.BatchProcessing.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying %s batch, attempt %d of %d", name, attempt, p.config.BatchProcessing.MaxRetries)
			p.sleep(p.config.BatchProcessing.RetryDelay)
		}

		var stats database.WriteStats
		stats, err = write(ctx)
		if err == nil {
			return stats, nil
		}

		p.logger.Errorf("Batch processing failed: %v", err)
		if !database.IsBusy(err) {
			break
		}
	}

	return database.WriteStats{}, fmt.Errorf("failed to process %s batch: %w", name, err)
}
