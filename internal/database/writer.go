package database

import (
	"context"
	"fmt"

	"github.com/darkus007/FlatScrapper/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WriteStats counts the per-record outcome of one batch.
type WriteStats struct {
	Inserted int
	Skipped  int
	Failed   int
}

func (s *WriteStats) Add(other WriteStats) {
	s.Inserted += other.Inserted
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// InsertComplexes writes complexes that are not stored yet. Existing
// complex ids are left untouched.
func (d *Database) InsertComplexes(ctx context.Context, complexes []models.Complex) (WriteStats, error) {
	return insertBatch(ctx, d, "complexes", complexes, true)
}

// InsertFlats writes flats that are not stored yet. Existing flat ids are
// left untouched.
func (d *Database) InsertFlats(ctx context.Context, flats []models.Flat) (WriteStats, error) {
	return insertBatch(ctx, d, "flats", flats, true)
}

// InsertPrices appends every snapshot. Prices are history, so nothing is
// skipped; duplicates are removed later by CompactPrices.
func (d *Database) InsertPrices(ctx context.Context, prices []models.Price) (WriteStats, error) {
	return insertBatch(ctx, d, "prices", prices, false)
}

// insertBatch writes rows in a single transaction. A record the store
// rejects is logged and counted, and the rest of the batch still commits.
// A busy store aborts the whole batch so the caller can retry it.
func insertBatch[T any](ctx context.Context, d *Database, table string, rows []T, ignoreExisting bool) (WriteStats, error) {
	var stats WriteStats
	if len(rows) == 0 {
		return stats, nil
	}

	err := d.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stats = WriteStats{}
		for i := range rows {
			stmt := tx
			if ignoreExisting {
				stmt = tx.Clauses(clause.OnConflict{DoNothing: true})
			}

			// Insert a copy so ids assigned by a rolled back attempt never
			// reach the caller's slice.
			record := rows[i]
			result := stmt.Create(&record)
			if result.Error != nil {
				if IsBusy(result.Error) {
					return result.Error
				}
				stats.Failed++
				d.logger.WithFields(logrus.Fields{
					"table": table,
					"index": i,
					"error": result.Error,
				}).Error("Failed to insert record")
				continue
			}

			if result.RowsAffected == 0 {
				stats.Skipped++
			} else {
				stats.Inserted++
			}
		}
		return nil
	})
	if err != nil {
		return WriteStats{}, fmt.Errorf("failed to write %s batch: %w", table, err)
	}

	d.logger.WithFields(logrus.Fields{
		"table":    table,
		"inserted": stats.Inserted,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
	}).Debug("Batch written")

	return stats, nil
}
