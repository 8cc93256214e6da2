package database

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// A snapshot is redundant when it repeats the price and booking status of
// the snapshot inserted right before it for the same flat. The first
// snapshot of every run survives, so a price that changes and later comes
// back is kept as three rows.
const compactPricesQuery = `
	DELETE FROM prices
	WHERE id IN (
		SELECT id FROM (
			SELECT
				id,
				ROW_NUMBER() OVER w AS position,
				price IS LAG(price) OVER w
					AND booking_status IS LAG(booking_status) OVER w AS unchanged
			FROM prices
			WINDOW w AS (PARTITION BY price_id ORDER BY id)
		)
		WHERE position > 1 AND unchanged
	)
`

// CompactPrices collapses every run of identical consecutive snapshots of a
// flat down to its earliest row and returns the number of deleted rows.
func (d *Database) CompactPrices(ctx context.Context) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, compactPricesQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to compact prices: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count compacted prices: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit compaction: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"deleted": deleted,
	}).Info("Price history compacted")

	return deleted, nil
}
