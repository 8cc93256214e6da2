package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/darkus007/FlatScrapper/internal/models"
)

func (d *Database) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (run_id, started_at, status)
		VALUES (?, ?, ?)`,
		run.ID, run.StartedAt.UTC(), string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and status of a run.
func (d *Database) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	var finishedAt any
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE scrape_runs SET
			finished_at = ?,
			status = ?,
			complexes_found = ?,
			complexes_scraped = ?,
			complexes_failed = ?,
			flats_found = ?,
			prices_inserted = ?,
			prices_compacted = ?,
			error = ?
		WHERE run_id = ?`,
		finishedAt,
		string(run.Status),
		run.ComplexesFound,
		run.ComplexesScraped,
		run.ComplexesFailed,
		run.FlatsFound,
		run.PricesInserted,
		run.PricesCompacted,
		run.Error,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to finish run: run %s not found", run.ID)
	}
	return nil
}

// GetRecentRuns returns up to limit runs, newest first.
func (d *Database) GetRecentRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT run_id, started_at, finished_at, status,
			complexes_found, complexes_scraped, complexes_failed,
			flats_found, prices_inserted, prices_compacted, COALESCE(error, '')
		FROM scrape_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.ScrapeRun{}
	for rows.Next() {
		var (
			run        models.ScrapeRun
			status     string
			finishedAt sql.NullTime
		)
		err := rows.Scan(
			&run.ID, &run.StartedAt, &finishedAt, &status,
			&run.ComplexesFound, &run.ComplexesScraped, &run.ComplexesFailed,
			&run.FlatsFound, &run.PricesInserted, &run.PricesCompacted, &run.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Status = models.RunStatus(status)
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
