package models

import "time"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusFailed    RunStatus = "failed"
)

// ScrapeRun records one full scrape, for replaying failed complexes by hand.
type ScrapeRun struct {
	ID               string     `json:"run_id"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at"`
	Status           RunStatus  `json:"status"`
	ComplexesFound   int        `json:"complexes_found"`
	ComplexesScraped int        `json:"complexes_scraped"`
	ComplexesFailed  int        `json:"complexes_failed"`
	FlatsFound       int        `json:"flats_found"`
	PricesInserted   int        `json:"prices_inserted"`
	PricesCompacted  int64      `json:"prices_compacted"`
	Error            string     `json:"error,omitempty"`
}
