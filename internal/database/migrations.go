package database

import "fmt"

const schema = `
	CREATE TABLE IF NOT EXISTS complexes (
		complex_id INTEGER PRIMARY KEY,
		city TEXT,
		name TEXT,
		url TEXT,
		metro TEXT,
		time_to_metro INTEGER,
		latitude REAL,
		longitude REAL,
		address TEXT,
		observed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS flats (
		flat_id INTEGER PRIMARY KEY,
		complex_id INTEGER NOT NULL REFERENCES complexes(complex_id),
		address TEXT,
		floor INTEGER,
		rooms INTEGER,
		area REAL,
		finishing BOOLEAN,
		bulk TEXT,
		settlement_date TEXT,
		url_suffix TEXT NOT NULL,
		observed_at TEXT NOT NULL
	);

	-- price_id is the flat id and repeats once per observation.
	CREATE TABLE IF NOT EXISTS prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		price_id INTEGER NOT NULL,
		benefit_name TEXT,
		benefit_description TEXT,
		price INTEGER,
		meter_price INTEGER,
		booking_status TEXT,
		observed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		run_id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		complexes_found INTEGER DEFAULT 0,
		complexes_scraped INTEGER DEFAULT 0,
		complexes_failed INTEGER DEFAULT 0,
		flats_found INTEGER DEFAULT 0,
		prices_inserted INTEGER DEFAULT 0,
		prices_compacted INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_flats_complex ON flats(complex_id);
	CREATE INDEX IF NOT EXISTS idx_prices_price_id ON prices(price_id, id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON scrape_runs(started_at);
`

func (d *Database) RunMigrations() error {
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
