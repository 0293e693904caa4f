package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the availability service.
type DB struct {
	*sql.DB
}

// New opens the database at path and runs migrations.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// One recurrence rule per facility
		`CREATE TABLE IF NOT EXISTS schedules (
			facility_id TEXT PRIMARY KEY,
			day_off TEXT NOT NULL,
			open_time TEXT NOT NULL,
			close_time TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Ordered daily time grid, unique time per facility
		`CREATE TABLE IF NOT EXISTS schedule_grid (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			time TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT 1,
			UNIQUE(facility_id, time),
			FOREIGN KEY (facility_id) REFERENCES schedules(facility_id)
		)`,

		// Date-specific exceptions, unique date per facility
		`CREATE TABLE IF NOT EXISTS schedule_exceptions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id TEXT NOT NULL,
			date TEXT NOT NULL,
			closed BOOLEAN NOT NULL DEFAULT 0,
			reason TEXT,
			UNIQUE(facility_id, date),
			FOREIGN KEY (facility_id) REFERENCES schedules(facility_id)
		)`,

		// Materialized bookable slots
		`CREATE TABLE IF NOT EXISTS slots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			taken BOOLEAN NOT NULL DEFAULT 0,
			staff_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(facility_id, date, time)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_grid_facility ON schedule_grid(facility_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_exceptions_facility_date ON schedule_exceptions(facility_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_facility_date ON slots(facility_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_slots_taken ON slots(taken)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
