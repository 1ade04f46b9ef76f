package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// SeriesTableSchema creates the table read and written by SeriesRepository.
// Points keep their source order through position.
const SeriesTableSchema = `CREATE TABLE IF NOT EXISTS insee_series (
	series     TEXT NOT NULL,
	position   INTEGER NOT NULL,
	date       TEXT NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (series, position)
)`

// ApplyMigrations executes the provided SQL statements in order within the given context.
func ApplyMigrations(ctx context.Context, db *sql.DB, statements ...string) error {
	if db == nil {
		return fmt.Errorf("postgres: db is nil")
	}
	for _, stmt := range statements {
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

// Migrate creates the series schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	return ApplyMigrations(ctx, db, SeriesTableSchema)
}
