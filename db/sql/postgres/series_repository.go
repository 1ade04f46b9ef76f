package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/adeilh/go-insee/insee"
	"github.com/adeilh/go-insee/timeseries"
)

var (
	ErrSeriesNotFound = errors.New("postgres: series not found")
	ErrSchemaMissing  = errors.New("postgres: insee_series table missing, run migrations")
)

// SeriesRepository persists named series in the insee_series table. It
// satisfies insee.Source.
type SeriesRepository struct {
	db *sql.DB
}

// NewSeriesRepository wraps an existing *sql.DB connection.
func NewSeriesRepository(db *sql.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

var _ insee.Source = (*SeriesRepository)(nil)

// LoadSeries returns the points of a series in stored order.
func (r *SeriesRepository) LoadSeries(ctx context.Context, name string) (timeseries.Series, error) {
	const query = `SELECT date, value FROM insee_series WHERE series = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out timeseries.Series
	for rows.Next() {
		var p timeseries.Point
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", name, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err)
	}
	if len(out) == 0 {
		return nil, ErrSeriesNotFound
	}
	return out, nil
}

// ReplaceSeries swaps the stored points of a series atomically, bulk loading
// the new ones with COPY.
func (r *SeriesRepository) ReplaceSeries(ctx context.Context, name string, series timeseries.Series) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM insee_series WHERE series = $1`, name); err != nil {
		return translateError(err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("insee_series", "series", "position", "date", "value"))
	if err != nil {
		return translateError(err)
	}
	for i, p := range series {
		if _, err = stmt.ExecContext(ctx, name, i, p.Date, p.Value); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("postgres: copy %s: %w", name, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("postgres: copy %s: %w", name, err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("postgres: copy %s: %w", name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	slog.Debug("postgres: series replaced", slog.String("series", name), slog.Int("points", len(series)))
	return nil
}

// SeriesNames lists the stored series.
func (r *SeriesRepository) SeriesNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT series FROM insee_series ORDER BY series`)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *SeriesRepository) Inflation(ctx context.Context) (timeseries.Series, error) {
	return r.LoadSeries(ctx, insee.InflationKey)
}

// Population reports insee.ErrCommuneNotFound for communes never seeded.
func (r *SeriesRepository) Population(ctx context.Context, codeCommune string) (timeseries.Series, error) {
	s, err := r.LoadSeries(ctx, insee.SeriesKey(codeCommune))
	if errors.Is(err, ErrSeriesNotFound) {
		return nil, insee.ErrCommuneNotFound
	}
	return s, err
}

// Seed copies the inflation series and the population of each commune from
// src into the table.
func (r *SeriesRepository) Seed(ctx context.Context, src insee.Source, communes ...string) error {
	infl, err := src.Inflation(ctx)
	if err != nil {
		return fmt.Errorf("postgres: seed inflation: %w", err)
	}
	if err := insee.ValidateSeries(insee.InflationKey, infl); err != nil {
		return err
	}
	if err := r.ReplaceSeries(ctx, insee.InflationKey, infl); err != nil {
		return err
	}
	for _, code := range communes {
		pop, err := src.Population(ctx, code)
		if err != nil {
			return fmt.Errorf("postgres: seed population %s: %w", code, err)
		}
		key := insee.SeriesKey(code)
		if err := insee.ValidateSeries(key, pop); err != nil {
			return err
		}
		if err := r.ReplaceSeries(ctx, key, pop); err != nil {
			return err
		}
	}
	return nil
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return ErrSchemaMissing
	}
	return err
}
