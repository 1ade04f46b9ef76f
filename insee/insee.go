// Package insee holds the official INSEE figures served by go-insee and the
// sources they can be read from: published constants, a remote JSON mirror,
// or a postgres table seeded from either.
package insee

import (
	"context"
	"errors"
	"strconv"

	"github.com/adeilh/go-insee/timeseries"
)

// NantesCode is the INSEE commune code of Nantes.
const NantesCode = "44109"

var ErrCommuneNotFound = errors.New("insee: commune not found")

// Source yields the raw series behind the dashboard. Inflation points are
// monthly ("YYYY-MM") year-over-year rates in percent; population points are
// yearly ("YYYY") head counts.
type Source interface {
	Inflation(ctx context.Context) (timeseries.Series, error)
	Population(ctx context.Context, codeCommune string) (timeseries.Series, error)
}

// PopulationPoint is the wire shape of one census figure.
type PopulationPoint struct {
	Year       int `json:"year"`
	Population int `json:"population"`
}

// PopulationSeries converts census figures to a yearly series.
func PopulationSeries(points []PopulationPoint) timeseries.Series {
	out := make(timeseries.Series, 0, len(points))
	for _, p := range points {
		out = append(out, timeseries.Point{Date: strconv.Itoa(p.Year), Value: float64(p.Population)})
	}
	return out
}

// SeriesKey names the population series of a commune, as stored by the
// postgres source and used for cache keys.
func SeriesKey(codeCommune string) string {
	return "population:" + codeCommune
}

// InflationKey names the inflation series.
const InflationKey = "inflation"
