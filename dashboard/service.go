// Package dashboard serves the derived indicators behind the go-insee views:
// every dataset is fetched from an insee.Source, validated, then cached with a
// per-family TTL before transforms run on it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adeilh/go-insee/cache"
	"github.com/adeilh/go-insee/insee"
	"github.com/adeilh/go-insee/timeseries"
)

var ErrNoData = errors.New("dashboard: no data available")

// TTLs bounds the age of cached datasets per family.
type TTLs struct {
	Inflation  time.Duration
	Demography time.Duration
	Static     time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Inflation:  15 * time.Minute,
		Demography: 24 * time.Hour,
		Static:     24 * time.Hour,
	}
}

type Service struct {
	source insee.Source
	loader *cache.Loader
	ttl    TTLs
	now    func() time.Time
}

type Option func(*Service)

func WithTTLs(t TTLs) Option {
	return func(s *Service) {
		if t.Inflation > 0 {
			s.ttl.Inflation = t.Inflation
		}
		if t.Demography > 0 {
			s.ttl.Demography = t.Demography
		}
		if t.Static > 0 {
			s.ttl.Static = t.Static
		}
	}
}

// WithClock overrides the clock used for projections.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service reading from source and caching into store. A nil
// source serves the published INSEE figures; a nil store gets a fresh
// in-memory cache.
func New(source insee.Source, store cache.Store, opts ...Option) *Service {
	if source == nil {
		source = insee.StaticSource{}
	}
	if store == nil {
		store = cache.NewMemory()
	}
	s := &Service{
		source: source,
		loader: cache.NewLoader(store),
		ttl:    DefaultTTLs(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// InvalidateAll drops every cached dataset.
func (s *Service) InvalidateAll() {
	s.loader.Store().ClearAll()
}

// InflationYoY is the monthly year-over-year inflation series.
func (s *Service) InflationYoY(ctx context.Context) (timeseries.Series, error) {
	return cache.Load(ctx, s.loader, insee.InflationKey, s.ttl.Inflation, func(ctx context.Context) (timeseries.Series, error) {
		series, err := s.source.Inflation(ctx)
		if err != nil {
			return nil, err
		}
		if err := insee.ValidateSeries(insee.InflationKey, series); err != nil {
			return nil, err
		}
		return series, nil
	})
}

func (s *Service) FeltInflation(ctx context.Context) ([]timeseries.FeltPoint, error) {
	series, err := s.InflationYoY(ctx)
	if err != nil {
		return nil, err
	}
	return timeseries.FeltInflation(series), nil
}

func (s *Service) InflationKPIs(ctx context.Context) (timeseries.KPIs, error) {
	series, err := s.InflationYoY(ctx)
	if err != nil {
		return timeseries.KPIs{}, err
	}
	return timeseries.ComputeKPIs(series), nil
}

// RollingInflation smooths the inflation series over window months.
func (s *Service) RollingInflation(ctx context.Context, window int) (timeseries.Series, error) {
	series, err := s.InflationYoY(ctx)
	if err != nil {
		return nil, err
	}
	return timeseries.RollingAverage(series, window), nil
}

// YoYComparison returns ErrNoData when fewer than 24 months are known.
func (s *Service) YoYComparison(ctx context.Context) (timeseries.Comparison, error) {
	series, err := s.InflationYoY(ctx)
	if err != nil {
		return timeseries.Comparison{}, err
	}
	cmp, ok := timeseries.YoYComparison(series)
	if !ok {
		return timeseries.Comparison{}, fmt.Errorf("%w: %d months, need 24", ErrNoData, len(series))
	}
	return cmp, nil
}

// Population is the yearly population of a commune. Unknown communes yield
// insee.ErrCommuneNotFound.
func (s *Service) Population(ctx context.Context, codeCommune string) (timeseries.Series, error) {
	key := insee.SeriesKey(codeCommune)
	return cache.Load(ctx, s.loader, key, s.ttl.Demography, func(ctx context.Context) (timeseries.Series, error) {
		series, err := s.source.Population(ctx, codeCommune)
		if err != nil {
			return nil, err
		}
		if err := insee.ValidateSeries(key, series); err != nil {
			return nil, err
		}
		return series, nil
	})
}

// PopulationChange compares the last and first years of the series.
func (s *Service) PopulationChange(ctx context.Context, codeCommune string) (timeseries.Change, error) {
	series, err := s.Population(ctx, codeCommune)
	if err != nil {
		return timeseries.Change{}, err
	}
	c, ok := timeseries.ComputeChange(series)
	if !ok {
		return timeseries.Change{}, fmt.Errorf("%w: population change of %s needs two years", ErrNoData, codeCommune)
	}
	return c, nil
}

func (s *Service) AgeGroups(ctx context.Context, codeCommune string) ([]insee.AgeGroupShares, error) {
	return cache.Load(ctx, s.loader, "age-groups:"+codeCommune, s.ttl.Demography, func(ctx context.Context) ([]insee.AgeGroupShares, error) {
		series, err := s.Population(ctx, codeCommune)
		if err != nil {
			return nil, err
		}
		groups := insee.EstimateAgeGroups(series)
		if err := insee.ValidateAgeGroups(groups); err != nil {
			return nil, err
		}
		return groups, nil
	})
}

// Snapshot summarises the latest known year of a commune.
type Snapshot struct {
	Population float64  `json:"population"`
	MedianAge  float64  `json:"medianAge"`
	GrowthRate *float64 `json:"growthRate,omitempty"`
}

func (s *Service) Snapshot(ctx context.Context, codeCommune string) (Snapshot, error) {
	series, err := s.Population(ctx, codeCommune)
	if err != nil {
		return Snapshot{}, err
	}
	if len(series) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no population for %s", ErrNoData, codeCommune)
	}
	snap := Snapshot{
		Population: series[len(series)-1].Value,
		MedianAge:  insee.EstimatedMedianAge,
	}
	if rate, ok := timeseries.LatestGrowthRate(series); ok {
		snap.GrowthRate = &rate
	}
	return snap, nil
}

func (s *Service) FrancePopulation(ctx context.Context) ([]insee.FrancePopulationPoint, error) {
	return loadStatic(ctx, s, "france-population", insee.FrancePopulation, insee.ValidateFrancePopulation)
}

// FranceChange is the national population change over the covered years, in
// millions and percent.
func (s *Service) FranceChange(ctx context.Context) (timeseries.Change, error) {
	points, err := s.FrancePopulation(ctx)
	if err != nil {
		return timeseries.Change{}, err
	}
	series := make(timeseries.Series, len(points))
	for i, p := range points {
		series[i] = timeseries.Point{Date: p.Date, Value: p.Population}
	}
	c, ok := timeseries.ComputeChange(series)
	if !ok {
		return timeseries.Change{}, fmt.Errorf("%w: france population", ErrNoData)
	}
	return c, nil
}

func (s *Service) FranceAgeGroups(ctx context.Context) ([]insee.FranceAgeShares, error) {
	return loadStatic(ctx, s, "france-age-groups", insee.FranceAgeGroups, insee.ValidateAgeShares)
}

func (s *Service) ForeignPopulation(ctx context.Context) ([]insee.ForeignPopulationPoint, error) {
	return loadStatic(ctx, s, "nantes-foreign-population", insee.NantesForeignPopulation, insee.ValidateForeignPopulation)
}

func (s *Service) TopNationalities(ctx context.Context) ([]insee.Nationality, error) {
	return loadStatic(ctx, s, "nantes-nationalities", insee.NantesTopNationalities, insee.ValidateNationalities)
}

// Projections is the ten-year outlook starting with the current year.
func (s *Service) Projections(ctx context.Context) (insee.Projections, error) {
	return loadStatic(ctx, s, "nantes-projections", func() insee.Projections {
		return insee.NantesProjections(s.now())
	}, insee.ValidateProjections)
}

func (s *Service) CostOfLife(ctx context.Context) ([]insee.CostCategory, error) {
	return loadStatic(ctx, s, "cost-of-life", insee.CostOfLife, insee.ValidateCostOfLife)
}

func loadStatic[T any](ctx context.Context, s *Service, key string, build func() T, validate func(T) error) (T, error) {
	return cache.Load(ctx, s.loader, key, s.ttl.Static, func(context.Context) (T, error) {
		v := build()
		if err := validate(v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}
