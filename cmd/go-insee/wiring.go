package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/adeilh/go-insee/cache"
	"github.com/adeilh/go-insee/config"
	"github.com/adeilh/go-insee/dashboard"
	"github.com/adeilh/go-insee/datagouv"
	"github.com/adeilh/go-insee/db/sql/postgres"
	"github.com/adeilh/go-insee/geo"
	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/insee"
)

func newHTTPClient(c *config.Config) *httpx.Client {
	return httpx.NewClient(
		httpx.WithClientTimeout(c.HTTP.Timeout),
		httpx.WithRetry(c.HTTP.RetryCount, c.HTTP.RetryWait, 0),
	)
}

// openSource builds the configured insee.Source and a human readable name for
// response metadata. The closer releases database connections.
func openSource(ctx context.Context, c *config.Config) (insee.Source, string, io.Closer, error) {
	var (
		src    insee.Source
		name   string
		closer io.Closer = nopCloser{}
	)
	switch c.Source.Kind {
	case config.SourceStatic:
		return insee.StaticSource{}, "INSEE", closer, nil
	case config.SourceRemote:
		src = insee.NewRemoteSource(newHTTPClient(c),
			insee.WithInflationURL(c.Source.InflationURL),
			insee.WithPopulationURL(c.Source.PopulationURL),
		)
		name = "INSEE (remote)"
	case config.SourcePostgres:
		db, err := openPostgres(ctx, c)
		if err != nil {
			return nil, "", nil, err
		}
		src = postgres.NewSeriesRepository(db)
		name = "INSEE (postgres)"
		closer = db
	default:
		return nil, "", nil, fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Source.Fallback {
		src = insee.Fallback{Primary: src, Secondary: insee.StaticSource{}}
	}
	slog.Info("data source ready", slog.String("kind", c.Source.Kind), slog.Bool("fallback", c.Source.Fallback))
	return src, name, closer, nil
}

func openPostgres(ctx context.Context, c *config.Config) (*sql.DB, error) {
	return postgres.Open(ctx,
		postgres.WithDSN(c.Postgres.DSN),
		postgres.WithPool(c.Postgres.MaxOpenConns, c.Postgres.MaxIdleConns, c.Postgres.ConnMaxLifetime),
	)
}

func newDashboard(src insee.Source, c *config.Config) *dashboard.Service {
	return dashboard.New(src, cache.NewMemory(), dashboard.WithTTLs(dashboard.TTLs{
		Inflation:  c.Cache.InflationTTL,
		Demography: c.Cache.DemographyTTL,
		Static:     c.Cache.StaticTTL,
	}))
}

func newDatagouv(c *config.Config) *datagouv.Client {
	return datagouv.New(
		datagouv.WithBaseURL(c.Datagouv.BaseURL),
		datagouv.WithTimeout(c.HTTP.Timeout),
		datagouv.WithRateLimit(c.Datagouv.RateLimit, c.Datagouv.Burst),
		datagouv.WithCache(cache.NewMemory(), c.Datagouv.TTL),
	)
}

func newGeo(c *config.Config) *geo.Client {
	return geo.New(c.Geo.TTL, geo.WithBaseURL(c.Geo.BaseURL), geo.WithHTTPClient(newHTTPClient(c)))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
