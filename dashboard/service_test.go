package dashboard

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-insee/cache"
	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/insee"
	"github.com/adeilh/go-insee/timeseries"
)

type countingSource struct {
	insee.Source
	inflation  atomic.Int32
	population atomic.Int32
}

func (c *countingSource) Inflation(ctx context.Context) (timeseries.Series, error) {
	c.inflation.Add(1)
	return c.Source.Inflation(ctx)
}

func (c *countingSource) Population(ctx context.Context, code string) (timeseries.Series, error) {
	c.population.Add(1)
	return c.Source.Population(ctx, code)
}

type stubSource struct {
	inflation timeseries.Series
	err       error
}

func (s stubSource) Inflation(context.Context) (timeseries.Series, error) { return s.inflation, s.err }
func (s stubSource) Population(context.Context, string) (timeseries.Series, error) {
	return nil, s.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newService(t *testing.T) (*Service, *countingSource, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	src := &countingSource{Source: insee.StaticSource{}}
	return New(src, cache.NewMemory(cache.WithClock(clock.Now)), WithClock(clock.Now)), src, clock
}

func TestInflationIsCachedForFifteenMinutes(t *testing.T) {
	svc, src, clock := newService(t)
	ctx := context.Background()

	s, err := svc.InflationYoY(ctx)
	require.NoError(t, err)
	require.Len(t, s, 50)

	_, err = svc.FeltInflation(ctx)
	require.NoError(t, err)
	_, err = svc.InflationKPIs(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.inflation.Load())

	clock.Advance(15 * time.Minute)
	_, err = svc.InflationYoY(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.inflation.Load(), "entry exactly ttl old is still fresh")

	clock.Advance(time.Second)
	_, err = svc.InflationYoY(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.inflation.Load())
}

func TestInvalidateAll(t *testing.T) {
	svc, src, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Population(ctx, insee.NantesCode)
	require.NoError(t, err)
	svc.InvalidateAll()
	_, err = svc.Population(ctx, insee.NantesCode)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.population.Load())
}

func TestInflationKPIsFromPublishedFigures(t *testing.T) {
	svc, _, _ := newService(t)
	kpis, err := svc.InflationKPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timeseries.KPIs{LatestYoY: 0.3, Avg12Months: 0.7, Peak10Years: 6.3, PeakDate: "2023-02"}, kpis)
}

func TestRollingAndComparison(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	rolling, err := svc.RollingInflation(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rolling, 50)
	assert.Equal(t, 2.9, rolling[0].Value)
	assert.Equal(t, 3.3, rolling[1].Value)

	cmp, err := svc.YoYComparison(ctx)
	require.NoError(t, err)
	assert.Len(t, cmp.Current12Months, 12)
	assert.Equal(t, "2026-02", cmp.Current12Months[11].Date)
	assert.Equal(t, "2024-03", cmp.Previous12Months[0].Date)
}

func TestYoYComparisonNeedsTwoYears(t *testing.T) {
	svc := New(stubSource{inflation: timeseries.Series{{Date: "2024-01", Value: 1}}}, nil)
	_, err := svc.YoYComparison(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestPopulationViews(t *testing.T) {
	svc, src, _ := newService(t)
	ctx := context.Background()

	change, err := svc.PopulationChange(ctx, insee.NantesCode)
	require.NoError(t, err)
	assert.Equal(t, 325800.0-291604.0, change.Absolute)
	assert.InDelta(t, 11.727, change.Percent, 0.001)

	snap, err := svc.Snapshot(ctx, insee.NantesCode)
	require.NoError(t, err)
	assert.Equal(t, 325800.0, snap.Population)
	assert.Equal(t, 38.5, snap.MedianAge)
	require.NotNil(t, snap.GrowthRate)
	assert.InDelta(t, 0.8032, *snap.GrowthRate, 0.0001)

	groups, err := svc.AgeGroups(ctx, insee.NantesCode)
	require.NoError(t, err)
	require.Len(t, groups, 12)
	assert.Equal(t, "2013", groups[0].Date)
	assert.Equal(t, 25.0, groups[11].G60Plus)

	assert.EqualValues(t, 1, src.population.Load())
}

func TestUnknownCommune(t *testing.T) {
	svc, src, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Population(ctx, "75056")
	assert.ErrorIs(t, err, insee.ErrCommuneNotFound)
	_, err = svc.Snapshot(ctx, "75056")
	assert.ErrorIs(t, err, insee.ErrCommuneNotFound)
	_, err = svc.AgeGroups(ctx, "75056")
	assert.ErrorIs(t, err, insee.ErrCommuneNotFound)
	assert.EqualValues(t, 3, src.population.Load(), "failures are never cached")
}

func TestInvalidSourceDataIsRejected(t *testing.T) {
	svc := New(stubSource{inflation: timeseries.Series{{Date: "soon", Value: math.NaN()}}}, nil)
	_, err := svc.InflationYoY(context.Background())
	var verr *insee.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, insee.InflationKey, verr.Dataset)
}

func TestSourceErrorPropagates(t *testing.T) {
	boom := errors.New("upstream down")
	svc := New(stubSource{err: boom}, nil)
	_, err := svc.FeltInflation(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestNationalDatasets(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	fr, err := svc.FrancePopulation(ctx)
	require.NoError(t, err)
	assert.Len(t, fr, 11)

	change, err := svc.FranceChange(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.68, change.Absolute, 1e-9)
	assert.InDelta(t, 4.036, change.Percent, 0.001)

	ages, err := svc.FranceAgeGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, ages, 11)

	foreign, err := svc.ForeignPopulation(ctx)
	require.NoError(t, err)
	assert.Len(t, foreign, 12)

	nat, err := svc.TopNationalities(ctx)
	require.NoError(t, err)
	assert.Len(t, nat, 11)

	cost, err := svc.CostOfLife(ctx)
	require.NoError(t, err)
	assert.Equal(t, insee.CostCategory{Category: "Logement", Value: 80}, cost[0])

	proj, err := svc.Projections(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026", proj.Population[0].Year)
}

func TestExportEveryDataset(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for _, name := range Datasets() {
		t.Run(name, func(t *testing.T) {
			records, err := svc.Export(ctx, name)
			require.NoError(t, err)
			require.NotEmpty(t, records)

			var buf bytes.Buffer
			require.NoError(t, csvx.WriteRecords(&buf, records))
			assert.True(t, strings.HasPrefix(buf.String(), csvx.BOM))
		})
	}
}

func TestExportInflationRows(t *testing.T) {
	svc, _, _ := newService(t)
	records, err := svc.Export(context.Background(), "inflation")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, csvx.WriteRecords(&buf, records))
	lines := strings.Split(strings.TrimPrefix(buf.String(), csvx.BOM), "\n")
	assert.Equal(t, "date,value", lines[0])
	assert.Equal(t, "2022-01,2.9", lines[1])
	assert.Len(t, lines, 51)
}

func TestExportUnknownDataset(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Export(context.Background(), "weather")
	assert.ErrorIs(t, err, ErrUnknownDataset)
	assert.Contains(t, Datasets(), "cost-of-life")
}
