package insee

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/timeseries"
)

func TestStaticInflation(t *testing.T) {
	s, err := StaticSource{}.Inflation(context.Background())
	require.NoError(t, err)
	require.Len(t, s, 50)
	assert.Equal(t, timeseries.Point{Date: "2022-01", Value: 2.9}, s[0])
	assert.Equal(t, timeseries.Point{Date: "2026-02", Value: 0.3}, s[len(s)-1])
	require.NoError(t, ValidateSeries(InflationKey, s))

	s[0].Value = 99
	again, _ := StaticSource{}.Inflation(context.Background())
	assert.Equal(t, 2.9, again[0].Value, "callers must not mutate the published figures")
}

func TestStaticPopulation(t *testing.T) {
	s, err := StaticSource{}.Population(context.Background(), NantesCode)
	require.NoError(t, err)
	require.Len(t, s, 12)
	assert.Equal(t, timeseries.Point{Date: "2013", Value: 291604}, s[0])
	assert.Equal(t, timeseries.Point{Date: "2024", Value: 325800}, s[11])

	_, err = StaticSource{}.Population(context.Background(), "75056")
	assert.ErrorIs(t, err, ErrCommuneNotFound)

	name, ok := CommuneName(NantesCode)
	assert.True(t, ok)
	assert.Equal(t, "Nantes", name)
}

func TestStaticDatasetsAreValid(t *testing.T) {
	assert.NoError(t, ValidateFrancePopulation(FrancePopulation()))
	assert.NoError(t, ValidateAgeShares(FranceAgeGroups()))
	assert.NoError(t, ValidateForeignPopulation(NantesForeignPopulation()))
	assert.NoError(t, ValidateNationalities(NantesTopNationalities()))
	assert.NoError(t, ValidateCostOfLife(CostOfLife()))
	assert.NoError(t, ValidateProjections(NantesProjections(time.Now())))

	fp := FrancePopulation()
	assert.Len(t, fp, 11)
	assert.Equal(t, FrancePopulationPoint{Year: 2025, Date: "2025-01-01", Population: 69.08}, fp[10])

	ages := FranceAgeGroups()
	assert.Equal(t, 10.6, ages[len(ages)-1].Age75Plus)

	foreign := NantesForeignPopulation()
	assert.Equal(t, 2024, foreign[len(foreign)-1].Year)
	assert.Equal(t, 21208, foreign[len(foreign)-1].Foreigners)

	nat := NantesTopNationalities()
	assert.Equal(t, "Portugal", nat[0].Nationality)
	assert.Equal(t, "Autres", nat[len(nat)-1].Nationality)
}

func TestNantesProjections(t *testing.T) {
	p := NantesProjections(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
	require.Len(t, p.Population, 10)
	require.Len(t, p.Jobs, 10)
	assert.Equal(t, YearValue{Year: "2026", Value: 320000}, p.Population[0])
	assert.Equal(t, YearValue{Year: "2035", Value: 356000}, p.Population[9])
	assert.Equal(t, YearValue{Year: "2035", Value: 168000}, p.Jobs[9])
}

func TestEstimateAgeGroups(t *testing.T) {
	pop := timeseries.Series{{Date: "2014", Value: 1}, {Date: "2015", Value: 1}, {Date: "2020", Value: 1}, {Date: "n/a", Value: 1}}
	got := EstimateAgeGroups(pop)
	require.Len(t, got, 3)
	assert.Equal(t, AgeGroupShares{Date: "2014", G0To14: 18, G15To29: 22, G30To44: 21, G45To59: 20, G60Plus: 21}, got[0])
	assert.Equal(t, 17.0, got[1].G0To14)
	assert.Equal(t, 23.0, got[1].G60Plus)
	assert.Equal(t, 16.0, got[2].G0To14)
	assert.Equal(t, 25.0, got[2].G60Plus)
	assert.NoError(t, ValidateAgeGroups(got))
	assert.Empty(t, EstimateAgeGroups(nil))
}

func TestValidateSeriesAggregates(t *testing.T) {
	err := ValidateSeries(InflationKey, timeseries.Series{
		{Date: "2024-01", Value: 1},
		{Date: "January", Value: math.NaN()},
		{Date: "2024-03", Value: math.Inf(1)},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InflationKey, verr.Dataset)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "insee: invalid inflation")

	assert.NoError(t, ValidateSeries(InflationKey, nil))
}

func TestValidateRejects(t *testing.T) {
	assert.Error(t, ValidateFrancePopulation([]FrancePopulationPoint{{Year: 2020, Population: -1}}))
	assert.Error(t, ValidateAgeShares([]FranceAgeShares{{Age0To19: 120}}))
	assert.Error(t, ValidateAgeGroups([]AgeGroupShares{{G0To14: 10}}))
	assert.Error(t, ValidateForeignPopulation([]ForeignPopulationPoint{{TotalPopulation: 10, Foreigners: 11}}))
	assert.Error(t, ValidateNationalities([]Nationality{{Nationality: " "}}))
	assert.Error(t, ValidateCostOfLife([]CostCategory{{Category: "", Value: 1}}))
	assert.Error(t, ValidateProjections(Projections{Population: []YearValue{{Year: "2026"}}}))
}

func TestRemoteSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/inflation", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"date":"2025-01","value":1.6},{"date":"2025-02","value":1.4}]`))
	})
	mux.HandleFunc("/communes/44109/population", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"year":2023,"population":323204},{"year":2024,"population":325800}]`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	src := NewRemoteSource(httpx.NewClient(),
		WithInflationURL(ts.URL+"/inflation"),
		WithPopulationURL(ts.URL+"/communes/{code}/population"),
	)

	infl, err := src.Inflation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, timeseries.Series{{Date: "2025-01", Value: 1.6}, {Date: "2025-02", Value: 1.4}}, infl)

	pop, err := src.Population(context.Background(), NantesCode)
	require.NoError(t, err)
	assert.Equal(t, timeseries.Series{{Date: "2023", Value: 323204}, {Date: "2024", Value: 325800}}, pop)

	_, err = src.Population(context.Background(), "00000")
	assert.ErrorIs(t, err, ErrCommuneNotFound)
}

func TestRemoteSourceUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	src := NewRemoteSource(nil, WithInflationURL(ts.URL))
	_, err := src.Inflation(context.Background())
	code, ok := httpx.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, err.Error(), "HTTP 500: Internal Server Error")

	_, err = src.Population(context.Background(), NantesCode)
	assert.Error(t, err)
}

func TestRemoteSourceRejectsMissingFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/inflation", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"date":"2025-01"},{"date":"2025-02","value":null},{"value":1.2}]`))
	})
	mux.HandleFunc("/communes/44109/population", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"population":323204},{"year":2024,"population":null}]`))
	})
	mux.HandleFunc("/communes/75056/population", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"year":"2024","population":2100000}]`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	src := NewRemoteSource(nil,
		WithInflationURL(ts.URL+"/inflation"),
		WithPopulationURL(ts.URL+"/communes/{code}/population"),
	)

	infl, err := src.Inflation(context.Background())
	assert.Nil(t, infl)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InflationKey, verr.Dataset)
	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 3)
	assert.Contains(t, err.Error(), "point 0: missing value")
	assert.Contains(t, err.Error(), "point 2: missing date")

	_, err = src.Population(context.Background(), NantesCode)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SeriesKey(NantesCode), verr.Dataset)
	assert.Contains(t, err.Error(), "point 0: missing year")
	assert.Contains(t, err.Error(), "point 1: missing population")

	_, err = src.Population(context.Background(), "75056")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SeriesKey("75056"), verr.Dataset)
}

type failingSource struct{ err error }

func (f failingSource) Inflation(context.Context) (timeseries.Series, error) { return nil, f.err }
func (f failingSource) Population(context.Context, string) (timeseries.Series, error) {
	return nil, f.err
}

func TestFallback(t *testing.T) {
	src := Fallback{Primary: failingSource{errors.New("down")}, Secondary: StaticSource{}}

	infl, err := src.Inflation(context.Background())
	require.NoError(t, err)
	assert.Len(t, infl, 50)

	pop, err := src.Population(context.Background(), NantesCode)
	require.NoError(t, err)
	assert.Len(t, pop, 12)

	_, err = src.Population(context.Background(), "75056")
	assert.ErrorIs(t, err, ErrCommuneNotFound)

	direct := Fallback{Primary: StaticSource{}, Secondary: failingSource{errors.New("unused")}}
	_, err = direct.Inflation(context.Background())
	assert.NoError(t, err)
}
