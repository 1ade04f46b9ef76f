package insee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/timeseries"
)

// RemoteSource reads the series as JSON arrays from a mirror of the INSEE
// publications. The inflation endpoint answers [{"date","value"}]; the
// population endpoint answers [{"year","population"}] and has its "{code}"
// placeholder replaced by the commune code.
type RemoteSource struct {
	client        *httpx.Client
	inflationURL  string
	populationURL string
}

type RemoteOption func(*RemoteSource)

func WithInflationURL(url string) RemoteOption {
	return func(r *RemoteSource) {
		if url != "" {
			r.inflationURL = url
		}
	}
}

// WithPopulationURL sets the population endpoint; url must contain "{code}".
func WithPopulationURL(url string) RemoteOption {
	return func(r *RemoteSource) {
		if url != "" {
			r.populationURL = url
		}
	}
}

func NewRemoteSource(client *httpx.Client, opts ...RemoteOption) *RemoteSource {
	if client == nil {
		client = httpx.NewClient()
	}
	r := &RemoteSource{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

var errNoURL = errors.New("insee: remote source has no url configured")

func (r *RemoteSource) Inflation(ctx context.Context) (timeseries.Series, error) {
	if r.inflationURL == "" {
		return nil, errNoURL
	}
	var points []wirePoint
	if err := r.client.FetchJSON(ctx, r.inflationURL, &points); err != nil {
		if malformed(err) {
			return nil, &ValidationError{Dataset: InflationKey, Err: err}
		}
		return nil, fmt.Errorf("insee: fetch inflation: %w", err)
	}
	return decodePoints(InflationKey, points)
}

func (r *RemoteSource) Population(ctx context.Context, codeCommune string) (timeseries.Series, error) {
	if r.populationURL == "" {
		return nil, errNoURL
	}
	url := strings.ReplaceAll(r.populationURL, "{code}", codeCommune)
	var census []wireCensus
	if err := r.client.FetchJSON(ctx, url, &census); err != nil {
		if code, ok := httpx.StatusCode(err); ok && code == httpx.StatusNotFound {
			return nil, ErrCommuneNotFound
		}
		if malformed(err) {
			return nil, &ValidationError{Dataset: SeriesKey(codeCommune), Err: err}
		}
		return nil, fmt.Errorf("insee: fetch population %s: %w", codeCommune, err)
	}
	points, err := decodeCensus(SeriesKey(codeCommune), census)
	if err != nil {
		return nil, err
	}
	return PopulationSeries(points), nil
}

// Wire shapes keep pointers so an absent or null field is told apart from a
// zero.
type wirePoint struct {
	Date  *string  `json:"date"`
	Value *float64 `json:"value"`
}

type wireCensus struct {
	Year       *int `json:"year"`
	Population *int `json:"population"`
}

func malformed(err error) bool {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	return errors.As(err, &typeErr) || errors.As(err, &syntaxErr)
}

func decodePoints(dataset string, in []wirePoint) (timeseries.Series, error) {
	var errs *multierror.Error
	out := make(timeseries.Series, 0, len(in))
	for i, p := range in {
		if p.Date == nil {
			errs = multierror.Append(errs, fmt.Errorf("point %d: missing date", i))
		}
		if p.Value == nil {
			errs = multierror.Append(errs, fmt.Errorf("point %d: missing value", i))
		}
		if p.Date != nil && p.Value != nil {
			out = append(out, timeseries.Point{Date: *p.Date, Value: *p.Value})
		}
	}
	if err := invalid(dataset, errs); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeCensus(dataset string, in []wireCensus) ([]PopulationPoint, error) {
	var errs *multierror.Error
	out := make([]PopulationPoint, 0, len(in))
	for i, c := range in {
		if c.Year == nil {
			errs = multierror.Append(errs, fmt.Errorf("point %d: missing year", i))
		}
		if c.Population == nil {
			errs = multierror.Append(errs, fmt.Errorf("point %d: missing population", i))
		}
		if c.Year != nil && c.Population != nil {
			out = append(out, PopulationPoint{Year: *c.Year, Population: *c.Population})
		}
	}
	if err := invalid(dataset, errs); err != nil {
		return nil, err
	}
	return out, nil
}

// Fallback reads from primary and, when it fails, from secondary. The
// secondary error is returned when both fail.
type Fallback struct {
	Primary   Source
	Secondary Source
}

func (f Fallback) Inflation(ctx context.Context) (timeseries.Series, error) {
	s, err := f.Primary.Inflation(ctx)
	if err == nil {
		return s, nil
	}
	slog.Warn("insee: primary source failed, using fallback", slog.String("series", InflationKey), slog.Any("error", err))
	return f.Secondary.Inflation(ctx)
}

func (f Fallback) Population(ctx context.Context, codeCommune string) (timeseries.Series, error) {
	s, err := f.Primary.Population(ctx, codeCommune)
	if err == nil {
		return s, nil
	}
	slog.Warn("insee: primary source failed, using fallback", slog.String("series", SeriesKey(codeCommune)), slog.Any("error", err))
	return f.Secondary.Population(ctx, codeCommune)
}
