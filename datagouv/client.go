// Package datagouv searches the data.gouv.fr catalogue and pulls CSV resources
// from it.
package datagouv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/adeilh/go-insee/cache"
	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/httpx"
)

const (
	DefaultBaseURL = "https://www.data.gouv.fr/api/1"
	// DefaultTTL matches the catalogue's own revalidation period.
	DefaultTTL = time.Hour

	descriptionLimit = 200
)

var ErrInvalidPayload = errors.New("datagouv: invalid payload")

// Dataset is the condensed view of a catalogue entry.
type Dataset struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url"`
	ResourcesCount int    `json:"resourcesCount"`
	Organization   string `json:"organization,omitempty"`
	LastUpdate     string `json:"lastUpdate,omitempty"`
}

// Resource is a downloadable file attached to a dataset.
type Resource struct {
	DatasetID     string `json:"datasetId"`
	DatasetTitle  string `json:"datasetTitle"`
	ResourceID    string `json:"resourceId"`
	ResourceTitle string `json:"resourceTitle"`
	Format        string `json:"format"`
	URL           string `json:"url"`
	Filesize      int64  `json:"filesize,omitempty"`
	LastModified  string `json:"lastModified,omitempty"`
}

type Client struct {
	http    *httpx.Client
	limiter *rate.Limiter
	loader  *cache.Loader
	ttl     time.Duration
}

type Option func(*options)

type options struct {
	baseURL string
	timeout time.Duration
	rps     float64
	burst   int
	store   cache.Store
	ttl     time.Duration
}

func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests at rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		if rps > 0 {
			o.rps = rps
		}
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithCache stores responses in store for ttl instead of a private memory cache.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(o *options) {
		if store != nil {
			o.store = store
		}
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func New(opts ...Option) *Client {
	o := options{
		baseURL: DefaultBaseURL,
		timeout: httpx.DefaultFetchTimeout,
		rps:     5,
		burst:   5,
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.store == nil {
		o.store = cache.NewMemory()
	}
	return &Client{
		http:    httpx.NewClient(httpx.WithBaseURL(o.baseURL), httpx.WithClientTimeout(o.timeout)),
		limiter: rate.NewLimiter(rate.Limit(o.rps), o.burst),
		loader:  cache.NewLoader(o.store),
		ttl:     o.ttl,
	}
}

type apiOrganization struct {
	Name string `json:"name"`
}

type apiResource struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Format       string `json:"format"`
	URL          string `json:"url"`
	Filesize     *int64 `json:"filesize"`
	LastModified string `json:"last_modified"`
}

type apiDataset struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Page         string           `json:"page"`
	Resources    []apiResource    `json:"resources"`
	Organization *apiOrganization `json:"organization"`
	LastUpdate   string           `json:"last_update"`
}

func (d apiDataset) validate() error {
	if d.ID == "" || d.Title == "" || d.Page == "" {
		return fmt.Errorf("%w: dataset %q lacks id, title or page", ErrInvalidPayload, d.ID)
	}
	return nil
}

func (d apiDataset) summary() Dataset {
	out := Dataset{
		ID:             d.ID,
		Title:          d.Title,
		Description:    d.Description,
		URL:            d.Page,
		ResourcesCount: len(d.Resources),
		LastUpdate:     d.LastUpdate,
	}
	if d.Organization != nil {
		out.Organization = d.Organization.Name
	}
	return out
}

type searchPage struct {
	Data []apiDataset `json:"data"`
}

// SearchDatasets runs a full-text catalogue search. Descriptions are cut to
// 200 characters.
func (c *Client) SearchDatasets(ctx context.Context, query string, page, pageSize int) ([]Dataset, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	key := fmt.Sprintf("datagouv:search:%s:%d:%d", query, page, pageSize)
	return cache.Load(ctx, c.loader, key, c.ttl, func(ctx context.Context) ([]Dataset, error) {
		slog.Debug("datagouv: searching datasets", slog.String("query", query))
		var resp searchPage
		err := c.get(ctx, "/datasets/", &resp, httpx.WithQuery(map[string]string{
			"q":         query,
			"page":      strconv.Itoa(page),
			"page_size": strconv.Itoa(pageSize),
		}))
		if err != nil {
			return nil, fmt.Errorf("datagouv: search datasets: %w", err)
		}
		out := make([]Dataset, 0, len(resp.Data))
		for _, d := range resp.Data {
			if err := d.validate(); err != nil {
				return nil, fmt.Errorf("datagouv: search datasets: %w", err)
			}
			s := d.summary()
			s.Description = truncate(s.Description, descriptionLimit)
			out = append(out, s)
		}
		return out, nil
	})
}

// SearchINSEE restricts a search to INSEE publications.
func (c *Client) SearchINSEE(ctx context.Context, query string) ([]Dataset, error) {
	return c.SearchDatasets(ctx, strings.TrimSpace("INSEE "+query), 1, 20)
}

func (c *Client) SearchNantes(ctx context.Context, query string) ([]Dataset, error) {
	return c.SearchDatasets(ctx, strings.TrimSpace("Nantes "+query), 1, 20)
}

// DatasetDetail is a dataset with its resources.
type DatasetDetail struct {
	Dataset   Dataset    `json:"dataset"`
	Resources []Resource `json:"resources"`
}

// GetDataset fetches one dataset and its resources. Resource formats are
// upper-cased.
func (c *Client) GetDataset(ctx context.Context, id string) (DatasetDetail, error) {
	key := "datagouv:dataset:" + id
	return cache.Load(ctx, c.loader, key, c.ttl, func(ctx context.Context) (DatasetDetail, error) {
		var d apiDataset
		if err := c.get(ctx, "/datasets/"+url.PathEscape(id)+"/", &d); err != nil {
			return DatasetDetail{}, fmt.Errorf("datagouv: get dataset %s: %w", id, err)
		}
		if err := d.validate(); err != nil {
			return DatasetDetail{}, fmt.Errorf("datagouv: get dataset %s: %w", id, err)
		}
		detail := DatasetDetail{Dataset: d.summary(), Resources: make([]Resource, 0, len(d.Resources))}
		for _, r := range d.Resources {
			if r.ID == "" || r.URL == "" || r.Format == "" {
				return DatasetDetail{}, fmt.Errorf("datagouv: get dataset %s: %w: resource %q", id, ErrInvalidPayload, r.ID)
			}
			res := Resource{
				DatasetID:     d.ID,
				DatasetTitle:  d.Title,
				ResourceID:    r.ID,
				ResourceTitle: r.Title,
				Format:        strings.ToUpper(r.Format),
				URL:           r.URL,
				LastModified:  r.LastModified,
			}
			if r.Filesize != nil {
				res.Filesize = *r.Filesize
			}
			detail.Resources = append(detail.Resources, res)
		}
		return detail, nil
	})
}

// SearchResources collects the resources of the first ten datasets matching
// query, optionally keeping a single format. Datasets whose detail cannot be
// fetched are skipped.
func (c *Client) SearchResources(ctx context.Context, query, format string) ([]Resource, error) {
	datasets, err := c.SearchDatasets(ctx, query, 1, 10)
	if err != nil {
		return nil, err
	}
	format = strings.ToUpper(format)
	var out []Resource
	for _, d := range datasets {
		detail, err := c.GetDataset(ctx, d.ID)
		if err != nil {
			slog.Warn("datagouv: skipping dataset", slog.String("dataset", d.ID), slog.Any("error", err))
			continue
		}
		for _, r := range detail.Resources {
			if format == "" || r.Format == format {
				out = append(out, r)
			}
		}
	}
	slog.Debug("datagouv: resources found", slog.String("query", query), slog.Int("count", len(out)))
	return out, nil
}

// FetchCSV downloads a CSV resource and parses it.
func (c *Client) FetchCSV(ctx context.Context, resourceURL string, opts ...csvx.Option) (csvx.ParseResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return csvx.ParseResult{}, err
	}
	return csvx.Fetch(ctx, c.http, resourceURL, opts...)
}

func (c *Client) get(ctx context.Context, path string, out any, opts ...httpx.RequestOption) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.http.FetchJSON(ctx, path, out, opts...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// FormatFilesize renders a byte count with binary units, e.g. "1.5 KB".
// Zero or negative sizes are unknown.
func FormatFilesize(bytes int64) string {
	const unit = 1024
	switch {
	case bytes <= 0:
		return "N/A"
	case bytes < unit:
		return fmt.Sprintf("%d B", bytes)
	case bytes < unit*unit:
		return fmt.Sprintf("%.1f KB", float64(bytes)/unit)
	case bytes < unit*unit*unit:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(unit*unit*unit))
	}
}
