// Package api exposes the dashboard datasets over HTTP under /api/v1.
//
// Successful responses use the envelope
//
//	{"success": true, "data": ..., "metadata": {...}}
//
// and failures {"error": "..."} with 400 for bad parameters, 404 for unknown
// communes or datasets, 502 when an upstream answered badly and 504 when it
// did not answer in time.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/adeilh/go-insee/dashboard"
	"github.com/adeilh/go-insee/datagouv"
	"github.com/adeilh/go-insee/geo"
	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/insee"
)

const Prefix = "/api/v1"

// CommuneLookup resolves commune names for response metadata.
type CommuneLookup interface {
	Commune(ctx context.Context, code string) (geo.Commune, error)
}

// Catalogue searches open-data datasets.
type Catalogue interface {
	SearchDatasets(ctx context.Context, query string, page, pageSize int) ([]datagouv.Dataset, error)
}

type Handler struct {
	svc       *dashboard.Service
	communes  CommuneLookup
	catalogue Catalogue
	source    string
	version   string
	now       func() time.Time
}

type Option func(*Handler)

func WithCommuneLookup(l CommuneLookup) Option {
	return func(h *Handler) { h.communes = l }
}

// WithCatalogue enables GET /datagouv/datasets.
func WithCatalogue(c Catalogue) Option {
	return func(h *Handler) { h.catalogue = c }
}

// WithSourceName sets the "source" reported in metadata.
func WithSourceName(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.source = name
		}
	}
}

func WithVersion(v string) Option {
	return func(h *Handler) {
		if v != "" {
			h.version = v
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

func New(svc *dashboard.Service, opts ...Option) *Handler {
	h := &Handler{
		svc:     svc,
		source:  "INSEE",
		version: "1.0.0",
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes is the route table served under Prefix.
func (h *Handler) Routes() []httpx.Route {
	routes := []httpx.Route{
		httpx.Get("/health", h.health),

		httpx.Get("/inflation", h.inflation),
		httpx.Get("/inflation/felt", h.feltInflation),
		httpx.Get("/inflation/kpis", h.inflationKPIs),
		httpx.Get("/inflation/rolling", h.rollingInflation),
		httpx.Get("/inflation/yoy", h.yoyComparison),

		httpx.Get("/population/:codeCommune", h.population),
		httpx.Get("/population/:codeCommune/change", h.populationChange),
		httpx.Get("/population/:codeCommune/snapshot", h.snapshot),
		httpx.Get("/population/:codeCommune/age-groups", h.ageGroups),

		httpx.Get("/france/population", h.francePopulation),
		httpx.Get("/france/age-groups", h.franceAgeGroups),
		httpx.Get("/nantes/foreign-population", h.foreignPopulation),
		httpx.Get("/nantes/nationalities", h.nationalities),
		httpx.Get("/nantes/projections", h.projections),
		httpx.Get("/cost-of-life", h.costOfLife),

		httpx.Post("/csv/parse", h.parseCSV),
		httpx.Get("/export/:file", h.export),
		httpx.Delete("/cache", h.clearCache),
	}
	if h.catalogue != nil {
		routes = append(routes, httpx.Get("/datagouv/datasets", h.searchDatasets))
	}
	return routes
}

// Register mounts every route on a.
func (h *Handler) Register(a *httpx.App) {
	a.Group(Prefix).Mount(h.Routes()...)
	slog.Debug("api routes mounted", slog.Int("count", len(a.Routes())))
}

// Envelope wraps every successful response.
type Envelope struct {
	Success  bool           `json:"success"`
	Data     any            `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (h *Handler) ok(c httpx.Context, data any, meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	if _, set := meta["source"]; !set {
		meta["source"] = h.source
	}
	return c.JSON(httpx.StatusOK, Envelope{Success: true, Data: data, Metadata: meta})
}

func badRequest(msg string) error {
	return httpx.HTTPError(httpx.StatusBadRequest, msg)
}

// toHTTPError maps domain and transport errors to HTTP statuses.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	var verr *insee.ValidationError
	switch {
	case errors.Is(err, insee.ErrCommuneNotFound),
		errors.Is(err, dashboard.ErrUnknownDataset),
		errors.Is(err, dashboard.ErrNoData):
		return httpx.HTTPError(httpx.StatusNotFound, err.Error())
	case errors.Is(err, httpx.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return httpx.HTTPError(httpx.StatusGatewayTimeout, err.Error())
	case errors.As(err, &verr), errors.Is(err, datagouv.ErrInvalidPayload):
		return httpx.HTTPError(httpx.StatusBadGateway, err.Error())
	}
	if _, ok := httpx.StatusCode(err); ok {
		return httpx.HTTPError(httpx.StatusBadGateway, err.Error())
	}
	slog.Error("api: unexpected error", slog.Any("error", err))
	return httpx.HTTPError(httpx.StatusInternalError, http.StatusText(httpx.StatusInternalError))
}

// intParam reads an optional integer query parameter.
func intParam(c httpx.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("invalid " + name + ": " + strconv.Quote(raw))
	}
	return v, nil
}

func boolParam(c httpx.Context, name string, def bool) (bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("invalid " + name + ": " + strconv.Quote(raw))
	}
	return v, nil
}

func (h *Handler) health(c httpx.Context) error {
	return c.JSON(httpx.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"endpoints": map[string]string{
			"inflation":  Prefix + "/inflation",
			"population": Prefix + "/population/{codeCommune}",
			"export":     Prefix + "/export/{dataset}.csv",
		},
	})
}
