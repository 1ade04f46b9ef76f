package api

import (
	"time"

	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/timeseries"
)

const (
	defaultInflationLimit = 100
	defaultRollingWindow  = 6
)

func dateParam(c httpx.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := timeseries.ParseDate(raw)
	if err != nil {
		return time.Time{}, badRequest("invalid " + name + ": expected YYYY, YYYY-MM or YYYY-MM-DD")
	}
	return t, nil
}

func (h *Handler) inflation(c httpx.Context) error {
	from, err := dateParam(c, "startDate")
	if err != nil {
		return err
	}
	to, err := dateParam(c, "endDate")
	if err != nil {
		return err
	}
	limit, err := intParam(c, "limit", defaultInflationLimit)
	if err != nil {
		return err
	}
	if limit < 1 {
		return badRequest("limit must be positive")
	}

	series, err := h.svc.InflationYoY(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	data := timeseries.Limit(timeseries.Between(series, from, to), limit)
	return h.ok(c, data, map[string]any{
		"indicator": "IPC",
		"count":     len(data),
		"filters": map[string]any{
			"startDate": c.QueryParam("startDate"),
			"endDate":   c.QueryParam("endDate"),
			"limit":     limit,
		},
	})
}

func (h *Handler) feltInflation(c httpx.Context) error {
	data, err := h.svc.FeltInflation(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, data, map[string]any{"count": len(data)})
}

func (h *Handler) inflationKPIs(c httpx.Context) error {
	kpis, err := h.svc.InflationKPIs(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, kpis, nil)
}

func (h *Handler) rollingInflation(c httpx.Context) error {
	window, err := intParam(c, "window", defaultRollingWindow)
	if err != nil {
		return err
	}
	if window < 1 {
		return badRequest("window must be positive")
	}
	data, err := h.svc.RollingInflation(c.Request().Context(), window)
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, data, map[string]any{"count": len(data), "window": window})
}

func (h *Handler) yoyComparison(c httpx.Context) error {
	cmp, err := h.svc.YoYComparison(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, cmp, nil)
}
