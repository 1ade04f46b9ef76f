package api

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/insee"
	"github.com/adeilh/go-insee/timeseries"
)

// communeName prefers the live registry and falls back to known names; an
// empty name is acceptable metadata.
func (h *Handler) communeName(ctx context.Context, code string) string {
	if h.communes != nil {
		commune, err := h.communes.Commune(ctx, code)
		switch {
		case err != nil:
			slog.Warn("api: commune lookup failed", slog.String("code", code), slog.Any("error", err))
		case commune.Name != "":
			return commune.Name
		}
	}
	name, _ := insee.CommuneName(code)
	return name
}

func (h *Handler) population(c httpx.Context) error {
	code := c.Param("codeCommune")
	yearStart, err := intParam(c, "yearStart", 0)
	if err != nil {
		return err
	}
	yearEnd, err := intParam(c, "yearEnd", 0)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	series, err := h.svc.Population(ctx, code)
	if err != nil {
		return toHTTPError(err)
	}
	data := filterYears(series, yearStart, yearEnd)
	filters := map[string]any{}
	if yearStart != 0 {
		filters["yearStart"] = yearStart
	}
	if yearEnd != 0 {
		filters["yearEnd"] = yearEnd
	}
	return h.ok(c, data, map[string]any{
		"commune":     h.communeName(ctx, code),
		"codeCommune": code,
		"count":       len(data),
		"filters":     filters,
	})
}

// filterYears keeps points whose year lies in [from, to]; zero bounds are open.
func filterYears(series timeseries.Series, from, to int) timeseries.Series {
	out := make(timeseries.Series, 0, len(series))
	for _, p := range series {
		if len(p.Date) < 4 {
			continue
		}
		year, err := strconv.Atoi(p.Date[:4])
		if err != nil {
			continue
		}
		if from != 0 && year < from {
			continue
		}
		if to != 0 && year > to {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (h *Handler) populationChange(c httpx.Context) error {
	code := c.Param("codeCommune")
	change, err := h.svc.PopulationChange(c.Request().Context(), code)
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, change, map[string]any{"codeCommune": code})
}

func (h *Handler) snapshot(c httpx.Context) error {
	code := c.Param("codeCommune")
	snap, err := h.svc.Snapshot(c.Request().Context(), code)
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, snap, map[string]any{"codeCommune": code})
}

func (h *Handler) ageGroups(c httpx.Context) error {
	code := c.Param("codeCommune")
	groups, err := h.svc.AgeGroups(c.Request().Context(), code)
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, groups, map[string]any{"codeCommune": code, "count": len(groups), "estimated": true})
}
