package api

import (
	"errors"
	"io"
	"strings"

	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/httpx"
	"github.com/adeilh/go-insee/insee"
)

// maxCSVBody bounds POST /csv/parse payloads.
const maxCSVBody = 10 << 20

func (h *Handler) francePopulation(c httpx.Context) error {
	points, err := h.svc.FrancePopulation(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	change, err := h.svc.FranceChange(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, points, map[string]any{
		"count":     len(points),
		"unit":      "millions",
		"change":    change,
		"medianAge": insee.FranceMedianAge,
	})
}

func (h *Handler) franceAgeGroups(c httpx.Context) error {
	rows, err := h.svc.FranceAgeGroups(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, rows, map[string]any{"count": len(rows), "unit": "percent"})
}

func (h *Handler) foreignPopulation(c httpx.Context) error {
	points, err := h.svc.ForeignPopulation(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, points, map[string]any{"count": len(points), "codeCommune": insee.NantesCode})
}

func (h *Handler) nationalities(c httpx.Context) error {
	rows, err := h.svc.TopNationalities(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, rows, map[string]any{"count": len(rows), "codeCommune": insee.NantesCode})
}

func (h *Handler) projections(c httpx.Context) error {
	p, err := h.svc.Projections(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, p, map[string]any{"codeCommune": insee.NantesCode})
}

func (h *Handler) costOfLife(c httpx.Context) error {
	rows, err := h.svc.CostOfLife(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, rows, map[string]any{"count": len(rows)})
}

func (h *Handler) searchDatasets(c httpx.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest("missing q")
	}
	page, err := intParam(c, "page", 1)
	if err != nil {
		return err
	}
	size, err := intParam(c, "pageSize", 20)
	if err != nil {
		return err
	}
	datasets, err := h.catalogue.SearchDatasets(c.Request().Context(), q, page, size)
	if err != nil {
		return toHTTPError(err)
	}
	return h.ok(c, datasets, map[string]any{"source": "data.gouv.fr", "count": len(datasets), "query": q})
}

func (h *Handler) parseCSV(c httpx.Context) error {
	delim, err := csvx.ParseDelimiter(c.QueryParam("delimiter"))
	if err != nil {
		return badRequest(err.Error())
	}
	header, err := boolParam(c, "header", true)
	if err != nil {
		return err
	}
	trim, err := boolParam(c, "trim", true)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCSVBody+1))
	if err != nil {
		return badRequest("unreadable body")
	}
	if len(body) > maxCSVBody {
		return httpx.HTTPError(httpx.StatusRequestTooLarge, "body exceeds 10 MiB")
	}
	res := csvx.Parse(string(body), csvx.WithDelimiter(delim), csvx.WithHeader(header), csvx.WithTrimValues(trim))
	return h.ok(c, res, map[string]any{"source": "upload", "count": res.RowCount})
}

func (h *Handler) export(c httpx.Context) error {
	file := c.Param("file")
	name, ok := strings.CutSuffix(file, ".csv")
	if !ok || name == "" {
		return httpx.HTTPError(httpx.StatusNotFound, "unknown export "+file)
	}
	records, err := h.svc.Export(c.Request().Context(), name)
	if err != nil {
		return toHTTPError(err)
	}
	if len(records) == 0 {
		return c.NoContent(httpx.StatusNoContent)
	}

	resp := c.Response()
	resp.Header().Set("Content-Type", csvx.ContentType)
	resp.Header().Set("Content-Disposition", `attachment; filename="`+csvx.Filename(name, h.now())+`"`)
	resp.WriteHeader(httpx.StatusOK)
	if err := csvx.WriteRecords(resp, records); err != nil && !errors.Is(err, csvx.ErrNoRecords) {
		return err
	}
	return nil
}

func (h *Handler) clearCache(c httpx.Context) error {
	h.svc.InvalidateAll()
	return c.NoContent(httpx.StatusNoContent)
}
