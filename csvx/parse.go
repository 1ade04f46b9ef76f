// Package csvx reads and writes the small, loosely formatted CSV files published
// on French open-data portals.
//
// Parsing is lenient by policy: a row whose field count differs from the header
// is dropped and reported in ParseResult, never returned as an error.
package csvx

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Delimiter selects the field separator. DelimiterAuto picks between ',' and ';'.
type Delimiter rune

const (
	DelimiterAuto      Delimiter = 0
	DelimiterComma     Delimiter = ','
	DelimiterSemicolon Delimiter = ';'
)

// ParseDelimiter maps "", "auto", "," and ";" (also "comma"/"semicolon") to a Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return DelimiterAuto, nil
	case ",", "comma":
		return DelimiterComma, nil
	case ";", "semicolon":
		return DelimiterSemicolon, nil
	default:
		return DelimiterAuto, fmt.Errorf("csvx: unsupported delimiter %q", s)
	}
}

// Options controls Parse. Use DefaultOptions and the With* helpers.
type Options struct {
	Delimiter      Delimiter
	HasHeader      bool
	SkipEmptyLines bool
	TrimValues     bool
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{Delimiter: DelimiterAuto, HasHeader: true, SkipEmptyLines: true, TrimValues: true}
}

func WithDelimiter(d Delimiter) Option {
	return func(o *Options) { o.Delimiter = d }
}

func WithHeader(has bool) Option {
	return func(o *Options) { o.HasHeader = has }
}

func WithSkipEmptyLines(skip bool) Option {
	return func(o *Options) { o.SkipEmptyLines = skip }
}

func WithTrimValues(trim bool) Option {
	return func(o *Options) { o.TrimValues = trim }
}

// Row maps normalized header names to cells.
type Row map[string]Cell

// ParseResult is the outcome of Parse. SkippedRows counts rows dropped for having
// the wrong number of fields; Warnings describes each of them.
type ParseResult struct {
	Headers     []string `json:"headers"`
	Rows        []Row    `json:"rows"`
	RowCount    int      `json:"rowCount"`
	Delimiter   string   `json:"delimiter"`
	SkippedRows int      `json:"skippedRows"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Column returns the cells of the named column; the name is normalized first.
func (r ParseResult) Column(name string) []Cell {
	key := NormalizeHeader(name)
	out := make([]Cell, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row[key]
	}
	return out
}

// FindColumn returns the first header containing the normalized partial name.
func (r ParseResult) FindColumn(partial string) (string, bool) {
	key := NormalizeHeader(partial)
	for _, h := range r.Headers {
		if strings.Contains(h, key) {
			return h, true
		}
	}
	return "", false
}

// Filter returns the rows matching keep.
func (r ParseResult) Filter(keep func(Row) bool) []Row {
	var out []Row
	for _, row := range r.Rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

var lineBreak = regexp.MustCompile(`\r?\n`)

// DetectDelimiter counts commas and semicolons in the first five lines and picks
// ';' only when it is strictly more frequent.
func DetectDelimiter(text string) Delimiter {
	lines := strings.SplitN(text, "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	head := strings.Join(lines, "\n")
	if strings.Count(head, ";") > strings.Count(head, ",") {
		return DelimiterSemicolon
	}
	return DelimiterComma
}

// ParseLine splits one line on delim, honoring double-quoted fields. A doubled
// quote inside a quoted field yields one literal quote.
func ParseLine(line string, delim Delimiter) []string {
	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				field.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == rune(delim) && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteRune(ch)
		}
	}
	return append(fields, field.String())
}

// Parse reads text into headers and rows. Fields are coerced to numbers when they
// look numeric after removing whitespace and turning the first ',' into '.'.
func Parse(text string, opts ...Option) ParseResult {
	cfg := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	delim := cfg.Delimiter
	if delim == DelimiterAuto {
		delim = DetectDelimiter(text)
	}

	lines := lineBreak.Split(text, -1)
	if cfg.SkipEmptyLines {
		kept := lines[:0]
		for _, l := range lines {
			if strings.TrimSpace(l) != "" {
				kept = append(kept, l)
			}
		}
		lines = kept
	}

	res := ParseResult{Headers: []string{}, Rows: []Row{}, Delimiter: string(rune(delim))}
	if len(lines) == 0 {
		return res
	}

	start := 0
	first := ParseLine(lines[0], delim)
	if cfg.HasHeader {
		for _, h := range first {
			res.Headers = append(res.Headers, NormalizeHeader(h))
		}
		start = 1
	} else {
		for i := range first {
			res.Headers = append(res.Headers, fmt.Sprintf("col_%d", i))
		}
	}

	for i := start; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		values := ParseLine(lines[i], delim)
		if len(values) != len(res.Headers) {
			msg := fmt.Sprintf("skipping malformed row %d: expected %d columns, got %d", i+1, len(res.Headers), len(values))
			slog.Warn("csvx: "+msg, slog.Int("line", i+1))
			res.SkippedRows++
			res.Warnings = append(res.Warnings, msg)
			continue
		}
		row := make(Row, len(res.Headers))
		for j, h := range res.Headers {
			row[h] = coerce(values[j], cfg.TrimValues)
		}
		res.Rows = append(res.Rows, row)
	}
	res.RowCount = len(res.Rows)

	slog.Debug("csvx: parsed",
		slog.String("delimiter", res.Delimiter),
		slog.Int("rows", res.RowCount),
		slog.Int("skipped", res.SkippedRows))
	return res
}
