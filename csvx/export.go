package csvx

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// BOM makes spreadsheet software read the export as UTF-8.
const BOM = "\uFEFF"

// ContentType is the media type of an export.
const ContentType = "text/csv; charset=utf-8"

var ErrNoRecords = errors.New("csvx: no records to export")

// Table is tabular data ready for encoding.
type Table struct {
	Headers []string
	Rows    [][]Cell
}

// Field is one named value of a Record.
type Field struct {
	Key   string
	Value Cell
}

// Record is an ordered set of fields; the order of the first exported record
// fixes the column order.
type Record []Field

// Get returns the value of key and whether it is present.
func (r Record) Get(key string) (Cell, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Cell{}, false
}

// Encode renders the table as comma-separated text. Cells containing a comma, a
// newline, or a double quote are quoted, with inner quotes doubled. Lines are
// joined by "\n" with no trailing newline.
func Encode(t Table) string {
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, joinEscaped(t.Headers))
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.String()
		}
		lines = append(lines, joinEscaped(cells))
	}
	return strings.Join(lines, "\n")
}

func joinEscaped(cells []string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = escape(c)
	}
	return strings.Join(out, ",")
}

func escape(s string) string {
	if strings.ContainsAny(s, ",\n\"") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// TableFromRecords takes its headers from the first record and lays every record
// out in that column order. Keys missing from a later record become empty cells;
// extra keys are ignored.
func TableFromRecords(records []Record) (Table, error) {
	if len(records) == 0 {
		return Table{}, ErrNoRecords
	}
	headers := make([]string, len(records[0]))
	for i, f := range records[0] {
		headers[i] = f.Key
	}
	rows := make([][]Cell, len(records))
	for i, rec := range records {
		row := make([]Cell, len(headers))
		for j, h := range headers {
			row[j], _ = rec.Get(h)
		}
		rows[i] = row
	}
	return Table{Headers: headers, Rows: rows}, nil
}

// Filename builds "{base}_{YYYY-MM-DD}.csv" from the UTC date of now.
func Filename(base string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", base, now.UTC().Format("2006-01-02"))
}

// WriteRecords writes records to w as a BOM-prefixed CSV document. Empty input
// writes nothing and returns ErrNoRecords.
func WriteRecords(w io.Writer, records []Record) error {
	table, err := TableFromRecords(records)
	if err != nil {
		slog.Warn("csvx: no data to export")
		return err
	}
	if _, err := io.WriteString(w, BOM+Encode(table)); err != nil {
		return fmt.Errorf("csvx: write export: %w", err)
	}
	return nil
}
