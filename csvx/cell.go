package csvx

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Cell is a parsed CSV field: either a number or a string.
type Cell struct {
	text  string
	num   float64
	isNum bool
}

// Number wraps a float as a numeric cell.
func Number(v float64) Cell { return Cell{num: v, isNum: true} }

// Text wraps s as a string cell without coercion.
func Text(s string) Cell { return Cell{text: s} }

// Float returns the numeric value and whether the cell is numeric.
func (c Cell) Float() (float64, bool) { return c.num, c.isNum }

// IsNumber reports whether the cell holds a number.
func (c Cell) IsNumber() bool { return c.isNum }

// String renders the cell the way it is written to CSV output.
func (c Cell) String() string {
	if c.isNum {
		return formatNumber(c.num)
	}
	return c.text
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.isNum {
		return json.Marshal(c.num)
	}
	return json.Marshal(c.text)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*c = Number(t)
	case string:
		*c = Text(t)
	case nil:
		*c = Text("")
	default:
		*c = Text(strings.TrimSpace(string(data)))
	}
	return nil
}

// coerce turns a raw field into a Cell. All whitespace is removed and the first
// decimal comma becomes a point before trying a numeric parse, so "1 234,5" is
// 1234.5. Empty fields stay empty strings; NaN and infinities stay strings.
func coerce(raw string, trim bool) Cell {
	value := raw
	if trim {
		value = strings.TrimSpace(raw)
	}
	if value == "" {
		return Text("")
	}

	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
	compact = strings.Replace(compact, ",", ".", 1)
	if compact == "" || !numericSyntax(compact) {
		return Text(value)
	}
	n, err := strconv.ParseFloat(compact, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Text(value)
	}
	return Number(n)
}

// numericSyntax restricts ParseFloat to plain decimal notation: ParseFloat alone
// would also accept hex floats, underscores, and "inf".
func numericSyntax(s string) bool {
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits, dot, exp := false, false, false
	for ; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= '0' && ch <= '9':
			digits = true
		case ch == '.' && !dot && !exp:
			dot = true
		case (ch == 'e' || ch == 'E') && digits && !exp:
			exp = true
			digits = false
			if i+1 < len(s) && (s[i+1] == '+' || s[i+1] == '-') {
				i++
			}
		default:
			return false
		}
	}
	return digits
}

// formatNumber prints v in the shortest form that reads back to v, switching to
// exponent notation only for very large or very small magnitudes.
func formatNumber(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
