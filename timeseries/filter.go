package timeseries

import (
	"fmt"
	"time"
)

var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// ParseDate reads a YYYY, YYYY-MM or YYYY-MM-DD string as the first instant it denotes.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeseries: invalid date %q", s)
}

// LastN returns the trailing n points (all of them when the series is shorter).
// The result shares storage with series.
func LastN(series Series, n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// Limit returns at most the first n points; n <= 0 means no limit.
func Limit(series Series, n int) Series {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[:n]
}

// Between keeps points whose date falls in [from, to]. Zero bounds are open.
// Points with unparseable dates are dropped.
func Between(series Series, from, to time.Time) Series {
	out := make(Series, 0, len(series))
	for _, p := range series {
		t, err := ParseDate(p.Date)
		if err != nil {
			continue
		}
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && t.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Comparison holds the last twelve points and the twelve before them.
type Comparison struct {
	Current12Months  Series `json:"current12Months"`
	Previous12Months Series `json:"previous12Months"`
}

// YoYComparison splits the trailing 24 points into two 12-point windows. It
// returns false when fewer than 24 points are available.
func YoYComparison(series Series) (Comparison, bool) {
	if len(series) < 24 {
		return Comparison{}, false
	}
	n := len(series)
	return Comparison{
		Current12Months:  series[n-12:],
		Previous12Months: series[n-24 : n-12],
	}, true
}
