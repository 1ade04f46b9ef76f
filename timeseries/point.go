// Package timeseries derives statistics from chronologically ordered series.
//
// Every function preserves input order and never sorts: callers hand in series
// already ordered oldest first. Rounded outputs use one decimal with halves
// rounded toward positive infinity.
package timeseries

import "math"

// Point is one observation. Date is a month (YYYY-MM), a year (YYYY), or a full
// ISO date; Value is a percentage or an absolute count.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Series is an ordered sequence of points, oldest first.
type Series []Point

// Values returns the raw values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// Round1 rounds to one decimal, halves toward +Inf (2.25 -> 2.3, -2.25 -> -2.2).
func Round1(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
