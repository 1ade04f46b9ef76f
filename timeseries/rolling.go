package timeseries

// RollingMean averages series[max(0, i-window+1) .. i] for every i. Early points
// use the shorter window available. A window below 1 is treated as 1.
func RollingMean(series Series, window int) Series {
	if window < 1 {
		window = 1
	}
	out := make(Series, len(series))
	for i, p := range series {
		start := max(0, i-window+1)
		var sum float64
		for _, q := range series[start : i+1] {
			sum += q.Value
		}
		out[i] = Point{Date: p.Date, Value: sum / float64(i-start+1)}
	}
	return out
}

// RollingAverage is RollingMean rounded to one decimal.
func RollingAverage(series Series, window int) Series {
	out := RollingMean(series, window)
	for i := range out {
		out[i].Value = Round1(out[i].Value)
	}
	return out
}

// Acceleration returns the first difference of the series values; index 0 is 0.
func Acceleration(series Series) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = series[i].Value - series[i-1].Value
	}
	return out
}
