package timeseries

// KPIs summarizes an inflation series. Values are rounded to one decimal.
type KPIs struct {
	LatestYoY   float64 `json:"latestYoY"`
	Avg12Months float64 `json:"avg12Months"`
	Peak10Years float64 `json:"peak10Years"`
	PeakDate    string  `json:"peakDate,omitempty"`
}

// ComputeKPIs returns the latest value, the mean of the last (up to) 12 values and
// the series maximum. When the maximum occurs more than once, PeakDate is the
// earliest occurrence. An empty series yields zero KPIs without a peak date.
func ComputeKPIs(series Series) KPIs {
	if len(series) == 0 {
		return KPIs{}
	}

	latest := series[len(series)-1].Value
	avg := mean(LastN(series, 12).Values())

	peak := series[0]
	for _, p := range series[1:] {
		if p.Value > peak.Value {
			peak = p
		}
	}

	return KPIs{
		LatestYoY:   Round1(latest),
		Avg12Months: Round1(avg),
		Peak10Years: Round1(peak.Value),
		PeakDate:    peak.Date,
	}
}

// Change is the difference between the last and first points of a series.
type Change struct {
	Absolute float64 `json:"absolute"`
	Percent  float64 `json:"percent"`
}

// ComputeChange reports last-first and its share of first, in percent. It
// returns false for series shorter than two points. A zero first value gives a
// zero Percent rather than an infinite one.
func ComputeChange(series Series) (Change, bool) {
	if len(series) < 2 {
		return Change{}, false
	}
	first := series[0].Value
	abs := series[len(series)-1].Value - first
	c := Change{Absolute: abs}
	if first != 0 {
		c.Percent = abs / first * 100
	}
	return c, true
}

// LatestGrowthRate is the percent change between the last two points.
func LatestGrowthRate(series Series) (float64, bool) {
	if len(series) < 2 {
		return 0, false
	}
	c, _ := ComputeChange(series[len(series)-2:])
	if series[len(series)-2].Value == 0 {
		return 0, false
	}
	return c.Percent, true
}
