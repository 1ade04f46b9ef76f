package timeseries

// Felt-inflation weights. The coefficients and bounds have no published
// derivation; changing any of them changes every figure already shown to users.
const (
	feltCurrentWeight = 0.6
	feltMemoryWeight  = 0.4
	feltMemoryWindow  = 6
	feltRiseShock     = 0.3
	feltFallShock     = 0.1
	feltPessimism     = 1.1
	feltMin           = 0.0
	feltMax           = 15.0
)

// FeltPoint pairs the official rate with the felt-inflation proxy for one date.
type FeltPoint struct {
	Date     string  `json:"date"`
	Official float64 `json:"official"`
	Felt     float64 `json:"felt"`
}

// FeltInflation computes the felt-inflation proxy for each point:
//
//	felt = 1.1 * (0.6*current + 0.4*rolling6m + shock)
//
// where shock is 0.3*acceleration when prices speed up and 0.1*acceleration
// otherwise. The result is clamped to [0, 15] and rounded to one decimal. The
// 6-month memory uses the rounded rolling average.
func FeltInflation(series Series) []FeltPoint {
	memory := RollingAverage(series, feltMemoryWindow)
	accel := Acceleration(series)

	out := make([]FeltPoint, len(series))
	for i, p := range series {
		shock := accel[i] * feltFallShock
		if accel[i] > 0 {
			shock = accel[i] * feltRiseShock
		}
		felt := feltCurrentWeight*p.Value + feltMemoryWeight*memory[i].Value + shock
		felt *= feltPessimism
		felt = min(max(felt, feltMin), feltMax)
		out[i] = FeltPoint{Date: p.Date, Official: p.Value, Felt: Round1(felt)}
	}
	return out
}
