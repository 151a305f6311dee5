package stresslab

import (
	"math"

	"github.com/shopspring/decimal"
)

// Rounding is applied at the serialization boundary only, never inside
// the pipeline, so that intermediate compounding stays exact.

// Round2 rounds a currency-like value to 2 decimals. Non-finite input
// collapses to 0.
func Round2(v float64) float64 { return roundTo(v, 2) }

// Round6 rounds a ratio-like value to 6 decimals. Non-finite input
// collapses to 0.
func Round6(v float64) float64 { return roundTo(v, 6) }

func roundTo(v float64, places int32) float64 {
	v = sanitize(v)
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// sanitize replaces NaN and infinities by the defined finite fallback 0.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// rounded applies Round6 to every metric of the set.
func (m Metrics) rounded() Metrics {
	return Metrics{
		AnnualizedReturn:     Round6(m.AnnualizedReturn),
		AnnualizedVolatility: Round6(m.AnnualizedVolatility),
		MaxDrawdown:          Round6(m.MaxDrawdown),
		SharpeRatio:          Round6(m.SharpeRatio),
	}
}
