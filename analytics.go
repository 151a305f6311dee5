package stresslab

import "math"

// EquityCurveName is the fixed name of a compounded equity curve series.
const EquityCurveName = "equity"

// PeriodsPerYear is the trading-day annualization factor.
const PeriodsPerYear = 252

// Metrics holds the four performance and risk figures derived from a
// portfolio return series. Every field is a finite number: degenerate
// inputs fall back to 0.
type Metrics struct {
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
}

// Sub returns the metric-by-metric difference m - o.
func (m Metrics) Sub(o Metrics) Metrics {
	return Metrics{
		AnnualizedReturn:     m.AnnualizedReturn - o.AnnualizedReturn,
		AnnualizedVolatility: m.AnnualizedVolatility - o.AnnualizedVolatility,
		MaxDrawdown:          m.MaxDrawdown - o.MaxDrawdown,
		SharpeRatio:          m.SharpeRatio - o.SharpeRatio,
	}
}

// EquityCurve compounds a return series into portfolio values:
//
//	V[t] = cash * prod(1+r[i]) for i <= t
//
// An empty input yields an empty series named "equity".
func EquityCurve(returns *Series, startingCash float64) *Series {
	curve := NewSeries(EquityCurveName)
	value := startingCash
	for on, r := range returns.Values() {
		value *= 1 + r
		curve.Append(on, value)
	}
	return curve
}

// sampleStd returns the Bessel-corrected (divisor n-1) standard deviation
// of vals, or NaN when fewer than two observations exist.
func sampleStd(vals []float64) float64 {
	n := len(vals)
	if n < 2 {
		return math.NaN()
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(n)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// AnnualizedVolatility is the sample standard deviation of the daily
// returns scaled by sqrt(periodsPerYear). 0 for an empty series.
func AnnualizedVolatility(returns *Series, periodsPerYear int) float64 {
	if returns.IsEmpty() {
		return 0
	}
	std := sampleStd(returns.vals)
	if math.IsNaN(std) {
		return 0
	}
	return std * math.Sqrt(float64(periodsPerYear))
}

// MaxDrawdown is the lowest fractional decline of the curve from its
// running peak: min(V[t]/runningMax(V)[t] - 1). It is 0 for an empty
// curve, and exactly 0 for a monotonically non-decreasing one.
func MaxDrawdown(curve *Series) float64 {
	if curve.IsEmpty() {
		return 0
	}
	worst := 0.0
	runningMax := math.Inf(-1)
	for _, v := range curve.Values() {
		if v > runningMax {
			runningMax = v
		}
		if dd := v/runningMax - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// AnnualizedReturn converts the curve's total growth to a yearly rate
// using the calendar-day span between its first and last dates:
//
//	(V_end/V_start)^(365.25/days) - 1
//
// It returns 0 when the curve is empty, the start value is not positive,
// or the day span is not positive.
func AnnualizedReturn(curve *Series) float64 {
	if curve.IsEmpty() {
		return 0
	}
	first, startVal := curve.First()
	last, endVal := curve.Last()
	if startVal <= 0 {
		return 0
	}
	days := last.Sub(first)
	if days <= 0 {
		return 0
	}
	years := float64(days) / 365.25
	return math.Pow(endVal/startVal, 1/years) - 1
}

// SharpeRatio is the annualized mean excess return over the risk-free
// rate divided by the sample standard deviation of the excess returns.
// The annual risk-free rate is converted to a daily rate by dividing by
// periodsPerYear. It returns 0 for an empty series or when the standard
// deviation is 0 or undefined.
func SharpeRatio(returns *Series, annualRiskFree float64, periodsPerYear int) float64 {
	if returns.IsEmpty() {
		return 0
	}
	rfDaily := annualRiskFree / float64(periodsPerYear)
	excess := make([]float64, len(returns.vals))
	for i, r := range returns.vals {
		excess[i] = r - rfDaily
	}
	std := sampleStd(excess)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	var sum float64
	for _, e := range excess {
		sum += e
	}
	mean := sum / float64(len(excess))
	return mean / std * math.Sqrt(float64(periodsPerYear))
}

// ComputeMetrics derives the full metric set from a portfolio return
// series and its equity curve. All values are sanitized to be finite.
func ComputeMetrics(returns *Series, curve *Series, annualRiskFree float64) Metrics {
	return Metrics{
		AnnualizedReturn:     sanitize(AnnualizedReturn(curve)),
		AnnualizedVolatility: sanitize(AnnualizedVolatility(returns, PeriodsPerYear)),
		MaxDrawdown:          sanitize(MaxDrawdown(curve)),
		SharpeRatio:          sanitize(SharpeRatio(returns, 0, PeriodsPerYear)),
	}
}
