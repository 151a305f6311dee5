package stresslab

import (
	"fmt"
	"strings"
)

// ForecastMode selects the drift estimator.
type ForecastMode int

const (
	// Mean uses the arithmetic mean of the entire return series.
	Mean ForecastMode = iota
	// Rolling uses the arithmetic mean of the last window observations.
	Rolling
	// EWMA uses an exponentially weighted moving average seeded at the
	// first observation.
	EWMA
)

func (m ForecastMode) String() string {
	switch m {
	case Mean:
		return "mean"
	case Rolling:
		return "rolling"
	case EWMA:
		return "ewma"
	default:
		panic(fmt.Sprintf("unknown forecast mode %d", m))
	}
}

// ParseForecastMode parses a forecast mode name. Anything but the three
// recognized names fails with ErrUnknownForecastMode.
func ParseForecastMode(s string) (ForecastMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mean":
		return Mean, nil
	case "rolling":
		return Rolling, nil
	case "ewma":
		return EWMA, nil
	default:
		return Mean, Validationf("%w: %q", ErrUnknownForecastMode, s)
	}
}

// DefaultLambda is the RiskMetrics daily smoothing factor, giving
// alpha = 1 - lambda = 0.06.
const DefaultLambda = 0.94

// DriftSpec configures a drift estimation. Window applies to Rolling.
// Alpha and Lambda apply to EWMA; Alpha takes precedence when both are
// set, and Lambda defaults to DefaultLambda when neither is.
type DriftSpec struct {
	Mode   ForecastMode
	Window int
	Alpha  *float64
	Lambda *float64
}

// Estimate computes the constant daily drift from a historical return
// series. The series must not be empty.
func (spec DriftSpec) Estimate(returns *Series) (float64, error) {
	if returns.IsEmpty() {
		return 0, Validationf("not enough return data to forecast (portfolio returns empty)")
	}
	switch spec.Mode {
	case Mean:
		return returns.Mean(), nil
	case Rolling:
		if spec.Window <= 0 {
			return 0, Validationf("window must be > 0, got %d", spec.Window)
		}
		if spec.Window > returns.Len() {
			return 0, Validationf("window %d exceeds the %d available observations", spec.Window, returns.Len())
		}
		var sum float64
		for _, v := range returns.vals[returns.Len()-spec.Window:] {
			sum += v
		}
		return sum / float64(spec.Window), nil
	case EWMA:
		alpha, err := spec.alpha()
		if err != nil {
			return 0, err
		}
		mu := returns.vals[0]
		for _, r := range returns.vals[1:] {
			mu = alpha*r + (1-alpha)*mu
		}
		return mu, nil
	default:
		return 0, Validationf("%w: %d", ErrUnknownForecastMode, int(spec.Mode))
	}
}

// alpha resolves the EWMA smoothing weight: Alpha when given, otherwise
// 1 - Lambda, with Lambda defaulting to DefaultLambda.
func (spec DriftSpec) alpha() (float64, error) {
	if spec.Alpha != nil {
		a := *spec.Alpha
		if a <= 0 || a >= 1 {
			return 0, Validationf("alpha must be in (0,1), got %v", a)
		}
		return a, nil
	}
	lambda := DefaultLambda
	if spec.Lambda != nil {
		lambda = *spec.Lambda
	}
	if lambda <= 0 || lambda >= 1 {
		return 0, Validationf("lambda must be in (0,1), got %v", lambda)
	}
	return 1 - lambda, nil
}

// DefaultTarget is the projected-value multiple reported in the forecast
// summary when the caller does not override it (+10%).
const DefaultTarget = 1.10

// Trend is the drift metadata echoed with a forecast. For EWMA, Alpha
// and Lambda carry the resolved smoothing parameters, defaults included.
type Trend struct {
	Mode   string   `json:"mode"`
	Window int      `json:"window,omitempty"`
	Alpha  *float64 `json:"alpha,omitempty"`
	Lambda *float64 `json:"lambda,omitempty"`
	Drift  float64  `json:"mean_daily_return"`
}

// Summary describes the projected path relative to the last historical value.
type Summary struct {
	FinalValue float64 `json:"final_value"`
	AbsChange  float64 `json:"abs_change"`
	RelChange  float64 `json:"rel_change"`
	// RealizedMeanDailyReturn is the average daily return implied by the
	// projected curve, a sanity check against the estimated drift.
	RealizedMeanDailyReturn float64 `json:"realized_mean_daily_return"`
	TargetMultiple          float64 `json:"target_multiple"`
	// DaysToTarget is the first business-day index (1-based, within the
	// horizon) at which the projection reaches the target multiple of the
	// last historical value, or nil when unreached.
	DaysToTarget *int `json:"days_to_target"`
}

// ForecastResult carries the curves and statistics of one projection.
type ForecastResult struct {
	Historical *Series
	Projected  *Series
	Combined   *Series
	Trend      Trend
	Summary    Summary
}

// Forecast estimates a constant daily drift from the historical portfolio
// returns and compounds it forward over the given business-day horizon,
// starting from the last value of the historical equity curve.
func Forecast(returns *Series, startingCash float64, spec DriftSpec, days int, target float64) (*ForecastResult, error) {
	if days <= 0 {
		return nil, Validationf("forecast days must be > 0, got %d", days)
	}
	if returns.IsEmpty() {
		return nil, Validationf("not enough return data to forecast (portfolio returns empty)")
	}

	drift, err := spec.Estimate(returns)
	if err != nil {
		return nil, err
	}

	historical := EquityCurve(returns, startingCash)
	lastDate, lastValue := historical.Last()

	projected := NewSeries(EquityCurveName)
	combined := NewSeries(EquityCurveName)
	for on, v := range historical.Values() {
		combined.Append(on, v)
	}

	var daysToTarget *int
	value := lastValue
	for i, on := range lastDate.BusinessDaysAfter(days) {
		value *= 1 + drift
		projected.Append(on, value)
		combined.Append(on, value)
		if daysToTarget == nil && value >= target*lastValue {
			day := i + 1
			daysToTarget = &day
		}
	}

	trend := Trend{Mode: spec.Mode.String(), Drift: drift}
	switch spec.Mode {
	case Rolling:
		trend.Window = spec.Window
	case EWMA:
		// Echo the smoothing weight that actually drove the estimate,
		// not the raw request: alpha is always resolved, lambda only
		// when it was what determined alpha.
		alpha, _ := spec.alpha()
		trend.Alpha = &alpha
		if spec.Alpha == nil {
			lambda := DefaultLambda
			if spec.Lambda != nil {
				lambda = *spec.Lambda
			}
			trend.Lambda = &lambda
		}
	}

	// Average daily return implied by the projected path.
	var realized float64
	prev := lastValue
	for _, v := range projected.Values() {
		realized += v/prev - 1
		prev = v
	}
	realized /= float64(projected.Len())

	_, finalValue := projected.Last()
	return &ForecastResult{
		Historical: historical,
		Projected:  projected,
		Combined:   combined,
		Trend:      trend,
		Summary: Summary{
			FinalValue:              finalValue,
			AbsChange:               finalValue - lastValue,
			RelChange:               finalValue/lastValue - 1,
			RealizedMeanDailyReturn: realized,
			TargetMultiple:          target,
			DaysToTarget:            daysToTarget,
		},
	}, nil
}
