package stresslab

import (
	"errors"
	"math"
	"testing"
)

func TestParseForecastMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ForecastMode
		wantErr bool
	}{
		{in: "mean", want: Mean},
		{in: " Rolling ", want: Rolling},
		{in: "EWMA", want: EWMA},
		{in: "arima", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseForecastMode(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownForecastMode) {
				t.Errorf("ParseForecastMode(%q): got %v, want ErrUnknownForecastMode", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseForecastMode(%q) = (%v, %v), want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestDriftMean(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0.01, 0.03, 0.02})
	got, err := DriftSpec{Mode: Mean}.Estimate(returns)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.02) > 1e-12 {
		t.Errorf("mean drift = %v, want 0.02", got)
	}
}

func TestDriftRolling(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0, 0, 0, 0.10, 0.10})

	got, err := DriftSpec{Mode: Rolling, Window: 2}.Estimate(returns)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.10) > 1e-12 {
		t.Errorf("rolling(2) = %v, want 0.10", got)
	}

	if _, err := (DriftSpec{Mode: Rolling, Window: 6}).Estimate(returns); !IsValidation(err) {
		t.Errorf("window beyond the series: got %v, want a validation error", err)
	}
	if _, err := (DriftSpec{Mode: Rolling}).Estimate(returns); !IsValidation(err) {
		t.Errorf("missing window: got %v, want a validation error", err)
	}
}

func TestDriftEWMA(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0, 0, 0.10})
	alpha := 0.5
	got, err := DriftSpec{Mode: EWMA, Alpha: &alpha}.Estimate(returns)
	if err != nil {
		t.Fatal(err)
	}
	// mu = 0, then 0, then 0.5*0.10 + 0.5*0 = 0.05.
	if math.Abs(got-0.05) > 1e-12 {
		t.Errorf("ewma(alpha=0.5) = %v, want 0.05", got)
	}
}

func TestDriftEWMALambda(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0, 0.10})
	lambda := 0.9
	got, err := DriftSpec{Mode: EWMA, Lambda: &lambda}.Estimate(returns)
	if err != nil {
		t.Fatal(err)
	}
	// alpha = 1 - lambda = 0.1: mu = 0.1*0.10 = 0.01.
	if math.Abs(got-0.01) > 1e-12 {
		t.Errorf("ewma(lambda=0.9) = %v, want 0.01", got)
	}

	// Alpha takes precedence over lambda.
	alpha := 0.5
	got, err = DriftSpec{Mode: EWMA, Alpha: &alpha, Lambda: &lambda}.Estimate(returns)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.05) > 1e-12 {
		t.Errorf("alpha precedence: got %v, want 0.05", got)
	}

	bad := 1.5
	if _, err := (DriftSpec{Mode: EWMA, Alpha: &bad}).Estimate(returns); !IsValidation(err) {
		t.Errorf("alpha out of range: got %v, want a validation error", err)
	}
}

func TestForecast(t *testing.T) {
	// Friday 2024-01-05 ends the history; the projection must continue on
	// business days only.
	returns := NewSeries(PortfolioReturnName).
		Append(MustParseDate("2024-01-04"), 0.01).
		Append(MustParseDate("2024-01-05"), 0.01)

	result, err := Forecast(returns, 100, DriftSpec{Mode: Mean}, 5, DefaultTarget)
	if err != nil {
		t.Fatal(err)
	}

	if result.Projected.Len() != 5 {
		t.Fatalf("projected %d points, want 5", result.Projected.Len())
	}
	first, _ := result.Projected.First()
	if first.String() != "2024-01-08" {
		t.Errorf("projection starts %s, want Monday 2024-01-08", first)
	}
	for on := range result.Projected.Values() {
		if !on.IsBusinessDay() {
			t.Errorf("projected date %s is not a business day", on)
		}
	}

	_, lastHist := result.Historical.Last()
	wantFinal := lastHist * math.Pow(1.01, 5)
	if math.Abs(result.Summary.FinalValue-wantFinal) > 1e-9 {
		t.Errorf("FinalValue = %v, want %v", result.Summary.FinalValue, wantFinal)
	}
	if math.Abs(result.Summary.RealizedMeanDailyReturn-0.01) > 1e-9 {
		t.Errorf("RealizedMeanDailyReturn = %v, want 0.01", result.Summary.RealizedMeanDailyReturn)
	}
	if result.Combined.Len() != result.Historical.Len()+result.Projected.Len() {
		t.Errorf("combined length %d", result.Combined.Len())
	}
	if result.Trend.Mode != "mean" || math.Abs(result.Trend.Drift-0.01) > 1e-12 {
		t.Errorf("trend = %+v", result.Trend)
	}
}

func TestForecastTrendEchoesResolvedEWMA(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0.01, 0.02, 0.01})

	// No alpha, no lambda: the defaults that drove the estimate must
	// still be reported.
	result, err := Forecast(returns, 100, DriftSpec{Mode: EWMA}, 5, DefaultTarget)
	if err != nil {
		t.Fatal(err)
	}
	if result.Trend.Alpha == nil || math.Abs(*result.Trend.Alpha-(1-DefaultLambda)) > 1e-12 {
		t.Errorf("Trend.Alpha = %v, want the resolved 1-lambda", result.Trend.Alpha)
	}
	if result.Trend.Lambda == nil || *result.Trend.Lambda != DefaultLambda {
		t.Errorf("Trend.Lambda = %v, want %v", result.Trend.Lambda, DefaultLambda)
	}

	// An explicit alpha takes precedence, so no lambda is echoed.
	alpha := 0.5
	result, err = Forecast(returns, 100, DriftSpec{Mode: EWMA, Alpha: &alpha}, 5, DefaultTarget)
	if err != nil {
		t.Fatal(err)
	}
	if result.Trend.Alpha == nil || *result.Trend.Alpha != 0.5 || result.Trend.Lambda != nil {
		t.Errorf("trend = %+v, want alpha 0.5 and no lambda", result.Trend)
	}
}

func TestForecastDaysToTarget(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0.10, 0.10})

	// 10% daily drift reaches a 1.10 multiple on the first projected day.
	result, err := Forecast(returns, 100, DriftSpec{Mode: Mean}, 10, 1.10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.DaysToTarget == nil || *result.Summary.DaysToTarget != 1 {
		t.Errorf("DaysToTarget = %v, want 1", result.Summary.DaysToTarget)
	}

	// An out-of-reach multiple is reported as nil, not an error.
	result, err = Forecast(returns, 100, DriftSpec{Mode: Mean}, 2, 10.0)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.DaysToTarget != nil {
		t.Errorf("DaysToTarget = %v, want nil", *result.Summary.DaysToTarget)
	}
}

func TestForecastValidation(t *testing.T) {
	returns := returnSeries("2024-01-01", []float64{0.01})
	if _, err := Forecast(returns, 100, DriftSpec{Mode: Mean}, 0, DefaultTarget); !IsValidation(err) {
		t.Errorf("days 0: got %v, want a validation error", err)
	}
	if _, err := Forecast(NewSeries(PortfolioReturnName), 100, DriftSpec{Mode: Mean}, 5, DefaultTarget); !IsValidation(err) {
		t.Errorf("empty returns: got %v, want a validation error", err)
	}
}
