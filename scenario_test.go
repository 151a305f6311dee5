package stresslab

import (
	"errors"
	"math"
	"testing"
)

func TestParseShockType(t *testing.T) {
	tests := []struct {
		in      string
		want    ShockType
		wantErr bool
	}{
		{in: "permanent", want: Permanent},
		{in: " Linear_Rebound ", want: LinearRebound},
		{in: "REGIME_SHIFT", want: RegimeShift},
		{in: "flash_crash", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseShockType(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownShockType) {
				t.Errorf("ParseShockType(%q): got %v, want ErrUnknownShockType", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseShockType(%q) = (%v, %v), want %v", tc.in, got, err, tc.want)
		}
	}
}

// weekdayPanel builds a single-ticker panel over consecutive business days.
func weekdayPanel(ticker, start string, prices []float64) *Panel {
	b := NewPanelBuilder()
	on := MustParseDate(start)
	for _, v := range prices {
		b.Add(on, ticker, v)
		on = on.NextBusinessDay()
	}
	return b.Panel()
}

func samePanel(t *testing.T, a, b *Panel, tolerance float64) {
	t.Helper()
	if a.Len() != b.Len() {
		t.Fatalf("row count %d != %d", a.Len(), b.Len())
	}
	for i, on := range a.Days() {
		for _, ticker := range a.Tickers() {
			av, aok := a.Get(on, ticker)
			bv, bok := b.Get(on, ticker)
			if aok != bok || math.Abs(av-bv) > tolerance {
				t.Errorf("row %d (%s) %s: %v vs %v", i, on, ticker, av, bv)
			}
		}
	}
}

func TestPermanentShock(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 100, 100, 100})
	shockDay := prices.Day(2)

	shocked, err := Shock{Type: Permanent, Date: shockDay, Pct: -0.20}.Apply(prices)
	if err != nil {
		t.Fatal(err)
	}
	for i, on := range shocked.Days() {
		v, _ := shocked.Get(on, "AAPL")
		want := 100.0
		if i >= 2 {
			want = 80.0
		}
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("day %d = %v, want %v", i, v, want)
		}
	}
	// The baseline panel is untouched.
	if v, _ := prices.Get(shockDay, "AAPL"); v != 100 {
		t.Errorf("baseline mutated: %v", v)
	}
}

func TestPermanentShockZeroPctIsIdentity(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 104, 99, 107})
	shocked, err := Shock{Type: Permanent, Date: prices.Day(1), Pct: 0}.Apply(prices)
	if err != nil {
		t.Fatal(err)
	}
	samePanel(t, prices, shocked, 1e-10)
}

func TestLinearReboundShock(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 100, 100, 100})
	shockDay := prices.Day(1)

	shocked, err := Shock{Type: LinearRebound, Date: shockDay, Pct: -0.10, ReboundDays: 3}.Apply(prices)
	if err != nil {
		t.Fatal(err)
	}
	// Three shocked rows remain after the drop day index: multipliers fade
	// 0.90, 0.95, 1.00 over the truncated window.
	want := []float64{100, 90, 95, 100}
	for i, on := range shocked.Days() {
		v, _ := shocked.Get(on, "AAPL")
		if math.Abs(v-want[i]) > 1e-9 {
			t.Errorf("day %d = %v, want %v", i, v, want[i])
		}
	}
}

func TestLinearReboundRequiresDays(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 100})
	_, err := Shock{Type: LinearRebound, Date: prices.Day(0), Pct: -0.10}.Apply(prices)
	if !IsValidation(err) {
		t.Errorf("got %v, want a validation error for rebound_days < 1", err)
	}
}

func TestRegimeShiftNeutralParamsIsIdentity(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 102, 101, 104, 103})
	shocked, err := Shock{Type: RegimeShift, Date: prices.Day(2), VolMult: 1, DriftShift: 0}.Apply(prices)
	if err != nil {
		t.Fatal(err)
	}
	// vol_mult 1 and drift_shift 0 reproduce the original returns, so
	// recompounding lands back on the original prices.
	samePanel(t, prices, shocked, 1e-9)
}

func TestRegimeShiftDriftShiftLowersPath(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 101, 102, 103, 104})
	shocked, err := Shock{Type: RegimeShift, Date: prices.Day(2), VolMult: 1, DriftShift: -0.01}.Apply(prices)
	if err != nil {
		t.Fatal(err)
	}
	last := prices.Day(prices.Len() - 1)
	orig, _ := prices.Get(last, "AAPL")
	got, _ := shocked.Get(last, "AAPL")
	if got >= orig {
		t.Errorf("negative drift shift must lower the final price: %v >= %v", got, orig)
	}
	// Pre-shock rows are untouched.
	for i := 0; i < 2; i++ {
		on := prices.Day(i)
		a, _ := prices.Get(on, "AAPL")
		b, _ := shocked.Get(on, "AAPL")
		if a != b {
			t.Errorf("pre-shock row %d changed: %v != %v", i, b, a)
		}
	}
}

func TestShockAfterLastDayIsIdentity(t *testing.T) {
	prices := weekdayPanel("AAPL", "2024-01-01", []float64{100, 101})
	for _, typ := range []ShockType{Permanent, LinearRebound, RegimeShift} {
		s := Shock{Type: typ, Date: MustParseDate("2030-01-01"), Pct: -0.5, ReboundDays: 5, VolMult: 2}
		shocked, err := s.Apply(prices)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		samePanel(t, prices, shocked, 0)
	}
}
