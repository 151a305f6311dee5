package stresslab

import (
	"math"
	"testing"
)

func TestSeriesAppendKeepsChronology(t *testing.T) {
	s := NewSeries("test").
		Append(MustParseDate("2024-01-03"), 3).
		Append(MustParseDate("2024-01-01"), 1).
		Append(MustParseDate("2024-01-02"), 2)

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	prev, _ := s.First()
	for on := range s.Values() {
		if on.Before(prev) {
			t.Fatalf("series out of order at %s", on)
		}
		prev = on
	}
	if on, v := s.First(); on.String() != "2024-01-01" || v != 1 {
		t.Errorf("First = (%s, %v)", on, v)
	}
	if on, v := s.Last(); on.String() != "2024-01-03" || v != 3 {
		t.Errorf("Last = (%s, %v)", on, v)
	}
}

func TestSeriesAppendOverwrites(t *testing.T) {
	on := MustParseDate("2024-01-01")
	s := NewSeries("test").Append(on, 1).Append(on, 7)
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if v, ok := s.Get(on); !ok || v != 7 {
		t.Errorf("Get = (%v, %v), want (7, true)", v, ok)
	}
}

func TestSeriesMean(t *testing.T) {
	if got := NewSeries("empty").Mean(); got != 0 {
		t.Errorf("empty Mean = %v, want 0", got)
	}
	s := NewSeries("test").
		Append(MustParseDate("2024-01-01"), 0.10).
		Append(MustParseDate("2024-01-02"), 0.30)
	if got := s.Mean(); math.Abs(got-0.20) > 1e-12 {
		t.Errorf("Mean = %v, want 0.20", got)
	}
}

func TestPanelBuilder(t *testing.T) {
	p := NewPanelBuilder().
		Add(MustParseDate("2024-01-02"), "msft", 410).
		Add(MustParseDate("2024-01-01"), "aapl", 100).
		Add(MustParseDate("2024-01-01"), "MSFT", 400).
		Panel()

	if got := p.Tickers(); len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("Tickers = %v, want sorted uppercase [AAPL MSFT]", got)
	}
	if p.Len() != 2 {
		t.Fatalf("Len = %d, want 2", p.Len())
	}
	if p.Day(0).After(p.Day(1)) {
		t.Error("panel days must be ascending")
	}
	if v, ok := p.Get(MustParseDate("2024-01-01"), "msft"); !ok || v != 400 {
		t.Errorf("Get(2024-01-01, msft) = (%v, %v), want (400, true)", v, ok)
	}
	// AAPL has no price on day 2: missing cell.
	if _, ok := p.Get(MustParseDate("2024-01-02"), "AAPL"); ok {
		t.Error("missing cell must report false")
	}
	if p.Has("GOOG") {
		t.Error("Has(GOOG) must be false")
	}
}

func TestPanelFirstDayOnOrAfter(t *testing.T) {
	p := NewPanelBuilder().
		Add(MustParseDate("2024-01-05"), "AAPL", 1).
		Add(MustParseDate("2024-01-08"), "AAPL", 1).
		Panel()

	if got, ok := p.FirstDayOnOrAfter(MustParseDate("2024-01-05")); !ok || got.String() != "2024-01-05" {
		t.Errorf("exact day = (%v, %v)", got, ok)
	}
	if got, ok := p.FirstDayOnOrAfter(MustParseDate("2024-01-06")); !ok || got.String() != "2024-01-08" {
		t.Errorf("weekend snaps forward = (%v, %v)", got, ok)
	}
	if _, ok := p.FirstDayOnOrAfter(MustParseDate("2024-01-09")); ok {
		t.Error("past the last day must report false")
	}
}
