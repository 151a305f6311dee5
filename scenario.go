package stresslab

import (
	"fmt"
	"math"
	"strings"
)

// ShockType selects one of the deterministic stress transformations.
type ShockType int

const (
	// Permanent multiplies every price on and after the shock date by (1+pct).
	Permanent ShockType = iota
	// LinearRebound applies the shock on the first trading day at or after
	// the shock date and fades it linearly back to 1.0 over rebound days.
	LinearRebound
	// RegimeShift rescales post-shock return deviations by a volatility
	// multiplier and adds a constant drift shift, then rebuilds prices.
	RegimeShift
)

func (t ShockType) String() string {
	switch t {
	case Permanent:
		return "permanent"
	case LinearRebound:
		return "linear_rebound"
	case RegimeShift:
		return "regime_shift"
	default:
		panic(fmt.Sprintf("unknown shock type %d", t))
	}
}

// ParseShockType parses a shock type name. Anything but the three
// recognized names fails with ErrUnknownShockType.
func ParseShockType(s string) (ShockType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "permanent":
		return Permanent, nil
	case "linear_rebound":
		return LinearRebound, nil
	case "regime_shift":
		return RegimeShift, nil
	default:
		return Permanent, Validationf("%w: %q", ErrUnknownShockType, s)
	}
}

// Shock describes one stress event applied to a price panel.
type Shock struct {
	Type        ShockType
	Date        Date
	Pct         float64 // level shock, -0.10 means -10%
	ReboundDays int     // LinearRebound only, trading days back to baseline
	VolMult     float64 // RegimeShift only, deviation multiplier
	DriftShift  float64 // RegimeShift only, constant added to daily returns
}

// Apply transforms the baseline panel according to the shock and returns
// a new panel. The baseline is never mutated. A shock date beyond the
// last trading day leaves the panel unchanged.
func (s Shock) Apply(prices *Panel) (*Panel, error) {
	switch s.Type {
	case Permanent:
		return s.applyPermanent(prices), nil
	case LinearRebound:
		if s.ReboundDays < 1 {
			return nil, Validationf("rebound_days must be >= 1, got %d", s.ReboundDays)
		}
		return s.applyLinearRebound(prices), nil
	case RegimeShift:
		return s.applyRegimeShift(prices), nil
	default:
		return nil, Validationf("%w: %d", ErrUnknownShockType, int(s.Type))
	}
}

// applyPermanent multiplies all values on and after the shock date by (1+pct).
func (s Shock) applyPermanent(prices *Panel) *Panel {
	shocked := prices.clone()
	start, _ := shocked.searchDay(s.Date)
	for i := start; i < len(shocked.days); i++ {
		for j := range shocked.tickers {
			shocked.cells[i][j] *= 1 + s.Pct
		}
	}
	return shocked
}

// applyLinearRebound multiplies the rows between the first trading day at
// or after the shock date and the end of the rebound window by factors
// interpolated from (1+pct) down to 1.0. Rows after the window keep
// their baseline values, so the series continues from the already
// recovered level.
func (s Shock) applyLinearRebound(prices *Panel) *Panel {
	shocked := prices.clone()
	start, _ := shocked.searchDay(s.Date)
	if start >= len(shocked.days) {
		return shocked
	}
	end := min(start+s.ReboundDays, len(shocked.days)-1)
	steps := end - start
	m0 := 1 + s.Pct
	for i := start; i <= end; i++ {
		mult := m0
		if steps > 0 {
			mult = m0 + (1-m0)*float64(i-start)/float64(steps)
		}
		for j := range shocked.tickers {
			shocked.cells[i][j] *= mult
		}
	}
	return shocked
}

// applyRegimeShift recomputes returns, replaces each post-shock return r
// with mu + volMult*(r-mu) + driftShift (mu being the per-ticker mean of
// the post-shock returns), and rebuilds the post-shock price path by
// compounding from the anchor row immediately preceding the shock.
func (s Shock) applyRegimeShift(prices *Panel) *Panel {
	shocked := prices.clone()
	start, _ := shocked.searchDay(s.Date)
	if start >= len(shocked.days) {
		return shocked
	}
	startDate := shocked.days[start]

	returns := prices.Returns()
	postFrom, _ := returns.searchDay(startDate)
	if postFrom >= len(returns.days) {
		return shocked
	}

	// Per-ticker mean of the post-shock returns.
	mu := make([]float64, len(returns.tickers))
	n := len(returns.days) - postFrom
	for j := range returns.tickers {
		var sum float64
		for i := postFrom; i < len(returns.days); i++ {
			sum += returns.at(i, j)
		}
		mu[j] = sum / float64(n)
	}

	// Compound the adjusted returns forward from the anchor prices.
	anchor := max(start-1, 0)
	level := make([]float64, len(shocked.tickers))
	for j := range shocked.tickers {
		level[j] = shocked.cells[anchor][j]
	}
	for i := postFrom; i < len(returns.days); i++ {
		row, found := shocked.searchDay(returns.days[i])
		if !found {
			continue
		}
		for j, ticker := range returns.tickers {
			col := shocked.index[ticker]
			adjusted := mu[j] + s.VolMult*(returns.at(i, j)-mu[j]) + s.DriftShift
			level[col] *= 1 + adjusted
			if !math.IsNaN(shocked.cells[row][col]) {
				shocked.cells[row][col] = level[col]
			}
		}
	}
	return shocked
}
