package stresslab

import (
	"math"
	"strings"
)

// PortfolioReturnName is the fixed name of an aggregated portfolio return series.
const PortfolioReturnName = "portfolio_return"

// Returns converts price levels to daily simple returns, per ticker:
//
//	r[t] = P[t]/P[t-1] - 1
//
// A return row is dropped when any ticker's return is unavailable that
// day: today's price missing, the previous day's price missing, or a
// previous price of zero that would make the ratio unbounded. The first
// row never has a return. An empty panel converts to an empty panel.
func (p *Panel) Returns() *Panel {
	if p.IsEmpty() {
		return newPanel(p.tickers, nil)
	}

	days := make([]Date, 0, len(p.days)-1)
	rows := make([][]float64, 0, len(p.days)-1)
	for i := 1; i < len(p.days); i++ {
		row := make([]float64, len(p.tickers))
		complete := true
		for j := range p.tickers {
			prev, cur := p.at(i-1, j), p.at(i, j)
			if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
				complete = false
				break
			}
			row[j] = cur/prev - 1
		}
		if !complete {
			continue
		}
		days = append(days, p.days[i])
		rows = append(rows, row)
	}

	r := newPanel(p.tickers, days)
	r.cells = rows
	return r
}

// PortfolioReturns aggregates per-ticker returns into a single portfolio
// return series, as the weighted sum of returns per day:
//
//	portfolio_return[t] = sum_i w_i * r_i[t]
//
// Tickers are case-normalized, weights are normalized to sum to 1, and a
// missing return on a given day counts as 0 for that ticker. It fails
// with ErrNoOverlap when no weight ticker has a return column, and with
// ErrZeroWeightSum when the matched weights sum to 0. An empty input
// yields an empty named series, not an error.
func PortfolioReturns(assetReturns *Panel, weights map[string]float64) (*Series, error) {
	out := NewSeries(PortfolioReturnName)
	if assetReturns.IsEmpty() {
		return out, nil
	}

	w := make(map[string]float64, len(weights))
	for ticker, weight := range weights {
		w[strings.ToUpper(strings.TrimSpace(ticker))] = weight
	}

	// Keep only the tickers that actually have a return column, and
	// renormalize their weights over that subset.
	matched := make(map[string]float64, len(w))
	for _, ticker := range assetReturns.tickers {
		if weight, ok := w[ticker]; ok {
			matched[ticker] = weight
		}
	}
	if len(matched) == 0 {
		return nil, validation(ErrNoOverlap)
	}
	normalized, err := NormalizeWeights(matched)
	if err != nil {
		return nil, err
	}

	cols := make([]int, 0, len(normalized))
	colWeights := make([]float64, 0, len(normalized))
	for i, ticker := range assetReturns.tickers {
		weight, ok := normalized[ticker]
		if !ok {
			continue
		}
		cols = append(cols, i)
		colWeights = append(colWeights, weight)
	}

	for i, on := range assetReturns.days {
		var sum float64
		for k, col := range cols {
			r := assetReturns.at(i, col)
			if math.IsNaN(r) {
				continue // missing return counts as 0 that day
			}
			sum += colWeights[k] * r
		}
		out.Append(on, sum)
	}
	return out, nil
}

// NormalizeWeights scales the weights so they sum to 1, regardless of the
// user-supplied magnitudes. It fails with ErrZeroWeightSum when the sum
// is exactly zero.
func NormalizeWeights(weights map[string]float64) (map[string]float64, error) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return nil, validation(ErrZeroWeightSum)
	}
	normalized := make(map[string]float64, len(weights))
	for ticker, w := range weights {
		normalized[strings.ToUpper(strings.TrimSpace(ticker))] = w / total
	}
	return normalized, nil
}

// Position is one line of a shares-to-weights valuation.
type Position struct {
	Ticker string  `json:"ticker"`
	Shares float64 `json:"shares"`
	Price  float64 `json:"price"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
}

// Breakdown is the audit trail of a shares-to-weights conversion: each
// holding valued at the price of the panel's first trading day.
type Breakdown struct {
	AsOf       Date       `json:"as_of"`
	TotalValue float64    `json:"total_value"`
	Positions  []Position `json:"positions"`
}

// SharesToWeights values each holding at the price on the panel's first
// row and converts the share counts to normalized weights. It fails when
// a holding has non-positive shares, when a ticker is absent from the
// panel, or when its first-row price is missing or non-positive.
func SharesToWeights(prices *Panel, shares map[string]float64) (map[string]float64, *Breakdown, error) {
	if prices.IsEmpty() {
		return nil, nil, Validationf("cannot value shares: price panel is empty")
	}
	asOf := prices.days[0]

	breakdown := &Breakdown{AsOf: asOf}
	for _, ticker := range prices.tickers {
		count, ok := shares[ticker]
		if !ok {
			continue
		}
		if count <= 0 {
			return nil, nil, Validationf("holding %s: shares must be positive, got %v", ticker, count)
		}
		price := prices.at(0, prices.index[ticker])
		if math.IsNaN(price) || price <= 0 {
			return nil, nil, Validationf("holding %s: no usable price on %s", ticker, asOf)
		}
		value := count * price
		breakdown.Positions = append(breakdown.Positions, Position{
			Ticker: ticker,
			Shares: count,
			Price:  price,
			Value:  value,
		})
		breakdown.TotalValue += value
	}
	if len(breakdown.Positions) != len(shares) {
		for ticker := range shares {
			if !prices.Has(ticker) {
				return nil, nil, Validationf("holding %s: ticker absent from market data", ticker)
			}
		}
	}
	if breakdown.TotalValue <= 0 {
		return nil, nil, Validationf("total portfolio value must be positive, got %v", breakdown.TotalValue)
	}

	weights := make(map[string]float64, len(breakdown.Positions))
	for i := range breakdown.Positions {
		pos := &breakdown.Positions[i]
		pos.Weight = pos.Value / breakdown.TotalValue
		weights[pos.Ticker] = pos.Weight
	}
	return weights, breakdown, nil
}
