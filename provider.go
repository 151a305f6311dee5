package stresslab

import "context"

// PriceProvider retrieves daily adjusted closing prices from an external
// market data source.
type PriceProvider interface {
	// DailyPrices returns a panel of prices for the uppercased tickers
	// over the half-open calendar window. The panel has ascending unique
	// dates and at least one non-missing value per row. When no data
	// exists for the requested tickers and window the provider fails with
	// an error wrapping ErrNoData, it never fabricates a zero-filled
	// panel.
	DailyPrices(ctx context.Context, tickers []string, window Range) (*Panel, error)
}

// TickerCheck is the structured outcome of a ticker existence probe.
// A dead ticker or a closed-market date is an expected result there, not
// an error.
type TickerCheck struct {
	Ticker string `json:"ticker"`
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// TickerChecker probes whether a ticker trades at the data source.
type TickerChecker interface {
	CheckTicker(ctx context.Context, ticker string) (TickerCheck, error)
}
