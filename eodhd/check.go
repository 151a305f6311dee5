package eodhd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stresslab"
)

// CheckTicker probes the EODHD search API for the ticker. A ticker that
// is unknown to the source, or that has no previous close, is an
// expected outcome reported as a not-valid result, never as an error.
func (p *Provider) CheckTicker(_ context.Context, ticker string) (stresslab.TickerCheck, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	check := stresslab.TickerCheck{Ticker: ticker}
	if ticker == "" {
		check.Reason = "empty ticker"
		return check, nil
	}

	addr := fmt.Sprintf("%s/search/%s?fmt=json&api_token=%s", p.base, url.PathEscape(ticker), url.QueryEscape(p.apiKey))
	var jobj any
	if err := jwget(p.client, addr, &jobj); err != nil {
		return check, fmt.Errorf("searching %q: %w", ticker, err)
	}

	// The search response is a list of candidate securities; the first
	// entry's previous close tells whether the ticker actually trades.
	path := "$[0].previousClose"
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		// No match at all: dead ticker.
		check.Reason = "ticker unknown to the market data source"
		return check, nil
	}
	// jsonpath is never clear about whether it returns a list of 1 answer
	// or a single answer, keep the first one if any.
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	close, ok := jval.(float64)
	if !ok || close <= 0 {
		check.Reason = "ticker has no usable closing price"
		return check, nil
	}
	check.Valid = true
	return check, nil
}
