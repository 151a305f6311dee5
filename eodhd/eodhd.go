package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/stresslab"
	"github.com/shopspring/decimal"
)

const baseURL = "https://eodhd.com/api"

// Provider fetches daily adjusted closing prices from EODHD. It
// implements stresslab.PriceProvider and stresslab.TickerChecker.
type Provider struct {
	apiKey string
	base   string
	client *http.Client
}

// New returns a Provider using the given API token and a daily-expiring
// disk-cached HTTP client.
func New(apiKey string) *Provider {
	return &Provider{apiKey: apiKey, base: baseURL, client: newDailyCachingClient()}
}

// DailyPrices fetches the adjusted close history of every ticker over
// the half-open window and assembles them into one panel. Rows where
// every ticker is missing do not exist by construction. It fails
// wrapping stresslab.ErrNoData when the whole window comes back empty.
func (p *Provider) DailyPrices(_ context.Context, tickers []string, window stresslab.Range) (*stresslab.Panel, error) {
	// https://eodhd.com/api/eod/AAPL.US?api_token=demo&fmt=json
	// [
	//	{
	//		"date": "2024-02-13",
	//		"open": 675.066,
	//		"close": 668.445,
	//		"adjusted_close": 67.705,
	//		"volume": 0
	//	},
	type info struct {
		Date          stresslab.Date  `json:"date"`
		AdjustedClose decimal.Decimal `json:"adjusted_close"`
	}

	builder := stresslab.NewPanelBuilder()
	found := false
	for _, ticker := range dedupe(tickers) {
		// The API bounds are inclusive, the window's end is not.
		addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s",
			p.base, url.PathEscape(ticker), url.QueryEscape(p.apiKey), window.From, window.To.Add(-1))

		content := make([]info, 0)
		if err := jwget(p.client, addr, &content); err != nil {
			return nil, fmt.Errorf("fetching %s: %w", ticker, err)
		}
		for _, row := range content {
			builder.Add(row.Date, ticker, row.AdjustedClose.InexactFloat64())
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("%w for %v in %s (bad tickers or empty date range)", stresslab.ErrNoData, tickers, window)
	}
	return builder.Panel(), nil
}

// dedupe cleans, uppercases and deduplicates the requested tickers,
// preserving a stable order.
func dedupe(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
