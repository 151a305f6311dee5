package cmd

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/stresslab"
)

// portfolioFlags are the flags shared by every command that declares a
// portfolio and a date window.
type portfolioFlags struct {
	weights string
	shares  string
	cash    float64
	from    string
	to      string
}

func (p *portfolioFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&p.weights, "w", "", "ticker:weight pairs, e.g. AAPL:0.6,MSFT:0.4")
	f.StringVar(&p.shares, "s", "", "ticker:shares pairs, e.g. AAPL:10,MSFT:5")
	f.Float64Var(&p.cash, "cash", 0, "starting cash (defaults to 100000 in weights mode)")
	f.StringVar(&p.from, "from", "", "window start date YYYY-MM-DD, inclusive")
	f.StringVar(&p.to, "to", "", "window end date YYYY-MM-DD, exclusive")
}

// request assembles the analyze request from the flags. Dates and
// holdings are validated by the service, not here.
func (p *portfolioFlags) request() (stresslab.AnalyzeRequest, error) {
	var req stresslab.AnalyzeRequest
	if p.weights == "" && p.shares == "" {
		return req, fmt.Errorf("one of -w or -s is required")
	}
	if p.weights != "" && p.shares != "" {
		return req, fmt.Errorf("-w and -s are mutually exclusive")
	}

	spec, byShares := p.weights, false
	if p.shares != "" {
		spec, byShares = p.shares, true
	}
	holdings, err := parseHoldings(spec, byShares)
	if err != nil {
		return req, err
	}
	req.Portfolio.Holdings = holdings
	if p.cash > 0 {
		req.Portfolio.StartingCash = &p.cash
	}
	req.DateRange = stresslab.DateRangeInput{Start: p.from, End: p.to}
	return req, nil
}

// parseHoldings parses "TICKER:NUMBER" comma separated pairs.
func parseHoldings(spec string, byShares bool) ([]stresslab.HoldingInput, error) {
	var holdings []stresslab.HoldingInput
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		ticker, num, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("invalid holding %q, want TICKER:NUMBER", pair)
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in holding %q: %v", pair, err)
		}
		h := stresslab.HoldingInput{Ticker: strings.TrimSpace(ticker)}
		if byShares {
			h.Shares = &v
		} else {
			h.Weight = &v
		}
		holdings = append(holdings, h)
	}
	if len(holdings) == 0 {
		return nil, fmt.Errorf("no holdings in %q", spec)
	}
	return holdings, nil
}
