package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stresslab"
	"github.com/etnz/stresslab/renderer"
	"github.com/google/subcommands"
)

// forecastCmd holds the flags for the 'forecast' subcommand.
//
// The analysis cache lives in memory, so the CLI cannot reference an id
// from a previous run. It runs the baseline analysis first and forecasts
// from that fresh result in the same process.
type forecastCmd struct {
	portfolio portfolioFlags
	asJSON    bool

	days   int
	mode   string
	window int
	alpha  float64
	lambda float64
	target float64
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "project a portfolio's equity curve forward" }
func (*forecastCmd) Usage() string {
	return `slb forecast -w AAPL:0.6,MSFT:0.4 -from 2024-01-01 -to 2024-06-30 -days 30 -mode ewma

  Analyzes the portfolio, estimates the daily drift of its returns, and
  compounds it forward over the requested business days.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	c.portfolio.setFlags(f)
	f.BoolVar(&c.asJSON, "json", false, "print the raw JSON response")
	f.IntVar(&c.days, "days", 0, "business days to project (defaults to 30)")
	f.StringVar(&c.mode, "mode", "", "drift mode: mean, rolling or ewma (defaults to mean)")
	f.IntVar(&c.window, "window", 0, "rolling window length")
	f.Float64Var(&c.alpha, "alpha", 0, "ewma smoothing factor")
	f.Float64Var(&c.lambda, "lambda", 0, "ewma decay, alpha = 1 - lambda (defaults to 0.94)")
	f.Float64Var(&c.target, "target", 0, "target multiple for the days-to-target summary (defaults to 1.10)")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.portfolio.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	service := newService()
	analysis, err := service.Analyze(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	freq := stresslab.ForecastRequest{
		AnalysisID: analysis.AnalysisID,
		Forecast: stresslab.ForecastInput{
			Mode: c.mode,
		},
	}
	if c.days != 0 {
		freq.Forecast.Days = &c.days
	}
	if c.window > 0 {
		freq.Forecast.Window = &c.window
	}
	if c.alpha > 0 {
		freq.Forecast.Alpha = &c.alpha
	}
	if c.lambda > 0 {
		freq.Forecast.Lambda = &c.lambda
	}
	if c.target > 0 {
		freq.Forecast.Target = &c.target
	}

	resp, err := service.Forecast(freq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		if err := printJSON(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ForecastMarkdown(resp))
	return subcommands.ExitSuccess
}
