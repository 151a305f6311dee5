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

// stressCmd holds the flags for the 'stress' subcommand.
type stressCmd struct {
	portfolio portfolioFlags
	asJSON    bool

	shockType   string
	shockDate   string
	pct         float64
	reboundDays int
	volMult     float64
	driftShift  float64
}

func (*stressCmd) Name() string     { return "stress" }
func (*stressCmd) Synopsis() string { return "compare a portfolio against a shocked scenario" }
func (*stressCmd) Usage() string {
	return `slb stress -w AAPL:0.6,MSFT:0.4 -from 2024-01-01 -to 2024-06-30 -shock-date 2024-03-15 -pct -0.2

  Runs the analysis twice, on real prices and on a shocked copy, and
  reports both sets of metrics with their deltas.
`
}

func (c *stressCmd) SetFlags(f *flag.FlagSet) {
	c.portfolio.setFlags(f)
	f.BoolVar(&c.asJSON, "json", false, "print the raw JSON response")
	f.StringVar(&c.shockType, "shock", "", "shock type: permanent, linear_rebound or regime_shift (defaults to permanent)")
	f.StringVar(&c.shockDate, "shock-date", "", "shock date YYYY-MM-DD, snapped to the next trading day")
	f.Float64Var(&c.pct, "pct", 0, "shock magnitude, e.g. -0.2 for a 20% drop")
	f.IntVar(&c.reboundDays, "rebound-days", 0, "linear_rebound recovery length (defaults to 10)")
	f.Float64Var(&c.volMult, "vol-mult", 0, "regime_shift volatility multiplier (defaults to 1.5)")
	f.Float64Var(&c.driftShift, "drift-shift", 0, "regime_shift drift shift (defaults to -0.0005)")
}

func (c *stressCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	base, err := c.portfolio.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	req := stresslab.StressRequest{
		Portfolio: base.Portfolio,
		DateRange: base.DateRange,
		Shock: stresslab.ShockInput{
			Type: c.shockType,
			Date: c.shockDate,
			Pct:  c.pct,
		},
	}
	if c.reboundDays > 0 {
		req.Shock.ReboundDays = &c.reboundDays
	}
	if c.volMult > 0 {
		req.Shock.VolMult = &c.volMult
	}
	if c.driftShift != 0 {
		req.Shock.DriftShift = &c.driftShift
	}

	resp, err := newService().AnalyzeWithShock(ctx, req)
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
	printMarkdown(renderer.StressMarkdown(resp))
	return subcommands.ExitSuccess
}
