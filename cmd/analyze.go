package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stresslab/renderer"
	"github.com/google/subcommands"
)

// analyzeCmd holds the flags for the 'analyze' subcommand.
type analyzeCmd struct {
	portfolio portfolioFlags
	asJSON    bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "analyze a portfolio over a date window" }
func (*analyzeCmd) Usage() string {
	return `slb analyze -w AAPL:0.6,MSFT:0.4 -from 2024-01-01 -to 2024-06-30

  Fetches daily prices, computes the portfolio equity curve and its
  risk and performance metrics.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.portfolio.setFlags(f)
	f.BoolVar(&c.asJSON, "json", false, "print the raw JSON response")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.portfolio.request()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	resp, err := newService().Analyze(ctx, req)
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
	printMarkdown(renderer.AnalysisMarkdown(resp))
	return subcommands.ExitSuccess
}
