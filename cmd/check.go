package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/stresslab/eodhd"
	"github.com/etnz/stresslab/renderer"
	"github.com/google/subcommands"
)

// checkCmd holds the flags for the 'check' subcommand.
type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "check tickers against the market data source" }
func (*checkCmd) Usage() string {
	return `slb check AAPL MSFT BTC-USD

  Probes the market data source for each ticker and reports whether it
  is usable in an analysis.
`
}

func (*checkCmd) SetFlags(_ *flag.FlagSet) {}

func (c *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one ticker is required")
		return subcommands.ExitUsageError
	}

	provider := eodhd.New(token())
	var b strings.Builder
	status := subcommands.ExitSuccess
	for _, ticker := range f.Args() {
		check, err := provider.CheckTicker(ctx, ticker)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking %s: %v\n", ticker, err)
			return subcommands.ExitFailure
		}
		if !check.Valid {
			status = subcommands.ExitFailure
		}
		b.WriteString(renderer.CheckMarkdown(check))
	}
	printMarkdown(b.String())
	return status
}
