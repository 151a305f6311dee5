package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stresslab/advisor"
	"github.com/etnz/stresslab/renderer"
	"github.com/google/subcommands"
)

// explainCmd holds the flags for the 'explain' subcommand.
type explainCmd struct {
	portfolio portfolioFlags
}

func (*explainCmd) Name() string     { return "explain" }
func (*explainCmd) Synopsis() string { return "analyze a portfolio and explain the result in plain language" }
func (*explainCmd) Usage() string {
	return `slb explain -w AAPL:0.6,MSFT:0.4 -from 2024-01-01 -to 2024-06-30

  Runs the analysis, then asks Gemini for a short plain-language
  narrative of the report. Requires GEMINI_API_KEY.
`
}

func (c *explainCmd) SetFlags(f *flag.FlagSet) {
	c.portfolio.setFlags(f)
}

func (c *explainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	report := renderer.AnalysisMarkdown(resp)

	a, err := advisor.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	narrative, err := a.Explain(ctx, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(report)
	printMarkdown("## In plain language\n\n" + narrative)
	return subcommands.ExitSuccess
}
