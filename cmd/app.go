// Package cmd implements the CLI application to analyze portfolios
// under stress scenarios.
package cmd

import (
	"flag"
	"os"

	"github.com/etnz/stresslab"
	"github.com/etnz/stresslab/eodhd"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&analyzeCmd{}, "analysis")
	c.Register(&stressCmd{}, "analysis")
	c.Register(&forecastCmd{}, "analysis")
	c.Register(&explainCmd{}, "analysis")

	c.Register(&checkCmd{}, "data")

	c.Register(&serveCmd{}, "server")

	c.Register(&topicCmd{}, "documentation")
}

// Commands lists every subcommand, for shell completion.
var Commands = []string{"analyze", "stress", "forecast", "explain", "check", "serve", "topic"}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var apiToken = flag.String("api-token", "", "EODHD API token (defaults to $EODHD_API_TOKEN)")

// token resolves the market data API token from flag, environment, or
// the public demo token.
func token() string {
	if *apiToken != "" {
		return *apiToken
	}
	if v := os.Getenv("EODHD_API_TOKEN"); v != "" {
		return v
	}
	return "demo"
}

// newService builds the analysis service over the EODHD provider and a
// fresh in-memory analysis store.
func newService() *stresslab.Service {
	provider := eodhd.New(token())
	store := stresslab.NewAnalysisStore(0, 0) // defaults
	return stresslab.NewService(provider, store)
}
