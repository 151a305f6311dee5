package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/etnz/stresslab/server"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	host string
	port int
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the analysis JSON API server" }
func (*serveCmd) Usage() string {
	return `slb serve [-host 127.0.0.1] [-port 8080]

  Serves the analysis API: /api/analyze, /api/stress, /api/forecast,
  /api/cache/stats and /api/health. The port can also be set with the
  SLB_PORT environment variable.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	cfg := server.DefaultConfig()
	f.StringVar(&c.host, "host", cfg.Host, "interface to bind")
	f.IntVar(&c.port, "port", cfg.Port, "port to listen on")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := server.DefaultConfig()
	cfg.Host = c.host
	cfg.Port = c.port

	srv := server.New(cfg, newService())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
