package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/stresslab/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion: when COMP_LINE is set this prints candidates and exits.
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, name := range cmd.Commands {
		sub[name] = &complete.Command{Flags: map[string]complete.Predictor{}}
	}
	completer := &complete.Command{
		Sub:   sub,
		Flags: map[string]complete.Predictor{"api-token": predict.Something},
	}
	completer.Complete("slb")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
