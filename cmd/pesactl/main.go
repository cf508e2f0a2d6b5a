// Command pesactl is the operator CLI: demo seeding, market snapshots and
// account summaries against the configured database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"pesaprime/internal/logger"
)

// commands lists every pesactl subcommand with its help group.
var commands = []struct {
	cmd   subcommands.Command
	group string
}{
	{&seedCmd{}, "data"},
	{&marketCmd{}, "market"},
	{&portfolioCmd{}, "accounts"},
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	name := path.Base(os.Args[0])
	completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range commands {
		commander.Register(c.cmd, c.group)
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
