// Command feint is FeInt's driver: it compiles and runs .fi source files,
// hosts the interactive REPL, and exposes a couple of small inspection
// subcommands (dis, modules), dispatched through subcommands the way
// informatter-nilan's cmd_*.go files are structured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

const version = "0.1.0"

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disCmd{}, "")
	subcommands.Register(&modulesCmd{}, "")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "feint %s - the FeInt scripting language\n\n", version)
		_, _ = fmt.Fprintf(os.Stderr, "Usage: feint <command> [flags] [args]\n\n")
		subcommands.DefaultCommander.Explain(os.Stderr)
	}
	flag.Parse()

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
