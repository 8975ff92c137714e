package main

import (
	"context"
	"flag"
	"os"
	"os/user"

	"github.com/google/subcommands"

	"github.com/dr8co/feint/driver"
	"github.com/dr8co/feint/repl"
)

// isTerminal reports whether stdin looks like an interactive terminal
// rather than a pipe or redirected file - Bubbletea's full-screen model
// needs a real TTY, so anything else falls back to driver's line reader.
func isTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// replCmd starts the interactive REPL - the Bubbletea one when stdin is a
// terminal, falling back to driver's line-oriented reader otherwise (a
// pipe, a redirected file, a CI shell with no TTY).
type replCmd struct {
	noColor bool
	debug   bool
	root    string
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive FeInt session" }
func (*replCmd) Usage() string {
	return `repl [-no-color] [-debug] [-root dir]:
  Start the interactive REPL, reading from stdin.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.noColor, "no-color", false, "disable syntax highlighting and colored output")
	f.BoolVar(&r.debug, "debug", false, "print per-line timing to stderr")
	f.StringVar(&r.root, "root", ".", "directory searched for imported .fi modules")
}

func (r *replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	options := repl.Options{NoColor: r.noColor, Debug: r.debug, Root: r.root}

	if !isTerminal() {
		driver.Run(os.Stdin, os.Stdout, r.root, r.debug)
		return subcommands.ExitSuccess
	}

	username := "unknown"
	if usr, err := user.Current(); err == nil {
		username = usr.Username
	}
	repl.Start(username, options)
	return subcommands.ExitSuccess
}
