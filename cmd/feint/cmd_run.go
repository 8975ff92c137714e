package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/dr8co/feint/builtins"
	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/parser"
	"github.com/dr8co/feint/vm"
)

// runCmd executes a .fi source file to completion.
type runCmd struct {
	debug bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and run a FeInt source file" }
func (*runCmd) Usage() string {
	return `run [-debug] <file.fi>:
  Compile and run a FeInt module, printing its result in debug mode.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.debug, "debug", false, "print the module's final result and any diagnostics")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		_, _ = fmt.Fprintln(os.Stderr, "run: a source file is required")
		return subcommands.ExitUsageError
	}

	path := filepath.Clean(args[0])
	//nolint:gosec // path comes from the command line, not untrusted input
	src, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "run: %s\n", err)
		return subcommands.ExitFailure
	}

	l := lexer.New(string(src))
	p := parser.New(l)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		printParserErrors(errs)
		return subcommands.ExitFailure
	}

	c := compiler.New(builtins.Names())
	unit, err := c.Compile(mod)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "compile error: %s\n", err)
		return subcommands.ExitFailure
	}

	registry := builtins.NewRegistry(filepath.Dir(path))
	machine := vm.New(unit, builtins.Values(), registry)
	code, err := machine.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "runtime error: %s\n", err)
		return subcommands.ExitStatus(code)
	}

	if r.debug {
		if result := machine.LastPoppedStackElem(); result != nil {
			fmt.Println(result.Inspect())
		}
	}
	return subcommands.ExitSuccess
}

func printParserErrors(errs []string) {
	_, _ = fmt.Fprintln(os.Stderr, "parse errors:")
	for _, msg := range errs {
		_, _ = fmt.Fprintln(os.Stderr, "\t"+msg)
	}
}
