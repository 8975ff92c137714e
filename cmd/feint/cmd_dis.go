package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/dr8co/feint/builtins"
	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/parser"
)

// disCmd compiles a source file and prints its bytecode disassembly,
// recursing into every nested function Unit the compiler produced.
type disCmd struct{}

func (*disCmd) Name() string     { return "dis" }
func (*disCmd) Synopsis() string { return "disassemble a FeInt source file's compiled bytecode" }
func (*disCmd) Usage() string {
	return `dis <file.fi>:
  Compile a module without running it and print its disassembly.
`
}

func (*disCmd) SetFlags(_ *flag.FlagSet) {}

func (*disCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		_, _ = fmt.Fprintln(os.Stderr, "dis: a source file is required")
		return subcommands.ExitUsageError
	}

	path := filepath.Clean(args[0])
	//nolint:gosec // path comes from the command line, not untrusted input
	src, err := os.ReadFile(path)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "dis: %s\n", err)
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

	disassemble(unit)
	return subcommands.ExitSuccess
}

// disassemble prints unit's own instructions, then recurses into every
// nested function Unit reachable through its constant pool, so a `func`
// literal's body shows up under its own "== <unit name> ==" heading.
func disassemble(unit *code.Unit) {
	fmt.Printf("== %s ==\n", unit.Name)
	fmt.Print(unit.Chunk.String())
	fmt.Println()

	for _, c := range unit.Constants {
		if nested, ok := c.(*code.Unit); ok {
			disassemble(nested)
		}
	}
}
