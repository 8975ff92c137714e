package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/google/subcommands"

	"github.com/dr8co/feint/builtins"
)

// modulesCmd resolves and loads an import path the same way `import`
// would at runtime, then prints its resulting globals - useful for
// checking a .fi module compiles and runs cleanly without writing a
// program that imports it. With no path given, it lists the ambient
// builtin names instead.
type modulesCmd struct {
	root string
}

func (*modulesCmd) Name() string     { return "modules" }
func (*modulesCmd) Synopsis() string { return "list builtins, or load and inspect a module path" }
func (*modulesCmd) Usage() string {
	return `modules [-root dir] [path]:
  With no path, list the ambient builtin names.
  With a path, resolve and load it as an import would, printing its globals.
`
}

func (m *modulesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.root, "root", ".", "directory searched for <path>.fi")
}

func (m *modulesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) == 0 {
		for _, name := range builtins.Names() {
			fmt.Println(name)
		}
		return subcommands.ExitSuccess
	}

	registry := builtins.NewRegistry(m.root)
	mod, err := registry.Load(args[0])
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "modules: %s\n", err)
		return subcommands.ExitFailure
	}

	names := make([]string, 0, len(mod.Globals))
	for name := range mod.Globals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s = %s\n", name, mod.Globals[name].Inspect())
	}
	return subcommands.ExitSuccess
}
