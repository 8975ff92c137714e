// Package driver is the non-interactive front end for running FeInt code
// from a reader: the REPL's fallback when stdin isn't a terminal (a pipe,
// a redirected file, a script fed line by line), grounded on
// feint-driver/src/driver.rs's Driver, which likewise wraps one VM and
// feeds it source incrementally.
//
// Unlike repl's Bubbletea model, this reads through chzyer/readline so a
// piped or redirected stdin still gets line-buffered input and basic
// history, without requiring a real TTY for cursor control.
package driver

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/dr8co/feint/builtins"
	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/object"
	"github.com/dr8co/feint/parser"
	"github.com/dr8co/feint/vm"
)

// Run reads FeInt source line by line from in, compiling and running each
// complete statement incrementally against a single growing global store.
// Parse, compile and runtime errors are written to out; each chunk's
// result is written too, but only when debug is set.
func Run(in io.Reader, out io.Writer, root string, debug bool) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "",
		Stdin:        io.NopCloser(in),
		Stdout:       out,
		HistoryLimit: 1000,
	})
	if err != nil {
		_, _ = fmt.Fprintf(out, "driver: could not start line reader: %s\n", err)
		return
	}
	defer func() { _ = rl.Close() }()

	c := compiler.New(builtins.Names())
	symtab := c.SymbolTable()
	registry := builtins.NewRegistry(root)
	var globals []object.Object
	var names []string

	var buffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return
		}
		if err != nil {
			_, _ = fmt.Fprintf(out, "driver: %s\n", err)
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)

		if !balanced(buffer.String()) {
			continue
		}
		src := buffer.String()
		buffer.Reset()
		if strings.TrimSpace(src) == "" {
			continue
		}

		l := lexer.New(src)
		p := parser.New(l)
		mod := p.ParseModule()
		if errs := p.Errors(); len(errs) > 0 {
			for _, msg := range errs {
				_, _ = fmt.Fprintln(out, "parse error:", msg)
			}
			continue
		}

		lineCompiler := compiler.NewWithState(symtab)
		unit, err := lineCompiler.Compile(mod)
		if err != nil {
			_, _ = fmt.Fprintln(out, "compile error:", err)
			continue
		}
		symtab = lineCompiler.SymbolTable()

		machine := vm.NewWithGlobals(unit, builtins.Values(), registry, globals, names)
		machine.SetOutput(out, out)
		if _, err := machine.Run(); err != nil {
			_, _ = fmt.Fprintln(out, "runtime error:", err)
			continue
		}
		globals, names = machine.Globals()

		if debug {
			_, _ = fmt.Fprintln(out, machine.LastPoppedStackElem().Inspect())
		}
	}
}

// balanced reports whether src's brackets/braces/parens are closed,
// ignoring string-literal contents. Unlike the Bubbletea REPL's
// isBalanced, a closer with no matching opener counts as balanced here,
// so the chunk goes on to the parser, which reports the error.
func balanced(src string) bool {
	var stack []rune
	inString := false
	escaped := false

	for _, c := range src {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '(', '{', '[':
			stack = append(stack, c)
		case ')':
			if len(stack) == 0 || stack[len(stack)-1] != '(' {
				return true
			}
			stack = stack[:len(stack)-1]
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return true
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return true
			}
			stack = stack[:len(stack)-1]
		}
	}
	return len(stack) == 0 && !inString
}
