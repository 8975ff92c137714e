// Package repl implements the Read-Eval-Print Loop for the FeInt
// scripting language.
//
// The REPL provides an interactive interface for users to enter FeInt
// code, have it compiled and run, and see the result immediately. It uses
// the Charm libraries (Bubbletea, Bubbles, and Lipgloss) to create a
// modern, user-friendly terminal interface with syntax highlighting and
// command history.
//
// Unlike a tree-walking evaluator's REPL, each line here is compiled to
// its own code.Unit and run by its own *vm.VM - but against the same,
// growing compiler.SymbolTable and vm global store, so a name declared on
// one line is visible on the next (see compiler.NewWithState and
// vm.NewWithGlobals).
package repl

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dr8co/feint/builtins"
	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/object"
	"github.com/dr8co/feint/parser"
	"github.com/dr8co/feint/token"
	"github.com/dr8co/feint/vm"
)

const (
	// Prompt is the default prompt for the REPL.
	Prompt = ">> "

	// ContPrompt is the continuation prompt used in multiline input mode.
	ContPrompt = ".. "
)

// Options contains configuration options for the REPL.
type Options struct {
	NoColor bool // Disable syntax highlighting and colored output
	Debug   bool // Enable debug mode with more verbose output
	Root    string
}

// Start initializes and runs the REPL with the given username and options.
// It creates a new bubbletea program with an initial model and runs it.
func Start(username string, options Options) {
	p := tea.NewProgram(initialModel(username, options))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
	}
}

// Styling
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	parseErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	runtimeErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF8700")).
				Bold(true)

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))

	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF79C6")).
			Bold(true)

	identifierStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F8F8F2"))

	literalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F1FA8C"))

	operatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	delimiterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BD93F9"))

	stringStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#50FA7B"))

	specialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8BE9FD"))
)

// ErrorType represents the type of error that occurred.
type ErrorType int

const (
	NoError ErrorType = iota
	ParseError
	RuntimeError
)

// evalResultMsg reports an async evaluation's outcome back to Update.
type evalResultMsg struct {
	output    string
	isError   bool
	errorType ErrorType
	elapsed   time.Duration
}

// session holds the incremental compile-and-run state threaded across
// evaluated lines: the growing symbol table and global store let later
// lines see names earlier ones declared.
type session struct {
	symtab   *compiler.SymbolTable
	globals  []object.Object
	names    []string
	registry *builtins.Registry
}

func newSession(root string) *session {
	c := compiler.New(builtins.Names())
	return &session{symtab: c.SymbolTable(), registry: builtins.NewRegistry(root)}
}

// eval compiles and runs one line against s's accumulated state, updating
// it in place, and returns the line's last popped value.
func (s *session) eval(line string) (object.Object, error) {
	l := lexer.New(line)
	p := parser.New(l)
	mod := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("%s", formatParseErrors(errs))
	}

	c := compiler.NewWithState(s.symtab)
	unit, err := c.Compile(mod)
	if err != nil {
		return nil, err
	}
	s.symtab = c.SymbolTable()

	machine := vm.NewWithGlobals(unit, builtins.Values(), s.registry, s.globals, s.names)
	if _, err := machine.Run(); err != nil {
		return nil, err
	}
	s.globals, s.names = machine.Globals()

	return machine.LastPoppedStackElem(), nil
}

// model is the Bubbletea model backing the REPL's Elm-architecture loop.
type model struct {
	textInput       textinput.Model
	history         []historyEntry
	session         *session
	username        string
	evaluating      bool
	currentInput    string
	multilineBuffer string
	isMultiline     bool
	spinner         spinner.Model
	options         Options
}

func (m model) applyStyle(style lipgloss.Style, text string) string {
	if m.options.NoColor {
		return text
	}
	return style.Render(text)
}

type historyEntry struct {
	input          string
	output         string
	isError        bool
	errorType      ErrorType
	evaluationTime time.Duration
}

func initialModel(username string, options Options) model {
	ti := textinput.New()
	ti.Placeholder = "Enter FeInt code"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF79C6"))

	root := options.Root
	if root == "" {
		root = "."
	}

	return model{
		textInput: ti,
		session:   newSession(root),
		username:  username,
		spinner:   s,
		options:   options,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// isBalanced checks whether brackets/braces/parens are balanced, ignoring
// anything inside a string literal so a stray bracket in a string doesn't
// force multiline mode.
func isBalanced(input string) bool {
	var stack []rune
	inString := false
	escaped := false

	for _, char := range input {
		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}

		switch char {
		case '"':
			inString = true
		case '(', '{', '[':
			stack = append(stack, char)
		case ')':
			if len(stack) == 0 || stack[len(stack)-1] != '(' {
				return false
			}
			stack = stack[:len(stack)-1]
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return false
			}
			stack = stack[:len(stack)-1]
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return false
			}
			stack = stack[:len(stack)-1]
		}
	}

	return len(stack) == 0 && !inString
}

// evalCmd runs s.eval(input) asynchronously, matching the original's
// fire-and-forget tea.Cmd pattern.
func evalCmd(s *session, input string, debug bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		result, err := s.eval(input)

		elapsed := time.Since(start)
		if debug {
			fmt.Printf("DEBUG: eval time: %v\n", elapsed)
		}

		if err != nil {
			var output string
			var errType ErrorType
			if isParseErr(err) {
				errType = ParseError
				output = err.Error()
			} else {
				errType = RuntimeError
				output = formatRuntimeError(err.Error())
			}
			return evalResultMsg{output: output, isError: true, errorType: errType, elapsed: elapsed}
		}

		output := "nil"
		if result != nil {
			output = result.Inspect()
		}
		return evalResultMsg{output: output, elapsed: elapsed}
	}
}

// isParseErr distinguishes session.eval's own formatted parse-error
// message (already prefixed by formatParseErrors) from a *compiler.Error
// or *vm.Error, both of which should read as runtime errors in the REPL.
func isParseErr(err error) bool {
	return strings.HasPrefix(err.Error(), "Parser Errors:")
}

func (m model) formatError(style lipgloss.Style, output string) string {
	parts := strings.SplitN(output, "\nTips:", 2)
	if len(parts) == 2 {
		return m.applyStyle(style, parts[0]) + "\n" + m.applyStyle(errorStyle, "Tips:"+parts[1])
	}
	return m.applyStyle(style, output)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{
			input:          m.currentInput,
			output:         msg.output,
			isError:        msg.isError,
			errorType:      msg.errorType,
			evaluationTime: msg.elapsed,
		})
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if input == "" {
				if m.isMultiline {
					if m.multilineBuffer == "" {
						m.isMultiline = false
						return m, nil
					}
					m.evaluating = true
					m.currentInput = m.multilineBuffer
					m.textInput.SetValue("")
					m.isMultiline = false
					buffer := m.multilineBuffer
					m.multilineBuffer = ""
					return m, evalCmd(m.session, buffer, m.options.Debug)
				}
				return m, nil
			}

			if m.isMultiline {
				m.multilineBuffer += "\n" + input
				m.textInput.SetValue("")
				if isBalanced(m.multilineBuffer) {
					m.evaluating = true
					m.currentInput = m.multilineBuffer
					m.isMultiline = false
					buffer := m.multilineBuffer
					m.multilineBuffer = ""
					return m, evalCmd(m.session, buffer, m.options.Debug)
				}
				return m, nil
			}

			if !isBalanced(input) {
				m.isMultiline = true
				m.multilineBuffer = input
				m.textInput.SetValue("")
				return m, nil
			}

			m.evaluating = true
			m.currentInput = input
			m.textInput.SetValue("")
			return m, evalCmd(m.session, input, m.options.Debug)
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.applyStyle(titleStyle, " FeInt REPL "))
	s.WriteString("\n")

	if m.username != "" {
		s.WriteString(fmt.Sprintf("\nHello %s! Feel free to type in FeInt code\n", m.username))
	}
	s.WriteString("\n")

	for _, entry := range m.history {
		lines := strings.Split(entry.input, "\n")
		for i, line := range lines {
			if i == 0 {
				s.WriteString(m.applyStyle(promptStyle, Prompt))
			} else {
				s.WriteString(m.applyStyle(promptStyle, ContPrompt))
			}
			s.WriteString(m.highlightCode(line))
			s.WriteString("\n")
		}

		switch {
		case entry.isError && entry.errorType == ParseError:
			s.WriteString(m.formatError(parseErrorStyle, entry.output))
		case entry.isError && entry.errorType == RuntimeError:
			s.WriteString(m.formatError(runtimeErrorStyle, entry.output))
		case entry.isError:
			s.WriteString(m.applyStyle(errorStyle, entry.output))
		default:
			s.WriteString(m.applyStyle(resultStyle, entry.output))
		}

		if entry.evaluationTime > 10*time.Millisecond {
			s.WriteString(m.applyStyle(historyStyle, fmt.Sprintf(" (%.2fs)", entry.evaluationTime.Seconds())))
		}

		s.WriteString("\n\n")
	}

	if m.evaluating {
		s.WriteString(m.applyStyle(promptStyle, Prompt))
		s.WriteString(m.highlightCode(m.currentInput))
		s.WriteString("\n")
		s.WriteString(m.spinner.View())
		s.WriteString(" Evaluating...\n\n")
	}

	if m.isMultiline && !m.evaluating {
		s.WriteString(m.applyStyle(historyStyle, "Current multiline input:\n"))
		s.WriteString(m.highlightCode(m.multilineBuffer))
		s.WriteString("\n")
	}

	if !m.evaluating {
		if m.isMultiline {
			m.textInput.Prompt = m.applyStyle(promptStyle, ContPrompt)
		} else {
			m.textInput.Prompt = m.applyStyle(promptStyle, Prompt)
		}
		s.WriteString(m.textInput.View())
		s.WriteString("\n")
	}

	helpText := "\nPress Esc or Ctrl+C/D to exit"
	if m.isMultiline {
		helpText += " | Multiline mode: Enter empty line to evaluate or continue typing"
	} else {
		helpText += " | Multiline input supported for unbalanced brackets"
	}
	s.WriteString(m.applyStyle(historyStyle, helpText))

	return s.String()
}

func formatParseErrors(errors []string) string {
	var s strings.Builder
	s.WriteString("Parser Errors:\n")
	for i, msg := range errors {
		s.WriteString(fmt.Sprintf("  %d. %s\n", i+1, msg))
	}
	s.WriteString("\nTips:\n")
	s.WriteString("  • Check for unbalanced parentheses, braces, or brackets\n")
	s.WriteString("  • Verify every `func`/`if`/`loop` body is closed\n")
	return s.String()
}

func formatRuntimeError(errorMsg string) string {
	var s strings.Builder
	s.WriteString("Error:\n")
	s.WriteString("  " + errorMsg + "\n")
	s.WriteString("\nTips:\n")
	switch {
	case strings.Contains(errorMsg, "NameNotFound"):
		s.WriteString("  • Check if the name is declared before use\n")
		s.WriteString("  • Verify the spelling and that it's in scope\n")
	case strings.Contains(errorMsg, "arg"):
		s.WriteString("  • Check the call's argument count and types\n")
	case strings.Contains(errorMsg, "type"):
		s.WriteString("  • Ensure operands are of compatible types\n")
	case strings.Contains(errorMsg, "index"):
		s.WriteString("  • Verify the index is within bounds\n")
	default:
		s.WriteString("  • Review the expression that produced this error\n")
	}
	return s.String()
}

// highlightCode colorizes line token by token, reproducing the source's
// own spacing (via each token's Start/End position) rather than
// reformatting it - simpler and more robust than re-deriving whitespace
// rules for a grammar with significant (arrow-based) block syntax.
func (m model) highlightCode(line string) string {
	l := lexer.New(line)
	var out strings.Builder

	col := 1
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		for ; col < tok.Start.Col; col++ {
			out.WriteString(" ")
		}
		out.WriteString(m.styleToken(tok))
		col = tok.End.Col
	}
	return out.String()
}

func (m model) styleToken(tok token.Token) string {
	switch tok.Type {
	case token.IF, token.ELIF, token.ELSE, token.LOOP, token.BREAK, token.CONTINUE,
		token.RETURN, token.HALT, token.IMPORT, token.AS, token.JUMP, token.LABEL,
		token.NIL, token.TRUE, token.FALSE, token.THIS, token.ALWAYS:
		return m.applyStyle(keywordStyle, tok.Literal)
	case token.IDENT, token.TYPE_IDENT:
		return m.applyStyle(identifierStyle, tok.Literal)
	case token.SPECIAL, token.PRINT:
		return m.applyStyle(specialStyle, tok.Literal)
	case token.INT, token.FLOAT:
		return m.applyStyle(literalStyle, tok.Literal)
	case token.STRING:
		return m.applyStyle(stringStyle, `"`+tok.Literal+`"`)
	case token.COMMA, token.COLON, token.SEMICOLON, token.LPAREN, token.RPAREN,
		token.LBRACE, token.RBRACE, token.LBRACKET, token.RBRACKET:
		return m.applyStyle(delimiterStyle, tok.Literal)
	case token.ILLEGAL:
		return m.applyStyle(errorStyle, tok.Literal)
	default:
		return m.applyStyle(operatorStyle, tok.Literal)
	}
}
