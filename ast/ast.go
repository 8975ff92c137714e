// Package ast defines the abstract syntax tree (AST) consumed by the
// FeInt compiler.
//
// A module is an ordered sequence of statements; expressions nest inside
// statements and each other. Every node carries the source span (start
// and end position) it was parsed from, used for the compiler's
// StatementStart metadata and for diagnostics. The compiler depends only
// on this package's shape — not on how a particular parser builds it.
package ast

import (
	"strings"

	"github.com/dr8co/feint/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	// TokenLiteral returns the literal value of the token this node began with.
	TokenLiteral() string

	// String returns a debug representation of the node.
	String() string

	// Start returns the node's starting source position.
	Start() token.Position

	// End returns the node's ending source position.
	End() token.Position
}

// Statement is a top-level or block-level construct that performs an
// action. Statements don't themselves produce a stack value except via
// their trailing expression (see spec: expression statements).
type Statement interface {
	Node
	statementNode()
}

// Expression is a construct that produces a value when compiled.
type Expression interface {
	Node
	expressionNode()
}

// Span is embedded by every concrete node to provide its source extent.
// It is exported so that packages building ASTs (e.g. [github.com/dr8co/feint/parser])
// can populate it directly in a composite literal.
type Span struct {
	StartPos token.Position
	EndPos   token.Position
}

// Start returns the node's starting source position.
func (s Span) Start() token.Position { return s.StartPos }

// End returns the node's ending source position.
func (s Span) End() token.Position { return s.EndPos }

// NewSpan builds a Span from two positions.
func NewSpan(start, end token.Position) Span { return Span{StartPos: start, EndPos: end} }

// Module is the root node: an ordered sequence of statements.
type Module struct {
	Span
	Statements []Statement
}

func (m *Module) TokenLiteral() string {
	if len(m.Statements) > 0 {
		return m.Statements[0].TokenLiteral()
	}
	return ""
}

func (m *Module) String() string {
	var out strings.Builder
	for _, s := range m.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// ---- Statements -----------------------------------------------------

// BreakStatement is `break <expr>`.
type BreakStatement struct {
	Span
	Token token.Token
	Value Expression
}

func (*BreakStatement) statementNode()       {}
func (b *BreakStatement) TokenLiteral() string { return b.Token.Literal }
func (b *BreakStatement) String() string       { return "break " + exprString(b.Value) }

// ContinueStatement is `continue`.
type ContinueStatement struct {
	Span
	Token token.Token
}

func (*ContinueStatement) statementNode()         {}
func (c *ContinueStatement) TokenLiteral() string { return c.Token.Literal }
func (c *ContinueStatement) String() string       { return "continue" }

// ImportStatement is `import <path> [as name]`.
type ImportStatement struct {
	Span
	Token  token.Token
	Path   string
	AsName string // empty when no `as` clause
}

func (*ImportStatement) statementNode()         {}
func (i *ImportStatement) TokenLiteral() string { return i.Token.Literal }
func (i *ImportStatement) String() string {
	if i.AsName != "" {
		return "import " + i.Path + " as " + i.AsName
	}
	return "import " + i.Path
}

// JumpStatement is `jump L`.
type JumpStatement struct {
	Span
	Token token.Token
	Name  string
}

func (*JumpStatement) statementNode()         {}
func (j *JumpStatement) TokenLiteral() string { return j.Token.Literal }
func (j *JumpStatement) String() string       { return "jump " + j.Name }

// LabelStatement is `label L: <expr>`.
type LabelStatement struct {
	Span
	Token token.Token
	Name  string
	Value Expression
}

func (*LabelStatement) statementNode()         {}
func (l *LabelStatement) TokenLiteral() string { return l.Token.Literal }
func (l *LabelStatement) String() string       { return "label " + l.Name + ": " + exprString(l.Value) }

// ReturnStatement is `return <expr>`.
type ReturnStatement struct {
	Span
	Token token.Token
	Value Expression
}

func (*ReturnStatement) statementNode()         {}
func (r *ReturnStatement) TokenLiteral() string { return r.Token.Literal }
func (r *ReturnStatement) String() string       { return "return " + exprString(r.Value) }

// HaltStatement is `halt <expr>`.
type HaltStatement struct {
	Span
	Token token.Token
	Value Expression
}

func (*HaltStatement) statementNode()         {}
func (h *HaltStatement) TokenLiteral() string { return h.Token.Literal }
func (h *HaltStatement) String() string       { return "halt " + exprString(h.Value) }

// PrintStatement is the `$print(args...)` special form: 1-5 args, the
// first the value, the rest optional boolean flags (see code.PrintFlags).
type PrintStatement struct {
	Span
	Token token.Token
	Args  []Expression
}

func (*PrintStatement) statementNode()         {}
func (p *PrintStatement) TokenLiteral() string { return p.Token.Literal }
func (p *PrintStatement) String() string {
	var out strings.Builder
	out.WriteString("$print(")
	for i, a := range p.Args {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(exprString(a))
	}
	out.WriteString(")")
	return out.String()
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Span
	Token      token.Token
	Expression Expression
}

func (*ExpressionStatement) statementNode()         {}
func (e *ExpressionStatement) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStatement) String() string       { return exprString(e.Expression) }

func exprString(e Expression) string {
	if e == nil {
		return ""
	}
	return e.String()
}
