package parser

import (
	"fmt"
	"testing"

	"github.com/dr8co/feint/ast"
	"github.com/dr8co/feint/lexer"
)

func checkParserErrors(t *testing.T, p *Parser) {
	t.Helper()
	errs := p.Errors()
	if len(errs) == 0 {
		return
	}
	for _, e := range errs {
		t.Errorf("parser error: %s", e)
	}
	t.FailNow()
}

func TestDeclAssignStatements(t *testing.T) {
	tests := []struct {
		input         string
		expectedName  string
		expectedValue int64
	}{
		{"x = 5", "x", 5},
		{"y = 10", "y", 10},
	}

	for _, tt := range tests {
		m := New(lexer.New(tt.input)).ParseModule()
		if len(m.Statements) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(m.Statements))
		}
		stmt, ok := m.Statements[0].(*ast.ExpressionStatement)
		if !ok {
			t.Fatalf("expected ExpressionStatement, got %T", m.Statements[0])
		}
		decl, ok := stmt.Expression.(*ast.DeclAssign)
		if !ok {
			t.Fatalf("expected DeclAssign, got %T", stmt.Expression)
		}
		if decl.Name.Value != tt.expectedName {
			t.Errorf("expected name %q, got %q", tt.expectedName, decl.Name.Value)
		}
		lit, ok := decl.Value.(*ast.IntLiteral)
		if !ok {
			t.Fatalf("expected IntLiteral, got %T", decl.Value)
		}
		if lit.Value != tt.expectedValue {
			t.Errorf("expected value %d, got %d", tt.expectedValue, lit.Value)
		}
	}
}

func TestOperatorPrecedence(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a + b * c", "(a + (b * c))"},
		{"a + b - c", "((a + b) - c)"},
		{"a * b / c", "((a * b) / c)"},
		{"a ^ b ^ c", "(a ^ (b ^ c))"},
		{"-a * b", "((-a) * b)"},
		{"!a", "(!a)"},
		{"a < b == c > d", "((a < b) == (c > d))"},
		{"a && b || c", "((a && b) || c)"},
		{"a == b ?? c", "((a == b) ?? c)"},
		{"a.b.c", "((a . b) . c)"},
		{"a[0] + 1", "(a[0] + 1)"},
		{"a.b[0]", "(a . b)[0]"},
	}

	for _, tt := range tests {
		p := New(lexer.New(tt.input))
		m := p.ParseModule()
		checkParserErrors(t, p)
		stmt := m.Statements[0].(*ast.ExpressionStatement)
		got := stmt.Expression.String()
		if got != tt.expected {
			t.Errorf("input %q: expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}

func TestConditional(t *testing.T) {
	input := `if x < y -> x elif x > y -> y else -> 0`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	stmt := m.Statements[0].(*ast.ExpressionStatement)
	cond, ok := stmt.Expression.(*ast.Conditional)
	if !ok {
		t.Fatalf("expected Conditional, got %T", stmt.Expression)
	}
	if len(cond.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(cond.Branches))
	}
	if cond.Else == nil {
		t.Fatalf("expected else branch")
	}
}

func TestFuncLiteral(t *testing.T) {
	input := `add = (a, b) -> a + b`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	stmt := m.Statements[0].(*ast.ExpressionStatement)
	decl, ok := stmt.Expression.(*ast.DeclAssign)
	if !ok {
		t.Fatalf("expected DeclAssign, got %T", stmt.Expression)
	}
	fn, ok := decl.Value.(*ast.FuncLiteral)
	if !ok {
		t.Fatalf("expected FuncLiteral, got %T", decl.Value)
	}
	if len(fn.Params) != 2 || fn.Params[0] != "a" || fn.Params[1] != "b" {
		t.Fatalf("unexpected params: %v", fn.Params)
	}
	if fn.Name != "add" {
		t.Errorf("expected func literal to be named %q, got %q", "add", fn.Name)
	}
}

func TestCallExpression(t *testing.T) {
	input := `add(1, 2 * 3, 4 + 5)`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	stmt := m.Statements[0].(*ast.ExpressionStatement)
	call, ok := stmt.Expression.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected CallExpression, got %T", stmt.Expression)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(call.Args))
	}
}

func TestIndexExpression(t *testing.T) {
	input := `items[i + 1]`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	stmt := m.Statements[0].(*ast.ExpressionStatement)
	idx, ok := stmt.Expression.(*ast.IndexExpression)
	if !ok {
		t.Fatalf("expected IndexExpression, got %T", stmt.Expression)
	}
	if _, ok := idx.Collection.(*ast.Identifier); !ok {
		t.Errorf("expected Collection to be an Identifier, got %T", idx.Collection)
	}
	if _, ok := idx.Index.(*ast.BinaryExpression); !ok {
		t.Errorf("expected Index to be a BinaryExpression, got %T", idx.Index)
	}
}

func TestLoop(t *testing.T) {
	input := `loop x < 10 -> { x += 1 }`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	stmt := m.Statements[0].(*ast.ExpressionStatement)
	loop, ok := stmt.Expression.(*ast.Loop)
	if !ok {
		t.Fatalf("expected Loop, got %T", stmt.Expression)
	}
	if len(loop.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement in loop body, got %d", len(loop.Body.Statements))
	}
}

func TestListAndMapLiterals(t *testing.T) {
	input := `[1, 2, 3]`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)
	stmt := m.Statements[0].(*ast.ExpressionStatement)
	list, ok := stmt.Expression.(*ast.ListLiteral)
	if !ok {
		t.Fatalf("expected ListLiteral, got %T", stmt.Expression)
	}
	if len(list.Elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(list.Elements))
	}

	input2 := `{1: "a", 2: "b"}`
	p2 := New(lexer.New(input2))
	m2 := p2.ParseModule()
	checkParserErrors(t, p2)
	stmt2 := m2.Statements[0].(*ast.ExpressionStatement)
	mp, ok := stmt2.Expression.(*ast.MapLiteral)
	if !ok {
		t.Fatalf("expected MapLiteral, got %T", stmt2.Expression)
	}
	if len(mp.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(mp.Pairs))
	}
}

func TestFormattedString(t *testing.T) {
	input := `"count: ${n + 1} done"`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)
	stmt := m.Statements[0].(*ast.ExpressionStatement)
	fs, ok := stmt.Expression.(*ast.FormattedString)
	if !ok {
		t.Fatalf("expected FormattedString, got %T", stmt.Expression)
	}
	if len(fs.Exprs) != 1 {
		t.Fatalf("expected 1 interpolated expression, got %d", len(fs.Exprs))
	}
	if fs.Exprs[0].String() != "(n + 1)" {
		t.Errorf("unexpected interpolated expression: %s", fs.Exprs[0].String())
	}
}

func TestStatements(t *testing.T) {
	input := `
break 1
continue
import std as s
jump L
label L: 1
return 1
halt 0
$print(1, true)
`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	types := []string{}
	for _, s := range m.Statements {
		types = append(types, fmt.Sprintf("%T", s))
	}
	want := []string{
		"*ast.BreakStatement", "*ast.ContinueStatement", "*ast.ImportStatement",
		"*ast.JumpStatement", "*ast.LabelStatement", "*ast.ReturnStatement",
		"*ast.HaltStatement", "*ast.PrintStatement",
	}
	if len(types) != len(want) {
		t.Fatalf("expected %d statements, got %d: %v", len(want), len(types), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("statement %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestInplaceAndAssignment(t *testing.T) {
	input := `
x = 1
x += 2
$main = 1
`
	p := New(lexer.New(input))
	m := p.ParseModule()
	checkParserErrors(t, p)

	if _, ok := m.Statements[0].(*ast.ExpressionStatement).Expression.(*ast.DeclAssign); !ok {
		t.Fatalf("statement 0: expected DeclAssign")
	}
	if _, ok := m.Statements[1].(*ast.ExpressionStatement).Expression.(*ast.InplaceExpression); !ok {
		t.Fatalf("statement 1: expected InplaceExpression")
	}
	if _, ok := m.Statements[2].(*ast.ExpressionStatement).Expression.(*ast.Assignment); !ok {
		t.Fatalf("statement 2: expected Assignment (special identifier, not new decl)")
	}
}
