package compiler

import (
	"testing"

	"github.com/dr8co/feint/ast"
	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/token"
)

// Tests build *ast.Module fixtures directly rather than going through the
// lexer/parser, keeping this package's tests independent of their exact
// surface syntax.

func ident(name string) *ast.Identifier {
	return &ast.Identifier{Value: name, Kind: ast.IdentRegular}
}

func intLit(v int64) *ast.IntLiteral { return &ast.IntLiteral{Value: v} }

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expression: e}
}

func module(stmts ...ast.Statement) *ast.Module {
	return &ast.Module{Statements: stmts}
}

type compilerTestCase struct {
	name                 string
	module               *ast.Module
	expectedConstants    []any
	expectedInstructions []code.Instructions
}

func runCompilerTests(t *testing.T, tests []compilerTestCase) {
	t.Helper()

	for _, tt := range tests {
		c := New(nil)
		unit, err := c.Compile(tt.module)
		if err != nil {
			t.Fatalf("%s: compiler error: %s", tt.name, err)
		}

		want := concatInstructions(tt.expectedInstructions)
		if string(unit.Chunk) != string(want) {
			t.Errorf("%s: wrong instructions.\nwant=%q\ngot=%q", tt.name, want, unit.Chunk)
		}

		if len(unit.Constants) != len(tt.expectedConstants) {
			t.Fatalf("%s: wrong constant count. want=%d, got=%d", tt.name, len(tt.expectedConstants), len(unit.Constants))
		}
		for i, want := range tt.expectedConstants {
			if unit.Constants[i] != want {
				t.Errorf("%s: constant %d: want=%v, got=%v", tt.name, i, want, unit.Constants[i])
			}
		}
	}
}

func concatInstructions(s []code.Instructions) code.Instructions {
	out := code.Instructions{}
	for _, ins := range s {
		out = append(out, ins...)
	}
	return out
}

func TestIntegerArithmetic(t *testing.T) {
	tests := []compilerTestCase{
		{
			name:              "small ints are interned, no constant pool entry",
			module:            module(exprStmt(&ast.BinaryExpression{Operator: "+", Left: intLit(1), Right: intLit(2)})),
			expectedConstants: []any{token.Position{}},
			expectedInstructions: []code.Instructions{
				code.Make(code.StatementStart, 0),
				code.Make(code.LoadGlobalConst, 1),
				code.Make(code.LoadGlobalConst, 2),
				code.Make(code.BinaryOp, int(code.BinaryAdd)),
				code.Make(code.ReturnPlaceholder),
			},
		},
		{
			name:              "large ints go through the constant pool",
			module:            module(exprStmt(intLit(1000))),
			expectedConstants: []any{token.Position{}, int64(1000)},
			expectedInstructions: []code.Instructions{
				code.Make(code.StatementStart, 0),
				code.Make(code.LoadConst, 1),
				code.Make(code.ReturnPlaceholder),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestIndexExpression(t *testing.T) {
	tests := []compilerTestCase{
		{
			name: "list literal indexed by an int literal",
			module: module(exprStmt(&ast.IndexExpression{
				Collection: &ast.ListLiteral{Elements: []ast.Expression{intLit(1), intLit(2)}},
				Index:      intLit(0),
			})),
			expectedConstants: []any{token.Position{}},
			expectedInstructions: []code.Instructions{
				code.Make(code.StatementStart, 0),
				code.Make(code.LoadGlobalConst, 1),
				code.Make(code.LoadGlobalConst, 2),
				code.Make(code.MakeList, 2),
				code.Make(code.LoadGlobalConst, 0),
				code.Make(code.GetItem),
				code.Make(code.ReturnPlaceholder),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestGlobalDeclAssign(t *testing.T) {
	tests := []compilerTestCase{
		{
			name: "declare then reassign a global",
			module: module(
				exprStmt(&ast.DeclAssign{Name: ident("x"), Value: intLit(1)}),
				exprStmt(&ast.Assignment{Name: ident("x"), Value: intLit(2)}),
			),
			expectedConstants: []any{token.Position{}, "x"},
			expectedInstructions: []code.Instructions{
				code.Make(code.StatementStart, 0),
				code.Make(code.LoadGlobalConst, 1),
				code.Make(code.DeclareVar, 0, 1),
				code.Make(code.Pop),
				code.Make(code.StatementStart, 0),
				code.Make(code.LoadGlobalConst, 2),
				code.Make(code.AssignGlobal, 0),
				code.Make(code.ReturnPlaceholder),
			},
		},
	}

	runCompilerTests(t, tests)
}

func TestConditionalNoElse(t *testing.T) {
	cond := &ast.Conditional{
		Branches: []ast.CondBranch{
			{Test: ident("flag"), Block: &ast.Block{Statements: []ast.Statement{exprStmt(intLit(1))}}},
		},
	}

	m := module(
		exprStmt(&ast.DeclAssign{Name: ident("flag"), Value: &ast.BoolLiteral{Value: true}}),
		exprStmt(cond),
	)

	c := New(nil)
	unit, err := c.Compile(m)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}

	// Expect: StatementStart LoadTrue DeclareVar Pop | StatementStart LoadGlobal JumpIfNot Pop StatementStart LoadGlobalConst(1) Jump Pop LoadNil | ReturnPlaceholder
	s := unit.Chunk.String()
	if s == "" {
		t.Fatalf("expected non-empty disassembly")
	}
}

func TestLoopBreakValue(t *testing.T) {
	loop := &ast.Loop{
		Cond: &ast.BoolLiteral{Value: true},
		Body: &ast.Block{Statements: []ast.Statement{
			&ast.BreakStatement{Value: intLit(42)},
		}},
	}

	m := module(exprStmt(loop))
	c := New(nil)
	unit, err := c.Compile(m)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}
	if len(unit.Chunk) == 0 {
		t.Fatalf("expected compiled loop to emit instructions")
	}
}

func TestClosureCapturesCellVar(t *testing.T) {
	// counter = 0
	// inc = () -> counter += 1
	outer := &ast.FuncLiteral{
		Name: "makeCounter",
		Body: &ast.Block{Statements: []ast.Statement{
			exprStmt(&ast.DeclAssign{Name: ident("counter"), Value: intLit(0)}),
			exprStmt(&ast.DeclAssign{
				Name: ident("inc"),
				Value: &ast.FuncLiteral{
					Body: &ast.Block{Statements: []ast.Statement{
						exprStmt(&ast.InplaceExpression{Operator: "+=", Name: ident("counter"), Value: intLit(1)}),
					}},
				},
			}),
			exprStmt(ident("inc")),
		}},
	}

	m := module(exprStmt(&ast.DeclAssign{Name: ident("makeCounter"), Value: outer}))

	c := New(nil)
	unit, err := c.Compile(m)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}

	var inner *code.Unit
	for _, k := range unit.Constants {
		if u, ok := k.(*code.Unit); ok && u.Name == "makeCounter" {
			inner = u
		}
	}
	if inner == nil {
		t.Fatalf("expected makeCounter's unit in the constant pool")
	}
	if inner.NumCells != 1 {
		t.Errorf("expected makeCounter to need 1 cell slot for captured counter, got %d", inner.NumCells)
	}

	var innerFn *code.Unit
	for _, k := range inner.Constants {
		if u, ok := k.(*code.Unit); ok {
			innerFn = u
		}
	}
	if innerFn == nil {
		t.Fatalf("expected inc's unit in makeCounter's constant pool")
	}
	if len(innerFn.FreeVars) != 1 || !innerFn.FreeVars[0].FromCell {
		t.Errorf("expected inc to capture counter by cell, got %+v", innerFn.FreeVars)
	}
}

func TestRecursiveSelfReference(t *testing.T) {
	fact := &ast.FuncLiteral{
		Name:   "fact",
		Params: []string{"n"},
		Body: &ast.Block{Statements: []ast.Statement{
			exprStmt(&ast.CallExpression{
				Callee: ident("fact"),
				Args:   []ast.Expression{intLit(1)},
			}),
		}},
	}
	m := module(exprStmt(&ast.DeclAssign{Name: ident("fact"), Value: fact}))

	c := New(nil)
	unit, err := c.Compile(m)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}

	var inner *code.Unit
	for _, k := range unit.Constants {
		if u, ok := k.(*code.Unit); ok {
			inner = u
		}
	}
	if inner == nil {
		t.Fatalf("expected fact's unit in the constant pool")
	}
	if !instructionsContain(inner.Chunk, code.LoadSelf) {
		t.Errorf("expected fact's body to use LoadSelf for its own recursive reference, got %s", inner.Chunk.String())
	}
}

func instructionsContain(ins code.Instructions, op code.Opcode) bool {
	i := 0
	for i < len(ins) {
		cur := code.Opcode(ins[i])
		if cur == op {
			return true
		}
		def, err := code.Lookup(ins[i])
		if err != nil {
			i++
			continue
		}
		_, read := code.ReadOperands(def, ins[i+1:])
		i += read + 1
	}
	return false
}

func TestUndefinedNameError(t *testing.T) {
	m := module(exprStmt(ident("nope")))
	c := New(nil)
	_, err := c.Compile(m)
	if err == nil {
		t.Fatalf("expected an error for an undefined name")
	}
	ce, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *compiler.Error, got %T", err)
	}
	if ce.Kind != ErrNameNotFound {
		t.Errorf("expected %s, got %s", ErrNameNotFound, ce.Kind)
	}
}

func TestBreakOutsideLoopError(t *testing.T) {
	m := module(&ast.BreakStatement{Value: intLit(1)})
	c := New(nil)
	_, err := c.Compile(m)
	if err == nil {
		t.Fatalf("expected an error for break outside a loop")
	}
	if ce := err.(*Error); ce.Kind != ErrBreakOutsideLoop {
		t.Errorf("expected %s, got %s", ErrBreakOutsideLoop, ce.Kind)
	}
}

func TestMainMustBeFuncError(t *testing.T) {
	m := module(exprStmt(&ast.DeclAssign{
		Name:  &ast.Identifier{Value: "$main", Kind: ast.IdentSpecial},
		Value: intLit(1),
	}))
	c := New(nil)
	_, err := c.Compile(m)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if ce := err.(*Error); ce.Kind != ErrMainMustBeFunc {
		t.Errorf("expected %s, got %s", ErrMainMustBeFunc, ce.Kind)
	}
}
