package vm

import (
	"bytes"
	"testing"

	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/object"
	"github.com/dr8co/feint/parser"
)

func runSource(t *testing.T, input string) *VM {
	t.Helper()
	l := lexer.New(input)
	p := parser.New(l)
	module := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}

	c := compiler.New(nil)
	unit, err := c.Compile(module)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}

	v := New(unit, nil, nil)
	if code, err := v.Run(); err != nil {
		t.Fatalf("vm error (exit %d): %s", code, err)
	}
	return v
}

func expectInt(t *testing.T, got object.Object, want int64) {
	t.Helper()
	i, ok := got.(*object.Int)
	if !ok {
		t.Fatalf("expected *object.Int, got %T (%s)", got, got.Inspect())
	}
	if i.Value != want {
		t.Errorf("expected %d, got %d", want, i.Value)
	}
}

func TestArithmetic(t *testing.T) {
	v := runSource(t, "1 + 2 * 3")
	expectInt(t, v.LastPoppedStackElem(), 7)
}

// TestGlobalDeclareAssignLoad covers both global-binding forms: a second
// `x = expr` at the same scope is a fresh declaration (shadowing, not
// mutating, the first - only compound assignment reuses a binding's
// existing slot), so the 10 decl'd first never changes; `x += 5` then
// exercises AssignGlobal against that fresh slot.
func TestGlobalDeclareAssignLoad(t *testing.T) {
	v := runSource(t, "x = 10\nx = x + 5\nx += 5\nx")
	expectInt(t, v.LastPoppedStackElem(), 20)
}

// TestGlobalSlotsSurviveInterveningBlockLocal exercises the gap in global
// indices a block-scoped local opens up at module scope: `y` inside the
// conditional is a LocalScope symbol sharing the module unit's local-slot
// counter, not a module-level global, so `after` must still resolve to its
// own, separately assigned global index.
func TestGlobalSlotsSurviveInterveningBlockLocal(t *testing.T) {
	v := runSource(t, `
before = 1
if true -> {
	y = 99
}
after = before + 1
after
`)
	expectInt(t, v.LastPoppedStackElem(), 2)
}

func TestFunctionCallWithParams(t *testing.T) {
	v := runSource(t, `
add = (a, b) -> { a + b }
add(3, 4)
`)
	expectInt(t, v.LastPoppedStackElem(), 7)
}

// TestClosureOverMutableLocal mutates a captured local through `+=`
// (compileInplace resolves the existing binding rather than declaring a
// new one, unlike plain `=`), so three calls accumulate in the cell
// `count` shares with the outer frame rather than each starting fresh.
func TestClosureOverMutableLocal(t *testing.T) {
	v := runSource(t, `
makeCounter = () -> {
	count = 0
	() -> {
		count += 1
		count
	}
}
counter = makeCounter()
counter()
counter()
counter()
`)
	expectInt(t, v.LastPoppedStackElem(), 3)
}

// TestVarArgsPacking uses a leading named parameter before the trailing
// `...` - looksLikeParamList only recognizes a param list that opens with
// an identifier or `)`, so a bare `(...)` with no fixed parameter never
// reaches tryParseParamList. Excess positional args beyond the named ones
// pack into $args.
func TestVarArgsPacking(t *testing.T) {
	v := runSource(t, `
collect = (first, ...) -> { $args }
collect(1, 2, 3, 4)
`)
	tup, ok := v.LastPoppedStackElem().(*object.Tuple)
	if !ok {
		t.Fatalf("expected *object.Tuple, got %T", v.LastPoppedStackElem())
	}
	if len(tup.Elements) != 3 {
		t.Fatalf("expected 3 packed args, got %d", len(tup.Elements))
	}
	for i, want := range []int64{2, 3, 4} {
		expectInt(t, tup.Elements[i], want)
	}
}

func TestRecoverableTypeErrorBecomesValue(t *testing.T) {
	v := runSource(t, `1 + "a"`)
	errObj, ok := v.LastPoppedStackElem().(*object.Err)
	if !ok {
		t.Fatalf("expected *object.Err, got %T", v.LastPoppedStackElem())
	}
	if errObj.Kind != KindType {
		t.Errorf("expected kind %q, got %q", KindType, errObj.Kind)
	}
}

func TestHaltExitCode(t *testing.T) {
	l := lexer.New("halt 7")
	p := parser.New(l)
	module := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	c := compiler.New(nil)
	unit, err := c.Compile(module)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}
	v := New(unit, nil, nil)
	code, err := v.Run()
	if err != nil {
		t.Fatalf("vm error: %s", err)
	}
	if code != 7 {
		t.Errorf("expected exit code 7, got %d", code)
	}
}

func TestPrintWritesToStdout(t *testing.T) {
	l := lexer.New(`$print("hi")`)
	p := parser.New(l)
	module := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	c := compiler.New(nil)
	unit, err := c.Compile(module)
	if err != nil {
		t.Fatalf("compiler error: %s", err)
	}
	v := New(unit, nil, nil)
	var out bytes.Buffer
	v.SetOutput(&out, &out)
	if _, err := v.Run(); err != nil {
		t.Fatalf("vm error: %s", err)
	}
	if out.String() != "hi\n" {
		t.Errorf("expected %q, got %q", "hi\n", out.String())
	}
}
