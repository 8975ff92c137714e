package compiler

import "testing"

func TestDefineResolveGlobal(t *testing.T) {
	global := NewSymbolTable()
	a := global.Define("a")
	b := global.Define("b")

	if a != (Symbol{Name: "a", Scope: GlobalScope, Index: 0}) {
		t.Errorf("expected a=%+v, got %+v", Symbol{Name: "a", Scope: GlobalScope, Index: 0}, a)
	}
	if b != (Symbol{Name: "b", Scope: GlobalScope, Index: 1}) {
		t.Errorf("expected b=%+v, got %+v", Symbol{Name: "b", Scope: GlobalScope, Index: 1}, b)
	}

	resolved, ok := global.Resolve("a")
	if !ok || resolved != a {
		t.Errorf("expected to resolve a, got %+v, ok=%v", resolved, ok)
	}
}

func TestResolveLocal(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")

	fn := NewEnclosedSymbolTable(global, FuncScopeKind)
	fn.Define("b")
	fn.Define("c")

	expected := []Symbol{
		{Name: "a", Scope: GlobalScope, Index: 0},
		{Name: "b", Scope: LocalScope, Index: 0},
		{Name: "c", Scope: LocalScope, Index: 1},
	}

	for _, want := range expected {
		got, ok := fn.Resolve(want.Name)
		if !ok {
			t.Errorf("%s not resolvable", want.Name)
			continue
		}
		if got != want {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	}
}

func TestResolveNestedBlockSharesLocalSlots(t *testing.T) {
	global := NewSymbolTable()
	fn := NewEnclosedSymbolTable(global, FuncScopeKind)
	fn.Define("a")

	block := NewEnclosedSymbolTable(fn, BlockScopeKind)
	b := block.Define("b")

	if b.Scope != LocalScope || b.Index != 1 {
		t.Errorf("expected block-local b to share the function's flat slot space at index 1, got %+v", b)
	}
	if fn.NumLocals() != 2 {
		t.Errorf("expected function frame to need 2 local slots, got %d", fn.NumLocals())
	}
}

func TestResolveFree(t *testing.T) {
	global := NewSymbolTable()
	global.Define("a")

	outer := NewEnclosedSymbolTable(global, FuncScopeKind)
	outer.Define("b")

	inner := NewEnclosedSymbolTable(outer, FuncScopeKind)
	sym, ok := inner.Resolve("b")
	if !ok {
		t.Fatalf("expected to resolve b")
	}
	if sym.Scope != FreeScope || sym.Index != 0 {
		t.Errorf("expected b to resolve as free var 0, got %+v", sym)
	}
	if len(inner.FreeSymbols) != 1 || inner.FreeSymbols[0].Name != "b" {
		t.Errorf("expected inner.FreeSymbols to record b, got %+v", inner.FreeSymbols)
	}
}

func TestPrecapturedRoutesToCellScope(t *testing.T) {
	global := NewSymbolTable()
	fn := NewEnclosedSymbolTable(global, FuncScopeKind)
	fn.SetPrecaptured(map[string]bool{"counter": true})

	sym := fn.Define("counter")
	if sym.Scope != CellScope || !sym.FromCell {
		t.Errorf("expected counter to be defined in CellScope with FromCell=true, got %+v", sym)
	}
	if fn.NumCells() != 1 {
		t.Errorf("expected 1 cell slot, got %d", fn.NumCells())
	}
	if fn.NumLocals() != 0 {
		t.Errorf("expected cell-routed symbols to not consume a local slot, got %d", fn.NumLocals())
	}
}

func TestResolveFreeFromCellPropagatesThroughIntermediateClosure(t *testing.T) {
	global := NewSymbolTable()
	outer := NewEnclosedSymbolTable(global, FuncScopeKind)
	outer.SetPrecaptured(map[string]bool{"counter": true})
	outer.Define("counter")

	middle := NewEnclosedSymbolTable(outer, FuncScopeKind)
	midSym, ok := middle.Resolve("counter")
	if !ok || !midSym.FromCell {
		t.Fatalf("expected middle's free symbol to carry FromCell=true, got %+v, ok=%v", midSym, ok)
	}

	inner := NewEnclosedSymbolTable(middle, FuncScopeKind)
	innerSym, ok := inner.Resolve("counter")
	if !ok {
		t.Fatalf("expected to resolve counter transitively")
	}
	if innerSym.Scope != FreeScope || !innerSym.FromCell {
		t.Errorf("expected a FreeScope symbol with FromCell=true, got %+v", innerSym)
	}
}

func TestDefineFunctionName(t *testing.T) {
	global := NewSymbolTable()
	fn := NewEnclosedSymbolTable(global, FuncScopeKind)
	sym := fn.DefineFunctionName("fact")

	if sym.Scope != FunctionScope {
		t.Errorf("expected FunctionScope, got %+v", sym)
	}
	resolved, ok := fn.Resolve("fact")
	if !ok || resolved.Scope != FunctionScope {
		t.Errorf("expected fact to resolve to FunctionScope, got %+v, ok=%v", resolved, ok)
	}
}
