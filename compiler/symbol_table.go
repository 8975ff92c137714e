package compiler

// SymbolScope represents the scope of a symbol: where the compiler should
// load/store it from at runtime.
type SymbolScope string

const (
	// GlobalScope is a module-level binding.
	GlobalScope SymbolScope = "GLOBAL"

	// LocalScope is a binding local to the current function's frame,
	// addressed by a flat slot index shared by every nested block within
	// that function.
	LocalScope SymbolScope = "LOCAL"

	// BuiltinScope is a predefined builtin function or type.
	BuiltinScope SymbolScope = "BUILTIN"

	// FreeScope is a variable captured from an enclosing function.
	FreeScope SymbolScope = "FREE"

	// FunctionScope is the function's own name, bound inside its body for
	// recursive self-reference.
	FunctionScope SymbolScope = "FUNCTION"

	// CellScope is a local binding that some nested function literal
	// captures; the compiler boxes it in an object.Cell (see
	// object/callables.go) so writes made after the closure is created
	// stay visible to it, and vice versa.
	CellScope SymbolScope = "CELL"
)

// ScopeKind distinguishes symbol tables that start a new function frame
// from those that are just a nested block within the same frame, since
// only crossing a function boundary turns a reference into a free
// variable.
type ScopeKind string

const (
	ModuleScopeKind ScopeKind = "MODULE"
	FuncScopeKind   ScopeKind = "FUNC"
	BlockScopeKind  ScopeKind = "BLOCK"
)

// Symbol represents a named entity within a specific scope and its
// associated index in the symbol table.
type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int

	// FromCell is true when this symbol's value is (or, for a FreeScope
	// symbol, was originally) held in a Cell rather than a plain local
	// slot - i.e. Scope == CellScope, or Scope == FreeScope capturing a
	// symbol that was itself FromCell one function further out.
	FromCell bool
}

// SymbolTable manages variable bindings, symbol definition, and resolution
// within nested module/function/block scopes.
type SymbolTable struct {
	// Outer is the parent symbol table, allowing nested scopes to resolve
	// symbols defined in enclosing contexts.
	Outer *SymbolTable

	// Kind says whether this table starts a new function frame or just
	// extends the enclosing one with a new block.
	Kind ScopeKind

	store          map[string]Symbol
	numDefinitions int
	numCells       int

	// FreeSymbols holds, in capture order, the symbols this table's
	// function resolved from outside its own frame.
	FreeSymbols []Symbol

	// precaptured holds the names a pre-pass over this function's body
	// (collectCaptured, in compiler.go) found referenced by some nested
	// function literal, and so must Define into CellScope rather than a
	// plain local slot. Populated once, before any Define call, by
	// SetPrecaptured.
	precaptured map[string]bool
}

// NewSymbolTable creates a symbol table for the module's top-level scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		Kind:  ModuleScopeKind,
		store: make(map[string]Symbol),
	}
}

// NewEnclosedSymbolTable creates a nested symbol table of the given kind.
func NewEnclosedSymbolTable(outer *SymbolTable, kind ScopeKind) *SymbolTable {
	return &SymbolTable{
		Outer: outer,
		Kind:  kind,
		store: make(map[string]Symbol),
	}
}

// funcTable returns the nearest enclosing table that is a function frame
// (itself, if it is one) - the table whose numDefinitions/numCells back
// the slot spaces every nested block within that function shares.
func (s *SymbolTable) funcTable() *SymbolTable {
	t := s
	for t.Kind == BlockScopeKind {
		t = t.Outer
	}
	return t
}

// SetPrecaptured records the names this function's nested function
// literals capture, ahead of compiling the function's body, so Define can
// route them into CellScope from the moment they're declared.
func (s *SymbolTable) SetPrecaptured(names map[string]bool) {
	s.funcTable().precaptured = names
}

// Define adds a new symbol with the given name, binding it in the current
// function's flat local slot space (or the module's global space at the
// top level), unless a pre-pass marked the name captured, in which case
// it is bound in the Cell slot space instead.
func (s *SymbolTable) Define(name string) Symbol {
	if s.Kind == ModuleScopeKind {
		symbol := Symbol{Name: name, Scope: GlobalScope, Index: s.numDefinitions}
		s.store[name] = symbol
		s.numDefinitions++
		return symbol
	}

	ft := s.funcTable()
	if ft.precaptured[name] {
		symbol := Symbol{Name: name, Scope: CellScope, Index: ft.numCells, FromCell: true}
		ft.numCells++
		s.store[name] = symbol
		return symbol
	}

	symbol := Symbol{Name: name, Scope: LocalScope, Index: ft.numDefinitions}
	ft.numDefinitions++
	s.store[name] = symbol
	return symbol
}

// DefineBuiltin adds a symbol with builtin scope at the given index.
func (s *SymbolTable) DefineBuiltin(index int, name string) Symbol {
	symbol := Symbol{Name: name, Index: index, Scope: BuiltinScope}
	s.store[name] = symbol
	return symbol
}

// DefineFunctionName binds name to the function's own recursive
// self-reference.
func (s *SymbolTable) DefineFunctionName(name string) Symbol {
	symbol := Symbol{Name: name, Index: 0, Scope: FunctionScope}
	s.store[name] = symbol
	return symbol
}

// NumLocals returns the number of plain local slots this function frame
// needs.
func (s *SymbolTable) NumLocals() int { return s.funcTable().numDefinitions }

// NumCells returns the number of Cell-boxed slots this function frame
// needs.
func (s *SymbolTable) NumCells() int { return s.funcTable().numCells }

// Resolve looks up name, recursively widening to enclosing scopes. A
// reference that crosses a function boundary is converted to a FreeScope
// symbol, and the compiler emits a CaptureSet/MakeFunc pair built from the
// resulting FreeSymbols list (see compiler.go's compileFuncLiteral).
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	if sym, ok := s.store[name]; ok {
		return sym, true
	}
	if s.Outer == nil {
		return Symbol{}, false
	}

	sym, ok := s.Outer.Resolve(name)
	if !ok {
		return Symbol{}, false
	}
	if sym.Scope == GlobalScope || sym.Scope == BuiltinScope {
		return sym, true
	}

	if s.Kind != FuncScopeKind {
		// Same function, just a nested block: the symbol already lives in
		// the shared flat slot space, nothing further to do.
		s.store[name] = sym
		return sym, true
	}

	return s.defineFree(sym), true
}

// defineFree records a captured outer symbol as this function's next free
// variable.
func (s *SymbolTable) defineFree(original Symbol) Symbol {
	s.FreeSymbols = append(s.FreeSymbols, original)
	fromCell := original.Scope == CellScope || original.FromCell
	symbol := Symbol{Name: original.Name, Index: len(s.FreeSymbols) - 1, Scope: FreeScope, FromCell: fromCell}
	s.store[original.Name] = symbol
	return symbol
}
