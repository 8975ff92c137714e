package code

// FreeVarSpec describes one free variable captured by a nested function
// from an enclosing scope. It is recorded on the unit for inspection;
// neither the CaptureSet/MakeFunc emission nor the VM reads it.
type FreeVarSpec struct {
	// Name is the captured variable's identifier, kept for disassembly.
	Name string

	// FromCell is true when the enclosing scope holds this variable in a
	// Cell - its own cell slot, or a cell it captured from further out -
	// so the closure receives that Cell by reference.
	FromCell bool

	// Index is this variable's position in the closure's own free list,
	// i.e. the LoadCaptured operand used for it inside this unit.
	Index int
}

// ParamSlot addresses where the VM's call protocol binds one value handed
// to a frame at call time - either a plain local slot or a Cell slot,
// mirroring the two places a parameter's Symbol can land when some nested
// function literal captures it (see compiler.SymbolTable.Define).
type ParamSlot struct {
	Cell  bool
	Index int
}

// Unit is a compiled chunk of code together with everything it needs to
// run: its constant pool and the free variables it captures from an
// enclosing scope. A Unit is produced by the compiler for the module
// itself and for every function literal nested within it; object.Func
// wraps one to make it callable.
//
// Constants holds `any` rather than a concrete object type so that this
// package stays independent of the object package (which in turn embeds
// a *Unit in its function/closure representation).
type Unit struct {
	// Name is the unit's name for disassembly: "$main" for the module
	// top level, or the function's bound name.
	Name string

	// Chunk is the compiled instruction stream.
	Chunk Instructions

	// Constants is the unit's constant pool, indexed by LoadConst,
	// DeclareVar (name constants), GetAttr, MakeFunc, LoadModule, and
	// StatementStart operands.
	Constants []any

	// FreeVars lists, in capture order, the free variables this unit's
	// closures (if any) pull from its own enclosing scope.
	FreeVars []FreeVarSpec

	// NumLocals is the number of plain local slots the VM must allocate
	// for a frame running this unit.
	NumLocals int

	// NumCells is the number of Cell-boxed slots the VM must allocate
	// (each initialized to a fresh, empty Cell) for a frame running this
	// unit, addressed by AssignCell/LoadCell.
	NumCells int

	// IsDocstring reports whether the unit starts with a docstring. The
	// compiler never sets it, so it is always false and a unit's
	// docstring is not detected.
	IsDocstring bool

	// ThisSlot is where the call protocol binds the receiver (`this`, nil
	// by default) inside a frame running this unit.
	ThisSlot ParamSlot

	// ParamSlots addresses, in parameter order, where each positional
	// argument is bound inside a frame running this unit. The var-args
	// slot, if any, receives the packed tuple of excess positional
	// arguments bound under `$args`.
	ParamSlots []ParamSlot

	// IsVarArgs is true when the last entry of ParamSlots collects excess
	// positional arguments into a tuple rather than binding exactly one.
	IsVarArgs bool
}

// NewUnit creates an empty Unit with the given name.
func NewUnit(name string) *Unit {
	return &Unit{Name: name}
}

// Len returns the current length of the chunk, i.e. the address the next
// emitted instruction will occupy.
func (u *Unit) Len() int { return len(u.Chunk) }

// Emit appends the encoded instruction for op/operands to the chunk and
// returns the address it was written at.
func (u *Unit) Emit(op Opcode, operands ...int) int {
	pos := u.Len()
	u.Chunk = append(u.Chunk, Make(op, operands...)...)
	return pos
}

// Extend appends another unit's chunk to this one, rewriting every
// constant-pool-index operand it contains (LoadConst, DeclareVar,
// GetAttr, MakeFunc's unit index, MakeString's count is not a const index
// so is left alone, LoadModule, StatementStart) to point at the constants
// this unit copies alongside it. Jump addresses in other are not
// rewritten. The compiler does not call it: blocks compile directly into
// their owning unit.
func (u *Unit) Extend(other *Unit) {
	base := len(u.Constants)
	u.Constants = append(u.Constants, other.Constants...)

	chunk := other.Chunk
	i := 0
	for i < len(chunk) {
		op := Opcode(chunk[i])
		def, err := Lookup(chunk[i])
		if err != nil {
			u.Chunk = append(u.Chunk, chunk[i])
			i++
			continue
		}
		operands, read := ReadOperands(def, chunk[i+1:])
		rewriteConstIndex(op, operands, base)
		instr := Make(op, operands...)
		u.Chunk = append(u.Chunk, instr...)
		i += read + 1
	}
}

// rewriteConstIndex adjusts, in place, the operand that indexes into the
// constant pool for opcodes that carry one, so a unit's instructions keep
// pointing at the right constant after its pool is appended at offset base
// onto a larger pool.
func rewriteConstIndex(op Opcode, operands []int, base int) {
	switch op {
	case LoadConst, GetAttr, LoadModule, StatementStart:
		operands[0] += base
	case DeclareVar:
		operands[1] += base
	case MakeFunc:
		operands[0] += base
	}
}

// AddConst appends value to the constant pool, reusing an existing slot
// when an equal constant (compared with eq) is already present, and
// returns its index. Structural objects (tuples, funcs) are never
// deduplicated by the caller; only scalar constants (ints, floats,
// strings, docstrings, names) are expected to call this with a real eq.
func (u *Unit) AddConst(value any, eq func(a, b any) bool) int {
	if eq != nil {
		for i, existing := range u.Constants {
			if eq(existing, value) {
				return i
			}
		}
	}
	u.Constants = append(u.Constants, value)
	return len(u.Constants) - 1
}

// FixUpExplicitReturns decodes the chunk to find its last instruction and
// ensures the unit ends with an explicit Return; if that instruction is
// not already a Return or ReturnPlaceholder, a
// ReturnPlaceholder is appended so every unit's chunk is return-terminated
// for the VM's call protocol, without requiring every compiled branch to
// track this itself.
func (u *Unit) FixUpExplicitReturns() {
	if len(u.Chunk) == 0 {
		u.Emit(ReturnPlaceholder)
		return
	}
	last := u.lastOpcode()
	if last == Return || last == ReturnPlaceholder {
		return
	}
	u.Emit(ReturnPlaceholder)
}

// lastOpcode decodes the opcode of the final instruction in the chunk.
func (u *Unit) lastOpcode() Opcode {
	i := 0
	var last Opcode
	for i < len(u.Chunk) {
		op := Opcode(u.Chunk[i])
		last = op
		def, err := Lookup(u.Chunk[i])
		if err != nil {
			i++
			continue
		}
		_, read := ReadOperands(def, u.Chunk[i+1:])
		i += read + 1
	}
	return last
}
