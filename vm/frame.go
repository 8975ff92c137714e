package vm

import (
	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/object"
)

// Frame is one call's execution context: the callable being run, its
// instruction pointer, and the two addressing spaces a running unit's
// locals live in (see code.Unit.NumLocals/NumCells).
type Frame struct {
	// cl is the closure being executed. A bare *object.Func (no captures)
	// is wrapped in a Closure with a nil Free slice by callValue, so Frame
	// has one shape to deal with.
	cl *object.Closure

	// ip is the instruction pointer into cl.Fn.Unit.Chunk; -1 before the
	// first fetch, mirroring the pre-increment fetch loop in Run.
	ip int

	// locals holds this frame's flat local-slot space, addressed by
	// LoadVar/AssignVar.
	locals []object.Object

	// cells holds this frame's own captured-by-inner-closures slots,
	// addressed by LoadCell/AssignCell/LoadCellRef; each starts as a
	// fresh, empty Cell so a MakeFunc nested inside this frame can box a
	// reference to it before the local is ever assigned.
	cells []*object.Cell
}

// NewFrame allocates a frame to run cl, sizing its locals/cells from the
// unit's slot counts and binding this/parameters per its ThisSlot/
// ParamSlots. args must already be in left-to-right source order; when
// the unit is var-args, excess positional arguments are packed into a
// tuple for the final slot (callValue validates arity beforehand).
func NewFrame(cl *object.Closure, this object.Object, args []object.Object) *Frame {
	unit := cl.Fn.Unit
	f := &Frame{
		cl:     cl,
		ip:     -1,
		locals: make([]object.Object, unit.NumLocals),
		cells:  make([]*object.Cell, unit.NumCells),
	}
	for i := range f.cells {
		f.cells[i] = object.NewCell(object.NilObj)
	}

	// A module unit reserves no `this` slot; when it has no locals at all
	// there is nowhere to bind the receiver.
	if unit.ThisSlot.Cell || unit.ThisSlot.Index < len(f.locals) {
		f.bind(unit.ThisSlot, this)
	}

	required := len(unit.ParamSlots)
	if unit.IsVarArgs {
		required--
	}
	for i := 0; i < required; i++ {
		var v object.Object = object.NilObj
		if i < len(args) {
			v = args[i]
		}
		f.bind(unit.ParamSlots[i], v)
	}
	if unit.IsVarArgs {
		rest := []object.Object{}
		if len(args) > required {
			rest = args[required:]
		}
		f.bind(unit.ParamSlots[required], object.NewTuple(rest))
	}
	return f
}

// bind writes value into the local slot or cell slot slot addresses.
func (f *Frame) bind(slot code.ParamSlot, value object.Object) {
	if slot.Cell {
		f.cells[slot.Index].Set(value)
		return
	}
	f.locals[slot.Index] = value
}

// Instructions returns the bytecode this frame is executing.
func (f *Frame) Instructions() code.Instructions {
	return f.cl.Fn.Unit.Chunk
}
