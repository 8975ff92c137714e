// Package vm implements the stack-based virtual machine that executes
// bytecode produced by the compiler package: the value stack, the call
// frame stack, the fetch-decode-execute loop, and the call protocol that
// dispatches across every kind of callable object.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/object"
	"github.com/dr8co/feint/token"
)

// StackSize bounds the value stack; operands that index it are well
// within this range for any program the compiler can produce.
const StackSize = 2048

// MaxFrames bounds call-stack depth; exceeding it raises
// RecursionDepthExceeded rather than overflowing the Go stack.
const MaxFrames = 1024

// Error is a fatal VM error: one that aborts the running program rather
// than surfacing as a user-visible *object.Err value (its Kind is one of
// the Err* constants below; the recoverable Kind* constants are pushed as
// *object.Err instead).
type Error struct {
	Kind    string
	Message string
	Pos     token.Position
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Col, e.Kind, e.Message)
}

// Fatal error kinds: these abort Run rather than producing an *object.Err.
const (
	ErrStackOverflow  = "StackOverflow"
	ErrFrameOverflow  = "RecursionDepthExceeded"
	ErrBadOpcode      = "BadOpcode"
	ErrGlobalNotFound = "GlobalNotFound"
	ErrInterrupted    = "Interrupted"
)

// Runtime error kinds: these are recoverable, materializing as an
// *object.Err pushed onto the stack in place of the would-be result (see
// spec.md §7's "Recoverable errors are materialized as user-visible
// error objects").
const (
	KindType             = "type"
	KindArg              = "arg"
	KindAttrNotFound     = "attr_not_found"
	KindIndexOutOfBounds = "index_out_of_bounds"
	KindNotCallable      = "not_callable"
	KindModuleNotFound   = "module_not_found"

	// KindModuleCouldNotBeLoaded names a module a loader found but failed
	// to compile/run. LoadModule does not raise it: every ModuleLoader
	// failure is reported as KindModuleNotFound.
	KindModuleCouldNotBeLoaded = "module_could_not_be_loaded"
)

// ModuleLoader resolves an import path to a loaded module, caching one
// instance per path so repeated imports observe the same globals (see
// object.ModuleObj's doc comment). The builtins/modules package supplies
// the real implementation; a VM constructed without one fails every
// import with ModuleNotFound.
type ModuleLoader interface {
	Load(path string) (*object.ModuleObj, error)
}

// VM executes one module's compiled code.Unit to completion.
type VM struct {
	stack []object.Object
	sp    int

	// globals holds module-level values by index (AssignGlobal/LoadGlobal)
	// alongside a name-keyed view for REPL display and module namespaces
	// (see object.ModuleObj.Globals, populated from this after a run).
	globals     []object.Object
	globalNames []string

	builtins []object.Object

	frames      []*Frame
	framesIndex int

	modules ModuleLoader

	// interrupted is set by the process's SIGINT handler and polled
	// between instructions; the dispatch loop unwinds with ErrInterrupted
	// the next time it checks.
	interrupted *bool

	curPos token.Position

	stdout io.Writer
	stderr io.Writer
}

// New constructs a VM ready to run unit, with the given builtin functions
// (indexed as LoadBuiltin expects) and module loader.
func New(unit *code.Unit, builtins []object.Object, modules ModuleLoader) *VM {
	mainFn := &object.Func{Name: unit.Name, Unit: unit}
	mainFrame := NewFrame(&object.Closure{Fn: mainFn}, object.NilObj, nil)

	frames := make([]*Frame, MaxFrames)
	frames[0] = mainFrame

	globals := make([]object.Object, unit.NumLocals)
	for i := range globals {
		globals[i] = object.NilObj
	}

	return &VM{
		stack:       make([]object.Object, StackSize),
		globals:     globals,
		globalNames: make([]string, unit.NumLocals),
		builtins:    builtins,
		frames:      frames,
		framesIndex: 1,
		modules:     modules,
		interrupted: new(bool),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
}

// SetOutput redirects Print's destinations, for the REPL and for tests
// that capture output instead of writing to the real stdout/stderr.
func (vm *VM) SetOutput(stdout, stderr io.Writer) {
	vm.stdout = stdout
	vm.stderr = stderr
}

// NewWithGlobals reuses a previous run's global store, for the REPL's
// incremental compile-and-execute cycle (see compiler.NewWithState). Each
// REPL line recompiles against the same, growing symbol table, so unit's
// slot space only ever extends what globals/names already cover; any new
// slots are appended as nil until their DeclareVar runs.
func NewWithGlobals(unit *code.Unit, builtins []object.Object, modules ModuleLoader, globals []object.Object, names []string) *VM {
	v := New(unit, builtins, modules)
	for len(globals) < unit.NumLocals {
		globals = append(globals, object.NilObj)
		names = append(names, "")
	}
	v.globals = globals
	v.globalNames = names
	return v
}

// Globals returns the VM's global store and name index, for a REPL to
// carry into the next incremental VM.
func (vm *VM) Globals() ([]object.Object, []string) { return vm.globals, vm.globalNames }

// Interrupt requests cooperative shutdown; call from a SIGINT handler.
func (vm *VM) Interrupt() { *vm.interrupted = true }

// LastPoppedStackElem returns the module's result value after Run
// completes normally: compileStatements never emits a Pop for a
// sequence's last statement, and the ReturnPlaceholder FixUpExplicitReturns
// appends for the module's own unit pops then immediately re-pushes that
// value when the main frame returns, so it is the top of the stack rather
// than one slot above it. Used by the REPL to display an expression
// statement's result.
func (vm *VM) LastPoppedStackElem() object.Object {
	return vm.stack[vm.sp-1]
}

func (vm *VM) currentFrame() *Frame { return vm.frames[vm.framesIndex-1] }

func (vm *VM) pushFrame(f *Frame) error {
	if vm.framesIndex >= MaxFrames {
		return &Error{Kind: ErrFrameOverflow, Message: "maximum call depth exceeded", Pos: vm.curPos}
	}
	vm.frames[vm.framesIndex] = f
	vm.framesIndex++
	return nil
}

func (vm *VM) popFrame() *Frame {
	vm.framesIndex--
	return vm.frames[vm.framesIndex]
}

func (vm *VM) push(o object.Object) error {
	if vm.sp >= StackSize {
		return &Error{Kind: ErrStackOverflow, Message: "stack overflow", Pos: vm.curPos}
	}
	vm.stack[vm.sp] = o
	vm.sp++
	return nil
}

func (vm *VM) pop() object.Object {
	o := vm.stack[vm.sp-1]
	vm.sp--
	return o
}

// pushErr wraps a recoverable runtime condition as an *object.Err and
// pushes it in place of the value the failed operation would have
// produced, per the recoverable-error model: execution continues rather
// than aborting.
func (vm *VM) pushErr(kind, format string, args ...any) error {
	return vm.push(object.NewInternalErr(kind, fmt.Sprintf(format, args...)))
}

// Run executes the VM's main frame's instructions (and any frames pushed
// during a call) until the main frame's instructions are exhausted or a
// Halt/HaltTop instruction runs. It returns the exit code and a non-nil
// error only for a fatal (unrecoverable) condition.
func (vm *VM) Run() (int, error) {
	for vm.framesIndex > 0 && vm.currentFrame().ip < len(vm.currentFrame().Instructions())-1 {
		if *vm.interrupted {
			return 1, &Error{Kind: ErrInterrupted, Message: "interrupted", Pos: vm.curPos}
		}

		frame := vm.currentFrame()
		frame.ip++
		ip := frame.ip
		ins := frame.Instructions()
		op := code.Opcode(ins[ip])

		switch op {
		case code.NoOp:

		case code.Pop:
			vm.pop()

		case code.LoadConst:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			obj, ok := vm.constant(frame, int(idx)).(object.Object)
			if !ok {
				return 1, &Error{Kind: ErrBadOpcode, Message: "LoadConst constant is not a value", Pos: vm.curPos}
			}
			if err := vm.push(obj); err != nil {
				return 1, err
			}

		case code.LoadNil:
			if err := vm.push(object.NilObj); err != nil {
				return 1, err
			}
		case code.LoadTrue:
			if err := vm.push(object.True); err != nil {
				return 1, err
			}
		case code.LoadFalse:
			if err := vm.push(object.False); err != nil {
				return 1, err
			}
		case code.LoadAlways:
			if err := vm.push(object.AlwaysObj); err != nil {
				return 1, err
			}
		case code.LoadEmptyStr:
			if err := vm.push(object.EmptyStr); err != nil {
				return 1, err
			}
		case code.LoadEmptyTuple:
			if err := vm.push(object.EmptyTuple); err != nil {
				return 1, err
			}

		case code.LoadGlobalConst:
			v := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			if err := vm.push(object.NewInt(int64(v))); err != nil {
				return 1, err
			}

		case code.DeclareVar:
			idx := code.ReadUint16(ins[ip+1:])
			nameIdx := code.ReadUint16(ins[ip+3:])
			frame.ip += 4
			if int(idx) >= len(vm.globals) {
				return 1, &Error{Kind: ErrGlobalNotFound, Message: "global index out of range", Pos: vm.curPos}
			}
			name, _ := vm.constant(frame, int(nameIdx)).(*object.Str)
			vm.globals[idx] = vm.stack[vm.sp-1]
			if name != nil {
				vm.globalNames[idx] = name.Value
			}

		case code.AssignVar:
			slot := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			frame.locals[slot] = vm.stack[vm.sp-1]

		case code.AssignGlobal:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			if int(idx) >= len(vm.globals) {
				return 1, &Error{Kind: ErrGlobalNotFound, Message: "undefined global", Pos: vm.curPos}
			}
			vm.globals[idx] = vm.stack[vm.sp-1]

		case code.LoadVar:
			slot := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			if err := vm.push(frame.locals[slot]); err != nil {
				return 1, err
			}

		case code.LoadGlobal:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			if int(idx) >= len(vm.globals) {
				return 1, &Error{Kind: ErrGlobalNotFound, Message: "undefined global", Pos: vm.curPos}
			}
			if err := vm.push(vm.globals[idx]); err != nil {
				return 1, err
			}

		case code.LoadBuiltin:
			idx := ins[ip+1]
			frame.ip++
			if int(idx) >= len(vm.builtins) {
				return 1, &Error{Kind: ErrBadOpcode, Message: "undefined builtin", Pos: vm.curPos}
			}
			if err := vm.push(vm.builtins[idx]); err != nil {
				return 1, err
			}

		case code.AssignCell:
			idx := ins[ip+1]
			frame.ip++
			frame.cells[idx].Set(vm.stack[vm.sp-1])

		case code.LoadCell:
			idx := ins[ip+1]
			frame.ip++
			if err := vm.push(frame.cells[idx].Get()); err != nil {
				return 1, err
			}

		case code.LoadCaptured:
			idx := ins[ip+1]
			frame.ip++
			if err := vm.push(frame.cl.Free[idx].Get()); err != nil {
				return 1, err
			}

		case code.LoadCellRef:
			idx := ins[ip+1]
			frame.ip++
			if err := vm.push(frame.cells[idx]); err != nil {
				return 1, err
			}

		case code.LoadCapturedRef:
			idx := ins[ip+1]
			frame.ip++
			if err := vm.push(frame.cl.Free[idx]); err != nil {
				return 1, err
			}

		case code.LoadSelf:
			if err := vm.push(frame.cl); err != nil {
				return 1, err
			}

		case code.Jump:
			pos := int(code.ReadUint16(ins[ip+1:]))
			frame.ip = pos - 1

		case code.JumpPushNil:
			pos := int(code.ReadUint16(ins[ip+1:]))
			frame.ip = pos - 1
			if err := vm.push(object.NilObj); err != nil {
				return 1, err
			}

		case code.JumpIf:
			pos := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			if vm.stack[vm.sp-1].BoolVal() {
				frame.ip = pos - 1
			}

		case code.JumpIfNot:
			pos := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			if !vm.stack[vm.sp-1].BoolVal() {
				frame.ip = pos - 1
			}

		case code.JumpIfNotNil:
			pos := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			if _, isNil := vm.stack[vm.sp-1].(*object.Nil); !isNil {
				frame.ip = pos - 1
			}

		case code.UnaryOp:
			sub := ins[ip+1]
			frame.ip++
			if err := vm.execUnary(sub); err != nil {
				return 1, err
			}

		case code.BinaryOp:
			sub := ins[ip+1]
			frame.ip++
			if err := vm.execBinary(sub); err != nil {
				return 1, err
			}

		case code.CompareOp:
			sub := ins[ip+1]
			frame.ip++
			if err := vm.execCompare(sub); err != nil {
				return 1, err
			}

		case code.AssignCaptured:
			idx := ins[ip+1]
			frame.ip++
			frame.cl.Free[idx].Set(vm.stack[vm.sp-1])

		case code.GetAttr:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			name, _ := vm.constant(frame, int(idx)).(*object.Str)
			obj := vm.pop()
			if name == nil {
				return 1, &Error{Kind: ErrBadOpcode, Message: "GetAttr name constant is not a string", Pos: vm.curPos}
			}
			v, err := vm.getAttr(obj, name.Value)
			if err != nil {
				if perr := vm.pushErr(KindAttrNotFound, "%s has no attribute %q", obj.Type(), name.Value); perr != nil {
					return 1, perr
				}
				continue
			}
			if err := vm.push(v); err != nil {
				return 1, err
			}

		case code.GetItem:
			key := vm.pop()
			coll := vm.pop()
			v, err := coll.GetItem(key)
			if err != nil {
				if perr := vm.pushErr(KindIndexOutOfBounds, "%s", err.Error()); perr != nil {
					return 1, perr
				}
				continue
			}
			if err := vm.push(v); err != nil {
				return 1, err
			}

		case code.Call:
			numArgs := int(ins[ip+1])
			frame.ip++
			if err := vm.execCall(numArgs); err != nil {
				return 1, err
			}

		case code.Return, code.ReturnPlaceholder:
			retVal := vm.pop()
			vm.popFrame()
			if err := vm.push(retVal); err != nil {
				return 1, err
			}

		case code.MakeString:
			n := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			parts := make([]string, n)
			for i := n - 1; i >= 0; i-- {
				parts[i] = displayString(vm.pop())
			}
			if err := vm.push(object.NewStr(joinParts(parts))); err != nil {
				return 1, err
			}

		case code.MakeTuple:
			n := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			elems := make([]object.Object, n)
			copy(elems, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			if err := vm.push(object.NewTuple(elems)); err != nil {
				return 1, err
			}

		case code.MakeList:
			n := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			elems := make([]object.Object, n)
			copy(elems, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			if err := vm.push(object.NewList(elems)); err != nil {
				return 1, err
			}

		case code.MakeMap:
			n := int(code.ReadUint16(ins[ip+1:]))
			frame.ip += 2
			keys := make([]object.Object, n)
			values := make([]object.Object, n)
			base := vm.sp - n*2
			for i := 0; i < n; i++ {
				keys[i] = vm.stack[base+i*2]
				values[i] = vm.stack[base+i*2+1]
			}
			vm.sp = base
			m, err := object.NewMapFrom(keys, values)
			if err != nil {
				if perr := vm.pushErr(KindType, "%s", err.Error()); perr != nil {
					return 1, perr
				}
				continue
			}
			if err := vm.push(m); err != nil {
				return 1, err
			}

		case code.CaptureSet:
			// A no-op marker: MakeFunc reads the num_free cell refs the
			// compiler placed directly below it on the stack.

		case code.MakeFunc:
			unitIdx := code.ReadUint16(ins[ip+1:])
			numFree := int(ins[ip+3])
			frame.ip += 3
			unit, _ := vm.constant(frame, int(unitIdx)).(*code.Unit)
			if unit == nil {
				return 1, &Error{Kind: ErrBadOpcode, Message: "MakeFunc constant is not a code unit", Pos: vm.curPos}
			}
			free := make([]*object.Cell, numFree)
			for i := 0; i < numFree; i++ {
				c, _ := vm.stack[vm.sp-numFree+i].(*object.Cell)
				free[i] = c
			}
			vm.sp -= numFree
			fn := &object.Func{Name: unit.Name, Unit: unit, Params: syntheticParams(unit)}
			if err := vm.push(&object.Closure{Fn: fn, Free: free}); err != nil {
				return 1, err
			}

		case code.LoadModule:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			path, _ := vm.constant(frame, int(idx)).(*object.Str)
			if path == nil {
				return 1, &Error{Kind: ErrBadOpcode, Message: "LoadModule constant is not a string", Pos: vm.curPos}
			}
			mod, err := vm.loadModule(path.Value)
			if err != nil {
				if perr := vm.pushErr(KindModuleNotFound, "%s", err.Error()); perr != nil {
					return 1, perr
				}
				continue
			}
			if err := vm.push(mod); err != nil {
				return 1, err
			}

		case code.Halt:
			exitVal := vm.pop()
			return exitCode(exitVal), nil

		case code.HaltTop:
			return exitCode(vm.stack[vm.sp-1]), nil

		case code.StatementStart:
			idx := code.ReadUint16(ins[ip+1:])
			frame.ip += 2
			if pos, ok := vm.constant(frame, int(idx)).(token.Position); ok {
				vm.curPos = pos
			}

		case code.Print:
			numArgs := int(ins[ip+1])
			frame.ip++
			if err := vm.execPrint(numArgs); err != nil {
				return 1, err
			}

		case code.DisplayStack:
			vm.displayStack()

		default:
			return 1, &Error{Kind: ErrBadOpcode, Message: fmt.Sprintf("unknown opcode %d", op), Pos: vm.curPos}
		}
	}

	if vm.sp > 0 {
		return 0, nil
	}
	return 0, nil
}

// constant resolves a constant-pool index against the unit currently
// executing in frame. The compiler stores literal and name constants as
// plain Go int64/float64/string values; those come back as the matching
// Int/Float/Str objects, and every other entry is returned as stored.
func (vm *VM) constant(frame *Frame, idx int) any {
	switch v := frame.cl.Fn.Unit.Constants[idx].(type) {
	case int64:
		return object.NewInt(v)
	case float64:
		return &object.Float{Base: object.NewBase(), Value: v}
	case string:
		return object.NewStr(v)
	default:
		return v
	}
}

// alwaysTypeObj and cellTypeObj back $type for the two object kinds with
// no entry in the builtin namespace (object.Always/object.Cell are
// sentinel/internal values, never bound to a name a program can reach -
// see builtins.typeOf's doc comment) - $type still has to answer for them.
var (
	alwaysTypeObj = object.NewTypeObj("Always")
	cellTypeObj   = object.NewTypeObj("Cell")
)

// typeOf finds the TypeObj for a runtime type name by scanning vm.builtins,
// the same builtin namespace the compiler resolves TYPE_IDENT expressions
// like `Int`/`Err` against - this package can't import the builtins
// package directly (builtins imports vm to run modules), so the builtin
// values passed into New/NewWithGlobals are the only handle onto them.
func (vm *VM) typeOf(t object.Type) *object.TypeObj {
	for _, b := range vm.builtins {
		if to, ok := b.(*object.TypeObj); ok && object.Type(to.Name) == t {
			return to
		}
	}
	switch t {
	case object.ALWAYS_OBJ:
		return alwaysTypeObj
	case object.CELL_OBJ:
		return cellTypeObj
	default:
		return nil
	}
}

// getAttr resolves `obj.name`, recognizing the pseudo-attributes every
// object supports regardless of its own GetAttr override ($type, $module,
// $id) before falling back to the object's own attribute resolution.
// Every type in the language is currently defined by the ambient builtin
// namespace (there's no user-facing type-definition syntax), so $module
// is "builtins" for every value.
func (vm *VM) getAttr(obj object.Object, name string) (object.Object, error) {
	switch name {
	case "$id":
		return object.NewInt(int64(obj.ID())), nil
	case "$type":
		if t := vm.typeOf(obj.Type()); t != nil {
			return t, nil
		}
	case "$module":
		return object.NewStr("builtins"), nil
	}
	return obj.GetAttr(name)
}

func exitCode(o object.Object) int {
	if i, ok := o.(*object.Int); ok {
		return int(i.Value)
	}
	return 0
}

func joinParts(parts []string) string {
	out := ""
	for _, p := range parts {
		out += p
	}
	return out
}

// displayString renders o the way formatted-string interpolation does:
// strings contribute their bare value rather than Inspect's quoted form.
func displayString(o object.Object) string {
	if s, ok := o.(*object.Str); ok {
		return s.Value
	}
	return o.Inspect()
}

// syntheticParams builds the placeholder Params slice object.Func.IsVarArgs
// needs: its content beyond length and a trailing empty name for var-args
// is never inspected, since the VM addresses parameters through
// Unit.ParamSlots rather than by name.
func syntheticParams(unit *code.Unit) []string {
	params := make([]string, len(unit.ParamSlots))
	for i := range params {
		params[i] = "_"
	}
	if unit.IsVarArgs && len(params) > 0 {
		params[len(params)-1] = ""
	}
	return params
}

func (vm *VM) displayStack() {
	fmt.Fprint(os.Stderr, "[")
	for i := 0; i < vm.sp; i++ {
		if i > 0 {
			fmt.Fprint(os.Stderr, ", ")
		}
		fmt.Fprint(os.Stderr, vm.stack[i].Inspect())
	}
	fmt.Fprintln(os.Stderr, "]")
}
