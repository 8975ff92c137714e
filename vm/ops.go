package vm

import (
	"fmt"

	"github.com/dr8co/feint/code"
	"github.com/dr8co/feint/object"
)

// execUnary applies a Unary* sub-operator to TOS, per code.UnaryOp.
func (vm *VM) execUnary(sub byte) error {
	operand := vm.pop()
	switch sub {
	case code.UnaryPos:
		return vm.push(operand)
	case code.UnaryNeg:
		v, err := operand.Negate()
		if err != nil {
			return vm.pushErr(KindType, "%s", err.Error())
		}
		return vm.push(v)
	case code.UnaryNot:
		return vm.push(operand.Not())
	case code.UnaryNotNot:
		return vm.push(object.BoolOf(operand.BoolVal()))
	}
	return &Error{Kind: ErrBadOpcode, Message: fmt.Sprintf("unknown unary sub-op %d", sub), Pos: vm.curPos}
}

// execBinary applies a Binary* sub-operator to the top two stack values,
// per code.BinaryOp. Each case delegates straight to the object protocol
// method the operator corresponds to.
func (vm *VM) execBinary(sub byte) error {
	right := vm.pop()
	left := vm.pop()

	var (
		result object.Object
		err    error
	)
	switch sub {
	case code.BinaryAdd:
		result, err = left.Add(right)
	case code.BinarySub:
		result, err = left.Sub(right)
	case code.BinaryMul:
		result, err = left.Mul(right)
	case code.BinaryDiv:
		result, err = left.Div(right)
	case code.BinaryFloorDiv:
		result, err = left.FloorDiv(right)
	case code.BinaryMod:
		result, err = left.Modulo(right)
	case code.BinaryPow:
		result, err = left.Pow(right)
	case code.BinaryAnd:
		result, err = left.And(right)
	case code.BinaryOr:
		result, err = left.Or(right)
	default:
		return &Error{Kind: ErrBadOpcode, Message: fmt.Sprintf("unknown binary sub-op %d", sub), Pos: vm.curPos}
	}
	if err != nil {
		return vm.pushErr(KindType, "%s", err.Error())
	}
	return vm.push(result)
}

// execCompare applies a Compare* sub-operator to the top two stack
// values, per code.CompareOp.
//
// Is/IsNot compare identity (object.Object.ID). TripleEq/NotTripleEq are
// strict equality: same concrete type and IsEqual, so (unlike Eq) an Int
// and a Float with the same numeric value compare unequal - a deliberate
// reading of the otherwise-undocumented `===` (see DESIGN.md). Eq/NotEq
// are plain IsEqual, which does coerce Int/Float. Lt/Gt defer to the
// object protocol; Lte/Gte are their complements, since the protocol
// exposes no separate method for them.
func (vm *VM) execCompare(sub byte) error {
	right := vm.pop()
	left := vm.pop()

	switch sub {
	case code.CompareIs:
		return vm.push(object.BoolOf(left.ID() == right.ID()))
	case code.CompareIsNot:
		return vm.push(object.BoolOf(left.ID() != right.ID()))
	case code.CompareTripleEq:
		return vm.push(object.BoolOf(left.Type() == right.Type() && left.IsEqual(right)))
	case code.CompareNotTripleEq:
		return vm.push(object.BoolOf(!(left.Type() == right.Type() && left.IsEqual(right))))
	case code.CompareEq:
		return vm.push(object.BoolOf(left.IsEqual(right)))
	case code.CompareNotEq:
		return vm.push(object.BoolOf(!left.IsEqual(right)))
	case code.CompareLt:
		lt, err := left.LessThan(right)
		if err != nil {
			return vm.pushErr(KindType, "%s", err.Error())
		}
		return vm.push(object.BoolOf(lt))
	case code.CompareGt:
		gt, err := left.GreaterThan(right)
		if err != nil {
			return vm.pushErr(KindType, "%s", err.Error())
		}
		return vm.push(object.BoolOf(gt))
	case code.CompareLte:
		gt, err := left.GreaterThan(right)
		if err != nil {
			return vm.pushErr(KindType, "%s", err.Error())
		}
		return vm.push(object.BoolOf(!gt))
	case code.CompareGte:
		lt, err := left.LessThan(right)
		if err != nil {
			return vm.pushErr(KindType, "%s", err.Error())
		}
		return vm.push(object.BoolOf(!lt))
	}
	return &Error{Kind: ErrBadOpcode, Message: fmt.Sprintf("unknown compare sub-op %d", sub), Pos: vm.curPos}
}

// execCall implements the Call protocol: the callable sits numArgs below
// TOS, with arguments pushed left-to-right above it (see
// compiler.compileCall). Arguments are popped in reverse to rebuild them
// in source order before dispatch - the convention this VM chose over
// the alternative the spec also permits (see DESIGN.md).
func (vm *VM) execCall(numArgs int) error {
	args := make([]object.Object, numArgs)
	for i := numArgs - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	callee := vm.pop()
	return vm.callValue(callee, args)
}

// callValue dispatches a call across every kind of callable object (see
// object/callables.go's Func doc comment naming this function). User
// functions and closures push a new Frame; everything else (bound
// methods, intrinsics, types) can be invoked without one and the VM just
// pushes the result directly.
func (vm *VM) callValue(callee object.Object, args []object.Object) error {
	switch fn := callee.(type) {
	case *object.Closure:
		return vm.callClosure(fn, object.NilObj, args)
	case *object.Func:
		return vm.callClosure(&object.Closure{Fn: fn}, object.NilObj, args)
	case *object.BoundMethod:
		return vm.callBound(fn, args)
	case *object.Intrinsic:
		result, err := fn.Fn(args)
		if err != nil {
			return vm.pushErr(KindArg, "%s", err.Error())
		}
		return vm.push(result)
	case *object.TypeObj:
		ctor, err := fn.GetAttr("new")
		if err != nil {
			return vm.pushErr(KindNotCallable, "%s has no constructor", fn.Name)
		}
		return vm.callValue(ctor, args)
	default:
		return vm.pushErr(KindNotCallable, "%s is not callable", callee.Type())
	}
}

// callBound invokes a BoundMethod. A Func/Closure target receives the
// receiver as the callee frame's `this`, not as a positional argument;
// an Intrinsic target receives it prepended as its first argument.
func (vm *VM) callBound(b *object.BoundMethod, args []object.Object) error {
	switch m := b.Method.(type) {
	case *object.Closure:
		return vm.callClosure(m, b.Receiver, args)
	case *object.Func:
		return vm.callClosure(&object.Closure{Fn: m}, b.Receiver, args)
	case *object.Intrinsic:
		result, err := m.Fn(append([]object.Object{b.Receiver}, args...))
		if err != nil {
			return vm.pushErr(KindArg, "%s", err.Error())
		}
		return vm.push(result)
	default:
		return vm.pushErr(KindNotCallable, "bound method target is not callable")
	}
}

// callClosure validates arity, pushes a new frame for cl bound to this
// and args, and leaves the VM to resume dispatch inside it; the callee's
// Return/ReturnPlaceholder pops the frame and pushes its result in the
// caller's place (see the Run loop).
func (vm *VM) callClosure(cl *object.Closure, this object.Object, args []object.Object) error {
	unit := cl.Fn.Unit
	required := len(unit.ParamSlots)
	if unit.IsVarArgs {
		required--
		if len(args) < required {
			return vm.pushErr(KindArg, "%s expected at least %d argument(s), got %d", cl.Fn.Name, required, len(args))
		}
	} else if len(args) != required {
		return vm.pushErr(KindArg, "%s expected %d argument(s), got %d", cl.Fn.Name, required, len(args))
	}
	return vm.pushFrame(NewFrame(cl, this, args))
}

// execPrint implements the `$print(...)` special form: arg1 is the
// value, the rest are the optional PrintFlag booleans, packed in
// positional order by the compiler (see code.Print's doc comment).
func (vm *VM) execPrint(numArgs int) error {
	args := make([]object.Object, numArgs)
	for i := numArgs - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}

	value := args[0]
	flag := func(i int) bool { return i < len(args) && args[i].BoolVal() }

	toErr := flag(1 + int(code.PrintFlagErr))
	noNewline := flag(1 + int(code.PrintFlagNoNewline))
	repr := flag(1 + int(code.PrintFlagRepr))

	if _, isNil := value.(*object.Nil); isNil {
		return nil
	}

	text := displayString(value)
	if repr {
		text = value.Inspect()
	}
	if !noNewline {
		text += "\n"
	}

	w := vm.stdout
	if toErr {
		w = vm.stderr
	}
	_, werr := w.Write([]byte(text))
	return werr
}

// loadModule resolves path through the VM's ModuleLoader, or fails with
// ModuleNotFound if none is configured.
func (vm *VM) loadModule(path string) (*object.ModuleObj, error) {
	if vm.modules == nil {
		return nil, fmt.Errorf("module %q not found", path)
	}
	return vm.modules.Load(path)
}
