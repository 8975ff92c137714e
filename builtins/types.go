package builtins

import (
	"fmt"
	"strconv"

	"github.com/dr8co/feint/object"
)

// newType builds a TypeObj and wires ctor (if non-nil) as its "new"
// method, mirroring feint-builtins/src/types/new.rs's per-type
// constructor functions collected under feint-builtins/src/modules/mod.rs.
func newType(name string, ctor object.IntrinsicFunc) *object.TypeObj {
	t := object.NewTypeObj(name)
	if ctor != nil {
		t.Methods["new"] = object.NewIntrinsic(name+".new", ctor)
	}
	return t
}

var (
	typeType        = newType("Type", nil)
	nilType         = newType("Nil", func([]object.Object) (object.Object, error) { return object.NilObj, nil })
	boolType        = newType("Bool", ctorBool)
	intType         = newType("Int", ctorInt)
	floatType       = newType("Float", ctorFloat)
	strType         = newType("Str", ctorStr)
	tupleType       = newType("Tuple", ctorTuple)
	listType        = newType("List", ctorList)
	mapType         = newType("Map", ctorMap)
	funcType        = newType("Func", nil)
	closureType     = newType("Closure", nil)
	boundMethodType = newType("BoundMethod", nil)
	intrinsicType   = newType("Intrinsic", nil)
	moduleType      = newType("Module", nil)
	errType         = newType("Err", ctorErr)
)

func ctorBool(args []object.Object) (object.Object, error) {
	if len(args) == 0 {
		return object.False, nil
	}
	return object.BoolOf(args[0].BoolVal()), nil
}

func ctorInt(args []object.Object) (object.Object, error) {
	if len(args) == 0 {
		return object.NewInt(0), nil
	}
	switch v := args[0].(type) {
	case *object.Int:
		return v, nil
	case *object.Float:
		return object.NewInt(int64(v.Value)), nil
	case *object.Str:
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Int.new: cannot parse %q as an integer", v.Value)
		}
		return object.NewInt(n), nil
	default:
		return nil, fmt.Errorf("Int.new: cannot convert %s to Int", args[0].Type())
	}
}

func ctorFloat(args []object.Object) (object.Object, error) {
	if len(args) == 0 {
		return &object.Float{Base: object.NewBase(), Value: 0}, nil
	}
	switch v := args[0].(type) {
	case *object.Float:
		return v, nil
	case *object.Int:
		return &object.Float{Base: object.NewBase(), Value: float64(v.Value)}, nil
	case *object.Str:
		f, err := strconv.ParseFloat(v.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("Float.new: cannot parse %q as a float", v.Value)
		}
		return &object.Float{Base: object.NewBase(), Value: f}, nil
	default:
		return nil, fmt.Errorf("Float.new: cannot convert %s to Float", args[0].Type())
	}
}

func ctorStr(args []object.Object) (object.Object, error) {
	if len(args) == 0 {
		return object.EmptyStr, nil
	}
	if s, ok := args[0].(*object.Str); ok {
		return s, nil
	}
	return object.NewStr(displayString(args[0])), nil
}

func ctorTuple(args []object.Object) (object.Object, error) {
	return object.NewTuple(args), nil
}

func ctorList(args []object.Object) (object.Object, error) {
	return object.NewList(append([]object.Object{}, args...)), nil
}

func ctorMap(args []object.Object) (object.Object, error) {
	m := object.NewMap()
	for _, pair := range args {
		t, ok := pair.(*object.Tuple)
		if !ok || len(t.Elements) != 2 {
			return nil, fmt.Errorf("Map.new: expected (key, value) tuples, got %s", pair.Type())
		}
		if err := m.SetItem(t.Elements[0], t.Elements[1]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func ctorErr(args []object.Object) (object.Object, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("Err.new: expected (kind, message), got %d argument(s)", len(args))
	}
	kind, ok := args[0].(*object.Str)
	if !ok {
		return nil, fmt.Errorf("Err.new: kind must be a Str, got %s", args[0].Type())
	}
	msg, ok := args[1].(*object.Str)
	if !ok {
		return nil, fmt.Errorf("Err.new: message must be a Str, got %s", args[1].Type())
	}
	return object.NewErr(kind.Value, msg.Value), nil
}

// displayString renders value the way `$print`'s non-repr form does - a
// string's bare value, everything else through Inspect. Duplicated from
// vm.displayString, which is unexported there.
func displayString(v object.Object) string {
	if s, ok := v.(*object.Str); ok {
		return s.Value
	}
	return v.Inspect()
}
