package builtins

import (
	"fmt"

	"github.com/dr8co/feint/object"
)

// builtinType implements the `type` builtin: feint-builtins/src/modules/mod.rs's
// "type" entry, returning the argument's TypeObj.
func builtinType(args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("type() expected 1 argument, got %d", len(args))
	}
	t, ok := typeOf[args[0].Type()]
	if !ok {
		return nil, fmt.Errorf("type() has no TypeObj registered for %s", args[0].Type())
	}
	return t, nil
}

// builtinID implements the `id` builtin, per the same source's "id" entry.
func builtinID(args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("id() expected 1 argument, got %d", len(args))
	}
	return object.NewInt(int64(args[0].ID())), nil
}

// builtinLen reads the "length" attribute every aggregate type (Tuple,
// List, Map, Str) exposes, rather than duplicating the length logic here.
func builtinLen(args []object.Object) (object.Object, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() expected 1 argument, got %d", len(args))
	}
	n, err := args[0].GetAttr("length")
	if err != nil {
		return nil, fmt.Errorf("len() has no meaning for %s", args[0].Type())
	}
	return n, nil
}

// builtinAssert implements `assert(condition, message?, throw?)`, grounded
// on feint-builtins/src/modules/mod.rs's "assert" entry: true on success,
// otherwise an Err carrying message. The original distinguishes a
// catchable Error from a fatal RuntimeErr depending on the throw flag;
// since an Intrinsic's failure always surfaces as a recoverable
// *object.Err once the VM wraps it (see vm.callValue), this always
// returns an Err value rather than attempting to force a fatal abort -
// the surrounding VM's error model already supports a caller choosing to
// propagate rather than handle it.
func builtinAssert(args []object.Object) (object.Object, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("assert() expected at least 1 argument, got 0")
	}
	if args[0].BoolVal() {
		return object.True, nil
	}
	msg := "assertion failed"
	if len(args) > 1 {
		msg = displayString(args[1])
	}
	return object.NewErr("assertion", msg), nil
}
