// Package builtins supplies FeInt's ambient namespace: the type objects
// and intrinsic functions every module sees without an import, grounded
// on feint-builtins/src/modules/mod.rs's BUILTINS module and
// src/modules/builtins.rs's std-prelude entries from the original
// implementation.
//
// Names and Values are parallel, index-aligned slices: the compiler
// seeds a fresh SymbolTable's builtin scope from Names (DefineBuiltin),
// and the VM is constructed with Values so LoadBuiltin's operand indexes
// the same namespace the compiler resolved against.
package builtins

import "github.com/dr8co/feint/object"

type entry struct {
	name  string
	value object.Object
}

var registry = []entry{
	{"Type", typeType},
	{"Nil", nilType},
	{"Bool", boolType},
	{"Int", intType},
	{"Float", floatType},
	{"Str", strType},
	{"Tuple", tupleType},
	{"List", listType},
	{"Map", mapType},
	{"Func", funcType},
	{"Closure", closureType},
	{"BoundMethod", boundMethodType},
	{"Intrinsic", intrinsicType},
	{"Module", moduleType},
	{"Err", errType},
	{"type", object.NewIntrinsic("type", builtinType)},
	{"id", object.NewIntrinsic("id", builtinID)},
	{"len", object.NewIntrinsic("len", builtinLen)},
	{"assert", object.NewIntrinsic("assert", builtinAssert)},
}

// Names returns the ordered builtin names.
func Names() []string {
	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.name
	}
	return names
}

// Values returns the ordered builtin values, index-aligned with Names.
func Values() []object.Object {
	values := make([]object.Object, len(registry))
	for i, e := range registry {
		values[i] = e.value
	}
	return values
}

// typeOf maps a runtime Type name to its builtin TypeObj, for the `type`
// builtin. Always and Cell have no entry: they are internal values with
// no name in the builtin namespace.
var typeOf = map[object.Type]*object.TypeObj{
	object.TYPE_OBJ:         typeType,
	object.NIL_OBJ:          nilType,
	object.BOOL_OBJ:         boolType,
	object.INT_OBJ:          intType,
	object.FLOAT_OBJ:        floatType,
	object.STR_OBJ:          strType,
	object.TUPLE_OBJ:        tupleType,
	object.LIST_OBJ:         listType,
	object.MAP_OBJ:          mapType,
	object.FUNC_OBJ:         funcType,
	object.CLOSURE_OBJ:      closureType,
	object.BOUND_METHOD_OBJ: boundMethodType,
	object.INTRINSIC_OBJ:    intrinsicType,
	object.MODULE_OBJ:       moduleType,
	object.ERR_OBJ:          errType,
}
