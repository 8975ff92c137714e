package builtins

import (
	"testing"

	"github.com/dr8co/feint/object"
)

func TestNamesValuesAligned(t *testing.T) {
	names := Names()
	values := Values()
	if len(names) != len(values) {
		t.Fatalf("Names()/Values() length mismatch: %d vs %d", len(names), len(values))
	}
	seen := map[string]bool{}
	for i, name := range names {
		if seen[name] {
			t.Errorf("duplicate builtin name %q", name)
		}
		seen[name] = true
		if values[i] == nil {
			t.Errorf("builtin %q has a nil value", name)
		}
	}
}

func TestCtorInt(t *testing.T) {
	tests := []struct {
		args []object.Object
		want int64
	}{
		{nil, 0},
		{[]object.Object{object.NewInt(5)}, 5},
		{[]object.Object{&object.Float{Base: object.NewBase(), Value: 3.9}}, 3},
		{[]object.Object{object.NewStr("42")}, 42},
	}
	for _, tt := range tests {
		got, err := ctorInt(tt.args)
		if err != nil {
			t.Fatalf("ctorInt(%v): %s", tt.args, err)
		}
		i, ok := got.(*object.Int)
		if !ok {
			t.Fatalf("ctorInt(%v) = %T, want *object.Int", tt.args, got)
		}
		if i.Value != tt.want {
			t.Errorf("ctorInt(%v) = %d, want %d", tt.args, i.Value, tt.want)
		}
	}
}

func TestCtorIntRejectsUnparsable(t *testing.T) {
	if _, err := ctorInt([]object.Object{object.NewStr("not a number")}); err == nil {
		t.Fatal("expected an error for an unparsable string")
	}
}

func TestCtorStrUsesDisplayForm(t *testing.T) {
	got, err := ctorStr([]object.Object{object.NewInt(7)})
	if err != nil {
		t.Fatalf("ctorStr: %s", err)
	}
	s, ok := got.(*object.Str)
	if !ok || s.Value != "7" {
		t.Fatalf("ctorStr(7) = %#v, want Str(\"7\")", got)
	}
}

func TestCtorMapRequiresPairTuples(t *testing.T) {
	good := object.NewTuple([]object.Object{object.NewStr("k"), object.NewInt(1)})
	if _, err := ctorMap([]object.Object{good}); err != nil {
		t.Fatalf("ctorMap with a (key, value) tuple: %s", err)
	}
	if _, err := ctorMap([]object.Object{object.NewInt(1)}); err == nil {
		t.Fatal("expected an error for a non-tuple argument")
	}
}

func TestCtorErrRequiresKindAndMessage(t *testing.T) {
	got, err := ctorErr([]object.Object{object.NewStr("io"), object.NewStr("boom")})
	if err != nil {
		t.Fatalf("ctorErr: %s", err)
	}
	e, ok := got.(*object.Err)
	if !ok {
		t.Fatalf("ctorErr = %T, want *object.Err", got)
	}
	if e.Kind != "io" || e.Message != "boom" {
		t.Errorf("ctorErr = %+v, want Kind=io Message=boom", e)
	}

	if _, err := ctorErr([]object.Object{object.NewStr("io")}); err == nil {
		t.Fatal("expected an error when the message argument is missing")
	}
}

func TestBuiltinType(t *testing.T) {
	got, err := builtinType([]object.Object{object.NewInt(1)})
	if err != nil {
		t.Fatalf("type(1): %s", err)
	}
	if got != intType {
		t.Errorf("type(1) = %v, want the Int TypeObj", got)
	}
}

func TestBuiltinLen(t *testing.T) {
	list := object.NewList([]object.Object{object.NewInt(1), object.NewInt(2), object.NewInt(3)})
	got, err := builtinLen([]object.Object{list})
	if err != nil {
		t.Fatalf("len(list): %s", err)
	}
	n, ok := got.(*object.Int)
	if !ok || n.Value != 3 {
		t.Fatalf("len(list) = %#v, want Int(3)", got)
	}
}

func TestBuiltinAssert(t *testing.T) {
	ok, err := builtinAssert([]object.Object{object.True})
	if err != nil || ok != object.True {
		t.Fatalf("assert(true) = %v, %v, want True, nil", ok, err)
	}

	got, err := builtinAssert([]object.Object{object.False, object.NewStr("custom message")})
	if err != nil {
		t.Fatalf("assert(false, ...): %s", err)
	}
	e, isErr := got.(*object.Err)
	if !isErr {
		t.Fatalf("assert(false, ...) = %T, want *object.Err", got)
	}
	if e.Message != "custom message" {
		t.Errorf("assert message = %q, want %q", e.Message, "custom message")
	}
	if e.Kind != "assertion" {
		t.Errorf("assert kind = %q, want %q", e.Kind, "assertion")
	}
}

// TestAssertResultTypeNameScenario is spec.md §8 scenario 7:
// r = assert(false, "nope"); r.type.name == "assertion" && r.message == "nope".
func TestAssertResultTypeNameScenario(t *testing.T) {
	got, err := builtinAssert([]object.Object{object.False, object.NewStr("nope")})
	if err != nil {
		t.Fatalf("assert(false, \"nope\"): %s", err)
	}
	typ, err := got.GetAttr("type")
	if err != nil {
		t.Fatalf("r.type: %s", err)
	}
	name, err := typ.GetAttr("name")
	if err != nil {
		t.Fatalf("r.type.name: %s", err)
	}
	s, ok := name.(*object.Str)
	if !ok || s.Value != "assertion" {
		t.Fatalf("r.type.name = %#v, want Str(\"assertion\")", name)
	}
	msg, err := got.GetAttr("message")
	if err != nil {
		t.Fatalf("r.message: %s", err)
	}
	if m, ok := msg.(*object.Str); !ok || m.Value != "nope" {
		t.Fatalf("r.message = %#v, want Str(\"nope\")", msg)
	}
}

func TestTypeObjConstructorsAreCallable(t *testing.T) {
	for _, typ := range []*object.TypeObj{boolType, intType, floatType, strType, tupleType, listType, mapType, errType} {
		if _, err := typ.GetAttr("new"); err != nil {
			t.Errorf("%s.new is not wired as an attribute: %s", typ.Name, err)
		}
	}
	for _, typ := range []*object.TypeObj{funcType, closureType, boundMethodType, intrinsicType, moduleType} {
		if _, err := typ.GetAttr("new"); err == nil {
			t.Errorf("%s.new should not exist - there is no user-facing constructor for it", typ.Name)
		}
	}
}
