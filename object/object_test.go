package object

import "testing"

func TestIntInterning(t *testing.T) {
	if NewInt(5) != NewInt(5) {
		t.Errorf("expected interned Int(5) to be the same instance")
	}
	if NewInt(256) != NewInt(256) {
		t.Errorf("expected interned Int(256) to be the same instance")
	}
	if NewInt(257) == NewInt(257) {
		t.Errorf("expected Int(257) to not be interned")
	}
}

func TestStrInterning(t *testing.T) {
	if NewStr("") != EmptyStr {
		t.Errorf("expected NewStr(\"\") to return EmptyStr")
	}
	if NewStr("x") == NewStr("x") {
		t.Errorf("expected non-empty strings to not be interned")
	}
}

func TestTupleInterning(t *testing.T) {
	if NewTuple(nil) != EmptyTuple {
		t.Errorf("expected NewTuple(nil) to return EmptyTuple")
	}
}

func TestIntArithmetic(t *testing.T) {
	sum, err := NewInt(2).Add(NewInt(3))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sum.(*Int).Value != 5 {
		t.Errorf("expected 5, got %d", sum.(*Int).Value)
	}

	_, err = NewInt(1).Div(NewInt(0))
	if err == nil {
		t.Errorf("expected division by zero error")
	}

	q, err := NewInt(-7).FloorDiv(NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if q.(*Int).Value != -4 {
		t.Errorf("expected floor_div(-7, 2) == -4, got %d", q.(*Int).Value)
	}

	m, err := NewInt(-7).Modulo(NewInt(2))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if m.(*Int).Value != 1 {
		t.Errorf("expected modulo(-7, 2) == 1, got %d", m.(*Int).Value)
	}
}

func TestIntFloatCrossEquality(t *testing.T) {
	if !NewInt(2).IsEqual(&Float{Base: NewBase(), Value: 2.0}) {
		t.Errorf("expected Int(2) == Float(2.0)")
	}
}

func TestAlwaysEqualsAnything(t *testing.T) {
	if !AlwaysObj.IsEqual(NewInt(42)) {
		t.Errorf("expected Always to equal anything")
	}
	if !AlwaysObj.IsEqual(NilObj) {
		t.Errorf("expected Always to equal nil")
	}
}

func TestListPushIsVisibleThroughCell(t *testing.T) {
	l := NewList([]Object{NewInt(1)})
	cell := NewCell(l)

	(cell.Get()).(*List).Push(NewInt(2))

	got := cell.Get().(*List)
	if len(got.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(got.Elements))
	}
}

func TestMapSetGetItem(t *testing.T) {
	m := NewMap()
	if err := m.SetItem(NewStr("a"), NewInt(1)); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	v, err := m.GetItem(NewStr("a"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.(*Int).Value != 1 {
		t.Errorf("expected 1, got %d", v.(*Int).Value)
	}
}

func TestErrIsNotInternalByDefault(t *testing.T) {
	e := NewErr("value_error", "bad input")
	if e.Internal {
		t.Errorf("expected user-constructed Err to have Internal == false")
	}
	ie := NewInternalErr("type_error", "mismatch")
	if !ie.Internal {
		t.Errorf("expected VM-raised Err to have Internal == true")
	}
}

func TestUnsupportedOperationError(t *testing.T) {
	_, err := NilObj.Add(NewInt(1))
	if err == nil {
		t.Fatalf("expected unsupported operation error")
	}
	if _, ok := err.(*OpError); !ok {
		t.Errorf("expected *OpError, got %T", err)
	}
}
