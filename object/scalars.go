package object

import (
	"math"
	"strconv"
)

// ---- Nil -------------------------------------------------------------

// Nil is FeInt's `nil` value. There is exactly one instance: [NilObj].
type Nil struct{ Base }

var NilObj = &Nil{Base: NewBase()}

func (*Nil) Type() Type                      { return NIL_OBJ }
func (*Nil) Inspect() string                 { return "nil" }
func (*Nil) BoolVal() bool                   { return false }
func (n *Nil) IsEqual(other Object) bool     { _, ok := other.(*Nil); return ok }
func (n *Nil) GetAttr(name string) (Object, error) { return n.Base.GetAttr(n, name) }
func (n *Nil) GetItem(key Object) (Object, error)  { return n.Base.GetItem(n, key) }
func (n *Nil) Negate() (Object, error)             { return n.Base.Negate(n) }
func (n *Nil) Not() Object                         { return n.Base.Not(n) }
func (n *Nil) LessThan(o Object) (bool, error)      { return n.Base.LessThan(n, o) }
func (n *Nil) GreaterThan(o Object) (bool, error)   { return n.Base.GreaterThan(n, o) }
func (n *Nil) Add(o Object) (Object, error)         { return n.Base.Add(n, o) }
func (n *Nil) Sub(o Object) (Object, error)         { return n.Base.Sub(n, o) }
func (n *Nil) Mul(o Object) (Object, error)         { return n.Base.Mul(n, o) }
func (n *Nil) Div(o Object) (Object, error)         { return n.Base.Div(n, o) }
func (n *Nil) FloorDiv(o Object) (Object, error)    { return n.Base.FloorDiv(n, o) }
func (n *Nil) Modulo(o Object) (Object, error)      { return n.Base.Modulo(n, o) }
func (n *Nil) Pow(o Object) (Object, error)         { return n.Base.Pow(n, o) }
func (n *Nil) And(o Object) (Object, error)         { return n.Base.And(n, o) }
func (n *Nil) Or(o Object) (Object, error)          { return n.Base.Or(n, o) }
func (n *Nil) Call(args []Object) (Object, error)   { return n.Base.Call(n, args) }

// ---- Bool --------------------------------------------------------------

// Bool is FeInt's boolean value. There are exactly two instances: [True]
// and [False].
type Bool struct {
	Base
	Value bool
}

var (
	True  = &Bool{Base: NewBase(), Value: true}
	False = &Bool{Base: NewBase(), Value: false}
)

// BoolOf returns [True] or [False] for v, never allocating a new Bool.
func BoolOf(v bool) *Bool {
	if v {
		return True
	}
	return False
}

func (*Bool) Type() Type  { return BOOL_OBJ }
func (b *Bool) Inspect() string { return strconv.FormatBool(b.Value) }
func (b *Bool) BoolVal() bool   { return b.Value }
func (b *Bool) IsEqual(other Object) bool {
	o, ok := other.(*Bool)
	return ok && o.Value == b.Value
}
func (b *Bool) GetAttr(name string) (Object, error) { return b.Base.GetAttr(b, name) }
func (b *Bool) GetItem(key Object) (Object, error)  { return b.Base.GetItem(b, key) }
func (b *Bool) Negate() (Object, error)             { return b.Base.Negate(b) }
func (b *Bool) Not() Object                         { return BoolOf(!b.Value) }
func (b *Bool) LessThan(o Object) (bool, error)     { return b.Base.LessThan(b, o) }
func (b *Bool) GreaterThan(o Object) (bool, error)  { return b.Base.GreaterThan(b, o) }
func (b *Bool) Add(o Object) (Object, error)        { return b.Base.Add(b, o) }
func (b *Bool) Sub(o Object) (Object, error)        { return b.Base.Sub(b, o) }
func (b *Bool) Mul(o Object) (Object, error)        { return b.Base.Mul(b, o) }
func (b *Bool) Div(o Object) (Object, error)        { return b.Base.Div(b, o) }
func (b *Bool) FloorDiv(o Object) (Object, error)   { return b.Base.FloorDiv(b, o) }
func (b *Bool) Modulo(o Object) (Object, error)     { return b.Base.Modulo(b, o) }
func (b *Bool) Pow(o Object) (Object, error)        { return b.Base.Pow(b, o) }
func (b *Bool) And(o Object) (Object, error)        { return b.Base.And(b, o) }
func (b *Bool) Or(o Object) (Object, error)         { return b.Base.Or(b, o) }
func (b *Bool) Call(args []Object) (Object, error)  { return b.Base.Call(b, args) }

// ---- Always --------------------------------------------------------------

// Always is the `@` sentinel, which compares equal to every other object.
// There is exactly one instance: [AlwaysObj].
type Always struct{ Base }

var AlwaysObj = &Always{Base: NewBase()}

func (*Always) Type() Type          { return ALWAYS_OBJ }
func (*Always) Inspect() string     { return "@" }
func (*Always) IsEqual(Object) bool { return true }
func (a *Always) GetAttr(name string) (Object, error) { return a.Base.GetAttr(a, name) }
func (a *Always) GetItem(key Object) (Object, error)  { return a.Base.GetItem(a, key) }
func (a *Always) Negate() (Object, error)             { return a.Base.Negate(a) }
func (a *Always) Not() Object                         { return a.Base.Not(a) }
func (a *Always) LessThan(o Object) (bool, error)      { return a.Base.LessThan(a, o) }
func (a *Always) GreaterThan(o Object) (bool, error)   { return a.Base.GreaterThan(a, o) }
func (a *Always) Add(o Object) (Object, error)         { return a.Base.Add(a, o) }
func (a *Always) Sub(o Object) (Object, error)         { return a.Base.Sub(a, o) }
func (a *Always) Mul(o Object) (Object, error)         { return a.Base.Mul(a, o) }
func (a *Always) Div(o Object) (Object, error)         { return a.Base.Div(a, o) }
func (a *Always) FloorDiv(o Object) (Object, error)    { return a.Base.FloorDiv(a, o) }
func (a *Always) Modulo(o Object) (Object, error)      { return a.Base.Modulo(a, o) }
func (a *Always) Pow(o Object) (Object, error)         { return a.Base.Pow(a, o) }
func (a *Always) And(o Object) (Object, error)         { return a.Base.And(a, o) }
func (a *Always) Or(o Object) (Object, error)          { return a.Base.Or(a, o) }
func (a *Always) Call(args []Object) (Object, error)   { return a.Base.Call(a, args) }

// ---- Int -----------------------------------------------------------------

// Int is FeInt's integer value, backed by int64.
type Int struct {
	Base
	Value int64
}

// internedInts holds the shared instances for the interned range [0, 256],
// allocated once at package init and returned by NewInt instead of a fresh
// object whenever Value falls in range.
var internedInts [257]*Int

func init() {
	for i := range internedInts {
		internedInts[i] = &Int{Base: NewBase(), Value: int64(i)}
	}
}

// NewInt returns the object for value, reusing the interned singleton for
// 0-256.
func NewInt(value int64) *Int {
	if value >= 0 && value <= 256 {
		return internedInts[value]
	}
	return &Int{Base: NewBase(), Value: value}
}

func (*Int) Type() Type      { return INT_OBJ }
func (i *Int) Inspect() string { return strconv.FormatInt(i.Value, 10) }
func (i *Int) BoolVal() bool   { return i.Value != 0 }
func (i *Int) IsEqual(other Object) bool {
	switch o := other.(type) {
	case *Int:
		return o.Value == i.Value
	case *Float:
		return o.Value == float64(i.Value)
	}
	return false
}
func (i *Int) GetAttr(name string) (Object, error) { return i.Base.GetAttr(i, name) }
func (i *Int) GetItem(key Object) (Object, error)  { return i.Base.GetItem(i, key) }
func (i *Int) Negate() (Object, error)             { return NewInt(-i.Value), nil }
func (i *Int) Not() Object                         { return i.Base.Not(i) }

func (i *Int) LessThan(other Object) (bool, error) {
	switch o := other.(type) {
	case *Int:
		return i.Value < o.Value, nil
	case *Float:
		return float64(i.Value) < o.Value, nil
	}
	return false, &OpError{Op: "<", Type: i.Type(), With: other.Type()}
}

func (i *Int) GreaterThan(other Object) (bool, error) {
	switch o := other.(type) {
	case *Int:
		return i.Value > o.Value, nil
	case *Float:
		return float64(i.Value) > o.Value, nil
	}
	return false, &OpError{Op: ">", Type: i.Type(), With: other.Type()}
}

func (i *Int) Add(other Object) (Object, error) {
	switch o := other.(type) {
	case *Int:
		return NewInt(i.Value + o.Value), nil
	case *Float:
		return &Float{Base: NewBase(), Value: float64(i.Value) + o.Value}, nil
	}
	return nil, &OpError{Op: "+", Type: i.Type(), With: other.Type()}
}

func (i *Int) Sub(other Object) (Object, error) {
	switch o := other.(type) {
	case *Int:
		return NewInt(i.Value - o.Value), nil
	case *Float:
		return &Float{Base: NewBase(), Value: float64(i.Value) - o.Value}, nil
	}
	return nil, &OpError{Op: "-", Type: i.Type(), With: other.Type()}
}

func (i *Int) Mul(other Object) (Object, error) {
	switch o := other.(type) {
	case *Int:
		return NewInt(i.Value * o.Value), nil
	case *Float:
		return &Float{Base: NewBase(), Value: float64(i.Value) * o.Value}, nil
	case *Str:
		return repeatStr(o.Value, i.Value), nil
	}
	return nil, &OpError{Op: "*", Type: i.Type(), With: other.Type()}
}

func (i *Int) Div(other Object) (Object, error) {
	switch o := other.(type) {
	case *Int:
		if o.Value == 0 {
			return nil, &OpError{Op: "/ (division by zero)", Type: i.Type(), With: other.Type()}
		}
		return &Float{Base: NewBase(), Value: float64(i.Value) / float64(o.Value)}, nil
	case *Float:
		return &Float{Base: NewBase(), Value: float64(i.Value) / o.Value}, nil
	}
	return nil, &OpError{Op: "/", Type: i.Type(), With: other.Type()}
}

func (i *Int) FloorDiv(other Object) (Object, error) {
	o, ok := other.(*Int)
	if !ok {
		return nil, &OpError{Op: "//", Type: i.Type(), With: other.Type()}
	}
	if o.Value == 0 {
		return nil, &OpError{Op: "// (division by zero)", Type: i.Type(), With: other.Type()}
	}
	q := i.Value / o.Value
	if (i.Value%o.Value != 0) && ((i.Value < 0) != (o.Value < 0)) {
		q--
	}
	return NewInt(q), nil
}

func (i *Int) Modulo(other Object) (Object, error) {
	o, ok := other.(*Int)
	if !ok {
		return nil, &OpError{Op: "%", Type: i.Type(), With: other.Type()}
	}
	if o.Value == 0 {
		return nil, &OpError{Op: "% (division by zero)", Type: i.Type(), With: other.Type()}
	}
	m := i.Value % o.Value
	if m != 0 && ((m < 0) != (o.Value < 0)) {
		m += o.Value
	}
	return NewInt(m), nil
}

func (i *Int) Pow(other Object) (Object, error) {
	switch o := other.(type) {
	case *Int:
		if o.Value < 0 {
			return &Float{Base: NewBase(), Value: math.Pow(float64(i.Value), float64(o.Value))}, nil
		}
		return NewInt(intPow(i.Value, o.Value)), nil
	case *Float:
		return &Float{Base: NewBase(), Value: math.Pow(float64(i.Value), o.Value)}, nil
	}
	return nil, &OpError{Op: "^", Type: i.Type(), With: other.Type()}
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func (i *Int) And(o Object) (Object, error) { return i.Base.And(i, o) }
func (i *Int) Or(o Object) (Object, error)  { return i.Base.Or(i, o) }
func (i *Int) Call(args []Object) (Object, error) { return i.Base.Call(i, args) }

// ---- Float -----------------------------------------------------------

// Float is FeInt's floating-point value, backed by float64.
type Float struct {
	Base
	Value float64
}

func (*Float) Type() Type      { return FLOAT_OBJ }
func (f *Float) Inspect() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }
func (f *Float) BoolVal() bool   { return f.Value != 0 }
func (f *Float) IsEqual(other Object) bool {
	switch o := other.(type) {
	case *Float:
		return o.Value == f.Value
	case *Int:
		return float64(o.Value) == f.Value
	}
	return false
}
func (f *Float) GetAttr(name string) (Object, error) { return f.Base.GetAttr(f, name) }
func (f *Float) GetItem(key Object) (Object, error)  { return f.Base.GetItem(f, key) }
func (f *Float) Negate() (Object, error)              { return &Float{Base: NewBase(), Value: -f.Value}, nil }
func (f *Float) Not() Object                          { return f.Base.Not(f) }

func (f *Float) LessThan(other Object) (bool, error) {
	switch o := other.(type) {
	case *Float:
		return f.Value < o.Value, nil
	case *Int:
		return f.Value < float64(o.Value), nil
	}
	return false, &OpError{Op: "<", Type: f.Type(), With: other.Type()}
}

func (f *Float) GreaterThan(other Object) (bool, error) {
	switch o := other.(type) {
	case *Float:
		return f.Value > o.Value, nil
	case *Int:
		return f.Value > float64(o.Value), nil
	}
	return false, &OpError{Op: ">", Type: f.Type(), With: other.Type()}
}

func (f *Float) Add(other Object) (Object, error) {
	switch o := other.(type) {
	case *Float:
		return &Float{Base: NewBase(), Value: f.Value + o.Value}, nil
	case *Int:
		return &Float{Base: NewBase(), Value: f.Value + float64(o.Value)}, nil
	}
	return nil, &OpError{Op: "+", Type: f.Type(), With: other.Type()}
}

func (f *Float) Sub(other Object) (Object, error) {
	switch o := other.(type) {
	case *Float:
		return &Float{Base: NewBase(), Value: f.Value - o.Value}, nil
	case *Int:
		return &Float{Base: NewBase(), Value: f.Value - float64(o.Value)}, nil
	}
	return nil, &OpError{Op: "-", Type: f.Type(), With: other.Type()}
}

func (f *Float) Mul(other Object) (Object, error) {
	switch o := other.(type) {
	case *Float:
		return &Float{Base: NewBase(), Value: f.Value * o.Value}, nil
	case *Int:
		return &Float{Base: NewBase(), Value: f.Value * float64(o.Value)}, nil
	}
	return nil, &OpError{Op: "*", Type: f.Type(), With: other.Type()}
}

func (f *Float) Div(other Object) (Object, error) {
	var d float64
	switch o := other.(type) {
	case *Float:
		d = o.Value
	case *Int:
		d = float64(o.Value)
	default:
		return nil, &OpError{Op: "/", Type: f.Type(), With: other.Type()}
	}
	if d == 0 {
		return nil, &OpError{Op: "/ (division by zero)", Type: f.Type(), With: other.Type()}
	}
	return &Float{Base: NewBase(), Value: f.Value / d}, nil
}

func (f *Float) FloorDiv(other Object) (Object, error) {
	v, err := f.Div(other)
	if err != nil {
		return nil, err
	}
	return &Float{Base: NewBase(), Value: math.Floor(v.(*Float).Value)}, nil
}

func (f *Float) Modulo(other Object) (Object, error) {
	var d float64
	switch o := other.(type) {
	case *Float:
		d = o.Value
	case *Int:
		d = float64(o.Value)
	default:
		return nil, &OpError{Op: "%", Type: f.Type(), With: other.Type()}
	}
	return &Float{Base: NewBase(), Value: math.Mod(f.Value, d)}, nil
}

func (f *Float) Pow(other Object) (Object, error) {
	switch o := other.(type) {
	case *Float:
		return &Float{Base: NewBase(), Value: math.Pow(f.Value, o.Value)}, nil
	case *Int:
		return &Float{Base: NewBase(), Value: math.Pow(f.Value, float64(o.Value))}, nil
	}
	return nil, &OpError{Op: "^", Type: f.Type(), With: other.Type()}
}

func (f *Float) And(o Object) (Object, error) { return f.Base.And(f, o) }
func (f *Float) Or(o Object) (Object, error)  { return f.Base.Or(f, o) }
func (f *Float) Call(args []Object) (Object, error) { return f.Base.Call(f, args) }
