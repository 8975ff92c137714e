package object

import "strings"

// Str is FeInt's string value.
type Str struct {
	Base
	Value string
}

// EmptyStr is the interned empty string singleton.
var EmptyStr = &Str{Base: NewBase(), Value: ""}

// NewStr returns the object for value, reusing [EmptyStr] when value is "".
func NewStr(value string) *Str {
	if value == "" {
		return EmptyStr
	}
	return &Str{Base: NewBase(), Value: value}
}

func repeatStr(s string, n int64) *Str {
	if n <= 0 {
		return EmptyStr
	}
	return NewStr(strings.Repeat(s, int(n)))
}

func (*Str) Type() Type      { return STR_OBJ }
func (s *Str) Inspect() string { return `"` + s.Value + `"` }
func (s *Str) BoolVal() bool   { return s.Value != "" }
func (s *Str) IsEqual(other Object) bool {
	o, ok := other.(*Str)
	return ok && o.Value == s.Value
}

func (s *Str) GetAttr(name string) (Object, error) {
	switch name {
	case "length":
		return NewInt(int64(len([]rune(s.Value)))), nil
	}
	return s.Base.GetAttr(s, name)
}

func (s *Str) GetItem(key Object) (Object, error) {
	idx, ok := key.(*Int)
	if !ok {
		return nil, &OpError{Op: "get_item", Type: s.Type(), With: key.Type()}
	}
	runes := []rune(s.Value)
	i := idx.Value
	if i < 0 {
		i += int64(len(runes))
	}
	if i < 0 || i >= int64(len(runes)) {
		return nil, &OpError{Op: "get_item (index out of range)", Type: s.Type()}
	}
	return NewStr(string(runes[i])), nil
}

func (s *Str) Negate() (Object, error) { return s.Base.Negate(s) }
func (s *Str) Not() Object             { return s.Base.Not(s) }

func (s *Str) LessThan(other Object) (bool, error) {
	o, ok := other.(*Str)
	if !ok {
		return false, &OpError{Op: "<", Type: s.Type(), With: other.Type()}
	}
	return s.Value < o.Value, nil
}

func (s *Str) GreaterThan(other Object) (bool, error) {
	o, ok := other.(*Str)
	if !ok {
		return false, &OpError{Op: ">", Type: s.Type(), With: other.Type()}
	}
	return s.Value > o.Value, nil
}

func (s *Str) Add(other Object) (Object, error) {
	o, ok := other.(*Str)
	if !ok {
		return nil, &OpError{Op: "+", Type: s.Type(), With: other.Type()}
	}
	return NewStr(s.Value + o.Value), nil
}

func (s *Str) Sub(o Object) (Object, error) { return s.Base.Sub(s, o) }

func (s *Str) Mul(other Object) (Object, error) {
	n, ok := other.(*Int)
	if !ok {
		return nil, &OpError{Op: "*", Type: s.Type(), With: other.Type()}
	}
	return repeatStr(s.Value, n.Value), nil
}

func (s *Str) Div(o Object) (Object, error)      { return s.Base.Div(s, o) }
func (s *Str) FloorDiv(o Object) (Object, error) { return s.Base.FloorDiv(s, o) }
func (s *Str) Modulo(o Object) (Object, error)   { return s.Base.Modulo(s, o) }
func (s *Str) Pow(o Object) (Object, error)      { return s.Base.Pow(s, o) }
func (s *Str) And(o Object) (Object, error)      { return s.Base.And(s, o) }
func (s *Str) Or(o Object) (Object, error)       { return s.Base.Or(s, o) }
func (s *Str) Call(args []Object) (Object, error) { return s.Base.Call(s, args) }
