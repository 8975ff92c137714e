package object

import "strings"

// ---- Tuple -----------------------------------------------------------

// Tuple is FeInt's immutable fixed-size sequence.
type Tuple struct {
	Base
	Elements []Object
}

// EmptyTuple is the interned zero-length tuple singleton.
var EmptyTuple = &Tuple{Base: NewBase()}

// NewTuple returns the object for elements, reusing [EmptyTuple] when empty.
func NewTuple(elements []Object) *Tuple {
	if len(elements) == 0 {
		return EmptyTuple
	}
	return &Tuple{Base: NewBase(), Elements: elements}
}

func (*Tuple) Type() Type { return TUPLE_OBJ }
func (t *Tuple) Inspect() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.Inspect()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *Tuple) BoolVal() bool { return len(t.Elements) > 0 }
func (t *Tuple) IsEqual(other Object) bool {
	o, ok := other.(*Tuple)
	if !ok || len(o.Elements) != len(t.Elements) {
		return false
	}
	for i, e := range t.Elements {
		if !e.IsEqual(o.Elements[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) GetAttr(name string) (Object, error) {
	if name == "length" {
		return NewInt(int64(len(t.Elements))), nil
	}
	return t.Base.GetAttr(t, name)
}

func (t *Tuple) GetItem(key Object) (Object, error) {
	idx, ok := key.(*Int)
	if !ok {
		return nil, &OpError{Op: "get_item", Type: t.Type(), With: key.Type()}
	}
	i := idx.Value
	if i < 0 {
		i += int64(len(t.Elements))
	}
	if i < 0 || i >= int64(len(t.Elements)) {
		return nil, &OpError{Op: "get_item (index out of range)", Type: t.Type()}
	}
	return t.Elements[i], nil
}

func (t *Tuple) Negate() (Object, error)           { return t.Base.Negate(t) }
func (t *Tuple) Not() Object                       { return t.Base.Not(t) }
func (t *Tuple) LessThan(o Object) (bool, error)    { return t.Base.LessThan(t, o) }
func (t *Tuple) GreaterThan(o Object) (bool, error) { return t.Base.GreaterThan(t, o) }

func (t *Tuple) Add(other Object) (Object, error) {
	o, ok := other.(*Tuple)
	if !ok {
		return nil, &OpError{Op: "+", Type: t.Type(), With: other.Type()}
	}
	combined := make([]Object, 0, len(t.Elements)+len(o.Elements))
	combined = append(combined, t.Elements...)
	combined = append(combined, o.Elements...)
	return NewTuple(combined), nil
}

func (t *Tuple) Sub(o Object) (Object, error)      { return t.Base.Sub(t, o) }
func (t *Tuple) Mul(o Object) (Object, error)      { return t.Base.Mul(t, o) }
func (t *Tuple) Div(o Object) (Object, error)      { return t.Base.Div(t, o) }
func (t *Tuple) FloorDiv(o Object) (Object, error) { return t.Base.FloorDiv(t, o) }
func (t *Tuple) Modulo(o Object) (Object, error)   { return t.Base.Modulo(t, o) }
func (t *Tuple) Pow(o Object) (Object, error)      { return t.Base.Pow(t, o) }
func (t *Tuple) And(o Object) (Object, error)      { return t.Base.And(t, o) }
func (t *Tuple) Or(o Object) (Object, error)       { return t.Base.Or(t, o) }
func (t *Tuple) Call(args []Object) (Object, error) { return t.Base.Call(t, args) }

// ---- List --------------------------------------------------------------

// List is FeInt's mutable growable sequence. Element access is guarded by
// an embedded RWMutex so a List captured by a closure's Cell can be read
// and written from concurrently executing frames without racing (see the
// language's concurrency & resource model).
type List struct {
	Base
	rwAttrs
	Elements []Object
}

// NewList wraps elements as a List.
func NewList(elements []Object) *List {
	return &List{Base: NewBase(), Elements: elements}
}

func (*List) Type() Type { return LIST_OBJ }

func (l *List) Inspect() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) BoolVal() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.Elements) > 0
}

func (l *List) IsEqual(other Object) bool {
	o, ok := other.(*List)
	if !ok {
		return false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(o.Elements) != len(l.Elements) {
		return false
	}
	for i, e := range l.Elements {
		if !e.IsEqual(o.Elements[i]) {
			return false
		}
	}
	return true
}

func (l *List) GetAttr(name string) (Object, error) {
	if name == "length" {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return NewInt(int64(len(l.Elements))), nil
	}
	return l.Base.GetAttr(l, name)
}

func (l *List) GetItem(key Object) (Object, error) {
	idx, ok := key.(*Int)
	if !ok {
		return nil, &OpError{Op: "get_item", Type: l.Type(), With: key.Type()}
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := idx.Value
	if i < 0 {
		i += int64(len(l.Elements))
	}
	if i < 0 || i >= int64(len(l.Elements)) {
		return nil, &OpError{Op: "get_item (index out of range)", Type: l.Type()}
	}
	return l.Elements[i], nil
}

// SetItem replaces the element at index i (negative i counts from the
// end); an index out of range is an error and the list does not grow.
// No compiled form calls it: the language has no `items[i] = value`.
func (l *List) SetItem(i int64, value Object) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i < 0 {
		i += int64(len(l.Elements))
	}
	if i < 0 || i >= int64(len(l.Elements)) {
		return &OpError{Op: "set_item (index out of range)", Type: l.Type()}
	}
	l.Elements[i] = value
	return nil
}

// Push appends value. No builtin exposes it to FeInt code.
func (l *List) Push(value Object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Elements = append(l.Elements, value)
}

func (l *List) Negate() (Object, error)           { return l.Base.Negate(l) }
func (l *List) Not() Object                       { return l.Base.Not(l) }
func (l *List) LessThan(o Object) (bool, error)    { return l.Base.LessThan(l, o) }
func (l *List) GreaterThan(o Object) (bool, error) { return l.Base.GreaterThan(l, o) }

func (l *List) Add(other Object) (Object, error) {
	o, ok := other.(*List)
	if !ok {
		return nil, &OpError{Op: "+", Type: l.Type(), With: other.Type()}
	}
	l.mu.RLock()
	o.mu.RLock()
	combined := make([]Object, 0, len(l.Elements)+len(o.Elements))
	combined = append(combined, l.Elements...)
	combined = append(combined, o.Elements...)
	o.mu.RUnlock()
	l.mu.RUnlock()
	return NewList(combined), nil
}

func (l *List) Sub(o Object) (Object, error)      { return l.Base.Sub(l, o) }
func (l *List) Mul(o Object) (Object, error)      { return l.Base.Mul(l, o) }
func (l *List) Div(o Object) (Object, error)      { return l.Base.Div(l, o) }
func (l *List) FloorDiv(o Object) (Object, error) { return l.Base.FloorDiv(l, o) }
func (l *List) Modulo(o Object) (Object, error)   { return l.Base.Modulo(l, o) }
func (l *List) Pow(o Object) (Object, error)      { return l.Base.Pow(l, o) }
func (l *List) And(o Object) (Object, error)      { return l.Base.And(l, o) }
func (l *List) Or(o Object) (Object, error)       { return l.Base.Or(l, o) }
func (l *List) Call(args []Object) (Object, error) { return l.Base.Call(l, args) }

// ---- Map -----------------------------------------------------------------

// mapKey is the comparable key FeInt Map uses internally; only scalar
// object kinds (those with a natural Go-comparable value) are valid map
// keys, mirroring the restriction most dynamically-typed hash maps place
// on their keys.
type mapKey struct {
	typ Type
	str string
	i   int64
	f   float64
	b   bool
}

func keyFor(o Object) (mapKey, error) {
	switch v := o.(type) {
	case *Str:
		return mapKey{typ: STR_OBJ, str: v.Value}, nil
	case *Int:
		return mapKey{typ: INT_OBJ, i: v.Value}, nil
	case *Float:
		return mapKey{typ: FLOAT_OBJ, f: v.Value}, nil
	case *Bool:
		return mapKey{typ: BOOL_OBJ, b: v.Value}, nil
	case *Nil:
		return mapKey{typ: NIL_OBJ}, nil
	}
	return mapKey{}, &OpError{Op: "get_item (unhashable key)", Type: o.Type()}
}

// Map is FeInt's mutable associative collection, guarded the same way as
// [List].
type Map struct {
	Base
	rwAttrs
	keys   map[mapKey]Object
	values map[mapKey]Object
}

// NewMap builds an empty Map.
func NewMap() *Map {
	return &Map{Base: NewBase(), keys: map[mapKey]Object{}, values: map[mapKey]Object{}}
}

// NewMapFrom builds a Map from parallel key/value slices.
func NewMapFrom(keys, values []Object) (*Map, error) {
	m := NewMap()
	for i, k := range keys {
		if err := m.SetItem(k, values[i]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (*Map) Type() Type { return MAP_OBJ }

func (m *Map) Inspect() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	parts := make([]string, 0, len(m.keys))
	for mk, k := range m.keys {
		parts = append(parts, k.Inspect()+": "+m.values[mk].Inspect())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (m *Map) BoolVal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys) > 0
}

func (m *Map) IsEqual(other Object) bool {
	o, ok := other.(*Map)
	if !ok {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o.mu.RLock()
	defer o.mu.RUnlock()
	if len(m.keys) != len(o.keys) {
		return false
	}
	for mk, v := range m.values {
		ov, ok := o.values[mk]
		if !ok || !v.IsEqual(ov) {
			return false
		}
	}
	return true
}

func (m *Map) GetAttr(name string) (Object, error) {
	if name == "length" {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return NewInt(int64(len(m.keys))), nil
	}
	return m.Base.GetAttr(m, name)
}

func (m *Map) GetItem(key Object) (Object, error) {
	mk, err := keyFor(key)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[mk]
	if !ok {
		return nil, &OpError{Op: "get_item (key not found)", Type: m.Type()}
	}
	return v, nil
}

// SetItem stores value under key, used to build maps (NewMapFrom and the
// Map constructor); the language has no `map[key] = value` form.
func (m *Map) SetItem(key, value Object) error {
	mk, err := keyFor(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[mk] = key
	m.values[mk] = value
	return nil
}

func (m *Map) Negate() (Object, error)           { return m.Base.Negate(m) }
func (m *Map) Not() Object                       { return m.Base.Not(m) }
func (m *Map) LessThan(o Object) (bool, error)    { return m.Base.LessThan(m, o) }
func (m *Map) GreaterThan(o Object) (bool, error) { return m.Base.GreaterThan(m, o) }
func (m *Map) Add(o Object) (Object, error)       { return m.Base.Add(m, o) }
func (m *Map) Sub(o Object) (Object, error)       { return m.Base.Sub(m, o) }
func (m *Map) Mul(o Object) (Object, error)       { return m.Base.Mul(m, o) }
func (m *Map) Div(o Object) (Object, error)       { return m.Base.Div(m, o) }
func (m *Map) FloorDiv(o Object) (Object, error)  { return m.Base.FloorDiv(m, o) }
func (m *Map) Modulo(o Object) (Object, error)    { return m.Base.Modulo(m, o) }
func (m *Map) Pow(o Object) (Object, error)       { return m.Base.Pow(m, o) }
func (m *Map) And(o Object) (Object, error)       { return m.Base.And(m, o) }
func (m *Map) Or(o Object) (Object, error)        { return m.Base.Or(m, o) }
func (m *Map) Call(args []Object) (Object, error) { return m.Base.Call(m, args) }
