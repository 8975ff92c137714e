package object

import "fmt"

// ---- Type ----------------------------------------------------------------

// TypeObj is a first-class reference to a FeInt type, reached via a
// TYPE_IDENT expression (e.g. `Int`, `Err`). Its Methods map backs
// `TypeIdent.new(...)` construction and any other type-level attribute
// access; builtin types populate it at startup (see builtins package).
type TypeObj struct {
	Base
	Name    string
	Methods map[string]Object
}

// NewTypeObj creates a named type descriptor.
func NewTypeObj(name string) *TypeObj {
	return &TypeObj{Base: NewBase(), Name: name, Methods: map[string]Object{}}
}

func (*TypeObj) Type() Type      { return TYPE_OBJ }
func (t *TypeObj) Inspect() string { return t.Name }
func (t *TypeObj) IsEqual(o Object) bool {
	ot, ok := o.(*TypeObj)
	return ok && ot.Name == t.Name
}
func (t *TypeObj) Attrs() map[string]Object { return t.Methods }
func (t *TypeObj) GetAttr(name string) (Object, error) {
	if name == "name" {
		return NewStr(t.Name), nil
	}
	if m, ok := t.Methods[name]; ok {
		return m, nil
	}
	return nil, &OpError{Op: "get_attr:" + name, Type: t.Type()}
}
func (t *TypeObj) GetItem(key Object) (Object, error)  { return t.Base.GetItem(t, key) }
func (t *TypeObj) Negate() (Object, error)              { return t.Base.Negate(t) }
func (t *TypeObj) Not() Object                          { return t.Base.Not(t) }
func (t *TypeObj) LessThan(o Object) (bool, error)       { return t.Base.LessThan(t, o) }
func (t *TypeObj) GreaterThan(o Object) (bool, error)    { return t.Base.GreaterThan(t, o) }
func (t *TypeObj) Add(o Object) (Object, error)          { return t.Base.Add(t, o) }
func (t *TypeObj) Sub(o Object) (Object, error)          { return t.Base.Sub(t, o) }
func (t *TypeObj) Mul(o Object) (Object, error)          { return t.Base.Mul(t, o) }
func (t *TypeObj) Div(o Object) (Object, error)          { return t.Base.Div(t, o) }
func (t *TypeObj) FloorDiv(o Object) (Object, error)     { return t.Base.FloorDiv(t, o) }
func (t *TypeObj) Modulo(o Object) (Object, error)       { return t.Base.Modulo(t, o) }
func (t *TypeObj) Pow(o Object) (Object, error)          { return t.Base.Pow(t, o) }
func (t *TypeObj) And(o Object) (Object, error)          { return t.Base.And(t, o) }
func (t *TypeObj) Or(o Object) (Object, error)           { return t.Base.Or(t, o) }
func (t *TypeObj) Call(args []Object) (Object, error)    { return t.Base.Call(t, args) }

// ---- Module --------------------------------------------------------------

// ModuleObj is a loaded FeInt module: its global namespace exposed as
// attributes. The VM's ModuleLoader (builtins.Registry) caches one
// instance per path, so repeated `import` statements for the same path
// return the same object.
type ModuleObj struct {
	Base
	Path    string
	Globals map[string]Object
}

// NewModuleObj creates an (initially empty) module namespace for path.
func NewModuleObj(path string) *ModuleObj {
	return &ModuleObj{Base: NewBase(), Path: path, Globals: map[string]Object{}}
}

func (*ModuleObj) Type() Type      { return MODULE_OBJ }
func (m *ModuleObj) Inspect() string { return fmt.Sprintf("Module(%s)", m.Path) }
func (m *ModuleObj) IsEqual(o Object) bool {
	om, ok := o.(*ModuleObj)
	return ok && om.Path == m.Path
}
func (m *ModuleObj) Attrs() map[string]Object { return m.Globals }
func (m *ModuleObj) GetAttr(name string) (Object, error) {
	if v, ok := m.Globals[name]; ok {
		return v, nil
	}
	return nil, &OpError{Op: "get_attr:" + name, Type: m.Type()}
}
func (m *ModuleObj) GetItem(key Object) (Object, error)  { return m.Base.GetItem(m, key) }
func (m *ModuleObj) Negate() (Object, error)              { return m.Base.Negate(m) }
func (m *ModuleObj) Not() Object                          { return m.Base.Not(m) }
func (m *ModuleObj) LessThan(o Object) (bool, error)       { return m.Base.LessThan(m, o) }
func (m *ModuleObj) GreaterThan(o Object) (bool, error)    { return m.Base.GreaterThan(m, o) }
func (m *ModuleObj) Add(o Object) (Object, error)          { return m.Base.Add(m, o) }
func (m *ModuleObj) Sub(o Object) (Object, error)          { return m.Base.Sub(m, o) }
func (m *ModuleObj) Mul(o Object) (Object, error)          { return m.Base.Mul(m, o) }
func (m *ModuleObj) Div(o Object) (Object, error)          { return m.Base.Div(m, o) }
func (m *ModuleObj) FloorDiv(o Object) (Object, error)     { return m.Base.FloorDiv(m, o) }
func (m *ModuleObj) Modulo(o Object) (Object, error)       { return m.Base.Modulo(m, o) }
func (m *ModuleObj) Pow(o Object) (Object, error)          { return m.Base.Pow(m, o) }
func (m *ModuleObj) And(o Object) (Object, error)          { return m.Base.And(m, o) }
func (m *ModuleObj) Or(o Object) (Object, error)           { return m.Base.Or(m, o) }
func (m *ModuleObj) Call(args []Object) (Object, error)    { return m.Base.Call(m, args) }

// ---- Err -------------------------------------------------------------

// Err is FeInt's error value. Kind names the error's category (e.g.
// "type_error", "name_error", or a user-chosen string for user-constructed
// errors via `Err.new(kind, message)`). Internal is true for errors the
// VM/compiler raise itself (type mismatches, undefined names, division by
// zero); it is not part of the public object protocol surface and exists
// only so the runtime can distinguish "the VM raised this" from "user code
// constructed this" while both share the same Err type and Kind space
// (see SPEC_FULL.md's open-question decision on this ambiguity).
type Err struct {
	Base
	Kind     string
	Message  string
	Internal bool
}

// NewErr constructs a user-facing Err (Internal is always false for
// objects reachable from `Err.new`).
func NewErr(kind, message string) *Err {
	return &Err{Base: NewBase(), Kind: kind, Message: message}
}

// NewInternalErr constructs an Err raised by the VM or compiler itself.
func NewInternalErr(kind, message string) *Err {
	return &Err{Base: NewBase(), Kind: kind, Message: message, Internal: true}
}

func (*Err) Type() Type      { return ERR_OBJ }
func (e *Err) Inspect() string { return fmt.Sprintf("Err(%s: %s)", e.Kind, e.Message) }
func (e *Err) BoolVal() bool   { return false }
func (e *Err) IsEqual(o Object) bool {
	oe, ok := o.(*Err)
	return ok && oe.Kind == e.Kind && oe.Message == e.Message
}

func (e *Err) GetAttr(name string) (Object, error) {
	switch name {
	case "kind":
		return NewStr(e.Kind), nil
	case "message":
		return NewStr(e.Message), nil
	case "type":
		// A small type-like object tagging this error's kind, grounded
		// on feint-builtins/src/types/err_type.rs's ErrTypeObj: its
		// .name is the same kind string a user-constructed Err.new(kind,
		// ...) of the same kind would carry. Not constructible itself -
		// it has no "new" method.
		return NewTypeObj(e.Kind), nil
	}
	return e.Base.GetAttr(e, name)
}

func (e *Err) GetItem(key Object) (Object, error)  { return e.Base.GetItem(e, key) }
func (e *Err) Negate() (Object, error)              { return e.Base.Negate(e) }
func (e *Err) Not() Object                          { return e.Base.Not(e) }
func (e *Err) LessThan(o Object) (bool, error)       { return e.Base.LessThan(e, o) }
func (e *Err) GreaterThan(o Object) (bool, error)    { return e.Base.GreaterThan(e, o) }
func (e *Err) Add(o Object) (Object, error)          { return e.Base.Add(e, o) }
func (e *Err) Sub(o Object) (Object, error)          { return e.Base.Sub(e, o) }
func (e *Err) Mul(o Object) (Object, error)          { return e.Base.Mul(e, o) }
func (e *Err) Div(o Object) (Object, error)          { return e.Base.Div(e, o) }
func (e *Err) FloorDiv(o Object) (Object, error)     { return e.Base.FloorDiv(e, o) }
func (e *Err) Modulo(o Object) (Object, error)       { return e.Base.Modulo(e, o) }
func (e *Err) Pow(o Object) (Object, error)          { return e.Base.Pow(e, o) }
func (e *Err) And(o Object) (Object, error)          { return e.Base.And(e, o) }
func (e *Err) Or(o Object) (Object, error)           { return e.Base.Or(e, o) }
func (e *Err) Call(args []Object) (Object, error)    { return e.Base.Call(e, args) }
