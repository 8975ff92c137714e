package object

import (
	"fmt"
	"sync"

	"github.com/dr8co/feint/code"
)

// ---- Cell ------------------------------------------------------------

// Cell is a mutable heap box for a captured variable: when a function
// literal closes over a name from an enclosing scope, both scopes share
// the same Cell, so a write by either is visible to the other. A RWMutex
// guards the boxed value, the same protection [List]/[Map] give their
// contents, since a Cell can be read and written from concurrently
// executing frames.
type Cell struct {
	Base
	mu    sync.RWMutex
	value Object
}

// NewCell boxes an initial value.
func NewCell(value Object) *Cell { return &Cell{Base: NewBase(), value: value} }

// Get returns the boxed value.
func (c *Cell) Get() Object {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the boxed value.
func (c *Cell) Set(value Object) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

func (*Cell) Type() Type          { return CELL_OBJ }
func (c *Cell) Inspect() string   { return "Cell(" + c.Get().Inspect() + ")" }
func (c *Cell) BoolVal() bool     { return c.Get().BoolVal() }
func (c *Cell) IsEqual(o Object) bool {
	oc, ok := o.(*Cell)
	return ok && oc.ID() == c.ID()
}
func (c *Cell) GetAttr(name string) (Object, error) { return c.Base.GetAttr(c, name) }
func (c *Cell) GetItem(key Object) (Object, error)  { return c.Base.GetItem(c, key) }
func (c *Cell) Negate() (Object, error)              { return c.Base.Negate(c) }
func (c *Cell) Not() Object                          { return c.Base.Not(c) }
func (c *Cell) LessThan(o Object) (bool, error)       { return c.Base.LessThan(c, o) }
func (c *Cell) GreaterThan(o Object) (bool, error)    { return c.Base.GreaterThan(c, o) }
func (c *Cell) Add(o Object) (Object, error)          { return c.Base.Add(c, o) }
func (c *Cell) Sub(o Object) (Object, error)          { return c.Base.Sub(c, o) }
func (c *Cell) Mul(o Object) (Object, error)          { return c.Base.Mul(c, o) }
func (c *Cell) Div(o Object) (Object, error)          { return c.Base.Div(c, o) }
func (c *Cell) FloorDiv(o Object) (Object, error)     { return c.Base.FloorDiv(c, o) }
func (c *Cell) Modulo(o Object) (Object, error)       { return c.Base.Modulo(c, o) }
func (c *Cell) Pow(o Object) (Object, error)          { return c.Base.Pow(c, o) }
func (c *Cell) And(o Object) (Object, error)          { return c.Base.And(c, o) }
func (c *Cell) Or(o Object) (Object, error)           { return c.Base.Or(c, o) }
func (c *Cell) Call(args []Object) (Object, error)    { return c.Base.Call(c, args) }

// ---- Func / Closure --------------------------------------------------

// Func is a compiled function value: a code [code.Unit] plus its
// parameter names (an empty trailing name denotes var-args, per the
// parser's convention).
//
// Actual invocation is not performed through [Object.Call]: the VM's call
// protocol dispatches on a type switch over the callable (Func, Closure,
// BoundMethod, *Intrinsic, *Type) so it can push a new frame, since
// calling requires VM state this package doesn't have. Func.Call and its
// siblings below therefore report the unsupported-operation default; see
// vm.callValue.
type Func struct {
	Base
	Name   string
	Params []string
	Unit   *code.Unit
}

func (*Func) Type() Type      { return FUNC_OBJ }
func (f *Func) Inspect() string { return fmt.Sprintf("Func(%s)", f.displayName()) }
func (f *Func) displayName() string {
	if f.Name != "" {
		return f.Name
	}
	return "<anonymous>"
}
func (f *Func) IsEqual(o Object) bool {
	of, ok := o.(*Func)
	return ok && of.ID() == f.ID()
}
func (f *Func) GetAttr(name string) (Object, error) { return f.Base.GetAttr(f, name) }
func (f *Func) GetItem(key Object) (Object, error)  { return f.Base.GetItem(f, key) }
func (f *Func) Negate() (Object, error)              { return f.Base.Negate(f) }
func (f *Func) Not() Object                          { return f.Base.Not(f) }
func (f *Func) LessThan(o Object) (bool, error)       { return f.Base.LessThan(f, o) }
func (f *Func) GreaterThan(o Object) (bool, error)    { return f.Base.GreaterThan(f, o) }
func (f *Func) Add(o Object) (Object, error)          { return f.Base.Add(f, o) }
func (f *Func) Sub(o Object) (Object, error)          { return f.Base.Sub(f, o) }
func (f *Func) Mul(o Object) (Object, error)          { return f.Base.Mul(f, o) }
func (f *Func) Div(o Object) (Object, error)          { return f.Base.Div(f, o) }
func (f *Func) FloorDiv(o Object) (Object, error)     { return f.Base.FloorDiv(f, o) }
func (f *Func) Modulo(o Object) (Object, error)       { return f.Base.Modulo(f, o) }
func (f *Func) Pow(o Object) (Object, error)          { return f.Base.Pow(f, o) }
func (f *Func) And(o Object) (Object, error)          { return f.Base.And(f, o) }
func (f *Func) Or(o Object) (Object, error)           { return f.Base.Or(f, o) }
func (f *Func) Call(args []Object) (Object, error)    { return f.Base.Call(f, args) }

// IsVarArgs reports whether Func's last parameter is the var-args marker
// (an empty name, per the parser).
func (f *Func) IsVarArgs() bool {
	return len(f.Params) > 0 && f.Params[len(f.Params)-1] == ""
}

// Closure pairs a Func with the cells it captured from its defining
// scope, in FreeVars order.
type Closure struct {
	Base
	Fn   *Func
	Free []*Cell
}

func (*Closure) Type() Type      { return CLOSURE_OBJ }
func (c *Closure) Inspect() string { return fmt.Sprintf("Closure(%s)", c.Fn.displayName()) }
func (c *Closure) IsEqual(o Object) bool {
	oc, ok := o.(*Closure)
	return ok && oc.ID() == c.ID()
}
func (c *Closure) GetAttr(name string) (Object, error) { return c.Base.GetAttr(c, name) }
func (c *Closure) GetItem(key Object) (Object, error)  { return c.Base.GetItem(c, key) }
func (c *Closure) Negate() (Object, error)              { return c.Base.Negate(c) }
func (c *Closure) Not() Object                          { return c.Base.Not(c) }
func (c *Closure) LessThan(o Object) (bool, error)       { return c.Base.LessThan(c, o) }
func (c *Closure) GreaterThan(o Object) (bool, error)    { return c.Base.GreaterThan(c, o) }
func (c *Closure) Add(o Object) (Object, error)          { return c.Base.Add(c, o) }
func (c *Closure) Sub(o Object) (Object, error)          { return c.Base.Sub(c, o) }
func (c *Closure) Mul(o Object) (Object, error)          { return c.Base.Mul(c, o) }
func (c *Closure) Div(o Object) (Object, error)          { return c.Base.Div(c, o) }
func (c *Closure) FloorDiv(o Object) (Object, error)     { return c.Base.FloorDiv(c, o) }
func (c *Closure) Modulo(o Object) (Object, error)       { return c.Base.Modulo(c, o) }
func (c *Closure) Pow(o Object) (Object, error)          { return c.Base.Pow(c, o) }
func (c *Closure) And(o Object) (Object, error)          { return c.Base.And(c, o) }
func (c *Closure) Or(o Object) (Object, error)           { return c.Base.Or(c, o) }
func (c *Closure) Call(args []Object) (Object, error)    { return c.Base.Call(c, args) }

// ---- BoundMethod -------------------------------------------------------

// BoundMethod pairs a receiver object with a method callable (a Func,
// Closure, or Intrinsic), produced by `receiver.method` attribute access
// when the attribute names a function defined on the receiver's Type.
type BoundMethod struct {
	Base
	Receiver Object
	Method   Object
}

func (*BoundMethod) Type() Type { return BOUND_METHOD_OBJ }
func (b *BoundMethod) Inspect() string {
	return fmt.Sprintf("BoundMethod(%s)", b.Method.Inspect())
}
func (b *BoundMethod) IsEqual(o Object) bool {
	ob, ok := o.(*BoundMethod)
	return ok && ob.ID() == b.ID()
}
func (b *BoundMethod) GetAttr(name string) (Object, error) { return b.Base.GetAttr(b, name) }
func (b *BoundMethod) GetItem(key Object) (Object, error)  { return b.Base.GetItem(b, key) }
func (b *BoundMethod) Negate() (Object, error)              { return b.Base.Negate(b) }
func (b *BoundMethod) Not() Object                          { return b.Base.Not(b) }
func (b *BoundMethod) LessThan(o Object) (bool, error)       { return b.Base.LessThan(b, o) }
func (b *BoundMethod) GreaterThan(o Object) (bool, error)    { return b.Base.GreaterThan(b, o) }
func (b *BoundMethod) Add(o Object) (Object, error)          { return b.Base.Add(b, o) }
func (b *BoundMethod) Sub(o Object) (Object, error)          { return b.Base.Sub(b, o) }
func (b *BoundMethod) Mul(o Object) (Object, error)          { return b.Base.Mul(b, o) }
func (b *BoundMethod) Div(o Object) (Object, error)          { return b.Base.Div(b, o) }
func (b *BoundMethod) FloorDiv(o Object) (Object, error)     { return b.Base.FloorDiv(b, o) }
func (b *BoundMethod) Modulo(o Object) (Object, error)       { return b.Base.Modulo(b, o) }
func (b *BoundMethod) Pow(o Object) (Object, error)          { return b.Base.Pow(b, o) }
func (b *BoundMethod) And(o Object) (Object, error)          { return b.Base.And(b, o) }
func (b *BoundMethod) Or(o Object) (Object, error)           { return b.Base.Or(b, o) }
func (b *BoundMethod) Call(args []Object) (Object, error)    { return b.Base.Call(b, args) }

// ---- Intrinsic ---------------------------------------------------------

// IntrinsicFunc is the signature of a native builtin function.
type IntrinsicFunc func(args []Object) (Object, error)

// Intrinsic wraps a native Go function as a callable FeInt object, used
// for builtins like `print`/`len`/type constructors. Unlike Func/Closure,
// Intrinsic genuinely can implement [Object.Call] itself, since it needs
// no VM frame.
type Intrinsic struct {
	Base
	Name string
	Fn   IntrinsicFunc
}

// NewIntrinsic wraps fn under name.
func NewIntrinsic(name string, fn IntrinsicFunc) *Intrinsic {
	return &Intrinsic{Base: NewBase(), Name: name, Fn: fn}
}

func (*Intrinsic) Type() Type      { return INTRINSIC_OBJ }
func (i *Intrinsic) Inspect() string { return fmt.Sprintf("Intrinsic(%s)", i.Name) }
func (i *Intrinsic) IsEqual(o Object) bool {
	oi, ok := o.(*Intrinsic)
	return ok && oi.ID() == i.ID()
}
func (i *Intrinsic) GetAttr(name string) (Object, error) { return i.Base.GetAttr(i, name) }
func (i *Intrinsic) GetItem(key Object) (Object, error)  { return i.Base.GetItem(i, key) }
func (i *Intrinsic) Negate() (Object, error)              { return i.Base.Negate(i) }
func (i *Intrinsic) Not() Object                          { return i.Base.Not(i) }
func (i *Intrinsic) LessThan(o Object) (bool, error)       { return i.Base.LessThan(i, o) }
func (i *Intrinsic) GreaterThan(o Object) (bool, error)    { return i.Base.GreaterThan(i, o) }
func (i *Intrinsic) Add(o Object) (Object, error)          { return i.Base.Add(i, o) }
func (i *Intrinsic) Sub(o Object) (Object, error)          { return i.Base.Sub(i, o) }
func (i *Intrinsic) Mul(o Object) (Object, error)          { return i.Base.Mul(i, o) }
func (i *Intrinsic) Div(o Object) (Object, error)          { return i.Base.Div(i, o) }
func (i *Intrinsic) FloorDiv(o Object) (Object, error)     { return i.Base.FloorDiv(i, o) }
func (i *Intrinsic) Modulo(o Object) (Object, error)       { return i.Base.Modulo(i, o) }
func (i *Intrinsic) Pow(o Object) (Object, error)          { return i.Base.Pow(i, o) }
func (i *Intrinsic) And(o Object) (Object, error)          { return i.Base.And(i, o) }
func (i *Intrinsic) Or(o Object) (Object, error)           { return i.Base.Or(i, o) }
func (i *Intrinsic) Call(args []Object) (Object, error)    { return i.Fn(args) }
