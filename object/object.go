// Package object defines the runtime object system for the FeInt
// scripting language.
//
// Every FeInt value at runtime implements [Object]. The interface mirrors
// the object protocol described by the language: identity, attribute and
// item access, truthiness, equality and ordering, arithmetic, logical
// combination, and calling. Concrete types embed [Base], which supplies
// an "unsupported operation" default for every protocol method, and
// override only the operations that make sense for them - the same
// embedding trick the teacher's CompiledFunction/Closure pair uses to
// share Type()/Inspect() scaffolding, generalized here to a much larger
// interface.
package object

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Type names every concrete object, used for error messages and the
// `type` builtin.
type Type string

//nolint:revive
const (
	NIL_OBJ           Type = "Nil"
	BOOL_OBJ          Type = "Bool"
	ALWAYS_OBJ        Type = "Always"
	INT_OBJ           Type = "Int"
	FLOAT_OBJ         Type = "Float"
	STR_OBJ           Type = "Str"
	TUPLE_OBJ         Type = "Tuple"
	LIST_OBJ          Type = "List"
	MAP_OBJ           Type = "Map"
	FUNC_OBJ          Type = "Func"
	CLOSURE_OBJ       Type = "Closure"
	CELL_OBJ          Type = "Cell"
	BOUND_METHOD_OBJ  Type = "BoundMethod"
	INTRINSIC_OBJ     Type = "Intrinsic"
	TYPE_OBJ          Type = "Type"
	MODULE_OBJ        Type = "Module"
	ERR_OBJ           Type = "Err"
)

var nextID uint64

// nextObjectID hands out process-unique identity values for ID(), the
// runtime's stand-in for pointer identity that stays stable under the
// interned singletons (multiple references to the same Int(5) all report
// the same ID).
func nextObjectID() uint64 { return atomic.AddUint64(&nextID, 1) }

// Object is the interface every FeInt runtime value implements.
type Object interface {
	// Type returns the object's runtime type name.
	Type() Type

	// ID returns the object's identity, used by `$$`/`$!` and by Cell
	// aliasing checks. Interned singletons share one ID across every
	// reference to them.
	ID() uint64

	// Inspect returns the object's debug/print representation.
	Inspect() string

	// Attrs returns the object's attribute map, or nil if it has none.
	Attrs() map[string]Object

	// GetAttr looks up a named attribute.
	GetAttr(name string) (Object, error)

	// GetItem indexes the object with key (list/tuple index, map key).
	GetItem(key Object) (Object, error)

	// BoolVal reports the object's truthiness.
	BoolVal() bool

	// IsEqual reports whether the object is value-equal to other.
	IsEqual(other Object) bool

	// LessThan reports whether the object orders before other.
	LessThan(other Object) (bool, error)

	// GreaterThan reports whether the object orders after other.
	GreaterThan(other Object) (bool, error)

	// Negate returns the arithmetic negation (unary `-`).
	Negate() (Object, error)

	// Not returns the logical complement (unary `!`).
	Not() Object

	// Add returns the result of binary `+`.
	Add(other Object) (Object, error)
	// Sub returns the result of binary `-`.
	Sub(other Object) (Object, error)
	// Mul returns the result of binary `*`.
	Mul(other Object) (Object, error)
	// Div returns the result of binary `/`.
	Div(other Object) (Object, error)
	// FloorDiv returns the result of binary `//`.
	FloorDiv(other Object) (Object, error)
	// Modulo returns the result of binary `%`.
	Modulo(other Object) (Object, error)
	// Pow returns the result of binary `^`.
	Pow(other Object) (Object, error)

	// And returns the result of non-short-circuiting logical `&&` at the
	// object-protocol level. The compiler lowers `&&` with conditional
	// jumps and does not emit the BinaryAnd operator that reaches this.
	And(other Object) (Object, error)
	// Or mirrors And for `||`.
	Or(other Object) (Object, error)

	// Call invokes the object with args, if it is callable.
	Call(args []Object) (Object, error)
}

// OpError is an unsupported-operation error raised by [Base]'s default
// method implementations.
type OpError struct {
	Op   string
	Type Type
	With Type // empty for unary operations
}

func (e *OpError) Error() string {
	if e.With == "" {
		return fmt.Sprintf("unsupported operation %q on %s", e.Op, e.Type)
	}
	return fmt.Sprintf("unsupported operation %q between %s and %s", e.Op, e.Type, e.With)
}

// Base implements every [Object] method with an "unsupported operation"
// default, so concrete types only need to override what they actually
// support. Each Base method takes the embedding object as its self
// argument, so error messages and IsEqual's default identity-comparison
// report the real type.
type Base struct {
	id uint64
}

// NewBase allocates a fresh object identity.
func NewBase() Base { return Base{id: nextObjectID()} }

func (b *Base) ID() uint64 { return b.id }

func (*Base) Attrs() map[string]Object { return nil }

func (b *Base) GetAttr(self Object, name string) (Object, error) {
	if attrs := self.Attrs(); attrs != nil {
		if v, ok := attrs[name]; ok {
			return v, nil
		}
	}
	return nil, &OpError{Op: "get_attr:" + name, Type: self.Type()}
}

func (b *Base) GetItem(self Object, _ Object) (Object, error) {
	return nil, &OpError{Op: "get_item", Type: self.Type()}
}

func (*Base) BoolVal() bool { return true }

func (b *Base) IsEqual(self, other Object) bool { return self == other }

func (b *Base) LessThan(self, other Object) (bool, error) {
	return false, &OpError{Op: "<", Type: self.Type(), With: other.Type()}
}

func (b *Base) GreaterThan(self, other Object) (bool, error) {
	return false, &OpError{Op: ">", Type: self.Type(), With: other.Type()}
}

func (b *Base) Negate(self Object) (Object, error) {
	return nil, &OpError{Op: "-", Type: self.Type()}
}

func (*Base) Not(self Object) Object {
	if self.BoolVal() {
		return False
	}
	return True
}

func (b *Base) Add(self, other Object) (Object, error) {
	return nil, &OpError{Op: "+", Type: self.Type(), With: other.Type()}
}
func (b *Base) Sub(self, other Object) (Object, error) {
	return nil, &OpError{Op: "-", Type: self.Type(), With: other.Type()}
}
func (b *Base) Mul(self, other Object) (Object, error) {
	return nil, &OpError{Op: "*", Type: self.Type(), With: other.Type()}
}
func (b *Base) Div(self, other Object) (Object, error) {
	return nil, &OpError{Op: "/", Type: self.Type(), With: other.Type()}
}
func (b *Base) FloorDiv(self, other Object) (Object, error) {
	return nil, &OpError{Op: "//", Type: self.Type(), With: other.Type()}
}
func (b *Base) Modulo(self, other Object) (Object, error) {
	return nil, &OpError{Op: "%", Type: self.Type(), With: other.Type()}
}
func (b *Base) Pow(self, other Object) (Object, error) {
	return nil, &OpError{Op: "^", Type: self.Type(), With: other.Type()}
}

func (*Base) And(self, other Object) (Object, error) {
	if !self.BoolVal() {
		return self, nil
	}
	return other, nil
}
func (*Base) Or(self, other Object) (Object, error) {
	if self.BoolVal() {
		return self, nil
	}
	return other, nil
}

func (b *Base) Call(self Object, _ []Object) (Object, error) {
	return nil, &OpError{Op: "call", Type: self.Type()}
}

// rwAttrs is embedded by aggregate types (List, Map) whose contents are
// mutable and may be shared across goroutines via a captured cell; it
// guards interior mutability the way the concurrency model requires
// (readers and writers of the same List/Map serialize through this lock
// rather than racing on the backing slice/map).
type rwAttrs struct {
	mu sync.RWMutex
}
