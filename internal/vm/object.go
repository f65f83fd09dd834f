package vm

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/funvibe/jmeta/internal/typesystem"
)

// Object is a handle to a value in the guest heap: a class instance, a
// reference array, or the static storage of a class.
//
// Primitive arrays are not Objects; they live in the guest world as plain
// host slices ([]int32, []uint16, ...).
type Object struct {
	klass  *Klass
	fields []any // instance or static field slots
	elems  []any // reference array elements
	static bool
	id     uint64
}

var (
	// Null is the guest null reference.
	Null = &Object{}
	// Void is the result of a void-returning call.
	Void = &Object{}
)

var nextObjectID atomic.Uint64

func newObjectID() uint64 {
	return nextObjectID.Add(1)
}

func (o *Object) Klass() *Klass { return o.klass }

// IsStatic reports whether o is the static storage of its class.
func (o *Object) IsStatic() bool { return o.static }

func (o *Object) IsArray() bool { return o.klass != nil && o.klass.IsArray() }

// Elements returns the backing slice of a reference array. The slice is
// shared with the heap.
func (o *Object) Elements() []any { return o.elems }

// Length returns the length of a reference array.
func (o *Object) Length() int { return len(o.elems) }

// IdentityHash is a stable per-object hash.
func (o *Object) IdentityHash() int32 {
	return int32(uint32(o.id) * 2654435761)
}

func (o *Object) String() string {
	switch o {
	case Null:
		return "null"
	case Void:
		return "void"
	}
	name := typesystem.InternalNameToJava(o.klass.Name(), true, true)
	if o.static {
		return fmt.Sprintf("<statics %s>", name)
	}
	return fmt.Sprintf("%s@%x", name, uint32(o.IdentityHash()))
}

// PrimitiveArrayKind classifies host slices that represent guest primitive
// arrays.
func PrimitiveArrayKind(v any) (typesystem.Kind, bool) {
	switch v.(type) {
	case []bool:
		return typesystem.Boolean, true
	case []int8:
		return typesystem.Byte, true
	case []int16:
		return typesystem.Short, true
	case []uint16:
		return typesystem.Char, true
	case []int32:
		return typesystem.Int, true
	case []float32:
		return typesystem.Float, true
	case []int64:
		return typesystem.Long, true
	case []float64:
		return typesystem.Double, true
	}
	return typesystem.Illegal, false
}

// NewPrimitiveArray allocates the host slice for a guest primitive array.
func NewPrimitiveArray(kind typesystem.Kind, n int) any {
	switch kind {
	case typesystem.Boolean:
		return make([]bool, n)
	case typesystem.Byte:
		return make([]int8, n)
	case typesystem.Short:
		return make([]int16, n)
	case typesystem.Char:
		return make([]uint16, n)
	case typesystem.Int:
		return make([]int32, n)
	case typesystem.Float:
		return make([]float32, n)
	case typesystem.Long:
		return make([]int64, n)
	case typesystem.Double:
		return make([]float64, n)
	}
	panic(fmt.Sprintf("no primitive array of kind %s", kind))
}

// IsReference reports whether v is a value of the guest world: an Object
// handle or a primitive array.
func IsReference(v any) bool {
	if o, ok := v.(*Object); ok {
		return o != nil
	}
	_, ok := PrimitiveArrayKind(v)
	return ok
}

func describe(v any) string {
	if o, ok := v.(*Object); ok && o != nil {
		return o.String()
	}
	if k, ok := PrimitiveArrayKind(v); ok {
		return k.String() + "[]"
	}
	return strings.TrimSpace(fmt.Sprintf("%T(%v)", v, v))
}
