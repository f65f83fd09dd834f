package vm

import (
	"fmt"

	"github.com/funvibe/jmeta/internal/typesystem"
)

// Heap allocates guest objects and gives typed access to their fields.
//
// Field storage is not synchronized: concurrent writers to the same object
// must coordinate on their own.
type Heap struct{}

// NewHeap returns an allocator.
func NewHeap() *Heap { return &Heap{} }

// NewObject allocates a zero-initialized instance of k.
func (h *Heap) NewObject(k *Klass) *Object {
	if k.IsArray() || k.IsPrimitive() {
		panic(fmt.Sprintf("vm: NewObject of %s", k))
	}
	fields := make([]any, len(k.layout))
	for i, kind := range k.layout {
		fields[i] = zeroSlot(kind)
	}
	return &Object{klass: k, fields: fields, id: newObjectID()}
}

// NewArray allocates an array of n elements of type component. Primitive
// components produce a host slice, reference components an *Object whose
// elements are all Null.
func (h *Heap) NewArray(component *Klass, n int) any {
	if n < 0 {
		panic(fmt.Sprintf("vm: negative array length %d", n))
	}
	if component.kind == typesystem.Void {
		panic("vm: array of void")
	}
	if component.IsPrimitive() {
		return NewPrimitiveArray(component.kind, n)
	}
	elems := make([]any, n)
	for i := range elems {
		elems[i] = Null
	}
	return &Object{klass: component.ArrayClass(), elems: elems, id: newObjectID()}
}

// ArrayLength returns the length of a guest array of any kind.
func (h *Heap) ArrayLength(array any) int {
	switch a := array.(type) {
	case *Object:
		if !a.IsArray() {
			panic(fmt.Sprintf("vm: %s is not an array", a))
		}
		return len(a.elems)
	case []bool:
		return len(a)
	case []int8:
		return len(a)
	case []int16:
		return len(a)
	case []uint16:
		return len(a)
	case []int32:
		return len(a)
	case []float32:
		return len(a)
	case []int64:
		return len(a)
	case []float64:
		return len(a)
	}
	panic(fmt.Sprintf("vm: %s is not an array", describe(array)))
}

// LoadElement reads element i of a guest array.
func (h *Heap) LoadElement(array any, i int) any {
	switch a := array.(type) {
	case *Object:
		return a.elems[i]
	case []bool:
		return a[i]
	case []int8:
		return a[i]
	case []int16:
		return a[i]
	case []uint16:
		return a[i]
	case []int32:
		return a[i]
	case []float32:
		return a[i]
	case []int64:
		return a[i]
	case []float64:
		return a[i]
	}
	panic(fmt.Sprintf("vm: %s is not an array", describe(array)))
}

// StoreElement writes element i of a guest array. The value must already
// have the element representation: a reference for reference arrays, the
// boxed kind for primitive arrays.
func (h *Heap) StoreElement(array any, i int, v any) {
	var ok bool
	switch a := array.(type) {
	case *Object:
		if ok = IsReference(v); ok {
			a.elems[i] = v
		}
	case []bool:
		ok = store(a, i, v)
	case []int8:
		ok = store(a, i, v)
	case []int16:
		ok = store(a, i, v)
	case []uint16:
		ok = store(a, i, v)
	case []int32:
		ok = store(a, i, v)
	case []float32:
		ok = store(a, i, v)
	case []int64:
		ok = store(a, i, v)
	case []float64:
		ok = store(a, i, v)
	default:
		panic(fmt.Sprintf("vm: %s is not an array", describe(array)))
	}
	if !ok {
		panic(fmt.Sprintf("vm: cannot store %s into %s", describe(v), describe(array)))
	}
}

func store[T any](a []T, i int, v any) bool {
	x, ok := v.(T)
	if ok {
		a[i] = x
	}
	return ok
}

// slot returns the storage holding field f of obj.
func (h *Heap) slot(obj *Object, f *FieldInfo, kind typesystem.Kind) *any {
	if f.kind != kind {
		panic(fmt.Sprintf("vm: field %s has kind %s, accessed as %s", f, f.kind, kind))
	}
	if obj == nil || obj == Null || obj == Void {
		panic(fmt.Sprintf("vm: field %s accessed on %v", f, obj))
	}
	if f.IsStatic() {
		if obj != f.declaring.statics {
			panic(fmt.Sprintf("vm: static field %s accessed on %s", f, obj))
		}
	} else if obj.static || !obj.klass.IsSubclassOf(f.declaring) {
		panic(fmt.Sprintf("vm: field %s accessed on %s", f, obj))
	}
	return &obj.fields[f.slot]
}

func (h *Heap) GetFieldBoolean(obj *Object, f *FieldInfo) bool {
	return (*h.slot(obj, f, typesystem.Boolean)).(bool)
}

func (h *Heap) GetFieldByte(obj *Object, f *FieldInfo) int8 {
	return (*h.slot(obj, f, typesystem.Byte)).(int8)
}

func (h *Heap) GetFieldChar(obj *Object, f *FieldInfo) uint16 {
	return (*h.slot(obj, f, typesystem.Char)).(uint16)
}

func (h *Heap) GetFieldShort(obj *Object, f *FieldInfo) int16 {
	return (*h.slot(obj, f, typesystem.Short)).(int16)
}

func (h *Heap) GetFieldInt(obj *Object, f *FieldInfo) int32 {
	return (*h.slot(obj, f, typesystem.Int)).(int32)
}

func (h *Heap) GetFieldFloat(obj *Object, f *FieldInfo) float32 {
	return (*h.slot(obj, f, typesystem.Float)).(float32)
}

func (h *Heap) GetFieldLong(obj *Object, f *FieldInfo) int64 {
	return (*h.slot(obj, f, typesystem.Long)).(int64)
}

func (h *Heap) GetFieldDouble(obj *Object, f *FieldInfo) float64 {
	return (*h.slot(obj, f, typesystem.Double)).(float64)
}

// GetFieldObject returns an *Object or a primitive array slice.
func (h *Heap) GetFieldObject(obj *Object, f *FieldInfo) any {
	return *h.slot(obj, f, typesystem.Object)
}

func (h *Heap) SetFieldBoolean(obj *Object, f *FieldInfo, v bool) {
	*h.slot(obj, f, typesystem.Boolean) = v
}

func (h *Heap) SetFieldByte(obj *Object, f *FieldInfo, v int8) {
	*h.slot(obj, f, typesystem.Byte) = v
}

func (h *Heap) SetFieldChar(obj *Object, f *FieldInfo, v uint16) {
	*h.slot(obj, f, typesystem.Char) = v
}

func (h *Heap) SetFieldShort(obj *Object, f *FieldInfo, v int16) {
	*h.slot(obj, f, typesystem.Short) = v
}

func (h *Heap) SetFieldInt(obj *Object, f *FieldInfo, v int32) {
	*h.slot(obj, f, typesystem.Int) = v
}

func (h *Heap) SetFieldFloat(obj *Object, f *FieldInfo, v float32) {
	*h.slot(obj, f, typesystem.Float) = v
}

func (h *Heap) SetFieldLong(obj *Object, f *FieldInfo, v int64) {
	*h.slot(obj, f, typesystem.Long) = v
}

func (h *Heap) SetFieldDouble(obj *Object, f *FieldInfo, v float64) {
	*h.slot(obj, f, typesystem.Double) = v
}

// SetFieldObject stores a reference: an *Object (possibly Null) or a
// primitive array slice.
func (h *Heap) SetFieldObject(obj *Object, f *FieldInfo, v any) {
	if !IsReference(v) || v == Void {
		panic(fmt.Sprintf("vm: cannot store %s into reference field %s", describe(v), f))
	}
	*h.slot(obj, f, typesystem.Object) = v
}
