package jmeta

import (
	"fmt"
	"math"
	"reflect"

	"github.com/funvibe/jmeta/internal/meta"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Marshaller converts general Go values to the guest shape a descriptor
// demands, and guest values back to Go.
//
// Guest-shaped primitives are stack values: boolean, byte, short, char and
// int travel as int32, the other kinds as their boxed type.
type Marshaller struct {
	meta   *meta.Meta
	loader *vm.Object
}

func NewMarshaller(m *meta.Meta, loader *vm.Object) *Marshaller {
	return &Marshaller{meta: m, loader: loader}
}

var objectType = reflect.TypeFor[*vm.Object]()

func conversionError(val any, desc string) error {
	return fmt.Errorf("%s: %w", typesystem.InternalNameToJava(desc, true, true),
		&meta.ConversionError{Value: val, Direction: "guest"})
}

// ToGuestStack converts val to the guest value of descriptor desc.
func (m *Marshaller) ToGuestStack(val any, desc string) (any, error) {
	kind := typesystem.KindFromDescriptor(desc)
	switch kind {
	case typesystem.Boolean:
		if b, ok := val.(bool); ok {
			if b {
				return int32(1), nil
			}
			return int32(0), nil
		}
	case typesystem.Byte:
		return m.integer(val, desc, math.MinInt8, math.MaxInt8)
	case typesystem.Short:
		return m.integer(val, desc, math.MinInt16, math.MaxInt16)
	case typesystem.Char:
		return m.integer(val, desc, 0, math.MaxUint16)
	case typesystem.Int:
		return m.integer(val, desc, math.MinInt32, math.MaxInt32)
	case typesystem.Long:
		v := reflect.ValueOf(val)
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return v.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if v.Uint() <= math.MaxInt64 {
				return int64(v.Uint()), nil
			}
		}
	case typesystem.Float, typesystem.Double:
		v := reflect.ValueOf(val)
		var f float64
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			f = v.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(v.Int())
		default:
			return nil, conversionError(val, desc)
		}
		if kind == typesystem.Float {
			return float32(f), nil
		}
		return f, nil
	case typesystem.Object:
		return m.reference(val, desc)
	}
	return nil, conversionError(val, desc)
}

func (m *Marshaller) integer(val any, desc string, lo, hi int64) (any, error) {
	v := reflect.ValueOf(val)
	var i int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() > math.MaxInt64 {
			return nil, conversionError(val, desc)
		}
		i = int64(v.Uint())
	default:
		return nil, conversionError(val, desc)
	}
	if i < lo || i > hi {
		return nil, fmt.Errorf("%d out of range for %s", i, typesystem.InternalNameToJava(desc, true, true))
	}
	return int32(i), nil
}

func (m *Marshaller) klass(desc string) (*meta.Klass, error) {
	return m.meta.LoadKlass(typesystem.InternalNameToJava(desc, true, true), m.loader)
}

func (m *Marshaller) reference(val any, desc string) (any, error) {
	target, err := m.klass(desc)
	if err != nil {
		return nil, err
	}
	switch v := val.(type) {
	case nil:
		return vm.Null, nil
	case *vm.Object:
		if v == vm.Null {
			return v, nil
		}
		if v == vm.Void || !target.IsAssignableFrom(m.meta.TypeOf(v)) {
			return nil, conversionError(val, desc)
		}
		return v, nil
	case string:
		if !target.IsAssignableFrom(m.meta.String) {
			return nil, conversionError(val, desc)
		}
		return m.meta.ToGuestString(v), nil
	}
	if meta.IsGuestReference(val) && target.IsAssignableFrom(m.meta.TypeOf(val)) {
		return val, nil
	}

	rv := reflect.ValueOf(val)
	if !target.IsArray() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, conversionError(val, desc)
	}
	component := target.ComponentType()
	elems := make([]any, rv.Len())
	for i := range elems {
		e, err := m.ToGuestStack(rv.Index(i).Interface(), component.Descriptor())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if component.IsPrimitive() {
			e = box(e, component.Kind())
		}
		elems[i] = e
	}
	return component.AllocateArrayFunc(len(elems), func(i int) any { return elems[i] })
}

// box turns a stack value into the element representation of kind.
func box(v any, kind typesystem.Kind) any {
	i, ok := v.(int32)
	if !ok {
		return v
	}
	switch kind {
	case typesystem.Boolean:
		return i != 0
	case typesystem.Byte:
		return int8(i)
	case typesystem.Short:
		return int16(i)
	case typesystem.Char:
		return uint16(i)
	}
	return v
}

// FromGuestKind converts a call result of descriptor desc to Go. Stack
// values are narrowed to their declared kind.
func (m *Marshaller) FromGuestKind(v any, desc string) (any, error) {
	kind := typesystem.KindFromDescriptor(desc)
	if kind == typesystem.Void {
		return nil, nil
	}
	if _, ok := typesystem.IsBoxedValue(v); ok && kind.IsPrimitive() {
		return m.meta.ToHostBoxed(v, kind)
	}
	return m.FromGuest(v, nil)
}

// FromGuest converts a guest value to Go. With a nil target, guest Strings
// become string, String arrays []string, other reference arrays []any and
// everything else is returned as is. A target type selects the Go shape.
func (m *Marshaller) FromGuest(v any, target reflect.Type) (any, error) {
	if v == nil || v == vm.Null || v == vm.Void {
		return nil, nil
	}
	if target != nil && target == reflect.TypeOf(v) {
		return v, nil
	}

	if _, ok := typesystem.IsBoxedValue(v); ok {
		return convertScalar(v, target)
	}
	if _, ok := vm.PrimitiveArrayKind(v); ok {
		return convertSlice(reflect.ValueOf(v), target, func(e any, t reflect.Type) (any, error) {
			return convertScalar(e, t)
		})
	}

	obj, ok := v.(*vm.Object)
	if !ok {
		return nil, &meta.ConversionError{Value: v, Direction: "host"}
	}
	if target == objectType {
		return obj, nil
	}
	k := m.meta.TypeOf(obj)
	switch {
	case k == m.meta.String:
		s, _ := m.meta.ToHostString(obj)
		return convertScalar(s, target)
	case k.IsArray():
		elems := reflect.ValueOf(obj.Elements())
		if target == nil && k.ComponentType() == m.meta.String {
			target = reflect.TypeFor[[]string]()
		}
		return convertSlice(elems, target, m.FromGuest)
	}
	if target == nil || target.Kind() == reflect.Interface {
		return obj, nil
	}
	return nil, fmt.Errorf("cannot convert %s to %s", obj, target)
}

func convertScalar(v any, target reflect.Type) (any, error) {
	if target == nil || target.Kind() == reflect.Interface {
		return v, nil
	}
	rv := reflect.ValueOf(v)
	if target.Kind() == reflect.Bool {
		if i, ok := v.(int32); ok {
			return i != 0, nil
		}
	}
	if rv.Type().ConvertibleTo(target) && rv.Kind() != reflect.String && target.Kind() != reflect.String {
		return rv.Convert(target).Interface(), nil
	}
	if rv.Kind() == reflect.String && target.Kind() == reflect.String {
		return rv.Convert(target).Interface(), nil
	}
	return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), target)
}

func convertSlice(elems reflect.Value, target reflect.Type, conv func(any, reflect.Type) (any, error)) (any, error) {
	var elemType reflect.Type
	switch {
	case target == nil:
		if elems.Type().Elem().Kind() != reflect.Interface {
			return elems.Interface(), nil
		}
		target = reflect.TypeFor[[]any]()
	case target.Kind() == reflect.Interface:
		return elems.Interface(), nil
	case target.Kind() != reflect.Slice:
		return nil, fmt.Errorf("cannot convert %s to %s", elems.Type(), target)
	}
	elemType = target.Elem()

	out := reflect.MakeSlice(target, 0, elems.Len())
	for i := range elems.Len() {
		val, err := conv(elems.Index(i).Interface(), elemType)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if val == nil {
			out = reflect.Append(out, reflect.Zero(elemType))
			continue
		}
		out = reflect.Append(out, reflect.ValueOf(val))
	}
	return out.Interface(), nil
}
