package meta

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// StringValue returns the UTF-16 code units of s, the backing data of the
// equivalent guest String.
func StringValue(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// StringHash computes String.hashCode over UTF-16 code units.
func StringHash(units []uint16) int32 {
	var h int32
	for _, u := range units {
		h = 31*h + int32(u)
	}
	return h
}

// NewHostString decodes UTF-16 code units into a host string.
func NewHostString(units []uint16) string {
	return string(utf16.Decode(units))
}

// IsGuestReference reports whether v already lives in the guest world:
// an object handle, the null handle or a primitive array.
func IsGuestReference(v any) bool {
	return vm.IsReference(v) && v != vm.Void
}

// ToGuest converts a host value to its guest form. nil becomes the null
// handle and a string becomes a new guest String. Guest handles and
// primitive arrays pass through unchanged.
func (m *Meta) ToGuest(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return vm.Null, nil
	case string:
		return m.ToGuestString(v), nil
	}
	if IsGuestReference(v) {
		return v, nil
	}
	return nil, &ConversionError{Value: v, Direction: "guest"}
}

// ToGuestBoxed is ToGuest that also passes boxed primitives through.
func (m *Meta) ToGuestBoxed(v any) (any, error) {
	if _, ok := typesystem.IsBoxedValue(v); ok {
		return v, nil
	}
	return m.ToGuest(v)
}

// ToGuestString allocates a guest String holding the code units of s and
// their hash. The guest hashCode must agree with the stored hash.
func (m *Meta) ToGuestString(s string) *vm.Object {
	units := StringValue(s)
	hash := StringHash(units)
	str := m.String.MetaNew().Fields(
		SetField(config.StringValueField, units),
		SetField(config.StringHashField, hash),
	)

	r, err := str.Method("hashCode", "int").InvokeDirect()
	contract(err == nil, "guest hashCode of %q: %v", s, err)
	contract(r == hash, "guest hashCode of %q is %v, host hash is %d", s, r, hash)
	return str.Instance()
}

// ToHostString returns the host string of a guest String. The null handle
// yields ok == false.
func (m *Meta) ToHostString(obj *vm.Object) (s string, ok bool) {
	if obj == vm.Null {
		return "", false
	}
	contract(obj != nil && obj.Klass() == m.String.raw, "%s is not a string", describe(obj))
	units, _ := m.String.Field(config.StringValueField).Get(obj).([]uint16)
	return NewHostString(units), true
}

// ToHost converts a guest value to its host form. The null and void handles
// become nil, a guest String becomes a string and primitive arrays pass
// through unchanged.
func (m *Meta) ToHost(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case *vm.Object:
		return m.objectToHost(v)
	}
	if IsGuestReference(v) {
		return v, nil
	}
	return nil, &ConversionError{Value: v, Direction: "host"}
}

// ToHostBoxed is ToHost for call results: boxed primitives pass through,
// narrowed to kind when kind is carried as an int on the evaluation stack.
func (m *Meta) ToHostBoxed(v any, kind typesystem.Kind) (any, error) {
	if _, ok := typesystem.IsBoxedValue(v); ok {
		if kind.IsPrimitive() && kind.StackKind() != kind {
			return toKind(v, kind), nil
		}
		return v, nil
	}
	return m.ToHost(v)
}

func (m *Meta) objectToHost(obj *vm.Object) (any, error) {
	contract(obj != nil, "nil object handle")
	switch {
	case obj == vm.Null || obj == vm.Void:
		return nil, nil
	case obj.Klass() == m.String.raw:
		s, _ := m.ToHostString(obj)
		return s, nil
	}
	return nil, &ConversionError{Value: obj, Direction: "host"}
}

// toKind narrows an int-shaped stack value to kind.
func toKind(v any, kind typesystem.Kind) any {
	contract(kind.StackKind() == typesystem.Int && kind != typesystem.Int,
		"no narrowing from stack kind %s to %s", kind.StackKind(), kind)
	i, ok := v.(int32)
	contract(ok, "%s is not an int stack value", describe(v))
	switch kind {
	case typesystem.Boolean:
		contract(i == 0 || i == 1, "boolean stack value %d", i)
		return i != 0
	case typesystem.Byte:
		return int8(i)
	case typesystem.Short:
		return int16(i)
	case typesystem.Char:
		return uint16(i)
	}
	shouldNotReachHere("narrowing to %s", kind)
	return nil
}

func describe(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case *vm.Object:
		if v == nil {
			return "nil object"
		}
		return v.String()
	}
	if k, ok := vm.PrimitiveArrayKind(v); ok {
		return k.String() + "[]"
	}
	return strings.TrimSpace(fmt.Sprintf("%T(%v)", v, v))
}
