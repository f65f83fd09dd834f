package typesystem

import "reflect"

// Kind is the value kind of a guest type: one of the eight primitive kinds,
// a reference (Object) or Void.
type Kind uint8

const (
	Illegal Kind = iota
	Boolean
	Byte
	Short
	Char
	Int
	Float
	Long
	Double
	Object
	Void
)

// Kinds lists every legal kind in declaration order.
var Kinds = []Kind{Boolean, Byte, Short, Char, Int, Float, Long, Double, Object, Void}

// PrimitiveKinds lists the eight primitive value kinds.
var PrimitiveKinds = []Kind{Boolean, Byte, Short, Char, Int, Float, Long, Double}

type kindInfo struct {
	name     string
	typeChar byte
	stack    Kind
	boxed    reflect.Type
}

var kindTable = [...]kindInfo{
	Illegal: {name: "illegal", typeChar: '-', stack: Illegal},
	Boolean: {name: "boolean", typeChar: 'Z', stack: Int, boxed: reflect.TypeFor[bool]()},
	Byte:    {name: "byte", typeChar: 'B', stack: Int, boxed: reflect.TypeFor[int8]()},
	Short:   {name: "short", typeChar: 'S', stack: Int, boxed: reflect.TypeFor[int16]()},
	Char:    {name: "char", typeChar: 'C', stack: Int, boxed: reflect.TypeFor[uint16]()},
	Int:     {name: "int", typeChar: 'I', stack: Int, boxed: reflect.TypeFor[int32]()},
	Float:   {name: "float", typeChar: 'F', stack: Float, boxed: reflect.TypeFor[float32]()},
	Long:    {name: "long", typeChar: 'J', stack: Long, boxed: reflect.TypeFor[int64]()},
	Double:  {name: "double", typeChar: 'D', stack: Double, boxed: reflect.TypeFor[float64]()},
	Object:  {name: "Object", typeChar: 'L', stack: Object},
	Void:    {name: "void", typeChar: 'V', stack: Void},
}

func (k Kind) info() kindInfo {
	if int(k) >= len(kindTable) {
		return kindTable[Illegal]
	}
	return kindTable[k]
}

// String returns the Java name of the kind ("int", "boolean", "Object").
func (k Kind) String() string { return k.info().name }

// TypeChar returns the descriptor character of the kind.
func (k Kind) TypeChar() byte { return k.info().typeChar }

// StackKind returns the kind used to hold values of k on the evaluation stack.
// Boolean, Byte, Short and Char widen to Int.
func (k Kind) StackKind() Kind { return k.info().stack }

// IsPrimitive reports whether k is one of the eight primitive value kinds.
func (k Kind) IsPrimitive() bool { return k >= Boolean && k <= Double }

func (k Kind) IsObject() bool { return k == Object }

// IsNumericInteger reports whether k is an integral kind other than Boolean.
func (k Kind) IsNumericInteger() bool {
	switch k {
	case Byte, Short, Char, Int, Long:
		return true
	}
	return false
}

// IsStackInt reports whether values of k live as int32 on the stack.
func (k Kind) IsStackInt() bool { return k.StackKind() == Int }

// BoxedType is the host representation of a boxed value of kind k, or nil
// when the kind has no boxed form.
func (k Kind) BoxedType() reflect.Type { return k.info().boxed }

// ZeroValue returns the zero value of k in its host representation. Object
// kinds have no host zero; callers use the guest null sentinel.
func (k Kind) ZeroValue() any {
	switch k {
	case Boolean:
		return false
	case Byte:
		return int8(0)
	case Short:
		return int16(0)
	case Char:
		return uint16(0)
	case Int:
		return int32(0)
	case Float:
		return float32(0)
	case Long:
		return int64(0)
	case Double:
		return float64(0)
	}
	return nil
}

// KindFromTypeChar maps a descriptor character to its kind. '[' maps to Object.
func KindFromTypeChar(c byte) Kind {
	switch c {
	case 'Z':
		return Boolean
	case 'B':
		return Byte
	case 'S':
		return Short
	case 'C':
		return Char
	case 'I':
		return Int
	case 'F':
		return Float
	case 'J':
		return Long
	case 'D':
		return Double
	case 'L', '[':
		return Object
	case 'V':
		return Void
	}
	return Illegal
}

// KindFromDescriptor returns the kind of a field or return type descriptor.
func KindFromDescriptor(desc string) Kind {
	if desc == "" {
		return Illegal
	}
	return KindFromTypeChar(desc[0])
}

// KindFromName maps a Java primitive name ("int", "void") to its kind.
func KindFromName(name string) (Kind, bool) {
	for _, k := range Kinds {
		if k != Object && k.String() == name {
			return k, true
		}
	}
	return Illegal, false
}

// IsBoxedValue reports whether the runtime type of v is the boxed
// representation of some kind.
func IsBoxedValue(v any) (Kind, bool) {
	if v == nil {
		return Illegal, false
	}
	t := reflect.TypeOf(v)
	for _, k := range PrimitiveKinds {
		if k.BoxedType() == t {
			return k, true
		}
	}
	return Illegal, false
}
