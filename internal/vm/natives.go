package vm

import (
	"fmt"
	"slices"

	"github.com/funvibe/jmeta/internal/config"
)

// bootNatives implements the methods of the boot class library. Keys follow
// the default native key format "<class>.<name><descriptor>".
var bootNatives = map[string]NativeFunc{
	"java/lang/Object.<init>()V":                    returnVoid,
	"java/lang/Object.hashCode()I":                  objectHashCode,
	"java/lang/Object.equals(Ljava/lang/Object;)Z":  objectEquals,
	"java/lang/Object.toString()Ljava/lang/String;": objectToString,

	"java/lang/String.<init>()V":                      stringInit,
	"java/lang/String.hashCode()I":                    stringHashCode,
	"java/lang/String.length()I":                      stringLength,
	"java/lang/String.charAt(I)C":                     stringCharAt,
	"java/lang/String.equals(Ljava/lang/Object;)Z":    stringEquals,
	"java/lang/String.compareTo(Ljava/lang/String;)I": stringCompareTo,
	"java/lang/String.toString()Ljava/lang/String;":   returnSelf,

	"java/lang/Throwable.<init>()V":                      returnVoid,
	"java/lang/Throwable.<init>(Ljava/lang/String;)V":    throwableInitMessage,
	"java/lang/Throwable.getMessage()Ljava/lang/String;": throwableGetMessage,
	"java/lang/Throwable.toString()Ljava/lang/String;":   throwableToString,

	"java/lang/ClassLoader.<init>()V": returnVoid,
}

// ReceiverError reports a boot native called on a receiver it cannot
// operate on.
type ReceiverError struct {
	Receiver string
	Want     string
}

func (e *ReceiverError) Error() string {
	return fmt.Sprintf("vm: receiver is %s, want %s", e.Receiver, e.Want)
}

func self(args []any) (*Object, error) {
	if len(args) == 0 {
		return nil, &ReceiverError{Receiver: "missing", Want: "an object"}
	}
	obj, ok := args[0].(*Object)
	if !ok || obj == nil || obj == Null || obj == Void || obj.static {
		return nil, &ReceiverError{Receiver: describe(args[0]), Want: "an object"}
	}
	return obj, nil
}

func selfString(args []any) (*Object, []uint16, error) {
	s, err := self(args)
	if err != nil {
		return nil, nil, err
	}
	u, ok := stringUnits(s)
	if !ok {
		return nil, nil, &ReceiverError{Receiver: describe(s), Want: "a string"}
	}
	return s, u, nil
}

// selfWithField returns the receiver together with its field name.
func selfWithField(args []any, name string) (*Object, *FieldInfo, error) {
	obj, err := self(args)
	if err != nil {
		return nil, nil, err
	}
	f := obj.klass.LookupField(name)
	if f == nil || f.IsStatic() {
		return nil, nil, &ReceiverError{Receiver: describe(obj), Want: "a holder of " + name}
	}
	return obj, f, nil
}

func boolResult(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func returnVoid(rt *Runtime, args []any) (any, error) { return Void, nil }
func returnSelf(rt *Runtime, args []any) (any, error) { return self(args) }

func objectHashCode(rt *Runtime, args []any) (any, error) {
	obj, err := self(args)
	if err != nil {
		return nil, err
	}
	return obj.IdentityHash(), nil
}

func objectEquals(rt *Runtime, args []any) (any, error) {
	return boolResult(args[0] == args[1]), nil
}

func objectToString(rt *Runtime, args []any) (any, error) {
	obj, err := self(args)
	if err != nil {
		return nil, err
	}
	return rt.NewString(obj.String()), nil
}

func stringInit(rt *Runtime, args []any) (any, error) {
	s, f, err := selfWithField(args, config.StringValueField)
	if err != nil {
		return nil, err
	}
	rt.Heap.SetFieldObject(s, f, []uint16{})
	return Void, nil
}

func stringHashCode(rt *Runtime, args []any) (any, error) {
	s, units, err := selfString(args)
	if err != nil {
		return nil, err
	}
	f := s.klass.LookupField(config.StringHashField)
	h := rt.Heap.GetFieldInt(s, f)
	if h == 0 {
		for _, u := range units {
			h = 31*h + int32(u)
		}
		rt.Heap.SetFieldInt(s, f, h)
	}
	return h, nil
}

func stringLength(rt *Runtime, args []any) (any, error) {
	_, u, err := selfString(args)
	if err != nil {
		return nil, err
	}
	return int32(len(u)), nil
}

func stringCharAt(rt *Runtime, args []any) (any, error) {
	_, u, err := selfString(args)
	if err != nil {
		return nil, err
	}
	i, ok := args[1].(int32)
	if !ok {
		return nil, fmt.Errorf("charAt: index is %s", describe(args[1]))
	}
	if i < 0 || int(i) >= len(u) {
		return nil, rt.Throw(config.IndexOutOfBoundsName, fmt.Sprintf("index %d, length %d", i, len(u)))
	}
	return int32(u[i]), nil
}

func stringEquals(rt *Runtime, args []any) (any, error) {
	s, u, err := selfString(args)
	if err != nil {
		return nil, err
	}
	other, ok := args[1].(*Object)
	if !ok || other == Null {
		return boolResult(false), nil
	}
	if other == s {
		return boolResult(true), nil
	}
	ou, ok := stringUnits(other)
	return boolResult(ok && slices.Equal(u, ou)), nil
}

func stringCompareTo(rt *Runtime, args []any) (any, error) {
	_, a, err := selfString(args)
	if err != nil {
		return nil, err
	}
	other, ok := args[1].(*Object)
	if !ok || other == Null {
		return nil, rt.Throw(config.NullPointerExceptionName, "")
	}
	b, _ := stringUnits(other)
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return int32(a[i]) - int32(b[i]), nil
		}
	}
	return int32(len(a) - len(b)), nil
}

func throwableInitMessage(rt *Runtime, args []any) (any, error) {
	ex, f, err := selfWithField(args, config.ThrowableMessageField)
	if err != nil {
		return nil, err
	}
	rt.Heap.SetFieldObject(ex, f, args[1])
	return Void, nil
}

func throwableGetMessage(rt *Runtime, args []any) (any, error) {
	ex, f, err := selfWithField(args, config.ThrowableMessageField)
	if err != nil {
		return nil, err
	}
	return rt.Heap.GetFieldObject(ex, f), nil
}

func throwableToString(rt *Runtime, args []any) (any, error) {
	ex, _, err := selfWithField(args, config.ThrowableMessageField)
	if err != nil {
		return nil, err
	}
	return rt.NewString((&GuestException{Exception: ex}).Error()), nil
}
