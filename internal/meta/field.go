package meta

import (
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Field describes a resolved field of exactly one declaring type.
type Field struct {
	meta *Meta
	raw  *vm.FieldInfo
}

func (f *Field) Raw() *vm.FieldInfo              { return f.raw }
func (f *Field) Name() string                    { return f.raw.Name() }
func (f *Field) Descriptor() string              { return f.raw.Descriptor() }
func (f *Field) Kind() typesystem.Kind           { return f.raw.Kind() }
func (f *Field) Modifiers() typesystem.Modifiers { return f.raw.Modifiers() }
func (f *Field) IsStatic() bool                  { return f.raw.IsStatic() }
func (f *Field) DeclaringClass() *Klass          { return f.meta.KlassOf(f.raw.DeclaringClass()) }
func (f *Field) String() string                  { return f.raw.String() }

// Type resolves the declared type of the field.
func (f *Field) Type() (*Klass, error) {
	raw, err := f.raw.Type()
	if err != nil {
		return nil, err
	}
	return f.meta.KlassOf(raw), nil
}

func (f *Field) checkHolder(obj *vm.Object) {
	contract(obj != nil && obj != vm.Null && obj != vm.Void, "field %s accessed on %v", f, obj)
	if f.IsStatic() {
		contract(obj == f.raw.DeclaringClass().Statics(), "static field %s accessed on %s", f, obj)
		return
	}
	contract(!obj.IsStatic() && obj.Klass().IsSubclassOf(f.raw.DeclaringClass()),
		"field %s accessed on %s", f, obj)
}

// Get reads the field of obj. The field kind selects the accessor; the
// result is the boxed representation of that kind, or a reference.
func (f *Field) Get(obj *vm.Object) any {
	f.checkHolder(obj)
	s := f.meta.storage
	switch f.Kind() {
	case typesystem.Boolean:
		return s.GetFieldBoolean(obj, f.raw)
	case typesystem.Byte:
		return s.GetFieldByte(obj, f.raw)
	case typesystem.Short:
		return s.GetFieldShort(obj, f.raw)
	case typesystem.Char:
		return s.GetFieldChar(obj, f.raw)
	case typesystem.Int:
		return s.GetFieldInt(obj, f.raw)
	case typesystem.Float:
		return s.GetFieldFloat(obj, f.raw)
	case typesystem.Long:
		return s.GetFieldLong(obj, f.raw)
	case typesystem.Double:
		return s.GetFieldDouble(obj, f.raw)
	case typesystem.Object:
		return s.GetFieldObject(obj, f.raw)
	}
	shouldNotReachHere("field %s has kind %s", f, f.Kind())
	return nil
}

// Set writes v, which must have the boxed representation of the field kind
// or be a reference for reference fields.
func (f *Field) Set(obj *vm.Object, v any) {
	f.checkHolder(obj)
	s := f.meta.storage
	switch f.Kind() {
	case typesystem.Boolean:
		s.SetFieldBoolean(obj, f.raw, as[bool](f, v))
	case typesystem.Byte:
		s.SetFieldByte(obj, f.raw, as[int8](f, v))
	case typesystem.Short:
		s.SetFieldShort(obj, f.raw, as[int16](f, v))
	case typesystem.Char:
		s.SetFieldChar(obj, f.raw, as[uint16](f, v))
	case typesystem.Int:
		s.SetFieldInt(obj, f.raw, as[int32](f, v))
	case typesystem.Float:
		s.SetFieldFloat(obj, f.raw, as[float32](f, v))
	case typesystem.Long:
		s.SetFieldLong(obj, f.raw, as[int64](f, v))
	case typesystem.Double:
		s.SetFieldDouble(obj, f.raw, as[float64](f, v))
	case typesystem.Object:
		if !vm.IsReference(v) || v == vm.Void {
			shouldNotReachHere("%s is not a reference for field %s", describe(v), f)
		}
		s.SetFieldObject(obj, f.raw, v)
	default:
		shouldNotReachHere("field %s has kind %s", f, f.Kind())
	}
}

// SetNull stores the null handle. Only reference fields accept it.
func (f *Field) SetNull(obj *vm.Object) {
	f.Set(obj, vm.Null)
}

func as[T any](f *Field, v any) T {
	t, ok := v.(T)
	if !ok {
		shouldNotReachHere("%s is not a %s for field %s", describe(v), f.Kind(), f)
	}
	return t
}

// WithInstance binds f to obj, which must be static storage for a static
// field and an instance otherwise.
func (f *Field) WithInstance(obj *vm.Object) *FieldInstance {
	return newFieldInstance(f, obj)
}

// FieldAction is applied to a field of a bound instance by
// KlassInstance.Fields.
type FieldAction struct {
	Name   string
	Action func(*FieldInstance)
}

// SetField returns an action that stores v into the named field.
func SetField(name string, v any) FieldAction {
	contract(v != nil, "nil value for field %s, use SetNullField", name)
	return FieldAction{Name: name, Action: func(fi *FieldInstance) { fi.Set(v) }}
}

// SetNullField returns an action that stores the null handle.
func SetNullField(name string) FieldAction {
	return SetField(name, vm.Null)
}
