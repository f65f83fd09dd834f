package meta

import (
	"github.com/funvibe/jmeta/internal/vm"
)

// KlassInstance is a type bound to one of its instances.
type KlassInstance struct {
	klass    *Klass
	instance *vm.Object
}

func newKlassInstance(k *Klass, obj *vm.Object) *KlassInstance {
	contract(obj != nil && obj != vm.Null && obj != vm.Void, "%s bound to %v", k, obj)
	return &KlassInstance{klass: k, instance: obj}
}

func (ki *KlassInstance) Klass() *Klass        { return ki.klass }
func (ki *KlassInstance) Instance() *vm.Object { return ki.instance }
func (ki *KlassInstance) Meta() *Meta          { return ki.klass.meta }

// Field binds the named field to the instance.
func (ki *KlassInstance) Field(name string) *FieldInstance {
	f := ki.klass.Field(name)
	contract(f != nil, "%s has no field %s", ki.klass, name)
	return f.WithInstance(ki.instance)
}

// Fields applies each action to its field and returns ki.
func (ki *KlassInstance) Fields(actions ...FieldAction) *KlassInstance {
	for _, a := range actions {
		a.Action(ki.Field(a.Name))
	}
	return ki
}

// Method binds the method with the exact signature to the instance.
func (ki *KlassInstance) Method(name string, result string, params ...string) *MethodInstance {
	m := ki.klass.Method(name, result, params...)
	contract(m != nil, "%s has no method %s", ki.klass, name)
	return m.WithInstance(ki.instance)
}

// GuestToString calls the guest toString of the instance.
func (ki *KlassInstance) GuestToString() (string, error) {
	r, err := ki.Method("toString", "java.lang.String").InvokeDirect()
	if err != nil {
		return "", err
	}
	obj, ok := r.(*vm.Object)
	contract(ok, "toString returned %s", describe(r))
	s, _ := ki.klass.meta.ToHostString(obj)
	return s, nil
}

// MethodInstance is a method bound to a receiver: an instance for instance
// methods, the static storage of the declaring class for static ones.
type MethodInstance struct {
	method   *Method
	instance *vm.Object
}

func newMethodInstance(m *Method, obj *vm.Object) *MethodInstance {
	contract(obj != nil && obj != vm.Null && obj != vm.Void, "%s bound to %v", m, obj)
	if m.IsStatic() {
		contract(obj.IsStatic(), "static method %s bound to instance %s", m, obj)
	} else {
		contract(!obj.IsStatic(), "instance method %s bound to static storage %s", m, obj)
	}
	return &MethodInstance{method: m, instance: obj}
}

func (mi *MethodInstance) Method() *Method      { return mi.method }
func (mi *MethodInstance) Instance() *vm.Object { return mi.instance }

func (mi *MethodInstance) Invoke(args ...any) (any, error) {
	return mi.method.Invoke(mi.instance, args...)
}

func (mi *MethodInstance) InvokeDirect(args ...any) (any, error) {
	return mi.method.InvokeDirect(mi.instance, args...)
}

// FieldInstance is a field bound to its holder: an instance for instance
// fields, the static storage of the declaring class for static ones.
type FieldInstance struct {
	field    *Field
	instance *vm.Object
}

func newFieldInstance(f *Field, obj *vm.Object) *FieldInstance {
	contract(obj != nil && obj != vm.Null && obj != vm.Void, "%s bound to %v", f, obj)
	if f.IsStatic() {
		contract(obj.IsStatic(), "static field %s bound to instance %s", f, obj)
	} else {
		contract(!obj.IsStatic(), "instance field %s bound to static storage %s", f, obj)
	}
	return &FieldInstance{field: f, instance: obj}
}

func (fi *FieldInstance) Field() *Field        { return fi.field }
func (fi *FieldInstance) Instance() *vm.Object { return fi.instance }
func (fi *FieldInstance) Get() any             { return fi.field.Get(fi.instance) }
func (fi *FieldInstance) Set(v any)            { fi.field.Set(fi.instance, v) }
func (fi *FieldInstance) SetNull()             { fi.field.SetNull(fi.instance) }
