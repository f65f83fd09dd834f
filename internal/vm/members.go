package vm

import (
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
)

// MethodInfo is a resolved method declared by exactly one Klass.
type MethodInfo struct {
	name      string
	sig       typesystem.Signature
	modifiers typesystem.Modifiers
	declaring *Klass
	nativeKey string
	target    CallTarget
}

func (m *MethodInfo) Name() string                    { return m.name }
func (m *MethodInfo) Signature() typesystem.Signature { return m.sig }
func (m *MethodInfo) Descriptor() string              { return m.sig.String() }
func (m *MethodInfo) Modifiers() typesystem.Modifiers { return m.modifiers }
func (m *MethodInfo) DeclaringClass() *Klass          { return m.declaring }
func (m *MethodInfo) IsStatic() bool                  { return m.modifiers.IsStatic() }
func (m *MethodInfo) IsAbstract() bool                { return m.modifiers.IsAbstract() }

// NativeKey is the key the method body is bound by.
func (m *MethodInfo) NativeKey() string { return m.nativeKey }

// CallTarget returns the entry point of the method. Arguments are passed in
// guest form with the receiver first for instance methods.
func (m *MethodInfo) CallTarget() CallTarget { return m.target }

func (m *MethodInfo) IsConstructor() bool { return m.name == config.ConstructorName }

func (m *MethodInfo) IsClassInitializer() bool { return m.name == config.ClassInitializerName }

// ParameterTypes resolves the parameter types through the declaring
// class's loader.
func (m *MethodInfo) ParameterTypes() ([]*Klass, error) {
	types := make([]*Klass, len(m.sig.Params))
	for i, p := range m.sig.Params {
		k, err := m.declaring.reg.Resolve(p, m.declaring.loader)
		if err != nil {
			return nil, err
		}
		types[i] = k
	}
	return types, nil
}

// ReturnType resolves the result type; void methods return the void klass.
func (m *MethodInfo) ReturnType() (*Klass, error) {
	return m.declaring.reg.Resolve(m.sig.Result, m.declaring.loader)
}

func (m *MethodInfo) String() string {
	return m.declaring.ClassName() + "." + m.name + m.sig.String()
}

// FieldInfo is a resolved field declared by exactly one Klass. Slot indexes
// instance storage for instance fields and the static storage object for
// static ones.
type FieldInfo struct {
	name      string
	desc      string
	kind      typesystem.Kind
	modifiers typesystem.Modifiers
	declaring *Klass
	slot      int
}

func (f *FieldInfo) Name() string                    { return f.name }
func (f *FieldInfo) Descriptor() string              { return f.desc }
func (f *FieldInfo) Kind() typesystem.Kind           { return f.kind }
func (f *FieldInfo) Modifiers() typesystem.Modifiers { return f.modifiers }
func (f *FieldInfo) DeclaringClass() *Klass          { return f.declaring }
func (f *FieldInfo) IsStatic() bool                  { return f.modifiers.IsStatic() }
func (f *FieldInfo) Slot() int                       { return f.slot }

// Type resolves the declared type of the field.
func (f *FieldInfo) Type() (*Klass, error) {
	return f.declaring.reg.Resolve(f.desc, f.declaring.loader)
}

func (f *FieldInfo) String() string {
	return f.declaring.ClassName() + "." + f.name + ":" + f.desc
}
