package meta

import (
	"github.com/funvibe/jmeta/internal/typesystem"
	"github.com/funvibe/jmeta/internal/vm"
)

// Method describes a resolved method of exactly one declaring type.
type Method struct {
	meta *Meta
	raw  *vm.MethodInfo
}

func (m *Method) Raw() *vm.MethodInfo               { return m.raw }
func (m *Method) Name() string                      { return m.raw.Name() }
func (m *Method) Signature() typesystem.Signature   { return m.raw.Signature() }
func (m *Method) Modifiers() typesystem.Modifiers   { return m.raw.Modifiers() }
func (m *Method) IsStatic() bool                    { return m.raw.IsStatic() }
func (m *Method) IsConstructor() bool               { return m.raw.IsConstructor() }
func (m *Method) DeclaringClass() *Klass            { return m.meta.KlassOf(m.raw.DeclaringClass()) }
func (m *Method) String() string                    { return m.raw.String() }
func (m *Method) ParameterCount() int               { return m.raw.Signature().ParameterCount(false) }
func (m *Method) ResultKind() typesystem.Kind       { return m.raw.Signature().ResultKind() }
func (m *Method) ParameterKinds() []typesystem.Kind { return m.raw.Signature().ParameterKinds() }

// IsClassInitializer reports whether m is <clinit>. A class initializer is
// always static, takes no arguments and returns void.
func (m *Method) IsClassInitializer() bool {
	if !m.raw.IsClassInitializer() {
		return false
	}
	sig := m.raw.Signature()
	contract(sig.ResultKind() == typesystem.Void, "%s must return void", m)
	contract(m.IsStatic(), "%s must be static", m)
	contract(sig.ParameterCount(false) == 0, "%s must take no arguments", m)
	return true
}

// ParameterTypes resolves the declared parameter types.
func (m *Method) ParameterTypes() ([]*Klass, error) {
	raws, err := m.raw.ParameterTypes()
	if err != nil {
		return nil, err
	}
	types := make([]*Klass, len(raws))
	for i, raw := range raws {
		types[i] = m.meta.KlassOf(raw)
	}
	return types, nil
}

// ReturnType resolves the declared result type.
func (m *Method) ReturnType() (*Klass, error) {
	raw, err := m.raw.ReturnType()
	if err != nil {
		return nil, err
	}
	return m.meta.KlassOf(raw), nil
}

// checkReceiver asserts that self agrees with the static-ness of m. Static
// methods accept nil or the static storage of their declaring class.
// Instance methods accept a guest value, or a host string, whose type is
// assignable to the declaring class.
func (m *Method) checkReceiver(self any) {
	if m.IsStatic() {
		if self == nil {
			return
		}
		obj, ok := self.(*vm.Object)
		contract(ok && obj == m.raw.DeclaringClass().Statics(), "static method %s called on %s", m, describe(self))
		return
	}
	contract(self != nil && self != vm.Null && self != vm.Void, "instance method %s called on %s", m, describe(self))
	var recv *Klass
	switch v := self.(type) {
	case string:
		recv = m.meta.String
	case *vm.Object:
		contract(!v.IsStatic(), "instance method %s called on static storage %s", m, v)
		recv = m.meta.KlassOf(v.Klass())
	default:
		contract(IsGuestReference(self), "instance method %s called on %s", m, describe(self))
		recv = m.meta.TypeOf(self)
	}
	contract(m.DeclaringClass().IsAssignableFrom(recv), "instance method %s called on %s", m, describe(self))
}

// Invoke calls m with host-shaped arguments and returns a host-shaped
// result. Strings are converted, null maps to the null handle, and guest
// handles, primitive arrays and boxed primitives pass through unchanged.
// There is no widening or narrowing of arguments. The result is narrowed
// to the declared result kind.
func (m *Method) Invoke(self any, args ...any) (any, error) {
	contract(len(args) == m.ParameterCount(), "%s takes %d arguments, got %d", m, m.ParameterCount(), len(args))
	m.checkReceiver(self)

	var guestArgs []any
	if !m.IsStatic() {
		guestArgs = make([]any, 0, len(args)+1)
		recv, err := m.meta.ToGuestBoxed(self)
		if err != nil {
			return nil, err
		}
		guestArgs = append(guestArgs, recv)
	} else {
		guestArgs = make([]any, 0, len(args))
	}
	for _, a := range args {
		g, err := m.meta.ToGuestBoxed(a)
		if err != nil {
			return nil, err
		}
		guestArgs = append(guestArgs, g)
	}

	result, err := m.raw.CallTarget().Call(guestArgs...)
	if err != nil {
		return nil, err
	}
	return m.meta.ToHostBoxed(result, m.ResultKind())
}

// InvokeDirect calls m with guest-shaped arguments and returns the guest
// result unchanged.
func (m *Method) InvokeDirect(self any, args ...any) (any, error) {
	m.checkReceiver(self)
	if m.IsStatic() {
		contract(len(args) == m.raw.Signature().ParameterCount(false),
			"%s takes %d arguments, got %d", m, m.ParameterCount(), len(args))
		return m.raw.CallTarget().Call(args...)
	}
	contract(len(args)+1 == m.raw.Signature().ParameterCount(true),
		"%s takes %d arguments, got %d", m, m.ParameterCount(), len(args))
	full := make([]any, 0, len(args)+1)
	full = append(full, self)
	full = append(full, args...)
	return m.raw.CallTarget().Call(full...)
}

// AsStatic binds a static method to the static storage of its declaring
// class.
func (m *Method) AsStatic() *MethodInstance {
	contract(m.IsStatic(), "%s is not static", m)
	return m.WithInstance(m.raw.DeclaringClass().Statics())
}

// WithInstance binds m to obj, which must be static storage for a static
// method and an instance otherwise.
func (m *Method) WithInstance(obj *vm.Object) *MethodInstance {
	return newMethodInstance(m, obj)
}
