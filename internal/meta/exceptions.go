package meta

import (
	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/vm"
)

// CreateEx allocates an exception of type k and runs its no-argument
// constructor.
func (m *Meta) CreateEx(k *Klass) (*vm.Object, error) {
	m.checkThrowable(k)
	ex := k.MetaNew()
	if _, err := ex.Method(config.ConstructorName, "void").InvokeDirect(); err != nil {
		return nil, err
	}
	return ex.Instance(), nil
}

// CreateExMessage allocates an exception of type k and runs its String
// constructor with msg.
func (m *Meta) CreateExMessage(k *Klass, msg string) (*vm.Object, error) {
	m.checkThrowable(k)
	ex := k.MetaNew()
	if _, err := ex.Method(config.ConstructorName, "void", "java.lang.String").Invoke(msg); err != nil {
		return nil, err
	}
	return ex.Instance(), nil
}

// ThrowEx returns a new exception of type k as an error to be propagated
// to the guest. A failure to build the exception is returned instead.
func (m *Meta) ThrowEx(k *Klass) error {
	ex, err := m.CreateEx(k)
	if err != nil {
		return err
	}
	return &vm.GuestException{Exception: ex}
}

// ThrowExMessage is ThrowEx with a detail message.
func (m *Meta) ThrowExMessage(k *Klass, msg string) error {
	ex, err := m.CreateExMessage(k, msg)
	if err != nil {
		return err
	}
	return &vm.GuestException{Exception: ex}
}

func (m *Meta) checkThrowable(k *Klass) {
	contract(k != nil && !k.IsPrimitive() && !k.IsArray() && m.Throwable.IsAssignableFrom(k),
		"%v is not a throwable type", k)
}
