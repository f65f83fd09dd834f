package vm

import (
	"unicode/utf16"

	"github.com/funvibe/jmeta/internal/config"
	"github.com/funvibe/jmeta/internal/typesystem"
)

// GuestException carries a guest throwable through host control flow.
type GuestException struct {
	Exception *Object
}

func (e *GuestException) Error() string {
	name := typesystem.InternalNameToJava(e.Exception.klass.Name(), true, false)
	if msg, ok := e.Message(); ok {
		return name + ": " + msg
	}
	return name
}

// Message returns the detail message of the throwable, if it has one.
func (e *GuestException) Message() (string, bool) {
	return throwableMessage(e.Exception)
}

// Klass returns the type of the thrown object.
func (e *GuestException) Klass() *Klass { return e.Exception.klass }

func throwableMessage(obj *Object) (string, bool) {
	f := obj.klass.LookupField(config.ThrowableMessageField)
	if f == nil || f.IsStatic() {
		return "", false
	}
	msg, ok := obj.fields[f.slot].(*Object)
	if !ok || msg == Null {
		return "", false
	}
	units, ok := stringUnits(msg)
	if !ok {
		return "", false
	}
	return string(utf16.Decode(units)), true
}

const stringDescriptor = "L" + config.StringClassName + ";"

// stringUnits reads the UTF-16 backing array of a guest String.
func stringUnits(obj *Object) ([]uint16, bool) {
	if obj == nil || obj.klass == nil || obj.klass.name != stringDescriptor {
		return nil, false
	}
	f := obj.klass.LookupField(config.StringValueField)
	if f == nil || f.desc != "[C" {
		return nil, false
	}
	units, ok := obj.fields[f.slot].([]uint16)
	return units, ok
}
