package vm

import (
	"fmt"

	"github.com/funvibe/jmeta/internal/config"
)

// CallTarget is the entry point of a guest method. Arguments and results are
// guest-shaped: *Object handles, primitive array slices, or boxed primitives
// in stack form (narrow kinds as int32). A void call returns Void; a guest
// throw returns a *GuestException error.
type CallTarget interface {
	Call(args ...any) (any, error)
}

// CallTargetFunc adapts a plain function to CallTarget.
type CallTargetFunc func(args ...any) (any, error)

func (f CallTargetFunc) Call(args ...any) (any, error) { return f(args...) }

// NativeFunc is a host implementation of a guest method.
type NativeFunc func(rt *Runtime, args []any) (any, error)

// LinkError reports a call to a method that has no body.
type LinkError struct {
	Method string
	Reason string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link error: %s: %s", e.Method, e.Reason)
}

// Linker produces the call target of a freshly defined method.
type Linker func(m *MethodInfo) CallTarget

// nativeTarget dispatches to the native registered under the method's key.
// The lookup happens on every call so natives may be bound after the class
// that declares them.
type nativeTarget struct {
	rt     *Runtime
	method *MethodInfo
}

func (t *nativeTarget) Call(args ...any) (any, error) {
	if want := t.method.sig.ParameterCount(!t.method.IsStatic()); len(args) != want {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", t.method, want, len(args))
	}
	fn := t.rt.native(t.method.nativeKey)
	if fn == nil {
		if t.method.IsAbstract() {
			return nil, &LinkError{Method: t.method.String(), Reason: "abstract method"}
		}
		return nil, t.rt.Throw(config.UnsatisfiedLinkErrorName, t.method.nativeKey)
	}
	return fn(t.rt, args)
}

// unlinkedTarget is used by registries that have no linker.
type unlinkedTarget struct {
	method *MethodInfo
}

func (t unlinkedTarget) Call(args ...any) (any, error) {
	return nil, &LinkError{Method: t.method.String(), Reason: "no linker"}
}
