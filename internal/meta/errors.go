package meta

import (
	"fmt"
	"strings"
)

// FailureKind classifies a Failure.
type FailureKind int

const (
	// ContractViolation means the caller broke the calling protocol: a null
	// handle where an instance is required, a static/instance mismatch, a
	// wrong argument count, an out-of-range boolean.
	ContractViolation FailureKind = iota + 1
	// ShouldNotReachHere means an internal invariant was violated.
	ShouldNotReachHere
)

func (k FailureKind) String() string {
	switch k {
	case ContractViolation:
		return "contract violation"
	case ShouldNotReachHere:
		return "should not reach here"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Failure is the panic value of a programming error detected by this
// package. It aborts the current operation; Guard turns it into an error.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return "meta: " + f.Kind.String() + ": " + f.Message
}

func contract(cond bool, format string, args ...any) {
	if !cond {
		panic(&Failure{Kind: ContractViolation, Message: fmt.Sprintf(format, args...)})
	}
}

func shouldNotReachHere(format string, args ...any) {
	panic(&Failure{Kind: ShouldNotReachHere, Message: fmt.Sprintf(format, args...)})
}

// Guard runs fn and returns the *Failure it panics with as an error. Other
// panics are not recovered.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Failure)
			if !ok {
				panic(r)
			}
			err = f
		}
	}()
	return fn()
}

// GuardValue is Guard for functions that return a value.
func GuardValue[T any](fn func() (T, error)) (v T, err error) {
	err = Guard(func() error {
		var ferr error
		v, ferr = fn()
		return ferr
	})
	return v, err
}

// ConversionError reports a value that has no representation on the other
// side of the host/guest boundary.
type ConversionError struct {
	Value     any
	Direction string // "guest" or "host"
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s cannot be converted to %s world", describe(e.Value), e.Direction)
}

// ArrayStoreError reports a generated element whose type does not match
// the component type of the array being filled.
type ArrayStoreError struct {
	Index     int
	Value     string
	Component string
}

func (e *ArrayStoreError) Error() string {
	return fmt.Sprintf("array store: element %d: %s is not a %s", e.Index, e.Value, e.Component)
}

// BootstrapError lists the well-known types that could not be resolved.
type BootstrapError struct {
	Missing []string
	Errs    []error
}

func (e *BootstrapError) Error() string {
	return "bootstrap: cannot resolve " + strings.Join(e.Missing, ", ")
}

func (e *BootstrapError) Unwrap() []error { return e.Errs }
