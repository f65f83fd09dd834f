package typesystem

import (
	"errors"
	"fmt"
)

// ClassNotFoundError indicates a type descriptor could not be resolved
type ClassNotFoundError struct {
	Name string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class not found: %s", e.Name)
}

func NewClassNotFoundError(name string) *ClassNotFoundError {
	return &ClassNotFoundError{Name: name}
}

// DescriptorError reports a malformed type or method descriptor
type DescriptorError struct {
	Descriptor string
	Reason     string
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("bad descriptor %q: %s", e.Descriptor, e.Reason)
}

var (
	errTruncated   = errors.New("truncated type")
	errBadTypeChar = errors.New("unknown type character")
)
