package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoApplicableMethod indicates no tag, including "default", had a method.
	ErrNoApplicableMethod = errors.New("no applicable method")
	// ErrNoNextMethod indicates a NextMethod call ran off the end of the chain.
	ErrNoNextMethod = errors.New("no more methods")
	// ErrNoGenericInContext indicates NextMethod was called outside a method
	// invoked by Dispatch.
	ErrNoGenericInContext = errors.New("NextMethod called from outside a method dispatch")
	// ErrInvalidGeneric indicates an empty generic name.
	ErrInvalidGeneric = errors.New("invalid generic name")
	// ErrInvalidMethod indicates a registration with a missing generic,
	// class or implementation.
	ErrInvalidMethod = errors.New("invalid method")
)

// NoApplicableMethodError carries the generic and the receiver's declared
// class vector, without the implicit class.
type NoApplicableMethodError struct {
	Generic string
	Classes ClassVector
}

func (e *NoApplicableMethodError) Error() string {
	return fmt.Sprintf("no applicable method for '%s' applied to an object of class %s",
		e.Generic, e.Classes)
}

// Is lets errors.Is match ErrNoApplicableMethod.
func (e *NoApplicableMethodError) Is(target error) bool {
	return target == ErrNoApplicableMethod
}

// NoNextMethodError records where the chain was when it ran out.
type NoNextMethodError struct {
	Generic  string
	Sequence ClassVector
	Index    int
}

func (e *NoNextMethodError) Error() string {
	return fmt.Sprintf("no more methods for '%s' after %q (position %d of %s)",
		e.Generic, e.Sequence[e.Index], e.Index+1, e.Sequence)
}

// Is lets errors.Is match ErrNoNextMethod.
func (e *NoNextMethodError) Is(target error) bool {
	return target == ErrNoNextMethod
}
