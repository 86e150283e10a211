package dispatch

import (
	"sync"

	"github.com/google/uuid"
)

// Object is a dispatch receiver: an underlying value plus the class
// attribute dispatch reads.
type Object struct {
	ID    string
	Value any

	classes  ClassVector
	implicit ClassVector
	mu       sync.RWMutex
}

// NewObject creates an object whose implicit class is derived from value.
func NewObject(value any, classes ...ClassTag) *Object {
	return NewObjectWithImplicit(value, ImplicitClassOf(value), classes...)
}

// NewObjectWithImplicit creates an object with an explicit implicit class.
func NewObjectWithImplicit(value any, implicit ClassVector, classes ...ClassTag) *Object {
	return &Object{
		ID:       uuid.NewString(),
		Value:    value,
		classes:  ClassVector(classes).Clone(),
		implicit: implicit.Clone(),
	}
}

// Class returns a copy of the object's class vector.
func (o *Object) Class() ClassVector {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.classes.Clone()
}

// SetClass replaces the class vector. Dispatch chains already in progress
// keep walking the sequence they captured when they started.
func (o *Object) SetClass(cv ClassVector) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.classes = cv.Clone()
}

// Unclass drops the class vector, leaving only the implicit class.
func (o *Object) Unclass() {
	o.SetClass(nil)
}

// ImplicitClass returns a copy of the object's implicit class.
func (o *Object) ImplicitClass() ClassVector {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.implicit.Clone()
}

// Inherits reports whether any of the given tags appears in the class vector.
func (o *Object) Inherits(tags ...ClassTag) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, t := range tags {
		if o.classes.Contains(t) {
			return true
		}
	}
	return false
}

// snapshot reads both vectors under one lock so a concurrent SetClass
// cannot interleave.
func (o *Object) snapshot() (classes, implicit ClassVector) {
	if o == nil {
		return nil, ClassVector{"NULL"}
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.classes.Clone(), o.implicit.Clone()
}
