package dispatch

import (
	"context"
	"sort"
	"sync"
)

// Args holds the argument bindings of a generic call. Methods reached
// through NextMethod receive the same *Args the chain started with.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Arg returns the i'th positional argument, or nil.
func (a *Args) Arg(i int) any {
	if a == nil || i < 0 || i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i]
}

// Lookup returns a named argument.
func (a *Args) Lookup(name string) (any, bool) {
	if a == nil {
		return nil, false
	}
	v, ok := a.Named[name]
	return v, ok
}

// MethodFunc is the signature of a method implementation. The dispatch
// state of the running chain is available from ctx.
type MethodFunc func(ctx context.Context, obj *Object, args *Args) (any, error)

// MethodKey identifies a method by generic name and class.
type MethodKey struct {
	Generic string
	Class   ClassTag
}

// MethodEntry describes a single registered method
type MethodEntry struct {
	Key   MethodKey
	Impl  MethodFunc
	Label string
}

// Table maps (generic, class) pairs to methods and records which generics
// are primitive.
type Table struct {
	methods    map[MethodKey]*MethodEntry
	primitives map[string]bool
	mu         sync.RWMutex
}

// NewTable creates an empty method table
func NewTable() *Table {
	return &Table{
		methods:    make(map[MethodKey]*MethodEntry),
		primitives: make(map[string]bool),
	}
}

// Register adds or replaces the method for (generic, class).
func (t *Table) Register(generic string, class ClassTag, label string, impl MethodFunc) error {
	if generic == "" || class == "" || impl == nil {
		return ErrInvalidMethod
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key := MethodKey{Generic: generic, Class: class}
	t.methods[key] = &MethodEntry{Key: key, Impl: impl, Label: label}
	return nil
}

// Unregister removes the method for (generic, class), reporting whether one
// was present.
func (t *Table) Unregister(generic string, class ClassTag) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := MethodKey{Generic: generic, Class: class}
	if _, ok := t.methods[key]; !ok {
		return false
	}
	delete(t.methods, key)
	return true
}

// Lookup finds the method registered for exactly (generic, class).
func (t *Table) Lookup(generic string, class ClassTag) *MethodEntry {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.methods[MethodKey{Generic: generic, Class: class}]
}

// MarkPrimitive flags generic for implicit-class fallback.
func (t *Table) MarkPrimitive(generic string) error {
	if generic == "" {
		return ErrInvalidGeneric
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primitives[generic] = true
	return nil
}

// IsPrimitive reports whether generic was marked primitive.
func (t *Table) IsPrimitive(generic string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.primitives[generic]
}

// Entries returns every registered method ordered by generic, then class.
// The returned slice is a snapshot; entries must not be modified.
func (t *Table) Entries() []*MethodEntry {
	t.mu.RLock()
	entries := make([]*MethodEntry, 0, len(t.methods))
	for _, e := range t.methods {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Generic != b.Generic {
			return a.Generic < b.Generic
		}
		return a.Class < b.Class
	})
	return entries
}

// Primitives returns the primitive generic names in sorted order.
func (t *Table) Primitives() []string {
	t.mu.RLock()
	names := make([]string, 0, len(t.primitives))
	for name := range t.primitives {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered methods.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.methods)
}
