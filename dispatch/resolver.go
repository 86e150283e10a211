package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// Resolver dispatches generic calls against a method table.
type Resolver struct {
	table    *Table
	log      commonlog.Logger
	observer Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTable makes the resolver use an existing method table.
func WithTable(t *Table) Option {
	return func(r *Resolver) { r.table = t }
}

// WithLogger overrides the default "classdispatch" logger.
func WithLogger(l commonlog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithObserver sends every dispatch event to o.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// New creates a resolver. Without WithTable it starts with an empty table.
func New(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.table == nil {
		r.table = NewTable()
	}
	if r.log == nil {
		r.log = commonlog.GetLogger("classdispatch")
	}
	return r
}

// Table returns the resolver's method table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Register adds or replaces the method for (generic, class).
func (r *Resolver) Register(generic string, class ClassTag, fn MethodFunc) error {
	return r.RegisterLabeled(generic, class, "", fn)
}

// RegisterLabeled is Register with a description shown by introspection.
func (r *Resolver) RegisterLabeled(generic string, class ClassTag, label string, fn MethodFunc) error {
	if err := r.table.Register(generic, class, label, fn); err != nil {
		return fmt.Errorf("register %s for %q: %w", generic, class, err)
	}
	r.log.Debugf("registered method %s for class %q", generic, class)
	return nil
}

// MarkPrimitive makes generic consult the implicit class before "default".
func (r *Resolver) MarkPrimitive(generic string) error {
	return r.table.MarkPrimitive(generic)
}

// sequence builds the candidate list: declared classes, then for primitive
// generics any implicit classes not already present, then "default".
func (r *Resolver) sequence(generic string, classes, implicit ClassVector) (ClassVector, int) {
	seq := make(ClassVector, 0, len(classes)+len(implicit)+1)
	seq = append(seq, classes...)
	implicitStart := len(seq)
	if r.table.IsPrimitive(generic) {
		for _, tag := range implicit {
			if tag == DefaultClass || seq.Contains(tag) {
				continue
			}
			seq = append(seq, tag)
		}
	}
	return append(seq, DefaultClass), implicitStart
}

// Dispatch invokes the first method registered for generic along the
// receiver's candidate sequence. The method sees a context carrying the
// chain's State, through which NextMethod continues the walk.
//
// Dispatch fails with a *NoApplicableMethodError when no candidate matches,
// in which case no method runs. Errors returned by the method are passed
// through unchanged. A nil ctx is treated as context.Background().
func (r *Resolver) Dispatch(ctx context.Context, generic string, obj *Object, args *Args) (any, error) {
	if generic == "" {
		return nil, ErrInvalidGeneric
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if args == nil {
		args = &Args{}
	}

	classes, implicit := obj.snapshot()
	seq, _ := r.sequence(generic, classes, implicit)
	chain := uuid.NewString()

	for i, tag := range seq {
		entry := r.table.Lookup(generic, tag)
		if entry == nil {
			continue
		}

		st := &State{
			chain:    chain,
			generic:  generic,
			object:   obj,
			declared: classes,
			sequence: seq,
			index:    i,
			args:     args,
			resolver: r,
		}
		defer st.closed.Store(true)

		r.log.Debugf("dispatch %s on %s: selected %q", generic, classes, tag)
		r.emit(Event{Chain: chain, Kind: EventDispatch, Generic: generic, Sequence: seq.Clone(), Class: tag, Index: i})
		return entry.Impl(withState(ctx, st), obj, args)
	}

	last := len(seq) - 1
	r.log.Debugf("dispatch %s on %s: no applicable method", generic, classes)
	r.emit(Event{Chain: chain, Kind: EventNoMethod, Generic: generic, Sequence: seq.Clone(), Class: seq[last], Index: last})
	return nil, &NoApplicableMethodError{Generic: generic, Classes: classes}
}

// NextMethod invokes the next method along the sequence of the generic call
// running on ctx. It must be called from a method body with the context that
// method received. The receiver and *Args are the ones the chain started
// with.
//
// If no later candidate has a method, NextMethod returns a
// *NoNextMethodError and the chain's position is unchanged.
func NextMethod(ctx context.Context) (any, error) {
	st, ok := CurrentState(ctx)
	if !ok || !st.Active() {
		return nil, ErrNoGenericInContext
	}
	return st.resolver.next(ctx, st)
}

func (r *Resolver) next(ctx context.Context, st *State) (any, error) {
	for i := st.index + 1; i < len(st.sequence); i++ {
		tag := st.sequence[i]
		entry := r.table.Lookup(st.generic, tag)
		if entry == nil {
			continue
		}

		st.index = i
		r.log.Debugf("next method %s: %q", st.generic, tag)
		r.emit(Event{Chain: st.chain, Kind: EventNext, Generic: st.generic, Sequence: st.Sequence(), Class: tag, Index: i})
		return entry.Impl(ctx, st.object, st.args)
	}

	r.log.Debugf("next method %s: chain exhausted after %q", st.generic, st.Class())
	r.emit(Event{Chain: st.chain, Kind: EventNoNext, Generic: st.generic, Sequence: st.Sequence(), Class: st.Class(), Index: st.index})
	return nil, &NoNextMethodError{Generic: st.generic, Sequence: st.Sequence(), Index: st.index}
}

func (r *Resolver) emit(ev Event) {
	if r.observer != nil {
		r.observer.Observe(ev)
	}
}

// Candidate is one entry of a Resolution.
type Candidate struct {
	Class      ClassTag
	Implicit   bool
	Registered bool
	Label      string
}

// Resolution lists the candidates a call would walk, without running any
// method.
type Resolution struct {
	Generic    string
	Classes    ClassVector
	Candidates []Candidate
	// Selected is the index of the method Dispatch would invoke, or -1.
	Selected int
}

// Resolve computes the candidate sequence for generic on obj and marks
// which candidates have methods.
func (r *Resolver) Resolve(generic string, obj *Object) (*Resolution, error) {
	if generic == "" {
		return nil, ErrInvalidGeneric
	}

	classes, implicit := obj.snapshot()
	seq, implicitStart := r.sequence(generic, classes, implicit)
	res := &Resolution{
		Generic:    generic,
		Classes:    classes,
		Candidates: make([]Candidate, len(seq)),
		Selected:   -1,
	}
	for i, tag := range seq {
		c := Candidate{Class: tag, Implicit: i >= implicitStart && i < len(seq)-1}
		if entry := r.table.Lookup(generic, tag); entry != nil {
			c.Registered = true
			c.Label = entry.Label
			if res.Selected < 0 {
				res.Selected = i
			}
		}
		res.Candidates[i] = c
	}
	return res, nil
}

// Chain returns the classes whose methods a full NextMethod chain would
// visit, in order, starting with the selected one.
func (res *Resolution) Chain() ClassVector {
	var out ClassVector
	for _, c := range res.Candidates {
		if c.Registered {
			out = append(out, c.Class)
		}
	}
	return out
}

// String renders the resolution one candidate per line: "=>" marks the
// method Dispatch selects, "->" methods reachable through NextMethod.
func (res *Resolution) String() string {
	var sb strings.Builder
	for i, c := range res.Candidates {
		switch {
		case i == res.Selected:
			sb.WriteString("=> ")
		case c.Registered:
			sb.WriteString("-> ")
		default:
			sb.WriteString("   ")
		}
		sb.WriteString(res.Generic)
		sb.WriteByte('.')
		sb.WriteString(string(c.Class))
		if c.Implicit {
			sb.WriteString(" (implicit)")
		}
		if c.Label != "" {
			sb.WriteString("  # ")
			sb.WriteString(c.Label)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
