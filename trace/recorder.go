// Package trace records dispatch chains for later inspection.
//
// A [Recorder] is a dispatch.Observer. Install it with dispatch.WithObserver,
// run some calls, then take a [Recording], which groups events by chain and
// can be written as canonical CBOR or YAML.
package trace

import (
	"sync"

	"github.com/chazu/classdispatch/dispatch"
)

// Step is one resolution step within a chain.
type Step struct {
	Kind  string `cbor:"kind" yaml:"kind"`
	Class string `cbor:"class" yaml:"class"`
	Index int    `cbor:"index" yaml:"index"`
}

// Chain is the recorded history of one generic call.
type Chain struct {
	ID       string   `cbor:"id" yaml:"id"`
	Generic  string   `cbor:"generic" yaml:"generic"`
	Sequence []string `cbor:"sequence" yaml:"sequence"`
	Steps    []Step   `cbor:"steps" yaml:"steps"`
}

// Succeeded reports whether the chain ended without a resolution failure.
func (c *Chain) Succeeded() bool {
	if len(c.Steps) == 0 {
		return false
	}
	last := c.Steps[len(c.Steps)-1].Kind
	return last != dispatch.EventNoMethod.String() && last != dispatch.EventNoNext.String()
}

// Recording is a set of chains in the order they started.
type Recording struct {
	Chains []Chain `cbor:"chains" yaml:"chains"`
}

// Recorder collects dispatch events. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []dispatch.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Observe implements dispatch.Observer.
func (r *Recorder) Observe(ev dispatch.Event) {
	ev.Sequence = ev.Sequence.Clone()
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the raw events in arrival order.
func (r *Recorder) Events() []dispatch.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]dispatch.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Recording groups the events recorded so far by chain.
func (r *Recorder) Recording() *Recording {
	events := r.Events()

	rec := &Recording{}
	byID := make(map[string]int)
	for _, ev := range events {
		i, ok := byID[ev.Chain]
		if !ok {
			i = len(rec.Chains)
			byID[ev.Chain] = i
			rec.Chains = append(rec.Chains, Chain{
				ID:       ev.Chain,
				Generic:  ev.Generic,
				Sequence: ev.Sequence.Strings(),
			})
		}
		rec.Chains[i].Steps = append(rec.Chains[i].Steps, Step{
			Kind:  ev.Kind.String(),
			Class: string(ev.Class),
			Index: ev.Index,
		})
	}
	return rec
}
