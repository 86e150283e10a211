package dispatch

import (
	"context"
	"sync/atomic"
)

// State tracks one in-flight generic call. Dispatch creates it when a method
// is found and attaches it to the method's context; NextMethod advances it.
// The candidate sequence is captured when the call starts and never changes,
// even if a method re-classes the receiver.
type State struct {
	chain    string
	generic  string
	object   *Object
	declared ClassVector
	sequence ClassVector
	index    int
	args     *Args
	resolver *Resolver
	closed   atomic.Bool
}

type stateKey struct{}

func withState(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

// CurrentState returns the dispatch state of the innermost generic call
// running on ctx.
func CurrentState(ctx context.Context) (*State, bool) {
	if ctx == nil {
		return nil, false
	}
	st, ok := ctx.Value(stateKey{}).(*State)
	return st, ok && st != nil
}

// Chain returns the identifier shared by every event of this call.
func (s *State) Chain() string { return s.chain }

// Generic returns the generic being dispatched.
func (s *State) Generic() string { return s.generic }

// Object returns the receiver.
func (s *State) Object() *Object { return s.object }

// Args returns the argument bindings the chain was started with.
func (s *State) Args() *Args { return s.args }

// Index returns the position of the running method in Sequence.
func (s *State) Index() int { return s.index }

// Class returns the tag the running method was found under.
func (s *State) Class() ClassTag { return s.sequence[s.index] }

// Sequence returns a copy of the candidate sequence being walked.
func (s *State) Sequence() ClassVector { return s.sequence.Clone() }

// Declared returns the receiver's class vector as it was when the call
// started.
func (s *State) Declared() ClassVector { return s.declared.Clone() }

// Remaining returns the candidates after the running method.
func (s *State) Remaining() ClassVector {
	return s.sequence[s.index+1:].Clone()
}

// Active reports whether the originating Dispatch call is still running.
func (s *State) Active() bool { return !s.closed.Load() }
