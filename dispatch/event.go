package dispatch

// EventKind classifies a dispatch event.
type EventKind uint8

const (
	EventDispatch EventKind = iota // Dispatch selected a method
	EventNext                      // NextMethod selected a method
	EventNoMethod                  // Dispatch found nothing
	EventNoNext                    // NextMethod ran off the end of the chain
)

func (k EventKind) String() string {
	switch k {
	case EventDispatch:
		return "dispatch"
	case EventNext:
		return "next"
	case EventNoMethod:
		return "no-method"
	case EventNoNext:
		return "no-next"
	default:
		return "unknown"
	}
}

// Event describes one resolution step of a dispatch chain. Class and Index
// name the selected candidate, or the last position reached on failure.
type Event struct {
	Chain    string
	Kind     EventKind
	Generic  string
	// Sequence is a copy; writing to it does not affect the chain.
	Sequence ClassVector
	Class    ClassTag
	Index    int
}

// Observer receives dispatch events. Observe is called synchronously on the
// dispatching goroutine before the selected method runs.
type Observer interface {
	Observe(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }
