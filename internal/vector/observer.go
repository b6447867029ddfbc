package vector

// EventKind classifies storage and element events.
type EventKind int

const (
	EventAllocate EventKind = iota
	EventRelease
	EventCopy
	EventDestroy
)

func (k EventKind) String() string {
	switch k {
	case EventAllocate:
		return "allocate"
	case EventRelease:
		return "release"
	case EventCopy:
		return "copy"
	case EventDestroy:
		return "destroy"
	}
	return "unknown"
}

// Event is emitted to an Observer. Capacity is set for allocate and release.
// Replaces is set on an allocate that moves the live elements out of an
// existing block of that capacity, as growth and shrinking do.
type Event struct {
	Kind     EventKind
	Capacity int
	Replaces int
}

// Observer receives storage and element events from a Vector.
type Observer interface {
	Observe(e Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
