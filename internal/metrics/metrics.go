package metrics

import "github.com/san-kum/dynvec/internal/vector"

// Metric accumulates vector events into a single value.
type Metric interface {
	vector.Observer
	Name() string
	Value() float64
	Reset()
}

// EventCount counts events of one kind.
type EventCount struct {
	name string
	kind vector.EventKind
	n    int
}

func NewEventCount(kind vector.EventKind) *EventCount {
	return &EventCount{name: countName(kind), kind: kind}
}

func countName(kind vector.EventKind) string {
	switch kind {
	case vector.EventAllocate:
		return "allocations"
	case vector.EventRelease:
		return "releases"
	case vector.EventCopy:
		return "copies"
	case vector.EventDestroy:
		return "destructions"
	}
	return kind.String()
}

func (c *EventCount) Name() string { return c.name }

func (c *EventCount) Observe(e vector.Event) {
	if e.Kind == c.kind {
		c.n++
	}
}

func (c *EventCount) Value() float64 { return float64(c.n) }
func (c *EventCount) Reset()         { c.n = 0 }

// PeakCapacity tracks the largest block ever allocated.
type PeakCapacity struct {
	peak int
}

func NewPeakCapacity() *PeakCapacity { return &PeakCapacity{} }

func (p *PeakCapacity) Name() string { return "peak_capacity" }

func (p *PeakCapacity) Observe(e vector.Event) {
	if e.Kind == vector.EventAllocate && e.Capacity > p.peak {
		p.peak = e.Capacity
	}
}

func (p *PeakCapacity) Value() float64 { return float64(p.peak) }
func (p *PeakCapacity) Reset()         { p.peak = 0 }

// Set fans events out to every metric it holds.
type Set []Metric

// Default returns the metrics recorded for every run.
func Default() Set {
	return Set{
		NewEventCount(vector.EventAllocate),
		NewEventCount(vector.EventRelease),
		NewEventCount(vector.EventCopy),
		NewEventCount(vector.EventDestroy),
		NewPeakCapacity(),
	}
}

func (s Set) Observe(e vector.Event) {
	for _, m := range s {
		m.Observe(e)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}
