// Package vectortest provides an instrumented element type for exercising
// vector.Vector: every instance is tracked so leaks, double destruction and
// use after destruction are detected, and copies can be made to fail after
// a countdown.
package vectortest

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/san-kum/dynvec/internal/vector"
)

// ErrCopyFailed is returned by Tracker.Copy when the throw countdown hits
// zero.
var ErrCopyFailed = errors.New("vectortest: copy failed")

// Element is a tracked value. Its identity is id; two elements with the
// same Val are distinct instances.
type Element[V comparable] struct {
	id  uint64
	Val V
}

func (e Element[V]) ID() uint64 { return e.id }

// Tracker creates, copies and destroys Elements and records every misuse.
// It implements vector.Lifecycle[Element[V]]. A Tracker is not safe for
// concurrent use.
type Tracker[V comparable] struct {
	live       map[uint64]struct{}
	next       uint64
	countdown  int
	panics     bool
	violations []error

	copies   int
	destroys int
}

var _ vector.Lifecycle[Element[int]] = (*Tracker[int])(nil)

func NewTracker[V comparable]() *Tracker[V] {
	return &Tracker[V]{live: make(map[uint64]struct{})}
}

// New constructs a fresh instance holding val.
func (t *Tracker[V]) New(val V) Element[V] {
	t.next++
	t.live[t.next] = struct{}{}
	return Element[V]{id: t.next, Val: val}
}

// Copy copy-constructs a new instance from src. When the countdown is
// armed, the copy that brings it to zero fails.
func (t *Tracker[V]) Copy(src Element[V]) (Element[V], error) {
	t.assertLive("copy from", src)
	if t.countdown != 0 {
		t.countdown--
		if t.countdown == 0 {
			if t.panics {
				panic(ErrCopyFailed)
			}
			return Element[V]{}, ErrCopyFailed
		}
	}
	t.copies++
	return t.New(src.Val), nil
}

// Destroy ends the lifetime of e.
func (t *Tracker[V]) Destroy(e Element[V]) {
	if _, ok := t.live[e.id]; !ok {
		t.violations = append(t.violations, fmt.Errorf("destroying non-existing instance %d", e.id))
		return
	}
	delete(t.live, e.id)
	t.destroys++
}

// Value reads e, recording a violation if it is no longer alive.
func (t *Tracker[V]) Value(e Element[V]) V {
	t.assertLive("reading", e)
	return e.Val
}

// Equal compares two live instances by value.
func (t *Tracker[V]) Equal(a, b Element[V]) bool {
	return t.Value(a) == t.Value(b)
}

// SetThrowCountdown arms the countdown: the n-th copy from now fails.
// Zero disarms it.
func (t *Tracker[V]) SetThrowCountdown(n int) {
	t.countdown = n
}

// SetPanic makes the failing copy panic with ErrCopyFailed instead of
// returning it.
func (t *Tracker[V]) SetPanic(on bool) {
	t.panics = on
}

func (t *Tracker[V]) Live() int     { return len(t.live) }
func (t *Tracker[V]) Copies() int   { return t.copies }
func (t *Tracker[V]) Destroys() int { return t.destroys }

// Violations returns the misuse recorded so far.
func (t *Tracker[V]) Violations() []error {
	return append([]error(nil), t.violations...)
}

// Verify returns every recorded violation plus a leak error if any
// instance is still alive.
func (t *Tracker[V]) Verify() error {
	err := multierr.Combine(t.violations...)
	if n := len(t.live); n > 0 {
		err = multierr.Append(err, fmt.Errorf("not all instances are destroyed: %d alive", n))
	}
	return err
}

// Reset forgets all instances and violations and disarms the countdown.
func (t *Tracker[V]) Reset() {
	clear(t.live)
	t.violations = nil
	t.countdown = 0
	t.panics = false
	t.copies, t.destroys = 0, 0
}

func (t *Tracker[V]) assertLive(op string, e Element[V]) {
	if _, ok := t.live[e.id]; !ok {
		t.violations = append(t.violations, fmt.Errorf("%s non-existing instance %d", op, e.id))
	}
}

// Temp constructs a temporary instance of val, passes it to fn and
// destroys it afterwards, the way a temporary argument lives for the
// duration of a call.
func (t *Tracker[V]) Temp(val V, fn func(Element[V]) error) error {
	e := t.New(val)
	defer t.Destroy(e)
	return fn(e)
}

// Values extracts the values of a vector of tracked elements, checking
// each one is alive.
func (t *Tracker[V]) Values(v *vector.Vector[Element[V]]) []V {
	out := make([]V, 0, v.Len())
	for _, e := range v.All() {
		out = append(out, t.Value(e))
	}
	return out
}
