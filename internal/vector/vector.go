package vector

import (
	"iter"
	"math"
)

// Vector is a contiguous, growable sequence of T.
//
// The zero value is an empty vector with no storage, copying elements by
// assignment and growing by doubling.
type Vector[T any] struct {
	// len(buf) is the capacity; buf is nil iff the capacity is zero.
	// buf[:size] are live elements, buf[size:] are unconstructed slots.
	buf  []T
	size int

	lc     Lifecycle[T]
	growth GrowthPolicy
	obs    Observer
}

// Option configures a Vector built by New.
type Option[T any] func(*Vector[T])

func WithLifecycle[T any](lc Lifecycle[T]) Option[T] {
	return func(v *Vector[T]) { v.lc = lc }
}

func WithGrowth[T any](p GrowthPolicy) Option[T] {
	return func(v *Vector[T]) { v.growth = p }
}

func WithObserver[T any](o Observer) Option[T] {
	return func(v *Vector[T]) { v.obs = o }
}

// New returns an empty vector. No storage is allocated.
func New[T any](opts ...Option[T]) *Vector[T] {
	v := &Vector[T]{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Vector[T]) lifecycle() Lifecycle[T] {
	if v.lc == nil {
		return Values[T]{}
	}
	return v.lc
}

func (v *Vector[T]) policy() GrowthPolicy {
	if v.growth == nil {
		return Doubling
	}
	return v.growth
}

func (v *Vector[T]) wrap(op string, err error) error {
	return &OpError{Op: op, Len: v.size, Cap: len(v.buf), Err: err}
}

// Clone returns a deep copy holding exactly Len() elements. The clone
// shares the lifecycle, growth policy and observer of v but no storage.
func (v *Vector[T]) Clone() (*Vector[T], error) {
	c := &Vector[T]{lc: v.lc, growth: v.growth, obs: v.obs}
	buf, err := v.duplicate(v.Slice())
	if err != nil {
		return nil, v.wrap("clone", err)
	}
	c.buf, c.size = buf, v.size
	return c, nil
}

// Assign replaces the contents of v with copies of the elements of src.
// Assigning a vector to itself does nothing. If a copy fails, v is left
// unmodified.
func (v *Vector[T]) Assign(src *Vector[T]) error {
	if v == src {
		return nil
	}

	tmp := &Vector[T]{lc: v.lc, growth: v.growth, obs: v.obs}
	buf, err := v.duplicate(src.Slice())
	if err != nil {
		return v.wrap("assign", err)
	}
	tmp.buf, tmp.size = buf, src.size

	v.Swap(tmp)
	tmp.Destroy()
	return nil
}

// Swap exchanges the complete state of v and other.
func (v *Vector[T]) Swap(other *Vector[T]) {
	*v, *other = *other, *v
}

// Destroy destroys every element in order and releases the storage. The
// vector is empty and reusable afterwards.
func (v *Vector[T]) Destroy() {
	v.destroyAll(v.buf[:v.size])
	v.release(v.buf)
	v.buf, v.size = nil, 0
}

func (v *Vector[T]) Len() int    { return v.size }
func (v *Vector[T]) Cap() int    { return len(v.buf) }
func (v *Vector[T]) Empty() bool { return v.size == 0 }

// At returns the element at index i.
func (v *Vector[T]) At(i int) T {
	return *v.Ref(i)
}

// Ref returns a pointer to the element at index i. It stays valid until the
// next operation that reallocates or frees storage.
func (v *Vector[T]) Ref(i int) *T {
	if i < 0 || i >= v.size {
		panic(outOfRange("index", i, v.size))
	}
	return &v.buf[i]
}

func (v *Vector[T]) Front() T     { return *v.FrontRef() }
func (v *Vector[T]) Back() T      { return *v.BackRef() }
func (v *Vector[T]) FrontRef() *T { return v.edge("front", 0) }
func (v *Vector[T]) BackRef() *T  { return v.edge("back", v.size-1) }

func (v *Vector[T]) edge(op string, i int) *T {
	if v.size == 0 {
		panic("vector: " + op + " on empty vector")
	}
	return &v.buf[i]
}

// Data returns the address of the first storage slot, or nil when no
// storage is allocated. A vector emptied by PopBack or Clear keeps its
// storage, so Data is non-nil until ShrinkToFit or Destroy.
func (v *Vector[T]) Data() *T {
	if len(v.buf) == 0 {
		return nil
	}
	return &v.buf[0]
}

// Slice returns the live elements as a slice sharing the vector's storage.
// Its capacity is clipped to Len() so appending to it never writes into the
// vector's unconstructed slots.
func (v *Vector[T]) Slice() []T {
	if v.buf == nil {
		return nil
	}
	return v.buf[:v.size:v.size]
}

// Begin and End are the positions of the first element and one past the
// last; Begin()+k addresses the k-th element.
func (v *Vector[T]) Begin() int { return 0 }
func (v *Vector[T]) End() int   { return v.size }

// All yields index/element pairs front to back.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.size; i++ {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Backward yields index/element pairs back to front.
func (v *Vector[T]) Backward() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := v.size - 1; i >= 0; i-- {
			if !yield(i, v.buf[i]) {
				return
			}
		}
	}
}

// Reserve grows the capacity to at least n. It never shrinks.
func (v *Vector[T]) Reserve(n int) error {
	if n <= len(v.buf) {
		return nil
	}
	if err := v.reallocate(n); err != nil {
		return v.wrap("reserve", err)
	}
	return nil
}

// ShrinkToFit reallocates to exactly Len() slots, releasing the storage
// entirely when the vector is empty. It does nothing when already tight.
func (v *Vector[T]) ShrinkToFit() error {
	if len(v.buf) == v.size {
		return nil
	}
	if err := v.reallocate(v.size); err != nil {
		return v.wrap("shrink_to_fit", err)
	}
	return nil
}

// Clear destroys all elements and keeps the storage.
func (v *Vector[T]) Clear() {
	v.destroyAll(v.buf[:v.size])
	v.size = 0
}

// PushBack appends a copy of value. value may refer to an element of v
// itself: it is copied before any reallocation.
func (v *Vector[T]) PushBack(value T) error {
	return v.insert("push_back", v.size, value)
}

// PopBack destroys the last element. The capacity is unchanged.
func (v *Vector[T]) PopBack() {
	if v.size == 0 {
		panic("vector: pop_back on empty vector")
	}
	v.destroyOne(&v.buf[v.size-1])
	v.size--
}

// Insert places a copy of value at position pos, shifting the elements at
// and after pos one slot later. pos == End() appends.
func (v *Vector[T]) Insert(pos int, value T) error {
	if pos < 0 || pos > v.size {
		panic(outOfRange("insert", pos, v.size+1))
	}
	return v.insert("insert", pos, value)
}

func (v *Vector[T]) insert(op string, pos int, value T) error {
	c, err := v.copyElem(value)
	if err != nil {
		return v.wrap(op, err)
	}

	placed := false
	defer func() {
		if !placed {
			v.destroyOne(&c)
		}
	}()

	if v.size == len(v.buf) {
		if v.size == math.MaxInt {
			panic(errCapacityOverflow)
		}
		n := v.policy().Grow(len(v.buf), v.size+1)
		if n <= v.size {
			n = v.size + 1
		}
		if err := v.reallocate(n); err != nil {
			return v.wrap(op, err)
		}
	}

	copy(v.buf[pos+1:v.size+1], v.buf[pos:v.size])
	v.buf[pos] = c
	v.size++
	placed = true
	return nil
}

// Erase destroys the element at pos and shifts the following elements one
// slot earlier. The capacity is unchanged.
func (v *Vector[T]) Erase(pos int) {
	if pos < 0 || pos >= v.size {
		panic(outOfRange("erase", pos, v.size))
	}

	var zero T
	v.lifecycle().Destroy(v.buf[pos])
	v.emit(Event{Kind: EventDestroy})
	copy(v.buf[pos:v.size-1], v.buf[pos+1:v.size])
	v.buf[v.size-1] = zero
	v.size--
}

// Equal reports whether a and b hold the same number of elements and eq
// holds pairwise.
func Equal[T any](a, b *Vector[T], eq func(T, T) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.size; i++ {
		if !eq(a.buf[i], b.buf[i]) {
			return false
		}
	}
	return true
}
