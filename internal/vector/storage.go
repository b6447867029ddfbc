package vector

// block is a freshly allocated storage block that is filled front to back.
// Until commit is called it owns the elements copied into it, and rollback
// destroys them and releases the block. rollback is meant to be deferred so
// that both error returns and panics from Lifecycle.Copy are covered.
type block[T any] struct {
	v     *Vector[T]
	buf   []T
	built int
	done  bool
}

// newBlock allocates n slots. replaces is the capacity of the block the new
// one will take over from, or 0.
func (v *Vector[T]) newBlock(n, replaces int) *block[T] {
	return &block[T]{v: v, buf: v.allocate(n, replaces)}
}

// fill copy-constructs src into the block, in order, after what is already
// built.
func (b *block[T]) fill(src []T) error {
	for i := range src {
		c, err := b.v.copyElem(src[i])
		if err != nil {
			return err
		}
		b.buf[b.built] = c
		b.built++
	}
	return nil
}

func (b *block[T]) commit() []T {
	b.done = true
	return b.buf
}

func (b *block[T]) rollback() {
	if b.done {
		return
	}
	b.done = true
	b.v.destroyAll(b.buf[:b.built])
	b.v.release(b.buf)
}

// allocate returns n unconstructed slots, or nil for n == 0.
func (v *Vector[T]) allocate(n, replaces int) []T {
	if n == 0 {
		return nil
	}
	buf := make([]T, n)
	v.emit(Event{Kind: EventAllocate, Capacity: n, Replaces: replaces})
	return buf
}

func (v *Vector[T]) release(buf []T) {
	if len(buf) == 0 {
		return
	}
	v.emit(Event{Kind: EventRelease, Capacity: len(buf)})
}

func (v *Vector[T]) copyElem(src T) (T, error) {
	c, err := v.lifecycle().Copy(src)
	if err != nil {
		var zero T
		return zero, err
	}
	v.emit(Event{Kind: EventCopy})
	return c, nil
}

func (v *Vector[T]) destroyOne(slot *T) {
	var zero T
	v.lifecycle().Destroy(*slot)
	*slot = zero
	v.emit(Event{Kind: EventDestroy})
}

// destroyAll destroys the elements of s in order and clears their slots.
func (v *Vector[T]) destroyAll(s []T) {
	for i := range s {
		v.destroyOne(&s[i])
	}
}

// reallocate moves the live elements into a new block of capacity n. On
// failure the vector is left exactly as it was.
func (v *Vector[T]) reallocate(n int) error {
	b := v.newBlock(n, len(v.buf))
	defer b.rollback()

	if err := b.fill(v.buf[:v.size]); err != nil {
		return err
	}

	old := v.buf
	v.destroyAll(old[:v.size])
	v.release(old)
	v.buf = b.commit()
	return nil
}

// duplicate copy-constructs src into a block of exactly len(src) slots.
func (v *Vector[T]) duplicate(src []T) ([]T, error) {
	b := v.newBlock(len(src), 0)
	defer b.rollback()

	if err := b.fill(src); err != nil {
		return nil, err
	}
	return b.commit(), nil
}

func (v *Vector[T]) emit(e Event) {
	if v.obs != nil {
		v.obs.Observe(e)
	}
}
