package vector

// Lifecycle describes how elements of type T are copied and destroyed.
//
// Copy may fail, either by returning an error or by panicking; the vector
// cleans up after itself in both cases. Destroy must not fail.
type Lifecycle[T any] interface {
	Copy(src T) (T, error)
	Destroy(v T)
}

// Values is the Lifecycle used when none is configured: copies are plain
// assignments and destruction is a no-op.
type Values[T any] struct{}

func (Values[T]) Copy(src T) (T, error) { return src, nil }
func (Values[T]) Destroy(T)             {}
