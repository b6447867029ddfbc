package vector

import "fmt"

// OpError reports a failed element copy together with the operation that
// was running and the vector's dimensions, which are the same before and
// after the failed call.
type OpError struct {
	Op  string
	Len int
	Cap int
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("vector: %s (len=%d, cap=%d): %v", e.Op, e.Len, e.Cap, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func outOfRange(op string, i, n int) string {
	return fmt.Sprintf("vector: %s: index %d out of range [0:%d]", op, i, n)
}

const errCapacityOverflow = "vector: capacity overflow"
