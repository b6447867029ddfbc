// Package vector provides a generic, contiguous, growable sequence container.
//
// A [Vector] owns one block of storage sized by its capacity and keeps its
// live elements in the first Len() slots. Element copies and destruction go
// through a [Lifecycle], so element types whose copy can fail are handled
// with the strong guarantee:
//
//   - [Vector.Reserve], [Vector.ShrinkToFit], [Vector.PushBack] and
//     [Vector.Insert] leave the vector untouched when a copy fails.
//   - [Vector.Clone] releases everything it built before returning the error.
//   - [Vector.Assign] builds the new contents first and only then swaps.
//
// # Example
//
//	var v vector.Vector[int]
//	for i := 0; i < 200; i++ {
//		_ = v.PushBack(i)
//	}
//	v.Insert(v.Begin(), -1)
//	v.Erase(v.Begin() + 2)
//
// # Thread Safety
//
// Vector instances are NOT thread-safe. Concurrent mutation, or mutation
// concurrent with reads, must be serialized by the caller.
package vector
