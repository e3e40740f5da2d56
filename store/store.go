// Package store provides vector collections: a fixed- or growing-size,
// randomly indexable set of float32 feature vectors consumed by the vptree
// and cluster packages.
//
// Stores are read-only/shared for the duration of an index or clustering
// call; only Append mutates a store, and never concurrently with readers.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is returned when appending to a store that cannot grow.
	ErrReadOnly = errors.New("store: read-only store")
	// ErrEmptyVector is returned when appending a zero-length vector to an
	// empty store (the dimension would be unset).
	ErrEmptyVector = errors.New("store: empty vector")
)

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// Store is a random-access collection of fixed-length vectors.
//
// Vector returns a slice aliasing internal memory; callers must not mutate it.
type Store interface {
	// Len returns the number of vectors in the store.
	Len() int

	// Dims returns the vector dimensionality (0 while the store is empty).
	Dims() int

	// Vector returns the vector at index i. It panics if i is out of range,
	// mirroring slice indexing.
	Vector(i int) []float32
}

// Appender is implemented by stores that support incremental growth.
type Appender interface {
	// Append adds v and returns its index. The first vector fixes the
	// store dimension; later vectors must match it.
	Append(v []float32) (int, error)
}
