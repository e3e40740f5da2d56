package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for storing and retrieving immutable data blobs.
type Store interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put writes a blob atomically: a concurrent Open observes either the
	// previous content or the new content, never a partial write.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all blobs with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	io.Closer
}

// Mappable is an optional interface for Blobs that expose their content as
// a byte slice without copying. The slice is valid until the Blob is
// closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadAll reads the entire content of a named blob.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	b, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	if m, ok := b.(Mappable); ok {
		raw, err := m.Bytes()
		if err == nil {
			out := make([]byte, len(raw))
			copy(out, raw)
			return out, nil
		}
	}

	out := make([]byte, b.Size())
	if _, err := b.ReadAt(ctx, out, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return out, nil
}
