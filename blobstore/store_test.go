package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()

	local, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	return map[string]Store{
		"memory":    NewMemoryStore(),
		"local":     local,
		"throttled": NewThrottled(NewMemoryStore(), rate.NewLimiter(rate.Inf, 1<<20)),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			payload := []byte("hello blob")
			require.NoError(t, s.Put(ctx, "a", payload))

			b, err := s.Open(ctx, "a")
			require.NoError(t, err)
			defer b.Close()

			assert.Equal(t, int64(len(payload)), b.Size())

			got := make([]byte, len(payload))
			n, err := b.ReadAt(ctx, got, 0)
			require.NoError(t, err)
			assert.Equal(t, len(payload), n)
			assert.Equal(t, payload, got)

			all, err := ReadAll(ctx, s, "a")
			require.NoError(t, err)
			assert.Equal(t, payload, all)
		})
	}
}

func TestStoreOpenMissing(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Open(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStorePutOverwrites(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "a", []byte("one")))
			require.NoError(t, s.Put(ctx, "a", []byte("two")))

			all, err := ReadAll(ctx, s, "a")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), all)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "a", []byte("x")))
			require.NoError(t, s.Delete(ctx, "a"))

			_, err := s.Open(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)

			// Deleting again is not an error.
			assert.NoError(t, s.Delete(ctx, "a"))
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "snap-b", []byte("1")))
			require.NoError(t, s.Put(ctx, "snap-a", []byte("2")))
			require.NoError(t, s.Put(ctx, "other", []byte("3")))

			names, err := s.List(ctx, "snap-")
			require.NoError(t, err)
			assert.Equal(t, []string{"snap-a", "snap-b"}, names)

			all, err := s.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"other", "snap-a", "snap-b"}, all)
		})
	}
}

func TestLocalStoreRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.Put(ctx, "../escape", []byte("x")))
	_, err = s.Open(ctx, "a/b")
	assert.Error(t, err)
}

func TestThrottledRespectsContext(t *testing.T) {
	// A zero-rate limiter can never serve the request; the write must
	// fail with the context error instead of blocking forever.
	s := NewThrottled(NewMemoryStore(), rate.NewLimiter(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Put(ctx, "a", []byte("payload"))
	assert.Error(t, err)
}
