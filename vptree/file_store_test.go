package vptree

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
	"github.com/hupe1980/metrigo/testutil"
)

func TestSearchOverFileStore(t *testing.T) {
	rng := testutil.NewRNG(11)
	vectors := rng.UniformVectors(120, 4)
	mem, err := store.NewMemoryFromVectors(vectors)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "points.mtg")
	require.NoError(t, store.WriteFile(path, mem))

	f, err := store.OpenFile(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	tree, err := New(f, distance.MetricEuclidean)
	require.NoError(t, err)
	ref, err := New(mem, distance.MetricEuclidean)
	require.NoError(t, err)

	for qi := 0; qi < 10; qi++ {
		q := rng.UniformVectors(1, 4)[0]

		got, err := tree.KNNSearch(q, 4, nil)
		require.NoError(t, err)
		want, err := ref.KNNSearch(q, 4, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %d", qi)
	}

	// mmap-backed stores are read-only.
	_, err = tree.Insert([]float32{0, 0, 0, 0})
	assert.ErrorIs(t, err, store.ErrReadOnly)
}
