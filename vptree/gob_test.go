package vptree

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
	"github.com/hupe1980/metrigo/testutil"
)

func TestGobRoundTrip(t *testing.T) {
	rng := testutil.NewRNG(7)
	tree := buildTree(t, rng.UniformVectors(150, 3), distance.MetricManhattan, func(o *Options) {
		o.LeafCapacity = 4
		o.Selection = SelectSampling
	})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(tree))

	decoded := new(VPTree)
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	assert.Equal(t, tree.Len(), decoded.Len())
	assert.Equal(t, tree.Metric(), decoded.Metric())

	for qi := 0; qi < 20; qi++ {
		q := rng.UniformVectors(1, 3)[0]

		want, err := tree.KNNSearch(q, 5, nil)
		require.NoError(t, err)
		got, err := decoded.KNNSearch(q, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got, "query %d", qi)
	}
}

func TestGobRoundTripEmpty(t *testing.T) {
	tree, err := New(store.NewMemory(0), distance.MetricEuclidean)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(tree))

	decoded := new(VPTree)
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))
	assert.Equal(t, 0, decoded.Len())

	// The decoded tree is backed by a fresh in-memory store and grows.
	_, err = decoded.Insert([]float32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Len())
}

func TestGobDecodedTreeIsMutable(t *testing.T) {
	tree := buildTree(t, testutil.Line1D(30), distance.MetricEuclidean)

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(tree))

	decoded := new(VPTree)
	require.NoError(t, gob.NewDecoder(&buf).Decode(decoded))

	id, err := decoded.Insert([]float32{14.5})
	require.NoError(t, err)
	assert.Equal(t, uint32(30), id)

	got, err := decoded.KNNSearch([]float32{14.5}, 1, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(30), got[0].ID)
	assert.Zero(t, got[0].Distance)
}
