package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)

	va := a.UniformVectors(10, 4)
	vb := b.UniformVectors(10, 4)
	assert.Equal(t, va, vb)

	a.Reset()
	assert.Equal(t, vb, a.UniformVectors(10, 4))
}

func TestUniformVectorsShape(t *testing.T) {
	vs := NewRNG(1).UniformVectors(5, 3)
	require.Len(t, vs, 5)
	for _, v := range vs {
		require.Len(t, v, 3)
		for _, x := range v {
			assert.GreaterOrEqual(t, x, float32(-1))
			assert.Less(t, x, float32(1))
		}
	}
}

func TestGaussianBlobs(t *testing.T) {
	centers := [][]float32{{0, 0}, {10, 10}}
	vs := NewRNG(7).GaussianBlobs(centers, 25, 0.1)
	require.Len(t, vs, 50)

	// First 25 points hug the first center.
	for _, v := range vs[:25] {
		assert.InDelta(t, 0, v[0], 1)
		assert.InDelta(t, 0, v[1], 1)
	}
	for _, v := range vs[25:] {
		assert.InDelta(t, 10, v[0], 1)
	}
}

func TestLine1D(t *testing.T) {
	vs := Line1D(4)
	assert.Equal(t, [][]float32{{0}, {1}, {2}, {3}}, vs)
}
