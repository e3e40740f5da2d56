package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/blobstore"
	"github.com/hupe1980/metrigo/cluster"
	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
	"github.com/hupe1980/metrigo/testutil"
	"github.com/hupe1980/metrigo/vptree"
)

func testTree(t *testing.T) *vptree.VPTree {
	t.Helper()
	rng := testutil.NewRNG(3)
	mem, err := store.NewMemoryFromVectors(rng.UniformVectors(100, 4))
	require.NoError(t, err)
	tree, err := vptree.New(mem, distance.MetricEuclidean)
	require.NoError(t, err)
	return tree
}

func TestEncodeDecodeCodecs(t *testing.T) {
	payload := map[string][]int{"a": {1, 2, 3}, "b": {4}}

	for _, codec := range []Codec{CodecNone, CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			data, err := Encode(KindClustering, codec, payload)
			require.NoError(t, err)

			var got map[string][]int
			require.NoError(t, Decode(data, KindClustering, &got))
			assert.Equal(t, payload, got)
		})
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	data, err := Encode(KindClustering, CodecNone, []int{1, 2, 3})
	require.NoError(t, err)

	t.Run("truncated header", func(t *testing.T) {
		assert.ErrorIs(t, Decode(data[:10], KindClustering, new([]int)), ErrTruncated)
	})

	t.Run("truncated payload", func(t *testing.T) {
		assert.ErrorIs(t, Decode(data[:len(data)-1], KindClustering, new([]int)), ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xFF
		assert.ErrorIs(t, Decode(bad, KindClustering, new([]int)), ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[4] ^= 0xFF
		assert.ErrorIs(t, Decode(bad, KindClustering, new([]int)), ErrInvalidVersion)
	})

	t.Run("flipped payload bit", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0x01
		assert.ErrorIs(t, Decode(bad, KindClustering, new([]int)), ErrChecksum)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		assert.ErrorIs(t, Decode(data, KindVPTree, new([]int)), ErrKindMismatch)
	})
}

func TestVPTreeRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	tree := testTree(t)

	for _, codec := range []Codec{CodecNone, CodecZstd, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			require.NoError(t, WriteVPTree(ctx, bs, "tree", tree, func(o *Options) { o.Codec = codec }))

			loaded, err := ReadVPTree(ctx, bs, "tree")
			require.NoError(t, err)
			require.Equal(t, tree.Len(), loaded.Len())

			rng := testutil.NewRNG(8)
			for qi := 0; qi < 10; qi++ {
				q := rng.UniformVectors(1, 4)[0]
				want, err := tree.KNNSearch(q, 5, nil)
				require.NoError(t, err)
				got, err := loaded.KNNSearch(q, 5, nil)
				require.NoError(t, err)
				assert.Equal(t, want, got, "query %d", qi)
			}
		})
	}
}

func TestVPTreeRoundTripLocalStore(t *testing.T) {
	ctx := context.Background()
	bs, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tree := testTree(t)
	require.NoError(t, WriteVPTree(ctx, bs, "tree.snap", tree))

	loaded, err := ReadVPTree(ctx, bs, "tree.snap")
	require.NoError(t, err)
	assert.Equal(t, tree.Len(), loaded.Len())
	assert.Equal(t, tree.Metric(), loaded.Metric())
}

func TestResultRoundTrip(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	res := &cluster.Result{
		Assignments: []int{0, 0, 1, 2, 1},
		Medoids:     []int{0, 2, 3},
		Iterations:  4,
		Converged:   true,
	}
	require.NoError(t, WriteResult(ctx, bs, "model", res))

	got, err := ReadResult(ctx, bs, "model")
	require.NoError(t, err)
	assert.Equal(t, res, got)
}

func TestReadMissingBlob(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	_, err := ReadVPTree(ctx, bs, "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
