package kmeans

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/metrigo/cluster"
	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/store"
	"github.com/hupe1980/metrigo/testutil"
)

var blobCenters = [][]float32{{0, 0}, {10, 0}, {0, 10}, {10, 10}}

func blobStore(t *testing.T, perBlob int) store.Store {
	t.Helper()
	rng := testutil.NewRNG(13)
	mem, err := store.NewMemoryFromVectors(rng.GaussianBlobs(blobCenters, perBlob, 0.1))
	require.NoError(t, err)
	return mem
}

func uniformStore(t *testing.T, n, dims int, seed int64) store.Store {
	t.Helper()
	rng := testutil.NewRNG(seed)
	mem, err := store.NewMemoryFromVectors(rng.UniformVectors(n, dims))
	require.NoError(t, err)
	return mem
}

func TestNewValidatesOptions(t *testing.T) {
	mem := uniformStore(t, 10, 2, 1)

	_, err := New(mem, distance.MetricEuclidean, func(o *Options) { o.MaxIterations = 0 })
	assert.Error(t, err)

	_, err = New(mem, distance.MetricCosine)
	assert.ErrorIs(t, err, ErrNotSubadditive)

	// Lloyd has no triangle-inequality requirement.
	_, err = New(mem, distance.MetricCosine, func(o *Options) { o.Algorithm = AlgorithmLloyd })
	assert.NoError(t, err)
}

func TestClusterArgs(t *testing.T) {
	km, err := New(uniformStore(t, 10, 2, 1), distance.MetricEuclidean)
	require.NoError(t, err)

	_, err = km.Cluster(context.Background(), 0)
	assert.ErrorIs(t, err, cluster.ErrInvalidK)

	var tooMany *cluster.ErrTooManyClusters
	_, err = km.Cluster(context.Background(), 11)
	assert.ErrorAs(t, err, &tooMany)

	empty, err := New(store.NewMemory(2), distance.MetricEuclidean)
	require.NoError(t, err)
	_, err = empty.Cluster(context.Background(), 1)
	assert.ErrorIs(t, err, cluster.ErrEmptyData)
}

// Four tight Gaussian blobs must come out as exactly one cluster per blob,
// for either algorithm and regardless of worker count.
func TestFourBlobs(t *testing.T) {
	mem := blobStore(t, 25)

	for _, alg := range []Algorithm{AlgorithmHamerly, AlgorithmLloyd} {
		for _, workers := range []int{1, 8} {
			t.Run(alg.String(), func(t *testing.T) {
				km, err := New(mem, distance.MetricEuclidean, func(o *Options) {
					o.Algorithm = alg
					o.Workers = workers
				})
				require.NoError(t, err)

				res, err := km.Cluster(context.Background(), 4)
				require.NoError(t, err)

				assert.True(t, res.Converged)
				assert.Zero(t, res.Changes)
				require.Len(t, res.Assignments, 100)
				require.Len(t, res.Centroids, 4)
				assert.Nil(t, res.Medoids)

				// Every blob of 25 consecutive points maps to one label,
				// and the four labels are distinct.
				labels := make(map[int]bool)
				for blob := 0; blob < 4; blob++ {
					label := res.Assignments[blob*25]
					for i := blob*25 + 1; i < (blob+1)*25; i++ {
						require.Equal(t, label, res.Assignments[i], "blob %d split", blob)
					}
					labels[label] = true

					c := res.Centroids[label]
					assert.InDelta(t, blobCenters[blob][0], c[0], 0.2)
					assert.InDelta(t, blobCenters[blob][1], c[1], 0.2)
				}
				assert.Len(t, labels, 4)
			})
		}
	}
}

// Hamerly's pruning must not change a single assignment relative to plain
// Lloyd run from the same seeds.
func TestHamerlyMatchesLloyd(t *testing.T) {
	for _, tc := range []struct {
		n, dims, k int
		seed       int64
	}{
		{120, 2, 3, 1},
		{200, 5, 8, 2},
		{64, 3, 2, 3},
		{50, 4, 50, 4}, // k == n
	} {
		mem := uniformStore(t, tc.n, tc.dims, tc.seed)

		run := func(alg Algorithm) *cluster.Result {
			km, err := New(mem, distance.MetricEuclidean, func(o *Options) {
				o.Algorithm = alg
				o.Workers = 4
			})
			require.NoError(t, err)
			res, err := km.Cluster(context.Background(), tc.k)
			require.NoError(t, err)
			return res
		}

		hamerly := run(AlgorithmHamerly)
		lloyd := run(AlgorithmLloyd)

		assert.Equal(t, lloyd.Assignments, hamerly.Assignments, "n=%d k=%d", tc.n, tc.k)
		assert.Equal(t, lloyd.Iterations, hamerly.Iterations)
		assert.Equal(t, lloyd.Converged, hamerly.Converged)
		assert.Equal(t, lloyd.Centroids, hamerly.Centroids)
	}
}

func TestClusterDeterministicAcrossWorkers(t *testing.T) {
	mem := blobStore(t, 25)

	var want *cluster.Result
	for _, workers := range []int{1, 2, 8} {
		km, err := New(mem, distance.MetricEuclidean, func(o *Options) { o.Workers = workers })
		require.NoError(t, err)

		res, err := km.Cluster(context.Background(), 4)
		require.NoError(t, err)
		if want == nil {
			want = res
			continue
		}
		assert.Equal(t, want.Assignments, res.Assignments, "workers=%d", workers)
		assert.Equal(t, want.Iterations, res.Iterations)
	}
}

func TestSingleCluster(t *testing.T) {
	km, err := New(uniformStore(t, 40, 3, 6), distance.MetricEuclidean)
	require.NoError(t, err)

	res, err := km.Cluster(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	for _, a := range res.Assignments {
		assert.Zero(t, a)
	}
}

func TestIterationCap(t *testing.T) {
	km, err := New(uniformStore(t, 300, 2, 8), distance.MetricEuclidean, func(o *Options) {
		o.MaxIterations = 1
	})
	require.NoError(t, err)

	res, err := km.Cluster(context.Background(), 8)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
	assert.Positive(t, res.Changes)
}

func TestClusterContextCancelled(t *testing.T) {
	km, err := New(uniformStore(t, 100, 2, 9), distance.MetricEuclidean)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = km.Cluster(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeedingStrategies(t *testing.T) {
	mem := blobStore(t, 25)

	// Spread-seeking strategies must recover the blobs exactly; uniform
	// random picks (and mean-quantiles, which cannot distinguish blobs
	// equidistant from the global mean) only guarantee convergence to a
	// valid partition.
	for _, tc := range []struct {
		seeding cluster.SeedStrategy
		exact   bool
	}{
		{cluster.SeedKMeansPP, true},
		{cluster.SeedFarthestFirst, true},
		{cluster.SeedRandom, false},
		{cluster.SeedMeanQuantiles, false},
	} {
		t.Run(tc.seeding.String(), func(t *testing.T) {
			km, err := New(mem, distance.MetricEuclidean, func(o *Options) { o.Seeding = tc.seeding })
			require.NoError(t, err)

			res, err := km.Cluster(context.Background(), 4)
			require.NoError(t, err)
			assert.True(t, res.Converged)
			for _, a := range res.Assignments {
				assert.GreaterOrEqual(t, a, 0)
				assert.Less(t, a, 4)
			}

			if !tc.exact {
				return
			}
			labels := make(map[int]bool)
			for blob := 0; blob < 4; blob++ {
				label := res.Assignments[blob*25]
				for i := blob*25 + 1; i < (blob+1)*25; i++ {
					require.Equal(t, label, res.Assignments[i], "blob %d split", blob)
				}
				labels[label] = true
			}
			assert.Len(t, labels, 4)
		})
	}
}
