// Package kmedoids implements k-medoids clustering: cluster centers are
// data points (medoids), so only pairwise distances are ever needed and
// any metric works where a mean would not.
//
// Three algorithms are provided. PAM is the exact baseline. TRIKMEDS
// prunes PAM's quadratic medoid updates with triangle-inequality bounds
// and returns the identical clustering. MEDDIT replaces the exact medoid
// search with a bandit estimator and is explicitly approximate.
package kmedoids

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/hupe1980/metrigo/cluster"
	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/internal/parallel"
	"github.com/hupe1980/metrigo/store"
)

// ErrNotValidMetric is returned when TRIKMEDS is requested with a metric
// that is not reflexive, symmetric and subadditive; its bound maintenance
// is only sound for proper metrics.
var ErrNotValidMetric = errors.New("kmedoids: trikmeds requires a valid metric")

// Compile-time check that KMedoids satisfies the Clusterer interface.
var _ cluster.Clusterer = (*KMedoids)(nil)

// Algorithm selects the medoid-update scheme.
type Algorithm int

const (
	// AlgorithmPAM evaluates every candidate medoid exactly.
	AlgorithmPAM Algorithm = iota
	// AlgorithmTriKMeds skips candidates that triangle-inequality bounds
	// rule out. Results equal AlgorithmPAM's exactly.
	AlgorithmTriKMeds
	// AlgorithmMeddit estimates candidate sums by sampling (UCB/LCB
	// bandit) and picks a medoid within Options.Tolerance of optimal.
	AlgorithmMeddit
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmPAM:
		return "PAM"
	case AlgorithmTriKMeds:
		return "TriKMeds"
	case AlgorithmMeddit:
		return "Meddit"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Options contains configuration options for k-medoids.
type Options struct {
	// Algorithm is the medoid-update scheme.
	Algorithm Algorithm

	// MaxIterations caps the number of iterations; hitting the cap is a
	// normal termination reported via Result.Converged.
	MaxIterations int

	// Seeding is the initial-medoid selection strategy.
	Seeding cluster.SeedStrategy

	// Seed seeds the RNG driving seeding and MEDDIT sampling.
	Seed int64

	// Workers is the number of goroutines for the per-point passes.
	Workers int

	// Tolerance is MEDDIT's acceptable distance-sum estimation error per
	// candidate, as a fraction of the current best estimate. Ignored by
	// the exact algorithms.
	Tolerance float64
}

// DefaultOptions contains the default configuration options for k-medoids.
var DefaultOptions = Options{
	Algorithm:     AlgorithmPAM,
	MaxIterations: 100,
	Seeding:       cluster.SeedKMeansPP,
	Seed:          1,
	Workers:       0,
	Tolerance:     0.05,
}

// KMedoids partitions a vector store into k clusters around medoid points.
type KMedoids struct {
	data  store.Store
	space *distance.Space
	opts  Options
}

// New creates a KMedoids over the given store.
func New(data store.Store, m distance.Metric, optFns ...func(o *Options)) (*KMedoids, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("kmedoids: max iterations must be >= 1, got %d", opts.MaxIterations)
	}
	if opts.Algorithm == AlgorithmTriKMeds && !distance.Valid(m) {
		return nil, fmt.Errorf("%w: %s", ErrNotValidMetric, m)
	}
	if opts.Algorithm == AlgorithmMeddit && opts.Tolerance <= 0 {
		return nil, fmt.Errorf("kmedoids: tolerance must be positive, got %g", opts.Tolerance)
	}

	space, err := distance.NewSpace(data, m)
	if err != nil {
		return nil, err
	}

	return &KMedoids{
		data:  data,
		space: space,
		opts:  opts,
	}, nil
}

// Cluster partitions the store into k clusters. ctx is checked once per
// iteration; on cancellation no partial result is returned.
func (km *KMedoids) Cluster(ctx context.Context, k int) (*cluster.Result, error) {
	n := km.data.Len()
	if err := cluster.CheckArgs(n, k); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(km.opts.Seed)) // nolint gosec
	workers := parallel.Workers(km.opts.Workers)

	seeds, err := cluster.SelectSeeds(km.space, k, km.opts.Seeding, rng, workers)
	if err != nil {
		return nil, err
	}

	var st medoidState
	switch km.opts.Algorithm {
	case AlgorithmTriKMeds:
		st = newTriState(km, n, k, workers)
	case AlgorithmMeddit:
		st = newMedditState(km, n, k, workers, rng)
	default:
		st = newPAMState(km, n, k, workers)
	}

	if err := st.init(ctx, seeds); err != nil {
		return nil, err
	}

	iterations, changes := 0, 0
	converged := false
	for iterations < km.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iterations++

		st.updateMedoids()
		changes = st.reassign()

		if changes == 0 {
			converged = true
			break
		}
	}

	medoids, assign := st.snapshot()
	return &cluster.Result{
		Assignments: assign,
		Medoids:     medoids,
		Iterations:  iterations,
		Changes:     changes,
		Converged:   converged,
	}, nil
}

// medoidState is one algorithm's working set for a single Cluster call.
// init performs the initial assignment to the seed medoids; updateMedoids
// re-centers each cluster; reassign moves points to their nearest medoid
// and returns the change count.
type medoidState interface {
	init(ctx context.Context, seeds []int) error
	updateMedoids()
	reassign() int
	snapshot() (medoids []int, assign []int)
}

// members returns the point indices of each cluster, ascending within each
// cluster.
func members(assign []int, k int) [][]int {
	counts := make([]int, k)
	for _, a := range assign {
		counts[a]++
	}
	out := make([][]int, k)
	for j := range out {
		out[j] = make([]int, 0, counts[j])
	}
	for i, a := range assign {
		out[a] = append(out[a], i)
	}
	return out
}

// clusterSum is the in-cluster distance sum of candidate i: the k-medoids
// objective a medoid minimizes. Summation is sequential so the value is
// identical regardless of worker count.
func clusterSum(space *distance.Space, i int, members []int) float64 {
	var total float64
	for _, j := range members {
		if j == i {
			continue
		}
		total += float64(space.Between(i, j))
	}
	return total
}

// bestMedoidExact scans candidates in ascending order for the member with
// the smallest in-cluster distance sum; ties keep the lowest index.
func bestMedoidExact(space *distance.Space, members []int, workers int) (best int, bestSum float64) {
	sums := make([]float64, len(members))
	parallel.Ranges(len(members), workers, func(_, lo, hi int) {
		for c := lo; c < hi; c++ {
			sums[c] = clusterSum(space, members[c], members)
		}
	})

	best, bestSum = -1, math.MaxFloat64
	for c, sum := range sums {
		if sum < bestSum {
			best, bestSum = members[c], sum
		}
	}
	return best, bestSum
}
