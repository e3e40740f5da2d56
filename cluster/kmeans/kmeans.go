// Package kmeans implements k-means clustering over a metric space, with a
// plain Lloyd iteration and a Hamerly-accelerated iteration that prunes
// distance computations with per-point bounds while producing assignments
// identical to Lloyd's.
package kmeans

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

// ErrNotSubadditive is returned when the Hamerly algorithm is requested
// with a metric that does not obey the triangle inequality; its pruning is
// only sound for subadditive metrics.
var ErrNotSubadditive = errors.New("kmeans: hamerly requires a subadditive metric")

// Compile-time check that KMeans satisfies the Clusterer interface.
var _ cluster.Clusterer = (*KMeans)(nil)

// Algorithm selects the iteration scheme.
type Algorithm int

const (
	// AlgorithmHamerly prunes per-point center scans with upper/lower
	// distance bounds. Assignments equal AlgorithmLloyd's exactly.
	AlgorithmHamerly Algorithm = iota
	// AlgorithmLloyd is the unaccelerated reference iteration.
	AlgorithmLloyd
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmHamerly:
		return "Hamerly"
	case AlgorithmLloyd:
		return "Lloyd"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// Options contains configuration options for k-means.
type Options struct {
	// Algorithm is the iteration scheme.
	Algorithm Algorithm

	// MaxIterations caps the number of iterations; hitting the cap is a
	// normal termination reported via Result.Converged.
	MaxIterations int

	// Seeding is the initial-center selection strategy.
	Seeding cluster.SeedStrategy

	// Seed seeds the RNG driving seeding. Runs with equal seeds produce
	// equal results.
	Seed int64

	// Workers is the number of goroutines for the per-point passes;
	// values < 1 use GOMAXPROCS. The result does not depend on it beyond
	// floating-point summation order.
	Workers int
}

// DefaultOptions contains the default configuration options for k-means.
var DefaultOptions = Options{
	Algorithm:     AlgorithmHamerly,
	MaxIterations: 100,
	Seeding:       cluster.SeedKMeansPP,
	Seed:          1,
	Workers:       0,
}

// KMeans partitions a vector store into k clusters around synthetic mean
// centers.
type KMeans struct {
	data  store.Store
	space *distance.Space
	opts  Options
}

// New creates a KMeans over the given store. Hamerly requires a
// subadditive metric; pick AlgorithmLloyd for the others.
func New(data store.Store, m distance.Metric, optFns ...func(o *Options)) (*KMeans, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("kmeans: max iterations must be >= 1, got %d", opts.MaxIterations)
	}
	if opts.Algorithm == AlgorithmHamerly && !distance.Subadditive(m) {
		return nil, fmt.Errorf("%w: %s", ErrNotSubadditive, m)
	}

	space, err := distance.NewSpace(data, m)
	if err != nil {
		return nil, err
	}

	return &KMeans{
		data:  data,
		space: space,
		opts:  opts,
	}, nil
}

// Cluster partitions the store into k clusters. ctx is checked once per
// iteration; on cancellation the assignments of completed iterations are
// discarded and only the error is returned.
func (km *KMeans) Cluster(ctx context.Context, k int) (*cluster.Result, error) {
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

	st := newState(km, n, k, workers)
	st.seedCenters(seeds)
	if err := st.assignInitial(ctx); err != nil {
		return nil, err
	}

	for st.iterations < km.opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st.iterations++

		st.recomputeCenters()

		if km.opts.Algorithm == AlgorithmLloyd {
			st.changes = st.assignLloyd()
		} else {
			st.changes = st.assignHamerly()
		}

		if st.changes == 0 {
			st.converged = true
			break
		}
	}

	return st.result(), nil
}

// state carries the per-run working set of one Cluster call.
type state struct {
	km      *KMeans
	n, k    int
	workers int

	centers [][]float32      // current center vectors
	queries []distance.Query // per-center accelerated distance views
	assign  []int

	// Hamerly bounds, kept in float64 so repeated adjustment does not
	// erode their soundness.
	upper []float64 // u[i]: upper bound on dist(i, center of assign[i])
	lower []float64 // l[i]: lower bound on dist(i, second-nearest center)
	drift []float64 // p[j]: distance center j moved in the last update
	sep   []float64 // s[j]: distance from center j to its nearest other center

	iterations int
	changes    int
	converged  bool
}

func newState(km *KMeans, n, k, workers int) *state {
	return &state{
		km:      km,
		n:       n,
		k:       k,
		workers: workers,
		centers: make([][]float32, k),
		queries: make([]distance.Query, k),
		assign:  make([]int, n),
		upper:   make([]float64, n),
		lower:   make([]float64, n),
		drift:   make([]float64, k),
		sep:     make([]float64, k),
	}
}

func (st *state) seedCenters(seeds []int) {
	for j, idx := range seeds {
		v := st.km.data.Vector(idx)
		st.centers[j] = append([]float32(nil), v...)
	}
	st.refreshQueries()
}

func (st *state) refreshQueries() {
	for j := range st.centers {
		st.queries[j] = st.km.space.NewQuery(st.centers[j])
	}
}

// nearestTwo scans all k centers for point i. Ties resolve to the lowest
// center index, matching the tie-break of every other scan in the package.
func (st *state) nearestTwo(i int) (best int, bestD, secondD float64) {
	bestD, secondD = math.MaxFloat64, math.MaxFloat64
	for j := 0; j < st.k; j++ {
		d := float64(st.queries[j].To(i))
		if d < bestD {
			best, bestD, secondD = j, d, bestD
		} else if d < secondD {
			secondD = d
		}
	}
	return best, bestD, secondD
}

// assignInitial assigns every point to its true nearest center by brute
// force, initializing the Hamerly bounds exactly. It is the one pass that
// runs before the iteration loop's own cancellation checks, so it observes
// ctx itself.
func (st *state) assignInitial(ctx context.Context) error {
	return parallel.RangesErr(ctx, st.n, st.workers, func(ctx context.Context, _, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := lo; i < hi; i++ {
			best, bestD, secondD := st.nearestTwo(i)
			st.assign[i] = best
			st.upper[i] = bestD
			st.lower[i] = secondD
		}
		return nil
	})
}

// recomputeCenters replaces each center with the mean of its currently
// assigned points and records the drift p[j]. The sums are rebuilt from
// the assignment array every iteration with per-worker accumulators merged
// in worker order, so Lloyd and Hamerly runs over equal assignments
// produce bitwise-equal centers. A cluster left empty keeps its previous
// center (drift zero).
func (st *state) recomputeCenters() {
	dims := st.km.data.Dims()

	sums := make([][]float64, st.workers)
	counts := make([][]int, st.workers)
	for w := range sums {
		sums[w] = make([]float64, st.k*dims)
		counts[w] = make([]int, st.k)
	}

	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		sum, count := sums[worker], counts[worker]
		for i := lo; i < hi; i++ {
			j := st.assign[i]
			count[j]++
			row := sum[j*dims : (j+1)*dims]
			for d, x := range st.km.data.Vector(i) {
				row[d] += float64(x)
			}
		}
	})

	total := sums[0]
	totalCount := counts[0]
	for w := 1; w < st.workers; w++ {
		for x, v := range sums[w] {
			total[x] += v
		}
		for j, c := range counts[w] {
			totalCount[j] += c
		}
	}

	fn := st.km.space.FuncOf()
	for j := 0; j < st.k; j++ {
		if totalCount[j] == 0 {
			st.drift[j] = 0
			continue
		}
		next := make([]float32, dims)
		inv := 1 / float64(totalCount[j])
		row := total[j*dims : (j+1)*dims]
		for d, v := range row {
			next[d] = float32(v * inv)
		}
		st.drift[j] = float64(fn(st.centers[j], next))
		st.centers[j] = next
	}
	st.refreshQueries()
}

// assignLloyd reassigns every point to its nearest center by brute force
// and returns the number of changed assignments.
func (st *state) assignLloyd() int {
	changes := make([]int, st.workers)
	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			best, bestD, secondD := st.nearestTwo(i)
			if best != st.assign[i] {
				changes[worker]++
				st.assign[i] = best
			}
			st.upper[i] = bestD
			st.lower[i] = secondD
		}
	})
	return sumInts(changes)
}

// assignHamerly reassigns points using Hamerly's pruning: a point whose
// upper bound cannot exceed max(s[a]/2, l[i]) provably keeps its center
// and is skipped without any distance computation.
func (st *state) assignHamerly() int {
	st.adjustBounds()
	st.recomputeSeparation()

	changes := make([]int, st.workers)
	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			a := st.assign[i]
			m := st.sep[a] / 2
			if st.lower[i] > m {
				m = st.lower[i]
			}
			if st.upper[i] <= m {
				continue
			}

			// Tighten the upper bound to the exact distance first; most
			// survivors are ruled out here without a full scan.
			st.upper[i] = float64(st.queries[a].To(i))
			if st.upper[i] <= m {
				continue
			}

			best, bestD, secondD := st.nearestTwo(i)
			if best != a {
				changes[worker]++
				st.assign[i] = best
			}
			st.upper[i] = bestD
			st.lower[i] = secondD
		}
	})
	return sumInts(changes)
}

// adjustBounds applies the center drifts to the per-point bounds: u[i]
// grows by the drift of its own center, l[i] shrinks by the largest drift
// of any other center (the second-largest when the largest is the point's
// own).
func (st *state) adjustBounds() {
	r, r2 := -1, -1
	for j, p := range st.drift {
		switch {
		case r < 0 || p > st.drift[r]:
			r, r2 = j, r
		case r2 < 0 || p > st.drift[r2]:
			r2 = j
		}
	}

	var pr, pr2 float64
	pr = st.drift[r]
	if r2 >= 0 { // r2 < 0 only when k == 1
		pr2 = st.drift[r2]
	}

	parallel.Ranges(st.n, st.workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			a := st.assign[i]
			st.upper[i] += st.drift[a]
			if a == r {
				st.lower[i] -= pr2
			} else {
				st.lower[i] -= pr
			}
		}
	})
}

// recomputeSeparation refreshes s[j], the distance from center j to its
// nearest other center.
func (st *state) recomputeSeparation() {
	fn := st.km.space.FuncOf()
	for j := 0; j < st.k; j++ {
		st.sep[j] = math.MaxFloat64
	}
	for a := 0; a < st.k; a++ {
		for b := a + 1; b < st.k; b++ {
			d := float64(fn(st.centers[a], st.centers[b]))
			if d < st.sep[a] {
				st.sep[a] = d
			}
			if d < st.sep[b] {
				st.sep[b] = d
			}
		}
	}
}

func (st *state) result() *cluster.Result {
	centroids := make([][]float32, st.k)
	for j, c := range st.centers {
		centroids[j] = append([]float32(nil), c...)
	}
	return &cluster.Result{
		Assignments: st.assign,
		Centroids:   centroids,
		Iterations:  st.iterations,
		Changes:     st.changes,
		Converged:   st.converged,
	}
}

func sumInts(xs []int) int {
	var total int
	for _, x := range xs {
		total += x
	}
	return total
}
