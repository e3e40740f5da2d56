package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/hupe1980/metrigo/distance"
	"github.com/hupe1980/metrigo/internal/parallel"
)

// SeedStrategy selects the initial cluster representatives.
type SeedStrategy int

const (
	// SeedRandom draws k distinct indices uniformly.
	SeedRandom SeedStrategy = iota

	// SeedKMeansPP picks each next seed with probability proportional to
	// its squared distance to the nearest already-chosen seed (k-means++).
	// When the remaining squared distances collapse below a numerical
	// floor, the remaining seeds are filled with random distinct indices.
	SeedKMeansPP

	// SeedFarthestFirst starts from one random index and then greedily
	// picks the point farthest from its nearest chosen seed. Ties resolve
	// to the lowest index.
	SeedFarthestFirst

	// SeedMeanQuantiles sorts the points by distance to the global mean
	// and picks the points at evenly spaced quantile positions. Fully
	// deterministic; the RNG is not consulted.
	SeedMeanQuantiles
)

func (s SeedStrategy) String() string {
	switch s {
	case SeedRandom:
		return "Random"
	case SeedKMeansPP:
		return "KMeansPP"
	case SeedFarthestFirst:
		return "FarthestFirst"
	case SeedMeanQuantiles:
		return "MeanQuantiles"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// kppFloor is the degeneracy floor for the total k-means++ weight: below
// it the remaining candidates are considered indistinguishable and the
// strategy falls back to random fill.
const kppFloor = 1e-6

// SelectSeeds returns k distinct point indices of the space's store chosen
// by the given strategy. rng drives every random decision; runs with equal
// seeds return equal indices. workers parallelizes distance evaluation
// only, never the selection outcome: any worker count returns the indices
// of the sequential path.
func SelectSeeds(space *distance.Space, k int, strategy SeedStrategy, rng *rand.Rand, workers int) ([]int, error) {
	n := space.Data().Len()
	if err := CheckArgs(n, k); err != nil {
		return nil, err
	}

	switch strategy {
	case SeedRandom:
		return rng.Perm(n)[:k], nil
	case SeedKMeansPP:
		return seedKMeansPP(space, n, k, rng, workers), nil
	case SeedFarthestFirst:
		return seedFarthestFirst(space, n, k, rng, workers), nil
	case SeedMeanQuantiles:
		return seedMeanQuantiles(space, n, k, workers), nil
	default:
		return nil, fmt.Errorf("cluster: unknown seed strategy %s", strategy)
	}
}

// tightenToSeed lowers closest[i] to the distance from i to the new seed c
// where that distance is smaller. Each element is updated independently, so
// the outcome is identical for any worker count.
func tightenToSeed(space *distance.Space, closest []float64, c, workers int, squared bool) {
	parallel.Ranges(len(closest), workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			d := float64(space.Between(i, c))
			if squared {
				d *= d
			}
			if d < closest[i] {
				closest[i] = d
			}
		}
	})
}

func seedKMeansPP(space *distance.Space, n, k int, rng *rand.Rand, workers int) []int {
	seeds := make([]int, 0, k)
	chosen := make([]bool, n)

	pick := func(idx int) {
		seeds = append(seeds, idx)
		chosen[idx] = true
	}
	pick(rng.Intn(n))

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = math.MaxFloat64
	}

	for len(seeds) < k {
		tightenToSeed(space, closest, seeds[len(seeds)-1], workers, true)

		// The weighted draw scans sequentially so the picked index does
		// not depend on parallel summation order.
		var total float64
		for _, w := range closest {
			total += w
		}
		if total <= kppFloor {
			for _, idx := range rng.Perm(n) {
				if len(seeds) == k {
					break
				}
				if !chosen[idx] {
					pick(idx)
				}
			}
			return seeds
		}

		target := rng.Float64() * total
		next := -1
		for i, w := range closest {
			target -= w
			if target < 0 {
				next = i
				break
			}
		}
		if next < 0 { // rounding pushed the target past the last weight
			for i := n - 1; i >= 0; i-- {
				if !chosen[i] {
					next = i
					break
				}
			}
		}
		pick(next)
	}

	return seeds
}

func seedFarthestFirst(space *distance.Space, n, k int, rng *rand.Rand, workers int) []int {
	seeds := make([]int, 0, k)
	chosen := make([]bool, n)
	first := rng.Intn(n)
	seeds = append(seeds, first)
	chosen[first] = true

	closest := make([]float64, n)
	for i := range closest {
		closest[i] = math.MaxFloat64
	}

	for len(seeds) < k {
		tightenToSeed(space, closest, seeds[len(seeds)-1], workers, false)

		// Duplicate points all sit at distance 0 once one of them is
		// chosen; skipping chosen indices keeps the seeds distinct.
		best, bestDist := -1, -1.0
		for i, d := range closest {
			if !chosen[i] && d > bestDist {
				best, bestDist = i, d
			}
		}
		seeds = append(seeds, best)
		chosen[best] = true
	}

	return seeds
}

func seedMeanQuantiles(space *distance.Space, n, k, workers int) []int {
	data := space.Data()
	dims := data.Dims()

	sum := make([]float64, dims)
	for i := 0; i < n; i++ {
		v := data.Vector(i)
		for d, x := range v {
			sum[d] += float64(x)
		}
	}
	mean := make([]float32, dims)
	for d := range mean {
		mean[d] = float32(sum[d] / float64(n))
	}

	dists := make([]float64, n)
	qu := space.NewQuery(mean)
	parallel.Ranges(n, workers, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			dists[i] = float64(qu.To(i))
		}
	})

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if dists[order[a]] != dists[order[b]] {
			return dists[order[a]] < dists[order[b]]
		}
		return order[a] < order[b]
	})

	seeds := make([]int, 0, k)
	if k == 1 {
		// A single representative: the point closest to the mean.
		return append(seeds, order[0])
	}
	for j := 0; j < k; j++ {
		pos := j * (n - 1) / (k - 1)
		seeds = append(seeds, order[pos])
	}
	return seeds
}
