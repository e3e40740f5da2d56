package kmedoids

import (
	"context"
	"math"
	"math/rand"

	"github.com/hupe1980/metrigo/internal/parallel"
)

// medditSmallCluster is the cluster size below which the bandit estimator
// cannot beat the exact scan and the update falls back to it.
const medditSmallCluster = 40

// medditBatch is the number of distance samples drawn per surviving
// candidate per round.
const medditBatch = 16

// medditState approximates PAM's medoid update with a multi-armed bandit:
// each candidate's mean in-cluster distance is estimated from sampled
// members, candidates whose lower confidence bound exceeds the best upper
// bound are eliminated, and sampling stops once the surviving confidence
// widths fall below the tolerance. Assignment is exact; only the medoid
// choice is approximate.
type medditState struct {
	km      *KMedoids
	n, k    int
	workers int
	rng     *rand.Rand

	medoids []int
	assign  []int
}

func newMedditState(km *KMedoids, n, k, workers int, rng *rand.Rand) *medditState {
	return &medditState{
		km:      km,
		n:       n,
		k:       k,
		workers: workers,
		rng:     rng,
		medoids: make([]int, k),
		assign:  make([]int, n),
	}
}

func (st *medditState) init(ctx context.Context, seeds []int) error {
	copy(st.medoids, seeds)
	return parallel.RangesErr(ctx, st.n, st.workers, func(ctx context.Context, _, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := lo; i < hi; i++ {
			st.assign[i] = st.nearestMedoid(i)
		}
		return nil
	})
}

func (st *medditState) nearestMedoid(i int) int {
	best, bestD := -1, math.MaxFloat64
	for j, m := range st.medoids {
		if d := float64(st.km.space.Between(i, m)); d < bestD {
			best, bestD = j, d
		}
	}
	return best
}

func (st *medditState) updateMedoids() {
	for j, mm := range members(st.assign, st.k) {
		switch {
		case len(mm) == 0:
			// keep the previous medoid
		case len(mm) <= medditSmallCluster:
			st.medoids[j], _ = bestMedoidExact(st.km.space, mm, st.workers)
		default:
			st.medoids[j] = st.banditMedoid(mm)
		}
	}
}

// arm tracks the running distance-mean estimate of one candidate medoid.
type arm struct {
	idx      int // candidate point index
	pos      int // position within the member slice
	count    int
	mean     float64
	m2       float64 // sum of squared deviations (Welford)
	exact    bool    // mean is the exact average, radius zero
	radius   float64
	retained bool
}

func (a *arm) observe(d float64) {
	a.count++
	delta := d - a.mean
	a.mean += delta / float64(a.count)
	a.m2 += delta * (d - a.mean)
}

// refresh recomputes the confidence radius from the sample variance.
func (a *arm) refresh() {
	if a.exact || a.count < 2 {
		return
	}
	variance := a.m2 / float64(a.count-1)
	a.radius = 3 * math.Sqrt(variance/float64(a.count))
}

// banditMedoid returns a member whose mean in-cluster distance is within
// the configured tolerance of the minimum, with high probability. Ties and
// eliminations resolve toward lower point indices, and the sampling
// sequence is fully determined by the run's RNG.
func (st *medditState) banditMedoid(mm []int) int {
	v := len(mm)
	arms := make([]*arm, v)
	for c, i := range mm {
		arms[c] = &arm{idx: i, pos: c, retained: true}
	}

	alive := v
	for {
		// Sample a batch for every surviving arm. An arm that has seen as
		// many samples as the cluster has members switches to its exact
		// sum.
		for _, a := range arms {
			if !a.retained || a.exact {
				continue
			}
			for b := 0; b < medditBatch; b++ {
				t := mm[st.rng.Intn(v)]
				a.observe(float64(st.km.space.Between(a.idx, t)))
			}
			if a.count >= v {
				a.mean = clusterSum(st.km.space, a.idx, mm) / float64(v)
				a.exact = true
				a.radius = 0
			} else {
				a.refresh()
			}
		}

		bestUCB := math.MaxFloat64
		for _, a := range arms {
			if a.retained && a.mean+a.radius < bestUCB {
				bestUCB = a.mean + a.radius
			}
		}

		maxRadius := 0.0
		lowest := -1
		for _, a := range arms {
			if !a.retained {
				continue
			}
			if a.mean-a.radius > bestUCB {
				a.retained = false
				alive--
				continue
			}
			if a.radius > maxRadius {
				maxRadius = a.radius
			}
			if lowest < 0 {
				lowest = a.pos
			}
		}

		if alive == 1 {
			return arms[lowest].idx
		}
		if maxRadius <= st.km.opts.Tolerance*math.Max(bestUCB, 1e-12) {
			best, bestMean := -1, math.MaxFloat64
			for _, a := range arms {
				if a.retained && a.mean < bestMean {
					best, bestMean = a.idx, a.mean
				}
			}
			return best
		}
	}
}

func (st *medditState) reassign() int {
	changes := make([]int, st.workers)
	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			best := st.nearestMedoid(i)
			if best != st.assign[i] {
				changes[worker]++
				st.assign[i] = best
			}
		}
	})

	var total int
	for _, c := range changes {
		total += c
	}
	return total
}

func (st *medditState) snapshot() ([]int, []int) {
	return st.medoids, st.assign
}
