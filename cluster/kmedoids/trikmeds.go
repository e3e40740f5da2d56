package kmedoids

import (
	"context"
	"math"

	"github.com/hupe1980/metrigo/internal/parallel"
)

// triState accelerates PAM with triangle-inequality bounds.
//
// lc[i*k+j] lower-bounds the distance from point i to the medoid of
// cluster j; it is exact when computed and decays by the medoid's drift
// when the medoid moves. ls[i] lower-bounds the in-cluster distance sum of
// point i; a candidate whose ls cannot beat the best sum found so far is
// skipped without the quadratic exact evaluation. Both bounds only skip
// work that provably cannot change the outcome, so the final clustering
// equals PAM's.
type triState struct {
	km      *KMedoids
	n, k    int
	workers int

	medoids []int
	assign  []int

	lc    []float64 // n*k lower bounds on point-to-medoid distance
	ls    []float64 // n lower bounds on in-cluster distance sum
	drift []float64 // distance each medoid moved in the last update
	dirty []bool    // clusters whose membership changed in the last pass
}

func newTriState(km *KMedoids, n, k, workers int) *triState {
	return &triState{
		km:      km,
		n:       n,
		k:       k,
		workers: workers,
		medoids: make([]int, k),
		assign:  make([]int, n),
		lc:      make([]float64, n*k),
		ls:      make([]float64, n),
		drift:   make([]float64, k),
		dirty:   make([]bool, k),
	}
}

func (st *triState) init(ctx context.Context, seeds []int) error {
	copy(st.medoids, seeds)

	// The initial scan computes every point-to-medoid distance anyway, so
	// the lc bounds start out exact.
	return parallel.RangesErr(ctx, st.n, st.workers, func(ctx context.Context, _, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := lo; i < hi; i++ {
			best, bestD := -1, math.MaxFloat64
			row := st.lc[i*st.k : (i+1)*st.k]
			for j, m := range st.medoids {
				d := float64(st.km.space.Between(i, m))
				row[j] = d
				if d < bestD {
					best, bestD = j, d
				}
			}
			st.assign[i] = best
		}
		return nil
	})
}

func (st *triState) updateMedoids() {
	for j, mm := range members(st.assign, st.k) {
		if len(mm) == 0 {
			st.drift[j] = 0
			continue
		}

		// Candidates in ascending index order with a strict improvement
		// test: the tie-break matches the exhaustive scan exactly, and a
		// candidate with ls >= bestSum cannot strictly improve.
		best, bestSum := -1, math.MaxFloat64
		for _, i := range mm {
			if st.ls[i] >= bestSum {
				continue
			}
			sum := clusterSum(st.km.space, i, mm)
			st.ls[i] = sum
			if sum < bestSum {
				best, bestSum = i, sum
			}
		}

		st.drift[j] = float64(st.km.space.Between(st.medoids[j], best))
		st.medoids[j] = best
		st.propagate(best, bestSum, mm)
	}
}

// propagate tightens the sum bounds of the members of one cluster from the
// new medoid's exact distance row: for a member p of a cluster of size v,
// the sum of distances from p is at least |sum(m) - v*d(m,p)| by summing
// the triangle inequality over every member.
func (st *triState) propagate(m int, sum float64, mm []int) {
	v := float64(len(mm))
	for _, p := range mm {
		bound := math.Abs(sum - v*float64(st.km.space.Between(m, p)))
		if bound > st.ls[p] {
			st.ls[p] = bound
		}
	}
}

func (st *triState) reassign() int {
	changes := make([]int, st.workers)
	dirties := make([][]bool, st.workers)
	for w := range dirties {
		dirties[w] = make([]bool, st.k)
	}

	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			row := st.lc[i*st.k : (i+1)*st.k]

			best, bestD := -1, math.MaxFloat64
			for j := 0; j < st.k; j++ {
				row[j] -= st.drift[j]
				if row[j] < 0 {
					row[j] = 0
				}
				// A bound at or above the best exact distance cannot win
				// a strict comparison; skipping keeps the exhaustive
				// scan's choice.
				if row[j] >= bestD {
					continue
				}
				d := float64(st.km.space.Between(i, st.medoids[j]))
				row[j] = d
				if d < bestD {
					best, bestD = j, d
				}
			}

			if best != st.assign[i] {
				changes[worker]++
				dirties[worker][st.assign[i]] = true
				dirties[worker][best] = true
				st.assign[i] = best
			}
		}
	})

	total := 0
	for w := range changes {
		total += changes[w]
		for j, d := range dirties[w] {
			if d {
				st.dirty[j] = true
			}
		}
	}

	if total > 0 {
		// Membership of a dirty cluster changed, so every sum bound over
		// it is stale; drop them rather than risk pruning on an invalid
		// bound.
		parallel.Ranges(st.n, st.workers, func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				if st.dirty[st.assign[i]] {
					st.ls[i] = 0
				}
			}
		})
	}
	for j := range st.dirty {
		st.dirty[j] = false
	}

	return total
}

func (st *triState) snapshot() ([]int, []int) {
	return st.medoids, st.assign
}
