package kmedoids

import (
	"context"
	"math"

	"github.com/hupe1980/metrigo/internal/parallel"
)

// pamState is the exact Partitioning-Around-Medoids baseline: every
// candidate medoid of every cluster is evaluated each iteration.
type pamState struct {
	km      *KMedoids
	n, k    int
	workers int

	medoids []int
	assign  []int
}

func newPAMState(km *KMedoids, n, k, workers int) *pamState {
	return &pamState{
		km:      km,
		n:       n,
		k:       k,
		workers: workers,
		medoids: make([]int, k),
		assign:  make([]int, n),
	}
}

func (st *pamState) init(ctx context.Context, seeds []int) error {
	copy(st.medoids, seeds)
	return parallel.RangesErr(ctx, st.n, st.workers, func(ctx context.Context, _, lo, hi int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for i := lo; i < hi; i++ {
			st.assign[i], _ = st.nearestMedoid(i)
		}
		return nil
	})
}

// nearestMedoid returns the cluster of the closest medoid to point i;
// ties resolve to the lowest cluster index.
func (st *pamState) nearestMedoid(i int) (int, float64) {
	best, bestD := -1, math.MaxFloat64
	for j, m := range st.medoids {
		if d := float64(st.km.space.Between(i, m)); d < bestD {
			best, bestD = j, d
		}
	}
	return best, bestD
}

func (st *pamState) updateMedoids() {
	for j, mm := range members(st.assign, st.k) {
		if len(mm) == 0 {
			continue // keep the previous medoid
		}
		st.medoids[j], _ = bestMedoidExact(st.km.space, mm, st.workers)
	}
}

func (st *pamState) reassign() int {
	changes := make([]int, st.workers)
	parallel.Ranges(st.n, st.workers, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			best, _ := st.nearestMedoid(i)
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

func (st *pamState) snapshot() ([]int, []int) {
	return st.medoids, st.assign
}
