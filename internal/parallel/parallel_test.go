package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangesCoversAllIndices(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 8, 100} {
		n := 57
		seen := make([]int32, n)
		Ranges(n, workers, func(_, lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			require.Equal(t, int32(1), c, "workers=%d index=%d", workers, i)
		}
	}
}

func TestRangesDisjoint(t *testing.T) {
	// Each index written exactly once, without atomics: disjoint ranges
	// make this race-free by construction.
	n := 1000
	out := make([]int, n)
	Ranges(n, 7, func(worker, lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = worker
		}
	})
	// Workers own contiguous, ascending ranges.
	for i := 1; i < n; i++ {
		assert.GreaterOrEqual(t, out[i], out[i-1])
	}
}

func TestRangesEmpty(t *testing.T) {
	called := false
	Ranges(0, 4, func(_, _, _ int) { called = true })
	assert.False(t, called)
}

func TestRangesErrPropagates(t *testing.T) {
	errBoom := errors.New("boom")
	err := RangesErr(context.Background(), 100, 4, func(_ context.Context, worker, _, _ int) error {
		if worker == 2 {
			return errBoom
		}
		return nil
	})
	assert.ErrorIs(t, err, errBoom)
}

func TestRangesErrCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RangesErr(ctx, 10, 1, func(context.Context, int, int, int) error {
		t.Fatal("must not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 4, Workers(4))
	assert.Greater(t, Workers(0), 0)
	assert.Greater(t, Workers(-1), 0)
}
