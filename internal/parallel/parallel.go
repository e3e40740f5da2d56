// Package parallel provides fork-join mapping over contiguous index ranges.
//
// Work is partitioned into one contiguous chunk per worker, so two workers
// never write the same array slot and per-point results are independent of
// the worker count. Only floating-point accumulation order may differ when
// per-worker partial results are merged.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a worker-count request: values <= 0 select GOMAXPROCS.
func Workers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// Ranges splits [0,n) into at most workers contiguous chunks and runs
// fn(worker, lo, hi) for each chunk, waiting for all to finish.
// With workers <= 1 it runs fn(0, 0, n) on the calling goroutine; this is
// the sequential reference path used by equivalence tests.
func Ranges(n, workers int, fn func(worker, lo, hi int)) {
	if n <= 0 {
		return
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	if workers == 1 {
		fn(0, 0, n)
		return
	}

	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}

		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			fn(w, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()
}

// RangesErr is the context-aware variant of Ranges. The first error cancels
// the shared context and is returned; fn must observe ctx to stop early.
func RangesErr(ctx context.Context, n, workers int, fn func(ctx context.Context, worker, lo, hi int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	if workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, 0, 0, n)
	}

	chunk := (n + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}

		w := w
		g.Go(func() error {
			return fn(gctx, w, lo, hi)
		})
	}
	return g.Wait()
}
