package blobstore

import (
	"context"

	"golang.org/x/time/rate"
)

// Compile-time check that Throttled satisfies the Store interface.
var _ Store = (*Throttled)(nil)

// Throttled wraps a Store with a byte-rate limiter, bounding the IO
// throughput of snapshot transfers so they do not starve foreground work.
// Reads and writes wait for tokens before touching the wrapped store.
type Throttled struct {
	inner   Store
	limiter *rate.Limiter
}

// NewThrottled wraps inner with the given byte-per-second limiter.
func NewThrottled(inner Store, limiter *rate.Limiter) *Throttled {
	return &Throttled{inner: inner, limiter: limiter}
}

// waitN reserves n bytes of budget, splitting requests larger than the
// limiter's burst into burst-sized waits.
func (t *Throttled) waitN(ctx context.Context, n int) error {
	burst := t.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := t.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Open opens a blob whose reads draw from the byte budget.
func (t *Throttled) Open(ctx context.Context, name string) (Blob, error) {
	b, err := t.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &throttledBlob{t: t, inner: b}, nil
}

// Put writes the blob after reserving its size from the byte budget.
func (t *Throttled) Put(ctx context.Context, name string, data []byte) error {
	if err := t.waitN(ctx, len(data)); err != nil {
		return err
	}
	return t.inner.Put(ctx, name, data)
}

// Delete removes a blob; metadata operations are not throttled.
func (t *Throttled) Delete(ctx context.Context, name string) error {
	return t.inner.Delete(ctx, name)
}

// List returns blob names; metadata operations are not throttled.
func (t *Throttled) List(ctx context.Context, prefix string) ([]string, error) {
	return t.inner.List(ctx, prefix)
}

type throttledBlob struct {
	t     *Throttled
	inner Blob
}

func (b *throttledBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := b.t.waitN(ctx, len(p)); err != nil {
		return 0, err
	}
	return b.inner.ReadAt(ctx, p, off)
}

func (b *throttledBlob) Size() int64 {
	return b.inner.Size()
}

func (b *throttledBlob) Close() error {
	return b.inner.Close()
}
