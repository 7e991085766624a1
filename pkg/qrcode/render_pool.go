package qrcode

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// renderPool bounds how many rasterizations run at once.
type renderPool struct {
	sem *semaphore.Weighted
}

func newRenderPool(size int) *renderPool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &renderPool{sem: semaphore.NewWeighted(int64(size))}
}

func (p *renderPool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
