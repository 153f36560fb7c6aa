package password

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// pool bounds the number of concurrent CPU-heavy hash computations so a burst
// of logins cannot starve request handling.
type pool struct {
	sem *semaphore.Weighted
}

func newPool(size int) *pool {
	return &pool{sem: semaphore.NewWeighted(int64(size))}
}

// do runs fn once a slot is free. It gives up if ctx ends while waiting.
func (p *pool) do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}
