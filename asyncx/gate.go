package asyncx

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate bounds the number of operations in flight and, optionally, the rate at
// which new ones start.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	limit   int64
}

// NewGate creates a gate admitting at most limit concurrent holders.
// A limit below 1 is treated as 1.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: int64(limit),
	}
}

// WithRate paces admissions to rps per second. Zero or negative disables pacing.
func (g *Gate) WithRate(rps float64) *Gate {
	if rps <= 0 {
		g.limiter = nil
		return g
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return g
}

// Limit returns the maximum number of concurrent holders
func (g *Gate) Limit() int {
	return int(g.limit)
}

// Rate returns the admissions allowed per second, or zero when unpaced
func (g *Gate) Rate() float64 {
	if g.limiter == nil {
		return 0
	}
	return float64(g.limiter.Limit())
}

// Acquire blocks until a slot is free (and the pacer allows it) or ctx is done
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.sem.Release(1)
			return err
		}
	}
	return nil
}

// Release frees a slot taken by Acquire
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Do runs fn while holding a slot
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn(ctx)
}

// ForEach runs fn for every item on its own goroutine, each call admitted
// through the gate, and waits for all of them. The returned slice holds the
// error of each item at its index (nil on success); one failure never stops
// the others.
func ForEach[T any](ctx context.Context, g *Gate, items []T, fn func(ctx context.Context, item T) error) []error {
	errs := make([]error, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			errs[i] = g.Do(ctx, func(ctx context.Context) error {
				return fn(ctx, item)
			})
		}(i, item)
	}

	wg.Wait()
	return errs
}
