// Package limiter implements an admission gate: a fixed number of slots,
// callers beyond that queue in FIFO order until a slot frees. Nobody is
// rejected for lack of capacity and no timeout is applied while queued; a
// waiter only leaves the queue early when its own context ends.
package limiter

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultLimit is the number of in-flight calls admitted when New gets n <= 0.
const DefaultLimit = 64

// Limiter bounds the number of concurrently admitted calls.
type Limiter struct {
	sem      *semaphore.Weighted
	limit    int
	inFlight atomic.Int64
	waiting  atomic.Int64
}

// New returns a Limiter admitting at most n concurrent calls.
func New(n int) *Limiter {
	if n <= 0 {
		n = DefaultLimit
	}
	return &Limiter{
		sem:   semaphore.NewWeighted(int64(n)),
		limit: n,
	}
}

// Acquire blocks until a slot is free. The returned release must be called
// once the call completes; extra calls are no-ops. On error no slot is held.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	l.waiting.Add(1)
	err = l.sem.Acquire(ctx, 1)
	l.waiting.Add(-1)
	if err != nil {
		return nil, err
	}
	l.inFlight.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.inFlight.Add(-1)
			l.sem.Release(1)
		})
	}, nil
}

// Limit returns the configured number of slots.
func (l *Limiter) Limit() int {
	return l.limit
}

// InFlight returns the number of calls currently holding a slot.
func (l *Limiter) InFlight() int {
	return int(l.inFlight.Load())
}

// Waiting returns the number of callers queued for a slot.
func (l *Limiter) Waiting() int {
	return int(l.waiting.Load())
}
