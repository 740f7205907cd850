// Package queue admits compilation jobs one at a time, in arrival order.
//
// A [Gate] wraps a weighted semaphore of size one. Callers that arrive while
// a job is running wait, and are admitted strictly first-come-first-served.
// The number of waiters is unbounded.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Stats is a snapshot of the gate.
type Stats struct {
	Active    int   `json:"active"`
	Waiting   int   `json:"waiting"`
	Completed int64 `json:"completed"`
}

// Gate serializes jobs.
type Gate struct {
	sem *semaphore.Weighted

	mu        sync.Mutex
	active    int
	waiting   int
	completed int64
}

// New returns an idle Gate with capacity one.
func New() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Do waits for admission, runs fn, and releases the gate when fn returns or
// panics. If ctx is done before admission, Do returns ctx.Err() without
// running fn.
//
// The returned wait is the time spent queued.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) (wait time.Duration, err error) {
	start := time.Now()
	g.update(func() { g.waiting++ })
	if err := g.sem.Acquire(ctx, 1); err != nil {
		g.update(func() { g.waiting-- })
		return time.Since(start), err
	}
	wait = time.Since(start)
	g.update(func() {
		g.waiting--
		g.active++
	})

	defer func() {
		g.update(func() {
			g.active--
			g.completed++
		})
		g.sem.Release(1)
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return wait, fn(ctx)
}

// Stats returns the current counters.
func (g *Gate) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Stats{Active: g.active, Waiting: g.waiting, Completed: g.completed}
}

func (g *Gate) update(f func()) {
	g.mu.Lock()
	f()
	g.mu.Unlock()
}
