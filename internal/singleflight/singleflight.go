// Package singleflight coalesces concurrent loads of the same key.
package singleflight

import (
	"context"
	"errors"
	"sync"
)

// errPanicked is returned to waiters when the leading call panicked
var errPanicked = errors.New("singleflight: leading call panicked")

// Group runs at most one load per key at a time. Callers arriving while a
// load is in flight wait for it and share its result.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{}

	// written once before done is closed
	val V
	err error

	// guarded by the Group mutex
	dups int
}

// Do runs fn for key unless a call for key is already running, in which case
// it waits for that call and returns its result with shared set. fn receives
// the context of the caller that started it. A waiter whose own ctx ends
// stops waiting and returns ctx.Err().
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func(context.Context) (V, error)) (v V, err error, shared bool) {
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()

		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			return v, ctx.Err(), false
		}
	}
	c := &call[V]{done: make(chan struct{}), err: errPanicked}
	g.m[key] = c
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		delete(g.m, key)
		shared = c.dups > 0
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn(ctx)
	return c.val, c.err, false
}

// InFlight returns the number of keys currently loading
func (g *Group[K, V]) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
