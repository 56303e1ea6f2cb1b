// Package memoizetest provides a recording Pool for tests of generated proxies.
package memoizetest

import (
	"context"
	"sync"
	"time"

	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// Item records the calls a proxy makes on it
type Item struct {
	pool  *RecordingPool
	key   string
	hit   bool
	value any
	ttl   time.Duration
}

// Key returns the key
func (i *Item) Key() string { return i.key }

// IsHit reports whether the pool held a value for the key
func (i *Item) IsHit() bool { return i.hit }

// Get returns the value
func (i *Item) Get() any { return i.value }

// Set records the value
func (i *Item) Set(value any) memoize.Item {
	i.pool.mu.Lock()
	i.pool.sets++
	i.pool.mu.Unlock()
	i.value = value
	return i
}

// ExpiresAfter records the lifetime
func (i *Item) ExpiresAfter(ttl time.Duration) memoize.Item {
	i.pool.mu.Lock()
	i.pool.expiries = append(i.pool.expiries, ttl)
	i.pool.mu.Unlock()
	i.ttl = ttl
	return i
}

// RecordingPool is an in-memory Pool that records every call. Expiry is
// recorded, not enforced.
type RecordingPool struct {
	mu       sync.Mutex
	values   map[string]any
	keys     []string
	saves    []string
	sets     int
	expiries []time.Duration
}

// NewRecordingPool creates an empty pool
func NewRecordingPool() *RecordingPool {
	return &RecordingPool{values: map[string]any{}}
}

// Seed stores value under key as if it had been saved earlier
func (p *RecordingPool) Seed(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
}

// GetItem implements memoize.Pool
func (p *RecordingPool) GetItem(_ context.Context, key string) memoize.Item {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.keys = append(p.keys, key)
	value, hit := p.values[key]
	return &Item{pool: p, key: key, hit: hit, value: value}
}

// Save implements memoize.Pool
func (p *RecordingPool) Save(_ context.Context, item memoize.Item) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.saves = append(p.saves, item.Key())
	p.values[item.Key()] = item.Get()
	return true
}

// Lookups returns the keys passed to GetItem in call order
func (p *RecordingPool) Lookups() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// Saves returns the keys of saved items in call order
func (p *RecordingPool) Saves() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.saves...)
}

// Sets returns the number of Item.Set calls
func (p *RecordingPool) Sets() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sets
}

// Expiries returns the lifetimes passed to ExpiresAfter in call order
func (p *RecordingPool) Expiries() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.expiries...)
}

// Stored returns the value saved under key
func (p *RecordingPool) Stored(key string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.values[key]
	return v, ok
}

var _ memoize.Pool = (*RecordingPool)(nil)
