package otter

import (
	"context"
	"fmt"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/store"
)

// Store is an in-memory W-TinyLFU store backed by otter
type Store struct {
	cache *otter.Cache[string, *entry.Entry]
}

// New creates an otter store holding at most maxSize entries. maxTTL bounds the
// lifetime of every entry; shorter per-entry expiries are checked on read.
func New(maxSize int, maxTTL time.Duration) (*Store, error) {
	c, err := otter.New[string, *entry.Entry](&otter.Options[string, *entry.Entry]{
		MaximumSize:      maxSize,
		ExpiryCalculator: otter.ExpiryWriting[string, *entry.Entry](maxTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("create otter cache: %w", err)
	}
	return &Store{cache: c}, nil
}

// Get retrieves an unexpired entry by key
func (s *Store) Get(_ context.Context, key string) (*entry.Entry, bool, error) {
	e, ok := s.cache.GetIfPresent(key)
	if !ok {
		return nil, false, nil
	}
	if e.IsExpired() {
		s.cache.Invalidate(key)
		return nil, false, nil
	}
	return e, true, nil
}

// Set stores an entry with the given key
func (s *Store) Set(_ context.Context, key string, e *entry.Entry) error {
	s.cache.Set(key, e)
	return nil
}

// Delete removes an entry by key
func (s *Store) Delete(_ context.Context, key string) error {
	s.cache.Invalidate(key)
	return nil
}

// Clear removes all entries
func (s *Store) Clear(_ context.Context) error {
	s.cache.InvalidateAll()
	return nil
}

// Len returns the estimated number of entries
func (s *Store) Len() int {
	return s.cache.EstimatedSize()
}

// Close empties the store
func (s *Store) Close() error {
	s.cache.InvalidateAll()
	return nil
}

var _ store.Store = (*Store)(nil)
