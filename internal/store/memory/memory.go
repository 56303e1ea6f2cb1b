package memory

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/store"
)

// Store implements an in-memory LRU store with per-entry TTL
type Store struct {
	cache    *lru.Cache[string, *entry.Entry]
	mutex    sync.RWMutex
	capacity int
}

// New creates a new memory store with the specified capacity
func New(capacity int) (*Store, error) {
	cache, err := lru.New[string, *entry.Entry](capacity)
	if err != nil {
		return nil, err
	}

	return &Store{cache: cache, capacity: capacity}, nil
}

// Get retrieves an unexpired entry by key
func (s *Store) Get(_ context.Context, key string) (*entry.Entry, bool, error) {
	s.mutex.RLock()
	e, found := s.cache.Get(key)
	s.mutex.RUnlock()

	if !found {
		return nil, false, nil
	}

	if e.IsExpired() {
		s.mutex.Lock()
		s.cache.Remove(key)
		s.mutex.Unlock()
		return nil, false, nil
	}

	return e, true, nil
}

// Set stores an entry with the given key
func (s *Store) Set(_ context.Context, key string, e *entry.Entry) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Add(key, e)
	return nil
}

// Delete removes an entry by key
func (s *Store) Delete(_ context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Remove(key)
	return nil
}

// Clear removes all entries from the store
func (s *Store) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Purge()
	return nil
}

// Len returns the number of unexpired entries
func (s *Store) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	count := 0
	for _, key := range s.cache.Keys() {
		if e, found := s.cache.Peek(key); found && !e.IsExpired() {
			count++
		}
	}

	return count
}

// Capacity returns the maximum number of entries the store can hold
func (s *Store) Capacity() int {
	return s.capacity
}

// Close empties the store
func (s *Store) Close() error {
	return s.Clear(context.Background())
}

var _ store.Store = (*Store)(nil)
