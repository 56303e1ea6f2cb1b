package sturdyc

import (
	"context"
	"fmt"
	"time"

	"github.com/viccon/sturdyc"
	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/store"
)

// Config holds sturdyc store settings
type Config struct {
	// Capacity is the total number of entries across all shards
	Capacity int

	// NumShards splits the keyspace to reduce lock contention
	NumShards int

	// MaxTTL bounds the lifetime of every entry
	MaxTTL time.Duration

	// EvictionPercentage is the share of a full shard evicted at once
	EvictionPercentage int
}

// Store is a sharded in-memory store backed by sturdyc
type Store struct {
	client *sturdyc.Client[*entry.Entry]
}

// New creates a sturdyc store
func New(cfg Config) (*Store, error) {
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("sturdyc capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.NumShards <= 0 {
		cfg.NumShards = 10
	}
	if cfg.NumShards > cfg.Capacity {
		cfg.NumShards = cfg.Capacity
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 24 * time.Hour
	}
	if cfg.EvictionPercentage <= 0 || cfg.EvictionPercentage > 100 {
		cfg.EvictionPercentage = 10
	}

	client := sturdyc.New[*entry.Entry](cfg.Capacity, cfg.NumShards, cfg.MaxTTL, cfg.EvictionPercentage)
	return &Store{client: client}, nil
}

// Get retrieves an unexpired entry by key
func (s *Store) Get(_ context.Context, key string) (*entry.Entry, bool, error) {
	e, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.IsExpired() {
		s.client.Delete(key)
		return nil, false, nil
	}
	return e, true, nil
}

// Set stores an entry with the given key
func (s *Store) Set(_ context.Context, key string, e *entry.Entry) error {
	s.client.Set(key, e)
	return nil
}

// Delete removes an entry by key
func (s *Store) Delete(_ context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// Clear removes all entries
func (s *Store) Clear(_ context.Context) error {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
	return nil
}

// Len returns the number of stored entries
func (s *Store) Len() int {
	return s.client.Size()
}

// Close empties the store
func (s *Store) Close() error {
	return s.Clear(context.Background())
}

var _ store.Store = (*Store)(nil)
