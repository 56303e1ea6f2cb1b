package store

import (
	"context"

	"github.com/vnykmshr/memoproxy/internal/entry"
)

// Store defines the interface for memoization storage backends
// This abstraction allows for different implementations (LRU, otter, sturdyc, Redis)
type Store interface {
	// Get retrieves an unexpired entry by key
	// Returns the entry and true if found, nil and false if not found
	Get(ctx context.Context, key string) (*entry.Entry, bool, error)

	// Set stores an entry with the given key
	Set(ctx context.Context, key string, e *entry.Entry) error

	// Delete removes an entry by key
	Delete(ctx context.Context, key string) error

	// Clear removes all entries from the store
	Clear(ctx context.Context) error

	// Len returns the current number of entries in the store
	Len() int

	// Close releases the resources held by the store
	Close() error
}

// Codec turns memoized values into bytes for stores that leave the process
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
