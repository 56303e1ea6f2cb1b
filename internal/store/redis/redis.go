package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/store"
)

// DefaultKeyPrefix is prepended to every key when Config.KeyPrefix is empty
const DefaultKeyPrefix = "memoproxy:"

// Store implements a Redis-backed memoization store
type Store struct {
	client     redis.Cmdable
	keyPrefix  string
	defaultTTL time.Duration
	codec      store.Codec
}

// Config holds Redis store configuration
type Config struct {
	// Client is the Redis client to use
	Client redis.Cmdable

	// KeyPrefix is prepended to all cache keys to avoid conflicts
	KeyPrefix string

	// DefaultTTL applies to entries saved without an expiry
	DefaultTTL time.Duration

	// Codec encodes values; defaults to msgpack
	Codec store.Codec
}

// serializedEntry is the wire form of an entry
type serializedEntry struct {
	Payload   []byte     `msgpack:"p"`
	CreatedAt time.Time  `msgpack:"c"`
	ExpiresAt *time.Time `msgpack:"e,omitempty"`
}

// New creates a new Redis store with the given configuration
func New(config *Config) (*Store, error) {
	if config == nil || config.Client == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	keyPrefix := config.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}

	codec := config.Codec
	if codec == nil {
		codec = store.MsgpackCodec{}
	}

	return &Store{
		client:     config.Client,
		keyPrefix:  keyPrefix,
		defaultTTL: config.DefaultTTL,
		codec:      codec,
	}, nil
}

// Get retrieves an entry by key. The returned entry carries the encoded payload.
func (s *Store) Get(ctx context.Context, key string) (*entry.Entry, bool, error) {
	redisKey := s.buildKey(key)
	data, err := s.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var wire serializedEntry
	if err := s.codec.Unmarshal(data, &wire); err != nil {
		// Corrupted payloads are dropped so the next save replaces them
		s.client.Del(ctx, redisKey)
		return nil, false, fmt.Errorf("decode entry %s: %w", key, err)
	}

	e := entry.Encoded(wire.Payload, wire.CreatedAt, wire.ExpiresAt)
	if e.IsExpired() {
		s.client.Del(ctx, redisKey)
		return nil, false, nil
	}

	return e, true, nil
}

// Set stores an entry with the given key
func (s *Store) Set(ctx context.Context, key string, e *entry.Entry) error {
	payload := e.Payload
	if payload == nil {
		encoded, err := s.codec.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode value %s: %w", key, err)
		}
		payload = encoded
	}

	data, err := s.codec.Marshal(serializedEntry{
		Payload:   payload,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", key, err)
	}

	redisKey := s.buildKey(key)
	ttl := s.defaultTTL
	if e.ExpiresAt != nil {
		ttl = e.TTL()
		if ttl <= 0 {
			return s.client.Del(ctx, redisKey).Err()
		}
	}

	return s.client.Set(ctx, redisKey, data, ttl).Err()
}

// Delete removes an entry by key
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.buildKey(key)).Err()
}

// Clear removes every key under the configured prefix
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Len returns the number of keys under the configured prefix
func (s *Store) Len() int {
	keys, err := s.scan(context.Background())
	if err != nil {
		return 0
	}
	return len(keys)
}

// Close is a no-op; the client lifecycle belongs to the caller
func (s *Store) Close() error {
	return nil
}

func (s *Store) scan(ctx context.Context) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.buildKey("*"), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// buildKey creates a Redis key with the configured prefix
func (s *Store) buildKey(key string) string {
	return s.keyPrefix + key
}

var _ store.Store = (*Store)(nil)
