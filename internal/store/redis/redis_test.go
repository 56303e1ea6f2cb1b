package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	s, err := New(&Config{Client: client, KeyPrefix: "memoproxy-test:"})
	if err != nil {
		t.Fatalf("Failed to create Redis store: %v", err)
	}
	_ = s.Clear(ctx)
	return s
}

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(&Config{}); err == nil {
		t.Fatal("Expected error when no client is given")
	}
	if _, err := New(nil); err == nil {
		t.Fatal("Expected error for nil config")
	}
}

func TestNewDefaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	s, err := New(&Config{Client: client})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.keyPrefix != DefaultKeyPrefix {
		t.Fatalf("Expected prefix %q, got %q", DefaultKeyPrefix, s.keyPrefix)
	}
	if s.buildKey("k") != DefaultKeyPrefix+"k" {
		t.Fatalf("Unexpected key %q", s.buildKey("k"))
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "sum", entry.New(5, time.Hour)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	e, found, err := s.Get(ctx, "sum")
	if err != nil || !found {
		t.Fatalf("Expected entry, found=%v err=%v", found, err)
	}
	if !e.IsEncoded() {
		t.Fatal("Expected an encoded entry from redis")
	}

	var got int
	if err := (store.MsgpackCodec{}).Unmarshal(e.Payload, &got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != 5 {
		t.Fatalf("Expected 5, got %d", got)
	}

	if err := s.Delete(ctx, "sum"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := s.Get(ctx, "sum"); found {
		t.Fatal("Expected entry to be deleted")
	}
}

func TestStoreClearAndLen(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Set(ctx, "a", entry.New(1, time.Hour))
	_ = s.Set(ctx, "b", entry.New(2, time.Hour))
	if s.Len() != 2 {
		t.Fatalf("Expected 2 keys, got %d", s.Len())
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Expected 0 keys, got %d", s.Len())
	}
}
