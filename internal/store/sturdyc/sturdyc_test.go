package sturdyc

import (
	"context"
	"testing"
	"time"

	"github.com/vnykmshr/memoproxy/internal/entry"
)

func TestStoreSetGet(t *testing.T) {
	ctx := context.Background()
	s, err := New(Config{Capacity: 100, NumShards: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_ = s.Set(ctx, "k", entry.New(3, time.Minute))

	e, found, err := s.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Expected entry, found=%v err=%v", found, err)
	}
	if e.Value != 3 {
		t.Fatalf("Expected 3, got %v", e.Value)
	}
	if s.Len() != 1 {
		t.Fatalf("Expected Len 1, got %d", s.Len())
	}
}

func TestStorePerEntryExpiry(t *testing.T) {
	ctx := context.Background()
	s, _ := New(Config{Capacity: 100})

	_ = s.Set(ctx, "k", entry.New("v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("Expected expired entry to be a miss")
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	s, _ := New(Config{Capacity: 100})

	_ = s.Set(ctx, "a", entry.New(1, 0))
	_ = s.Set(ctx, "b", entry.New(2, 0))
	_ = s.Clear(ctx)

	if s.Len() != 0 {
		t.Fatalf("Expected empty store, got %d", s.Len())
	}
}

func TestNewRejectsInvalidCapacity(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("Expected error for zero capacity")
	}
}
