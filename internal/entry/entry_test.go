package entry

import (
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ttl := 10 * time.Second
	e := New("value", ttl)

	if e.Value != "value" {
		t.Fatalf("Expected value %q, got %v", "value", e.Value)
	}
	if e.ExpiresAt == nil {
		t.Fatal("Expected ExpiresAt to be set")
	}

	expected := time.Now().Add(ttl)
	if e.ExpiresAt.Before(expected.Add(-time.Second)) || e.ExpiresAt.After(expected.Add(time.Second)) {
		t.Fatal("ExpiresAt not set correctly")
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}
	if e.IsEncoded() {
		t.Fatal("Expected live entry")
	}
}

func TestNewWithoutTTL(t *testing.T) {
	e := New(42, 0)

	if e.ExpiresAt != nil {
		t.Fatal("Expected ExpiresAt to be nil for zero TTL")
	}
	if e.IsExpired() {
		t.Fatal("Entry without expiry must never expire")
	}
	if e.TTL() != 0 {
		t.Fatalf("Expected TTL 0, got %v", e.TTL())
	}
}

func TestIsExpired(t *testing.T) {
	e := New("short", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if !e.IsExpired() {
		t.Fatal("Expected entry to be expired")
	}
	if e.TTL() != 0 {
		t.Fatalf("Expected TTL 0 for expired entry, got %v", e.TTL())
	}
}

func TestEncoded(t *testing.T) {
	created := time.Now().Add(-time.Minute)
	expiry := time.Now().Add(time.Minute)
	e := Encoded([]byte{0x01}, created, &expiry)

	if !e.IsEncoded() {
		t.Fatal("Expected encoded entry")
	}
	if e.Value != nil {
		t.Fatalf("Expected nil value, got %v", e.Value)
	}
	if e.Age() < time.Minute {
		t.Fatalf("Expected age of at least a minute, got %v", e.Age())
	}
}
