package entry

import (
	"time"
)

// Entry is a stored memoization result together with its expiry
type Entry struct {
	// Value is the result handed to Set by the proxy. Remote stores leave it nil
	// and carry Payload instead.
	Value any

	// Payload is the encoded form of Value for stores that serialize
	Payload []byte

	// ExpiresAt indicates when this entry expires (nil means no expiration)
	ExpiresAt *time.Time

	// CreatedAt is when this entry was created
	CreatedAt time.Time
}

// New creates a new entry with the given value and TTL
func New(value any, ttl time.Duration) *Entry {
	now := time.Now()
	e := &Entry{
		Value:     value,
		CreatedAt: now,
	}

	if ttl > 0 {
		expiry := now.Add(ttl)
		e.ExpiresAt = &expiry
	}

	return e
}

// Encoded creates an entry holding an already encoded payload
func Encoded(payload []byte, createdAt time.Time, expiresAt *time.Time) *Entry {
	return &Entry{
		Payload:   payload,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
}

// IsExpired returns true if the entry has expired
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*e.ExpiresAt)
}

// IsEncoded reports whether the entry carries a payload rather than a live value
func (e *Entry) IsEncoded() bool {
	return e.Payload != nil
}

// TTL returns the time remaining until expiration
// Returns 0 if the entry has no expiration or has already expired
func (e *Entry) TTL() time.Duration {
	if e.ExpiresAt == nil {
		return 0
	}

	remaining := time.Until(*e.ExpiresAt)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// Age returns how long ago this entry was created
func (e *Entry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}
