package memoize

import (
	"time"

	"github.com/vnykmshr/memoproxy/internal/store"
)

// Item is the unit a Pool hands to generated proxies.
type Item interface {
	// Key returns the cache key the item was fetched with
	Key() string

	// IsHit reports whether the pool found a stored value for the key
	IsHit() bool

	// Get returns the stored value, or the value passed to Set
	Get() any

	// Set replaces the value to be saved
	Set(value any) Item

	// ExpiresAfter sets the lifetime of the value once saved
	ExpiresAfter(ttl time.Duration) Item
}

// CacheItem is the Item implementation used by StorePool.
type CacheItem struct {
	key       string
	value     any
	payload   []byte
	codec     store.Codec
	hit       bool
	hitSet    bool
	ttl       time.Duration
	expiresAt *time.Time
}

// NewItem creates an item whose hit flag is not yet assigned.
func NewItem(key string) *CacheItem {
	return &CacheItem{key: key}
}

// Key returns the cache key.
func (i *CacheItem) Key() string {
	return i.key
}

// IsHit reports whether the item was found. An unassigned flag reads as a miss.
func (i *CacheItem) IsHit() bool {
	return i.hit
}

// SetHit assigns the hit flag. Pools call it exactly once per item.
func (i *CacheItem) SetHit(hit bool) error {
	if i.hitSet {
		return &DoubleHitFlagSetError{Key: i.key}
	}
	i.hit = hit
	i.hitSet = true
	return nil
}

// Get returns the value. Items loaded from an encoding store return nil until
// decoded with Decode or Value.
func (i *CacheItem) Get() any {
	return i.value
}

// Set replaces the value and drops any encoded payload.
func (i *CacheItem) Set(value any) Item {
	i.value = value
	i.payload = nil
	return i
}

// ExpiresAfter sets a relative lifetime. Zero or negative means no expiry.
func (i *CacheItem) ExpiresAfter(ttl time.Duration) Item {
	i.ttl = ttl
	i.expiresAt = nil
	return i
}

// ExpiresAt sets an absolute expiry.
func (i *CacheItem) ExpiresAt(t time.Time) Item {
	i.expiresAt = &t
	i.ttl = 0
	return i
}

// TTL returns the lifetime the item will be saved with.
func (i *CacheItem) TTL() time.Duration {
	if i.expiresAt != nil {
		remaining := time.Until(*i.expiresAt)
		if remaining <= 0 {
			return -1
		}
		return remaining
	}
	return i.ttl
}

// Encoded reports whether the item holds an undecoded payload.
func (i *CacheItem) Encoded() bool {
	return i.payload != nil
}

// Decode unmarshals the stored payload into target.
func (i *CacheItem) Decode(target any) error {
	codec := i.codec
	if codec == nil {
		codec = store.MsgpackCodec{}
	}
	return codec.Unmarshal(i.payload, target)
}

func (i *CacheItem) withPayload(payload []byte, codec store.Codec) *CacheItem {
	i.payload = payload
	i.codec = codec
	return i
}

var _ Item = (*CacheItem)(nil)
