package memoize

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/memoproxy/internal/entry"
	"github.com/vnykmshr/memoproxy/internal/singleflight"
	"github.com/vnykmshr/memoproxy/internal/store"
	"github.com/vnykmshr/memoproxy/internal/store/memory"
	otterstore "github.com/vnykmshr/memoproxy/internal/store/otter"
	redisstore "github.com/vnykmshr/memoproxy/internal/store/redis"
	sturdycstore "github.com/vnykmshr/memoproxy/internal/store/sturdyc"
	"github.com/vnykmshr/memoproxy/pkg/metrics"
)

// Pool is the cache contract generated proxies depend on.
type Pool interface {
	// GetItem returns an item for key. The item reports whether a value was
	// found; it is never nil.
	GetItem(ctx context.Context, key string) Item

	// Save persists the item's value and lifetime. It reports whether the
	// backend accepted it.
	Save(ctx context.Context, item Item) bool
}

// StorePool implements Pool over one of the bundled stores. Backend errors are
// logged and reported as misses or failed saves; they never reach the proxy.
// Concurrent lookups of one key share a single backend read.
//
// The memory, otter and sturdyc stores keep the saved value itself, so a hit
// returns the same slice, map or pointer to every caller and a caller that
// mutates it changes what later hits see. Config.CopyValues encodes values on
// save instead, giving each hit its own decoded copy.
type StorePool struct {
	store    store.Store
	lookups  singleflight.Group[string, lookup]
	codec    store.Codec
	copy     bool
	stats    *Stats
	logger   Logger
	exporter metrics.Exporter
	labels   metrics.Labels
}

// NewPool creates a StorePool from config. A nil config uses NewDefaultConfig.
func NewPool(config *Config) (*StorePool, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	codec, err := config.resolveCodec()
	if err != nil {
		return nil, err
	}

	var backend store.Store
	switch config.StoreType {
	case StoreTypeMemory:
		backend, err = memory.New(config.MaxEntries)
	case StoreTypeOtter:
		backend, err = otterstore.New(config.MaxEntries, config.MaxTTL)
	case StoreTypeSturdyc:
		backend, err = createSturdycStore(config)
	case StoreTypeRedis:
		backend, err = createRedisStore(config, codec)
	default:
		return nil, fmt.Errorf("unsupported store type: %v", config.StoreType)
	}
	if err != nil {
		return nil, err
	}

	return NewPoolWithStore(backend, config), nil
}

// NewPoolWithStore wraps an existing store. Only the codec, copy, metrics and
// logger settings of config are used. An invalid compression setting is logged and
// values are stored uncompressed.
func NewPoolWithStore(backend store.Store, config *Config) *StorePool {
	if config == nil {
		config = NewDefaultConfig()
	}

	p := &StorePool{
		store:    backend,
		codec:    store.MsgpackCodec{},
		copy:     config.CopyValues,
		stats:    &Stats{},
		logger:   config.Logger,
		exporter: metrics.NewNoOpExporter(),
		labels:   metrics.Labels{metrics.LabelPool: "default"},
	}
	if p.logger == nil {
		p.logger = NewNoOpLogger()
	}
	if codec, err := config.resolveCodec(); err != nil {
		p.logger.Warn("invalid codec configuration, using msgpack", F("error", err))
	} else {
		p.codec = codec
	}

	if m := config.Metrics; m != nil {
		if m.Exporter != nil {
			p.exporter = m.Exporter
		}
		if m.PoolName != "" {
			p.labels[metrics.LabelPool] = m.PoolName
		}
		for k, v := range m.Labels {
			p.labels[k] = v
		}
	}

	return p
}

func createSturdycStore(config *Config) (store.Store, error) {
	cfg := sturdycstore.Config{
		Capacity: config.MaxEntries,
		MaxTTL:   config.MaxTTL,
	}
	if config.Sturdyc != nil {
		cfg.NumShards = config.Sturdyc.NumShards
		cfg.EvictionPercentage = config.Sturdyc.EvictionPercentage
	}
	return sturdycstore.New(cfg)
}

func createRedisStore(config *Config, codec store.Codec) (store.Store, error) {
	if config.Redis == nil {
		return nil, fmt.Errorf("redis configuration is required when using StoreTypeRedis")
	}

	client := config.Redis.Client
	if client == nil {
		c := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := c.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		client = c
	}

	return redisstore.New(&redisstore.Config{
		Client:    client,
		KeyPrefix: config.Redis.KeyPrefix,
		Codec:     codec,
	})
}

// GetItem looks key up in the backing store.
func (p *StorePool) GetItem(ctx context.Context, key string) Item {
	start := time.Now()
	item := NewItem(key)

	res, err, _ := p.lookups.Do(ctx, key, func(ctx context.Context) (lookup, error) {
		e, found, err := p.store.Get(ctx, key)
		return lookup{entry: e, found: found}, err
	})
	e, found := res.entry, res.found
	p.recordDuration(metrics.OperationGet, start)
	if err != nil {
		p.stats.incErrors()
		p.recordError(metrics.OperationGet)
		p.logger.Warn("pool lookup failed, treating as miss", F("key", key), F("error", err))
		found = false
	}

	if !found {
		mustMarkHit(item, false)
		p.stats.incMisses()
		p.recordLookup(metrics.ResultMiss)
		return item
	}

	if e.IsEncoded() {
		item.withPayload(e.Payload, p.codec)
	} else {
		item.value = e.Value
	}
	if e.ExpiresAt != nil {
		item.ExpiresAt(*e.ExpiresAt)
	}
	mustMarkHit(item, true)
	p.stats.incHits()
	p.recordLookup(metrics.ResultHit)
	return item
}

type lookup struct {
	entry *entry.Entry
	found bool
}

// Save stores the item. Items from other Pool implementations are saved by
// their Get value with no expiry.
func (p *StorePool) Save(ctx context.Context, item Item) bool {
	if item == nil {
		return false
	}

	var e *entry.Entry
	if ci, ok := item.(*CacheItem); ok {
		ttl := ci.TTL()
		if ttl < 0 {
			// Already expired
			p.stats.incSaveFailures()
			p.recordSave(false)
			return false
		}
		e = entry.New(ci.value, ttl)
		switch {
		case ci.Encoded():
			e = entry.Encoded(ci.payload, e.CreatedAt, e.ExpiresAt)
		case p.copy:
			payload, err := p.codec.Marshal(ci.value)
			if err != nil {
				p.stats.incErrors()
				p.stats.incSaveFailures()
				p.recordError(metrics.OperationSave)
				p.recordSave(false)
				p.logger.Warn("pool encode failed", F("key", item.Key()), F("error", err))
				return false
			}
			e = entry.Encoded(payload, e.CreatedAt, e.ExpiresAt)
		}
	} else {
		e = entry.New(item.Get(), 0)
	}

	start := time.Now()
	err := p.store.Set(ctx, item.Key(), e)
	p.recordDuration(metrics.OperationSave, start)
	if err != nil {
		p.stats.incErrors()
		p.stats.incSaveFailures()
		p.recordError(metrics.OperationSave)
		p.recordSave(false)
		p.logger.Warn("pool save failed", F("key", item.Key()), F("error", err))
		return false
	}

	p.stats.incSaves()
	p.recordSave(true)
	return true
}

// Delete removes key from the backing store.
func (p *StorePool) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := p.store.Delete(ctx, key)
	p.recordDuration(metrics.OperationDelete, start)
	if err != nil {
		p.recordError(metrics.OperationDelete)
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Clear removes every entry from the backing store.
func (p *StorePool) Clear(ctx context.Context) error {
	start := time.Now()
	err := p.store.Clear(ctx)
	p.recordDuration(metrics.OperationClear, start)
	if err != nil {
		p.recordError(metrics.OperationClear)
		return fmt.Errorf("clear pool: %w", err)
	}
	return nil
}

// Len returns the number of stored entries
func (p *StorePool) Len() int {
	return p.store.Len()
}

// Stats returns the pool counters
func (p *StorePool) Stats() *Stats {
	return p.stats
}

// Close releases the backing store
func (p *StorePool) Close() error {
	return p.store.Close()
}

// mustMarkHit assigns the hit flag of a freshly created item. A second
// assignment is a programming error in the pool.
func mustMarkHit(item *CacheItem, hit bool) {
	if err := item.SetHit(hit); err != nil {
		panic(err)
	}
}

func (p *StorePool) recordLookup(result metrics.Result) {
	if err := p.exporter.RecordLookup(result, p.labels); err != nil {
		p.logger.Debug("metrics export failed", F("error", err))
	}
}

func (p *StorePool) recordSave(ok bool) {
	if err := p.exporter.RecordSave(ok, p.labels); err != nil {
		p.logger.Debug("metrics export failed", F("error", err))
	}
}

func (p *StorePool) recordError(op metrics.Operation) {
	if err := p.exporter.RecordError(op, p.labels); err != nil {
		p.logger.Debug("metrics export failed", F("error", err))
	}
}

func (p *StorePool) recordDuration(op metrics.Operation, start time.Time) {
	if err := p.exporter.RecordDuration(op, time.Since(start), p.labels); err != nil {
		p.logger.Debug("metrics export failed", F("error", err))
	}
}

var _ Pool = (*StorePool)(nil)
