package memoize

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/memoproxy/internal/store"
	"github.com/vnykmshr/memoproxy/pkg/compression"
	"github.com/vnykmshr/memoproxy/pkg/metrics"
)

// StoreType defines the type of backend store a pool uses
type StoreType int

const (
	// StoreTypeMemory uses an in-process LRU (default)
	StoreTypeMemory StoreType = iota
	// StoreTypeOtter uses an in-process W-TinyLFU cache
	StoreTypeOtter
	// StoreTypeSturdyc uses a sharded in-process cache
	StoreTypeSturdyc
	// StoreTypeRedis uses Redis as backend storage
	StoreTypeRedis
)

// String returns the configuration name of the store type
func (t StoreType) String() string {
	switch t {
	case StoreTypeMemory:
		return "memory"
	case StoreTypeOtter:
		return "otter"
	case StoreTypeSturdyc:
		return "sturdyc"
	case StoreTypeRedis:
		return "redis"
	default:
		return "unknown"
	}
}

// ParseStoreType maps a configuration name to a StoreType
func ParseStoreType(name string) (StoreType, bool) {
	switch name {
	case "", "memory":
		return StoreTypeMemory, true
	case "otter":
		return StoreTypeOtter, true
	case "sturdyc":
		return StoreTypeSturdyc, true
	case "redis":
		return StoreTypeRedis, true
	default:
		return StoreTypeMemory, false
	}
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	// Client is a pre-configured Redis client
	// If nil, a new client will be created using Addr, Password, DB
	Client redis.Cmdable

	// Addr is the Redis server address (host:port)
	Addr string

	// Password for Redis authentication
	Password string

	// DB is the Redis database number to use
	DB int

	// KeyPrefix is prepended to all cache keys
	// Default: "memoproxy:"
	KeyPrefix string
}

// SturdycConfig holds sturdyc-specific configuration
type SturdycConfig struct {
	NumShards          int
	EvictionPercentage int
}

// MetricsConfig holds metrics exporter configuration
type MetricsConfig struct {
	// Exporter receives pool events
	Exporter metrics.Exporter

	// PoolName is the value of the pool label on every metric
	PoolName string

	// Labels are additional labels applied to all metrics
	Labels metrics.Labels
}

// Config defines the configuration options for a StorePool
type Config struct {
	// StoreType determines which backend store to use
	StoreType StoreType

	// MaxEntries bounds the in-process stores
	// Default: 1000
	MaxEntries int

	// MaxTTL caps the lifetime of entries in otter and sturdyc
	// Default: 24 hours
	MaxTTL time.Duration

	// Redis is required when StoreType is StoreTypeRedis
	Redis *RedisConfig

	// Sturdyc tunes the sturdyc store
	Sturdyc *SturdycConfig

	// Codec encodes values for Redis; defaults to msgpack
	Codec store.Codec

	// Compression wraps Codec when set
	Compression *compression.Config

	// CopyValues encodes values on save in every store, so each hit decodes
	// a private copy. Without it in-process stores hand back the saved value.
	CopyValues bool

	// Metrics is optional
	Metrics *MetricsConfig

	// Logger receives swallowed backend errors
	Logger Logger
}

// NewDefaultConfig returns a Config for an in-memory LRU pool
func NewDefaultConfig() *Config {
	return &Config{
		StoreType:  StoreTypeMemory,
		MaxEntries: 1000,
		MaxTTL:     24 * time.Hour,
	}
}

// NewRedisConfig returns a Config configured for Redis storage
func NewRedisConfig(addr string) *Config {
	return NewDefaultConfig().WithRedis(&RedisConfig{Addr: addr})
}

// NewRedisConfigWithClient returns a Config using an existing Redis client
func NewRedisConfigWithClient(client redis.Cmdable) *Config {
	return NewDefaultConfig().WithRedis(&RedisConfig{Client: client})
}

// WithStoreType sets the backend store
func (c *Config) WithStoreType(t StoreType) *Config {
	c.StoreType = t
	return c
}

// WithMaxEntries sets the capacity of in-process stores
func (c *Config) WithMaxEntries(maxEntries int) *Config {
	c.MaxEntries = maxEntries
	return c
}

// WithMaxTTL sets the lifetime cap for otter and sturdyc
func (c *Config) WithMaxTTL(ttl time.Duration) *Config {
	c.MaxTTL = ttl
	return c
}

// WithRedis switches the pool to Redis
func (c *Config) WithRedis(redisConfig *RedisConfig) *Config {
	c.StoreType = StoreTypeRedis
	c.Redis = redisConfig
	return c
}

// WithRedisKeyPrefix sets the Redis key prefix
func (c *Config) WithRedisKeyPrefix(prefix string) *Config {
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	c.Redis.KeyPrefix = prefix
	return c
}

// WithSturdyc switches the pool to sturdyc
func (c *Config) WithSturdyc(sturdycConfig *SturdycConfig) *Config {
	c.StoreType = StoreTypeSturdyc
	c.Sturdyc = sturdycConfig
	return c
}

// WithCodec sets the codec used by encoding stores
func (c *Config) WithCodec(codec store.Codec) *Config {
	c.Codec = codec
	return c
}

// WithCompression compresses encoded values
func (c *Config) WithCompression(cfg *compression.Config) *Config {
	c.Compression = cfg
	return c
}

// WithCopyValues makes every hit return a decoded copy of the saved value
func (c *Config) WithCopyValues(enabled bool) *Config {
	c.CopyValues = enabled
	return c
}

// resolveCodec returns the codec encoding stores use
func (c *Config) resolveCodec() (store.Codec, error) {
	codec := c.Codec
	if codec == nil {
		codec = store.MsgpackCodec{}
	}
	if c.Compression == nil {
		return codec, nil
	}
	return compression.NewCodec(codec, c.Compression)
}

// WithMetricsExporter enables metrics for the pool
func (c *Config) WithMetricsExporter(exporter metrics.Exporter, poolName string) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	c.Metrics.Exporter = exporter
	c.Metrics.PoolName = poolName
	return c
}

// WithMetricsLabels adds labels to every metric
func (c *Config) WithMetricsLabels(labels metrics.Labels) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
	if c.Metrics.Labels == nil {
		c.Metrics.Labels = make(metrics.Labels)
	}
	for k, v := range labels {
		c.Metrics.Labels[k] = v
	}
	return c
}

// WithLogger sets the pool logger
func (c *Config) WithLogger(logger Logger) *Config {
	c.Logger = logger
	return c
}
