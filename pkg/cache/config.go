package cache

import (
	"time"
)

// Config holds the configuration for the cache
type Config struct {
	// MaxSize is the maximum total narrative size in bytes. Zero means unbounded.
	MaxSize int64
	// TTL is the time-to-live for cache entries. Zero means entries never expire.
	TTL time.Duration
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		MaxSize: 16 * 1024 * 1024, // 16MB
		TTL:     30 * time.Minute,
	}
}

// WithMaxSize sets the maximum size of the cache
func (c *Config) WithMaxSize(size int64) *Config {
	c.MaxSize = size
	return c
}

// WithTTL sets the time-to-live for cache entries
func (c *Config) WithTTL(ttl time.Duration) *Config {
	c.TTL = ttl
	return c
}
