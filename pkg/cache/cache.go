// Package cache stores finished narratives so identical plan documents are
// only narrated once.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Value is a finished narrative and the number of plan nodes it narrates.
type Value struct {
	Narrative string
	NodeCount int
}

// Cache defines the interface for caching narratives.
type Cache interface {
	// Get returns the narrative stored under key.
	Get(ctx context.Context, key string) (Value, bool)
	// Put stores a narrative.
	Put(ctx context.Context, key string, value Value) error
	// Delete removes a narrative.
	Delete(ctx context.Context, key string) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// Stats returns a snapshot of the cache statistics.
	Stats() Stats
	// Close releases any resources held by the cache.
	Close() error
}

// Entry is a single cached narrative.
type Entry struct {
	Value     Value
	CreatedAt time.Time
	LastUsed  time.Time
	Size      int64
}

// MemoryCache is a size-bounded, least-recently-used in-memory Cache.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	maxSize  int64
	currSize int64
	ttl      time.Duration
	stats    *StatsCollector
	now      func() time.Time
}

// NewMemoryCache creates a memory cache from cfg. A nil cfg uses DefaultConfig.
func NewMemoryCache(cfg *Config) *MemoryCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &MemoryCache{
		entries: make(map[string]*Entry),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		stats:   NewStatsCollector(),
		now:     time.Now,
	}
}

// Get returns the narrative stored under key. Expired entries count as misses.
func (c *MemoryCache) Get(ctx context.Context, key string) (Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.expired(entry) {
		c.remove(key)
		ok = false
	}
	if !ok {
		c.stats.RecordMiss()
		return Value{}, false
	}

	entry.LastUsed = c.now()
	c.stats.RecordHit()
	return entry.Value, true
}

// Put stores a narrative, evicting least recently used entries until it fits.
// Narratives larger than the whole cache are not stored.
func (c *MemoryCache) Put(ctx context.Context, key string, value Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(value.Narrative))
	if c.maxSize > 0 && size > c.maxSize {
		return nil
	}

	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	for c.maxSize > 0 && c.currSize+size > c.maxSize && len(c.entries) > 0 {
		c.evictOldest()
	}

	now := c.now()
	c.entries[key] = &Entry{
		Value:     value,
		CreatedAt: now,
		LastUsed:  now,
		Size:      size,
	}
	c.currSize += size
	c.stats.UpdateSize(c.currSize)
	return nil
}

// Delete removes a narrative.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)
	return nil
}

// Clear removes all entries.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.currSize = 0
	c.stats.UpdateSize(0)
	return nil
}

// Stats returns a snapshot of the cache statistics.
func (c *MemoryCache) Stats() Stats {
	return c.stats.GetStats()
}

// Len returns the number of cached narratives.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close releases any resources held by the cache.
func (c *MemoryCache) Close() error {
	return c.Clear(context.Background())
}

func (c *MemoryCache) expired(e *Entry) bool {
	return c.ttl > 0 && c.now().Sub(e.CreatedAt) > c.ttl
}

func (c *MemoryCache) remove(key string) {
	if entry, ok := c.entries[key]; ok {
		c.currSize -= entry.Size
		delete(c.entries, key)
		c.stats.UpdateSize(c.currSize)
	}
}

// evictOldest removes the least recently used entry.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastUsed
		}
	}

	if oldestKey != "" {
		c.remove(oldestKey)
		c.stats.RecordEviction()
	}
}

// KeyGenerator derives cache keys from plan documents.
type KeyGenerator interface {
	GenerateKey(document []byte) string
}

// XXHashKeyGenerator keys documents by the xxhash of their bytes.
type XXHashKeyGenerator struct{}

// GenerateKey returns the hex xxhash64 of document.
func (g XXHashKeyGenerator) GenerateKey(document []byte) string {
	return strconv.FormatUint(xxhash.Sum64(document), 16)
}
