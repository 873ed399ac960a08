package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds cache statistics
type Stats struct {
	Hits        uint64    `json:"hits" yaml:"hits"`
	Misses      uint64    `json:"misses" yaml:"misses"`
	Evictions   uint64    `json:"evictions" yaml:"evictions"`
	Size        int64     `json:"size" yaml:"size"`
	LastUpdated time.Time `json:"last_updated" yaml:"last_updated"`
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// StatsCollector collects cache statistics
type StatsCollector struct {
	hits      uint64
	misses    uint64
	evictions uint64
	size      int64

	mu          sync.Mutex
	lastUpdated time.Time
}

// NewStatsCollector creates a new statistics collector
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{lastUpdated: time.Now()}
}

// RecordHit records a cache hit
func (c *StatsCollector) RecordHit() {
	atomic.AddUint64(&c.hits, 1)
	c.touch()
}

// RecordMiss records a cache miss
func (c *StatsCollector) RecordMiss() {
	atomic.AddUint64(&c.misses, 1)
	c.touch()
}

// RecordEviction records a cache eviction
func (c *StatsCollector) RecordEviction() {
	atomic.AddUint64(&c.evictions, 1)
	c.touch()
}

// UpdateSize updates the current cache size
func (c *StatsCollector) UpdateSize(size int64) {
	atomic.StoreInt64(&c.size, size)
	c.touch()
}

// GetStats returns the current cache statistics
func (c *StatsCollector) GetStats() Stats {
	c.mu.Lock()
	last := c.lastUpdated
	c.mu.Unlock()

	return Stats{
		Hits:        atomic.LoadUint64(&c.hits),
		Misses:      atomic.LoadUint64(&c.misses),
		Evictions:   atomic.LoadUint64(&c.evictions),
		Size:        atomic.LoadInt64(&c.size),
		LastUpdated: last,
	}
}

func (c *StatsCollector) touch() {
	c.mu.Lock()
	c.lastUpdated = time.Now()
	c.mu.Unlock()
}
