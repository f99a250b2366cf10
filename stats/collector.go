// Package stats aggregates the engine's operational counters: bytes in and
// out, per-method usage, timings, and decision-cache effectiveness.
package stats

import (
	"sync"
	"time"

	"github.com/arloliu/squash/format"
)

// Collector accumulates counters across all engine calls. It is shared,
// mutable state and serializes every update behind a mutex.
type Collector struct {
	mu sync.Mutex

	bytesIn  uint64
	bytesOut uint64

	compressions   uint64
	decompressions uint64

	methodUsage map[format.Algorithm]uint64

	cacheHits   uint64
	cacheMisses uint64
	adaptations uint64

	compressTime   time.Duration
	decompressTime time.Duration
}

// Snapshot is an immutable copy of the collector state.
type Snapshot struct {
	BytesIn  uint64
	BytesOut uint64

	Compressions   uint64
	Decompressions uint64

	MethodUsage map[format.Algorithm]uint64

	CacheHits   uint64
	CacheMisses uint64

	// Adaptations counts decisions that fell through to the static
	// heuristic table instead of being reused.
	Adaptations uint64

	CompressTime   time.Duration
	DecompressTime time.Duration
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		methodUsage: make(map[format.Algorithm]uint64),
	}
}

// RecordCompression accounts for one completed compress call.
func (c *Collector) RecordCompression(algo format.Algorithm, bytesIn, bytesOut int, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.compressions++
	c.bytesIn += uint64(bytesIn)
	c.bytesOut += uint64(bytesOut)
	c.methodUsage[algo]++
	c.compressTime += elapsed
}

// RecordDecompression accounts for one completed decompress call.
func (c *Collector) RecordDecompression(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.decompressions++
	c.decompressTime += elapsed
}

// RecordCacheHit counts a reused method decision.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheHits++
}

// RecordCacheMiss counts a decision that was not served from the cache;
// adapted marks decisions produced by the static heuristic table.
func (c *Collector) RecordCacheMiss(adapted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cacheMisses++
	if adapted {
		c.adaptations++
	}
}

// CacheHitRate returns hits/(hits+misses), or 0 when nothing was recorded.
func (c *Collector) CacheHitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.cacheHits + c.cacheMisses
	if total == 0 {
		return 0
	}

	return float64(c.cacheHits) / float64(total)
}

// Snapshot returns a copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage := make(map[format.Algorithm]uint64, len(c.methodUsage))
	for algo, count := range c.methodUsage {
		usage[algo] = count
	}

	return Snapshot{
		BytesIn:        c.bytesIn,
		BytesOut:       c.bytesOut,
		Compressions:   c.compressions,
		Decompressions: c.decompressions,
		MethodUsage:    usage,
		CacheHits:      c.cacheHits,
		CacheMisses:    c.cacheMisses,
		Adaptations:    c.adaptations,
		CompressTime:   c.compressTime,
		DecompressTime: c.decompressTime,
	}
}

// Reset zeroes all counters.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bytesIn = 0
	c.bytesOut = 0
	c.compressions = 0
	c.decompressions = 0
	c.methodUsage = make(map[format.Algorithm]uint64)
	c.cacheHits = 0
	c.cacheMisses = 0
	c.adaptations = 0
	c.compressTime = 0
	c.decompressTime = 0
}
