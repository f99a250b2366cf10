package selector

import (
	"sync"
	"time"

	"github.com/arloliu/squash/format"
)

// DefaultCacheTTL is the default maximum idle age of a cache entry before
// Cleanup removes it.
const DefaultCacheTTL = 10 * time.Minute

// cacheHitTTLCap bounds the hit-count multiplier applied to the TTL, so a
// frequently reused entry lives at most (1+cap)× the configured age.
const cacheHitTTLCap = 3

// Decision is the immutable (algorithm, level) pair produced by selection.
type Decision struct {
	Algorithm format.Algorithm
	Level     format.Level
}

// CacheKey identifies a buffer for decision reuse: the xxHash64 of its
// prefix, its exact size, and its entropy bucket (floor(entropy*10)).
type CacheKey struct {
	PrefixHash    uint64
	Size          int
	EntropyBucket int
}

type cacheEntry struct {
	decision Decision
	ratio    float64
	lastUsed time.Time
	hits     int
}

// Cache is a bounded-lifetime store of past method decisions. Entries may be
// evicted at any time without correctness impact; a miss only costs a
// re-computation.
//
// All methods are safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[CacheKey]*cacheEntry
	now     func() time.Time // injectable for tests
}

// NewCache creates an empty decision cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[CacheKey]*cacheEntry),
		now:     time.Now,
	}
}

// Lookup returns the cached decision for key, refreshing its timestamp and
// hit counter on success.
func (c *Cache) Lookup(key CacheKey) (Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Decision{}, false
	}

	entry.lastUsed = c.now()
	entry.hits++

	return entry.decision, true
}

// Store records a decision for key, overwriting any previous entry
// (last-write-wins).
func (c *Cache) Store(key CacheKey, decision Decision, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		decision: decision,
		ratio:    ratio,
		lastUsed: c.now(),
	}
}

// UpdateRatio records the achieved compression ratio on an existing entry.
// Unknown keys are ignored; the entry may have been evicted meanwhile.
func (c *Cache) UpdateRatio(key CacheKey, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.ratio = ratio
	}
}

// Cleanup removes entries idle for longer than maxAge. Frequently hit
// entries get an extended effective TTL proportional to their hit count.
// It returns the number of entries removed.
func (c *Cache) Cleanup(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0

	for key, entry := range c.entries {
		weight := entry.hits
		if weight > cacheHitTTLCap {
			weight = cacheHitTTLCap
		}

		effective := maxAge * time.Duration(1+weight)
		if now.Sub(entry.lastUsed) > effective {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Reset discards all entries.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[CacheKey]*cacheEntry)
}
