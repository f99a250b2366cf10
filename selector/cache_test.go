package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/squash/format"
)

func testDecision() Decision {
	return Decision{Algorithm: format.AlgoLZHuffman, Level: format.LevelDefault}
}

func TestCacheStoreAndLookup(t *testing.T) {
	c := NewCache()
	key := CacheKey{PrefixHash: 0xABCD, Size: 1024, EntropyBucket: 5}

	_, ok := c.Lookup(key)
	require.False(t, ok)

	c.Store(key, testDecision(), 0.42)

	got, ok := c.Lookup(key)
	require.True(t, ok)
	require.Equal(t, testDecision(), got)
	require.Equal(t, 1, c.Len())
}

func TestCacheKeyComponentsAreSignificant(t *testing.T) {
	c := NewCache()
	key := CacheKey{PrefixHash: 1, Size: 100, EntropyBucket: 3}
	c.Store(key, testDecision(), 0)

	_, ok := c.Lookup(CacheKey{PrefixHash: 1, Size: 100, EntropyBucket: 4})
	require.False(t, ok)

	_, ok = c.Lookup(CacheKey{PrefixHash: 1, Size: 101, EntropyBucket: 3})
	require.False(t, ok)

	_, ok = c.Lookup(CacheKey{PrefixHash: 2, Size: 100, EntropyBucket: 3})
	require.False(t, ok)
}

func TestCacheCleanupEvictsStaleEntries(t *testing.T) {
	c := NewCache()
	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	stale := CacheKey{PrefixHash: 1, Size: 1}
	fresh := CacheKey{PrefixHash: 2, Size: 2}

	c.Store(stale, testDecision(), 0)

	current = current.Add(10 * time.Minute)
	c.Store(fresh, testDecision(), 0)

	removed := c.Cleanup(5 * time.Minute)

	require.Equal(t, 1, removed)
	require.Equal(t, 1, c.Len())

	_, ok := c.Lookup(fresh)
	require.True(t, ok)
}

func TestCacheCleanupExtendsTTLForHotEntries(t *testing.T) {
	c := NewCache()
	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	cold := CacheKey{PrefixHash: 1, Size: 1}
	hot := CacheKey{PrefixHash: 2, Size: 2}

	c.Store(cold, testDecision(), 0)
	c.Store(hot, testDecision(), 0)

	// Three hits push the hot entry's effective TTL to 4x maxAge.
	for i := 0; i < 3; i++ {
		_, ok := c.Lookup(hot)
		require.True(t, ok)
	}

	// 7 minutes idle: past 5m base TTL, inside the extended TTL.
	current = current.Add(7 * time.Minute)

	removed := c.Cleanup(5 * time.Minute)
	require.Equal(t, 1, removed)

	_, ok := c.Lookup(hot)
	require.True(t, ok)
}

func TestCacheLookupRefreshesTimestamp(t *testing.T) {
	c := NewCache()
	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	key := CacheKey{PrefixHash: 7, Size: 7}
	c.Store(key, testDecision(), 0)

	current = current.Add(4 * time.Minute)
	_, ok := c.Lookup(key)
	require.True(t, ok)

	// 9 more minutes: 13 since store, 9 since the refreshing lookup. With
	// one hit the effective TTL is 10 minutes, so only the refreshed
	// timestamp keeps the entry alive.
	current = current.Add(9 * time.Minute)

	removed := c.Cleanup(5 * time.Minute)
	require.Equal(t, 0, removed)
}

func TestCacheReset(t *testing.T) {
	c := NewCache()
	c.Store(CacheKey{PrefixHash: 1}, testDecision(), 0)
	c.Reset()
	require.Equal(t, 0, c.Len())
}
