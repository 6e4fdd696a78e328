package resource

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCache_LRUEvictsLeastRecentlyTouched(t *testing.T) {
	// S4: maxSize=3KB, load R1/R2/R3 (1KB each), release all, touch R1,
	// then load R4 (1KB). R2 must be evicted as the least recently used.
	c := NewCache(CacheConfig{MaxSize: 3072, Policy: EvictLRU}, nil)

	put := func(id ID) {
		c.Put(Entry{ID: id, Size: 1024, State: StateLoaded, LastAccessed: time.Now()})
		time.Sleep(time.Millisecond)
	}
	put("R1")
	put("R2")
	put("R3")

	for _, id := range []ID{"R1", "R2", "R3"} {
		h, ok := c.NewHandle(id)
		require.True(t, ok)
		h.Release()
	}

	c.Touch("R1")
	time.Sleep(time.Millisecond)

	c.Put(Entry{ID: "R4", Size: 1024, State: StateLoaded, LastAccessed: time.Now()})

	_, ok := c.Get("R2")
	require.False(t, ok, "R2 must have been evicted")
	_, ok = c.Get("R1")
	require.True(t, ok, "R1 was touched and must survive")
	_, ok = c.Get("R3")
	require.True(t, ok, "R3 is more recent than R2 and must survive")
	_, ok = c.Get("R4")
	require.True(t, ok)
}

func TestCache_PinnedEntriesSurviveEviction(t *testing.T) {
	c := NewCache(CacheConfig{MaxSize: 1024, Policy: EvictLRU}, nil)
	c.Put(Entry{ID: "pinned", Size: 1024, State: StateLoaded, LastAccessed: time.Now()})
	h, ok := c.NewHandle("pinned")
	require.True(t, ok)
	defer h.Release()

	c.Put(Entry{ID: "other", Size: 1024, State: StateLoaded, LastAccessed: time.Now()})

	_, ok = c.Get("pinned")
	require.True(t, ok, "a referenced entry must never be evicted")
}

func TestCache_EvictFIFOPrefersOldestLoad(t *testing.T) {
	c := NewCache(CacheConfig{MaxSize: 2048, Policy: EvictFIFO}, nil)
	c.Put(Entry{ID: "first", Size: 1024, State: StateLoaded, LoadedAt: time.Now()})
	time.Sleep(time.Millisecond)
	c.Put(Entry{ID: "second", Size: 1024, State: StateLoaded, LoadedAt: time.Now()})
	time.Sleep(time.Millisecond)

	c.Put(Entry{ID: "third", Size: 1024, State: StateLoaded, LoadedAt: time.Now()})

	_, ok := c.Get("first")
	require.False(t, ok, "FIFO must evict the oldest load first")
	_, ok = c.Get("second")
	require.True(t, ok)
}

func TestCache_SweepExpiredRemovesStaleUnpinnedEntries(t *testing.T) {
	c := NewCache(CacheConfig{TTL: time.Millisecond}, nil)
	c.Put(Entry{ID: "stale", Size: 1, State: StateLoaded, LastAccessed: time.Now().Add(-time.Hour)})
	c.Put(Entry{ID: "fresh", Size: 1, State: StateLoaded, LastAccessed: time.Now()})

	c.SweepExpired(time.Now())

	_, ok := c.Get("stale")
	require.False(t, ok)
	_, ok = c.Get("fresh")
	require.True(t, ok)
}

func TestCache_EvictIfUnusedLeavesReferencedEntry(t *testing.T) {
	c := NewCache(CacheConfig{}, nil)
	c.Put(Entry{ID: "r", Size: 1, State: StateLoaded, LastAccessed: time.Now()})
	h, _ := c.NewHandle("r")
	defer h.Release()

	c.EvictIfUnused("r")

	_, ok := c.Get("r")
	require.True(t, ok, "a pinned entry must not be evicted")
}
