package resource

import (
	"sync"
	"time"

	"github.com/emberengine/ember"
)

// EvictionPolicy selects which non-pinned entry Cache.Put evicts first when
// the cache is over budget.
type EvictionPolicy int

const (
	// EvictLRU evicts the entry with the oldest LastAccessed.
	EvictLRU EvictionPolicy = iota
	// EvictLFU evicts the entry with the lowest AccessCount.
	EvictLFU
	// EvictFIFO evicts the entry with the oldest LoadedAt.
	EvictFIFO
	// EvictSIZE evicts the largest entry.
	EvictSIZE
)

// CacheConfig bounds a Cache's budget and names its eviction policy.
type CacheConfig struct {
	MaxSize  int64
	MaxCount int           // 0 = unbounded
	TTL      time.Duration // 0 = no TTL sweep
	Policy   EvictionPolicy
}

// Cache holds resource Entries behind one mutex: the ECS/render main loop is
// single-threaded (§5), but the mutex also serializes completions delivered
// by background loader goroutines.
type Cache struct {
	mu          sync.Mutex
	cfg         CacheConfig
	logger      ember.Logger
	entries     map[ID]*Entry
	currentSize int64
}

func NewCache(cfg CacheConfig, logger ember.Logger) *Cache {
	if logger == nil {
		logger = ember.NewNopLogger()
	}
	return &Cache{cfg: cfg, logger: logger, entries: make(map[ID]*Entry)}
}

// Get returns a copy of the entry (for inspection) and whether it exists.
func (c *Cache) Get(id ID) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (c *Cache) peek(id ID) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Touch records an access against id for LRU/LFU accounting.
func (c *Cache) Touch(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.LastAccessed = time.Now()
		e.AccessCount++
	}
}

// Put inserts or replaces the entry for id, running budget eviction first.
func (c *Cache) Put(entry Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[entry.ID]; ok {
		c.currentSize -= existing.Size
	}

	c.evictForSize(entry.Size)
	c.evictForCount()

	stored := entry
	c.entries[entry.ID] = &stored
	c.currentSize += entry.Size
}

// evictForSize runs a bounded eviction loop (capped at the current entry
// count, §4.7) until currentSize+incoming fits maxSize or every remaining
// entry is pinned.
func (c *Cache) evictForSize(incoming int64) {
	if c.cfg.MaxSize <= 0 {
		return
	}
	bound := len(c.entries)
	for i := 0; i < bound && c.currentSize+incoming > c.cfg.MaxSize; i++ {
		victim, ok := c.pickVictim()
		if !ok {
			c.logger.Warnf("resource cache: all %d entries pinned, overshooting maxSize budget", len(c.entries))
			return
		}
		c.evict(victim)
	}
}

func (c *Cache) evictForCount() {
	if c.cfg.MaxCount <= 0 {
		return
	}
	bound := len(c.entries)
	for i := 0; i < bound && len(c.entries) >= c.cfg.MaxCount; i++ {
		victim, ok := c.pickVictim()
		if !ok {
			c.logger.Warnf("resource cache: all %d entries pinned, overshooting maxCount budget", len(c.entries))
			return
		}
		c.evict(victim)
	}
}

func (c *Cache) pickVictim() (ID, bool) {
	var victim ID
	found := false
	var bestAccessed time.Time
	var bestCount int64
	var bestLoaded time.Time
	var bestSize int64

	for id, e := range c.entries {
		if e.pinned() {
			continue
		}
		if !found {
			victim, bestAccessed, bestCount, bestLoaded, bestSize = id, e.LastAccessed, e.AccessCount, e.LoadedAt, e.Size
			found = true
			continue
		}
		switch c.cfg.Policy {
		case EvictLRU:
			if e.LastAccessed.Before(bestAccessed) {
				victim, bestAccessed = id, e.LastAccessed
			}
		case EvictLFU:
			if e.AccessCount < bestCount {
				victim, bestCount = id, e.AccessCount
			}
		case EvictFIFO:
			if e.LoadedAt.Before(bestLoaded) {
				victim, bestLoaded = id, e.LoadedAt
			}
		case EvictSIZE:
			if e.Size > bestSize {
				victim, bestSize = id, e.Size
			}
		}
	}
	return victim, found
}

func (c *Cache) evict(id ID) {
	e, ok := c.entries[id]
	if !ok {
		return
	}
	c.currentSize -= e.Size
	e.State = StateEvicted
	e.Data = nil
	delete(c.entries, id)
}

// EvictIfUnused evicts id only if it is currently unreferenced, locking
// internally; used by the manager's bounded error-cleanup timers.
func (c *Cache) EvictIfUnused(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && !e.pinned() {
		c.currentSize -= e.Size
		e.State = StateEvicted
		e.Data = nil
		delete(c.entries, id)
	}
}

// SweepExpired evicts every non-pinned entry whose LastAccessed is older
// than the configured TTL. A no-op when TTL is 0.
func (c *Cache) SweepExpired(now time.Time) {
	if c.cfg.TTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.pinned() {
			continue
		}
		if now.Sub(e.LastAccessed) > c.cfg.TTL {
			c.currentSize -= e.Size
			e.State = StateEvicted
			e.Data = nil
			delete(c.entries, id)
		}
	}
}

// NewHandle increments id's refcount and returns a Handle, or false if id
// isn't present.
func (c *Cache) NewHandle(id ID) (*Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	e.RefCount++
	return &Handle{id: id, cache: c}, true
}

func (c *Cache) release(id ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok && e.RefCount > 0 {
		e.RefCount--
	}
}

// CurrentSize returns the sum of every currently-cached entry's Size.
func (c *Cache) CurrentSize() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Count returns the number of currently-cached entries.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot returns a copy of every entry, for the profiler.
func (c *Cache) Snapshot() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, *e)
	}
	return out
}
