// Package resolver implements the universal DID resolver (spec §4.5): a
// tagged registry dispatching by DID method, backed by a TTL cache and a
// single-flight coordinator so concurrent lookups for the same DID never
// duplicate network calls.
package resolver

import (
	"sync"
	"time"

	"github.com/jmhodges/clock"

	ourdid "github.com/agentrust/trustcore/did"
)

// Entry is a cached resolution result plus the bookkeeping needed to
// expire it.
type Entry struct {
	Result     ourdid.ResolutionResult
	InsertedAt time.Time
	TTL        time.Duration
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= e.TTL
}

// Cache is the storage interface the universal resolver consults before
// doing any network I/O. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (Entry, bool)
	Set(key string, entry Entry)
	Delete(key string)
	// Sweep removes all expired entries and returns how many were evicted.
	Sweep() int
}

// MemoryCache is the default in-process Cache: a mutex-guarded map with
// lazy eviction on read and an optional periodic sweep goroutine, per
// spec §4.5 ("Eviction: lazy on read plus a periodic sweep").
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	clock   clock.Clock

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemoryCache builds an empty in-memory cache. If sweepInterval is
// positive, a background goroutine periodically evicts expired entries;
// call Stop to halt it.
func NewMemoryCache(clk clock.Clock, sweepInterval time.Duration) *MemoryCache {
	if clk == nil {
		clk = clock.New()
	}
	c := &MemoryCache{
		entries: make(map[string]Entry),
		clock:   clk,
		stopCh:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

func (c *MemoryCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if entry.expired(c.clock.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Entry{}, false
	}
	return entry, true
}

func (c *MemoryCache) Set(key string, entry Entry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *MemoryCache) Sweep() int {
	now := c.clock.Now()
	evicted := 0
	c.mu.Lock()
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			evicted++
		}
	}
	c.mu.Unlock()
	return evicted
}

func (c *MemoryCache) sweepLoop(interval time.Duration) {
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.clock.After(interval):
			c.Sweep()
		}
	}
}

// Stop halts the background sweep goroutine, if one was started. Safe to
// call multiple times and safe to call if no sweep goroutine is running.
func (c *MemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}
