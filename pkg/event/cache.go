package event

import (
	"sync"
	"time"

	"github.com/solucal/solucal/internal/utils"
)

// DefaultCacheTTL bounds staleness of cached projections if an invalidation
// is ever missed.
const DefaultCacheTTL = time.Minute

// ProjectionCache memoizes occurrence projections per query window. Writes go
// through the notification bus, which clears the cache, so entries only live
// between mutations; the TTL is a backstop.
type ProjectionCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   utils.Clock
	entries map[string]cacheEntry
}

type cacheEntry struct {
	result map[string][]Occurrence
	expiry time.Time
}

func NewProjectionCache(clock utils.Clock, ttl time.Duration) *ProjectionCache {
	return &ProjectionCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

func (c *ProjectionCache) Get(from, to time.Time) (map[string][]Occurrence, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[windowKey(from, to)]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(entry.expiry) {
		delete(c.entries, windowKey(from, to))
		return nil, false
	}
	return entry.result, true
}

func (c *ProjectionCache) Put(from, to time.Time, result map[string][]Occurrence) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[windowKey(from, to)] = cacheEntry{
		result: result,
		expiry: c.clock.Now().Add(c.ttl),
	}
}

// Clear drops all cached windows. Called on every event mutation.
func (c *ProjectionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func windowKey(from, to time.Time) string {
	return from.Format(dateLayout) + "|" + to.Format(dateLayout)
}
