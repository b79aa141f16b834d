package storage

import (
	"sync"
	"time"

	"github.com/codehack/movierec/internal/models"
)

// DefaultTTL is how long fetched metadata stays fresh
const DefaultTTL = time.Hour

type entry struct {
	record    models.MetadataRecord
	expiresAt time.Time
}

// MetadataCache memoizes metadata records by movie id for a fixed TTL.
// Expiry is checked on read; there is no background sweeper.
type MetadataCache struct {
	entries map[int64]entry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// New creates a cache whose entries live for ttl (DefaultTTL if ttl <= 0)
func New(ttl time.Duration) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MetadataCache{
		entries: make(map[int64]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *MetadataCache) WithClock(now func() time.Time) *MetadataCache {
	c.now = now
	return c
}

// Get returns the live record for movieID. Expired entries are dropped.
func (c *MetadataCache) Get(movieID int64) (models.MetadataRecord, bool) {
	c.mu.RLock()
	e, exists := c.entries[movieID]
	c.mu.RUnlock()

	if !exists {
		return models.MetadataRecord{}, false
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed it
		if cur, ok := c.entries[movieID]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, movieID)
		}
		c.mu.Unlock()
		return models.MetadataRecord{}, false
	}

	return e.record, true
}

// Set stores record under movieID, expiring after the cache TTL
func (c *MetadataCache) Set(movieID int64, record models.MetadataRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[movieID] = entry{
		record:    record,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, expired or not
func (c *MetadataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Delete removes movieID from the cache
func (c *MetadataCache) Delete(movieID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, movieID)
}

// Purge drops every expired entry and returns how many were removed
func (c *MetadataCache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}
