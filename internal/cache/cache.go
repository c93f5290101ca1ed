// Package cache provides the TTL + LRU result cache for pipeline results.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/futig/diagram-backend/internal/entity"
	"go.uber.org/zap"
)

const (
	DefaultCapacity      = 100
	DefaultTTL           = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// Stats is the operational snapshot exposed for monitoring.
type Stats struct {
	Size         int       `json:"size"`
	Capacity     int       `json:"capacity"`
	OldestAccess time.Time `json:"oldest_access"`
	NewestAccess time.Time `json:"newest_access"`
}

// ResultCache is the injectable cache contract. Get is a side-effecting
// read: it refreshes the entry's recency for LRU bookkeeping and lazily
// deletes expired entries.
type ResultCache interface {
	Get(key string) (*entity.PipelineResult, bool)
	Set(key string, value *entity.PipelineResult)
	SetTTL(key string, value *entity.PipelineResult, ttl time.Duration)
	Invalidate(key string) bool
	Clear()
	Stats() Stats
	Close()
}

type cacheEntry struct {
	key          string
	value        *entity.PipelineResult
	expiresAt    time.Time
	lastAccessed time.Time
}

// MemoryCache is an in-process ResultCache. A background janitor sweeps
// expired entries on a fixed interval so memory stays bounded even when
// stale keys are never read again. Not shared across process instances.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently accessed
	capacity int
	ttl      time.Duration
	logger   *zap.Logger

	now  func() time.Time
	stop chan struct{}
	done chan struct{}
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

func WithCapacity(n int) Option {
	return func(c *MemoryCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *MemoryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// NewMemoryCache creates the cache and starts its sweep janitor. Callers
// must Close the cache to stop the janitor goroutine.
func NewMemoryCache(sweepInterval time.Duration, logger *zap.Logger, opts ...Option) *MemoryCache {
	c := &MemoryCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		logger:   logger,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	go c.janitor(sweepInterval)

	return c
}

// Get returns the cached value for key, or false on a miss. Expired entries
// are deleted on read. A hit refreshes the entry's recency.
func (c *MemoryCache) Get(key string) (*entity.PipelineResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return nil, false
	}

	entry.lastAccessed = c.now()
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key with the default TTL.
func (c *MemoryCache) Set(key string, value *entity.PipelineResult) {
	c.SetTTL(key, value, c.ttl)
}

// SetTTL stores value under key with an explicit lifetime. When the cache
// is at capacity and key is new, the least-recently-accessed entry is
// evicted first; updates to existing keys never evict.
func (c *MemoryCache) SetTTL(key string, value *entity.PipelineResult, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.expiresAt = now.Add(ttl)
		entry.lastAccessed = now
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		c.evictOldestLocked()
	}

	entry := &cacheEntry{
		key:          key,
		value:        value,
		expiresAt:    now.Add(ttl),
		lastAccessed: now,
	}
	c.entries[key] = c.order.PushFront(entry)
}

// Invalidate removes key from the cache, reporting whether it was present.
func (c *MemoryCache) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Stats returns the current size, capacity and access-time extremes.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Size:     c.order.Len(),
		Capacity: c.capacity,
	}
	if back := c.order.Back(); back != nil {
		stats.OldestAccess = back.Value.(*cacheEntry).lastAccessed
	}
	if front := c.order.Front(); front != nil {
		stats.NewestAccess = front.Value.(*cacheEntry).lastAccessed
	}
	return stats
}

// Close stops the janitor. The cache remains usable afterwards but expired
// entries are then only removed lazily on read.
func (c *MemoryCache) Close() {
	select {
	case <-c.stop:
		return
	default:
	}
	close(c.stop)
	<-c.done
}

func (c *MemoryCache) janitor(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := c.sweep()
			if removed > 0 && c.logger != nil {
				c.logger.Debug("cache sweep removed expired entries", zap.Int("removed", removed))
			}
		case <-c.stop:
			return
		}
	}
}

// sweep removes all expired entries regardless of access patterns.
func (c *MemoryCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheEntry).expiresAt) {
			c.removeLocked(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *MemoryCache) evictOldestLocked() {
	if back := c.order.Back(); back != nil {
		entry := back.Value.(*cacheEntry)
		c.removeLocked(back)
		if c.logger != nil {
			c.logger.Debug("evicted least recently used cache entry", zap.String("key", entry.key))
		}
	}
}

func (c *MemoryCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
}
