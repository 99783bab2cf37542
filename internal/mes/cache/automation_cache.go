package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dualiteteste-sys/revo-erp-prod-sub001/internal/mes/entity"
)

// DefaultTTL is the staleness window for the automation config. The cache
// never serves a value older than the TTL plus one in-flight fetch.
const DefaultTTL = 60 * time.Second

// FetchFunc loads the config from the procedure host.
type FetchFunc func(ctx context.Context) (entity.AutomationConfig, error)

type cacheEntry struct {
	value     entity.AutomationConfig
	fetchedAt time.Time
}

// AutomationCache is a time-boxed cache of the tenant automation thresholds.
// The clock is injected so tests control time. Concurrent callers during a
// refresh may issue duplicate fetches; the entry swap is atomic under the
// mutex, so readers never observe a torn value.
type AutomationCache struct {
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	entry *cacheEntry
}

func NewAutomationCache(fetch FetchFunc, ttl time.Duration, now func() time.Time) *AutomationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &AutomationCache{fetch: fetch, ttl: ttl, now: now}
}

// Get returns the cached config while it is younger than the TTL, otherwise
// re-fetches and replaces the entry.
func (c *AutomationCache) Get(ctx context.Context) (entity.AutomationConfig, error) {
	c.mu.Lock()
	if c.entry != nil && c.now().Sub(c.entry.fetchedAt) < c.ttl {
		v := c.entry.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	value, err := c.fetch(ctx)
	if err != nil {
		return entity.AutomationConfig{}, err
	}

	c.mu.Lock()
	c.entry = &cacheEntry{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops the cached entry unconditionally; the next Get always
// re-fetches. Called after every successful config write.
func (c *AutomationCache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.mu.Unlock()
}
