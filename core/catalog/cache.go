// Package catalog - Read-through catalog cache with TTL
// Operators can change rates without a redeploy; within one TTL window the
// catalog is constant.
package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"agent-cost/internal/logging"
)

// DefaultTTL is how long a loaded catalog is served before a reload
const DefaultTTL = 5 * time.Minute

// CacheEntry is the cached catalog with governance metadata
type CacheEntry struct {
	Catalog     *Catalog
	Source      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AccessCount int
}

// IsExpired checks if the entry has expired at now
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats contains cache statistics
type CacheStats struct {
	Loaded        bool      `json:"loaded"`
	Source        string    `json:"source"`
	Version       string    `json:"version,omitempty"`
	Hash          string    `json:"hash,omitempty"`
	LoadedAt      time.Time `json:"loaded_at,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
	Hits          int       `json:"hits"`
	Reloads       int       `json:"reloads"`
	FailedReloads int       `json:"failed_reloads"`
	Invalidations int       `json:"invalidations"`
}

// ReloadHook observes every load attempt; err is nil on success
type ReloadHook func(cat *Catalog, changed bool, err error)

// CacheOption configures a Cache
type CacheOption func(*Cache)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// WithReloadHook registers a hook called after each load attempt
func WithReloadHook(hook ReloadHook) CacheOption {
	return func(c *Cache) { c.hooks = append(c.hooks, hook) }
}

// Cache is a Provider that reloads its Source once the TTL has passed.
// A failed reload keeps serving the previous catalog.
type Cache struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	hooks  []ReloadHook
	logger *zap.Logger

	loadMu sync.Mutex
	mu     sync.RWMutex
	entry  *CacheEntry
	stats  CacheStats
}

// NewCache creates a cache over source; ttl <= 0 selects DefaultTTL
func NewCache(source Source, ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.Component("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.Source = source.Name()
	return c
}

// Catalog returns the cached catalog, loading it when absent or expired
func (c *Cache) Catalog(ctx context.Context) (*Catalog, error) {
	if cat, ok := c.fresh(); ok {
		return cat, nil
	}

	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// another caller may have reloaded while we waited
	if cat, ok := c.fresh(); ok {
		return cat, nil
	}
	return c.reload(ctx)
}

// Refresh forces a load regardless of the TTL
func (c *Cache) Refresh(ctx context.Context) (*Catalog, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.reload(ctx)
}

// Invalidate expires the current entry so the next call reloads. The old
// catalog stays available as a fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry != nil {
		c.entry.ExpiresAt = c.now()
	}
	c.stats.Invalidations++
	c.logger.Debug("Catalog cache invalidated", zap.String("source", c.source.Name()))
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	if c.entry != nil {
		stats.Loaded = true
		stats.Version = c.entry.Catalog.Version
		stats.Hash = c.entry.Catalog.Hash()
		stats.LoadedAt = c.entry.CreatedAt
		stats.ExpiresAt = c.entry.ExpiresAt
	}
	return stats
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) fresh() (*Catalog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || c.entry.IsExpired(c.now()) {
		return nil, false
	}
	c.entry.AccessCount++
	c.stats.Hits++
	return c.entry.Catalog, true
}

// reload must be called with loadMu held
func (c *Cache) reload(ctx context.Context) (*Catalog, error) {
	start := c.now()
	cat, err := c.source.Load(ctx)

	c.mu.Lock()
	previous := c.entry
	if err != nil {
		c.stats.FailedReloads++
		if previous != nil {
			// serve the stale catalog for another window rather than failing
			previous.ExpiresAt = start.Add(c.ttl)
		}
		c.mu.Unlock()

		c.notify(nil, false, err)
		if previous != nil {
			c.logger.Warn("Catalog reload failed, serving previous catalog",
				zap.String("source", c.source.Name()),
				zap.String("version", previous.Catalog.Version),
				zap.Error(err))
			return previous.Catalog, nil
		}
		c.logger.Error("Catalog load failed", zap.String("source", c.source.Name()), zap.Error(err))
		return nil, err
	}

	changed := previous == nil || previous.Catalog.Hash() != cat.Hash()
	c.entry = &CacheEntry{
		Catalog:   cat,
		Source:    c.source.Name(),
		CreatedAt: start,
		ExpiresAt: start.Add(c.ttl),
	}
	c.stats.Reloads++
	c.mu.Unlock()

	c.notify(cat, changed, nil)
	c.logger.Info("Catalog loaded",
		zap.String("source", c.source.Name()),
		zap.String("version", cat.Version),
		zap.String("hash", cat.Hash()),
		zap.Bool("changed", changed),
		zap.Duration("ttl", c.ttl))
	return cat, nil
}

func (c *Cache) notify(cat *Catalog, changed bool, err error) {
	for _, hook := range c.hooks {
		hook(cat, changed, err)
	}
}
