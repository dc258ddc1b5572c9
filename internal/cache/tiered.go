// Package cache implements the tiered artifact cache: a durable Redis tier
// fronted by a small in-process LRU. Backing store failures degrade
// durability, never correctness - reads and writes keep succeeding against
// the local tier and the outage is logged at most once per probe interval.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"news-enricher/internal/common/logging"
	"news-enricher/internal/fingerprint"
)

// Store is the durable backing tier. A missing key is (_, false, nil);
// a non-nil error means the store itself is unavailable.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
	Health() error
}

// localEntry is a value in the in-process tier. TTL is enforced lazily on
// read; the LRU bound keeps the tier from growing without limit.
type localEntry struct {
	value     string
	expiresAt time.Time
}

// Options configures a TieredCache.
type Options struct {
	// LocalCapacity bounds the in-process LRU. Zero means 100 entries.
	LocalCapacity int
	// LogInterval throttles backing-store outage logging. Zero means 30s.
	LogInterval time.Duration
	// Logger defaults to the global logger.
	Logger logging.Logger
}

// TieredCache is a dumb TTL-aware store keyed by (fingerprint, class).
// It never starts work on a miss; that is the job coordinator's concern.
type TieredCache struct {
	store  Store
	local  *lru.Cache[string, localEntry]
	logger logging.Logger

	logInterval time.Duration
	now         func() time.Time

	mu            sync.Mutex
	lastOutageLog time.Time
	storeHealthy  bool
}

// New creates a tiered cache. A nil store is allowed and puts the cache in
// local-only mode, which keeps the service useful when Redis is absent.
func New(store Store, opts Options) (*TieredCache, error) {
	capacity := opts.LocalCapacity
	if capacity <= 0 {
		capacity = 100
	}
	interval := opts.LogInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	local, err := lru.New[string, localEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}

	return &TieredCache{
		store:        store,
		local:        local,
		logger:       logger,
		logInterval:  interval,
		now:          time.Now,
		storeHealthy: store != nil,
	}, nil
}

// Get returns the cached payload for (fp, class). The durable tier is
// consulted first; on a store error or miss the local tier answers. Entries
// past their TTL are treated as not found and lazily evicted.
func (c *TieredCache) Get(ctx context.Context, fp fingerprint.Fingerprint, class Class) (string, bool) {
	key := Key(fp, class)

	if c.store != nil {
		value, found, err := c.store.Get(ctx, key)
		if err != nil {
			c.reportOutage(err)
		} else {
			c.markHealthy()
			if found {
				return value, true
			}
		}
	}

	entry, found := c.local.Get(key)
	if !found {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		c.local.Remove(key)
		return "", false
	}
	return entry.value, true
}

// Set stores the payload with the given TTL, unconditionally overwriting.
// The durable tier is written first; the local tier is always populated so
// a subsequent store outage still serves the value. Set never fails: a
// durable write error only degrades durability.
func (c *TieredCache) Set(ctx context.Context, fp fingerprint.Fingerprint, class Class, payload string, ttl time.Duration) {
	key := Key(fp, class)

	if c.store != nil {
		if err := c.store.Set(ctx, key, payload, ttl); err != nil {
			c.reportOutage(err)
		} else {
			c.markHealthy()
		}
	}

	c.local.Add(key, localEntry{value: payload, expiresAt: c.now().Add(ttl)})
}

// Invalidate removes the entry for (fp, class) from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, fp fingerprint.Fingerprint, class Class) {
	key := Key(fp, class)

	if c.store != nil {
		if err := c.store.Delete(ctx, key); err != nil {
			c.reportOutage(err)
		}
	}
	c.local.Remove(key)
}

// Clear drops every entry from both tiers. Debug operation; production
// eviction is per-article Invalidate.
func (c *TieredCache) Clear(ctx context.Context) {
	if c.store != nil {
		if err := c.store.Flush(ctx); err != nil {
			c.reportOutage(err)
		}
	}
	c.local.Purge()
}

// ProbeHealth pings the durable tier. Run on a schedule, it is what gates
// outage logging to once per interval and reports recovery.
func (c *TieredCache) ProbeHealth() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Health(); err != nil {
		c.reportOutage(err)
		return err
	}
	c.markHealthy()
	return nil
}

// Stats reports the local tier size and the last observed store health.
func (c *TieredCache) Stats() (localEntries int, storeHealthy bool) {
	c.mu.Lock()
	healthy := c.storeHealthy
	c.mu.Unlock()
	return c.local.Len(), healthy
}

// reportOutage logs store unavailability, throttled to once per interval so
// a dead Redis does not turn every request into a log line.
func (c *TieredCache) reportOutage(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storeHealthy = false
	if c.now().Sub(c.lastOutageLog) < c.logInterval {
		return
	}
	c.lastOutageLog = c.now()
	c.logger.Warn("backing store unavailable, serving from local cache", logging.Err(err))
}

func (c *TieredCache) markHealthy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.storeHealthy {
		c.logger.Info("backing store recovered")
	}
	c.storeHealthy = true
}
