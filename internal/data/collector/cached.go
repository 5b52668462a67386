package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/data"
	"github.com/cannonQ/pow-tracker-site/internal/data/cache"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/observability"
)

// CacheKey is the cache entry holding the serialized project list.
const CacheKey = "projects"

// DefaultTTL is how long a cached project list is served.
const DefaultTTL = 5 * time.Minute

// CachedLoader serves the project list from a cache and reloads it from the
// underlying loader when the entry is missing or older than the TTL. Serving
// an entry older than half the TTL also starts a background refresh, so
// repeated reads cost at most one upstream load per half TTL.
type CachedLoader struct {
	loader  RecordLoader
	cache   data.Cache
	ttl     time.Duration
	logger  Logger
	metrics *observability.Metrics

	now            func() time.Time
	refreshTimeout time.Duration
	refreshing     atomic.Bool
	wg             sync.WaitGroup
}

func NewCachedLoader(loader RecordLoader, c data.Cache, ttl time.Duration, logger Logger, m *observability.Metrics) *CachedLoader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedLoader{
		loader:         loader,
		cache:          c,
		ttl:            ttl,
		logger:         logger,
		metrics:        m,
		now:            time.Now,
		refreshTimeout: 2 * time.Minute,
	}
}

// LoadAll implements RecordLoader interface
func (c *CachedLoader) LoadAll(ctx context.Context) ([]models.Record, error) {
	value, at, err := c.cache.Get(ctx, CacheKey)
	switch {
	case err == nil && c.now().Sub(at) < c.ttl:
		var records []models.Record
		decodeErr := json.Unmarshal(value, &records)
		if decodeErr == nil {
			c.metrics.RecordCache("hit")
			if c.now().Sub(at) >= c.ttl/2 {
				c.refreshInBackground()
			}
			return records, nil
		}
		c.logger.Error("failed to decode cached projects", "error", decodeErr)
		c.metrics.RecordCache("miss")

	case err == nil:
		c.metrics.RecordCache("stale")
		if err := c.cache.Delete(ctx, CacheKey); err != nil {
			c.logger.Error("failed to delete expired cache entry", "error", err)
		}

	case errors.Is(err, cache.ErrCacheMiss):
		c.metrics.RecordCache("miss")

	default:
		c.metrics.RecordCache("miss")
		c.logger.Error("failed to read cache", "error", err)
	}

	return c.Refresh(ctx)
}

// Refresh reloads the project list and stores it in the cache.
func (c *CachedLoader) Refresh(ctx context.Context) ([]models.Record, error) {
	start := time.Now()
	records, err := c.loader.LoadAll(ctx)
	c.metrics.RecordRefresh(len(records), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh projects: %w", err)
	}

	value, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode projects: %w", err)
	}
	if err := c.cache.Set(ctx, CacheKey, value, c.now()); err != nil {
		c.logger.Error("failed to write cache", "error", err)
	}
	return records, nil
}

// refreshInBackground starts at most one refresh at a time.
func (c *CachedLoader) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.refreshing.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		if _, err := c.Refresh(ctx); err != nil {
			c.logger.Error("background refresh failed", "error", err)
		}
	}()
}

// Wait blocks until background refreshes have finished.
func (c *CachedLoader) Wait() {
	c.wg.Wait()
}
