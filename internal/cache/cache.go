// Package cache is a time-boxed response cache over durable key/value storage.
//
// The cache is advisory. Get and Set never fail: storage faults and corrupt
// entries are logged and read as misses or dropped writes.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"marketbrowser/internal/kvstore"
	"marketbrowser/internal/metrics"
)

// Common time-to-live values.
const (
	TTLListing  = 5 * time.Minute
	TTLOverview = 24 * time.Hour
)

// entry is the stored form: write time in epoch milliseconds plus the value.
type entry struct {
	T int64           `json:"t"`
	V json.RawMessage `json:"v"`
}

// Cache stores JSON values with their write time and judges staleness at read time.
type Cache struct {
	store   kvstore.Store
	now     func() time.Time
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics reports hits and misses.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// New creates a Cache over store.
func New(store kvstore.Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get decodes the value stored under key into dst and reports whether it did.
// It reports false when the key is absent, the entry is unreadable, or the entry
// is older than ttl. An entry exactly ttl old is still fresh.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, dst any) bool {
	hit := c.get(ctx, key, ttl, dst)
	c.metrics.CacheLookup(hit)
	return hit
}

func (c *Cache) get(ctx context.Context, key string, ttl time.Duration, dst any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		c.logger.Debug("discarding corrupt cache entry", "key", key, "error", err)
		return false
	}
	if len(e.V) == 0 || bytes.Equal(e.V, []byte("null")) {
		return false
	}

	if c.now().UnixMilli()-e.T > ttl.Milliseconds() {
		return false
	}

	if err := json.Unmarshal(e.V, dst); err != nil {
		c.logger.Debug("cache entry does not match requested shape", "key", key, "error", err)
		return false
	}
	return true
}

// Set stores value under key, overwriting any previous entry.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache value not serializable", "key", key, "error", err)
		return
	}

	raw, err := json.Marshal(entry{T: c.now().UnixMilli(), V: data})
	if err != nil {
		c.logger.Warn("cache entry not serializable", "key", key, "error", err)
		return
	}

	if err := c.store.Set(ctx, key, raw); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
