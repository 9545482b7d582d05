// Package cache implements the TTL response cache fronting idempotent reads.
//
// A Cache combines a TTL Policy, keyed by resource class, with a Store. Store
// failures never reach the caller: a failed lookup is a miss and a failed write
// is dropped.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/dexagg/internal/core/domain"
)

// Entry is one cached value. Entries are replaced, never mutated.
type Entry struct {
	Key      string
	Value    any
	StoredAt time.Time
	TTL      time.Duration
}

// ExpiredAt reports whether the entry is stale at now. The boundary itself is still fresh.
func (e Entry) ExpiredAt(now time.Time) bool {
	return now.After(e.StoredAt.Add(e.TTL))
}

// Store is a backing storage for cache entries.
type Store interface {
	// Get returns the entry for key, found=false when absent or expired.
	Get(ctx context.Context, key string) (entry Entry, found bool, err error)

	// Put unconditionally replaces the entry for key.
	Put(ctx context.Context, entry Entry) error

	// Close releases resources held by the store.
	Close() error
}

// Cache is the ResponseCache: a Store plus per-class TTL policy.
type Cache struct {
	store  Store
	policy Policy
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the wall clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used to report store failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a cache over store.
func New(store Store, policy Policy, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		policy: policy,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured TTL for class. ok=false means the class is not cached.
func (c *Cache) TTL(class domain.ResourceClass) (time.Duration, bool) {
	return c.policy.TTL(class)
}

// Get looks up key. Any store failure degrades to a miss.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	if key == "" {
		return Entry{}, false
	}

	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache lookup failed, treating as miss", "key", key, "error", err)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}
	if entry.ExpiredAt(c.now()) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores value under key with ttl, replacing any previous entry.
// Non-positive ttl or an empty key is a no-op.
func (c *Cache) Put(ctx context.Context, key string, value any, ttl time.Duration) {
	if key == "" || ttl <= 0 {
		return
	}

	entry := Entry{
		Key:      key,
		Value:    value,
		StoredAt: c.now(),
		TTL:      ttl,
	}
	if err := c.store.Put(ctx, entry); err != nil {
		c.logger.Warn("Cache store failed, dropping entry", "key", key, "error", err)
	}
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.store.Close()
}
