package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/leadscout/internal/core/domain"
	"github.com/custodia-labs/leadscout/internal/core/ports/driving"
	"github.com/custodia-labs/leadscout/internal/logger"
)

// cacheEntry is one memoised external response.
type cacheEntry struct {
	payload   []byte
	cachedAt  time.Time
	expiresAt time.Time
}

// expired reports whether the entry is logically absent at now.
func (e cacheEntry) expired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// CallRecorder is notified once per external call made on a cache miss.
type CallRecorder func(ctx context.Context) error

// ResponseCache memoises expensive external lookups in memory.
// Entries are keyed by service name and an order-independent hash of the
// call parameters, and are treated as absent once expired.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	ttl    time.Duration
	now    func() time.Time
	gate   *rateGate
	group  singleflight.Group
	onCall CallRecorder

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption configures a ResponseCache.
type CacheOption func(*ResponseCache)

// WithCacheClock replaces the wall clock, for tests.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *ResponseCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCallRecorder registers a hook run after every external fetch.
func WithCallRecorder(fn CallRecorder) CacheOption {
	return func(c *ResponseCache) {
		c.onCall = fn
	}
}

// NewResponseCache creates an empty cache.
func NewResponseCache(cfg domain.CacheSettings, opts ...CacheOption) *ResponseCache {
	c := &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     cfg.TTL,
		now:     time.Now,
	}
	if c.ttl <= 0 {
		c.ttl = domain.DefaultAppSettings().Cache.TTL
	}

	for _, opt := range opts {
		opt(c)
	}

	c.gate = newRateGate(cfg.RequestsPerSecond, cfg.Burst, c.now)
	return c
}

// CacheKey returns the cache key for a service call.
// JSON encoding sorts map keys, so parameter order does not matter.
func CacheKey(service string, params map[string]any) (string, error) {
	if params == nil {
		params = map[string]any{}
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("encode cache params: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return service + ":" + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached payload, or false if absent or expired.
// An expired entry is evicted on read.
func (c *ResponseCache) Get(service string, params map[string]any) ([]byte, bool) {
	key, err := CacheKey(service, params)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}
	return c.get(key)
}

func (c *ResponseCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && entry.expired(c.now()) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.payload, true
}

// Set stores a payload. A non-positive ttl uses the cache default.
func (c *ResponseCache) Set(service string, params map[string]any, payload []byte, ttl time.Duration) error {
	key, err := CacheKey(service, params)
	if err != nil {
		return err
	}
	c.set(key, payload, ttl)
	return nil
}

func (c *ResponseCache) set(key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{
		payload:   payload,
		cachedAt:  now,
		expiresAt: now.Add(ttl),
	}
}

// ClearExpired removes every expired entry and returns how many were removed.
func (c *ResponseCache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if entry.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats reports entry counts and hit/miss totals.
func (c *ResponseCache) Stats() domain.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := domain.CacheStats{
		TotalEntries: len(c.entries),
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
	}
	for _, entry := range c.entries {
		if entry.expired(now) {
			stats.ExpiredEntries++
		} else {
			stats.ActiveEntries++
		}
	}
	return stats
}

// Fetch is a read-through lookup. On a miss it waits for the rate gate,
// collapses concurrent identical calls into one, runs fetch and caches the
// result. Failed fetches are not cached.
func (c *ResponseCache) Fetch(
	ctx context.Context,
	service string,
	params map[string]any,
	ttl time.Duration,
	fetch driving.FetchFunc,
) ([]byte, error) {
	key, err := CacheKey(service, params)
	if err != nil {
		return nil, err
	}
	if payload, ok := c.get(key); ok {
		return payload, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if payload, ok := c.peek(key); ok {
			return payload, nil
		}
		if err := c.gate.Wait(ctx); err != nil {
			return nil, err
		}

		payload, err := fetch(ctx)
		c.recordCall(ctx, service)
		if err != nil {
			var retry *domain.RetryAfterError
			if errors.As(err, &retry) {
				logger.Warn("Cache: %s rate limited, backing off", service)
				c.gate.Backoff(retry.After)
			}
			return nil, err
		}

		c.set(key, payload, ttl)
		return payload, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", service, err)
	}
	return v.([]byte), nil
}

// peek reads an entry without touching hit/miss counters.
func (c *ResponseCache) peek(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || entry.expired(c.now()) {
		return nil, false
	}
	return entry.payload, true
}

func (c *ResponseCache) recordCall(ctx context.Context, service string) {
	if c.onCall == nil {
		return
	}
	if err := c.onCall(ctx); err != nil {
		logger.Warn("Cache: failed to record external call for %s: %v", service, err)
	}
}
