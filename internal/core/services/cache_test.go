package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/leadscout/internal/core/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(clock *fakeClock, opts ...CacheOption) *ResponseCache {
	cfg := domain.DefaultAppSettings().Cache
	cfg.TTL = time.Hour
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 100
	return NewResponseCache(cfg, append([]CacheOption{WithCacheClock(clock.Now)}, opts...)...)
}

func TestCacheKey_OrderIndependent(t *testing.T) {
	a := map[string]any{"query": "hotel", "location": "Maui", "page": 1}
	b := map[string]any{"page": 1, "location": "Maui", "query": "hotel"}

	ka, err := CacheKey("google_maps", a)
	require.NoError(t, err)
	kb, err := CacheKey("google_maps", b)
	require.NoError(t, err)
	assert.Equal(t, ka, kb)

	other, err := CacheKey("yelp", a)
	require.NoError(t, err)
	assert.NotEqual(t, ka, other)

	empty, err := CacheKey("yelp", nil)
	require.NoError(t, err)
	assert.Contains(t, empty, "yelp:")
}

func TestCacheKey_UnencodableParams(t *testing.T) {
	_, err := CacheKey("svc", map[string]any{"fn": func() {}})
	assert.Error(t, err)
}

func TestResponseCache_GetSet(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)
	params := map[string]any{"q": "spa"}

	_, ok := cache.Get("yelp", params)
	assert.False(t, ok)

	require.NoError(t, cache.Set("yelp", params, []byte(`{"n":1}`), 0))

	payload, ok := cache.Get("yelp", params)
	require.True(t, ok)
	assert.JSONEq(t, `{"n":1}`, string(payload))

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Lookups())
}

func TestResponseCache_ExpiredIsAbsent(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)
	params := map[string]any{"q": "luau"}

	require.NoError(t, cache.Set("tripadvisor", params, []byte("x"), 10*time.Minute))

	clock.Advance(10*time.Minute - time.Second)
	_, ok := cache.Get("tripadvisor", params)
	assert.True(t, ok)

	// Expiry is inclusive: at expires-at the entry is gone.
	clock.Advance(time.Second)
	_, ok = cache.Get("tripadvisor", params)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Stats().TotalEntries, "expired entry should be evicted on read")
}

func TestResponseCache_ClearExpired(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	require.NoError(t, cache.Set("a", map[string]any{"i": 1}, []byte("1"), time.Minute))
	require.NoError(t, cache.Set("a", map[string]any{"i": 2}, []byte("2"), time.Minute))
	require.NoError(t, cache.Set("a", map[string]any{"i": 3}, []byte("3"), 2*time.Hour))

	clock.Advance(time.Hour)

	stats := cache.Stats()
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 2, stats.ExpiredEntries)
	assert.Equal(t, 1, stats.ActiveEntries)

	assert.Equal(t, 2, cache.ClearExpired())
	assert.Equal(t, 1, cache.Stats().TotalEntries)
	assert.Equal(t, 0, cache.ClearExpired())
}

func TestResponseCache_Fetch_ReadThrough(t *testing.T) {
	clock := newFakeClock()
	var recorded atomic.Int32
	cache := newTestCache(clock, WithCallRecorder(func(context.Context) error {
		recorded.Add(1)
		return nil
	}))

	var calls atomic.Int32
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("listing"), nil
	}
	params := map[string]any{"q": "surf shop", "loc": "Kauai"}

	for range 3 {
		payload, err := cache.Fetch(context.Background(), "google_maps", params, 0, fetch)
		require.NoError(t, err)
		assert.Equal(t, "listing", string(payload))
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), recorded.Load())

	clock.Advance(2 * time.Hour)
	_, err := cache.Fetch(context.Background(), "google_maps", params, 0, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "expired entry should trigger a new call")
}

func TestResponseCache_Fetch_ErrorsNotCached(t *testing.T) {
	cache := newTestCache(newFakeClock())
	boom := errors.New("upstream down")

	_, err := cache.Fetch(context.Background(), "yelp", nil, 0, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, cache.Stats().TotalEntries)
}

func TestResponseCache_Fetch_CollapsesConcurrentCalls(t *testing.T) {
	cache := newTestCache(newFakeClock())

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payload, err := cache.Fetch(context.Background(), "linkedin", map[string]any{"q": "x"}, 0, fetch)
			if err == nil {
				results[i] = string(payload)
			}
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestResponseCache_Fetch_RetryAfterBacksOff(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	_, err := cache.Fetch(context.Background(), "yelp", nil, 0, func(context.Context) ([]byte, error) {
		return nil, &domain.RetryAfterError{Service: "yelp", After: time.Minute}
	})
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, cache.gate.BackingOff())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cache.Fetch(ctx, "yelp", nil, 0, func(context.Context) ([]byte, error) {
		t.Fatal("fetch must not run while backing off with a cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	clock.Advance(time.Minute)
	assert.False(t, cache.gate.BackingOff())
}
