package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultRateBackoff applies when a service refuses a call without saying
// how long to wait.
const defaultRateBackoff = 60 * time.Second

// rateGate throttles external calls with a token bucket plus a backoff
// window set when a service reports it is rate limiting us.
type rateGate struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

func newRateGate(requestsPerSecond float64, burst int, now func() time.Time) *rateGate {
	if requestsPerSecond <= 0 {
		requestsPerSecond = float64(rate.Inf)
	}
	if burst < 1 {
		burst = 1
	}
	return &rateGate{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		now:     now,
	}
}

// Wait blocks until a call may be made or ctx is done.
func (g *rateGate) Wait(ctx context.Context) error {
	g.mu.Lock()
	retryAt := g.retryAt
	g.mu.Unlock()

	if delay := retryAt.Sub(g.now()); delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return g.limiter.Wait(ctx)
}

// Backoff delays further calls by d, or the default when d is zero.
// An earlier deadline never shortens an existing one.
func (g *rateGate) Backoff(d time.Duration) {
	if d <= 0 {
		d = defaultRateBackoff
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if until := g.now().Add(d); until.After(g.retryAt) {
		g.retryAt = until
	}
}

// BackingOff reports whether a backoff window is open.
func (g *rateGate) BackingOff() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.retryAt)
}
