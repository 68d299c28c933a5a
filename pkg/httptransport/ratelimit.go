package httptransport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
)

// ErrRateLimited is returned when a request would have to wait longer than
// RateLimitConfig.MaxWait for a free slot.
var ErrRateLimited = errors.New("client rate limit exceeded")

// RateLimitConfig configures the sliding window limiter for outgoing
// requests.
type RateLimitConfig struct {
	// Max is the maximum number of requests allowed per window. Zero or a
	// negative value disables limiting.
	Max int
	// Window is the duration of each sliding window.
	Window time.Duration
	// MaxWait bounds how long a request may wait for a slot. Zero waits until
	// the request context is done.
	MaxWait time.Duration
	// KeyFunc extracts the rate limit key from a request.
	// If nil, the target host is used.
	KeyFunc func(*http.Request) string
}

// entry tracks request counts across two adjacent windows for the sliding
// window algorithm.
type entry struct {
	prevCount float64
	prevStart time.Time
	currCount float64
	currStart time.Time
}

// rateLimiter holds the shared state for rate limiting.
type rateLimiter struct {
	cfg     RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]*entry
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = hostKeyFunc
	}
	return &rateLimiter{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// allow checks whether a request identified by key fits in the window and
// reserves a slot if it does. It returns when the current window resets.
func (rl *rateLimiter) allow(key string, now time.Time) (resetAt time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok {
		e = &entry{currStart: now}
		rl.entries[key] = e
	}

	// Rotate window if the current window has elapsed.
	if now.Sub(e.currStart) >= rl.cfg.Window {
		e.prevCount = e.currCount
		e.prevStart = e.currStart
		e.currCount = 0
		e.currStart = now.Truncate(rl.cfg.Window)
		if now.Sub(e.prevStart) >= 2*rl.cfg.Window {
			e.prevCount = 0
		}
	}

	// Weight the previous window by how much of it overlaps the sliding one.
	elapsed := now.Sub(e.currStart)
	overlapRatio := 1.0 - elapsed.Seconds()/rl.cfg.Window.Seconds()
	if overlapRatio < 0 {
		overlapRatio = 0
	}
	effectiveCount := e.prevCount*overlapRatio + e.currCount
	resetAt = e.currStart.Add(rl.cfg.Window)

	if effectiveCount >= float64(rl.cfg.Max) {
		return resetAt, false
	}
	e.currCount++
	return resetAt, true
}

// cleanup removes entries whose windows have fully expired.
func (rl *rateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, e := range rl.entries {
		if now.Sub(e.currStart) >= 2*rl.cfg.Window {
			delete(rl.entries, key)
		}
	}
}

// startCleanup launches a background goroutine that periodically removes
// expired entries. It stops when ctx is cancelled.
func (rl *rateLimiter) startCleanup(ctx context.Context) {
	interval := 2 * rl.cfg.Window
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.cleanup(now)
			}
		}
	}()
}

// wait blocks until a slot is reserved for key, ctx is done or MaxWait is
// exceeded.
func (rl *rateLimiter) wait(ctx context.Context, key string) error {
	step := rl.cfg.Window / time.Duration(rl.cfg.Max)
	if step <= 0 {
		step = time.Millisecond
	}

	start := rl.now()
	for {
		now := rl.now()
		resetAt, allowed := rl.allow(key, now)
		if allowed {
			return nil
		}

		delay := min(step, max(resetAt.Sub(now), time.Millisecond))
		if rl.cfg.MaxWait > 0 && now.Add(delay).Sub(start) > rl.cfg.MaxWait {
			return ErrRateLimited
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RateLimit returns a middleware that enforces a per-key sliding window limit
// on outgoing requests. Requests over the limit wait for a free slot instead
// of failing, bounded by MaxWait and the request context.
//
// This variant does not start a background cleanup goroutine. Use
// RateLimitWithCleanup for long-lived clients talking to many hosts.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return passthrough
	}
	return rateLimitMiddleware(newRateLimiter(cfg))
}

// RateLimitWithCleanup is like RateLimit but additionally starts a background
// goroutine that evicts expired entries every 2x the window duration. The
// goroutine stops when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	if cfg.Max <= 0 || cfg.Window <= 0 {
		return passthrough
	}
	rl := newRateLimiter(cfg)
	rl.startCleanup(ctx)
	return rateLimitMiddleware(rl)
}

func rateLimitMiddleware(rl *rateLimiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := rl.wait(req.Context(), rl.cfg.KeyFunc(req)); err != nil {
				return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
			}
			return next.RoundTrip(req)
		})
	}
}

func passthrough(next http.RoundTripper) http.RoundTripper {
	return next
}

// hostKeyFunc keys requests by their target host.
func hostKeyFunc(r *http.Request) string {
	return r.URL.Host
}
