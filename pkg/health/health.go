// Package health tracks the availability of remote dependencies.
//
// Each registered check runs in its own background goroutine at a configurable
// interval. Checks use failure/success thresholds (inspired by Kubernetes probe
// configuration) to avoid flapping: a check must fail consecutively
// failureThreshold times before being marked unhealthy, and succeed
// successThreshold times before being marked healthy again.
package health

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc is a health check function. It should return nil if the checked
// dependency is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

// ChangeFunc is called when a check flips between healthy and unhealthy.
// err is the error that caused the flip, or nil on recovery.
type ChangeFunc func(name string, healthy bool, err error)

// Default thresholds applied by AddCheck.
const (
	DefaultFailureThreshold = 3
	DefaultSuccessThreshold = 1
)

// checkConfig holds the configuration and runtime state for a single check.
//
// Concurrency model: run() is called from exactly one goroutine (the ticker).
// The counters (consecutiveFails, consecutiveOK) are only accessed by run(),
// so they need no synchronization. The healthy flag and lastErr are read by
// reporters from arbitrary goroutines, so they use atomic operations.
type checkConfig struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int
	onChange         ChangeFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (c *checkConfig) isHealthy() bool {
	return c.healthy.Load()
}

func (c *checkConfig) getLastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once and updates thresholds accordingly.
// Must be called from a single goroutine.
func (c *checkConfig) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.check(checkCtx)
	c.lastErr.Store(&err)

	was := c.isHealthy()
	if err != nil {
		c.consecutiveOK = 0
		c.consecutiveFails++
		if c.consecutiveFails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.consecutiveFails = 0
		c.consecutiveOK++
		if c.consecutiveOK >= c.successThreshold {
			c.healthy.Store(true)
		}
	}

	if now := c.isHealthy(); now != was && c.onChange != nil {
		c.onChange(c.name, now, err)
	}
}

// Health manages availability checks for remote dependencies.
type Health struct {
	// mu protects checks, onChange and cancel. Reporters snapshot the slice
	// under RLock then release immediately.
	mu       sync.RWMutex
	checks   []*checkConfig
	onChange ChangeFunc
	cancel   context.CancelFunc
}

// New creates a new Health instance with no checks.
func New() *Health {
	return &Health{}
}

// AddCheck registers a check with the default thresholds. Checks start
// healthy until proven otherwise.
func (h *Health) AddCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &checkConfig{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: DefaultFailureThreshold,
		successThreshold: DefaultSuccessThreshold,
	}
	c.healthy.Store(true)
	h.checks = append(h.checks, c)
}

// OnChange registers fn to be called whenever a check flips state. It must be
// called before Start.
func (h *Health) OnChange(fn ChangeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Start begins running all registered checks in background goroutines at the
// given interval. Typically Start is called once after all checks are
// registered.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := make([]*checkConfig, len(h.checks))
	copy(checks, h.checks)
	for _, c := range checks {
		c.onChange = h.onChange
	}
	h.mu.Unlock()

	for _, c := range checks {
		go runCheck(ctx, c, interval)
	}
}

// runCheck periodically executes a single check until the context is cancelled.
func runCheck(ctx context.Context, c *checkConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start.
	c.run(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.run(ctx)
		}
	}
}

// Stop cancels all background check goroutines. It is safe to call Stop
// multiple times.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// IsHealthy reports whether every registered check is currently passing.
func (h *Health) IsHealthy() bool {
	h.mu.RLock()
	checks := h.checks
	h.mu.RUnlock()

	for _, c := range checks {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// Failure describes an unhealthy check.
type Failure struct {
	Name    string
	Message string
}

// Failures lists the currently unhealthy checks sorted by name. It uses the
// stored last error rather than re-executing the check.
func (h *Health) Failures() []Failure {
	h.mu.RLock()
	checks := make([]*checkConfig, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	var failures []Failure
	for _, c := range checks {
		if c.isHealthy() {
			continue
		}
		msg := "check is unhealthy"
		if err := c.getLastError(); err != nil {
			msg = err.Error()
		}
		failures = append(failures, Failure{Name: c.name, Message: msg})
	}
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Name < failures[j].Name
	})
	return failures
}
