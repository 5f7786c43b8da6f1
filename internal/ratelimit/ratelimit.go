// Package ratelimit implements per-client fixed-window admission control.
//
// A fixed window per identifier trades perfect smoothness for O(1) memory
// per client and trivial reasoning, which matches the traffic profile of
// public marketing forms. Requests past the limit are rejected without
// consuming additional budget.
//
// The counter store is pluggable: an in-process map for single-instance
// deployments, or Redis when several instances must share budgets.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cleanedge.io/forms/internal/pkg/logger"
)

// Rule is one form's admission budget.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result is the outcome of one admission check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// Store tracks request counts per key within a fixed window.
//
// Take records one admission attempt for key: it creates a fresh window on
// first sight (or after expiry), increments while under limit, and rejects
// without incrementing once the limit is reached.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Close() error
}

// Limiter is the admission-control service. It wraps a Store and converts
// store failures into allow decisions: a broken Redis must not take the
// public forms down.
type Limiter struct {
	store Store
	clock Clock
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock injects a clock, used by tests to pin fail-open resets.
func WithLimiterClock(c Clock) LimiterOption {
	return func(l *Limiter) { l.clock = c }
}

// New creates a Limiter backed by the given store.
func New(store Store, opts ...LimiterOption) *Limiter {
	l := &Limiter{store: store, clock: SystemClock{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check runs one admission decision for key under rule.
// The decision itself never fails; store errors fail open and are logged.
func (l *Limiter) Check(ctx context.Context, key string, rule Rule) Result {
	res, err := l.store.Take(ctx, key, rule.Limit, rule.Window)
	if err != nil {
		logger.Warn("rate-limit store unavailable, failing open",
			zap.String("key", key),
			zap.Error(err),
		)
		return Result{
			Allowed:   true,
			Limit:     rule.Limit,
			Remaining: rule.Limit - 1,
			Reset:     l.clock.Now().Add(rule.Window),
		}
	}
	return res
}

// Close releases the underlying store.
func (l *Limiter) Close() error {
	return l.store.Close()
}
