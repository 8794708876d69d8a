// Package ratelimit bounds how many contact submissions a single client
// fingerprint may make per window. The window is fixed-with-reset: the first
// request opens a window, later requests increment a counter, and a request
// after the window's expiry starts a fresh one.
package ratelimit

import (
	"context"
	"log/slog"
	"math"
	"time"

	pkglogger "github.com/Sudo-psc/saraiva-vision-site-sub012/pkg/logger"
)

// Store is the counter backend. The memory store serves single-instance
// deployments; the redis store gives all instances a consistent view via
// atomic increment-and-expire.
type Store interface {
	// Incr records one request for the fingerprint and returns the
	// post-increment count for the current window plus the window's expiry.
	Incr(ctx context.Context, fingerprint string, window time.Duration) (count int, expiresAt time.Time, err error)
	// Penalize adds n extra attempts to the fingerprint's current window
	// without extending it. Used to accelerate lockout of spam senders.
	Penalize(ctx context.Context, fingerprint string, n int) error
}

// Config holds limiter policy.
type Config struct {
	Window      time.Duration
	MaxRequests int
}

// Result is the outcome of a limiter check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int // seconds; only set when denied
	ResetAt    time.Time
}

// Limiter applies the fixed-window policy over a Store.
type Limiter struct {
	store  Store
	config Config
	logger *slog.Logger
}

func NewLimiter(store Store, config Config, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, config: config, logger: logger}
}

// Check records the request and decides whether it may proceed. Store errors
// fail open: an unavailable counter backend must not take the contact form
// down with it.
func (l *Limiter) Check(ctx context.Context, fingerprint string) Result {
	count, expiresAt, err := l.store.Incr(ctx, fingerprint, l.config.Window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, failing open",
			slog.String("fingerprint", pkglogger.FingerprintPrefix(fingerprint)),
			slog.Any("error", err))
		return Result{Allowed: true, Limit: l.config.MaxRequests, Remaining: l.config.MaxRequests - 1, ResetAt: time.Now().Add(l.config.Window)}
	}

	if count > l.config.MaxRequests {
		retryAfter := int(math.Ceil(time.Until(expiresAt).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Result{
			Allowed:    false,
			Limit:      l.config.MaxRequests,
			Remaining:  0,
			RetryAfter: retryAfter,
			ResetAt:    expiresAt,
		}
	}

	return Result{
		Allowed:   true,
		Limit:     l.config.MaxRequests,
		Remaining: l.config.MaxRequests - count,
		ResetAt:   expiresAt,
	}
}

// Penalize charges extra attempts against the fingerprint's current window.
func (l *Limiter) Penalize(ctx context.Context, fingerprint string, n int) {
	if n <= 0 {
		return
	}
	if err := l.store.Penalize(ctx, fingerprint, n); err != nil {
		l.logger.Warn("rate limit penalty failed",
			slog.String("fingerprint", pkglogger.FingerprintPrefix(fingerprint)),
			slog.Any("error", err))
	}
}
