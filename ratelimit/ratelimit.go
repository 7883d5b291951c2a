// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRateLimited = errors.New("too many attempts")

// Counter records attempts per bucket in fixed windows. A window starts at
// the first attempt in a bucket and lasts for window; the first attempt
// after it expires starts a new one.
type Counter interface {
	// Incr records one attempt and returns the attempt count within the
	// current window along with the time that window resets.
	Incr(ctx context.Context, bucket string, now time.Time, window time.Duration) (attempts int, resetAt time.Time, err error)
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets, rounded up to a
// whole second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return (d + time.Second - 1).Truncate(time.Second)
}

// Err returns ErrRateLimited for a rejected attempt and nil otherwise.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return ErrRateLimited
}

// Limiter allows at most max attempts per key per window.
type Limiter struct {
	counter Counter
	max     int
	window  time.Duration
	now     func() time.Time
}

func New(counter Counter, maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{counter: counter, max: maxAttempts, window: window, now: time.Now}
}

// Check counts one attempt for key. Rejected attempts are counted too.
func (l *Limiter) Check(ctx context.Context, key string) (Result, error) {
	attempts, resetAt, err := l.counter.Incr(ctx, key, l.now(), l.window)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count attempt: %w", err)
	}

	return Result{
		Allowed:   attempts <= l.max,
		Remaining: max(l.max-attempts, 0),
		ResetAt:   resetAt,
	}, nil
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}
