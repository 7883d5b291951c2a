// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PedroGGomess/lions-clube-gaia/testutil"
)

var counters = []struct {
	name string
	open func(t *testing.T) Counter
}{
	{"memory", func(t *testing.T) Counter { return NewMemoryCounter() }},
	{"sql", func(t *testing.T) Counter {
		conn := testutil.SetupTestDB(t)
		t.Cleanup(func() { conn.Close() })
		return NewSQLCounter(conn)
	}},
}

// fixedClock returns a limiter whose clock is controlled by the test.
func fixedClock(l *Limiter, start time.Time) *time.Time {
	now := start
	l.now = func() time.Time { return now }
	return &now
}

func TestLimiterWindow(t *testing.T) {
	for _, c := range counters {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			l := New(c.open(t), 3, time.Minute)
			start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
			now := fixedClock(l, start)

			for i := 1; i <= 3; i++ {
				res, err := l.Check(ctx, "ip-a")
				if err != nil {
					t.Fatalf("Check() error = %v", err)
				}
				if !res.Allowed {
					t.Fatalf("attempt %d rejected", i)
				}
				if res.Remaining != 3-i {
					t.Errorf("attempt %d Remaining = %d, want %d", i, res.Remaining, 3-i)
				}
				if !res.ResetAt.Equal(start.Add(time.Minute)) {
					t.Errorf("ResetAt = %v, want %v", res.ResetAt, start.Add(time.Minute))
				}
			}

			*now = start.Add(30 * time.Second)
			res, _ := l.Check(ctx, "ip-a")
			if res.Allowed || res.Remaining != 0 {
				t.Errorf("fourth attempt = %+v, want rejected", res)
			}
			if got := res.RetryAfter(*now); got != 30*time.Second {
				t.Errorf("RetryAfter() = %v, want 30s", got)
			}
			if !errors.Is(res.Err(), ErrRateLimited) {
				t.Errorf("Err() = %v, want ErrRateLimited", res.Err())
			}

			// Other keys are independent
			if res, _ := l.Check(ctx, "ip-b"); !res.Allowed {
				t.Error("unrelated key was rejected")
			}

			// The window is anchored at the first attempt, not the last
			*now = start.Add(time.Minute)
			res, _ = l.Check(ctx, "ip-a")
			if !res.Allowed || res.Remaining != 2 {
				t.Errorf("attempt after reset = %+v, want allowed with 2 remaining", res)
			}
			if !res.ResetAt.Equal(start.Add(2 * time.Minute)) {
				t.Errorf("new ResetAt = %v, want %v", res.ResetAt, start.Add(2*time.Minute))
			}
		})
	}
}

func TestLimiterConcurrent(t *testing.T) {
	for _, c := range counters {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			l := New(c.open(t), 5, time.Minute)

			var allowed atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					res, err := l.Check(ctx, "shared")
					if err != nil {
						t.Errorf("Check() error = %v", err)
						return
					}
					if res.Allowed {
						allowed.Add(1)
					}
				}()
			}
			wg.Wait()

			if allowed.Load() != 5 {
				t.Errorf("%d attempts allowed, want 5", allowed.Load())
			}
		})
	}
}

func TestMemoryCounterSweepsExpired(t *testing.T) {
	m := NewMemoryCounter()
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	m.Incr(ctx, "a", start, time.Minute)
	m.Incr(ctx, "b", start, time.Minute)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	m.Incr(ctx, "c", start.Add(2*time.Minute), time.Minute)
	if m.Len() != 1 {
		t.Errorf("Len() after sweep = %d, want 1", m.Len())
	}
}

func TestSQLCounterPurge(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	defer conn.Close()

	c := NewSQLCounter(conn)
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	c.Incr(ctx, "old", start, time.Minute)
	c.Incr(ctx, "new", start.Add(time.Minute), time.Minute)

	n, err := c.Purge(ctx, start.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Purge() removed %d buckets, want 1", n)
	}
}

type failingCounter struct{}

func (failingCounter) Incr(context.Context, string, time.Time, time.Duration) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("database is down")
}

func TestLimiterCounterError(t *testing.T) {
	l := New(failingCounter{}, 1, time.Minute)
	if _, err := l.Check(context.Background(), "k"); err == nil {
		t.Error("expected error from failing counter")
	}
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		resetIn time.Duration
		want    time.Duration
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, time.Second},
		{time.Second, time.Second},
		{1500 * time.Millisecond, 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.resetIn.String(), func(t *testing.T) {
			r := Result{ResetAt: now.Add(tt.resetIn)}
			if got := r.RetryAfter(now); got != tt.want {
				t.Errorf("RetryAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}
