// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	attempts int
	resetAt  time.Time
}

// MemoryCounter keeps counters in process memory. Limits are per instance
// and reset on restart.
type MemoryCounter struct {
	mu        sync.Mutex
	buckets   map[string]*window
	lastSweep time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{buckets: make(map[string]*window)}
}

func (m *MemoryCounter) Incr(_ context.Context, bucket string, now time.Time, length time.Duration) (int, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= length {
		m.sweep(now)
	}

	w, ok := m.buckets[bucket]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(length)}
		m.buckets[bucket] = w
	}
	w.attempts++

	return w.attempts, w.resetAt, nil
}

// sweep drops expired windows. Must be called with mu held.
func (m *MemoryCounter) sweep(now time.Time) {
	for k, w := range m.buckets {
		if !now.Before(w.resetAt) {
			delete(m.buckets, k)
		}
	}
	m.lastSweep = now
}

// Len returns the number of live buckets.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}
