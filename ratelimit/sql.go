// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLCounter keeps counters in the rate_limit table so that every instance
// sharing the database shares the limit.
type SQLCounter struct {
	db *sql.DB
}

func NewSQLCounter(db *sql.DB) *SQLCounter {
	return &SQLCounter{db: db}
}

// Incr is one upsert: a fresh or expired bucket restarts at 1, a live one
// is incremented.
func (c *SQLCounter) Incr(ctx context.Context, bucket string, now time.Time, length time.Duration) (int, time.Time, error) {
	nowMs := now.UnixMilli()
	resetMs := now.Add(length).UnixMilli()

	var attempts int
	var resetAtMs int64
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO rate_limit (bucket, attempts, reset_at_ms)
		VALUES ($1, 1, $2)
		ON CONFLICT (bucket) DO UPDATE SET
			attempts = CASE WHEN rate_limit.reset_at_ms <= $3 THEN 1 ELSE rate_limit.attempts + 1 END,
			reset_at_ms = CASE WHEN rate_limit.reset_at_ms <= $3 THEN $2 ELSE rate_limit.reset_at_ms END
		RETURNING attempts, reset_at_ms
	`, bucket, resetMs, nowMs).Scan(&attempts, &resetAtMs)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	return attempts, time.UnixMilli(resetAtMs).UTC(), nil
}

// Purge deletes buckets whose window ended before now.
func (c *SQLCounter) Purge(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM rate_limit WHERE reset_at_ms <= $1`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge rate limits: %w", err)
	}
	return res.RowsAffected()
}
