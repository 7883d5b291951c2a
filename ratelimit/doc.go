// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit bounds attempts per key in fixed windows.

	limiter := ratelimit.New(ratelimit.NewMemoryCounter(), 10, time.Minute)
	res, err := limiter.Check(ctx, auth.HashIP(ip, salt))
	if err == nil && !res.Allowed {
		// 429, Retry-After: res.RetryAfter(time.Now())
	}

MemoryCounter is best-effort and per process. SQLCounter stores buckets in
the rate_limit table and is shared by every instance on the same database.
*/
package ratelimit
