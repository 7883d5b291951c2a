// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path) and completion (status, duration_ms).
Request bodies are never logged, since they carry credentials.

# Rate Limiting

Bound attempts per client on the voting endpoints:

	limiter := ratelimit.New(counter, cfg.RateLimitMax, cfg.RateLimitWindow)
	mux.HandleFunc("POST /api/vote/validate",
		middleware.RateLimit(limiter, "validate", cfg.AdminKeySalt, h.Validate))

Clients over the limit get 429 with Retry-After in seconds and a
human-readable hint in the message.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key, and exposes Retry-After.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies (at most 1 MiB):

	var req models.ValidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Only its salted hash is used, as the rate limit key.
*/
package middleware
