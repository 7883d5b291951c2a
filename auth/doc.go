// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin keys, session proofs, and ID generation.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(electionID, salt)
	err := auth.ValidateAdminKey(electionID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same election ID and salt always produce the same key. This allows
validation without storing the key in the database.

# Session Proofs

A successful credential validation returns a signed, short-lived session
proof instead of a server-side session:

	proof := auth.SignSession(auth.Session{...}, secret)
	s, err := auth.VerifySession(proof, secret, time.Now())

The proof names the credential to consume and its election. It is never
stored and never logged. Presenting it twice is harmless: the second commit
loses the conditional update and is rejected as already used.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

Rate limit buckets are keyed by a salted hash of the client IP, so raw
addresses never reach the rate_limit table:

	hash := auth.HashIP(ipAddress, salt)
*/
package auth
