// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the lions-clube-gaia election server.

Organizers create an election, add choices and issue single-use
credentials. Each credential casts exactly one vote, and stored votes
carry no link back to the credential that cast them.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=election.db go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..."

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string (not used with memory)
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC and IP hashing
  - CREDENTIAL_PEPPER (--pepper): Secret mixed into credential hashes
  - SESSION_SECRET (--session-secret): Secret for session proof signatures

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite, postgres or memory (default: sqlite)
  - SESSION_TTL (--session-ttl): Validated session lifetime (default: 15m)
  - RATE_LIMIT_MAX, RATE_LIMIT_WINDOW: Attempts per client per window (default: 10 per 1m)
  - RATE_LIMIT_BACKEND: memory or database (default: memory)
  - RECONCILE_LOG: Reconciliation journal path (default: reconcile.log)

A .env file in the working directory is loaded if present.

DATABASE_TYPE=memory keeps everything in process and loses it on exit. It
cannot be combined with RATE_LIMIT_BACKEND=database or -replay-reconcile.

# Reconciliation

When a vote cannot be stored and the credential cannot be released, the
credential is written to the reconciliation journal. Run once with
-replay-reconcile to release them and exit.

# Architecture

  - handlers: HTTP request handlers (elections, ballots, health)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, rate limiting, JSON helpers
  - voting: Issue, redeem and commit logic
  - store: Persistence over SQLite/PostgreSQL, plus an in-memory store
  - credentials: Credential generation and hashing
  - ratelimit: Fixed-window attempt counters
  - reconcile: Journal of credentials consumed without a vote
  - models: Request/response and domain types
  - auth: Admin keys, session proofs, IP hashing
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
