// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Connecting

Open registers both drivers (lib/pq and modernc.org/sqlite) and picks one
by DATABASE_TYPE:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections get foreign_keys and busy_timeout pragmas and are
capped at one open connection.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - election: title, window [starts_at, ends_at), is_active
  - choice: options per election, display_order
  - credential: hash (unique), hash_scheme, consumed, consumed_at
  - vote: (election_id, choice_id) only; WITHOUT ROWID on SQLite so rows
    sit in random id order rather than commit order
  - rate_limit: shared attempt counters for the database rate limit backend

# Relationships

	election 1──* choice
	election 1──* credential
	election 1──* vote
	choice   1──* vote

There is no relationship between credential and vote.
Nothing is deleted with ON DELETE CASCADE; credentials are kept for audit.
*/
package db
