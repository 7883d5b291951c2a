// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported DATABASE_TYPE values; each is also the database/sql driver name.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// RequiredTables lists every table the service reads or writes.
var RequiredTables = []string{"election", "choice", "credential", "vote", "rate_limit"}

// Open connects to the configured database and verifies the connection.
// SQLite is limited to a single connection so that writers queue in the
// pool instead of failing with SQLITE_BUSY.
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case TypeSQLite:
		url = withSQLitePragmas(url)
	case TypePostgres:
	default:
		return nil, fmt.Errorf("unsupported database type %q", dbType)
	}

	conn, err := sql.Open(dbType, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbType == TypeSQLite {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return conn, nil
}

func withSQLitePragmas(url string) string {
	if strings.Contains(url, "_pragma=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	voteOptions := ""
	if dbType == TypeSQLite {
		// Store votes in primary key order (random UUIDs), not insertion order
		voteOptions = " WITHOUT ROWID"
	}

	_, err := db.Exec(strings.Replace(schema, "{{vote_options}}", voteOptions, 1))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// MissingTables returns the required tables that cannot be queried.
func MissingTables(db *sql.DB) []string {
	var missing []string
	for _, table := range RequiredTables {
		rows, err := db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if err != nil {
			missing = append(missing, table)
			continue
		}
		rows.Close()
	}
	return missing
}

// Timestamps are written in UTC. The credential table has no plaintext
// column, and the vote table has no credential reference and no timestamp.
const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    starts_at TIMESTAMP NOT NULL,
    ends_at TIMESTAMP NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

-- Choices
CREATE TABLE IF NOT EXISTS choice (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    label TEXT NOT NULL,
    display_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_choice_election_id ON choice(election_id);

-- Credentials
CREATE TABLE IF NOT EXISTS credential (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    hash TEXT NOT NULL UNIQUE,
    hash_scheme TEXT NOT NULL,
    consumed BOOLEAN NOT NULL DEFAULT FALSE,
    consumed_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_credential_election_id ON credential(election_id, consumed);

-- Votes
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id),
    choice_id TEXT NOT NULL REFERENCES choice(id)
){{vote_options}};

CREATE INDEX IF NOT EXISTS idx_vote_election_choice ON vote(election_id, choice_id);

-- Rate limit counters
CREATE TABLE IF NOT EXISTS rate_limit (
    bucket TEXT PRIMARY KEY,
    attempts INTEGER NOT NULL,
    reset_at_ms BIGINT NOT NULL
);
`
