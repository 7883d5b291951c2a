// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/PedroGGomess/lions-clube-gaia/auth"
	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/credentials"
	"github.com/PedroGGomess/lions-clube-gaia/db"
)

// Election states accepted by CreateTestElection.
const (
	ElectionOpen     = "open"
	ElectionInactive = "inactive"
	ElectionUpcoming = "upcoming"
	ElectionEnded    = "ended"
)

// SetupTestDB creates a fresh SQLite database file with the full schema.
// Each test gets its own file, so tests never share rows.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, db.TypeSQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseType:     cliparse.DatabaseSQLite,
		AdminKeySalt:     "test-admin-salt",
		CredentialPepper: "test-pepper",
		SessionSecret:    "test-session-secret",
		SessionTTL:       15 * time.Minute,
		RateLimitMax:     1000,
		RateLimitWindow:  time.Minute,
		RateLimitBackend: cliparse.RateLimitMemory,
	}
}

// CreateTestElection creates an election and returns its ID and admin key.
// state is one of ElectionOpen, ElectionInactive, ElectionUpcoming or
// ElectionEnded.
func CreateTestElection(t *testing.T, conn *sql.DB, cfg cliparse.Config, state string) (electionID, adminKey string) {
	t.Helper()

	now := time.Now().UTC()
	startsAt, endsAt, active := now.Add(-time.Hour), now.Add(time.Hour), true
	switch state {
	case ElectionOpen:
	case ElectionInactive:
		active = false
	case ElectionUpcoming:
		startsAt, endsAt = now.Add(time.Hour), now.Add(2*time.Hour)
	case ElectionEnded:
		startsAt, endsAt = now.Add(-2*time.Hour), now.Add(-time.Hour)
	default:
		t.Fatalf("unknown election state %q", state)
	}

	electionID, _ = auth.GenerateID(16)
	adminKey = auth.GenerateAdminKey(electionID, cfg.AdminKeySalt)

	_, err := conn.Exec(`
		INSERT INTO election (id, title, description, starts_at, ends_at, is_active, created_at)
		VALUES ($1, 'Test Election', 'A test election', $2, $3, $4, $5)
	`, electionID, startsAt, endsAt, active, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID, adminKey
}

// AddTestChoice adds a choice to an election and returns the choice ID
func AddTestChoice(t *testing.T, conn *sql.DB, electionID, label string) string {
	t.Helper()

	choiceID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO choice (id, election_id, label, display_order)
		VALUES ($1, $2, $3, (SELECT COUNT(*) FROM choice WHERE election_id = $2))
	`, choiceID, electionID, label)
	if err != nil {
		t.Fatalf("Failed to create test choice: %v", err)
	}

	return choiceID
}

// IssueTestCredentials stores n fresh credentials and returns their plaintexts
func IssueTestCredentials(t *testing.T, conn *sql.DB, cfg cliparse.Config, electionID string, n int) []string {
	t.Helper()

	codes, err := credentials.NewGenerator().Generate(n, credentials.DefaultLength)
	if err != nil {
		t.Fatalf("Failed to generate credentials: %v", err)
	}

	h := credentials.NewHasher(cfg.CredentialPepper)
	for _, code := range codes {
		_, err := conn.Exec(`
			INSERT INTO credential (id, election_id, hash, hash_scheme, consumed, created_at)
			VALUES ($1, $2, $3, $4, FALSE, $5)
		`, uuid.NewString(), electionID, h.Hash(code), h.Scheme(), time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to store test credential: %v", err)
		}
	}

	return codes
}

// CountRows counts rows of table belonging to electionID
func CountRows(t *testing.T, conn *sql.DB, table, electionID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE election_id = $1", electionID).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s rows: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
