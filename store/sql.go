// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PedroGGomess/lions-clube-gaia/models"
)

// hashLookupChunk bounds the number of placeholders in one IN clause.
const hashLookupChunk = 500

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore implements Store and Transactor on PostgreSQL or SQLite.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Elections

func (s *SQLStore) CreateElection(ctx context.Context, e models.Election) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO election (id, title, description, starts_at, ends_at, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.Title, e.Description, e.StartsAt.UTC(), e.EndsAt.UTC(), e.IsActive, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create election: %w", classify(err))
	}
	return nil
}

func (s *SQLStore) GetElection(ctx context.Context, id string) (models.Election, error) {
	var e models.Election
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, starts_at, ends_at, is_active, created_at
		FROM election
		WHERE id = $1
	`, id).Scan(&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.IsActive, &e.CreatedAt)
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to get election: %w", classify(err))
	}
	e.StartsAt = e.StartsAt.UTC()
	e.EndsAt = e.EndsAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (s *SQLStore) SetElectionActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE election SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update election: %w", classify(err))
	}
	return expectRow(res, "election")
}

func (s *SQLStore) AddChoice(ctx context.Context, c models.Choice) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO choice (id, election_id, label, display_order)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.ElectionID, c.Label, c.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to add choice: %w", classify(err))
	}
	return nil
}

func (s *SQLStore) GetChoice(ctx context.Context, id string) (models.Choice, error) {
	var c models.Choice
	err := s.db.QueryRowContext(ctx, `
		SELECT id, election_id, label, display_order FROM choice WHERE id = $1
	`, id).Scan(&c.ID, &c.ElectionID, &c.Label, &c.DisplayOrder)
	if err != nil {
		return models.Choice{}, fmt.Errorf("failed to get choice: %w", classify(err))
	}
	return c, nil
}

func (s *SQLStore) ListChoices(ctx context.Context, electionID string) ([]models.Choice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, label, display_order
		FROM choice
		WHERE election_id = $1
		ORDER BY display_order, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", classify(err))
	}
	defer rows.Close()

	choices := []models.Choice{}
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Label, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list choices: %w", classify(err))
	}
	return choices, nil
}

func (s *SQLStore) UpdateChoiceLabel(ctx context.Context, id, label string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE choice SET label = $1
		WHERE id = $2 AND NOT EXISTS (SELECT 1 FROM vote WHERE choice_id = $2)
	`, label, id)
	if err != nil {
		return false, fmt.Errorf("failed to update choice: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update choice: %w", classify(err))
	}
	if n == 1 {
		return true, nil
	}

	// Distinguish a locked choice from a missing one
	if _, err := s.GetChoice(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Credentials

// InsertBatch writes all hashes in one transaction.
func (s *SQLStore) InsertBatch(ctx context.Context, electionID, scheme string, hashes []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO credential (id, election_id, hash, hash_scheme, consumed, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare credential insert: %w", classify(err))
	}
	defer stmt.Close()

	now := s.now().UTC()
	for _, h := range hashes {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), electionID, h, scheme, now); err != nil {
			return fmt.Errorf("failed to insert credential: %w", classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", classify(err))
	}
	return nil
}

func (s *SQLStore) ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(hashes); start += hashLookupChunk {
		end := min(start+hashLookupChunk, len(hashes))
		if err := s.collectHashes(ctx, hashes[start:end], found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s *SQLStore) collectHashes(ctx context.Context, chunk []string, found map[string]bool) error {
	placeholders := make([]string, len(chunk))
	args := make([]any, len(chunk))
	for i, h := range chunk {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = h
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT hash FROM credential WHERE hash IN ("+strings.Join(placeholders, ", ")+")", args...)
	if err != nil {
		return fmt.Errorf("failed to look up hashes: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return fmt.Errorf("failed to scan hash: %w", err)
		}
		found[h] = true
	}
	return classify(rows.Err())
}

func (s *SQLStore) FindByHash(ctx context.Context, hash string) (models.Credential, error) {
	var (
		c          models.Credential
		consumedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, election_id, hash, hash_scheme, consumed, consumed_at, created_at
		FROM credential
		WHERE hash = $1
	`, hash).Scan(&c.ID, &c.ElectionID, &c.Hash, &c.HashScheme, &c.Consumed, &consumedAt, &c.CreatedAt)
	if err != nil {
		return models.Credential{}, fmt.Errorf("failed to find credential: %w", classify(err))
	}
	if consumedAt.Valid {
		t := consumedAt.Time.UTC()
		c.ConsumedAt = &t
	}
	return c, nil
}

func (s *SQLStore) ListByElection(ctx context.Context, electionID string) ([]models.Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, election_id, consumed, consumed_at, created_at
		FROM credential
		WHERE election_id = $1
		ORDER BY created_at, id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", classify(err))
	}
	defer rows.Close()

	creds := []models.Credential{}
	for rows.Next() {
		var (
			c          models.Credential
			consumedAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.Consumed, &consumedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		if consumedAt.Valid {
			t := consumedAt.Time.UTC()
			c.ConsumedAt = &t
		}
		creds = append(creds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", classify(err))
	}
	return creds, nil
}

func (s *SQLStore) MarkConsumedIfUnconsumed(ctx context.Context, id string, at time.Time) (bool, error) {
	return markConsumed(ctx, s.db, id, at)
}

func (s *SQLStore) ResetConsumed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credential SET consumed = FALSE, consumed_at = NULL
		WHERE id = $1 AND consumed = TRUE
	`, id)
	if err != nil {
		return fmt.Errorf("failed to reset credential: %w", classify(err))
	}
	return expectRow(res, "credential")
}

// Votes

func (s *SQLStore) InsertVote(ctx context.Context, v models.Vote) error {
	return insertVote(ctx, s.db, v)
}

// Tally counts votes per choice in display order, including choices with
// no votes. Percentages are left to the caller.
func (s *SQLStore) Tally(ctx context.Context, electionID string) ([]models.ChoiceTally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.label, COUNT(v.id)
		FROM choice c
		LEFT JOIN vote v ON v.choice_id = c.id
		WHERE c.election_id = $1
		GROUP BY c.id, c.label, c.display_order
		ORDER BY c.display_order, c.id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", classify(err))
	}
	defer rows.Close()

	tally := []models.ChoiceTally{}
	for rows.Next() {
		var ct models.ChoiceTally
		if err := rows.Scan(&ct.ChoiceID, &ct.Label, &ct.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan tally: %w", err)
		}
		tally = append(tally, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to tally votes: %w", classify(err))
	}
	return tally, nil
}

// Reports

// Participation reads all three counts in one statement so they describe
// the same snapshot.
func (s *SQLStore) Participation(ctx context.Context, electionID string) (models.Participation, error) {
	p := models.Participation{ElectionID: electionID}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM credential WHERE election_id = $1),
			(SELECT COUNT(*) FROM credential WHERE election_id = $1 AND consumed = TRUE),
			(SELECT COUNT(*) FROM vote WHERE election_id = $1)
	`, electionID).Scan(&p.IssuedCount, &p.ConsumedCount, &p.VoteCount)
	if err != nil {
		return models.Participation{}, fmt.Errorf("failed to count participation: %w", classify(err))
	}
	return p, nil
}

// Transactions

type txLedger struct {
	tx *sql.Tx
}

func (l txLedger) MarkConsumedIfUnconsumed(ctx context.Context, id string, at time.Time) (bool, error) {
	return markConsumed(ctx, l.tx, id, at)
}

func (l txLedger) InsertVote(ctx context.Context, v models.Vote) error {
	return insertVote(ctx, l.tx, v)
}

// WithinTx runs fn in a transaction and commits only if fn returns nil.
// fn must use the Ledger it is given and nothing else from this store.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Ledger) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", classify(err))
	}
	defer tx.Rollback()

	if err := fn(txLedger{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// markConsumed flips consumed from false to true in one conditional
// UPDATE. Concurrent callers on the same row serialize on the row lock and
// exactly one sees a row affected.
func markConsumed(ctx context.Context, q querier, id string, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE credential SET consumed = TRUE, consumed_at = $1
		WHERE id = $2 AND consumed = FALSE
	`, at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("failed to consume credential: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume credential: %w", classify(err))
	}
	return n == 1, nil
}

func insertVote(ctx context.Context, q querier, v models.Vote) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO vote (id, election_id, choice_id) VALUES ($1, $2, $3)
	`, v.ID, v.ElectionID, v.ChoiceID)
	if err != nil {
		return fmt.Errorf("failed to insert vote: %w", classify(err))
	}
	return nil
}

func expectRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", classify(err))
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
