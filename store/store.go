// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/PedroGGomess/lions-clube-gaia/models"
)

// Every storage failure is classified as one of these, or returned as is.
var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrTransient           = errors.New("transient storage error")
)

type Elections interface {
	CreateElection(ctx context.Context, e models.Election) error
	GetElection(ctx context.Context, id string) (models.Election, error)
	SetElectionActive(ctx context.Context, id string, active bool) error
	AddChoice(ctx context.Context, c models.Choice) error
	GetChoice(ctx context.Context, id string) (models.Choice, error)
	ListChoices(ctx context.Context, electionID string) ([]models.Choice, error)
	// UpdateChoiceLabel reports false when a vote already references the choice.
	UpdateChoiceLabel(ctx context.Context, id, label string) (bool, error)
}

// Credentials owns every credential state transition.
type Credentials interface {
	// InsertBatch fails with ErrConstraintViolation if any hash already
	// exists; nothing from the batch is stored in that case.
	InsertBatch(ctx context.Context, electionID, scheme string, hashes []string) error
	ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error)
	FindByHash(ctx context.Context, hash string) (models.Credential, error)
	// ListByElection returns the election's credentials oldest first,
	// without hashes.
	ListByElection(ctx context.Context, electionID string) ([]models.Credential, error)
	// MarkConsumedIfUnconsumed is a single compare-and-set on the row
	// predicate consumed = false. It reports whether this call flipped it.
	MarkConsumedIfUnconsumed(ctx context.Context, id string, at time.Time) (bool, error)
	// ResetConsumed is used only to compensate a failed vote insert.
	ResetConsumed(ctx context.Context, id string) error
}

// Votes owns vote rows.
type Votes interface {
	InsertVote(ctx context.Context, v models.Vote) error
	Tally(ctx context.Context, electionID string) ([]models.ChoiceTally, error)
}

type Reports interface {
	Participation(ctx context.Context, electionID string) (models.Participation, error)
}

type Store interface {
	Elections
	Credentials
	Votes
	Reports
}

// Ledger is the write set of one vote commit.
type Ledger interface {
	MarkConsumedIfUnconsumed(ctx context.Context, id string, at time.Time) (bool, error)
	InsertVote(ctx context.Context, v models.Vote) error
}

// Transactor is implemented by stores that can run both commit writes in
// one transaction. If fn returns an error nothing is persisted.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Ledger) error) error
}

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "23":
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		case pqErr.Code.Class() == "08", pqErr.Code == "40001", pqErr.Code == "40P01", pqErr.Code == "57P01":
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT:
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", ErrTransient, err)
		}
	}

	return err
}
