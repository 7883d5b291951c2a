// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/PedroGGomess/lions-clube-gaia/auth"
	"github.com/PedroGGomess/lions-clube-gaia/cliparse"
	"github.com/PedroGGomess/lions-clube-gaia/credentials"
	"github.com/PedroGGomess/lions-clube-gaia/models"
	"github.com/PedroGGomess/lions-clube-gaia/reconcile"
	"github.com/PedroGGomess/lions-clube-gaia/store"
)

const (
	// issueAttempts bounds regeneration when a batch collides with stored
	// credentials.
	issueAttempts = 5
	// commitAttempts bounds retries of a transactional commit that failed
	// with a transient error. Each attempt runs in a fresh transaction.
	commitAttempts = 3
	// ConsumedAtPrecision is the resolution of stored consumed_at values.
	// Commits within the same minute cannot be ordered by it.
	ConsumedAtPrecision = time.Minute
)

// Journal receives credentials that were consumed without a vote.
type Journal interface {
	Record(e reconcile.Entry)
}

type Service struct {
	store   store.Store
	gen     *credentials.Generator
	hasher  *credentials.Hasher
	journal Journal
	cfg     cliparse.Config
	now     func() time.Time
}

func NewService(st store.Store, cfg cliparse.Config, journal Journal) *Service {
	return &Service{
		store:   st,
		gen:     credentials.NewGenerator(),
		hasher:  credentials.NewHasher(cfg.CredentialPepper),
		journal: journal,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Redemption is the result of a successful validation.
type Redemption struct {
	ElectionID   string
	Choices      []models.Choice
	SessionProof string
	ExpiresAt    time.Time
}

// Issue generates count credentials for an election, stores their hashes
// and returns the plaintexts. The plaintexts are not kept anywhere.
func (s *Service) Issue(ctx context.Context, electionID string, count int) ([]string, error) {
	if count < 1 || count > credentials.MaxBatch {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidCount, credentials.MaxBatch)
	}
	if _, err := s.election(ctx, electionID); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= issueAttempts; attempt++ {
		codes, err := s.gen.Generate(count, credentials.DefaultLength)
		if err != nil {
			return nil, err
		}

		hashes := make([]string, len(codes))
		for i, c := range codes {
			hashes[i] = s.hasher.Hash(c)
		}

		existing, err := s.store.ExistingHashes(ctx, hashes)
		if err != nil {
			return nil, fmt.Errorf("failed to check credentials: %w", err)
		}
		if len(existing) > 0 {
			slog.Warn("credential batch collided with stored credentials", "election_id", electionID, "collisions", len(existing), "attempt", attempt)
			continue
		}

		err = s.store.InsertBatch(ctx, electionID, s.hasher.Scheme(), hashes)
		if errors.Is(err, store.ErrConstraintViolation) {
			// Lost a race with a concurrent batch
			slog.Warn("credential batch rejected by store", "election_id", electionID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store credentials: %w", err)
		}

		slog.Info("credentials issued", "election_id", electionID, "count", humanize.Comma(int64(count)))
		return codes, nil
	}

	return nil, fmt.Errorf("failed to issue %d unique credentials after %d attempts", count, issueAttempts)
}

// Redeem checks a plaintext credential and, if it may vote now, returns a
// signed session proof for Commit. It never consumes the credential.
func (s *Service) Redeem(ctx context.Context, plaintext string) (Redemption, error) {
	if credentials.Normalize(plaintext) == "" {
		return Redemption{}, ErrInvalidCredential
	}

	cred, err := s.store.FindByHash(ctx, s.hasher.Hash(plaintext))
	if errors.Is(err, store.ErrNotFound) {
		return Redemption{}, ErrInvalidCredential
	}
	if err != nil {
		return Redemption{}, fmt.Errorf("failed to look up credential: %w", err)
	}
	if cred.Consumed {
		return Redemption{}, ErrAlreadyUsed
	}

	now := s.now()
	e, err := s.store.GetElection(ctx, cred.ElectionID)
	if err != nil {
		return Redemption{}, fmt.Errorf("failed to load election: %w", err)
	}
	if !e.IsOpen(now) {
		return Redemption{}, ErrElectionNotOpen
	}

	choices, err := s.store.ListChoices(ctx, e.ID)
	if err != nil {
		return Redemption{}, fmt.Errorf("failed to load choices: %w", err)
	}

	sess := auth.Session{
		CredentialID: cred.ID,
		ElectionID:   e.ID,
		ExpiresAt:    now.Add(s.cfg.SessionTTL).Truncate(time.Second),
	}

	return Redemption{
		ElectionID:   e.ID,
		Choices:      choices,
		SessionProof: auth.SignSession(sess, s.cfg.SessionSecret),
		ExpiresAt:    sess.ExpiresAt,
	}, nil
}

// Commit consumes the credential behind sessionProof and records one vote
// for choiceID. Either both happen or, barring a PartialFailureError,
// neither does.
func (s *Service) Commit(ctx context.Context, sessionProof, choiceID string) error {
	now := s.now()

	sess, err := auth.VerifySession(sessionProof, s.cfg.SessionSecret, now)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	e, err := s.store.GetElection(ctx, sess.ElectionID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidSession
	}
	if err != nil {
		return fmt.Errorf("failed to load election: %w", err)
	}
	if !e.IsOpen(now) {
		return ErrElectionNotOpen
	}

	choice, err := s.store.GetChoice(ctx, choiceID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidChoice
	}
	if err != nil {
		return fmt.Errorf("failed to load choice: %w", err)
	}
	if choice.ElectionID != e.ID {
		return ErrInvalidChoice
	}

	vote := models.Vote{ID: uuid.NewString(), ElectionID: e.ID, ChoiceID: choice.ID}

	consumedAt := now.Truncate(ConsumedAtPrecision)
	if tx, ok := s.store.(store.Transactor); ok {
		err = s.commitTx(ctx, tx, sess.CredentialID, vote, consumedAt)
	} else {
		err = s.commitCompensating(ctx, sess.CredentialID, vote, consumedAt)
	}
	if err != nil {
		return err
	}

	slog.Info("vote recorded", "election_id", e.ID)
	return nil
}

func (s *Service) commitTx(ctx context.Context, tx store.Transactor, credentialID string, vote models.Vote, consumedAt time.Time) error {
	var err error
	for attempt := 1; attempt <= commitAttempts; attempt++ {
		err = tx.WithinTx(ctx, func(l store.Ledger) error {
			ok, err := l.MarkConsumedIfUnconsumed(ctx, credentialID, consumedAt)
			if err != nil {
				return err
			}
			if !ok {
				return ErrAlreadyUsed
			}
			return l.InsertVote(ctx, vote)
		})
		if !errors.Is(err, store.ErrTransient) {
			break
		}
		slog.Warn("vote commit hit a transient error", "election_id", vote.ElectionID, "attempt", attempt, "error", err)
	}

	if err != nil && !errors.Is(err, ErrAlreadyUsed) {
		return fmt.Errorf("failed to commit vote: %w", err)
	}
	return err
}

// commitCompensating is used when the store cannot run both writes in one
// transaction. A failed vote insert releases the credential again.
func (s *Service) commitCompensating(ctx context.Context, credentialID string, vote models.Vote, consumedAt time.Time) error {
	ok, err := s.store.MarkConsumedIfUnconsumed(ctx, credentialID, consumedAt)
	if err != nil {
		return fmt.Errorf("failed to consume credential: %w", err)
	}
	if !ok {
		return ErrAlreadyUsed
	}

	voteErr := s.store.InsertVote(ctx, vote)
	if voteErr == nil {
		return nil
	}

	// Release even if the request context is gone
	resetErr := s.store.ResetConsumed(context.WithoutCancel(ctx), credentialID)
	if resetErr == nil {
		return fmt.Errorf("failed to store vote: %w", voteErr)
	}

	pf := &PartialFailureError{
		ElectionID:   vote.ElectionID,
		CredentialID: credentialID,
		VoteErr:      voteErr,
		ResetErr:     resetErr,
	}
	if s.journal != nil {
		s.journal.Record(reconcile.Entry{
			ElectionID:   pf.ElectionID,
			CredentialID: pf.CredentialID,
			Error:        resetErr.Error(),
		})
	}
	slog.Error("credential consumed without vote, recorded for reconciliation", "election_id", vote.ElectionID, "vote_error", voteErr, "reset_error", resetErr)
	return pf
}

// election loads an election and maps a missing one to ErrElectionNotFound.
func (s *Service) election(ctx context.Context, id string) (models.Election, error) {
	e, err := s.store.GetElection(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Election{}, ErrElectionNotFound
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to load election: %w", err)
	}
	return e, nil
}
