// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PedroGGomess/lions-clube-gaia/auth"
	"github.com/PedroGGomess/lions-clube-gaia/models"
	"github.com/PedroGGomess/lions-clube-gaia/store"
)

// ValidationError is a request the service refuses before touching storage.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// CreateElection stores a new, inactive election and returns it with its
// admin key.
func (s *Service) CreateElection(ctx context.Context, req models.CreateElectionRequest) (models.Election, string, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return models.Election{}, "", &ValidationError{Field: "title", Message: "is required"}
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		return models.Election{}, "", &ValidationError{Field: "starts_at", Message: "starts_at and ends_at are required"}
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return models.Election{}, "", &ValidationError{Field: "ends_at", Message: "must be after starts_at"}
	}

	id, err := auth.GenerateID(16)
	if err != nil {
		return models.Election{}, "", err
	}

	e := models.Election{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		StartsAt:    req.StartsAt.UTC(),
		EndsAt:      req.EndsAt.UTC(),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateElection(ctx, e); err != nil {
		return models.Election{}, "", err
	}

	slog.Info("election created", "election_id", e.ID, "starts_at", e.StartsAt, "ends_at", e.EndsAt)
	return e, auth.GenerateAdminKey(e.ID, s.cfg.AdminKeySalt), nil
}

// Election returns an election with its choices in display order.
func (s *Service) Election(ctx context.Context, id string) (models.ElectionWithChoices, error) {
	e, err := s.election(ctx, id)
	if err != nil {
		return models.ElectionWithChoices{}, err
	}

	choices, err := s.store.ListChoices(ctx, id)
	if err != nil {
		return models.ElectionWithChoices{}, fmt.Errorf("failed to load choices: %w", err)
	}

	return models.ElectionWithChoices{Election: e, Choices: choices}, nil
}

// AddChoice appends a choice. Choices can only be added before the
// election starts.
func (s *Service) AddChoice(ctx context.Context, electionID string, req models.AddChoiceRequest) (models.Choice, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return models.Choice{}, &ValidationError{Field: "label", Message: "is required"}
	}

	e, err := s.election(ctx, electionID)
	if err != nil {
		return models.Choice{}, err
	}
	if !s.now().Before(e.StartsAt) {
		return models.Choice{}, ErrChoiceLocked
	}

	id, err := auth.GenerateID(12)
	if err != nil {
		return models.Choice{}, err
	}

	c := models.Choice{ID: id, ElectionID: electionID, Label: label, DisplayOrder: req.DisplayOrder}
	if err := s.store.AddChoice(ctx, c); err != nil {
		return models.Choice{}, err
	}

	slog.Info("choice added", "election_id", electionID, "choice_id", c.ID)
	return c, nil
}

// UpdateChoiceLabel renames a choice while its election has not started
// and no vote references it.
func (s *Service) UpdateChoiceLabel(ctx context.Context, electionID, choiceID, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return &ValidationError{Field: "label", Message: "is required"}
	}

	e, err := s.election(ctx, electionID)
	if err != nil {
		return err
	}

	c, err := s.store.GetChoice(ctx, choiceID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && c.ElectionID != electionID) {
		return ErrChoiceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load choice: %w", err)
	}

	if !s.now().Before(e.StartsAt) {
		return ErrChoiceLocked
	}

	updated, err := s.store.UpdateChoiceLabel(ctx, choiceID, label)
	if err != nil {
		return err
	}
	if !updated {
		return ErrChoiceLocked
	}

	slog.Info("choice updated", "election_id", electionID, "choice_id", choiceID)
	return nil
}

// SetActive opens or closes an election for voting, independent of its
// schedule.
func (s *Service) SetActive(ctx context.Context, electionID string, active bool) error {
	err := s.store.SetElectionActive(ctx, electionID, active)
	if errors.Is(err, store.ErrNotFound) {
		return ErrElectionNotFound
	}
	if err != nil {
		return err
	}

	slog.Info("election activation changed", "election_id", electionID, "is_active", active)
	return nil
}
