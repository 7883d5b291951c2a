// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PedroGGomess/lions-clube-gaia/models"
)

// MemoryStore is an in-process Store. It does not implement Transactor, so
// commits against it go through the compensating path.
type MemoryStore struct {
	mu          sync.Mutex
	elections   map[string]models.Election
	choices     map[string]models.Choice
	credentials map[string]*models.Credential // by id
	byHash      map[string]string             // hash -> credential id
	votes       []models.Vote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		elections:   make(map[string]models.Election),
		choices:     make(map[string]models.Choice),
		credentials: make(map[string]*models.Credential),
		byHash:      make(map[string]string),
	}
}

func (m *MemoryStore) CreateElection(_ context.Context, e models.Election) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elections[e.ID]; ok {
		return fmt.Errorf("election %s: %w", e.ID, ErrConstraintViolation)
	}
	m.elections[e.ID] = e
	return nil
}

func (m *MemoryStore) GetElection(_ context.Context, id string) (models.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.elections[id]
	if !ok {
		return models.Election{}, fmt.Errorf("election %s: %w", id, ErrNotFound)
	}
	return e, nil
}

func (m *MemoryStore) SetElectionActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.elections[id]
	if !ok {
		return fmt.Errorf("election %s: %w", id, ErrNotFound)
	}
	e.IsActive = active
	m.elections[id] = e
	return nil
}

func (m *MemoryStore) AddChoice(_ context.Context, c models.Choice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elections[c.ElectionID]; !ok {
		return fmt.Errorf("election %s: %w", c.ElectionID, ErrConstraintViolation)
	}
	if _, ok := m.choices[c.ID]; ok {
		return fmt.Errorf("choice %s: %w", c.ID, ErrConstraintViolation)
	}
	m.choices[c.ID] = c
	return nil
}

func (m *MemoryStore) GetChoice(_ context.Context, id string) (models.Choice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.choices[id]
	if !ok {
		return models.Choice{}, fmt.Errorf("choice %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (m *MemoryStore) ListChoices(_ context.Context, electionID string) ([]models.Choice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.choicesFor(electionID), nil
}

func (m *MemoryStore) UpdateChoiceLabel(_ context.Context, id, label string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.choices[id]
	if !ok {
		return false, fmt.Errorf("choice %s: %w", id, ErrNotFound)
	}
	for _, v := range m.votes {
		if v.ChoiceID == id {
			return false, nil
		}
	}
	c.Label = label
	m.choices[id] = c
	return true, nil
}

func (m *MemoryStore) InsertBatch(_ context.Context, electionID, scheme string, hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.elections[electionID]; !ok {
		return fmt.Errorf("election %s: %w", electionID, ErrConstraintViolation)
	}

	// Check everything first so a rejected batch stores nothing
	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		if _, ok := m.byHash[h]; ok || seen[h] {
			return fmt.Errorf("duplicate credential hash: %w", ErrConstraintViolation)
		}
		seen[h] = true
	}

	now := time.Now().UTC()
	for _, h := range hashes {
		c := &models.Credential{
			ID:         uuid.NewString(),
			ElectionID: electionID,
			Hash:       h,
			HashScheme: scheme,
			CreatedAt:  now,
		}
		m.credentials[c.ID] = c
		m.byHash[h] = c.ID
	}
	return nil
}

func (m *MemoryStore) ExistingHashes(_ context.Context, hashes []string) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[string]bool)
	for _, h := range hashes {
		if _, ok := m.byHash[h]; ok {
			found[h] = true
		}
	}
	return found, nil
}

func (m *MemoryStore) FindByHash(_ context.Context, hash string) (models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byHash[hash]
	if !ok {
		return models.Credential{}, fmt.Errorf("credential: %w", ErrNotFound)
	}
	c := *m.credentials[id]
	if c.ConsumedAt != nil {
		t := *c.ConsumedAt
		c.ConsumedAt = &t
	}
	return c, nil
}

func (m *MemoryStore) ListByElection(_ context.Context, electionID string) ([]models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds := []models.Credential{}
	for _, c := range m.credentials {
		if c.ElectionID != electionID {
			continue
		}
		cp := *c
		cp.Hash = ""
		cp.HashScheme = ""
		if c.ConsumedAt != nil {
			t := *c.ConsumedAt
			cp.ConsumedAt = &t
		}
		creds = append(creds, cp)
	}
	sort.Slice(creds, func(i, j int) bool {
		if !creds[i].CreatedAt.Equal(creds[j].CreatedAt) {
			return creds[i].CreatedAt.Before(creds[j].CreatedAt)
		}
		return creds[i].ID < creds[j].ID
	})
	return creds, nil
}

func (m *MemoryStore) MarkConsumedIfUnconsumed(_ context.Context, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.credentials[id]
	if !ok || c.Consumed {
		return false, nil
	}
	at = at.UTC()
	c.Consumed = true
	c.ConsumedAt = &at
	return true, nil
}

func (m *MemoryStore) ResetConsumed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.credentials[id]
	if !ok || !c.Consumed {
		return fmt.Errorf("credential: %w", ErrNotFound)
	}
	c.Consumed = false
	c.ConsumedAt = nil
	return nil
}

func (m *MemoryStore) InsertVote(_ context.Context, v models.Vote) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.choices[v.ChoiceID]
	if !ok || c.ElectionID != v.ElectionID {
		return fmt.Errorf("vote references unknown choice: %w", ErrConstraintViolation)
	}
	m.votes = append(m.votes, v)
	return nil
}

func (m *MemoryStore) Tally(_ context.Context, electionID string) ([]models.ChoiceTally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[string]int)
	for _, v := range m.votes {
		if v.ElectionID == electionID {
			counts[v.ChoiceID]++
		}
	}

	choices := m.choicesFor(electionID)
	tally := make([]models.ChoiceTally, 0, len(choices))
	for _, c := range choices {
		tally = append(tally, models.ChoiceTally{ChoiceID: c.ID, Label: c.Label, Votes: counts[c.ID]})
	}
	return tally, nil
}

func (m *MemoryStore) Participation(_ context.Context, electionID string) (models.Participation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := models.Participation{ElectionID: electionID}
	for _, c := range m.credentials {
		if c.ElectionID != electionID {
			continue
		}
		p.IssuedCount++
		if c.Consumed {
			p.ConsumedCount++
		}
	}
	for _, v := range m.votes {
		if v.ElectionID == electionID {
			p.VoteCount++
		}
	}
	return p, nil
}

// choicesFor must be called with mu held.
func (m *MemoryStore) choicesFor(electionID string) []models.Choice {
	choices := []models.Choice{}
	for _, c := range m.choices {
		if c.ElectionID == electionID {
			choices = append(choices, c)
		}
	}
	sort.Slice(choices, func(i, j int) bool {
		if choices[i].DisplayOrder != choices[j].DisplayOrder {
			return choices[i].DisplayOrder < choices[j].DisplayOrder
		}
		return choices[i].ID < choices[j].ID
	})
	return choices
}
