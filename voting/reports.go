// Copyright (c) 2025 The lions-clube-gaia Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/PedroGGomess/lions-clube-gaia/models"
)

// Stats reports participation for an election. Consistent is false when
// more votes than consumed credentials exist, which must never happen.
func (s *Service) Stats(ctx context.Context, electionID string) (models.StatsResponse, error) {
	if _, err := s.election(ctx, electionID); err != nil {
		return models.StatsResponse{}, err
	}

	var (
		p     models.Participation
		tally []models.ChoiceTally
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.store.Participation(gctx, electionID)
		return err
	})
	g.Go(func() error {
		var err error
		tally, err = s.store.Tally(gctx, electionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.StatsResponse{}, fmt.Errorf("failed to compute stats: %w", err)
	}

	if !p.Consistent() {
		slog.Error("more votes than consumed credentials", "election_id", electionID,
			"consumed", p.ConsumedCount, "votes", p.VoteCount)
	}

	return models.StatsResponse{
		Participation: p,
		Unmatched:     p.Unmatched(),
		Consistent:    p.Consistent(),
		VotesByChoice: withPercentages(tally),
	}, nil
}

// Results returns per-choice totals sorted by votes, most first. Ties keep
// display order.
func (s *Service) Results(ctx context.Context, electionID string) (models.ResultsResponse, error) {
	e, err := s.election(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, err
	}

	tally, err := s.store.Tally(ctx, electionID)
	if err != nil {
		return models.ResultsResponse{}, fmt.Errorf("failed to tally votes: %w", err)
	}

	tally = withPercentages(tally)
	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Votes > tally[j].Votes
	})

	total := 0
	for _, t := range tally {
		total += t.Votes
	}

	return models.ResultsResponse{
		Election:   e,
		TotalVotes: total,
		Choices:    tally,
	}, nil
}

// Credentials lists the election's issued credentials for audit. Hashes
// are never included.
func (s *Service) Credentials(ctx context.Context, electionID string) ([]models.Credential, error) {
	if _, err := s.election(ctx, electionID); err != nil {
		return nil, err
	}

	creds, err := s.store.ListByElection(ctx, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	return creds, nil
}

func withPercentages(tally []models.ChoiceTally) []models.ChoiceTally {
	total := 0
	for _, t := range tally {
		total += t.Votes
	}
	if total == 0 {
		return tally
	}
	for i := range tally {
		tally[i].Percentage = float64(tally[i].Votes) / float64(total) * 100
	}
	return tally
}
