package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/okian/copa/internal/adapters/repository"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/logger"
	"github.com/okian/copa/pkg/metrics"
)

// SimulateRequest selects the draw of a simulation: a stored board or an
// explicit list of groups.
type SimulateRequest struct {
	RequestID string
	BoardID   string
	Groups    [][]string
	Seed      *int64
}

// Simulate plays one tournament, records it and returns the result. A
// repeated RequestID returns the original result with duplicate set.
func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (*tournament.Result, bool, error) {
	if !s.running() {
		return nil, false, ErrNotStarted
	}
	if req.RequestID != "" {
		if id, ok := s.deduper.Lookup(ctx, req.RequestID); ok {
			if res, err := s.Simulation(ctx, id); err == nil {
				return res, true, nil
			}
			// The answer has left history; run the request again as new.
			s.deduper.Forget(ctx, req.RequestID, id)
		}
	}

	draw, err := s.draw(ctx, req.BoardID, req.Groups)
	if err != nil {
		metrics.RecordSimulationRejected(rejectReason(err))
		return nil, false, err
	}

	seed := s.seedOr(req.Seed)
	start := time.Now()
	res, err := s.simulator.Simulate(draw, rand.New(rand.NewSource(seed))) //nolint:gosec // simulation randomness
	if err != nil {
		metrics.RecordSimulationRejected(rejectReason(err))
		return nil, false, err
	}
	res.Seed = seed
	metrics.RecordSimulation(float64(time.Since(start).Milliseconds()))

	if req.RequestID != "" {
		if id, seen := s.deduper.Remember(ctx, req.RequestID, res.ID); seen {
			// A concurrent request with the same id won; it may not be in
			// history yet, so answer with this unrecorded result.
			if prior, err := s.history.Get(ctx, id); err == nil {
				return prior, true, nil
			}
			return res, true, nil
		}
	}

	_ = s.history.Save(ctx, res)
	if err := s.tally.Record(ctx, res.Standings); err != nil {
		s.logger.Error(ctx, "tally update failed", logger.String("simulation_id", res.ID), logger.Error(err))
	}
	if s.archive != nil {
		if err := s.archive.Save(ctx, res); err != nil {
			metrics.RecordErrorByComponent("archive", "save")
			s.logger.Error(ctx, "archive write failed", logger.String("simulation_id", res.ID), logger.Error(err))
		}
	}

	s.logger.Info(ctx, "simulation finished",
		logger.String("simulation_id", res.ID),
		logger.String("champion", res.Standings.Champion),
		logger.String("runner_up", res.Standings.RunnerUp),
		logger.String("third", res.Standings.Third),
		logger.Duration("took", res.Took),
	)
	s.publish("simulation", map[string]any{
		"id":        res.ID,
		"standings": res.Standings,
	})
	return res, false, nil
}

// Simulation returns a past result from memory or, failing that, the archive.
func (s *Service) Simulation(ctx context.Context, id string) (*tournament.Result, error) {
	res, err := s.history.Get(ctx, id)
	if err == nil {
		return res, nil
	}
	if s.archive != nil {
		if res, aerr := s.archive.Load(ctx, id); aerr == nil {
			return res, nil
		}
	}
	return nil, repository.ErrNotFound
}

// draw returns the groups to play, either from a board or resolved from
// explicit names.
func (s *Service) draw(ctx context.Context, boardID string, explicit [][]string) ([][]string, error) {
	if boardID != "" {
		b, err := s.boards.Get(boardID)
		if err != nil {
			return nil, err
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return b.Groups(), nil
	}
	if len(explicit) == 0 {
		return nil, ErrNoDraw
	}
	return s.ResolveGroups(ctx, explicit)
}

// ResolveGroups maps every name of an explicit draw onto a dataset team.
func (s *Service) ResolveGroups(ctx context.Context, explicit [][]string) ([][]string, error) {
	seen := make(map[string]bool)
	out := make([][]string, len(explicit))
	for g, teams := range explicit {
		out[g] = make([]string, len(teams))
		for i, raw := range teams {
			if strings.TrimSpace(raw) == "" {
				return nil, groups.ErrIncompleteGroups
			}
			name, err := s.ds.Resolve(raw)
			if err != nil {
				return nil, err
			}
			if seen[name] {
				return nil, fmt.Errorf("%w: %s", groups.ErrTeamPlaced, name)
			}
			seen[name] = true
			out[g][i] = name
		}
	}
	return out, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, groups.ErrIncompleteGroups):
		return "incomplete_groups"
	case errors.Is(err, tournament.ErrGroupCount):
		return "group_count"
	case errors.Is(err, dataset.ErrUnknownTeam):
		return "unknown_team"
	case errors.Is(err, groups.ErrTeamPlaced):
		return "duplicate_team"
	case errors.Is(err, groups.ErrBoardNotFound):
		return "board_not_found"
	default:
		return "other"
	}
}
