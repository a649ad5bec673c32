// Package tournament chains the group ranking, the opening-round draw and the
// knockout into one simulation run.
package tournament

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/copa/internal/domain/bracket"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/knockout"
	"github.com/okian/copa/internal/domain/qualification"
)

// Result is a finished simulation.
type Result struct {
	ID            string               `json:"id"`
	Seed          int64                `json:"seed"`
	Groups        [][]string           `json:"groups"`
	Qualification qualification.Result `json:"qualification"`
	Draw          []bracket.Pairing    `json:"draw"`
	Rounds        []knockout.Round     `json:"rounds"`
	Standings     knockout.Standings   `json:"standings"`
	CreatedAt     time.Time            `json:"created_at"`
	Took          time.Duration        `json:"took_ns"`
}

// Simulator runs tournaments against a fixed dataset. It holds no per-run
// state and is safe for concurrent use when each caller brings its own rng.
type Simulator struct {
	ds        *dataset.Dataset
	predictor knockout.Predictor
	onMatch   knockout.MatchHook
	now       func() time.Time
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithMatchHook is passed to every knockout reducer.
func WithMatchHook(h knockout.MatchHook) Option {
	return func(s *Simulator) { s.onMatch = h }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// NewSimulator returns a simulator scoring teams from ds and resolving
// matches with p.
func NewSimulator(ds *dataset.Dataset, p knockout.Predictor, opts ...Option) *Simulator {
	s := &Simulator{ds: ds, predictor: p, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate plays one tournament. The draw is validated before any match is
// resolved.
func (s *Simulator) Simulate(draw [][]string, rng *rand.Rand) (*Result, error) {
	if err := validate(draw); err != nil {
		return nil, err
	}
	start := s.now()

	q := qualification.Rank(draw, s.ds.PerformanceScore)
	pairs := bracket.Pair(q.Qualified(), rng)

	opts := []knockout.Option{knockout.WithOpeningRound()}
	if s.onMatch != nil {
		opts = append(opts, knockout.WithMatchHook(s.onMatch))
	}
	r, err := knockout.NewReducer(s.predictor, bracket.Teams(pairs), opts...)
	if err != nil {
		return nil, fmt.Errorf("knockout: %w", err)
	}
	standings, err := r.Run()
	if err != nil {
		return nil, fmt.Errorf("knockout: %w", err)
	}

	snapshot := make([][]string, len(draw))
	for i, g := range draw {
		snapshot[i] = append([]string(nil), g...)
	}
	return &Result{
		ID:            uuid.NewString(),
		Groups:        snapshot,
		Qualification: q,
		Draw:          pairs,
		Rounds:        r.Rounds(),
		Standings:     standings,
		CreatedAt:     start.UTC(),
		Took:          s.now().Sub(start),
	}, nil
}

func validate(draw [][]string) error {
	if len(draw) != groups.GroupCount {
		return fmt.Errorf("%w: got %d groups", ErrGroupCount, len(draw))
	}
	for i, g := range draw {
		if len(g) != groups.SlotsPerGroup {
			return fmt.Errorf("%w: %s has %d teams", ErrGroupCount, groups.Label(i), len(g))
		}
		for _, team := range g {
			if team == "" {
				return groups.ErrIncompleteGroups
			}
		}
	}
	return nil
}
