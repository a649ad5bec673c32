// Package repository keeps simulation outcomes in memory: a title-odds
// leaderboard over many runs and a bounded history of individual results.
package repository

import (
	"context"

	"github.com/okian/copa/internal/domain/knockout"
	"github.com/okian/copa/internal/domain/tournament"
)

// Entry is a leaderboard row.
type Entry struct {
	Rank    int     `json:"rank"`
	Team    string  `json:"team"`
	Titles  int     `json:"titles"`
	Finals  int     `json:"finals"`
	Podiums int     `json:"podiums"`
	Odds    float64 `json:"title_odds"`
}

// Store tallies podium finishes across simulations.
type Store interface {
	// Record folds one finished tournament into the tally.
	Record(ctx context.Context, st knockout.Standings) error

	// Rank returns the current position of a team.
	// Returns ErrNotFound if the team never reached a podium.
	Rank(ctx context.Context, team string) (Entry, error)

	// TopN returns the best n teams by titles, then finals, then podiums.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns how many teams are tallied.
	Count(ctx context.Context) int

	// Runs returns how many tournaments were recorded.
	Runs(ctx context.Context) int64

	// Close stops any background work.
	Close() error
}

var (
	_ Store   = (*TreapStore)(nil)
	_ History = (*ResultStore)(nil)
)

// History keeps recent simulation results by id.
type History interface {
	Save(ctx context.Context, r *tournament.Result) error
	Get(ctx context.Context, id string) (*tournament.Result, error)
	Recent(ctx context.Context, n int) []*tournament.Result
	Len(ctx context.Context) int
}
