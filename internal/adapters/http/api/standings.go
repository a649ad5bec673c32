package api

import (
	"context"
	"net/http"
	"strings"
)

const defaultLeaderboardLimit = 10

// StandingsDependencies reads the title tally.
type StandingsDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, team string) (Entry, error)
}

// StandingsHandler serves the leaderboard and per-team ranks.
type StandingsHandler struct {
	deps     StandingsDependencies
	maxLimit int
}

// NewStandingsHandler caps leaderboard limits at maxLimit.
func NewStandingsHandler(deps StandingsDependencies, maxLimit int) *StandingsHandler {
	return &StandingsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleLeaderboard handles GET /leaderboard?limit=N.
func (h *StandingsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, err := limitParam(r, defaultLeaderboardLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleRank handles GET /rank/{team}. Team names are matched
// case-insensitively by the tally.
func (h *StandingsHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(r.PathValue("team"))
	if team == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	entry, err := h.deps.Rank(r.Context(), team)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
