package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/copa/internal/domain/dataset"
)

const suggestionLimit = 5

// TeamDependencies exposes the team list and name resolution.
type TeamDependencies interface {
	Teams(ctx context.Context) []dataset.Team
	ResolveTeam(ctx context.Context, query string) (string, error)
	SuggestTeams(ctx context.Context, query string, limit int) []string
}

// TeamsHandler handles team requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// HandleList handles GET /teams.
func (h *TeamsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Teams(r.Context()))
}

type resolveResponse struct {
	Query       string   `json:"query"`
	Team        string   `json:"team,omitempty"`
	Suggestions []string `json:"suggestions"`
}

// HandleResolve handles GET /teams/resolve?q=name.
func (h *TeamsHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	resp := resolveResponse{
		Query:       q,
		Suggestions: h.deps.SuggestTeams(r.Context(), q, suggestionLimit),
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	team, err := h.deps.ResolveTeam(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err)
		return
	}
	resp.Team = team
	writeJSON(w, http.StatusOK, resp)
}
