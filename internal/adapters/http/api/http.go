// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/okian/copa/internal/adapters/archive"
	"github.com/okian/copa/internal/adapters/repository"
	service "github.com/okian/copa/internal/app"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/tournament"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider
	TeamDependencies
	BoardDependencies
	SimulationDependencies
	BatchDependencies
	StandingsDependencies
	ArchiveDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	opsHandler         *opsHandler
	teamsHandler       *TeamsHandler
	boardsHandler      *BoardsHandler
	simulationsHandler *SimulationsHandler
	batchesHandler     *BatchesHandler
	standingsHandler   *StandingsHandler
	archiveHandler     *ArchiveHandler
	dashboardHandler   *dashboardHandler

	limiter *rate.Limiter
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit  int
	rateLimit rate.Limit
	burst     int
}

// WithMaxLimit caps the limit query parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRateLimit throttles the endpoints that start simulations. A zero rps
// disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *serverConfig) {
		c.rateLimit = rate.Limit(rps)
		c.burst = burst
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{
		opsHandler:         newOpsHandler(deps),
		teamsHandler:       NewTeamsHandler(deps),
		boardsHandler:      NewBoardsHandler(deps),
		simulationsHandler: NewSimulationsHandler(deps),
		batchesHandler:     NewBatchesHandler(deps),
		standingsHandler:   NewStandingsHandler(deps, cfg.maxLimit),
		archiveHandler:     NewArchiveHandler(deps, cfg.maxLimit),
		dashboardHandler:   newDashboardHandler(),
	}
	if cfg.rateLimit > 0 {
		burst := cfg.burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(cfg.rateLimit, burst)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.opsHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.opsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /teams", MetricsMiddleware(s.teamsHandler.HandleList, "teams"))
	mux.HandleFunc("GET /teams/resolve", MetricsMiddleware(s.teamsHandler.HandleResolve, "teams_resolve"))

	b := s.boardsHandler
	mux.HandleFunc("POST /boards", MetricsMiddleware(b.HandleCreate, "boards_create"))
	mux.HandleFunc("GET /boards/{id}", MetricsMiddleware(b.HandleGet, "boards_get"))
	mux.HandleFunc("POST /boards/{id}/assign", MetricsMiddleware(b.HandleAssign, "boards_assign"))
	mux.HandleFunc("POST /boards/{id}/pick", MetricsMiddleware(b.HandlePick, "boards_pick"))
	mux.HandleFunc("POST /boards/{id}/drop", MetricsMiddleware(b.HandleDrop, "boards_drop"))
	mux.HandleFunc("POST /boards/{id}/clear", MetricsMiddleware(b.HandleClear, "boards_clear"))
	mux.HandleFunc("POST /boards/{id}/random", MetricsMiddleware(b.HandleRandom, "boards_random"))
	mux.HandleFunc("POST /boards/{id}/reset", MetricsMiddleware(b.HandleReset, "boards_reset"))

	mux.HandleFunc("POST /simulations", MetricsMiddleware(
		RateLimitMiddleware(s.limiter, s.simulationsHandler.HandlePost, "simulations"), "simulations"))
	mux.HandleFunc("GET /simulations/{id}", MetricsMiddleware(s.simulationsHandler.HandleGet, "simulations_get"))
	mux.HandleFunc("GET /simulations/{id}/report", MetricsMiddleware(s.simulationsHandler.HandleReport, "simulations_report"))

	mux.HandleFunc("POST /batches", MetricsMiddleware(
		RateLimitMiddleware(s.limiter, s.batchesHandler.HandlePost, "batches"), "batches"))
	mux.HandleFunc("GET /batches/{id}", MetricsMiddleware(s.batchesHandler.HandleGet, "batches_get"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.standingsHandler.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{team}", MetricsMiddleware(s.standingsHandler.HandleRank, "rank"))
	mux.HandleFunc("GET /archive", MetricsMiddleware(s.archiveHandler.HandleGetArchive, "archive"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates domain errors to status codes.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, groups.ErrIncompleteGroups):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Code: "incomplete_groups", Message: groups.IncompleteGroupsMessage})
	case errors.Is(err, dataset.ErrUnknownTeam):
		writeError(w, http.StatusBadRequest, "unknown_team", err)
	case errors.Is(err, ErrLimitExceeded):
		writeError(w, http.StatusBadRequest, "limit_exceeded", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, groups.ErrOutOfRange),
		errors.Is(err, tournament.ErrGroupCount),
		errors.Is(err, service.ErrInvalidRuns),
		errors.Is(err, service.ErrNoDraw):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, groups.ErrSlotFilled),
		errors.Is(err, groups.ErrTeamPlaced),
		errors.Is(err, groups.ErrNothingPicked):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, groups.ErrBoardNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrBatchNotFound),
		errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err)
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, archive.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON body into v. An empty body is accepted when
// optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// limitParam parses ?limit=, applying def when absent.
func limitParam(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		if def > maxLimit {
			return maxLimit, nil
		}
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("%w: limit must not exceed %d", ErrLimitExceeded, maxLimit)
	}
	return n, nil
}
