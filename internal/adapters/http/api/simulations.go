package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	service "github.com/okian/copa/internal/app"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/tournament"
)

// SimulationDependencies runs and reads single simulations.
type SimulationDependencies interface {
	Simulate(ctx context.Context, req service.SimulateRequest) (*tournament.Result, bool, error)
	Simulation(ctx context.Context, id string) (*tournament.Result, error)
}

// SimulationsHandler handles simulation requests.
type SimulationsHandler struct {
	deps   SimulationDependencies
	report *template.Template
}

// NewSimulationsHandler creates a new simulations handler.
func NewSimulationsHandler(deps SimulationDependencies) *SimulationsHandler {
	return &SimulationsHandler{deps: deps, report: reportTemplate}
}

// simulationRequest names either a board or explicit groups.
type simulationRequest struct {
	RequestID string     `json:"request_id,omitempty"`
	BoardID   string     `json:"board_id,omitempty"`
	Groups    [][]string `json:"groups,omitempty"`
	Seed      *int64     `json:"seed,omitempty"`
}

type simulationResponse struct {
	Duplicate bool `json:"duplicate"`
	*tournament.Result
}

// HandlePost handles POST /simulations. A new result is answered with 201;
// a repeated request_id returns the first result with 200.
func (h *SimulationsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req simulationRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, err)
		return
	}
	res, dup, err := h.deps.Simulate(r.Context(), service.SimulateRequest{
		RequestID: req.RequestID,
		BoardID:   req.BoardID,
		Groups:    req.Groups,
		Seed:      req.Seed,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/simulations/"+res.ID)
	writeJSON(w, status, simulationResponse{Duplicate: dup, Result: res})
}

// HandleGet handles GET /simulations/{id}.
func (h *SimulationsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Simulation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleReport handles GET /simulations/{id}/report, rendering the group
// tables, every knockout round and the podium as HTML.
func (h *SimulationsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Simulation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.report.Execute(w, res); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

var reportTemplate = template.Must(template.New("report.html").Funcs(template.FuncMap{
	"group": groups.Label,
	"inc":   func(i int) int { return i + 1 },
	"pct":   func(f float64) string { return fmt.Sprintf("%.1f%%", f*100) },
}).ParseFS(staticFS, "static/report.html"))
