package api

import (
	"context"
	"net/http"

	service "github.com/okian/copa/internal/app"
)

// BatchDependencies starts and reads Monte Carlo batches.
type BatchDependencies interface {
	StartBatch(ctx context.Context, req service.BatchRequest) (service.BatchView, error)
	Batch(ctx context.Context, id string) (service.BatchView, error)
}

// BatchesHandler handles batch requests.
type BatchesHandler struct {
	deps BatchDependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps BatchDependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

type batchRequest struct {
	BoardID string     `json:"board_id,omitempty"`
	Groups  [][]string `json:"groups,omitempty"`
	Runs    int        `json:"runs"`
	Seed    *int64     `json:"seed,omitempty"`
}

// HandlePost handles POST /batches. Runs are queued and the batch is
// returned with 202; progress is polled on GET /batches/{id} or streamed.
func (h *BatchesHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.StartBatch(r.Context(), service.BatchRequest{
		BoardID: req.BoardID,
		Groups:  req.Groups,
		Runs:    req.Runs,
		Seed:    req.Seed,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	w.Header().Set("Location", "/batches/"+v.ID)
	writeJSON(w, http.StatusAccepted, v)
}

// HandleGet handles GET /batches/{id}.
func (h *BatchesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Batch(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
