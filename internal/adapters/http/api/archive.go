package api

import (
	"context"
	"net/http"

	service "github.com/okian/copa/internal/app"
)

const defaultArchiveLimit = 20

// ArchiveDependencies reads archived simulations.
type ArchiveDependencies interface {
	Archive(ctx context.Context, limit int) (service.ArchiveSummary, error)
}

// ArchiveHandler handles archive requests.
type ArchiveHandler struct {
	deps     ArchiveDependencies
	maxLimit int
}

// NewArchiveHandler creates a new archive handler.
func NewArchiveHandler(deps ArchiveDependencies, maxLimit int) *ArchiveHandler {
	return &ArchiveHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetArchive handles GET /archive?limit=N. It answers 503 when no
// archive is configured.
func (h *ArchiveHandler) HandleGetArchive(w http.ResponseWriter, r *http.Request) {
	n, err := limitParam(r, defaultArchiveLimit, h.maxLimit)
	if err != nil {
		writeFailure(w, err)
		return
	}
	sum, err := h.deps.Archive(r.Context(), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
