package api

import (
	"context"
	"net/http"

	service "github.com/okian/copa/internal/app"
)

// BoardDependencies edits group boards.
type BoardDependencies interface {
	CreateBoard(ctx context.Context) service.BoardView
	Board(ctx context.Context, id string) (service.BoardView, error)
	Assign(ctx context.Context, id, team string, group, slot int) (service.BoardView, error)
	Pick(ctx context.Context, id, team string) (service.BoardView, error)
	Drop(ctx context.Context, id string, group, slot int) (service.BoardView, error)
	ClearSlot(ctx context.Context, id string, group, slot int) (service.BoardView, error)
	RandomFill(ctx context.Context, id string, seed *int64) (service.BoardView, error)
	ResetBoard(ctx context.Context, id string) (service.BoardView, error)
}

// BoardsHandler handles board requests.
type BoardsHandler struct {
	deps BoardDependencies
}

// NewBoardsHandler creates a new boards handler.
func NewBoardsHandler(deps BoardDependencies) *BoardsHandler {
	return &BoardsHandler{deps: deps}
}

// slotRequest addresses one slot; groups and slots are zero based.
type slotRequest struct {
	Team  string `json:"team,omitempty"`
	Group int    `json:"group"`
	Slot  int    `json:"slot"`
}

type pickRequest struct {
	Team string `json:"team"`
}

type randomRequest struct {
	Seed *int64 `json:"seed,omitempty"`
}

func (h *BoardsHandler) respond(w http.ResponseWriter, status int, v service.BoardView, err error) {
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, status, v)
}

// HandleCreate handles POST /boards.
func (h *BoardsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, h.deps.CreateBoard(r.Context()))
}

// HandleGet handles GET /boards/{id}.
func (h *BoardsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Board(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, v, err)
}

// HandleAssign handles POST /boards/{id}/assign with {"team","group","slot"}.
func (h *BoardsHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.Assign(r.Context(), r.PathValue("id"), req.Team, req.Group, req.Slot)
	h.respond(w, http.StatusOK, v, err)
}

// HandlePick handles POST /boards/{id}/pick. An empty team drops the current
// pick.
func (h *BoardsHandler) HandlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.Pick(r.Context(), r.PathValue("id"), req.Team)
	h.respond(w, http.StatusOK, v, err)
}

// HandleDrop handles POST /boards/{id}/drop, placing the picked team.
func (h *BoardsHandler) HandleDrop(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.Drop(r.Context(), r.PathValue("id"), req.Group, req.Slot)
	h.respond(w, http.StatusOK, v, err)
}

// HandleClear handles POST /boards/{id}/clear.
func (h *BoardsHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	var req slotRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.ClearSlot(r.Context(), r.PathValue("id"), req.Group, req.Slot)
	h.respond(w, http.StatusOK, v, err)
}

// HandleRandom handles POST /boards/{id}/random with an optional seed.
func (h *BoardsHandler) HandleRandom(w http.ResponseWriter, r *http.Request) {
	var req randomRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeFailure(w, err)
		return
	}
	v, err := h.deps.RandomFill(r.Context(), r.PathValue("id"), req.Seed)
	h.respond(w, http.StatusOK, v, err)
}

// HandleReset handles POST /boards/{id}/reset.
func (h *BoardsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.ResetBoard(r.Context(), r.PathValue("id"))
	h.respond(w, http.StatusOK, v, err)
}
