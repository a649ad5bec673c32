package groups

import (
	"sync"

	"github.com/google/uuid"
)

// Registry keeps boards addressable by id.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board
	limit  int
	order  []string
}

// NewRegistry returns a registry holding at most limit boards; the oldest
// board is dropped when the limit is reached. limit <= 0 means unbounded.
func NewRegistry(limit int) *Registry {
	return &Registry{
		boards: make(map[string]*Board),
		limit:  limit,
	}
}

// Create registers a new empty board and returns its id.
func (r *Registry) Create() (string, *Board) {
	id := uuid.NewString()
	b := NewBoard()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.limit > 0 && len(r.order) >= r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.boards, oldest)
	}
	r.boards[id] = b
	r.order = append(r.order, id)
	return id, b
}

// Get returns the board with id.
func (r *Registry) Get(id string) (*Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[id]
	if !ok {
		return nil, ErrBoardNotFound
	}
	return b, nil
}

// Len returns the number of boards held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}
