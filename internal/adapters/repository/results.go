package repository

import (
	"context"
	"sync"

	"github.com/okian/copa/internal/domain/tournament"
)

// ResultStore keeps the most recent simulation results, evicting the oldest
// once the limit is reached.
type ResultStore struct {
	mu    sync.RWMutex
	byID  map[string]*tournament.Result
	order []string
	limit int
}

// NewResultStore returns an empty result history.
func NewResultStore(opts ...ResultOption) *ResultStore {
	s := &ResultStore{
		byID:  make(map[string]*tournament.Result),
		limit: 256,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores r under its id. Saving an existing id replaces the result.
func (s *ResultStore) Save(ctx context.Context, r *tournament.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; !ok {
		if s.limit > 0 && len(s.order) >= s.limit {
			delete(s.byID, s.order[0])
			s.order = s.order[1:]
		}
		s.order = append(s.order, r.ID)
	}
	s.byID[r.ID] = r
	return nil
}

// Get returns the result with id.
func (s *ResultStore) Get(ctx context.Context, id string) (*tournament.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Recent returns up to n results, newest first.
func (s *ResultStore) Recent(ctx context.Context, n int) []*tournament.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.order) || n <= 0 {
		n = len(s.order)
	}
	out := make([]*tournament.Result, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out
}

// Len returns how many results are kept.
func (s *ResultStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
