package service

import (
	"context"
	"math/rand"

	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/pkg/logger"
)

// BoardView is a snapshot of a group board.
type BoardView struct {
	ID        string     `json:"id"`
	Groups    [][]string `json:"groups"`
	Labels    []string   `json:"labels"`
	Picked    string     `json:"picked,omitempty"`
	Available []string   `json:"available"`
	Complete  bool       `json:"complete"`
}

func (s *Service) view(id string, b *groups.Board) BoardView {
	labels := make([]string, groups.GroupCount)
	for i := range labels {
		labels[i] = groups.Label(i)
	}
	return BoardView{
		ID:        id,
		Groups:    b.Groups(),
		Labels:    labels,
		Picked:    b.Picked(),
		Available: b.Available(s.ds.Names()),
		Complete:  b.Validate() == nil,
	}
}

// CreateBoard registers an empty board.
func (s *Service) CreateBoard(ctx context.Context) BoardView {
	id, b := s.boards.Create()
	s.logger.Debug(ctx, "board created", logger.String("board_id", id))
	return s.view(id, b)
}

// Board returns the current state of a board.
func (s *Service) Board(ctx context.Context, id string) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	return s.view(id, b), nil
}

// Assign places a team into a slot. The name is resolved against the
// dataset first, so case and small typos are tolerated.
func (s *Service) Assign(ctx context.Context, id, team string, group, slot int) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	name, err := s.ds.Resolve(team)
	if err != nil {
		return BoardView{}, err
	}
	if err := b.Assign(name, group, slot); err != nil {
		return BoardView{}, err
	}
	return s.view(id, b), nil
}

// Pick starts dragging a team. An empty team cancels the drag.
func (s *Service) Pick(ctx context.Context, id, team string) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	if team == "" {
		b.CancelPick()
		return s.view(id, b), nil
	}
	name, err := s.ds.Resolve(team)
	if err != nil {
		return BoardView{}, err
	}
	b.Pick(name)
	return s.view(id, b), nil
}

// Drop places the dragged team into a slot.
func (s *Service) Drop(ctx context.Context, id string, group, slot int) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	if err := b.Drop(group, slot); err != nil {
		return BoardView{}, err
	}
	return s.view(id, b), nil
}

// ClearSlot empties one slot.
func (s *Service) ClearSlot(ctx context.Context, id string, group, slot int) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	if err := b.Clear(group, slot); err != nil {
		return BoardView{}, err
	}
	return s.view(id, b), nil
}

// RandomFill fills every empty slot with a random unplaced team. A nil
// seed draws one from the service source.
func (s *Service) RandomFill(ctx context.Context, id string, seed *int64) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	sd := s.seedOr(seed)
	n := b.RandomFill(s.ds.Names(), rand.New(rand.NewSource(sd))) //nolint:gosec // simulation randomness
	s.logger.Debug(ctx, "board randomly filled", logger.String("board_id", id), logger.Int("filled", n))
	return s.view(id, b), nil
}

// ResetBoard empties a board.
func (s *Service) ResetBoard(ctx context.Context, id string) (BoardView, error) {
	b, err := s.boards.Get(id)
	if err != nil {
		return BoardView{}, err
	}
	b.Reset()
	return s.view(id, b), nil
}

func (s *Service) seedOr(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return s.nextSeed()
}
