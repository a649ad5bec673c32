package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/copa/internal/domain/model"
	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/logger"
	"github.com/okian/copa/pkg/metrics"
)

// progressSteps is roughly how many progress events a batch publishes.
const progressSteps = 100

// BatchRequest describes a Monte Carlo batch over one draw.
type BatchRequest struct {
	BoardID string
	Groups  [][]string
	Runs    int
	Seed    *int64
}

// BatchView is a batch with its current title odds.
type BatchView struct {
	model.Batch
	Odds map[string]float64 `json:"odds"`
}

func viewOf(b *model.Batch) BatchView {
	cp := *b
	cp.Champions = make(map[string]int, len(b.Champions))
	for k, v := range b.Champions {
		cp.Champions[k] = v
	}
	return BatchView{Batch: cp, Odds: cp.Odds()}
}

// StartBatch queues runs simulations of the same draw. Run i is seeded with
// seed+i so a batch is reproducible from its seed.
func (s *Service) StartBatch(ctx context.Context, req BatchRequest) (BatchView, error) {
	if !s.running() {
		return BatchView{}, ErrNotStarted
	}
	if req.Runs < 1 || req.Runs > s.maxBatchRuns {
		return BatchView{}, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidRuns, s.maxBatchRuns)
	}
	draw, err := s.draw(ctx, req.BoardID, req.Groups)
	if err != nil {
		metrics.RecordSimulationRejected(rejectReason(err))
		return BatchView{}, err
	}
	if free := s.jobs.Capacity() - s.jobs.Len(ctx); req.Runs > free {
		return BatchView{}, fmt.Errorf("%w: %d runs requested, %d free", ErrQueueFull, req.Runs, free)
	}

	seed := s.seedOr(req.Seed)
	b := &model.Batch{
		ID:        uuid.NewString(),
		State:     model.BatchRunning,
		Runs:      req.Runs,
		Seed:      seed,
		Champions: make(map[string]int),
		StartedAt: time.Now().UTC(),
	}
	s.batchMu.Lock()
	s.trimBatches()
	s.batches[b.ID] = b
	s.batchOrder = append(s.batchOrder, b.ID)
	s.batchMu.Unlock()
	metrics.RecordBatchStarted()

	for i := 0; i < req.Runs; i++ {
		j := model.Job{BatchID: b.ID, Run: i, Groups: draw, Seed: seed + int64(i)}
		if err := s.jobs.Enqueue(ctx, j); err != nil {
			s.logger.Warn(ctx, "batch truncated; queue rejected run",
				logger.String("batch_id", b.ID),
				logger.Int("run", i),
				logger.Error(err),
			)
			s.batchMu.Lock()
			b.Failed += req.Runs - i
			s.finish(b)
			s.batchMu.Unlock()
			break
		}
	}

	s.logger.Info(ctx, "batch started",
		logger.String("batch_id", b.ID),
		logger.Int("runs", req.Runs),
		logger.Any("seed", seed),
	)

	s.batchMu.RLock()
	v := viewOf(b)
	s.batchMu.RUnlock()
	s.publish("batch_started", v)
	return v, nil
}

// RecordRun folds a finished batch run into its batch and the tally.
func (s *Service) RecordRun(ctx context.Context, j model.Job, res *tournament.Result, err error) {
	s.batchMu.Lock()
	b, ok := s.batches[j.BatchID]
	if !ok {
		s.batchMu.Unlock()
		return
	}
	if err != nil {
		b.Failed++
	} else {
		b.Completed++
		b.Champions[res.Standings.Champion]++
	}
	done := s.finish(b)
	step := b.Runs / progressSteps
	if step < 1 {
		step = 1
	}
	emit := done || (b.Completed+b.Failed)%step == 0
	v := viewOf(b)
	s.batchMu.Unlock()

	if err == nil {
		if terr := s.tally.Record(ctx, res.Standings); terr != nil {
			s.logger.Error(ctx, "tally update failed", logger.String("batch_id", j.BatchID), logger.Error(terr))
		}
	}
	switch {
	case done:
		s.logger.Info(ctx, "batch finished",
			logger.String("batch_id", b.ID),
			logger.Int("completed", v.Completed),
			logger.Int("failed", v.Failed),
		)
		s.publish("batch_done", v)
	case emit:
		s.publish("batch_progress", v)
	}
}

// trimBatches drops the oldest finished batches until there is room for one
// more. Running batches are kept; the job queue bounds how many there are.
// Caller holds batchMu.
func (s *Service) trimBatches() {
	if len(s.batches) < s.batchLimit {
		return
	}
	kept := s.batchOrder[:0]
	for _, id := range s.batchOrder {
		if len(s.batches) >= s.batchLimit && s.batches[id].State == model.BatchDone {
			delete(s.batches, id)
			continue
		}
		kept = append(kept, id)
	}
	s.batchOrder = kept
}

// finish marks b done once every run is accounted for. Caller holds batchMu.
// It reports whether this call finished the batch.
func (s *Service) finish(b *model.Batch) bool {
	if b.State == model.BatchDone || !b.Finished() {
		return false
	}
	b.State = model.BatchDone
	b.EndedAt = time.Now().UTC()
	return true
}

// Batch returns the progress of a batch.
func (s *Service) Batch(ctx context.Context, id string) (BatchView, error) {
	s.batchMu.RLock()
	defer s.batchMu.RUnlock()
	b, ok := s.batches[id]
	if !ok {
		return BatchView{}, ErrBatchNotFound
	}
	return viewOf(b), nil
}
