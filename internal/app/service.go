// Package service wires the bracket simulator together: the dataset, the
// group boards, single simulations, queued Monte Carlo batches and the
// stores that keep their outcomes.
package service

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/okian/copa/internal/adapters/archive"
	"github.com/okian/copa/internal/adapters/mq/queue"
	"github.com/okian/copa/internal/adapters/mq/worker"
	"github.com/okian/copa/internal/adapters/repository"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/internal/domain/dedupe"
	"github.com/okian/copa/internal/domain/groups"
	"github.com/okian/copa/internal/domain/knockout"
	"github.com/okian/copa/internal/domain/model"
	"github.com/okian/copa/internal/domain/prediction"
	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/logger"
	"github.com/okian/copa/pkg/metrics"
)

// Broadcaster pushes live events to subscribers.
type Broadcaster interface {
	Publish(event string, payload any)
}

// Archiver persists finished simulations.
type Archiver interface {
	Save(ctx context.Context, r *tournament.Result) error
	Load(ctx context.Context, id string) (*tournament.Result, error)
	Recent(ctx context.Context, limit int) ([]archive.Record, error)
	ChampionCounts(ctx context.Context) ([]archive.ChampionCount, error)
}

// Service implements the API dependencies for the simulator.
type Service struct {
	mu sync.RWMutex

	ds        *dataset.Dataset
	predictor *prediction.Predictor
	simulator *tournament.Simulator
	boards    *groups.Registry
	deduper   dedupe.Deduper
	history   repository.History
	tally     repository.Store
	jobs      queue.Queue
	pool      *worker.Pool

	broadcaster Broadcaster
	archive     Archiver

	batchMu    sync.RWMutex
	batches    map[string]*model.Batch
	batchOrder []string

	rngMu sync.Mutex
	rng   *rand.Rand

	workerCount  int
	queueSize    int
	dedupeSize   int
	historySize  int
	boardLimit   int
	maxBatchRuns int
	batchLimit   int
	seed         int64

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many request ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithHistorySize sets how many simulation results are kept in memory.
func WithHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.historySize = size
		}
	}
}

// WithBoardLimit sets how many group boards are kept.
func WithBoardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.boardLimit = n
		}
	}
}

// WithMaxBatchRuns caps the number of runs in one batch.
func WithMaxBatchRuns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchRuns = n
		}
	}
}

// WithBatchLimit sets how many batch records are kept. Finished batches are
// dropped oldest first once the limit is reached.
func WithBatchLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchLimit = n
		}
	}
}

// WithSeed fixes the seed every run seed is derived from. Zero seeds from
// the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBroadcaster publishes batch progress to b.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) {
		s.broadcaster = b
	}
}

// WithArchive persists every single simulation to a.
func WithArchive(a Archiver) Option {
	return func(s *Service) {
		s.archive = a
	}
}

// New constructs a Service over ds.
func New(ds *dataset.Dataset, opts ...Option) *Service {
	s := &Service{
		ds:           ds,
		workerCount:  runtime.NumCPU(),
		queueSize:    10_000,
		dedupeSize:   10_000,
		historySize:  256,
		boardLimit:   1_000,
		maxBatchRuns: 10_000,
		batchLimit:   1_000,
		batches:      make(map[string]*model.Batch),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(s.seed)) //nolint:gosec // simulation randomness

	s.predictor = prediction.New(ds,
		prediction.WithMissingHook(s.onMissingPrediction),
		prediction.WithLookupHook(func(src prediction.Source) {
			metrics.RecordPredictionLookup(string(src))
		}),
	)
	s.simulator = tournament.NewSimulator(ds, s.predictor,
		tournament.WithMatchHook(func(stage knockout.Stage, _ knockout.Match) {
			metrics.RecordMatchResolved(stage.String())
		}),
	)
	s.boards = groups.NewRegistry(s.boardLimit)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.history = repository.NewResultStore(repository.WithHistorySize(s.historySize))
	return s
}

// onMissingPrediction makes data gaps visible.
func (s *Service) onMissingPrediction(team1, team2 string) {
	metrics.RecordPredictionFallback()
	s.logger.Warn(context.Background(), "no prediction for match; falling back to performance score",
		logger.String("team1", team1),
		logger.String("team2", team2),
	)
}

// Start launches the tally store and the batch workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting simulator service...")

	s.tally = repository.NewTreapStore(ctx)
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.jobs, s.simulator, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "simulator service started",
		logger.Int("teams", len(s.ds.Names())),
		logger.Int("predictions", s.ds.PredictionCount()),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the workers and stops the tally store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping simulator service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	_ = s.tally.Close()

	s.started = false
	s.logger.Info(ctx, "simulator service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// nextSeed draws a run seed from the service source.
func (s *Service) nextSeed() int64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Int63()
}

func (s *Service) publish(event string, payload any) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(event, payload)
	metrics.RecordStreamBroadcast(event)
}

// Teams returns the dataset teams in document order.
func (s *Service) Teams(ctx context.Context) []dataset.Team {
	return s.ds.Teams()
}

// ResolveTeam maps a loosely typed name to a dataset team.
func (s *Service) ResolveTeam(ctx context.Context, query string) (string, error) {
	return s.ds.Resolve(query)
}

// SuggestTeams returns up to limit close matches for query.
func (s *Service) SuggestTeams(ctx context.Context, query string, limit int) []string {
	return s.ds.Suggest(query, limit)
}

// TopN returns the best n teams across every simulation.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	return s.tally.TopN(ctx, n)
}

// Rank returns the position of a team in the title tally.
func (s *Service) Rank(ctx context.Context, team string) (repository.Entry, error) {
	if !s.running() {
		return repository.Entry{}, ErrNotStarted
	}
	if resolved, err := s.ds.Resolve(team); err == nil {
		team = resolved
	}
	return s.tally.Rank(ctx, team)
}

// ArchiveSummary is the archived view of past simulations.
type ArchiveSummary struct {
	Recent    []archive.Record        `json:"recent"`
	Champions []archive.ChampionCount `json:"champions"`
}

// Archive returns the most recent archived simulations and champion counts.
func (s *Service) Archive(ctx context.Context, limit int) (ArchiveSummary, error) {
	if s.archive == nil {
		return ArchiveSummary{}, archive.ErrDisabled
	}
	recent, err := s.archive.Recent(ctx, limit)
	if err != nil {
		return ArchiveSummary{}, err
	}
	champs, err := s.archive.ChampionCounts(ctx)
	if err != nil {
		return ArchiveSummary{}, err
	}
	return ArchiveSummary{Recent: recent, Champions: champs}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"teams":        len(s.ds.Names()),
		"predictions":  s.ds.PredictionCount(),
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.deduper.Size(),
		"boards":       s.boards.Len(),
		"simulations":  s.history.Len(ctx),
		"archive":      s.archive != nil,
		"maxBatchRuns": s.maxBatchRuns,
	}

	s.batchMu.RLock()
	stats["batches"] = len(s.batches)
	s.batchMu.RUnlock()

	if s.started {
		queueLen := s.jobs.Len(ctx)
		stats["queueLength"] = queueLen
		stats["tallyTeams"] = s.tally.Count(ctx)
		stats["tallyRuns"] = s.tally.Runs(ctx)

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateLeaderboard(s.tally.Count(ctx), int(s.tally.Runs(ctx)))
	}
	return stats
}
