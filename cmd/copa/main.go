package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/copa/internal/adapters/archive"
	"github.com/okian/copa/internal/adapters/http/api"
	"github.com/okian/copa/internal/adapters/http/site"
	"github.com/okian/copa/internal/adapters/http/stream"
	"github.com/okian/copa/internal/adapters/http/swagger"
	app "github.com/okian/copa/internal/app"
	"github.com/okian/copa/internal/config"
	"github.com/okian/copa/internal/domain/dataset"
	"github.com/okian/copa/pkg/logger"
	"github.com/okian/copa/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// System metrics are collected by updateSystemMetrics on our registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "simulator exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	if err := loadDotEnv(".env"); err != nil {
		log.Warn(ctx, "ignoring unreadable .env file", logger.Error(err))
	}

	// defaults -> optional file (COPA_CONFIG) -> COPA_ env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	ds, err := dataset.Load(ctx, cfg.DatasetPath, dataset.WithDefaultScore(cfg.DefaultPerformanceScore))
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded",
		logger.String("path", cfg.DatasetPath),
		logger.Int("teams", len(ds.Names())),
		logger.Int("predictions", ds.PredictionCount()),
	)

	broadcaster := stream.New(stream.WithLogger(log.Named("stream")))
	defer broadcaster.Close()

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithHistorySize(cfg.HistorySize),
		app.WithMaxBatchRuns(cfg.MaxBatchRuns),
		app.WithBatchLimit(cfg.BatchLimit),
		app.WithSeed(cfg.Seed),
		app.WithBroadcaster(broadcaster),
	}
	store, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, app.WithArchive(store))
	}

	svc := app.New(ds, opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go every(ctx, systemMetricsInterval, updateSystemMetrics)
	go every(ctx, serviceMetricsInterval, func() { updateServiceMetrics(svc) })

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc, broadcaster),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Event streams never finish on their own; drop them before draining.
	broadcaster.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// openArchive opens and migrates the configured archive, or returns nil when
// none is configured.
func openArchive(ctx context.Context, cfg *config.Config) (*archive.Archive, error) {
	store, err := archive.Open(ctx, cfg.ArchiveDriver, cfg.ArchiveDSN)
	if errors.Is(err, archive.ErrDisabled) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Get().Info(ctx, "archive enabled", logger.String("driver", store.Driver()))
	return store, nil
}

// newMux registers every route of the simulator.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service, broadcaster *stream.Broadcaster) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	broadcaster.Register(ctx, mux)
	api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// every calls fn each interval until ctx ends.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats already
// refreshes the queue length and leaderboard gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	capacity, okCap := stats["queueSize"].(int)
	queueLen, okLen := stats["queueLength"].(int)
	if okCap && capacity > 0 {
		metrics.UpdateQueueCapacity(capacity)
		if okLen {
			metrics.UpdateQueueUtilization(float64(queueLen) / float64(capacity))
		}
	}
}
