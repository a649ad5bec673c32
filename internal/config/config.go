// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file and COPA_* env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatasetPath points at the teams/predictions document (JSON or YAML).
	DatasetPath string `koanf:"dataset_path"`

	// DefaultPerformanceScore is used for teams missing from the dataset.
	DefaultPerformanceScore float64 `koanf:"default_performance_score"`

	// QueueSize bounds the in-memory batch run queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the request_id idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// HistorySize bounds how many simulation results stay addressable by id.
	HistorySize int `koanf:"history_size"`

	// MaxBatchRuns caps the runs a single batch may request.
	MaxBatchRuns int `koanf:"max_batch_runs"`

	// BatchLimit bounds how many batch records stay addressable by id.
	BatchLimit int `koanf:"batch_limit"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit and GET /archive?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Seed seeds the service random source; 0 seeds from the clock.
	Seed int64 `koanf:"seed"`

	// RateLimitRPS and RateLimitBurst throttle simulation-starting endpoints.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// ArchiveDriver selects the SQL archive: "", "sqlite3" or "postgres".
	ArchiveDriver string `koanf:"archive_driver"`

	// ArchiveDSN is the driver specific connection string.
	ArchiveDSN string `koanf:"archive_dsn"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		DatasetPath:             "data/2026_worldcup_COMPLETE.json",
		DefaultPerformanceScore: 2.5,
		QueueSize:               10_000,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              10_000,
		HistorySize:             256,
		MaxBatchRuns:            10_000,
		BatchLimit:              1_000,
		MaxLeaderboardLimit:     100,
		Seed:                    0,
		RateLimitRPS:            20,
		RateLimitBurst:          40,
		ArchiveDriver:           "",
		ArchiveDSN:              "",
	}
}
