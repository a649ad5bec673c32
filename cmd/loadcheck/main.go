package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/copa/internal/loadcheck"
)

const (
	defaultBoards         = 8
	defaultSimulations    = 500
	defaultDuplicateEvery = 10
	defaultTopN           = 48
	defaultWorkers        = 2 // multiplier for runtime.NumCPU()
	defaultTimeout        = 30 * time.Second
	defaultRunTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		boards         = flag.Int("boards", defaultBoards, "Random boards to prepare")
		simulations    = flag.Int("simulations", defaultSimulations, "Simulations to submit")
		duplicateEvery = flag.Int("duplicate-every", defaultDuplicateEvery, "Repeat the previous request_id every n requests")
		topN           = flag.Int("top", defaultTopN, "Leaderboard entries to fetch")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent workers")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed           = flag.Int64("seed", time.Now().UnixNano(), "Base seed")
		logFile        = flag.String("log", "", "Log file (default: loadcheck_TIMESTAMP.log)")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadcheck.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := loadcheck.SetupLogging(*logFile)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &loadcheck.Config{
		BaseURL:        *baseURL,
		Boards:         *boards,
		Simulations:    *simulations,
		DuplicateEvery: *duplicateEvery,
		Workers:        *workers,
		Timeout:        *timeout,
		TopN:           *topN,
		Seed:           *seed,
	}

	if _, err := loadcheck.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load check failed: " + err.Error() + "\n")
		cancel()
		_ = closeLog()
		os.Exit(1)
	}
}
