// Package loadcheck drives a running simulator over HTTP: it prepares random
// boards, fires concurrent simulations with some repeated request ids and
// checks that the leaderboard agrees with what was played.
package loadcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/copa/pkg/logger"
)

// ErrUnhealthy is returned when the service does not answer /healthz.
var ErrUnhealthy = errors.New("service unhealthy")

// Run executes the complete check.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("loadcheck")
	stats := &Stats{StartTime: time.Now(), Champions: make(map[string]int)}
	client := newHTTPClient(config.Timeout)
	config.Boards = max(config.Boards, 1)
	config.Workers = max(config.Workers, 1)

	log.Info(ctx, "starting load check",
		logger.String("baseURL", config.BaseURL),
		logger.Int("boards", config.Boards),
		logger.Int("simulations", config.Simulations),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
	)

	if err := checkServiceHealth(ctx, client, config); err != nil {
		return stats, err
	}

	boards, err := prepareBoards(ctx, client, config)
	if err != nil {
		return stats, fmt.Errorf("board preparation failed: %w", err)
	}
	stats.BoardsReady = len(boards)

	submitSimulations(ctx, client, config, boards, stats)

	var leaderboard []Entry
	if _, err := client.do(ctx, http.MethodGet, config.BaseURL+"/leaderboard?limit="+strconv.Itoa(config.TopN), nil, &leaderboard); err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	stats.LeaderboardEntries = len(leaderboard)

	if err := verifyResults(leaderboard, config.TopN, stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, config *Config) error {
	status, err := client.do(ctx, http.MethodGet, config.BaseURL+"/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// prepareBoards creates boards and fills each with a seeded random draw.
func prepareBoards(ctx context.Context, client *httpClient, config *Config) ([]string, error) {
	ids := make([]string, 0, config.Boards)
	for i := 0; i < config.Boards; i++ {
		var b boardView
		if _, err := client.do(ctx, http.MethodPost, config.BaseURL+"/boards", nil, &b); err != nil {
			return nil, err
		}
		seed := map[string]int64{"seed": config.Seed + int64(i)}
		status, err := client.do(ctx, http.MethodPost, config.BaseURL+"/boards/"+b.ID+"/random", seed, &b)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK || !b.Complete {
			return nil, fmt.Errorf("board %s not filled (status %d)", b.ID, status)
		}
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// requestID returns the id of request i. Every DuplicateEvery-th request
// reuses the id of the one before it.
func requestID(config *Config, i int) string {
	if config.DuplicateEvery > 0 && i > 0 && i%config.DuplicateEvery == 0 {
		i--
	}
	return fmt.Sprintf("loadcheck-%d-%d", config.Seed, i)
}

// submitSimulations posts simulations concurrently using a worker pool.
func submitSimulations(ctx context.Context, client *httpClient, config *Config, boards []string, stats *Stats) {
	var (
		submitted, created, duplicate, failed, throttled int64
		mu                                               sync.Mutex
	)

	jobs := make(chan int, config.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				req := simulationRequest{
					RequestID: requestID(config, i),
					BoardID:   boards[i%len(boards)],
					Seed:      config.Seed + int64(i),
				}
				var ack simulationAck
				status, err := client.do(ctx, http.MethodPost, config.BaseURL+"/simulations", req, &ack)
				atomic.AddInt64(&submitted, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case status == http.StatusCreated:
					atomic.AddInt64(&created, 1)
					mu.Lock()
					stats.Champions[ack.Standings.Champion]++
					mu.Unlock()
				case status == http.StatusOK && ack.Duplicate:
					atomic.AddInt64(&duplicate, 1)
				case status == http.StatusTooManyRequests:
					atomic.AddInt64(&throttled, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < config.Simulations; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()

	stats.SimulationsSubmitted = int(submitted)
	stats.SimulationsCreated = int(created)
	stats.SimulationsDuplicate = int(duplicate)
	stats.SimulationsFailed = int(failed)
	stats.Throttled = int(throttled)
}

// displayFinalStats logs the final statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.SimulationsSubmitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("boards", stats.BoardsReady),
		logger.Int("submitted", stats.SimulationsSubmitted),
		logger.Int("created", stats.SimulationsCreated),
		logger.Int("duplicate", stats.SimulationsDuplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.SimulationsFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("simulationsPerSecond", perSecond),
	)
}
