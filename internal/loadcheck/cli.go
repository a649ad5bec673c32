package loadcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/copa/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log records to stdout and to logFile. An empty logFile
// gets a timestamped name. The returned func closes the file.
func SetupLogging(logFile string) (func() error, error) {
	if logFile == "" {
		logFile = "loadcheck_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.InitWithWriter(io.MultiWriter(os.Stdout, file)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file.Close, nil
}

// ShowHelp prints usage information.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Copa Load Check
===============

Plays random boards against a running simulator and checks the leaderboard.

Usage:
  go run ./cmd/loadcheck [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -boards int          Random boards to prepare (default 8)
  -simulations int     Simulations to submit (default 500)
  -duplicate-every int Repeat the previous request_id every n requests (default 10, 0 disables)
  -top int             Leaderboard entries to fetch (default 48)
  -workers int         Concurrent workers (default CPU cores * 2)
  -timeout duration    HTTP request timeout (default 30s)
  -seed int            Base seed (default current time)
  -log string          Log file (default: loadcheck_TIMESTAMP.log)
  -help                Show this help message

Examples:
  go run ./cmd/loadcheck -simulations 2000 -workers 16 -url http://localhost:8080
`)
}
