package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidRuns   = errors.New("invalid number of runs")
	ErrQueueFull     = errors.New("batch queue is full")
	ErrBatchNotFound = errors.New("batch not found")
	ErrNoDraw        = errors.New("either board_id or groups is required")
)
