// Package model contains domain models passed between layers.
package model

import "time"

// Job is one simulation run of a batch, queued for a worker.
type Job struct {
	BatchID string     // batch the run belongs to
	Run     int        // run index within the batch, from zero
	Groups  [][]string // the group draw shared by every run of the batch
	Seed    int64      // seed of the run's random source
}

// BatchState is the lifecycle of a batch.
type BatchState string

// Batch states.
const (
	BatchRunning BatchState = "running"
	BatchDone    BatchState = "done"
)

// Batch tracks the progress of a Monte Carlo batch.
type Batch struct {
	ID        string         `json:"id"`
	State     BatchState     `json:"state"`
	Runs      int            `json:"runs"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Seed      int64          `json:"seed"`
	Champions map[string]int `json:"champions"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at,omitempty"`
}

// Finished reports whether every run has been accounted for.
func (b *Batch) Finished() bool {
	return b.Completed+b.Failed >= b.Runs
}

// Odds returns the share of completed runs each team won.
func (b *Batch) Odds() map[string]float64 {
	out := make(map[string]float64, len(b.Champions))
	if b.Completed == 0 {
		return out
	}
	for team, n := range b.Champions {
		out[team] = float64(n) / float64(b.Completed)
	}
	return out
}
