package loadcheck

import "time"

// Config holds configuration for a load check run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Boards         int           // Number of randomly filled boards to play
	Simulations    int           // Number of POST /simulations requests
	DuplicateEvery int           // Every n-th request repeats the previous request_id; 0 disables
	Workers        int           // Number of concurrent workers
	Timeout        time.Duration // HTTP request timeout
	TopN           int           // Leaderboard entries to fetch
	Seed           int64         // Base seed for board fills and simulations
}

// Entry is a leaderboard row.
type Entry struct {
	Rank    int    `json:"rank"`
	Team    string `json:"team"`
	Titles  int    `json:"titles"`
	Finals  int    `json:"finals"`
	Podiums int    `json:"podiums"`
}

type boardView struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
}

type simulationAck struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
	Standings struct {
		Champion string `json:"champion"`
	} `json:"standings"`
}

type simulationRequest struct {
	RequestID string `json:"request_id"`
	BoardID   string `json:"board_id"`
	Seed      int64  `json:"seed"`
}

// Stats holds run statistics.
type Stats struct {
	BoardsReady          int
	SimulationsSubmitted int
	SimulationsCreated   int
	SimulationsDuplicate int
	SimulationsFailed    int
	Throttled            int
	LeaderboardEntries   int
	Champions            map[string]int
	StartTime            time.Time
	EndTime              time.Time
	Duration             time.Duration
}
