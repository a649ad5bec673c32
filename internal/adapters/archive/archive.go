// Package archive persists finished simulations to SQL. Both sqlite3 and
// postgres are supported; queries use $n placeholders in order, which both
// drivers accept.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/okian/copa/internal/domain/tournament"
	"github.com/okian/copa/pkg/metrics"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Record is an archived simulation summary.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Champion  string    `json:"champion"`
	RunnerUp  string    `json:"runner_up"`
	Third     string    `json:"third"`
}

// ChampionCount is how often a team won across archived runs.
type ChampionCount struct {
	Team   string `json:"team"`
	Titles int    `json:"titles"`
}

// Archive wraps the SQL connection.
type Archive struct {
	db     *sql.DB
	driver string
}

// Open connects to the database. An empty driver returns ErrDisabled.
func Open(ctx context.Context, driver, dsn string) (*Archive, error) {
	switch driver {
	case "":
		return nil, ErrDisabled
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// Every sqlite connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &Archive{db: db, driver: driver}, nil
}

// Driver returns the database driver name.
func (a *Archive) Driver() string { return a.driver }

// Migrate creates the schema if it does not exist.
func (a *Archive) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS simulations (
			id         TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL,
			champion   TEXT NOT NULL,
			runner_up  TEXT NOT NULL,
			third      TEXT NOT NULL,
			payload    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_champion ON simulations(champion)`,
		`CREATE INDEX IF NOT EXISTS idx_simulations_created_at ON simulations(created_at)`,
	}
	for _, q := range queries {
		if _, err := a.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Save writes a finished simulation.
func (a *Archive) Save(ctx context.Context, r *tournament.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("encode %s: %w", r.ID, err)
	}
	const q = `INSERT INTO simulations (id, created_at, champion, runner_up, third, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = a.db.ExecContext(ctx, q,
		r.ID, r.CreatedAt.UTC(), r.Standings.Champion, r.Standings.RunnerUp, r.Standings.Third, string(payload))
	if err != nil {
		metrics.RecordArchiveError()
		return fmt.Errorf("insert %s: %w", r.ID, err)
	}
	metrics.RecordArchiveWrite()
	return nil
}

// Load returns the full archived result.
func (a *Archive) Load(ctx context.Context, id string) (*tournament.Result, error) {
	var payload string
	err := a.db.QueryRowContext(ctx, `SELECT payload FROM simulations WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordArchiveError()
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	var r tournament.Result
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return &r, nil
}

// Recent returns up to limit summaries, newest first.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Record, error) {
	const q = `SELECT id, created_at, champion, runner_up, third
		FROM simulations ORDER BY created_at DESC, id ASC LIMIT $1`
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		metrics.RecordArchiveError()
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Champion, &rec.RunnerUp, &rec.Third); err != nil {
			return nil, fmt.Errorf("recent scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ChampionCounts returns title counts across every archived run.
func (a *Archive) ChampionCounts(ctx context.Context) ([]ChampionCount, error) {
	const q = `SELECT champion, COUNT(*) AS titles
		FROM simulations GROUP BY champion ORDER BY titles DESC, champion ASC`
	rows, err := a.db.QueryContext(ctx, q)
	if err != nil {
		metrics.RecordArchiveError()
		return nil, fmt.Errorf("champion counts: %w", err)
	}
	defer rows.Close()

	var out []ChampionCount
	for rows.Next() {
		var c ChampionCount
		if err := rows.Scan(&c.Team, &c.Titles); err != nil {
			return nil, fmt.Errorf("champion counts scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of archived simulations.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Close closes the connection pool.
func (a *Archive) Close() error {
	return a.db.Close()
}
