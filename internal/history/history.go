// Package history persists comparison outcomes per scenario, backing trend
// reporting and the dynamic pass threshold. The comparison engine itself
// never touches this store; callers record results after the fact.
package history

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcp-eval/engine/pkg/types"
)

// Store is a SQLite-backed store of comparison history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New creates the comparison_history table and index if they don't exist,
// then returns a Store backed by the provided *sql.DB.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS comparison_history (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario         TEXT    NOT NULL,
			overall_score    REAL    NOT NULL,
			trajectory_score REAL    NOT NULL,
			execution_status TEXT    NOT NULL,
			passed           INTEGER NOT NULL,
			created_at       INTEGER NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("create comparison_history table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_comparison_history_scenario_ts
		ON comparison_history (scenario, created_at)
	`); err != nil {
		return nil, fmt.Errorf("create comparison_history index: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts a single comparison outcome for a scenario.
func (s *Store) Record(scenario string, res *types.ComparisonResult) error {
	passed := 0
	if res.Passed {
		passed = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO comparison_history (scenario, overall_score, trajectory_score, execution_status, passed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		scenario, res.OverallScore, res.TrajectoryScore, res.ExecutionStatus, passed, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("record comparison history: %w", err)
	}
	return nil
}

// QueryWindow returns the last windowSize overall scores for the scenario,
// most recent first.
func (s *Store) QueryWindow(scenario string, windowSize int) ([]float64, error) {
	rows, err := s.db.Query(
		`SELECT overall_score FROM comparison_history
		 WHERE scenario = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		scenario, windowSize,
	)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	var scores []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query window rows: %w", err)
	}
	return scores, nil
}

// Stats computes the mean, population standard deviation, and count of all
// overall scores for the scenario. Returns zero values when no rows exist.
func (s *Store) Stats(scenario string) (mean float64, stddev float64, count int, err error) {
	row := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(overall_score), 0.0) FROM comparison_history WHERE scenario = ?`,
		scenario,
	)
	if err = row.Scan(&count, &mean); err != nil {
		return 0, 0, 0, fmt.Errorf("stats query: %w", err)
	}
	if count == 0 {
		return 0, 0, 0, nil
	}

	// Compute population stddev manually: SQLite lacks STDDEV_POP.
	rows, err := s.db.Query(
		`SELECT overall_score FROM comparison_history WHERE scenario = ?`,
		scenario,
	)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("stats stddev query: %w", err)
	}
	defer rows.Close()

	var sumSqDiff float64
	for rows.Next() {
		var v float64
		if scanErr := rows.Scan(&v); scanErr != nil {
			return 0, 0, 0, fmt.Errorf("stats scan: %w", scanErr)
		}
		diff := v - mean
		sumSqDiff += diff * diff
	}
	if rowErr := rows.Err(); rowErr != nil {
		return 0, 0, 0, fmt.Errorf("stats rows: %w", rowErr)
	}

	stddev = math.Sqrt(sumSqDiff / float64(count))
	return mean, stddev, count, nil
}
