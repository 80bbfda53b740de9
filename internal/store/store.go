// Package store provides SQLite-based persistence for gemsync run
// history: one row per run plus one row per group result.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mjardine/gemsync/internal/models"
)

// Store represents the SQLite results database.
type Store struct {
	db *sql.DB
}

// New creates a new store connection.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the database schema.
func (s *Store) Initialize() error {
	schema := `
	-- Sync runs
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		total INTEGER NOT NULL,
		created INTEGER NOT NULL,
		updated INTEGER NOT NULL,
		noop INTEGER NOT NULL,
		partial_failure INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);

	-- Per-group results (append-only)
	CREATE TABLE IF NOT EXISTS group_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		group_id TEXT NOT NULL,
		outcome TEXT NOT NULL,
		platform_id TEXT,
		fingerprint TEXT,
		error_kind TEXT,
		message TEXT,
		variants INTEGER NOT NULL DEFAULT 0,
		metafields INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_group_results_run ON group_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_group_results_group ON group_results(group_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun persists a run summary and all of its group results in one
// transaction.
func (s *Store) SaveRun(summary *models.RunSummary) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, total, created, updated, noop, partial_failure, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.FinishedAt.UTC().Format(time.RFC3339Nano),
		summary.Total(),
		summary.Created,
		summary.Updated,
		summary.NoOp,
		summary.PartialFailure,
		summary.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO group_results (run_id, group_id, outcome, platform_id, fingerprint, error_kind, message, variants, metafields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range summary.Results {
		if _, err := stmt.Exec(
			summary.RunID,
			r.GroupID,
			string(r.Outcome),
			r.PlatformID,
			r.Fingerprint,
			string(r.ErrorKind),
			r.Message,
			r.Variants,
			r.Metafields,
		); err != nil {
			return fmt.Errorf("insert result for group %s: %w", r.GroupID, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns run summaries (without per-group results), newest
// first, up to limit. A non-positive limit returns all runs.
func (s *Store) ListRuns(limit int) ([]*models.RunSummary, error) {
	query := `
		SELECT id, started_at, finished_at, created, updated, noop, partial_failure, failed
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunSummary
	for rows.Next() {
		var r models.RunSummary
		var started, finished string
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Created, &r.Updated, &r.NoOp, &r.PartialFailure, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// GetRun returns one run with its group results, or nil when the run
// does not exist.
func (s *Store) GetRun(runID string) (*models.RunSummary, error) {
	var r models.RunSummary
	var started, finished string
	err := s.db.QueryRow(`
		SELECT id, started_at, finished_at, created, updated, noop, partial_failure, failed
		FROM runs WHERE id = ?`, runID).
		Scan(&r.RunID, &started, &finished, &r.Created, &r.Updated, &r.NoOp, &r.PartialFailure, &r.Failed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)

	results, err := s.GetRunResults(runID)
	if err != nil {
		return nil, err
	}
	r.Results = results
	return &r, nil
}

// GetRunResults returns the group results of one run in insert order.
func (s *Store) GetRunResults(runID string) ([]*models.GroupResult, error) {
	rows, err := s.db.Query(`
		SELECT group_id, outcome, platform_id, fingerprint, error_kind, message, variants, metafields
		FROM group_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// scanResults reads group result rows in column order.
func scanResults(rows *sql.Rows) ([]*models.GroupResult, error) {
	var results []*models.GroupResult
	for rows.Next() {
		var r models.GroupResult
		var outcome, errorKind string
		if err := rows.Scan(&r.GroupID, &outcome, &r.PlatformID, &r.Fingerprint, &errorKind, &r.Message, &r.Variants, &r.Metafields); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Outcome = models.Outcome(outcome)
		r.ErrorKind = models.ErrorKind(errorKind)
		results = append(results, &r)
	}
	return results, rows.Err()
}

// GroupHistory returns every recorded result for one group across all
// runs, newest first.
func (s *Store) GroupHistory(groupID string, limit int) ([]*models.GroupResult, error) {
	query := `
		SELECT g.group_id, g.outcome, g.platform_id, g.fingerprint, g.error_kind, g.message, g.variants, g.metafields
		FROM group_results g
		JOIN runs r ON r.id = g.run_id
		WHERE g.group_id = ?
		ORDER BY r.started_at DESC, g.id DESC`
	args := []any{groupID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("group history: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// parseTimestamp parses the formats SQLite may hand back.
func parseTimestamp(s string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
