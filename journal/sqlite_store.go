package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists run history in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens/creates the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		model TEXT,
		filename TEXT,
		outcome TEXT,
		rounds INTEGER,
		diagnostic TEXT,
		started_at TIMESTAMP,
		finished_at TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS attempts (
		run_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		prompt TEXT,
		reply TEXT,
		code TEXT,
		success BOOLEAN,
		diagnostic TEXT,
		created_at TIMESTAMP,
		PRIMARY KEY (run_id, round),
		FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun upserts the run row. The loop calls it once at start and once at
// finish, so the same id arrives twice with updated fields.
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	query := `
	INSERT INTO runs (
		id, task, model, filename, outcome, rounds, diagnostic, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		task=excluded.task,
		model=excluded.model,
		filename=excluded.filename,
		outcome=excluded.outcome,
		rounds=excluded.rounds,
		diagnostic=excluded.diagnostic,
		started_at=excluded.started_at,
		finished_at=excluded.finished_at
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Task,
		run.Model,
		run.Filename,
		run.Outcome,
		run.Rounds,
		run.Diagnostic,
		run.StartedAt,
		run.FinishedAt,
	)
	return err
}

// SaveAttempt records one round of a run.
func (s *SQLiteStore) SaveAttempt(ctx context.Context, attempt Attempt) error {
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	query := `INSERT OR REPLACE INTO attempts (
		run_id, round, prompt, reply, code, success, diagnostic, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		attempt.RunID,
		attempt.Round,
		attempt.Prompt,
		attempt.Reply,
		attempt.Code,
		attempt.Success,
		attempt.Diagnostic,
		attempt.CreatedAt,
	)
	return err
}

// ListRuns returns all runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, task, model, filename, outcome,
		rounds, diagnostic, started_at, finished_at FROM runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRuns(rows)
}

// GetRun fetches one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, task, model, filename, outcome,
		rounds, diagnostic, started_at, finished_at FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// AttemptsForRun returns a run's attempts in round order.
func (s *SQLiteStore) AttemptsForRun(ctx context.Context, runID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, round, prompt, reply, code,
		success, diagnostic, created_at FROM attempts WHERE run_id = ? ORDER BY round`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make([]Attempt, 0)
	for rows.Next() {
		var attempt Attempt
		if err := rows.Scan(
			&attempt.RunID,
			&attempt.Round,
			&attempt.Prompt,
			&attempt.Reply,
			&attempt.Code,
			&attempt.Success,
			&attempt.Diagnostic,
			&attempt.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, attempt)
	}
	return results, rows.Err()
}

func scanRun(row *sql.Row) (Run, error) {
	var run Run
	err := row.Scan(
		&run.ID,
		&run.Task,
		&run.Model,
		&run.Filename,
		&run.Outcome,
		&run.Rounds,
		&run.Diagnostic,
		&run.StartedAt,
		&run.FinishedAt,
	)
	return run, err
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	results := make([]Run, 0)
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.Task,
			&run.Model,
			&run.Filename,
			&run.Outcome,
			&run.Rounds,
			&run.Diagnostic,
			&run.StartedAt,
			&run.FinishedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, run)
	}
	return results, rows.Err()
}
