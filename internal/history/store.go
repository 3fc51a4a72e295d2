// Package history persists run outcomes to a local SQLite database. The
// store feeds the `history` command and supplies per-file fingerprints for
// incremental mode.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/docsmith/renderci/internal/report"
)

// Run is one recorded render run, newest first in listings.
type Run struct {
	RunID          string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	Formats        []string
	FilesProcessed int
	OutputFiles    []string
	Error          string
}

// FileRecord ties an input file to its content fingerprint for one run.
type FileRecord struct {
	Path        string
	Fingerprint string
}

// Store wraps the SQLite database holding run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the history database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		status TEXT NOT NULL,
		formats TEXT NOT NULL,
		files INTEGER NOT NULL,
		outputs TEXT NOT NULL,
		error TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE TABLE IF NOT EXISTS run_files (
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		PRIMARY KEY (run_id, path)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores a finished run and its per-file fingerprints atomically.
func (s *Store) Record(ctx context.Context, sum report.Summary, files []FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	formatsJSON, err := json.Marshal(formatStrings(sum))
	if err != nil {
		return fmt.Errorf("marshal formats: %w", err)
	}
	outputsJSON, err := json.Marshal(nonNil(sum.OutputFiles))
	if err != nil {
		return fmt.Errorf("marshal outputs: %w", err)
	}
	errText := ""
	if sum.Err != nil {
		errText = sum.Err.Error()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, started_at, finished_at, status, formats, files, outputs, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sum.RunID, sum.StartedAt.Unix(), sum.StartedAt.Add(sum.Duration).Unix(),
		sum.Status, string(formatsJSON), sum.FilesProcessed, string(outputsJSON), errText,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, f := range files {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO run_files (run_id, path, fingerprint) VALUES (?, ?, ?)",
			sum.RunID, f.Path, f.Fingerprint,
		)
		if err != nil {
			return fmt.Errorf("insert run file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// Prune drops all but the newest keep runs (and their file records).
// keep <= 0 disables pruning.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM runs WHERE id NOT IN (SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?)",
		keep,
	)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM run_files WHERE run_id NOT IN (SELECT run_id FROM runs)",
	)
	if err != nil {
		return fmt.Errorf("prune run files: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, started_at, finished_at, status, formats, files, outputs, error FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedUnix, finishedUnix int64
		var formatsJSON, outputsJSON string
		if err := rows.Scan(&r.RunID, &startedUnix, &finishedUnix, &r.Status, &formatsJSON, &r.FilesProcessed, &outputsJSON, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(startedUnix, 0)
		r.FinishedAt = time.Unix(finishedUnix, 0)
		if err := json.Unmarshal([]byte(formatsJSON), &r.Formats); err != nil {
			return nil, fmt.Errorf("unmarshal formats: %w", err)
		}
		if err := json.Unmarshal([]byte(outputsJSON), &r.OutputFiles); err != nil {
			return nil, fmt.Errorf("unmarshal outputs: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastSuccessfulFingerprints returns path->fingerprint for the newest
// successful run with exactly the given format list, or nil when no such
// run exists.
func (s *Store) LastSuccessfulFingerprints(ctx context.Context, formats []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	formatsJSON, err := json.Marshal(nonNil(formats))
	if err != nil {
		return nil, fmt.Errorf("marshal formats: %w", err)
	}

	var runID string
	err = s.db.QueryRowContext(ctx,
		"SELECT run_id FROM runs WHERE status = ? AND formats = ? ORDER BY started_at DESC, id DESC LIMIT 1",
		report.StatusSuccess, string(formatsJSON),
	).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last successful run: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, fingerprint FROM run_files WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[string]string)
	for rows.Next() {
		var path, fp string
		if err := rows.Scan(&path, &fp); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		fingerprints[path] = fp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run files: %w", err)
	}
	return fingerprints, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func formatStrings(sum report.Summary) []string {
	names := make([]string, len(sum.Formats))
	for i, f := range sum.Formats {
		names[i] = string(f)
	}
	return names
}

func nonNil(paths []string) []string {
	if paths == nil {
		return []string{}
	}
	return paths
}
