// Package store keeps the run history of the humanize pipeline and the
// checkpoints that let an interrupted CSV job resume. The pipeline itself
// never touches it; callers record finished runs.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; the CSV command records from many goroutines.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_key TEXT NOT NULL,
		final_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		max_retries INTEGER NOT NULL,
		passed_in_loop BOOLEAN NOT NULL DEFAULT FALSE,
		final_verdict BOOLEAN NOT NULL DEFAULT FALSE,
		translator TEXT,
		rewriter TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_attempts (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		verdict BOOLEAN NOT NULL,
		failures TEXT,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	-- csv_checkpoints tracks progress of CSV jobs for resume support
	CREATE TABLE IF NOT EXISTS csv_checkpoints (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		status TEXT DEFAULT 'running',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- csv_checkpoint_cells stores per-cell humanized results
	CREATE TABLE IF NOT EXISTS csv_checkpoint_cells (
		checkpoint_id TEXT NOT NULL,
		row_idx INTEGER NOT NULL,
		col_idx INTEGER NOT NULL,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (checkpoint_id, row_idx, col_idx),
		FOREIGN KEY (checkpoint_id) REFERENCES csv_checkpoints(id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_source_key ON runs(source_key);
	CREATE INDEX IF NOT EXISTS idx_checkpoint_cells ON csv_checkpoint_cells(checkpoint_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Run is one finished humanize invocation.
type Run struct {
	ID           string
	SourceText   string
	FinalText    string
	SourceLang   string
	TargetLang   string
	MaxRetries   int
	PassedInLoop bool
	FinalVerdict bool
	Translator   string
	Rewriter     string
	CreatedAt    time.Time
	Attempts     []RunAttempt
}

type RunAttempt struct {
	Index    int
	Text     string
	Verdict  bool
	Failures []string
}

// SaveRun stores run and its attempts in one transaction. An empty ID is
// replaced with a fresh UUID, and a zero CreatedAt with the current time.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, source_text, source_key, final_text, source_lang, target_lang, max_retries, passed_in_loop, final_verdict, translator, rewriter, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceText, normalizeText(run.SourceText), run.FinalText, run.SourceLang, run.TargetLang,
		run.MaxRetries, run.PassedInLoop, run.FinalVerdict, run.Translator, run.Rewriter, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, a := range run.Attempts {
		failures, err := json.Marshal(a.Failures)
		if err != nil {
			return fmt.Errorf("encode failures: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_attempts (run_id, idx, text, verdict, failures) VALUES (?, ?, ?, ?, ?)`,
			run.ID, a.Index, a.Text, a.Verdict, string(failures))
		if err != nil {
			return fmt.Errorf("insert attempt %d: %w", a.Index, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, source_text, final_text, source_lang, target_lang, max_retries, passed_in_loop, final_verdict, COALESCE(translator, ''), COALESCE(rewriter, ''), created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.SourceText, &r.FinalText, &r.SourceLang, &r.TargetLang, &r.MaxRetries,
		&r.PassedInLoop, &r.FinalVerdict, &r.Translator, &r.Rewriter, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRun returns a run with its attempts in order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, text, verdict, COALESCE(failures, '') FROM run_attempts WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a RunAttempt
		var failures string
		if err := rows.Scan(&a.Index, &a.Text, &a.Verdict, &failures); err != nil {
			return nil, err
		}
		if failures != "" && failures != "null" {
			if err := json.Unmarshal([]byte(failures), &a.Failures); err != nil {
				return nil, fmt.Errorf("decode failures of attempt %d: %w", a.Index, err)
			}
		}
		run.Attempts = append(run.Attempts, a)
	}
	return run, rows.Err()
}

// ListRuns returns the newest runs first, without attempts. limit <= 0
// means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryRuns(ctx, query, args...)
}

// FindRuns returns earlier runs of the same source text, newest first.
// Texts are compared after trimming and NFC normalization.
func (s *Store) FindRuns(ctx context.Context, sourceText string) ([]Run, error) {
	return s.queryRuns(ctx,
		`SELECT `+runColumns+` FROM runs WHERE source_key = ? ORDER BY created_at DESC, id`,
		normalizeText(sourceText))
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...interface{}) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun permanently removes a run and its attempts.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_attempts WHERE run_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

// ClearRuns removes all runs and returns how many were deleted.
func (s *Store) ClearRuns(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_attempts`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// RunStats summarises the run history.
type RunStats struct {
	TotalRuns     int
	PassedInLoop  int
	PassedFinal   int
	TotalAttempts int
}

// AvgAttempts is the mean number of loop attempts per run.
func (st RunStats) AvgAttempts() float64 {
	if st.TotalRuns == 0 {
		return 0
	}
	return float64(st.TotalAttempts) / float64(st.TotalRuns)
}

func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN passed_in_loop THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN final_verdict THEN 1 ELSE 0 END), 0)
		FROM runs`).Scan(
		&stats.TotalRuns,
		&stats.PassedInLoop,
		&stats.PassedFinal,
	)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_attempts`).Scan(&stats.TotalAttempts); err != nil {
		return nil, err
	}
	return stats, nil
}

// CSVCheckpoint represents a CSV job's checkpoint record.
type CSVCheckpoint struct {
	ID         string
	InputFile  string
	OutputFile string
	SourceLang string
	TargetLang string
	Status     string
	CreatedAt  time.Time
}

// CreateCSVCheckpoint creates a new checkpoint record and returns its ID.
func (s *Store) CreateCSVCheckpoint(ctx context.Context, inputFile, outputFile, sourceLang, targetLang string) (string, error) {
	id := "cp_" + uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO csv_checkpoints (id, input_file, output_file, source_lang, target_lang) VALUES (?, ?, ?, ?, ?)`,
		id, inputFile, outputFile, sourceLang, targetLang)
	return id, err
}

func (s *Store) GetCSVCheckpoint(ctx context.Context, checkpointID string) (*CSVCheckpoint, error) {
	var cp CSVCheckpoint
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, source_lang, target_lang, status, created_at FROM csv_checkpoints WHERE id = ?`,
		checkpointID).Scan(&cp.ID, &cp.InputFile, &cp.OutputFile, &cp.SourceLang, &cp.TargetLang, &cp.Status, &cp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("checkpoint %s: %w", checkpointID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// SaveCSVCell persists the humanized text for a single CSV cell.
func (s *Store) SaveCSVCell(ctx context.Context, checkpointID string, rowIdx, colIdx int, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO csv_checkpoint_cells (checkpoint_id, row_idx, col_idx, text) VALUES (?, ?, ?, ?)`,
		checkpointID, rowIdx, colIdx, text)
	return err
}

// GetCSVCells returns all finished cells for a checkpoint as a "row:col" → text map.
func (s *Store) GetCSVCells(ctx context.Context, checkpointID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_idx, col_idx, text FROM csv_checkpoint_cells WHERE checkpoint_id = ?`,
		checkpointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cells := make(map[string]string)
	for rows.Next() {
		var rowIdx, colIdx int
		var text string
		if err := rows.Scan(&rowIdx, &colIdx, &text); err != nil {
			return nil, err
		}
		cells[CellKey(rowIdx, colIdx)] = text
	}
	return cells, rows.Err()
}

// CellKey is the key GetCSVCells uses for a cell.
func CellKey(rowIdx, colIdx int) string {
	return fmt.Sprintf("%d:%d", rowIdx, colIdx)
}

// CompleteCSVCheckpoint marks a checkpoint as completed.
func (s *Store) CompleteCSVCheckpoint(ctx context.Context, checkpointID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE csv_checkpoints SET status = 'completed', updated_at = ? WHERE id = ?`,
		time.Now().UTC(), checkpointID)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so the same text typed two ways maps to one key.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
