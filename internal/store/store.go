// Package store archives case analyses in a SQLite database so earlier
// runs for a subject can be listed and re-read.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ppiankov/truthweaver/internal/model"
)

// Fixed-width UTC timestamps so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when no run has the requested id
var ErrNotFound = errors.New("run not found")

// Store manages the analysis archive
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// RunSummary describes one archived analysis
type RunSummary struct {
	ID             string    `json:"id"`
	ShadowID       string    `json:"shadow_id"`
	ProcessedAt    time.Time `json:"processed_at"`
	SessionCount   int       `json:"sessions"`
	UsableSessions int       `json:"usable_sessions"`
	Contradictions int       `json:"contradictions"`
}

// Run is a fully loaded archived analysis
type Run struct {
	RunSummary
	Report     *model.CaseReport
	Transcript string
	Sessions   []model.SessionRecord
}

// Open opens or creates the archive at path and ensures its schema
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			shadow_id TEXT NOT NULL,
			processed_at TEXT NOT NULL,
			session_count INTEGER NOT NULL,
			usable_count INTEGER NOT NULL,
			contradiction_count INTEGER NOT NULL,
			report TEXT NOT NULL,
			transcript TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_shadow_id ON runs(shadow_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			session_index INTEGER NOT NULL,
			source TEXT NOT NULL,
			transcript TEXT NOT NULL,
			confidence REAL NOT NULL,
			quality TEXT NOT NULL,
			emotion TEXT NOT NULL,
			error TEXT NOT NULL,
			PRIMARY KEY (run_id, session_index)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save archives a case result and returns the new run id
func (s *Store) Save(ctx context.Context, result *model.CaseResult) (string, error) {
	if result == nil || result.Report == nil {
		return "", fmt.Errorf("no report to save")
	}

	report, err := json.Marshal(result.Report)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	processedAt := result.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, shadow_id, processed_at, session_count, usable_count, contradiction_count, report, transcript)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		result.Report.ShadowID,
		processedAt.UTC().Format(timeLayout),
		len(result.Sessions),
		result.UsableSessions(),
		len(result.Report.DeceptionPatterns),
		string(report),
		result.Transcript,
	); err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	for _, sess := range result.Sessions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (run_id, session_index, source, transcript, confidence, quality, emotion, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, sess.Index, sess.Source, sess.Transcript, sess.Confidence,
			string(sess.Quality), string(sess.Emotion), sess.Error,
		); err != nil {
			return "", fmt.Errorf("inserting session %d: %w", sess.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}

	s.logger.Debug("archived run", zap.String("run_id", id), zap.String("shadow_id", result.Report.ShadowID))
	return id, nil
}

// List returns archived runs, newest first. An empty shadowID lists every
// subject; limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, shadowID string, limit int) ([]RunSummary, error) {
	query := `SELECT id, shadow_id, processed_at, session_count, usable_count, contradiction_count FROM runs`
	var args []any
	if shadowID != "" {
		query += ` WHERE shadow_id = ?`
		args = append(args, shadowID)
	}
	query += ` ORDER BY processed_at DESC, rowid DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r           RunSummary
			processedAt string
		)
		if err := rows.Scan(&r.ID, &r.ShadowID, &processedAt, &r.SessionCount, &r.UsableSessions, &r.Contradictions); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.ProcessedAt, err = time.Parse(timeLayout, processedAt); err != nil {
			return nil, fmt.Errorf("parsing processed_at for %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get loads one run with its report and sessions
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	var (
		run         Run
		processedAt string
		report      string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, shadow_id, processed_at, session_count, usable_count, contradiction_count, report, transcript
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.ShadowID, &processedAt, &run.SessionCount, &run.UsableSessions, &run.Contradictions, &report, &run.Transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}

	if run.ProcessedAt, err = time.Parse(timeLayout, processedAt); err != nil {
		return nil, fmt.Errorf("parsing processed_at: %w", err)
	}

	run.Report = &model.CaseReport{}
	if err := json.Unmarshal([]byte(report), run.Report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT session_index, source, transcript, confidence, quality, emotion, error
		 FROM sessions WHERE run_id = ? ORDER BY session_index`, id)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	run.Sessions = []model.SessionRecord{}
	for rows.Next() {
		var (
			sess             model.SessionRecord
			quality, emotion string
		)
		if err := rows.Scan(&sess.Index, &sess.Source, &sess.Transcript, &sess.Confidence, &quality, &emotion, &sess.Error); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sess.Quality = model.QualityTier(quality)
		sess.Emotion = model.EmotionalState(emotion)
		run.Sessions = append(run.Sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &run, nil
}
