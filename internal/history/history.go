// Package history persists benchmark runs to a local SQLite database so
// past answers and timings can be compared across invocations. Each
// invocation is one run row; each triple contributes one row per executed
// stage.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"symbench/internal/catalogue"
	"symbench/internal/logging"
	"symbench/internal/results"
)

// Store is a run-history recorder backed by SQLite.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	runID string
}

// Open initializes the history database at the given path, creating the
// parent directory and the schema if needed.
func Open(path string) (*Store, error) {
	logging.History("opening history database at %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.HistoryError("failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.HistoryError("failed to set journal_mode=WAL: %v", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY,
		started    TIMESTAMP NOT NULL,
		finished   TIMESTAMP,
		selection  TEXT NOT NULL,
		workflow   TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stage_results (
		run_id     TEXT NOT NULL REFERENCES runs(id),
		model      TEXT NOT NULL,
		property   TEXT NOT NULL,
		variant    TEXT NOT NULL,
		stage      TEXT NOT NULL,
		totaltime  REAL NOT NULL,
		answer     TEXT,
		outcome    TEXT,
		error      TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_stage_results_triple
		ON stage_results(run_id, model, property, variant);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// BeginRun opens a new run row and makes it the target of subsequent
// RecordTriple calls. Returns the run identifier.
func (s *Store) BeginRun(selection, workflow string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started, selection, workflow) VALUES (?, ?, ?, ?)`,
		id, time.Now().UTC(), selection, workflow)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	s.runID = id
	logging.History("began run %s (selection=%s workflow=%s)", id, selection, workflow)
	return id, nil
}

// FinishRun stamps the current run's completion time.
func (s *Store) FinishRun() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID == "" {
		return fmt.Errorf("no run in progress")
	}
	_, err := s.db.Exec(`UPDATE runs SET finished = ? WHERE id = ?`, time.Now().UTC(), s.runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	logging.History("finished run %s", s.runID)
	return nil
}

// RecordTriple persists one row per executed stage of a triple. Satisfies
// the pipeline's Recorder interface.
func (s *Store) RecordTriple(model, property string, variant catalogue.Variant, run *results.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID == "" {
		return fmt.Errorf("no run in progress")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := func(stage string, totaltime float64, answer, outcome string) error {
		_, err := tx.Exec(
			`INSERT INTO stage_results (run_id, model, property, variant, stage, totaltime, answer, outcome, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.runID, model, property, string(variant), stage, totaltime,
			nullable(answer), nullable(outcome), nullable(run.Error))
		return err
	}

	if r := run.Translate; r != nil {
		if err := insert("mcrl22lps", r.TotalTime, "", ""); err != nil {
			return err
		}
	}
	if r := run.Obligation; r != nil {
		if err := insert("lps2pbes", r.TotalTime, "", r.Outcome); err != nil {
			return err
		}
	}
	if r := run.Rewrite; r != nil {
		if err := insert("pbesrewr", r.TotalTime, "", ""); err != nil {
			return err
		}
	}
	if r := run.Detect; r != nil {
		if err := insert("pbessymmetry", r.TotalTime, "", ""); err != nil {
			return err
		}
	}
	if r := run.Solve; r != nil {
		if err := insert("pbessolve", r.TotalTime, r.Answer, r.Outcome); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Answers returns the most recent solver answer recorded for a triple in any
// earlier run, or "" when the triple has never completed.
func (s *Store) Answers(model, property string, variant catalogue.Variant) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var answer sql.NullString
	err := s.db.QueryRow(
		`SELECT sr.answer FROM stage_results sr
		 JOIN runs r ON r.id = sr.run_id
		 WHERE sr.model = ? AND sr.property = ? AND sr.variant = ?
		   AND sr.stage = 'pbessolve' AND sr.answer IS NOT NULL
		 ORDER BY r.started DESC LIMIT 1`,
		model, property, string(variant)).Scan(&answer)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query history: %w", err)
	}
	return answer.String, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
