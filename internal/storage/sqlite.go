package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage and HistoryStorage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (but does not yet initialize) a SQLite-backed
// Storage at path.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteStorage{db: db, path: path}, nil
}

// Init creates the schema if it does not already exist.
func (s *SQLiteStorage) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		fairness_mode TEXT NOT NULL,
		total_benchmarks INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		lang TEXT NOT NULL,
		mean_ns REAL NOT NULL,
		median_ns REAL NOT NULL,
		p99_ns REAL NOT NULL,
		stddev_ns REAL NOT NULL,
		cv REAL NOT NULL,
		iterations INTEGER NOT NULL,
		timed_out BOOLEAN NOT NULL,
		alloced_bytes REAL NOT NULL DEFAULT 0,
		has_memory BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_run_id ON measurements(run_id);
	CREATE INDEX IF NOT EXISTS idx_measurements_full_name_lang ON measurements(full_name, lang);

	CREATE TABLE IF NOT EXISTS comparison_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		baseline_run_id TEXT,
		current_run_id TEXT,
		full_name TEXT NOT NULL,
		lang TEXT NOT NULL,
		baseline_mean_ns REAL NOT NULL,
		current_mean_ns REAL NOT NULL,
		delta_percent REAL NOT NULL,
		is_regression BOOLEAN NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_comparison_history_full_name_lang
		ON comparison_history(full_name, lang);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun persists a run and all its measurements in one transaction.
func (s *SQLiteStorage) SaveRun(run *RunRecord) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO runs (id, started_at, finished_at, fairness_mode, total_benchmarks)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.FairnessMode, run.TotalBenchmarks)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO measurements
			(run_id, full_name, lang, mean_ns, median_ns, p99_ns, stddev_ns, cv,
			 iterations, timed_out, alloced_bytes, has_memory)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range run.Measurements {
		_, err := stmt.Exec(
			run.ID, m.FullName, m.Lang, m.MeanNs, m.MedianNs, m.P99Ns, m.StdDevNs, m.CV,
			m.Iterations, m.TimedOut, m.AllocedBytes, m.HasMemory,
		)
		if err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	return tx.Commit()
}

// GetLatestRun returns the most recently started run, or nil if none
// exist.
func (s *SQLiteStorage) GetLatestRun() (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id FROM runs ORDER BY started_at DESC LIMIT 1
	`)
	var id string
	if err := row.Scan(&id); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return s.GetRun(id)
}

// GetRun loads one run and all of its measurements.
func (s *SQLiteStorage) GetRun(runID string) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, finished_at, fairness_mode, total_benchmarks
		FROM runs WHERE id = ?
	`, runID)

	run := &RunRecord{}
	var finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.FairnessMode, &run.TotalBenchmarks); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	measurements, err := s.loadMeasurements(`WHERE run_id = ? ORDER BY full_name, lang`, runID)
	if err != nil {
		return nil, err
	}
	run.Measurements = measurements
	return run, nil
}

// GetRange returns every run started within [start, end].
func (s *SQLiteStorage) GetRange(start, end time.Time) ([]*RunRecord, error) {
	rows, err := s.db.Query(`
		SELECT id FROM runs WHERE started_at BETWEEN ? AND ? ORDER BY started_at ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query run range: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	runs := make([]*RunRecord, 0, len(ids))
	for _, id := range ids {
		run, err := s.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// GetHistory returns measurements for one (benchmark, language) pair
// across runs, most recent first.
func (s *SQLiteStorage) GetHistory(fullName, lang string, limit int) ([]MeasurementRecord, error) {
	query := `
		SELECT m.id, m.run_id, m.full_name, m.lang, m.mean_ns, m.median_ns, m.p99_ns,
		       m.stddev_ns, m.cv, m.iterations, m.timed_out, m.alloced_bytes, m.has_memory, m.created_at
		FROM measurements m
		JOIN runs r ON r.id = m.run_id
		WHERE m.full_name = ? AND m.lang = ?
		ORDER BY r.started_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, fullName, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// Cleanup deletes runs (and, via cascade, their measurements) older than
// retentionDays.
func (s *SQLiteStorage) Cleanup(retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention days must be positive")
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	if _, err := s.db.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to cleanup old runs: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) loadMeasurements(whereClause string, args ...interface{}) ([]MeasurementRecord, error) {
	query := `
		SELECT id, run_id, full_name, lang, mean_ns, median_ns, p99_ns,
		       stddev_ns, cv, iterations, timed_out, alloced_bytes, has_memory, created_at
		FROM measurements
	` + whereClause

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

func scanMeasurements(rows *sql.Rows) ([]MeasurementRecord, error) {
	var out []MeasurementRecord
	for rows.Next() {
		var m MeasurementRecord
		if err := rows.Scan(
			&m.ID, &m.RunID, &m.FullName, &m.Lang, &m.MeanNs, &m.MedianNs, &m.P99Ns,
			&m.StdDevNs, &m.CV, &m.Iterations, &m.TimedOut, &m.AllocedBytes, &m.HasMemory, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
