package storage

import (
	"fmt"
	"time"

	"github.com/jpequegn/polybench/internal/comparator"
)

// SaveComparison persists one stored comparison delta.
func (s *SQLiteStorage) SaveComparison(rec *ComparisonRecord) error {
	if rec == nil {
		return fmt.Errorf("comparison record cannot be nil")
	}

	_, err := s.db.Exec(`
		INSERT INTO comparison_history
			(baseline_run_id, current_run_id, full_name, lang,
			 baseline_mean_ns, current_mean_ns, delta_percent, is_regression)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.BaselineRunID, rec.CurrentRunID, rec.FullName, rec.Lang,
		rec.BaselineMeanNs, rec.CurrentMeanNs, rec.DeltaPercent, rec.IsRegression)
	if err != nil {
		return fmt.Errorf("failed to insert comparison: %w", err)
	}
	return nil
}

// SaveComparisonResult flattens a comparator.ComparisonResult from one run
// pair into individual ComparisonRecords and persists them.
func (s *SQLiteStorage) SaveComparisonResult(baselineRunID, currentRunID string, result *comparator.ComparisonResult) error {
	if result == nil || len(result.Benchmarks) == 0 {
		return fmt.Errorf("comparison result cannot be empty")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO comparison_history
			(baseline_run_id, current_run_id, full_name, lang,
			 baseline_mean_ns, current_mean_ns, delta_percent, is_regression)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, comp := range result.Benchmarks {
		_, err := stmt.Exec(
			baselineRunID, currentRunID, comp.Name, comp.Lang,
			comp.Baseline.NanosPerOp, comp.Current.NanosPerOp, comp.DeltaPercent, comp.IsRegression,
		)
		if err != nil {
			return fmt.Errorf("failed to insert comparison: %w", err)
		}
	}

	return tx.Commit()
}

// GetComparisonHistory returns stored comparisons for one (benchmark,
// language) pair, oldest first.
func (s *SQLiteStorage) GetComparisonHistory(fullName, lang string, limit int) ([]*ComparisonRecord, error) {
	query := `
		SELECT id, baseline_run_id, current_run_id, full_name, lang,
		       baseline_mean_ns, current_mean_ns, delta_percent, is_regression, created_at
		FROM comparison_history
		WHERE full_name = ? AND lang = ?
		ORDER BY created_at DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.Query(query, fullName, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	history, err := scanComparisons(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// GetComparisonHistoryRange returns stored comparisons within [start, end],
// oldest first.
func (s *SQLiteStorage) GetComparisonHistoryRange(fullName, lang string, start, end time.Time) ([]*ComparisonRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, baseline_run_id, current_run_id, full_name, lang,
		       baseline_mean_ns, current_mean_ns, delta_percent, is_regression, created_at
		FROM comparison_history
		WHERE full_name = ? AND lang = ? AND created_at BETWEEN ? AND ?
		ORDER BY created_at ASC
	`, fullName, lang, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query comparison history range: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanComparisons(rows)
}

// PruneComparisonHistory deletes comparison records older than
// retentionDays.
func (s *SQLiteStorage) PruneComparisonHistory(retentionDays int) error {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	if _, err := s.db.Exec(`DELETE FROM comparison_history WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("failed to prune comparison history: %w", err)
	}
	return nil
}

func scanComparisons(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*ComparisonRecord, error) {
	var history []*ComparisonRecord
	for rows.Next() {
		rec := &ComparisonRecord{}
		err := rows.Scan(
			&rec.ID, &rec.BaselineRunID, &rec.CurrentRunID, &rec.FullName, &rec.Lang,
			&rec.BaselineMeanNs, &rec.CurrentMeanNs, &rec.DeltaPercent, &rec.IsRegression, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return history, nil
}
