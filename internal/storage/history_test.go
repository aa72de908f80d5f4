package storage

import (
	"os"
	"testing"
	"time"
)

func TestSaveComparison(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	storage, err := NewSQLiteStorage(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Init(); err != nil {
		t.Fatalf("Failed to init storage: %v", err)
	}

	rec := &ComparisonRecord{
		BaselineRunID:  "run-base",
		CurrentRunID:   "run-cur",
		FullName:       "sort",
		Lang:           "go",
		BaselineMeanNs: 1000,
		CurrentMeanNs:  950,
		DeltaPercent:   -5.0,
		IsRegression:   false,
	}

	if err := storage.SaveComparison(rec); err != nil {
		t.Fatalf("Failed to save comparison: %v", err)
	}
}

func TestGetComparisonHistory(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	storage, err := NewSQLiteStorage(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Init(); err != nil {
		t.Fatalf("Failed to init storage: %v", err)
	}

	for i := 0; i < 3; i++ {
		rec := &ComparisonRecord{
			BaselineRunID:  "run-base",
			CurrentRunID:   "run-cur",
			FullName:       "sort",
			Lang:           "go",
			BaselineMeanNs: 1000,
			CurrentMeanNs:  float64(1000 + 50*i),
			DeltaPercent:   float64(5 * i),
		}
		if err := storage.SaveComparison(rec); err != nil {
			t.Fatalf("Failed to save comparison %d: %v", i, err)
		}
	}

	history, err := storage.GetComparisonHistory("sort", "go", 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("Expected 3 comparisons, got %d", len(history))
	}
	if history[0].FullName != "sort" {
		t.Errorf("Expected full name 'sort', got %q", history[0].FullName)
	}
	if history[0].Lang != "go" {
		t.Errorf("Expected lang 'go', got %q", history[0].Lang)
	}
}

func TestGetComparisonHistoryRange(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	storage, err := NewSQLiteStorage(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Init(); err != nil {
		t.Fatalf("Failed to init storage: %v", err)
	}

	now := time.Now()
	for i := 0; i < 3; i++ {
		rec := &ComparisonRecord{
			BaselineRunID: "run-base",
			CurrentRunID:  "run-cur",
			FullName:      "sort",
			Lang:          "go",
			DeltaPercent:  0,
		}
		if err := storage.SaveComparison(rec); err != nil {
			t.Fatalf("Failed to save comparison %d: %v", i, err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	start := now.Add(-1 * time.Hour)
	end := now.Add(1 * time.Hour)

	history, err := storage.GetComparisonHistoryRange("sort", "go", start, end)
	if err != nil {
		t.Fatalf("Failed to get history range: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("Expected 3 comparisons in range, got %d", len(history))
	}
}

func TestPruneComparisonHistory(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	storage, err := NewSQLiteStorage(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Init(); err != nil {
		t.Fatalf("Failed to init storage: %v", err)
	}

	rec := &ComparisonRecord{
		BaselineRunID: "run-base",
		CurrentRunID:  "run-cur",
		FullName:      "sort",
		Lang:          "go",
	}
	if err := storage.SaveComparison(rec); err != nil {
		t.Fatalf("Failed to save comparison: %v", err)
	}

	if err := storage.PruneComparisonHistory(90); err != nil {
		t.Fatalf("Failed to prune: %v", err)
	}

	history, err := storage.GetComparisonHistory("sort", "go", 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("Expected 1 comparison after prune with high retention, got %d", len(history))
	}
}

func TestComparisonHistoryIsRegression(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	storage, err := NewSQLiteStorage(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	if err := storage.Init(); err != nil {
		t.Fatalf("Failed to init storage: %v", err)
	}

	rec := &ComparisonRecord{
		BaselineRunID:  "run-base",
		CurrentRunID:   "run-cur",
		FullName:       "sort",
		Lang:           "go",
		BaselineMeanNs: 1000,
		CurrentMeanNs:  1100,
		DeltaPercent:   10.0,
		IsRegression:   true,
	}
	if err := storage.SaveComparison(rec); err != nil {
		t.Fatalf("Failed to save comparison: %v", err)
	}

	history, err := storage.GetComparisonHistory("sort", "go", 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 comparison, got %d", len(history))
	}

	comp := history[0]
	if !comp.IsRegression {
		t.Error("Expected IsRegression to be true")
	}
	if comp.DeltaPercent != 10.0 {
		t.Errorf("Expected delta 10.0, got %f", comp.DeltaPercent)
	}
}
