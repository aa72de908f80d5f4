package storage

import (
	"os"
	"strconv"
	"testing"
	"time"
)

func TestSQLiteStorage_Init(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	var count int
	err := storage.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('runs', 'measurements', 'comparison_history')").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query tables: %v", err)
	}

	if count != 3 {
		t.Errorf("expected 3 tables, got %d", count)
	}
}

func sampleRun(id string, started time.Time) *RunRecord {
	return &RunRecord{
		ID:              id,
		StartedAt:       started,
		FinishedAt:      started.Add(time.Second),
		FairnessMode:    "strict",
		TotalBenchmarks: 1,
		Measurements: []MeasurementRecord{
			{
				FullName:   "suite/bench_sort",
				Lang:       "go",
				MeanNs:     100,
				MedianNs:   98,
				P99Ns:      140,
				StdDevNs:   5,
				CV:         5.0,
				Iterations: 1000,
			},
		},
	}
}

func TestSQLiteStorage_SaveAndGetLatestRun(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	run := sampleRun("run-1", time.Now())
	if err := storage.SaveRun(run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	latest, err := storage.GetLatestRun()
	if err != nil {
		t.Fatalf("failed to get latest run: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a run, got nil")
	}
	if len(latest.Measurements) != 1 {
		t.Errorf("expected 1 measurement, got %d", len(latest.Measurements))
	}
	if latest.Measurements[0].FullName != "suite/bench_sort" {
		t.Errorf("expected suite/bench_sort, got %s", latest.Measurements[0].FullName)
	}
}

func TestSQLiteStorage_SaveRun_Nil(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := storage.SaveRun(nil); err == nil {
		t.Fatal("expected error for nil run")
	}
}

func TestSQLiteStorage_GetLatestRun_Empty(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	latest, err := storage.GetLatestRun()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != nil {
		t.Error("expected nil for empty database")
	}
}

func TestSQLiteStorage_GetRun_NotFound(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	run, err := storage.GetRun("does-not-exist")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Error("expected nil for unknown run id")
	}
}

func TestSQLiteStorage_GetRange(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		run := sampleRun(
			"run-"+strconv.Itoa(i),
			now.Add(time.Duration(i)*time.Hour),
		)
		if err := storage.SaveRun(run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	start := now.Add(1 * time.Hour)
	end := now.Add(3 * time.Hour)

	runs, err := storage.GetRange(start, end)
	if err != nil {
		t.Fatalf("failed to get range: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 0; i < len(runs)-1; i++ {
		if runs[i].StartedAt.After(runs[i+1].StartedAt) {
			t.Error("runs not in ascending order")
		}
	}
}

func TestSQLiteStorage_GetRange_Empty(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	start := time.Now()
	end := start.Add(1 * time.Hour)

	runs, err := storage.GetRange(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func TestSQLiteStorage_GetHistory(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		run := &RunRecord{
			ID:              "run-" + strconv.Itoa(i),
			StartedAt:       now.Add(time.Duration(i) * time.Hour),
			FairnessMode:    "strict",
			TotalBenchmarks: 2,
			Measurements: []MeasurementRecord{
				{FullName: "bench_target", Lang: "go", MeanNs: float64(100 + i*10)},
				{FullName: "bench_other", Lang: "go", MeanNs: 200},
			},
		}
		if err := storage.SaveRun(run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	history, err := storage.GetHistory("bench_target", "go", 0)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 5 {
		t.Errorf("expected 5 results, got %d", len(history))
	}
	for _, m := range history {
		if m.FullName != "bench_target" {
			t.Errorf("expected bench_target, got %s", m.FullName)
		}
	}
}

func TestSQLiteStorage_GetHistory_WithLimit(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now().Truncate(time.Second)
	for i := 0; i < 10; i++ {
		run := sampleRun("run-"+strconv.Itoa(i), now.Add(time.Duration(i)*time.Hour))
		if err := storage.SaveRun(run); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	history, err := storage.GetHistory("suite/bench_sort", "go", 5)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 5 {
		t.Errorf("expected 5 results, got %d", len(history))
	}
}

func TestSQLiteStorage_Cleanup(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	now := time.Now()
	old := sampleRun("run-old", now.AddDate(0, 0, -100))
	fresh := sampleRun("run-new", now)

	if err := storage.SaveRun(old); err != nil {
		t.Fatalf("failed to save old run: %v", err)
	}
	if err := storage.SaveRun(fresh); err != nil {
		t.Fatalf("failed to save new run: %v", err)
	}

	if err := storage.Cleanup(90); err != nil {
		t.Fatalf("failed to cleanup: %v", err)
	}

	oldRetrieved, err := storage.GetRun("run-old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if oldRetrieved != nil {
		t.Error("expected old run to be deleted")
	}

	newRetrieved, err := storage.GetRun("run-new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newRetrieved == nil {
		t.Error("expected new run to still exist")
	}
}

func TestSQLiteStorage_Cleanup_InvalidRetention(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := storage.Cleanup(0); err == nil {
		t.Fatal("expected error for zero retention days")
	}
	if err := storage.Cleanup(-1); err == nil {
		t.Fatal("expected error for negative retention days")
	}
}

func TestSQLiteStorage_Close(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	if err := storage.Close(); err != nil {
		t.Fatalf("failed to close storage: %v", err)
	}

	if err := storage.SaveRun(sampleRun("run-x", time.Now())); err == nil {
		t.Error("expected error after closing database")
	}
}

func setupTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "polybench_test_*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	_ = tmpFile.Close()

	path := tmpFile.Name()

	storage, err := NewSQLiteStorage(path)
	if err != nil {
		_ = os.Remove(path)
		t.Fatalf("failed to create storage: %v", err)
	}

	if err := storage.Init(); err != nil {
		_ = storage.Close()
		_ = os.Remove(path)
		t.Fatalf("failed to initialize storage: %v", err)
	}

	cleanup := func() {
		_ = storage.Close()
		_ = os.Remove(path)
	}

	return storage, cleanup
}
