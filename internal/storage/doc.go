// Package storage provides persistent storage for scheduler run history
// using SQLite.
//
// # Overview
//
// The storage package records each scheduler run (one invocation of
// "polybench run") and its per-(benchmark, language) measurements so that
// "polybench report" can render a stored run without re-running anything.
//
// # Usage
//
//	store, err := storage.NewSQLiteStorage("./polybench.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	if err := store.Init(); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := store.SaveRun(run); err != nil {
//	    log.Fatal(err)
//	}
//
//	latest, err := store.GetLatestRun()
//	history, err := store.GetHistory("suite/bench_sort", "go", 20)
//
// # Database Schema
//
// ## runs table
//
//	CREATE TABLE runs (
//	    id TEXT PRIMARY KEY,
//	    started_at DATETIME NOT NULL,
//	    finished_at DATETIME,
//	    fairness_mode TEXT NOT NULL,
//	    total_benchmarks INTEGER NOT NULL,
//	    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
//	);
//
// ## measurements table
//
//	CREATE TABLE measurements (
//	    id INTEGER PRIMARY KEY AUTOINCREMENT,
//	    run_id TEXT NOT NULL,
//	    full_name TEXT NOT NULL,
//	    lang TEXT NOT NULL,
//	    mean_ns REAL NOT NULL,
//	    median_ns REAL NOT NULL,
//	    p99_ns REAL NOT NULL,
//	    stddev_ns REAL NOT NULL,
//	    cv REAL NOT NULL,
//	    iterations INTEGER NOT NULL,
//	    timed_out BOOLEAN NOT NULL,
//	    alloced_bytes REAL NOT NULL DEFAULT 0,
//	    has_memory BOOLEAN NOT NULL DEFAULT 0,
//	    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
//	    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
//	);
//
// ## comparison_history table
//
//	CREATE TABLE comparison_history (
//	    id INTEGER PRIMARY KEY AUTOINCREMENT,
//	    baseline_run_id TEXT,
//	    current_run_id TEXT,
//	    full_name TEXT NOT NULL,
//	    lang TEXT NOT NULL,
//	    baseline_mean_ns REAL NOT NULL,
//	    current_mean_ns REAL NOT NULL,
//	    delta_percent REAL NOT NULL,
//	    is_regression BOOLEAN NOT NULL,
//	    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
//	);
//
// Measurements cascade-delete with their run. Comparison history rows are
// independent of run lifetime since a run referenced as a baseline may be
// pruned from runs/measurements before the comparison itself ages out.
//
// # Transactions
//
// SaveRun inserts the run header and all of its measurements inside a
// single transaction: BEGIN, INSERT run, INSERT each measurement, COMMIT.
// If any step fails the whole run is rolled back, so a run row never
// exists without its measurements.
//
// # Thread Safety
//
// SQLiteStorage uses database/sql, which pools connections and is safe
// for concurrent use. SQLite itself serializes writers; the run command
// only calls SaveRun once per invocation, after all benchmarks finish, so
// write contention is not a concern in practice.
package storage
