package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/runtime"
	"github.com/jpequegn/polybench/internal/scheduler"
	"github.com/jpequegn/polybench/internal/storage"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run benchmarks from an IR file",
	Long: `Run every suite in a benchmark IR file: compile-check is assumed already
passed (see 'polybench validate'), so run drives the Scheduler directly
against each enabled language's Runtime and prints a live progress feed.

Example:
  polybench run --ir suite.json
  polybench run --ir suite.json --project-root ./runtime-env`,
	RunE: runBenchmarks,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("ir", "i", "", "path to the benchmark IR JSON file (required)")
	runCmd.Flags().String("project-root", ".", "project root passed to every runtime")
	runCmd.Flags().Bool("no-store", false, "skip persisting the run to the results database")
	_ = runCmd.MarkFlagRequired("ir")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	irPath, _ := cmd.Flags().GetString("ir")
	projectRoot, _ := cmd.Flags().GetString("project-root")
	noStore, _ := cmd.Flags().GetBool("no-store")

	benchmarkIR, err := LoadBenchmarkIR(irPath)
	if err != nil {
		return fmt.Errorf("failed to load IR: %w", err)
	}
	slog.Info("Loaded benchmark IR", "suites", len(benchmarkIR.Suites))

	cachePath := viper.GetString("compilecache.path")
	if cachePath == "" {
		cachePath = ".polybench-cache.json"
	}
	cache := compilecache.Load(cachePath)

	registry := runtime.NewRegistry()

	sched := scheduler.New(registry,
		scheduler.WithProjectRoot(projectRoot),
		scheduler.WithProgressHandler(scheduler.DefaultProgressPrinter()),
	)

	slog.Info("Starting benchmark run...")
	startTime := time.Now()

	results, err := sched.Run(ctx, benchmarkIR, cache)
	duration := time.Since(startTime)
	if err != nil {
		return fmt.Errorf("scheduler run failed: %w", err)
	}

	if saveErr := cache.Save(); saveErr != nil {
		slog.Warn("Failed to persist compile cache", "error", saveErr)
	}
	hits, misses := cache.Stats()
	slog.Info("Compile cache stats", "hits", hits, "misses", misses)

	printRunSummary(results, duration)

	if !noStore {
		if err := storeRunResults(results, duration); err != nil {
			slog.Warn("Failed to persist run to results database", "error", err)
		}
	}

	return nil
}

func printRunSummary(results *scheduler.BenchmarkResults, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Run %s Summary\n", results.RunID)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Suites: %d\n", len(results.Suites))
	fmt.Fprintf(os.Stderr, "Total duration: %v\n", duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n\n")

	for _, suite := range results.Suites {
		fmt.Fprintf(os.Stderr, "%s (%d benchmarks)\n", suite.Name, len(suite.Benchmarks))
		for _, b := range suite.Benchmarks {
			fmt.Fprintf(os.Stderr, "  %s [%s, seed=%d]\n", b.FullName, b.FairnessMode, b.FairnessSeed)
			for lang, m := range b.Measurements {
				fmt.Fprintf(os.Stderr, "    %-8s %.1f ns/op\n", lang, m.NanosPerOp())
			}
			for lang, reason := range b.Skipped {
				fmt.Fprintf(os.Stderr, "    %-8s skipped: %s\n", lang, reason)
			}
			if b.Ratios != nil {
				fmt.Fprintln(os.Stderr, "   ", scheduler.RenderRatioSummary(b.Ratios))
			}
		}
		fmt.Fprintf(os.Stderr, "\n")
	}
}

// storeRunResults flattens a scheduler run into the results database so
// later 'polybench report' invocations can find it.
func storeRunResults(results *scheduler.BenchmarkResults, duration time.Duration) error {
	dbPath := viper.GetString("storage.path")
	if dbPath == "" {
		dbPath = "polybench.db"
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open results database: %w", err)
	}
	defer store.Close()
	if err := store.Init(); err != nil {
		return fmt.Errorf("failed to initialize results database: %w", err)
	}

	record := &storage.RunRecord{
		ID:         results.RunID,
		StartedAt:  results.StartedAt,
		FinishedAt: results.StartedAt.Add(duration),
	}

	for _, suite := range results.Suites {
		for _, b := range suite.Benchmarks {
			record.TotalBenchmarks++
			record.FairnessMode = b.FairnessMode
			for lang, m := range b.Measurements {
				mr := storage.MeasurementRecord{
					RunID:      results.RunID,
					FullName:   b.FullName,
					Lang:       string(lang),
					TimedOut:   m.TimedOut(),
					MeanNs:     m.NanosPerOp(),
					Iterations: measurementIterations(m),
				}
				if m.Single != nil {
					mr.MedianNs = m.Single.Median
					mr.P99Ns = m.Single.P99
					mr.StdDevNs = m.Single.StdDev
					mr.CV = m.Single.CV
					mr.HasMemory = m.Single.HasMemory
					mr.AllocedBytes = m.Single.AllocedBytesAvg
				} else if m.Multi != nil {
					mr.MedianNs = m.Multi.Median
					mr.StdDevNs = m.Multi.StdDev
					mr.CV = m.Multi.CV
				}
				record.Measurements = append(record.Measurements, mr)
			}
		}
	}

	if err := store.SaveRun(record); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	slog.Info("Run persisted", "run_id", record.ID, "db", dbPath)
	return nil
}

func measurementIterations(m scheduler.Measurement) uint64 {
	if m.Single != nil {
		return m.Single.Iterations
	}
	if m.Multi != nil {
		return uint64(m.Multi.RunCount)
	}
	return 0
}
