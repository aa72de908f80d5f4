package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/runtime"
	"github.com/jpequegn/polybench/internal/scheduler"
	"github.com/jpequegn/polybench/internal/validator"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate and re-run a suite whenever its IR or runtime-env changes",
	Long: `Watches a benchmark IR file and its project root for changes and
re-runs the validate-then-run cycle on every change, debounced by 500ms to
absorb editor save bursts.

Example:
  polybench watch --ir suite.json --project-root ./runtime-env`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("ir", "i", "", "path to the benchmark IR JSON file (required)")
	watchCmd.Flags().String("project-root", ".", "project root passed to every runtime")
	_ = watchCmd.MarkFlagRequired("ir")
}

func runWatch(cmd *cobra.Command, args []string) error {
	irPath, _ := cmd.Flags().GetString("ir")
	projectRoot, _ := cmd.Flags().GetString("project-root")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(irPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", irPath, err)
	}
	if err := w.Add(projectRoot); err != nil {
		slog.Warn("Failed to watch project root", "root", projectRoot, "error", err)
	}

	slog.Info("Watching for changes", "ir", irPath, "project_root", projectRoot)

	reval := func() {
		if err := validateAndRun(irPath, projectRoot); err != nil {
			slog.Error("Watch cycle failed", "error", err)
		}
	}
	reval()

	var debounce *time.Timer
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			slog.Info("Change detected", "path", event.Name, "op", event.Op.String())
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, reval)
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("Watcher error", "error", werr)
		}
	}
}

// validateAndRun performs one validate-then-run cycle, sharing the compile
// cache across both phases so a clean validate doesn't force a recompile.
func validateAndRun(irPath, projectRoot string) error {
	ctx := context.Background()

	benchmarkIR, err := LoadBenchmarkIR(irPath)
	if err != nil {
		return fmt.Errorf("failed to load IR: %w", err)
	}

	cache := compilecache.Load(".polybench-cache.json")
	defer func() { _ = cache.Save() }()

	registry := runtime.NewRegistry()
	v := validator.New(registry, 4)

	for _, suite := range benchmarkIR.Suites {
		errs, _, err := v.ValidateWithCache(ctx, suite, cache)
		if err != nil {
			return fmt.Errorf("validation of suite %s failed: %w", suite.Name, err)
		}
		if len(errs) > 0 {
			for _, e := range errs {
				slog.Error("Compile error", "suite", suite.Name, "lang", e.Lang, "message", e.Message)
			}
			return fmt.Errorf("suite %s failed to validate", suite.Name)
		}
	}

	sched := scheduler.New(registry,
		scheduler.WithProjectRoot(projectRoot),
		scheduler.WithProgressHandler(scheduler.DefaultProgressPrinter()),
	)

	results, err := sched.Run(ctx, benchmarkIR, cache)
	if err != nil {
		return fmt.Errorf("scheduler run failed: %w", err)
	}
	printRunSummary(results, time.Since(results.StartedAt))
	return nil
}
