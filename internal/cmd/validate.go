package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/runtime"
	"github.com/jpequegn/polybench/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile-check every benchmark in an IR file without running it",
	Long: `Runs the two-phase validation pipeline over a benchmark IR file: a
bootstrap compile per language to surface shared setup/helper errors, then
a bounded parallel compile-check per remaining benchmark. Exits non-zero
if any benchmark fails to compile.

Example:
  polybench validate --ir suite.json
  polybench validate --ir suite.json --parallelism 8`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("ir", "i", "", "path to the benchmark IR JSON file (required)")
	validateCmd.Flags().Int("parallelism", 4, "bounded parallelism for phase-2 compile checks")
	_ = validateCmd.MarkFlagRequired("ir")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	irPath, _ := cmd.Flags().GetString("ir")
	parallelism, _ := cmd.Flags().GetInt("parallelism")

	benchmarkIR, err := LoadBenchmarkIR(irPath)
	if err != nil {
		return fmt.Errorf("failed to load IR: %w", err)
	}

	cachePath := viper.GetString("compilecache.path")
	if cachePath == "" {
		cachePath = ".polybench-cache.json"
	}
	cache := compilecache.Load(cachePath)

	registry := runtime.NewRegistry()
	v := validator.New(registry, parallelism)

	var failed bool
	for _, suite := range benchmarkIR.Suites {
		slog.Info("Validating suite", "suite", suite.Name)
		errs, stats, err := v.ValidateWithCache(ctx, suite, cache)
		if err != nil {
			return fmt.Errorf("validation of suite %s failed: %w", suite.Name, err)
		}

		slog.Info("Suite validated", "suite", suite.Name, "errors", len(errs),
			"cache_hits", stats.Hits, "cache_misses", stats.Misses, "total_checks", stats.TotalChecks)

		if len(errs) > 0 {
			failed = true
			fmt.Fprintf(os.Stderr, "\n%s:\n", suite.Name)
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "  [%s/%s] %s\n", e.Lang, e.Source, e.Message)
				for _, name := range e.AffectedBenchmarks {
					fmt.Fprintf(os.Stderr, "    - %s\n", name)
				}
			}
		}
	}

	if err := cache.Save(); err != nil {
		slog.Warn("Failed to persist compile cache", "error", err)
	}

	if failed {
		return fmt.Errorf("validation failed")
	}
	fmt.Fprintln(os.Stderr, "All benchmarks compiled cleanly.")
	return nil
}
