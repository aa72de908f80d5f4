package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/runtime"
	"github.com/jpequegn/polybench/internal/scheduler"
	"github.com/jpequegn/polybench/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a suite once, then serve its results and a live progress feed over HTTP",
	Long: `Starts an HTTP server exposing GET /results (the last completed run's
result tree), GET /ws (a live WebSocket progress feed for the run), and
GET /metrics (Prometheus: compile cache hit rate, per-language run
counters, a nanos-per-op histogram).

Runs the IR once at startup, publishes the results, then keeps serving.

Example:
  polybench serve --ir suite.json --addr :8090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("ir", "i", "", "path to the benchmark IR JSON file (required)")
	serveCmd.Flags().String("project-root", ".", "project root passed to every runtime")
	serveCmd.Flags().String("addr", ":8090", "address to listen on")
	_ = serveCmd.MarkFlagRequired("ir")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	irPath, _ := cmd.Flags().GetString("ir")
	projectRoot, _ := cmd.Flags().GetString("project-root")
	addr, _ := cmd.Flags().GetString("addr")

	benchmarkIR, err := LoadBenchmarkIR(irPath)
	if err != nil {
		return fmt.Errorf("failed to load IR: %w", err)
	}

	cachePath := viper.GetString("compilecache.path")
	if cachePath == "" {
		cachePath = ".polybench-cache.json"
	}
	cache := compilecache.Load(cachePath)

	metrics := stream.NewMetrics()
	srv := stream.NewServer(metrics)

	registry := runtime.NewRegistry()
	sched := scheduler.New(registry,
		scheduler.WithProjectRoot(projectRoot),
		scheduler.WithProgressHandler(srv.ProgressHandler()),
	)

	slog.Info("Running initial pass before serving", "ir", irPath)
	results, err := sched.Run(ctx, benchmarkIR, cache)
	if err != nil {
		return fmt.Errorf("initial scheduler run failed: %w", err)
	}
	srv.SetLatestResults(results)

	if err := cache.Save(); err != nil {
		slog.Warn("Failed to persist compile cache", "error", err)
	}
	var lastHits, lastMisses int64
	hits, misses := cache.Stats()
	metrics.RecordCacheStats(hits, misses, &lastHits, &lastMisses)

	slog.Info("Serving", "addr", addr)
	return srv.Run(addr)
}
