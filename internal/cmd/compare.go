package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jpequegn/polybench/internal/comparator"
	"github.com/jpequegn/polybench/internal/reporter"
	"github.com/spf13/cobra"
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare benchmark results",
	Long: `Compare benchmark results between a baseline and a current run.

Pairs benchmarks by (name, lang), reports the percent delta, and flags
regressions against a configurable threshold. Supports JSON and CSV input.

Example:
  polybench compare --baseline baseline.json --current current.json
  polybench compare --baseline baseline.json --current current.json --format html --output report.html
  polybench compare -b main.json -c feature.json -f markdown`,
	RunE: compareBenchmarks,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringP("baseline", "b", "", "path to baseline benchmark results (JSON or CSV) (required)")
	compareCmd.Flags().StringP("current", "c", "", "path to current benchmark results (JSON or CSV) (required)")
	compareCmd.Flags().Float64P("threshold", "t", 1.05, "regression threshold multiplier (default: 1.05 = 5% slower)")
	compareCmd.Flags().StringP("format", "f", "markdown", "output format: markdown, html, or json (default: markdown)")
	compareCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")

	_ = compareCmd.MarkFlagRequired("baseline")
	_ = compareCmd.MarkFlagRequired("current")
}

func compareBenchmarks(cmd *cobra.Command, args []string) error {
	baselinePath, _ := cmd.Flags().GetString("baseline")
	currentPath, _ := cmd.Flags().GetString("current")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if format != "markdown" && format != "html" && format != "json" {
		return fmt.Errorf("invalid format: %s (must be markdown, html, or json)", format)
	}
	if threshold <= 1.0 {
		return fmt.Errorf("threshold must be greater than 1.0 (e.g., 1.05 for 5%% regression)")
	}

	slog.Info("Loading benchmark points", "baseline", baselinePath, "current", currentPath)

	baselinePoints, err := LoadPoints(baselinePath)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}
	slog.Info("Loaded baseline points", "count", len(baselinePoints))

	currentPoints, err := LoadPoints(currentPath)
	if err != nil {
		return fmt.Errorf("failed to load current: %w", err)
	}
	slog.Info("Loaded current points", "count", len(currentPoints))

	comp := comparator.NewBasicComparator()
	comp.RegressionThreshold = threshold

	slog.Info("Performing comparison", "threshold", threshold)
	result := comp.Compare(baselinePoints, currentPoints)

	slog.Info("Comparison complete",
		"total", result.Summary.TotalComparisons,
		"regressions", result.Summary.Regressions,
		"improvements", result.Summary.Improvements)

	compReporter := reporter.NewBasicComparisonReporter()

	var report string
	switch format {
	case "markdown":
		report, err = compReporter.GenerateMarkdown(result)
	case "html":
		report, err = compReporter.GenerateHTML(result)
	case "json":
		report, err = compReporter.GenerateJSON(result)
	}
	if err != nil {
		return fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(report), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Report written", "path", outputPath)
		fmt.Fprintf(os.Stderr, "Report saved to: %s\n", outputPath)
	} else {
		fmt.Println(report)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Comparison Summary\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Total Comparisons: %d\n", result.Summary.TotalComparisons)
	fmt.Fprintf(os.Stderr, "Regressions:      %d\n", result.Summary.Regressions)
	fmt.Fprintf(os.Stderr, "Improvements:     %d\n", result.Summary.Improvements)
	fmt.Fprintf(os.Stderr, "Average Delta:    %.2f%%\n", result.Summary.AverageDelta)
	fmt.Fprintf(os.Stderr, "Max Delta:        %.2f%%\n", result.Summary.MaxDelta)
	fmt.Fprintf(os.Stderr, "Min Delta:        %.2f%%\n", result.Summary.MinDelta)
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════\n")

	if result.Summary.Regressions > 0 {
		fmt.Fprintf(os.Stderr, "\n⚠️  Performance regressions detected!\n")
		for _, name := range result.Regressions {
			fmt.Fprintf(os.Stderr, "  • %s\n", name)
		}
		return fmt.Errorf("performance regressions detected (%d)", result.Summary.Regressions)
	}

	return nil
}
