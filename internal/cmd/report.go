package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpequegn/polybench/internal/reporter"
	"github.com/jpequegn/polybench/internal/storage"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report for a stored run",
	Long: `Generate a summary report for a run previously recorded in the results
database, identified by run ID (or the most recent run if --run is omitted).

Example:
  polybench report --format html --output report.html
  polybench report --run 3f9c1e4a --output 3f9c1e4a.html`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringP("format", "f", "html", "report format (html)")
	reportCmd.Flags().StringP("output", "o", "", "output file path (required)")
	reportCmd.Flags().StringP("run", "r", "", "run ID to report on (default: latest run)")
	reportCmd.Flags().Bool("details", true, "include per-benchmark detail table")

	_ = reportCmd.MarkFlagRequired("output")
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	runID, _ := cmd.Flags().GetString("run")
	details, _ := cmd.Flags().GetBool("details")

	if format != "html" {
		return fmt.Errorf("unsupported format: %s (only html is currently supported)", format)
	}

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

	var run *storage.RunRecord
	if runID != "" {
		run, err = store.GetRun(runID)
	} else {
		run, err = store.GetLatestRun()
	}
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found (use 'polybench run' first)")
	}

	htmlReporter, err := reporter.NewHTMLReporter()
	if err != nil {
		return fmt.Errorf("failed to build reporter: %w", err)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	opts := &reporter.ReportOptions{Title: "polybench report", Format: reporter.FormatHTML, Type: reporter.TypeSummary, DarkMode: true, ShowDetails: details}
	if err := htmlReporter.GenerateSummary(run, opts, file); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Report saved to: %s\n", output)
	return nil
}
