package reporter

import (
	"io"

	"github.com/jpequegn/polybench/internal/comparator"
	"github.com/jpequegn/polybench/internal/storage"
)

// ReportFormat is the output format for a generated report.
type ReportFormat string

const (
	FormatHTML     ReportFormat = "html"
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
)

// ReportType is the kind of report being generated.
type ReportType string

const (
	TypeSummary    ReportType = "summary"    // Single run summary
	TypeComparison ReportType = "comparison" // Baseline vs current
)

// ReportOptions configures report generation.
type ReportOptions struct {
	Title       string
	Format      ReportFormat
	Type        ReportType
	DarkMode    bool
	ShowDetails bool
}

// Reporter generates reports from a run or a comparison.
type Reporter interface {
	GenerateSummary(run *storage.RunRecord, opts *ReportOptions, writer io.Writer) error
	GenerateComparison(result *comparator.ComparisonResult, opts *ReportOptions, writer io.Writer) error
}
