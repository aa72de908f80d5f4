package reporter

import (
	"fmt"
	"io"
	"sort"

	"github.com/jpequegn/polybench/internal/comparator"
	"github.com/jpequegn/polybench/internal/storage"
)

// HTMLReporter renders run summaries and comparisons as self-contained
// HTML documents. There is no external template set: GenerateSummary
// writes its document straight into the writer with fmt.Fprintf, and
// GenerateComparison writes out the string BasicComparisonReporter builds.
type HTMLReporter struct {
	comparisons *BasicComparisonReporter
}

// NewHTMLReporter creates an HTML reporter.
func NewHTMLReporter() (*HTMLReporter, error) {
	return &HTMLReporter{comparisons: NewBasicComparisonReporter()}, nil
}

// GenerateSummary writes an HTML summary of one run's measurements.
func (r *HTMLReporter) GenerateSummary(run *storage.RunRecord, opts *ReportOptions, writer io.Writer) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if opts == nil {
		opts = &ReportOptions{Title: "Benchmark Run", ShowDetails: true}
	}

	measurements := make([]MeasurementRecord, len(run.Measurements))
	copy(measurements, run.Measurements)
	sort.Slice(measurements, func(i, j int) bool {
		if measurements[i].FullName != measurements[j].FullName {
			return measurements[i].FullName < measurements[j].FullName
		}
		return measurements[i].Lang < measurements[j].Lang
	})

	fmt.Fprintf(writer, `<!DOCTYPE html>
<html>
<head>
	<title>%s</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; margin: 20px; background-color: #121317; color: #E0E6F0; }
		.container { max-width: 1200px; margin: 0 auto; background-color: #1E2130; padding: 20px; border-radius: 8px; }
		h1 { border-bottom: 2px solid #1F4E8C; padding-bottom: 10px; }
		.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 15px; margin: 20px 0; }
		.stat-box { padding: 15px; background-color: #171925; border-left: 4px solid #1F4E8C; border-radius: 4px; }
		.stat-label { font-size: 12px; color: #A3A9BF; text-transform: uppercase; }
		.stat-value { font-size: 24px; font-weight: bold; margin-top: 5px; }
		table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
		th { background-color: #171925; padding: 12px; text-align: left; border-bottom: 2px solid #2A2D3E; }
		td { padding: 12px; border-bottom: 1px solid #2A2D3E; }
		.timed-out { color: #dc3545; font-weight: bold; }
	</style>
</head>
<body>
	<div class="container">
		<h1>%s</h1>
		<div class="summary">
			<div class="stat-box"><div class="stat-label">Run ID</div><div class="stat-value">%s</div></div>
			<div class="stat-box"><div class="stat-label">Benchmarks</div><div class="stat-value">%d</div></div>
			<div class="stat-box"><div class="stat-label">Fairness</div><div class="stat-value">%s</div></div>
		</div>
`, opts.Title, opts.Title, run.ID, run.TotalBenchmarks, run.FairnessMode)

	if opts.ShowDetails {
		fmt.Fprint(writer, `		<table>
			<thead>
				<tr>
					<th>Benchmark</th>
					<th>Lang</th>
					<th>Mean</th>
					<th>Median</th>
					<th>P99</th>
					<th>CV%</th>
					<th>Iterations</th>
				</tr>
			</thead>
			<tbody>
`)
		for _, m := range measurements {
			rowClass := ""
			if m.TimedOut {
				rowClass = ` class="timed-out"`
			}
			fmt.Fprintf(writer, `				<tr%s>
					<td>%s</td>
					<td>%s</td>
					<td>%.0f ns</td>
					<td>%.0f ns</td>
					<td>%.0f ns</td>
					<td>%.2f%%</td>
					<td>%d</td>
				</tr>
`, rowClass, m.FullName, m.Lang, m.MeanNs, m.MedianNs, m.P99Ns, m.CV, m.Iterations)
		}
		fmt.Fprint(writer, `			</tbody>
		</table>
`)
	}

	fmt.Fprint(writer, `	</div>
</body>
</html>
`)

	return nil
}

// GenerateComparison writes an HTML comparison report.
func (r *HTMLReporter) GenerateComparison(result *comparator.ComparisonResult, opts *ReportOptions, writer io.Writer) error {
	html, err := r.comparisons.GenerateHTML(result)
	if err != nil {
		return err
	}
	_, err = io.WriteString(writer, html)
	return err
}

// MeasurementRecord mirrors storage.MeasurementRecord; aliased here so the
// sort above reads naturally without importing storage twice under two
// names.
type MeasurementRecord = storage.MeasurementRecord
