package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jpequegn/polybench/internal/comparator"
)

// ComparisonReporter generates comparison reports in various formats.
type ComparisonReporter interface {
	GenerateMarkdown(result *comparator.ComparisonResult) (string, error)
	GenerateHTML(result *comparator.ComparisonResult) (string, error)
	GenerateJSON(result *comparator.ComparisonResult) (string, error)
}

// BasicComparisonReporter implements ComparisonReporter.
type BasicComparisonReporter struct{}

// NewBasicComparisonReporter creates a new BasicComparisonReporter.
func NewBasicComparisonReporter() *BasicComparisonReporter {
	return &BasicComparisonReporter{}
}

// GenerateMarkdown generates a Markdown comparison report.
func (bcr *BasicComparisonReporter) GenerateMarkdown(result *comparator.ComparisonResult) (string, error) {
	if result == nil || len(result.Benchmarks) == 0 {
		return "# Comparison Report\n\nNo benchmarks to compare.\n", nil
	}

	var buf bytes.Buffer

	buf.WriteString("# Performance Comparison Report\n\n")

	buf.WriteString("## Summary\n\n")
	buf.WriteString(fmt.Sprintf("- **Total Comparisons**: %d\n", result.Summary.TotalComparisons))
	buf.WriteString(fmt.Sprintf("- **Regressions**: %d\n", result.Summary.Regressions))
	buf.WriteString(fmt.Sprintf("- **Improvements**: %d\n", result.Summary.Improvements))
	buf.WriteString(fmt.Sprintf("- **Average Delta**: %.2f%%\n", result.Summary.AverageDelta))
	buf.WriteString(fmt.Sprintf("- **Max Delta**: %.2f%%\n", result.Summary.MaxDelta))
	buf.WriteString(fmt.Sprintf("- **Min Delta**: %.2f%%\n\n", result.Summary.MinDelta))

	if len(result.Regressions) > 0 {
		buf.WriteString("## ⚠️ Regressions\n\n")
		for _, name := range result.Regressions {
			buf.WriteString(fmt.Sprintf("- `%s`\n", name))
		}
		buf.WriteString("\n")
	}

	if len(result.Improvements) > 0 {
		buf.WriteString("## ✅ Improvements\n\n")
		for _, name := range result.Improvements {
			buf.WriteString(fmt.Sprintf("- `%s`\n", name))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Detailed Results\n\n")
	buf.WriteString(bcr.generateMarkdownTable(result.Benchmarks))

	return buf.String(), nil
}

func (bcr *BasicComparisonReporter) generateMarkdownTable(comparisons []*comparator.BenchmarkComparison) string {
	if len(comparisons) == 0 {
		return ""
	}

	var buf bytes.Buffer

	buf.WriteString("| Benchmark | Language | Baseline | Current | Delta | Status |\n")
	buf.WriteString("|-----------|----------|----------|---------|-------|--------|\n")

	sorted := make([]*comparator.BenchmarkComparison, len(comparisons))
	copy(sorted, comparisons)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for _, comp := range sorted {
		status := "→"
		if comp.IsRegression {
			status = "🔴"
		} else if comp.IsImprovement {
			status = "🟢"
		}

		buf.WriteString(fmt.Sprintf("| %s | %s | %.0f ns | %.0f ns | %.2f%% | %s |\n",
			comp.Name,
			comp.Lang,
			comp.Baseline.NanosPerOp,
			comp.Current.NanosPerOp,
			comp.DeltaPercent,
			status,
		))
	}

	return buf.String()
}

// GenerateHTML generates an HTML comparison report.
func (bcr *BasicComparisonReporter) GenerateHTML(result *comparator.ComparisonResult) (string, error) {
	if result == nil || len(result.Benchmarks) == 0 {
		return "<h1>Comparison Report</h1><p>No benchmarks to compare.</p>", nil
	}

	var buf bytes.Buffer

	buf.WriteString(`<!DOCTYPE html>
<html>
<head>
	<title>Performance Comparison Report</title>
	<style>
		body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; margin: 20px; background-color: #121317; color: #E0E6F0; }
		.container { max-width: 1200px; margin: 0 auto; background-color: #1E2130; padding: 20px; border-radius: 8px; }
		h1 { border-bottom: 2px solid #1F4E8C; padding-bottom: 10px; }
		h2 { color: #A3A9BF; margin-top: 30px; }
		.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 15px; margin: 20px 0; }
		.stat-box { padding: 15px; background-color: #171925; border-left: 4px solid #1F4E8C; border-radius: 4px; }
		.stat-label { font-size: 12px; color: #A3A9BF; text-transform: uppercase; }
		.stat-value { font-size: 24px; font-weight: bold; margin-top: 5px; }
		table { width: 100%; border-collapse: collapse; margin: 20px 0; }
		th { background-color: #171925; padding: 12px; text-align: left; font-weight: 600; border-bottom: 2px solid #2A2D3E; }
		td { padding: 12px; border-bottom: 1px solid #2A2D3E; }
		.regression { color: #dc3545; font-weight: bold; }
		.improvement { color: #28a745; font-weight: bold; }
	</style>
</head>
<body>
	<div class="container">
		<h1>Performance Comparison Report</h1>
`)

	buf.WriteString(`		<h2>Summary</h2>
		<div class="summary">
`)
	buf.WriteString(fmt.Sprintf(`			<div class="stat-box"><div class="stat-label">Total Comparisons</div><div class="stat-value">%d</div></div>`, result.Summary.TotalComparisons))
	buf.WriteString(fmt.Sprintf(`			<div class="stat-box"><div class="stat-label">Regressions</div><div class="stat-value" style="color: #dc3545;">%d</div></div>`, result.Summary.Regressions))
	buf.WriteString(fmt.Sprintf(`			<div class="stat-box"><div class="stat-label">Improvements</div><div class="stat-value" style="color: #28a745;">%d</div></div>`, result.Summary.Improvements))
	buf.WriteString(fmt.Sprintf(`			<div class="stat-box"><div class="stat-label">Average Delta</div><div class="stat-value">%.2f%%</div></div>`, result.Summary.AverageDelta))
	buf.WriteString(`		</div>
`)

	buf.WriteString(`		<h2>Detailed Results</h2>
		<table>
			<thead>
				<tr>
					<th>Benchmark</th>
					<th>Language</th>
					<th>Baseline</th>
					<th>Current</th>
					<th>Delta</th>
				</tr>
			</thead>
			<tbody>
`)

	sorted := make([]*comparator.BenchmarkComparison, len(result.Benchmarks))
	copy(sorted, result.Benchmarks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for _, comp := range sorted {
		statusClass := ""
		if comp.IsRegression {
			statusClass = `class="regression"`
		} else if comp.IsImprovement {
			statusClass = `class="improvement"`
		}

		buf.WriteString(fmt.Sprintf(`			<tr>
					<td>%s</td>
					<td>%s</td>
					<td>%.0f ns</td>
					<td>%.0f ns</td>
					<td %s>%.2f%%</td>
				</tr>
`, comp.Name, comp.Lang, comp.Baseline.NanosPerOp, comp.Current.NanosPerOp, statusClass, comp.DeltaPercent))
	}

	buf.WriteString(`			</tbody>
		</table>
	</div>
</body>
</html>
`)

	return buf.String(), nil
}

// GenerateJSON generates a JSON comparison report.
func (bcr *BasicComparisonReporter) GenerateJSON(result *comparator.ComparisonResult) (string, error) {
	if result == nil {
		return "{}", nil
	}

	jsonData := map[string]interface{}{
		"summary": map[string]interface{}{
			"total_comparisons": result.Summary.TotalComparisons,
			"regressions":       result.Summary.Regressions,
			"improvements":      result.Summary.Improvements,
			"average_delta":     result.Summary.AverageDelta,
			"max_delta":         result.Summary.MaxDelta,
			"min_delta":         result.Summary.MinDelta,
		},
		"regressions":  result.Regressions,
		"improvements": result.Improvements,
		"benchmarks":   bcr.marshalBenchmarkComparisons(result.Benchmarks),
	}

	data, err := json.MarshalIndent(jsonData, "", "  ")
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (bcr *BasicComparisonReporter) marshalBenchmarkComparisons(comparisons []*comparator.BenchmarkComparison) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(comparisons))

	for _, comp := range comparisons {
		results = append(results, map[string]interface{}{
			"name":                 comp.Name,
			"lang":                 comp.Lang,
			"baseline_ns_per_op":   comp.Baseline.NanosPerOp,
			"current_ns_per_op":    comp.Current.NanosPerOp,
			"delta_percent":        comp.DeltaPercent,
			"is_regression":        comp.IsRegression,
			"is_improvement":       comp.IsImprovement,
			"regression_threshold": comp.RegressionThreshold,
		})
	}

	return results
}
