// Package reporter renders run summaries and baseline/current comparisons
// as Markdown, HTML, or JSON.
//
// # Report types
//
// Two report types exist:
//
//   - Summary: one run's measurements (mean/median/p99/CV%/iterations per
//     benchmark x language pair).
//   - Comparison: a baseline run against a current run, with per-benchmark
//     delta percentages and regression/improvement flags.
//
// There is no trend report; historical data lives in storage's
// comparison_history table and is queried directly rather than rendered
// as its own report type.
//
// # Output
//
// No format uses external template files or embedded assets.
// HTMLReporter writes a run summary straight into an io.Writer with
// fmt.Fprintf, with CSS inlined in a <style> block. BasicComparisonReporter
// builds comparison Markdown and HTML in a bytes.Buffer and JSON from a
// map, and returns each as a string. A generated HTML file opens
// standalone in any browser.
//
// HTML reports use a dark theme:
//
//   - Background: #121317, surface: #1E2130
//   - Text: #E0E6F0 primary, #A3A9BF secondary
//   - Accent: #1F4E8C
//   - Regression: #DC3545, improvement: #28A745
//
// # Usage
//
//	rep, _ := reporter.NewHTMLReporter()
//	opts := &reporter.ReportOptions{Title: "Benchmark Run", ShowDetails: true}
//	f, _ := os.Create("report.html")
//	defer f.Close()
//	rep.GenerateSummary(run, opts, f)
//
// Comparison reports go through BasicComparisonReporter directly when
// Markdown or JSON is wanted instead of HTML:
//
//	cr := reporter.NewBasicComparisonReporter()
//	md, _ := cr.GenerateMarkdown(result)
package reporter
