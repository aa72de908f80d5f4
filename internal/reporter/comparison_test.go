package reporter

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jpequegn/polybench/internal/comparator"
)

func createTestComparisonResult() *comparator.ComparisonResult {
	comp := comparator.NewBasicComparator()
	baseline := []comparator.Point{
		{Name: "sort", Lang: "go", NanosPerOp: 1000},
		{Name: "search", Lang: "go", NanosPerOp: 500},
	}
	current := []comparator.Point{
		{Name: "sort", Lang: "go", NanosPerOp: 950},
		{Name: "search", Lang: "go", NanosPerOp: 600},
	}
	return comp.Compare(baseline, current)
}

func TestNewBasicComparisonReporter(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	if reporter == nil {
		t.Error("NewBasicComparisonReporter() returned nil")
	}
}

func TestGenerateMarkdown(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := createTestComparisonResult()

	markdown, err := reporter.GenerateMarkdown(result)
	if err != nil {
		t.Fatalf("GenerateMarkdown() returned error: %v", err)
	}

	if markdown == "" {
		t.Error("GenerateMarkdown() returned empty string")
	}

	if !strings.Contains(markdown, "# Performance Comparison Report") {
		t.Error("Markdown missing header")
	}

	if !strings.Contains(markdown, "## Summary") {
		t.Error("Markdown missing Summary section")
	}

	if !strings.Contains(markdown, "Total Comparisons") {
		t.Error("Markdown missing Total Comparisons")
	}

	if !strings.Contains(markdown, "Regressions") {
		t.Error("Markdown should contain information about regressions")
	}

	if !strings.Contains(markdown, "Improvements") {
		t.Error("Markdown should contain information about improvements")
	}

	if !strings.Contains(markdown, "## Detailed Results") {
		t.Error("Markdown missing Detailed Results section")
	}

	if !strings.Contains(markdown, "sort") {
		t.Error("Markdown missing 'sort' benchmark")
	}

	if !strings.Contains(markdown, "search") {
		t.Error("Markdown missing 'search' benchmark")
	}
}

func TestGenerateMarkdown_EmptyResult(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := &comparator.ComparisonResult{
		Benchmarks: make([]*comparator.BenchmarkComparison, 0),
	}

	markdown, err := reporter.GenerateMarkdown(result)
	if err != nil {
		t.Fatalf("GenerateMarkdown(empty) returned error: %v", err)
	}

	if !strings.Contains(markdown, "No benchmarks") {
		t.Error("Markdown should mention no benchmarks")
	}
}

func TestGenerateMarkdown_NilResult(t *testing.T) {
	reporter := NewBasicComparisonReporter()

	markdown, err := reporter.GenerateMarkdown(nil)
	if err != nil {
		t.Fatalf("GenerateMarkdown(nil) returned error: %v", err)
	}

	if !strings.Contains(markdown, "No benchmarks") {
		t.Error("Markdown should mention no benchmarks for nil result")
	}
}

func TestGenerateHTML(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := createTestComparisonResult()

	html, err := reporter.GenerateHTML(result)
	if err != nil {
		t.Fatalf("GenerateHTML() returned error: %v", err)
	}

	if html == "" {
		t.Error("GenerateHTML() returned empty string")
	}

	if !strings.Contains(html, "<!DOCTYPE html>") {
		t.Error("HTML missing DOCTYPE")
	}

	if !strings.Contains(html, "<title>") {
		t.Error("HTML missing title tag")
	}

	if !strings.Contains(html, "<table>") {
		t.Error("HTML missing table")
	}

	if !strings.Contains(html, "<thead>") {
		t.Error("HTML missing table header")
	}

	if !strings.Contains(html, "Benchmark") {
		t.Error("HTML missing Benchmark column")
	}

	if !strings.Contains(html, "sort") {
		t.Error("HTML missing 'sort' benchmark")
	}

	if !strings.Contains(html, "search") {
		t.Error("HTML missing 'search' benchmark")
	}

	if !strings.Contains(html, "background-color") {
		t.Error("HTML missing CSS styling")
	}
}

func TestGenerateHTML_EmptyResult(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := &comparator.ComparisonResult{
		Benchmarks: make([]*comparator.BenchmarkComparison, 0),
	}

	html, err := reporter.GenerateHTML(result)
	if err != nil {
		t.Fatalf("GenerateHTML(empty) returned error: %v", err)
	}

	if !strings.Contains(html, "No benchmarks") {
		t.Error("HTML should mention no benchmarks")
	}
}

func TestGenerateJSON(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := createTestComparisonResult()

	jsonStr, err := reporter.GenerateJSON(result)
	if err != nil {
		t.Fatalf("GenerateJSON() returned error: %v", err)
	}

	if jsonStr == "" {
		t.Error("GenerateJSON() returned empty string")
	}

	var data map[string]interface{}
	err = json.Unmarshal([]byte(jsonStr), &data)
	if err != nil {
		t.Fatalf("GenerateJSON() returned invalid JSON: %v", err)
	}

	if _, ok := data["summary"]; !ok {
		t.Error("JSON missing summary field")
	}

	if _, ok := data["benchmarks"]; !ok {
		t.Error("JSON missing benchmarks field")
	}

	summary := data["summary"].(map[string]interface{})
	if _, ok := summary["total_comparisons"]; !ok {
		t.Error("JSON summary missing total_comparisons")
	}

	if _, ok := summary["regressions"]; !ok {
		t.Error("JSON summary missing regressions")
	}

	if _, ok := summary["improvements"]; !ok {
		t.Error("JSON summary missing improvements")
	}
}

func TestGenerateJSON_EmptyResult(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	result := &comparator.ComparisonResult{
		Benchmarks: make([]*comparator.BenchmarkComparison, 0),
	}

	jsonStr, err := reporter.GenerateJSON(result)
	if err != nil {
		t.Fatalf("GenerateJSON(empty) returned error: %v", err)
	}

	var data map[string]interface{}
	err = json.Unmarshal([]byte(jsonStr), &data)
	if err != nil {
		t.Fatalf("GenerateJSON(empty) returned invalid JSON: %v", err)
	}
}

func TestGenerateJSON_NilResult(t *testing.T) {
	reporter := NewBasicComparisonReporter()

	jsonStr, err := reporter.GenerateJSON(nil)
	if err != nil {
		t.Fatalf("GenerateJSON(nil) returned error: %v", err)
	}

	if jsonStr != "{}" {
		t.Errorf("GenerateJSON(nil) = %q, want {}", jsonStr)
	}
}

func TestGenerateMarkdownTable(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	comparisons := []*comparator.BenchmarkComparison{
		{
			Name:         "benchmark1",
			Lang:         "go",
			Baseline:     comparator.Point{Name: "benchmark1", Lang: "go", NanosPerOp: 1000},
			Current:      comparator.Point{Name: "benchmark1", Lang: "go", NanosPerOp: 950},
			DeltaPercent: -5.0,
		},
	}

	table := reporter.generateMarkdownTable(comparisons)

	if !strings.Contains(table, "Benchmark") {
		t.Error("Table missing header")
	}

	if !strings.Contains(table, "benchmark1") {
		t.Error("Table missing benchmark name")
	}

	if !strings.Contains(table, "go") {
		t.Error("Table missing language")
	}
}

func TestMarshalBenchmarkComparisons(t *testing.T) {
	reporter := NewBasicComparisonReporter()
	comparisons := []*comparator.BenchmarkComparison{
		{
			Name:                "test",
			Lang:                "rust",
			Baseline:            comparator.Point{Name: "test", Lang: "rust", NanosPerOp: 1000},
			Current:             comparator.Point{Name: "test", Lang: "rust", NanosPerOp: 1100},
			DeltaPercent:        10.0,
			IsRegression:        true,
			RegressionThreshold: 1.05,
		},
	}

	marshaled := reporter.marshalBenchmarkComparisons(comparisons)

	if len(marshaled) != 1 {
		t.Errorf("len(marshaled) = %d, want 1", len(marshaled))
	}

	comp := marshaled[0]
	if comp["name"] != "test" {
		t.Errorf("name = %v, want 'test'", comp["name"])
	}

	if comp["lang"] != "rust" {
		t.Errorf("lang = %v, want 'rust'", comp["lang"])
	}

	if comp["is_regression"] != true {
		t.Errorf("is_regression = %v, want true", comp["is_regression"])
	}
}
