package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jpequegn/polybench/internal/comparator"
	"github.com/jpequegn/polybench/internal/reporter"
)

func TestCompare_Integration_Success(t *testing.T) {
	tmpDir := t.TempDir()

	baselineFile := filepath.Join(tmpDir, "baseline.json")
	baselineContent := `{
  "benchmarks": [
    {"name": "sort", "lang": "go", "nanos_per_op": 1000},
    {"name": "search", "lang": "go", "nanos_per_op": 500}
  ]
}`
	if err := os.WriteFile(baselineFile, []byte(baselineContent), 0644); err != nil {
		t.Fatalf("Failed to write baseline file: %v", err)
	}

	currentFile := filepath.Join(tmpDir, "current.json")
	currentContent := `{
  "benchmarks": [
    {"name": "sort", "lang": "go", "nanos_per_op": 950},
    {"name": "search", "lang": "go", "nanos_per_op": 500}
  ]
}`
	if err := os.WriteFile(currentFile, []byte(currentContent), 0644); err != nil {
		t.Fatalf("Failed to write current file: %v", err)
	}

	baseline, err := LoadPoints(baselineFile)
	if err != nil {
		t.Fatalf("Failed to load baseline: %v", err)
	}
	current, err := LoadPoints(currentFile)
	if err != nil {
		t.Fatalf("Failed to load current: %v", err)
	}

	comp := comparator.NewBasicComparator()
	result := comp.Compare(baseline, current)

	if result == nil {
		t.Fatal("Comparison returned nil")
	}
	if result.Summary.TotalComparisons != 2 {
		t.Errorf("Expected 2 comparisons, got %d", result.Summary.TotalComparisons)
	}
	if result.Summary.Regressions != 0 {
		t.Errorf("Expected 0 regressions, got %d", result.Summary.Regressions)
	}
	if result.Summary.Improvements != 1 {
		t.Errorf("Expected 1 improvement, got %d", result.Summary.Improvements)
	}
}

func TestCompare_Integration_WithRegression(t *testing.T) {
	tmpDir := t.TempDir()

	baselineFile := filepath.Join(tmpDir, "baseline.json")
	baselineContent := `{"benchmarks": [{"name": "sort", "lang": "go", "nanos_per_op": 1000}]}`
	if err := os.WriteFile(baselineFile, []byte(baselineContent), 0644); err != nil {
		t.Fatalf("Failed to write baseline file: %v", err)
	}

	currentFile := filepath.Join(tmpDir, "current.json")
	currentContent := `{"benchmarks": [{"name": "sort", "lang": "go", "nanos_per_op": 1100}]}`
	if err := os.WriteFile(currentFile, []byte(currentContent), 0644); err != nil {
		t.Fatalf("Failed to write current file: %v", err)
	}

	baseline, err := LoadPoints(baselineFile)
	if err != nil {
		t.Fatalf("Failed to load baseline: %v", err)
	}
	current, err := LoadPoints(currentFile)
	if err != nil {
		t.Fatalf("Failed to load current: %v", err)
	}

	comp := comparator.NewBasicComparator()
	comp.RegressionThreshold = 1.05
	result := comp.Compare(baseline, current)

	if result.Summary.Regressions != 1 {
		t.Errorf("Expected 1 regression, got %d", result.Summary.Regressions)
	}
}

func TestCompare_ReportFormats(t *testing.T) {
	baseline := []comparator.Point{{Name: "sort", Lang: "go", NanosPerOp: 1000}}
	current := []comparator.Point{{Name: "sort", Lang: "go", NanosPerOp: 1100}}

	comp := comparator.NewBasicComparator()
	result := comp.Compare(baseline, current)

	compReporter := reporter.NewBasicComparisonReporter()

	markdown, err := compReporter.GenerateMarkdown(result)
	if err != nil {
		t.Fatalf("Failed to generate markdown: %v", err)
	}
	if markdown == "" {
		t.Fatal("Generated empty markdown report")
	}

	html, err := compReporter.GenerateHTML(result)
	if err != nil {
		t.Fatalf("Failed to generate HTML: %v", err)
	}
	if html == "" {
		t.Fatal("Generated empty HTML report")
	}

	jsonReport, err := compReporter.GenerateJSON(result)
	if err != nil {
		t.Fatalf("Failed to generate JSON: %v", err)
	}
	if jsonReport == "" {
		t.Fatal("Generated empty JSON report")
	}
}

func TestCompare_CSVInput(t *testing.T) {
	tmpDir := t.TempDir()

	baselineFile := filepath.Join(tmpDir, "baseline.csv")
	baselineContent := `name,lang,nanos_per_op
sort,go,1000
search,go,500`
	if err := os.WriteFile(baselineFile, []byte(baselineContent), 0644); err != nil {
		t.Fatalf("Failed to write baseline file: %v", err)
	}

	currentFile := filepath.Join(tmpDir, "current.csv")
	currentContent := `name,lang,nanos_per_op
sort,go,950
search,go,500`
	if err := os.WriteFile(currentFile, []byte(currentContent), 0644); err != nil {
		t.Fatalf("Failed to write current file: %v", err)
	}

	baseline, err := LoadPoints(baselineFile)
	if err != nil {
		t.Fatalf("Failed to load baseline CSV: %v", err)
	}
	current, err := LoadPoints(currentFile)
	if err != nil {
		t.Fatalf("Failed to load current CSV: %v", err)
	}

	if len(baseline) != 2 {
		t.Errorf("Expected 2 baseline points, got %d", len(baseline))
	}
	if len(current) != 2 {
		t.Errorf("Expected 2 current points, got %d", len(current))
	}
}

func TestCompare_LanguageMismatch(t *testing.T) {
	baseline := []comparator.Point{{Name: "sort", Lang: "rust", NanosPerOp: 1000}}
	current := []comparator.Point{{Name: "sort", Lang: "go", NanosPerOp: 950}}

	comp := comparator.NewBasicComparator()
	result := comp.Compare(baseline, current)

	if result.Summary.TotalComparisons != 0 {
		t.Errorf("Expected 0 comparisons for language mismatch, got %d", result.Summary.TotalComparisons)
	}
}

func TestLoadPoints_Integration_JSONMatchesCSV(t *testing.T) {
	tmpDir := t.TempDir()

	jsonFile := filepath.Join(tmpDir, "data.json")
	jsonContent := `{"benchmarks": [{"name": "sort", "lang": "go", "nanos_per_op": 1000}]}`
	if err := os.WriteFile(jsonFile, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("Failed to write JSON file: %v", err)
	}

	csvFile := filepath.Join(tmpDir, "data.csv")
	csvContent := `name,lang,nanos_per_op
sort,go,1000`
	if err := os.WriteFile(csvFile, []byte(csvContent), 0644); err != nil {
		t.Fatalf("Failed to write CSV file: %v", err)
	}

	jsonPoints, err := LoadPoints(jsonFile)
	if err != nil {
		t.Fatalf("Failed to load JSON: %v", err)
	}
	csvPoints, err := LoadPoints(csvFile)
	if err != nil {
		t.Fatalf("Failed to load CSV: %v", err)
	}

	if len(jsonPoints) != len(csvPoints) {
		t.Errorf("Loaded different number of points: JSON=%d, CSV=%d", len(jsonPoints), len(csvPoints))
	}
	if jsonPoints[0].NanosPerOp != csvPoints[0].NanosPerOp {
		t.Errorf("NanosPerOp mismatch: JSON=%v, CSV=%v", jsonPoints[0].NanosPerOp, csvPoints[0].NanosPerOp)
	}
}
