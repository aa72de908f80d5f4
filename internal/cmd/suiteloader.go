package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jpequegn/polybench/internal/ir"
)

// LoadBenchmarkIR reads a BenchmarkIR from a JSON file. The DSL that lowers
// benchmarks/*.bench sources into this shape is an external collaborator;
// this loader only deserializes the IR it already produced.
func LoadBenchmarkIR(filePath string) (*ir.BenchmarkIR, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read IR file: %w", err)
	}

	var benchmarkIR ir.BenchmarkIR
	if err := json.Unmarshal(data, &benchmarkIR); err != nil {
		return nil, fmt.Errorf("failed to parse IR file: %w", err)
	}

	if len(benchmarkIR.Suites) == 0 {
		return nil, fmt.Errorf("IR file declares no suites")
	}

	return &benchmarkIR, nil
}
