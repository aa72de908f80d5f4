package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jpequegn/polybench/internal/comparator"
)

// LoadPoints loads a set of comparator.Point values from a file (JSON or
// CSV), for use as either side of a compare invocation.
func LoadPoints(filePath string) ([]comparator.Point, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	switch {
	case strings.HasSuffix(filePath, ".json"):
		return loadPointsFromJSON(file)
	case strings.HasSuffix(filePath, ".csv"):
		return loadPointsFromCSV(file)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (must be .json or .csv)", filePath)
	}
}

// loadPointsFromJSON expects {"benchmarks": [{"name", "lang", "nanos_per_op"}, ...]}.
func loadPointsFromJSON(r io.Reader) ([]comparator.Point, error) {
	var data struct {
		Benchmarks []struct {
			Name       string  `json:"name"`
			Lang       string  `json:"lang"`
			NanosPerOp float64 `json:"nanos_per_op"`
		} `json:"benchmarks"`
	}
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if len(data.Benchmarks) == 0 {
		return nil, fmt.Errorf("no valid benchmarks found in JSON")
	}

	points := make([]comparator.Point, 0, len(data.Benchmarks))
	for _, b := range data.Benchmarks {
		points = append(points, comparator.Point{Name: b.Name, Lang: b.Lang, NanosPerOp: b.NanosPerOp})
	}
	return points, nil
}

// loadPointsFromCSV expects columns: name, lang, nanos_per_op.
func loadPointsFromCSV(r io.Reader) ([]comparator.Point, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columnIndex := make(map[string]int, len(header))
	for i, col := range header {
		columnIndex[strings.TrimSpace(col)] = i
	}

	requiredCols := []string{"name", "lang", "nanos_per_op"}
	for _, col := range requiredCols {
		if _, ok := columnIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var points []comparator.Point
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		nanos, err := strconv.ParseFloat(strings.TrimSpace(record[columnIndex["nanos_per_op"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid nanos_per_op value: %w", err)
		}

		points = append(points, comparator.Point{
			Name:       strings.TrimSpace(record[columnIndex["name"]]),
			Lang:       strings.TrimSpace(record[columnIndex["lang"]]),
			NanosPerOp: nanos,
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no valid benchmarks found in CSV")
	}
	return points, nil
}
