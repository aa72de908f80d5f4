// Package comparator computes simple delta/ratio comparisons between two
// runs of the same benchmark: a baseline (e.g. the previous stored run, or
// another language on the same run) and a current measurement.
//
// This intentionally stops at arithmetic: delta, percent change, and a
// configurable regression threshold. It does not perform significance
// testing (no t-test, no Cohen's d) — a prior version of this package did,
// and that machinery was removed because it amounts to statistical
// modelling beyond mean/median/stddev/IQR/95% CI, which polybench
// explicitly does not attempt.
package comparator

import "sort"

// Point is one benchmark's result at a point in time, reduced to the
// fields a comparison needs.
type Point struct {
	Name       string
	Lang       string
	NanosPerOp float64
}

// Comparator compares a baseline set of points against a current set.
type Comparator interface {
	Compare(baseline, current []Point) *ComparisonResult
}

// BenchmarkComparison is one benchmark's baseline-vs-current delta.
type BenchmarkComparison struct {
	Name                string
	Lang                string
	Baseline            Point
	Current             Point
	DeltaPercent        float64
	IsRegression        bool
	IsImprovement       bool
	RegressionThreshold float64
}

// ComparisonSummary aggregates a ComparisonResult's per-benchmark deltas.
type ComparisonSummary struct {
	TotalComparisons int
	Regressions      int
	Improvements     int
	AverageDelta     float64
	MaxDelta         float64
	MinDelta         float64
}

// ComparisonResult is the output of comparing two sets of benchmark
// points keyed by (name, lang).
type ComparisonResult struct {
	Benchmarks   []*BenchmarkComparison
	Summary      ComparisonSummary
	Regressions  []string
	Improvements []string
}

// BasicComparator implements Comparator with a fixed regression threshold
// expressed as a ratio (1.05 means current must be 5% slower to count).
type BasicComparator struct {
	RegressionThreshold float64
}

// NewBasicComparator returns a BasicComparator with a 5% regression
// threshold.
func NewBasicComparator() *BasicComparator {
	return &BasicComparator{RegressionThreshold: 1.05}
}

func pointKey(name, lang string) string { return name + "\x00" + lang }

// Compare pairs up baseline and current points by (name, lang) and
// computes a delta for each pair present in both sets.
func (bc *BasicComparator) Compare(baseline, current []Point) *ComparisonResult {
	result := &ComparisonResult{
		Benchmarks:   make([]*BenchmarkComparison, 0, len(current)),
		Regressions:  make([]string, 0),
		Improvements: make([]string, 0),
	}

	baselineByKey := make(map[string]Point, len(baseline))
	for _, p := range baseline {
		baselineByKey[pointKey(p.Name, p.Lang)] = p
	}

	for _, cur := range current {
		base, ok := baselineByKey[pointKey(cur.Name, cur.Lang)]
		if !ok {
			continue
		}

		comp := bc.compare(base, cur)
		result.Benchmarks = append(result.Benchmarks, comp)

		switch {
		case comp.IsRegression:
			result.Regressions = append(result.Regressions, comp.Name)
		case comp.IsImprovement:
			result.Improvements = append(result.Improvements, comp.Name)
		}
	}

	result.Summary = bc.summarize(result)
	return result
}

func (bc *BasicComparator) compare(baseline, current Point) *BenchmarkComparison {
	comp := &BenchmarkComparison{
		Name:                current.Name,
		Lang:                current.Lang,
		Baseline:            baseline,
		Current:             current,
		RegressionThreshold: bc.RegressionThreshold,
	}

	if baseline.NanosPerOp == 0 {
		return comp
	}

	comp.DeltaPercent = ((current.NanosPerOp - baseline.NanosPerOp) / baseline.NanosPerOp) * 100
	ratio := current.NanosPerOp / baseline.NanosPerOp
	comp.IsRegression = ratio > bc.RegressionThreshold
	comp.IsImprovement = !comp.IsRegression && comp.DeltaPercent < 0
	return comp
}

func (bc *BasicComparator) summarize(result *ComparisonResult) ComparisonSummary {
	summary := ComparisonSummary{
		TotalComparisons: len(result.Benchmarks),
		Regressions:      len(result.Regressions),
		Improvements:     len(result.Improvements),
	}
	if len(result.Benchmarks) == 0 {
		return summary
	}

	deltas := make([]float64, 0, len(result.Benchmarks))
	var sum float64
	for _, comp := range result.Benchmarks {
		deltas = append(deltas, comp.DeltaPercent)
		sum += comp.DeltaPercent
	}
	sort.Float64s(deltas)

	summary.MinDelta = deltas[0]
	summary.MaxDelta = deltas[len(deltas)-1]
	summary.AverageDelta = sum / float64(len(deltas))
	return summary
}

// Ratio returns current/baseline, the figure the scheduler's cross-language
// ratio summary prints (e.g. "ts 1.34x vs go").
func Ratio(baseline, current Point) float64 {
	if baseline.NanosPerOp == 0 {
		return 0
	}
	return current.NanosPerOp / baseline.NanosPerOp
}
