package scheduler

import (
	"time"

	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/measurement"
)

// Measurement holds exactly one of a single-run Aggregate (Count == 1) or a
// MultiRunAggregate (Count > 1), matching §E.5's emitted shape.
type Measurement struct {
	Single *measurement.Aggregate
	Multi  *measurement.MultiRunAggregate
}

// NanosPerOp returns the representative nanoseconds-per-op value used for
// ratio summaries: the mean for a single run, the median-of-means for a
// multi-run aggregate.
func (m Measurement) NanosPerOp() float64 {
	switch {
	case m.Multi != nil:
		return m.Multi.Median
	case m.Single != nil:
		return m.Single.Mean
	default:
		return 0
	}
}

// TimedOut reports whether this measurement represents a run (or every run,
// for a multi-run aggregate) that hit its timeout before producing samples.
func (m Measurement) TimedOut() bool {
	switch {
	case m.Multi != nil:
		return len(m.Multi.TimedOutAt) == m.Multi.RunCount && m.Multi.RunCount > 0
	case m.Single != nil:
		return m.Single.TimedOut
	default:
		return false
	}
}

// Failed reports whether the single run this Measurement wraps produced no
// measurement for a reason other than timing out (spawn failure, non-zero
// exit, unparsable output). Multi-run aggregates never set this: a failed
// run is simply absent from PerRun rather than folded in as a zero sample.
func (m Measurement) Failed() bool {
	return m.Single != nil && m.Single.Failed
}

// AsyncOutcome carries the §C.3 success/error bookkeeping for one
// language's async benchmark run, alongside its timing Measurement.
type AsyncOutcome struct {
	SuccessCount uint64
	ErrorCount   uint64
	ErrorSamples []string
}

// RatioSummary expresses one benchmark's cross-language result as a ratio
// against a designated baseline language's NanosPerOp. No significance
// testing is attached; it is a plain ratio.
type RatioSummary struct {
	BaselineLang ir.Lang
	Ratios       map[ir.Lang]float64
}

// BenchmarkResult is one benchmark's outcome across every language that
// compiled and ran successfully.
type BenchmarkResult struct {
	Name         string
	FullName     string
	Kind         string
	FairnessMode string
	FairnessSeed uint64
	Measurements map[ir.Lang]Measurement
	Ratios       *RatioSummary
	Skipped      map[ir.Lang]string
	AsyncStats   map[ir.Lang]AsyncOutcome
}

// SuiteResults is one suite's ordered benchmark results.
type SuiteResults struct {
	Name        string
	Description string
	Benchmarks  []*BenchmarkResult
}

// BenchmarkResults is the top-level output tree of a scheduler run.
type BenchmarkResults struct {
	RunID     string
	Suites    []*SuiteResults
	StartedAt time.Time
	Duration  time.Duration
}
