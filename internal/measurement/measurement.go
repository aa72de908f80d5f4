package measurement

import (
	"math"
	"sort"
)

// FromSample reduces one run's raw per-iteration nanosecond samples into an
// Aggregate. When outlierDetection is set, samples outside
// [Q1-1.5*IQR, Q3+1.5*IQR] are dropped before the remaining statistics are
// computed; OutliersRemoved records how many were dropped.
func FromSample(s Sample, outlierDetection bool, cvThreshold float64) Aggregate {
	if s.TimedOut {
		return TimeoutMarker(uint64(len(s.NanosPerOp)))
	}

	data := append([]float64(nil), s.NanosPerOp...)
	sort.Float64s(data)

	removed := 0
	if outlierDetection && len(data) >= 4 {
		filtered, n := filterIQR(data)
		data = filtered
		removed = n
	}

	agg := Aggregate{
		Iterations:      uint64(len(s.NanosPerOp)),
		OutliersRemoved: removed,
	}
	if len(data) == 0 {
		return agg
	}

	agg.Min = data[0]
	agg.Max = data[len(data)-1]
	agg.Mean = mean(data)
	agg.Median = percentileSorted(data, 50)
	agg.P50 = agg.Median
	agg.P75 = percentileSorted(data, 75)
	agg.P99 = percentileSorted(data, 99)
	agg.P995 = percentileSorted(data, 99.5)
	agg.StdDev = stdDev(data, agg.Mean)
	if agg.Mean != 0 {
		agg.CV = (agg.StdDev / agg.Mean) * 100.0
		agg.OpsPerSec = 1e9 / agg.Mean
	}
	for _, v := range data {
		agg.TotalNanos += v
	}
	_ = cvThreshold // unused: CV is computed, but no stability flag is derived from it

	return agg
}

// FromAggregate builds an Aggregate from only an iteration count and a
// total elapsed time, for callers that never captured per-iteration
// samples (a harness that reports just totals, or an async benchmark that
// only tracked a running sum). Every percentile collapses to the single
// mean-per-op value since there is no distribution to speak of.
func FromAggregate(iterations uint64, totalNanos float64) Aggregate {
	agg := Aggregate{Iterations: iterations, TotalNanos: totalNanos}
	if iterations == 0 {
		return agg
	}
	perOp := totalNanos / float64(iterations)
	agg.Mean = perOp
	agg.Median = perOp
	agg.Min = perOp
	agg.Max = perOp
	agg.P50, agg.P75, agg.P99, agg.P995 = perOp, perOp, perOp, perOp
	if perOp > 0 {
		agg.OpsPerSec = 1e9 / perOp
	}
	return agg
}

// FromAggregateWithSampleStats is FromAggregate for a caller that did
// compute its own spread (an async harness running reservoir-sampled
// statistics itself rather than shipping every sample back for
// FromSample to reduce).
func FromAggregateWithSampleStats(iterations uint64, totalNanos, stdDev, min, max float64) Aggregate {
	agg := FromAggregate(iterations, totalNanos)
	agg.StdDev = stdDev
	if agg.Mean != 0 {
		agg.CV = (stdDev / agg.Mean) * 100.0
	}
	if min > 0 {
		agg.Min = min
	}
	if max > 0 {
		agg.Max = max
	}
	return agg
}

// FailureMarker returns an Aggregate representing a run that produced no
// measurement for a reason distinct from timing out: a spawn failure, a
// non-zero exit, or output that failed to parse. Scheduler callers must
// not confuse this with TimeoutMarker; §7's error taxonomy keeps the two
// apart.
func FailureMarker(reason string) Aggregate {
	return Aggregate{Failed: true, FailureReason: reason}
}

// WithAllocs attaches a per-iteration average allocation-byte count to an
// already-computed Aggregate.
func WithAllocs(agg Aggregate, allocatedBytes []float64) Aggregate {
	if len(allocatedBytes) == 0 {
		return agg
	}
	agg.HasMemory = true
	agg.AllocedBytesAvg = mean(allocatedBytes)
	return agg
}

// TimeoutMarker returns an Aggregate representing a run that hit its
// timeout before producing usable samples.
func TimeoutMarker(iterations uint64) Aggregate {
	return Aggregate{Iterations: iterations, TimedOut: true}
}

// AggregateRuns combines several independent per-run Aggregates (the
// BenchmarkSpec.Count > 1 case) into one MultiRunAggregate: a median of the
// per-run means, and a 95% confidence interval. For two or three runs the
// CI degenerates to [min, max] of the per-run means, since an empirical
// percentile needs more samples to be meaningful; from four runs on it is
// the 2.5th/97.5th nearest-rank percentile of the per-run means.
func AggregateRuns(runs []Aggregate) MultiRunAggregate {
	out := MultiRunAggregate{RunCount: len(runs), PerRun: runs}
	if len(runs) == 0 {
		return out
	}

	means := make([]float64, 0, len(runs))
	for i, r := range runs {
		if r.TimedOut {
			out.TimedOutAt = append(out.TimedOutAt, i)
			continue
		}
		means = append(means, r.Mean)
	}
	if len(means) == 0 {
		return out
	}

	sort.Float64s(means)
	out.Mean = mean(means)
	out.Median = percentileSorted(means, 50)
	out.StdDev = stdDev(means, out.Mean)
	if out.Mean != 0 {
		out.CV = (out.StdDev / out.Mean) * 100.0
	}

	if len(means) <= 3 {
		out.CI = ConfidenceInterval{Low: means[0], High: means[len(means)-1]}
	} else {
		out.CI = ConfidenceInterval{
			Low:  percentileSorted(means, 2.5),
			High: percentileSorted(means, 97.5),
		}
	}

	return out
}

// filterIQR drops values outside 1.5*IQR of the interquartile range from a
// sorted slice, returning the retained values and the count dropped.
func filterIQR(sorted []float64) ([]float64, int) {
	q1 := percentileSorted(sorted, 25)
	q3 := percentileSorted(sorted, 75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	kept := make([]float64, 0, len(sorted))
	for _, v := range sorted {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	return kept, len(sorted) - len(kept)
}

// percentileSorted returns the nearest-rank percentile of an
// already-ascending-sorted slice.
func percentileSorted(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := int(math.Ceil(pct/100.0*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// stdDev is the population standard deviation (not sample), matching the
// original implementation's choice for a fixed-size measurement window.
func stdDev(data []float64, m float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var variance float64
	for _, v := range data {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(data))
	return math.Sqrt(variance)
}
