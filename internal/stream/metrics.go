// Package stream exposes a running scheduler over HTTP: the latest result
// tree, a WebSocket progress feed, and Prometheus metrics.
package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jpequegn/polybench/internal/ir"
)

const metricsNamespace = "polybench"

// Metrics holds the Prometheus collectors exported at /metrics.
type Metrics struct {
	CompileCacheHits   prometheus.Counter
	CompileCacheMisses prometheus.Counter
	RunsTotal          *prometheus.CounterVec
	BenchmarksTotal    *prometheus.CounterVec
	NanosPerOp         *prometheus.HistogramVec
}

// NewMetrics registers and returns a fresh Metrics collector set.
func NewMetrics() *Metrics {
	return &Metrics{
		CompileCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_cache_hits_total",
			Help:      "Compile cache hits across all validate/run invocations served by this process.",
		}),
		CompileCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_cache_misses_total",
			Help:      "Compile cache misses across all validate/run invocations served by this process.",
		}),
		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Scheduler runs started, by language.",
		}, []string{"lang"}),
		BenchmarksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "benchmarks_total",
			Help:      "Benchmark (suite, lang) runs completed, by outcome.",
		}, []string{"lang", "outcome"}),
		NanosPerOp: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "nanos_per_op",
			Help:      "Distribution of measured nanoseconds-per-op, by language.",
			Buckets:   prometheus.ExponentialBuckets(10, 4, 12),
		}, []string{"lang"}),
	}
}

// RecordCacheStats sets the cumulative cache hit/miss counters. Counters
// only increase, so this adds the delta since the last observed totals.
func (m *Metrics) RecordCacheStats(hits, misses int64, lastHits, lastMisses *int64) {
	if d := hits - *lastHits; d > 0 {
		m.CompileCacheHits.Add(float64(d))
	}
	if d := misses - *lastMisses; d > 0 {
		m.CompileCacheMisses.Add(float64(d))
	}
	*lastHits, *lastMisses = hits, misses
}

func (m *Metrics) recordRunStarted(lang ir.Lang) {
	m.RunsTotal.WithLabelValues(string(lang)).Inc()
}

func (m *Metrics) recordBenchmarkOutcome(lang ir.Lang, outcome string) {
	m.BenchmarksTotal.WithLabelValues(string(lang), outcome).Inc()
}

func (m *Metrics) recordNanosPerOp(lang ir.Lang, nanosPerOp float64) {
	m.NanosPerOp.WithLabelValues(string(lang)).Observe(nanosPerOp)
}
