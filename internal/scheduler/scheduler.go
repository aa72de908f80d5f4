package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/measurement"
	"github.com/jpequegn/polybench/internal/runtime"
)

// RuntimeFactory constructs a Runtime for a language on demand. A
// *runtime.Registry satisfies this without modification.
type RuntimeFactory interface {
	New(lang ir.Lang) (runtime.Runtime, bool)
}

// Scheduler drives suites through the per-suite loop described in §E.2:
// deterministic ordering, fairness-mode-governed interleaving, per-run
// timeouts, and result emission.
type Scheduler struct {
	factory     RuntimeFactory
	anvil       AnvilSpawner
	progress    ProgressHandler
	runID       string
	projectRoot string
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

func WithAnvilSpawner(a AnvilSpawner) Option {
	return func(s *Scheduler) { s.anvil = a }
}

func WithProgressHandler(h ProgressHandler) Option {
	return func(s *Scheduler) { s.progress = h }
}

func WithRunID(id string) Option {
	return func(s *Scheduler) { s.runID = id }
}

func WithProjectRoot(root string) Option {
	return func(s *Scheduler) { s.projectRoot = root }
}

// New constructs a Scheduler. With no options it spawns no Anvil node,
// discards progress events, and generates a random run ID.
func New(factory RuntimeFactory, opts ...Option) *Scheduler {
	s := &Scheduler{
		factory:  factory,
		anvil:    NoopAnvilSpawner{},
		progress: NoopProgressHandler,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.NewString()
	}
	return s
}

// Run executes every suite in bench in order and returns the assembled
// result tree.
func (s *Scheduler) Run(ctx context.Context, bench *ir.BenchmarkIR, cache *compilecache.Cache) (*BenchmarkResults, error) {
	start := time.Now()
	out := &BenchmarkResults{RunID: s.runID, StartedAt: start}

	for _, suite := range bench.Suites {
		suiteResult, err := s.runSuite(ctx, suite, cache)
		if err != nil {
			return out, fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		out.Suites = append(out.Suites, suiteResult)
	}

	out.Duration = time.Since(start)
	return out, nil
}

func (s *Scheduler) runSuite(ctx context.Context, suite *ir.SuiteIR, cache *compilecache.Cache) (*SuiteResults, error) {
	s.progress(ProgressEvent{Type: EventSuiteStarted, Suite: suite.Name})
	defer s.progress(ProgressEvent{Type: EventSuiteCompleted, Suite: suite.Name})

	rpcURL := ""
	if suite.Anvil != nil {
		url, err := s.anvil.Spawn(ctx, suite.Anvil)
		if err != nil {
			return nil, fmt.Errorf("anvil spawn: %w", err)
		}
		rpcURL = url
		defer s.anvil.Shutdown(context.Background())
	}

	runtimes := make(map[ir.Lang]runtime.Runtime)
	for _, lang := range suiteLangs(suite) {
		rt, ok := s.factory.New(lang)
		if !ok {
			continue
		}
		rt.SetProjectRoot(s.projectRoot)
		if rpcURL != "" {
			rt.SetAnvilRPCURL(rpcURL)
		}
		if err := rt.Initialize(ctx); err != nil {
			s.progress(ProgressEvent{Type: EventBenchmarkFailed, Suite: suite.Name, Lang: lang, Err: err})
			continue
		}
		runtimes[lang] = rt
	}
	defer func() {
		for _, rt := range runtimes {
			rt.Shutdown(context.Background())
		}
	}()

	result := &SuiteResults{Name: suite.Name, Description: suite.Description}
	for _, spec := range orderedBenchmarks(suite) {
		s.progress(ProgressEvent{Type: EventBenchmarkStarted, Suite: suite.Name, Benchmark: spec.FullName})
		benchStart := time.Now()

		br, err := s.runBenchmark(ctx, suite, spec, runtimes, cache)
		if err != nil {
			s.progress(ProgressEvent{Type: EventBenchmarkFailed, Suite: suite.Name, Benchmark: spec.FullName, Err: err})
			continue
		}

		s.progress(ProgressEvent{Type: EventBenchmarkCompleted, Suite: suite.Name, Benchmark: spec.FullName, Elapsed: time.Since(benchStart)})
		result.Benchmarks = append(result.Benchmarks, br)
	}

	return result, nil
}

func suiteLangs(suite *ir.SuiteIR) []ir.Lang {
	seen := make(map[ir.Lang]bool)
	var out []ir.Lang
	for _, spec := range suite.Benchmarks {
		for _, lang := range spec.Langs() {
			if !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	return out
}

// orderedBenchmarks applies suite.Order. OrderParallel is executed as
// OrderSequential per §5: benchmarks never run concurrently against each
// other.
func orderedBenchmarks(suite *ir.SuiteIR) []*ir.BenchmarkSpec {
	specs := append([]*ir.BenchmarkSpec(nil), suite.Benchmarks...)
	if suite.Order == ir.OrderRandom {
		Shuffle(specs, resolveSuiteSeed(suite))
	}
	return specs
}

func resolveSuiteSeed(suite *ir.SuiteIR) uint64 {
	if suite.FairnessSeed != nil {
		return *suite.FairnessSeed
	}
	return HashStr("suite:" + suite.Name)
}

func resolveBenchmarkSeed(suite *ir.SuiteIR, spec *ir.BenchmarkSpec) uint64 {
	if spec.FairnessSeed != nil {
		return *spec.FairnessSeed
	}
	return HashStr("bench:" + suite.Name + "/" + spec.FullName)
}

func (s *Scheduler) runBenchmark(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, runtimes map[ir.Lang]runtime.Runtime, cache *compilecache.Cache) (*BenchmarkResult, error) {
	var candidates []ir.Lang
	for _, lang := range spec.Langs() {
		if _, ok := runtimes[lang]; ok {
			candidates = append(candidates, lang)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no initialized runtime implements %s", spec.FullName)
	}

	binaries, skipped := s.precompileAll(ctx, suite, spec, runtimes, candidates, cache)

	var runnable []ir.Lang
	for _, lang := range candidates {
		if _, ok := binaries[lang]; ok {
			runnable = append(runnable, lang)
		}
	}

	count := spec.Count
	if count == 0 {
		count = 1
	}

	seed := resolveBenchmarkSeed(suite, spec)

	var measurements map[ir.Lang]Measurement
	var asyncStats map[ir.Lang]AsyncOutcome
	if spec.FairnessMode == ir.FairnessStrict {
		measurements, asyncStats = s.runStrict(ctx, suite, spec, runtimes, binaries, runnable, count, seed)
	} else {
		measurements, asyncStats = s.runLegacy(ctx, suite, spec, runtimes, binaries, runnable, count)
	}

	br := &BenchmarkResult{
		Name:         spec.Name,
		FullName:     spec.FullName,
		Kind:         spec.Kind.String(),
		FairnessMode: fairnessModeString(spec.FairnessMode),
		FairnessSeed: seed,
		Measurements: measurements,
		Skipped:      skipped,
	}
	if len(asyncStats) > 0 {
		br.AsyncStats = asyncStats
	}
	if suite.BaselineLang != "" {
		br.Ratios = computeRatioSummary(br, suite.BaselineLang)
	}
	return br, nil
}

func fairnessModeString(m ir.FairnessMode) string {
	if m == ir.FairnessStrict {
		return "strict"
	}
	return "legacy"
}

// precompileAll builds every candidate language's artifact before any
// timed run starts, in AllLangs order for determinism. A language whose
// precompile fails is recorded in skipped and excluded from measurement.
func (s *Scheduler) precompileAll(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, runtimes map[ir.Lang]runtime.Runtime, candidates []ir.Lang, cache *compilecache.Cache) (map[ir.Lang]string, map[ir.Lang]string) {
	set := make(map[ir.Lang]bool, len(candidates))
	for _, l := range candidates {
		set[l] = true
	}

	binaries := make(map[ir.Lang]string)
	skipped := make(map[ir.Lang]string)

	for _, lang := range ir.AllLangs {
		if !set[lang] {
			continue
		}
		rt := runtimes[lang]
		binPath, err := rt.Precompile(ctx, suite, spec, cache)
		if err != nil {
			skipped[lang] = err.Error()
			continue
		}
		binaries[lang] = binPath
	}

	return binaries, skipped
}

// runLegacy runs each language to completion (all of its Count repeats)
// before moving to the next, in AllLangs order.
func (s *Scheduler) runLegacy(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, runtimes map[ir.Lang]runtime.Runtime, binaries map[ir.Lang]string, langs []ir.Lang, count uint64) (map[ir.Lang]Measurement, map[ir.Lang]AsyncOutcome) {
	set := make(map[ir.Lang]bool, len(langs))
	for _, l := range langs {
		set[l] = true
	}

	out := make(map[ir.Lang]Measurement, len(langs))
	async := make(map[ir.Lang]AsyncOutcome, len(langs))
	for _, lang := range ir.AllLangs {
		if !set[lang] {
			continue
		}
		runs, outcome := s.runRepeated(ctx, runtimes[lang], spec, binaries[lang], lang, suite.Name, count)
		if runs == nil {
			continue
		}
		out[lang] = reduceAggregates(runs)
		if spec.Kind == ir.Async {
			async[lang] = outcome
		}
	}
	return out, async
}

// runStrict interleaves languages run-by-run: for each of the Count
// repeats, every language runs once, in a per-run shuffled order seeded
// off the benchmark's fairness seed, so no language systematically runs
// while the machine is warmer or cooler than another.
func (s *Scheduler) runStrict(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, runtimes map[ir.Lang]runtime.Runtime, binaries map[ir.Lang]string, langs []ir.Lang, count uint64, seed uint64) (map[ir.Lang]Measurement, map[ir.Lang]AsyncOutcome) {
	perLangRuns := make(map[ir.Lang][]measurement.Aggregate, len(langs))
	perLangAsync := make(map[ir.Lang]AsyncOutcome, len(langs))

	for i := uint64(0); i < count; i++ {
		order := append([]ir.Lang(nil), langs...)
		Shuffle(order, seed^(i+1))

		for _, lang := range order {
			agg, outcome := s.runOnce(ctx, runtimes[lang], spec, binaries[lang], lang, suite.Name, int(i), int(count))
			perLangRuns[lang] = append(perLangRuns[lang], agg)
			perLangAsync[lang] = mergeAsyncOutcome(perLangAsync[lang], outcome)
		}
	}

	out := make(map[ir.Lang]Measurement, len(langs))
	async := make(map[ir.Lang]AsyncOutcome, len(langs))
	for lang, runs := range perLangRuns {
		out[lang] = reduceAggregates(runs)
		if spec.Kind == ir.Async {
			async[lang] = perLangAsync[lang]
		}
	}
	return out, async
}

func (s *Scheduler) runRepeated(ctx context.Context, rt runtime.Runtime, spec *ir.BenchmarkSpec, binPath string, lang ir.Lang, suiteName string, count uint64) ([]measurement.Aggregate, AsyncOutcome) {
	if rt == nil || binPath == "" {
		return nil, AsyncOutcome{}
	}
	runs := make([]measurement.Aggregate, 0, count)
	var outcome AsyncOutcome
	for i := uint64(0); i < count; i++ {
		agg, o := s.runOnce(ctx, rt, spec, binPath, lang, suiteName, int(i), int(count))
		runs = append(runs, agg)
		outcome = mergeAsyncOutcome(outcome, o)
	}
	return runs, outcome
}

func mergeAsyncOutcome(a, b AsyncOutcome) AsyncOutcome {
	a.SuccessCount += b.SuccessCount
	a.ErrorCount += b.ErrorCount
	a.ErrorSamples = append(a.ErrorSamples, b.ErrorSamples...)
	return a
}

// runOnce runs one benchmark binary once and reduces its output into an
// Aggregate. §7's error taxonomy requires three distinct outcomes here:
// a genuine timeout (res.TimedOut) becomes a TimeoutMarker; any other
// RunBenchmark failure (spawn failure, non-zero exit, unparsable output)
// becomes a FailureMarker instead, since collapsing both into "timed out"
// would make invariant 8 ("timed_out implies an actual timeout")
// meaningless.
func (s *Scheduler) runOnce(ctx context.Context, rt runtime.Runtime, spec *ir.BenchmarkSpec, binPath string, lang ir.Lang, suiteName string, runIndex, runCount int) (measurement.Aggregate, AsyncOutcome) {
	runCtx := ctx
	cancel := func() {}
	if spec.TimeoutMs > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(spec.TimeoutMs)*time.Millisecond)
	}
	defer cancel()

	start := time.Now()
	hr, err := rt.RunBenchmark(runCtx, spec, binPath)
	elapsed := time.Since(start)

	s.progress(ProgressEvent{
		Type: EventRunCompleted, Suite: suiteName, Benchmark: spec.FullName,
		Lang: lang, RunIndex: runIndex, RunCount: runCount, Elapsed: elapsed,
	})

	if err != nil {
		return measurement.FailureMarker(err.Error()), AsyncOutcome{}
	}
	if hr == nil {
		return measurement.FailureMarker("harness produced no result"), AsyncOutcome{}
	}
	if hr.TimedOut {
		return measurement.TimeoutMarker(hr.Iterations), AsyncOutcome{}
	}
	if hr.Error != "" {
		return measurement.FailureMarker(hr.Error), AsyncOutcome{}
	}

	outcome := AsyncOutcome{
		SuccessCount: hr.AsyncSuccessCount,
		ErrorCount:   hr.AsyncErrorCount,
		ErrorSamples: hr.AsyncErrorSamples,
	}

	samples := hr.NanosPerOp
	if len(samples) == 0 && len(hr.SuccessfulResults) > 0 {
		samples = hr.SuccessfulResults
	}

	var agg measurement.Aggregate
	if len(samples) == 0 && hr.TotalNanos > 0 {
		agg = measurement.FromAggregate(hr.Iterations, hr.TotalNanos)
	} else {
		sample := measurement.Sample{NanosPerOp: samples, AllocedBytes: hr.AllocedBytes, TimedOut: hr.TimedOut}
		agg = measurement.FromSample(sample, spec.OutlierDetection, spec.CVThreshold)
		if len(hr.AllocedBytes) > 0 {
			agg = measurement.WithAllocs(agg, hr.AllocedBytes)
		}
	}
	return agg, outcome
}

func reduceAggregates(runs []measurement.Aggregate) Measurement {
	if len(runs) == 1 {
		agg := runs[0]
		return Measurement{Single: &agg}
	}
	kept := make([]measurement.Aggregate, 0, len(runs))
	for _, r := range runs {
		if !r.Failed {
			kept = append(kept, r)
		}
	}
	multi := measurement.AggregateRuns(kept)
	return Measurement{Multi: &multi}
}

func computeRatioSummary(br *BenchmarkResult, baseline ir.Lang) *RatioSummary {
	base, ok := br.Measurements[baseline]
	if !ok {
		return nil
	}
	baseNanos := base.NanosPerOp()
	if baseNanos == 0 {
		return nil
	}

	ratios := make(map[ir.Lang]float64, len(br.Measurements))
	for lang, m := range br.Measurements {
		ratios[lang] = m.NanosPerOp() / baseNanos
	}
	return &RatioSummary{BaselineLang: baseline, Ratios: ratios}
}
