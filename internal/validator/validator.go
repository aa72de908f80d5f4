package validator

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/runtime"
)

// ErrorSource classifies where a compile failure originates, driving how
// broadly it is attributed across a suite's benchmarks.
type ErrorSource int

const (
	SourceImplementation ErrorSource = iota
	SourceSetup
	SourceHelper
)

func (s ErrorSource) String() string {
	switch s {
	case SourceSetup:
		return "setup"
	case SourceHelper:
		return "helper"
	default:
		return "implementation"
	}
}

// ValidationError is one deduplicated compile failure, attributed to
// every benchmark it affects.
type ValidationError struct {
	Lang               ir.Lang
	Source             ErrorSource
	Message            string
	NormalizedMessage  string
	AffectedBenchmarks []string
}

// Stats summarizes a validation pass's interaction with the compile cache.
type Stats struct {
	Hits        int
	Misses      int
	TotalChecks int
}

// RuntimeFactory constructs a Runtime for a language on demand. A
// *runtime.Registry satisfies this without modification; tests supply a
// lighter-weight fake.
type RuntimeFactory interface {
	New(lang ir.Lang) (runtime.Runtime, bool)
}

// Validator runs the two-phase compile-validation protocol described in
// §4.D: a bootstrap check per language, then a bounded parallel fan-out
// over the rest of the suite.
type Validator struct {
	factory     RuntimeFactory
	parallelism int
}

// New returns a Validator that fans Phase 2 out across at most
// parallelism concurrent compile checks. parallelism <= 0 defaults to 4.
func New(factory RuntimeFactory, parallelism int) *Validator {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Validator{factory: factory, parallelism: parallelism}
}

type checkTask struct {
	lang ir.Lang
	spec *ir.BenchmarkSpec
}

type checkOutcome struct {
	task   checkTask
	result compilecache.CompileResult
}

// ValidateWithCache runs Phase 1 bootstrap checks followed by a Phase 2
// fan-out, consulting cache for every compile check so that a validated
// suite whose source is unchanged never re-invokes a compiler.
func (v *Validator) ValidateWithCache(ctx context.Context, suite *ir.SuiteIR, cache *compilecache.Cache) ([]*ValidationError, Stats, error) {
	langs := suiteLangs(suite)

	runtimes := make(map[ir.Lang]runtime.Runtime, len(langs))
	for _, lang := range langs {
		rt, ok := v.factory.New(lang)
		if !ok {
			continue
		}
		rt.SetProjectRoot("")
		runtimes[lang] = rt
	}

	errorsBySource := make([]*ValidationError, 0)
	sharedFailed := make(map[ir.Lang]bool)
	checked := make(map[checkTask]bool)

	bootstrap := firstBenchmarkPerLang(suite, runtimes)

	var mu sync.Mutex
	var stats Stats

	runCheck := func(lang ir.Lang, spec *ir.BenchmarkSpec) checkOutcome {
		rt := runtimes[lang]
		source, err := rt.GenerateCheckSource(suite, spec)
		if err != nil {
			return checkOutcome{task: checkTask{lang, spec}, result: compilecache.CompileResult{OK: false, Message: err.Error()}}
		}

		mu.Lock()
		stats.TotalChecks++
		mu.Unlock()

		if cache != nil {
			if _, ok := cache.Get(spec.FullName, string(lang), source); ok {
				mu.Lock()
				stats.Hits++
				mu.Unlock()
			} else {
				mu.Lock()
				stats.Misses++
				mu.Unlock()
			}
		}

		result, err := rt.CompileCheck(ctx, spec.FullName, source, cache)
		if err != nil {
			result = compilecache.CompileResult{OK: false, Message: err.Error()}
		}
		if !result.OK {
			result.Message = runtime.RemapMessage(result.Message, rt.LastLineMap())
		}
		return checkOutcome{task: checkTask{lang, spec}, result: result}
	}

	// Phase 1 — bootstrap, one benchmark per language, run concurrently.
	bootstrapPool := pool.New().WithMaxGoroutines(v.parallelism)
	bootstrapOutcomes := make([]checkOutcome, 0, len(bootstrap))
	var bmu sync.Mutex
	for lang, spec := range bootstrap {
		lang, spec := lang, spec
		bootstrapPool.Go(func() {
			outcome := runCheck(lang, spec)
			bmu.Lock()
			bootstrapOutcomes = append(bootstrapOutcomes, outcome)
			bmu.Unlock()
		})
	}
	bootstrapPool.Wait()

	for _, outcome := range bootstrapOutcomes {
		checked[outcome.task] = true
		if outcome.result.OK {
			continue
		}

		src := classifyError(outcome.result.Message)
		affected := []string{outcome.task.spec.FullName}
		if src == SourceSetup || src == SourceHelper {
			sharedFailed[outcome.task.lang] = true
			affected = benchmarkNamesForLang(suite, outcome.task.lang)
		}

		errorsBySource = append(errorsBySource, &ValidationError{
			Lang:               outcome.task.lang,
			Source:             src,
			Message:            outcome.result.Message,
			NormalizedMessage:  normalizeMessage(outcome.result.Message),
			AffectedBenchmarks: affected,
		})
	}

	// Phase 2 — parallel fan-out over everything not covered by a shared
	// failure.
	var tasks []checkTask
	for _, spec := range suite.Benchmarks {
		for lang := range runtimes {
			if sharedFailed[lang] || !spec.HasLang(lang) {
				continue
			}
			task := checkTask{lang, spec}
			if checked[task] {
				continue
			}
			tasks = append(tasks, task)
		}
	}

	fanOutPool := pool.New().WithMaxGoroutines(v.parallelism)
	var fmu sync.Mutex
	fanOutOutcomes := make([]checkOutcome, 0, len(tasks))
	for _, task := range tasks {
		task := task
		fanOutPool.Go(func() {
			outcome := runCheck(task.lang, task.spec)
			fmu.Lock()
			fanOutOutcomes = append(fanOutOutcomes, outcome)
			fmu.Unlock()
		})
	}
	fanOutPool.Wait()

	for _, outcome := range fanOutOutcomes {
		if outcome.result.OK {
			continue
		}
		errorsBySource = append(errorsBySource, &ValidationError{
			Lang:               outcome.task.lang,
			Source:             SourceImplementation,
			Message:            outcome.result.Message,
			NormalizedMessage:  normalizeMessage(outcome.result.Message),
			AffectedBenchmarks: []string{outcome.task.spec.FullName},
		})
	}

	deduped := dedupeErrors(errorsBySource)
	sortErrors(deduped)

	return deduped, stats, nil
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

func firstBenchmarkPerLang(suite *ir.SuiteIR, runtimes map[ir.Lang]runtime.Runtime) map[ir.Lang]*ir.BenchmarkSpec {
	out := make(map[ir.Lang]*ir.BenchmarkSpec, len(runtimes))
	for lang := range runtimes {
		for _, spec := range suite.Benchmarks {
			if spec.HasLang(lang) {
				out[lang] = spec
				break
			}
		}
	}
	return out
}

func benchmarkNamesForLang(suite *ir.SuiteIR, lang ir.Lang) []string {
	var out []string
	for _, spec := range suite.Benchmarks {
		if spec.HasLang(lang) {
			out = append(out, spec.FullName)
		}
	}
	return out
}

var (
	setupKeywords = []string{"import", "use ", "include", "module"}
	helperKeywords = []string{"not found", "cannot find", "no such function", "does not exist on type"}
)

// classifyError implements §4.D's ordered keyword classification:
// import/use/include/module mentions mean Setup; not-found/cannot-find/
// missing-symbol mentions mean Helper; anything else is Implementation.
func classifyError(message string) ErrorSource {
	lower := strings.ToLower(message)
	for _, kw := range setupKeywords {
		if strings.Contains(lower, kw) {
			return SourceSetup
		}
	}
	for _, kw := range helperKeywords {
		if strings.Contains(lower, kw) {
			return SourceHelper
		}
	}
	return SourceImplementation
}

var (
	filePathRe    = regexp.MustCompile(`(?m)^\s*(-->|at)?\s*\S+\.(go|rs|ts|py|c|cs|zig):\d+(:\d+)?:?`)
	sectionRefRe  = regexp.MustCompile(`\s*\([\w./@ -]+:\d+\)`)
	lineNumberRe  = regexp.MustCompile(`\bline \d+\b`)
	helpHintRe    = regexp.MustCompile(`(?m)^\s*(help|note):.*$`)
)

// normalizeMessage strips file paths, remapped section references, line
// numbers, and help/note hints so that the same underlying bug collapses
// to one error across benchmarks regardless of which line it was
// originally reported against.
func normalizeMessage(message string) string {
	out := filePathRe.ReplaceAllString(message, "")
	out = sectionRefRe.ReplaceAllString(out, "")
	out = lineNumberRe.ReplaceAllString(out, "")
	out = helpHintRe.ReplaceAllString(out, "")
	return strings.Join(strings.Fields(out), " ")
}

func dedupeErrors(errs []*ValidationError) []*ValidationError {
	byKey := make(map[string]*ValidationError)
	var order []string

	for _, e := range errs {
		key := string(e.Lang) + "\x00" + e.NormalizedMessage
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = e
			order = append(order, key)
			continue
		}
		existing.AffectedBenchmarks = mergeUnique(existing.AffectedBenchmarks, e.AffectedBenchmarks)
	}

	out := make([]*ValidationError, 0, len(order))
	for _, key := range order {
		out = append(out, byKey[key])
	}
	return out
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// sortErrors orders by lang tag ascending, then affected-benchmark count
// descending, per §4.D step 4.
func sortErrors(errs []*ValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Lang != errs[j].Lang {
			return errs[i].Lang < errs[j].Lang
		}
		return len(errs[i].AffectedBenchmarks) > len(errs[j].AffectedBenchmarks)
	})
}
