package validator

import (
	"context"
	"testing"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/runtime"
)

// fakeFactory builds runtimes whose compile check outcome is driven purely
// by a per-(lang, benchmark) failure map, letting the validator's
// classification and dedup logic be tested without a real toolchain.
type fakeFactory struct {
	failures map[string]string // key: lang+"/"+fullName -> error message
}

func (f *fakeFactory) New(lang ir.Lang) (runtime.Runtime, bool) {
	return &fakeRuntime{lang: lang, failures: f.failures}, true
}

type fakeRuntime struct {
	lang     ir.Lang
	failures map[string]string
}

func (r *fakeRuntime) Name() string            { return string(r.lang) }
func (r *fakeRuntime) Lang() ir.Lang           { return r.lang }
func (r *fakeRuntime) SetProjectRoot(string)   {}
func (r *fakeRuntime) SetAnvilRPCURL(string)   {}
func (r *fakeRuntime) Initialize(context.Context) error { return nil }

func (r *fakeRuntime) GenerateCheckSource(suite *ir.SuiteIR, spec *ir.BenchmarkSpec) (string, error) {
	return string(r.lang) + "/" + spec.FullName, nil
}

func (r *fakeRuntime) CompileCheck(ctx context.Context, fullName, source string, cache *compilecache.Cache) (compilecache.CompileResult, error) {
	if msg, ok := r.failures[string(r.lang)+"/"+fullName]; ok {
		return compilecache.CompileResult{OK: false, Message: msg}, nil
	}
	return compilecache.CompileResult{OK: true}, nil
}

func (r *fakeRuntime) Precompile(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, cache *compilecache.Cache) (string, error) {
	return "", nil
}

func (r *fakeRuntime) RunBenchmark(ctx context.Context, spec *ir.BenchmarkSpec, binaryPath string) (*runtime.HarnessResult, error) {
	return nil, nil
}

func (r *fakeRuntime) Shutdown(context.Context) error   { return nil }
func (r *fakeRuntime) LastPrecompileNanos() int64       { return 0 }
func (r *fakeRuntime) LastLineMap() runtime.LineMap     { return runtime.LineMap{} }

func twoBenchSuite() *ir.SuiteIR {
	return &ir.SuiteIR{
		Name: "suite",
		Benchmarks: []*ir.BenchmarkSpec{
			{
				Name:     "bench_a",
				FullName: "suite/bench_a",
				Sources: map[ir.Lang]ir.LangSource{
					ir.Go:   {Impl: "a()"},
					ir.Rust: {Impl: "a()"},
				},
			},
			{
				Name:     "bench_b",
				FullName: "suite/bench_b",
				Sources: map[ir.Lang]ir.LangSource{
					ir.Go:   {Impl: "b()"},
					ir.Rust: {Impl: "b()"},
				},
			},
		},
	}
}

func TestValidateWithCache_AllPass(t *testing.T) {
	suite := twoBenchSuite()
	v := New(&fakeFactory{}, 4)

	errs, stats, err := v.ValidateWithCache(context.Background(), suite, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %d: %+v", len(errs), errs)
	}
	if stats.TotalChecks != 4 {
		t.Errorf("expected 4 total checks (2 langs x 2 benchmarks), got %d", stats.TotalChecks)
	}
}

func TestValidateWithCache_SetupFailureSkipsLangInPhase2(t *testing.T) {
	suite := twoBenchSuite()
	v := New(&fakeFactory{failures: map[string]string{
		"go/suite/bench_a": `cannot find module "fmt": import error`,
	}}, 4)

	errs, _, err := v.ValidateWithCache(context.Background(), suite, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one deduplicated error, got %d: %+v", len(errs), errs)
	}

	e := errs[0]
	if e.Source != SourceSetup {
		t.Errorf("expected SourceSetup classification, got %v", e.Source)
	}
	if e.Lang != ir.Go {
		t.Errorf("expected go lang, got %v", e.Lang)
	}
	if len(e.AffectedBenchmarks) != 2 {
		t.Errorf("expected the setup failure attributed to both go benchmarks, got %v", e.AffectedBenchmarks)
	}
}

func TestValidateWithCache_ImplementationFailureIsolated(t *testing.T) {
	suite := twoBenchSuite()
	v := New(&fakeFactory{failures: map[string]string{
		"rust/suite/bench_b": "mismatched types: expected i32, found &str",
	}}, 4)

	errs, _, err := v.ValidateWithCache(context.Background(), suite, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
	if errs[0].Source != SourceImplementation {
		t.Errorf("expected SourceImplementation, got %v", errs[0].Source)
	}
	if len(errs[0].AffectedBenchmarks) != 1 || errs[0].AffectedBenchmarks[0] != "suite/bench_b" {
		t.Errorf("expected failure isolated to bench_b, got %v", errs[0].AffectedBenchmarks)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		message string
		want    ErrorSource
	}{
		{`undefined: import "os"`, SourceSetup},
		{"cannot find function sortInts", SourceHelper},
		{"mismatched types", SourceImplementation},
	}
	for _, c := range cases {
		if got := classifyError(c.message); got != c.want {
			t.Errorf("classifyError(%q) = %v, want %v", c.message, got, c.want)
		}
	}
}

func TestNormalizeMessage_StripsLocationAndHints(t *testing.T) {
	raw := "foo.rs:12:5: mismatched types\nhelp: try converting the value\nnote: see also"
	got := normalizeMessage(raw)
	if got == raw {
		t.Error("expected normalization to change the message")
	}
	if contains := (got == "mismatched types"); !contains {
		t.Errorf("expected normalized message to be 'mismatched types', got %q", got)
	}
}

func TestDedupeErrors_MergesAffectedBenchmarks(t *testing.T) {
	errs := []*ValidationError{
		{Lang: ir.Go, NormalizedMessage: "boom", AffectedBenchmarks: []string{"a"}},
		{Lang: ir.Go, NormalizedMessage: "boom", AffectedBenchmarks: []string{"b"}},
	}
	deduped := dedupeErrors(errs)
	if len(deduped) != 1 {
		t.Fatalf("expected one deduplicated error, got %d", len(deduped))
	}
	if len(deduped[0].AffectedBenchmarks) != 2 {
		t.Errorf("expected merged affected benchmarks, got %v", deduped[0].AffectedBenchmarks)
	}
}

func TestSortErrors_LangThenCountDescending(t *testing.T) {
	errs := []*ValidationError{
		{Lang: ir.Rust, AffectedBenchmarks: []string{"a"}},
		{Lang: ir.Go, AffectedBenchmarks: []string{"a", "b"}},
		{Lang: ir.Go, AffectedBenchmarks: []string{"a"}},
	}
	sortErrors(errs)

	if errs[0].Lang != ir.Go || len(errs[0].AffectedBenchmarks) != 2 {
		t.Errorf("expected go/2-affected first, got %+v", errs[0])
	}
	if errs[1].Lang != ir.Go || len(errs[1].AffectedBenchmarks) != 1 {
		t.Errorf("expected go/1-affected second, got %+v", errs[1])
	}
	if errs[2].Lang != ir.Rust {
		t.Errorf("expected rust last, got %+v", errs[2])
	}
}
