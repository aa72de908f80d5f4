package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/procexec"
)

func sampleSuite() (*ir.SuiteIR, *ir.BenchmarkSpec) {
	spec := &ir.BenchmarkSpec{
		Name:     "bench_sort",
		FullName: "suite/bench_sort",
		Kind:     ir.Sync,
		Sources: map[ir.Lang]ir.LangSource{
			ir.Go: {Impl: "sortInts(data)"},
		},
		MeasurementConfig: ir.MeasurementConfig{
			Mode:         ir.ModeFixed,
			Iterations:   10,
			TargetTimeMs: 100,
		},
	}
	suite := &ir.SuiteIR{
		Name:       "suite",
		Benchmarks: []*ir.BenchmarkSpec{spec},
		Setup: map[ir.Lang]ir.SetupSections{
			ir.Go: {Declarations: "var data = []int{3, 1, 2}"},
		},
	}
	return suite, spec
}

// fakeShellProfile builds a Profile whose toolchain commands are all
// /bin/sh -c one-liners, the same way procexec's own tests fake external
// tools without depending on a real compiler being installed.
func fakeShellProfile(compileExit, checkExit int) Profile {
	p := goProfile()
	p.ProbeCmd = func() procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", "exit 0"}}
	}
	p.CheckCmd = func(root, srcPath string) procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", shExit(checkExit)}}
	}
	p.CompileCmd = func(root, srcPath, binPath string) procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", "cp /bin/true " + binPath + "; " + shExit(compileExit)}}
	}
	p.RunCmd = func(binPath string) procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", "echo '{\"benchmark\":\"suite/bench_sort\",\"lang\":\"go\",\"kind\":\"sync\",\"iterations\":10,\"nanos_per_op\":[1,2,3]}'"}}
	}
	return p
}

func shExit(code int) string {
	if code == 0 {
		return "exit 0"
	}
	return "echo boom 1>&2; exit 1"
}

func TestGenerateSource_EightPartOrdering(t *testing.T) {
	suite, spec := sampleSuite()
	src, err := GenerateSource(goProfile(), suite, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	declIdx := strings.Index(src, "var data")
	benchIdx := strings.Index(src, "func bench()")
	mainIdx := strings.Index(src, "func main()")

	if declIdx < 0 || benchIdx < 0 || mainIdx < 0 {
		t.Fatalf("missing expected sections in generated source:\n%s", src)
	}
	if !(declIdx < benchIdx && benchIdx < mainIdx) {
		t.Errorf("expected declarations before bench before main, got decl=%d bench=%d main=%d", declIdx, benchIdx, mainIdx)
	}
}

func TestGenerateSource_MissingLang(t *testing.T) {
	suite, spec := sampleSuite()
	_, err := GenerateSource(rustProfile(), suite, spec)
	if err == nil {
		t.Fatal("expected error for benchmark with no rust implementation")
	}
}

func TestGenerateSource_MissingFixture(t *testing.T) {
	suite, spec := sampleSuite()
	spec.FixtureRefs = []string{"missing"}
	_, err := GenerateSource(goProfile(), suite, spec)
	if err == nil {
		t.Fatal("expected error for undeclared fixture reference")
	}
}

func TestRuntime_InitializeSuccess(t *testing.T) {
	rt := New(fakeShellProfile(0, 0))
	rt.SetProjectRoot(t.TempDir())
	if err := rt.Initialize(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRuntime_InitializeFailure(t *testing.T) {
	p := fakeShellProfile(0, 0)
	p.ProbeCmd = func() procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", "exit 1"}}
	}
	rt := New(p)
	if err := rt.Initialize(context.Background()); err == nil {
		t.Fatal("expected error when toolchain probe fails")
	}
}

func TestRuntime_CompileCheckCachesResult(t *testing.T) {
	rt := New(fakeShellProfile(0, 0))
	rt.SetProjectRoot(t.TempDir())
	cache := compilecache.New(t.TempDir() + "/cache.json")

	result, err := rt.CompileCheck(context.Background(), "suite/bench_sort", "package main", cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected OK compile result, got %+v", result)
	}

	hits, misses := cache.Stats()
	if hits != 0 || misses != 1 {
		t.Errorf("expected one miss on first check, got hits=%d misses=%d", hits, misses)
	}

	if _, err := rt.CompileCheck(context.Background(), "suite/bench_sort", "package main", cache); err != nil {
		t.Fatalf("unexpected error on cached check: %v", err)
	}
	hits, misses = cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected a cache hit on second check, got hits=%d misses=%d", hits, misses)
	}
}

func TestRuntime_CompileCheckFailure(t *testing.T) {
	rt := New(fakeShellProfile(0, 1))
	rt.SetProjectRoot(t.TempDir())
	cache := compilecache.New(t.TempDir() + "/cache.json")

	result, err := rt.CompileCheck(context.Background(), "suite/bench_sort", "package main", cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK {
		t.Fatal("expected compile failure to be reported in result, not as an error")
	}
	if result.Message == "" {
		t.Error("expected a non-empty failure message")
	}
}

func TestRuntime_PrecompileAndCacheHit(t *testing.T) {
	suite, spec := sampleSuite()
	rt := New(fakeShellProfile(0, 0))
	rt.SetProjectRoot(t.TempDir())
	cache := compilecache.New(t.TempDir() + "/cache.json")

	binPath, err := rt.Precompile(context.Background(), suite, spec, cache)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if binPath == "" {
		t.Fatal("expected a binary path")
	}
	firstNanos := rt.LastPrecompileNanos()

	binPath2, err := rt.Precompile(context.Background(), suite, spec, cache)
	if err != nil {
		t.Fatalf("unexpected error on second precompile: %v", err)
	}
	if binPath2 != binPath {
		t.Errorf("expected same binary path on cache hit, got %s vs %s", binPath2, binPath)
	}
	if rt.LastPrecompileNanos() != 0 {
		t.Errorf("expected LastPrecompileNanos to reset to 0 on cache hit, got %d (first was %d)", rt.LastPrecompileNanos(), firstNanos)
	}
}

func TestRuntime_PrecompileFailure(t *testing.T) {
	suite, spec := sampleSuite()
	rt := New(fakeShellProfile(1, 0))
	rt.SetProjectRoot(t.TempDir())
	cache := compilecache.New(t.TempDir() + "/cache.json")

	if _, err := rt.Precompile(context.Background(), suite, spec, cache); err == nil {
		t.Fatal("expected error on compile failure")
	}
}

func TestRuntime_RunBenchmarkParsesResult(t *testing.T) {
	_, spec := sampleSuite()
	rt := New(fakeShellProfile(0, 0))

	result, err := rt.RunBenchmark(context.Background(), spec, "/unused")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Benchmark != spec.FullName {
		t.Errorf("expected benchmark name %s, got %s", spec.FullName, result.Benchmark)
	}
	if len(result.NanosPerOp) != 3 {
		t.Errorf("expected 3 samples, got %d", len(result.NanosPerOp))
	}
}

func TestRuntime_RunBenchmarkTimeout(t *testing.T) {
	_, spec := sampleSuite()
	spec.TimeoutMs = 10
	p := fakeShellProfile(0, 0)
	p.RunCmd = func(binPath string) procexec.Spec {
		return procexec.Spec{Name: "sh", Args: []string{"-c", "sleep 1"}}
	}
	rt := New(p)

	result, err := rt.RunBenchmark(context.Background(), spec, "/unused")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected TimedOut result")
	}
}

func TestParseHarnessResult_LastLine(t *testing.T) {
	payload, _ := json.Marshal(HarnessResult{Benchmark: "x", Lang: "go", Iterations: 5})
	stdout := []byte("some noise\nmore noise\n" + string(payload) + "\n")

	result, err := parseHarnessResult(stdout)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Benchmark != "x" || result.Iterations != 5 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestParseHarnessResult_NoOutput(t *testing.T) {
	if _, err := parseHarnessResult([]byte("")); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestGenerateSource_PerLanguageSyntax(t *testing.T) {
	suite, spec := sampleSuite()
	spec.Sources = map[ir.Lang]ir.LangSource{
		ir.Rust:   {Impl: "sort_ints(&data)"},
		ir.Python: {Impl: "sort_ints(data)"},
	}
	suite.Setup = map[ir.Lang]ir.SetupSections{}

	rustSrc, err := GenerateSource(rustProfile(), suite, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rustSrc, "func main()") || strings.Contains(rustSrc, "func bench()") {
		t.Errorf("expected rust harness to carry no Go syntax:\n%s", rustSrc)
	}
	if !strings.Contains(rustSrc, "fn main()") || !strings.Contains(rustSrc, "fn bench()") {
		t.Errorf("expected rust harness to declare fn main()/fn bench():\n%s", rustSrc)
	}
	if !strings.Contains(rustSrc, "use std::time::Instant;") {
		t.Errorf("expected a real use statement, not a comment, in rust harness:\n%s", rustSrc)
	}

	pySrc, err := GenerateSource(pythonProfile(), suite, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(pySrc, "func main()") {
		t.Errorf("expected python harness to carry no Go syntax:\n%s", pySrc)
	}
	if !strings.Contains(pySrc, "def main():") || !strings.Contains(pySrc, "def bench():") {
		t.Errorf("expected python harness to declare def main()/def bench():\n%s", pySrc)
	}
	if !strings.Contains(pySrc, "import time") {
		t.Errorf("expected a real import statement, not a comment, in python harness:\n%s", pySrc)
	}
}

func TestGenerateSource_AsyncReservoirSampling(t *testing.T) {
	suite, spec := sampleSuite()
	spec.Kind = ir.Async
	spec.MeasurementConfig = ir.MeasurementConfig{
		AsyncSamplingPolicy: ir.FixedCap,
		Iterations:          500,
		AsyncSampleCap:      50,
	}

	src, err := GenerateSource(goProfile(), suite, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"successCount", "errorCount", "reservoir", "recover()", "async_success_count", "async_error_samples"} {
		if !strings.Contains(src, want) {
			t.Errorf("expected async harness to contain %q:\n%s", want, src)
		}
	}
}

func TestExtractLineMap_RemapsSectionReferences(t *testing.T) {
	suite, spec := sampleSuite()
	src, err := GenerateSource(goProfile(), suite, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lm := ExtractLineMap(src)
	implLine := strings.Count(src[:strings.Index(src, "sortInts(data)")], "\n") + 1
	msg := RemapMessage(fmt.Sprintf("/tmp/x/suite_bench_sort.go:%d:5: undefined: sortInts", implLine), lm)
	if !strings.Contains(msg, "suite/bench_sort.impl") {
		t.Errorf("expected remapped message to cite the impl section, got %q", msg)
	}
}

func TestRegistry_AllLanguagesConstructible(t *testing.T) {
	reg := NewRegistry()
	for _, lang := range ir.AllLangs {
		rt, ok := reg.New(lang)
		if !ok {
			t.Errorf("expected registry to construct a runtime for %s", lang)
			continue
		}
		if rt.Lang() != lang {
			t.Errorf("expected Lang() %s, got %s", lang, rt.Lang())
		}
	}
}
