package runtime

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/procexec"
)

// Profile is the data-driven description of one language's toolchain and
// source layout. A Runtime value wraps exactly one Profile; the generic
// lifecycle in runtime.go never branches on Lang directly, only on the
// Profile it was constructed with. Every target language has its own
// syntax for imports, function declarations, and the measurement loop
// itself, so §C.1/§C.2's eight-part harness structure is shared but the
// text of each part is not: it comes from these per-language closures.
type Profile struct {
	Lang    ir.Lang
	Name    string
	FileExt string

	// BaseImports are the modules every generated program for this
	// language carries regardless of the suite's own declared imports.
	BaseImports []string

	// ExtraImports returns additional imports one specific benchmark
	// needs (Go's "runtime" package when memory profiling is on, say).
	ExtraImports func(spec *ir.BenchmarkSpec) []string

	// RenderImports renders a real import/use/include block for the
	// given module list in this language's own syntax.
	RenderImports func(imports []string) string

	// LineComment renders one line of this language's line-comment
	// syntax, used only for the §C.7 section markers GenerateSource
	// embeds between parts of the harness.
	LineComment func(text string) string

	// ProbeCmd reports the toolchain's version; a non-zero exit or spawn
	// failure means the language is unavailable and Initialize fails.
	ProbeCmd func() procexec.Spec

	// CheckCmd type-checks or syntax-checks srcPath without producing a
	// runnable artifact.
	CheckCmd func(root, srcPath string) procexec.Spec

	// CompileCmd compiles srcPath into an executable/bytecode artifact at
	// binPath. For interpreted languages this still runs (bytecode
	// compile or a bundler pass), matching §C.6.
	CompileCmd func(root, srcPath, binPath string) procexec.Spec

	// RunCmd invokes the precompiled artifact at binPath.
	RunCmd func(binPath string) procexec.Spec

	// MemoryHelper renders the cumulative allocation-counter
	// scaffolding (§C.4), or "" when the spec doesn't request memory.
	MemoryHelper func(spec *ir.BenchmarkSpec) string

	// FixtureLiteral renders one fixture's byte payload as a language
	// native literal.
	FixtureLiteral func(name string, raw []byte) string

	// SinkDecl renders the global sink variable declaration used when
	// use_sink is set.
	SinkDecl string

	// RenderBenchFunc wraps an already-assembled, unindented body (one
	// statement per line) in this language's function-declaration
	// syntax, naming it "bench".
	RenderBenchFunc func(body string) string

	// SinkAssign renders one statement assigning expr to the sink
	// variable, in this language's own assignment syntax.
	SinkAssign func(expr string) string

	// RenderMain renders the full §C.2/§C.3 measurement loop: clock
	// acquisition, warmup, the timing loop (fixed, auto-calibrated, or —
	// for ir.Async specs — reservoir-sampled with success/error
	// counting), and the closing §C.5 JSON result line. benchCall is
	// the literal call of the bench function, "bench()" in every
	// language.
	RenderMain func(spec *ir.BenchmarkSpec, benchCall string) string
}

func commandProbe(name string, args ...string) func() procexec.Spec {
	return func() procexec.Spec {
		return procexec.Spec{Name: name, Args: args, Timeout: 5e9}
	}
}

// warmupCap returns the effective warmup-iteration count, respecting the
// async warmup cap when it is set and smaller than the declared count.
func warmupCap(spec *ir.BenchmarkSpec) uint64 {
	cap := spec.WarmupIterations
	if spec.Kind == ir.Async && spec.AsyncWarmupCap > 0 && spec.AsyncWarmupCap < cap {
		cap = spec.AsyncWarmupCap
	}
	return cap
}

// asyncSampleCap returns the reservoir size for an async benchmark,
// defaulting to 1000 when the suite leaves it unset.
func asyncSampleCap(spec *ir.BenchmarkSpec) uint64 {
	if spec.AsyncSampleCap > 0 {
		return spec.AsyncSampleCap
	}
	return 1000
}

// asyncFixedCapIterations returns the attempt count for the FixedCap
// sampling policy, defaulting to 1000 attempts when unset.
func asyncFixedCapIterations(spec *ir.BenchmarkSpec) uint64 {
	if spec.Iterations > 0 {
		return spec.Iterations
	}
	return 1000
}

// asyncErrorSampleCap bounds how many error messages a reservoir keeps,
// independent of the success reservoir's own cap.
const asyncErrorSampleCap = 10

func bytesLiteral(raw []byte, sep string) string {
	out := ""
	for i, b := range raw {
		if i > 0 {
			out += sep
		}
		out += fmt.Sprintf("0x%02x", b)
	}
	return out
}

// indentLines prefixes every non-blank line of text with prefix, so a
// bench body reads like hand-written code in its wrapping function rather
// than a flush-left dump of suite source.
func indentLines(text, prefix string) string {
	trimmed := strings.TrimRight(text, "\n")
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}

// ===========================================================================
// Go
// ===========================================================================

func goProfile() Profile {
	return Profile{
		Lang:        ir.Go,
		Name:        "Go",
		FileExt:     ".go",
		BaseImports: []string{"encoding/json", "fmt", "time"},
		ExtraImports: func(spec *ir.BenchmarkSpec) []string {
			if spec.Memory {
				return []string{"runtime"}
			}
			return nil
		},
		RenderImports: func(imports []string) string {
			if len(imports) == 0 {
				return ""
			}
			var b strings.Builder
			b.WriteString("import (\n")
			for _, imp := range imports {
				fmt.Fprintf(&b, "\t%q\n", imp)
			}
			b.WriteString(")\n")
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("go", "version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "go", Args: []string{"vet", srcPath}, Dir: root, Timeout: 30e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "go", Args: []string{"build", "-o", binPath, srcPath}, Dir: root, Timeout: 120e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: binPath}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "var __polybench_memStart, __polybench_memEnd runtime.MemStats"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("var %s = []byte{%s}", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "var __polybench_sink interface{}",
		RenderBenchFunc: func(body string) string {
			return "func bench() {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("__polybench_sink = (%s)", expr)
		},
		RenderMain: goRenderMain,
	}
}

func goRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("func main() {\n")
	b.WriteString("\tclock := func() int64 { return time.Now().UnixNano() }\n")
	goEmitWarmup(&b, spec, benchCall)
	if spec.Kind == ir.Async {
		goEmitAsync(&b, spec, benchCall)
	} else {
		goEmitSync(&b, spec, benchCall)
	}
	b.WriteString("}\n")
	return b.String()
}

func goEmitWarmup(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(b, "\twarmupDeadline := clock() + int64(%d)*1000000\n", spec.WarmupTimeMs)
		fmt.Fprintf(b, "\tfor clock() < warmupDeadline {\n\t\t%s\n\t}\n", benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(b, "\tfor i := uint64(0); i < %d; i++ {\n\t\t%s\n\t}\n", warmupCap(spec), benchCall)
	}
}

func goEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tsamples := make([]float64, 0, %d)\n", spec.Iterations)
		fmt.Fprintf(b, "\tfor i := uint64(0); i < %d; i++ {\n", spec.Iterations)
		b.WriteString("\t\tstart := clock()\n")
		fmt.Fprintf(b, "\t\t%s\n", benchCall)
		b.WriteString("\t\tsamples = append(samples, float64(clock()-start))\n\t}\n")
		b.WriteString("\tvar totalNanosAll float64\n\tfor _, v := range samples {\n\t\ttotalNanosAll += v\n\t}\n")
	default:
		fmt.Fprintf(b, "\ttarget := int64(%d) * 1000000\n", spec.TargetTimeMs)
		b.WriteString("\tbatch := uint64(1)\n\tvar totalNs int64\n\tsamples := []float64{}\n")
		b.WriteString("\tfor totalNs < target {\n\t\tstart := clock()\n")
		fmt.Fprintf(b, "\t\tfor j := uint64(0); j < batch; j++ {\n\t\t\t%s\n\t\t}\n", benchCall)
		b.WriteString("\t\telapsed := clock() - start\n\t\ttotalNs += elapsed\n")
		b.WriteString("\t\tsamples = append(samples, float64(elapsed)/float64(batch))\n")
		b.WriteString("\t\tif elapsed == 0 {\n\t\t\tbatch *= 10\n\t\t\tcontinue\n\t\t}\n")
		b.WriteString("\t\tremaining := target - totalNs\n\t\tpredicted := int64(batch) * remaining / elapsed\n")
		b.WriteString("\t\tif remaining < elapsed {\n\t\t\tbatch = uint64(predicted)\n\t\t\tif batch < 1 {\n\t\t\t\tbatch = 1\n\t\t\t}\n")
		b.WriteString("\t\t} else {\n\t\t\tgrown := uint64(float64(predicted) * 1.1)\n")
		b.WriteString("\t\t\tif grown < batch*2 {\n\t\t\t\tgrown = batch * 2\n\t\t\t}\n")
		b.WriteString("\t\t\tif grown > batch*10 {\n\t\t\t\tgrown = batch * 10\n\t\t\t}\n\t\t\tbatch = grown\n\t\t}\n\t}\n")
		b.WriteString("\ttotalNanosAll := float64(totalNs)\n")
	}
	b.WriteString("\topsPerSec := 0.0\n\tif len(samples) > 0 && totalNanosAll > 0 {\n\t\topsPerSec = float64(len(samples)) / (totalNanosAll / 1e9)\n\t}\n")
	fmt.Fprintf(b, "\tresult := map[string]interface{}{\"benchmark\": %q, \"lang\": \"go\", \"kind\": \"sync\", \"iterations\": uint64(len(samples)), \"nanos_per_op\": samples, \"total_nanos\": totalNanosAll, \"ops_per_sec\": opsPerSec, \"timed_out\": false}\n", spec.FullName)
	b.WriteString("\tline, _ := json.Marshal(result)\n\tfmt.Println(string(line))\n")
}

func goEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tcap := uint64(%d)\n", asyncSampleCap(spec))
	b.WriteString("\treservoir := make([]float64, 0, cap)\n")
	b.WriteString("\tvar n, successCount, errorCount uint64\n\tvar totalNs int64\n\terrorSamples := []string{}\n")
	b.WriteString("\trngState := uint32(clock()) | 1\n")
	b.WriteString("\tnextRand := func() uint32 {\n\t\trngState ^= rngState << 13\n\t\trngState ^= rngState >> 17\n\t\trngState ^= rngState << 5\n\t\treturn rngState\n\t}\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tdeadline := clock() + int64(%d)*1000000\n\tfor clock() < deadline {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tfor i := uint64(0); i < %d; i++ {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\tfunc() {\n\t\t\tdefer func() {\n\t\t\t\tif r := recover(); r != nil {\n\t\t\t\t\terrorCount++\n")
	fmt.Fprintf(b, "\t\t\t\t\tif uint64(len(errorSamples)) < %d {\n\t\t\t\t\t\terrorSamples = append(errorSamples, fmt.Sprint(r))\n\t\t\t\t\t}\n", asyncErrorSampleCap)
	b.WriteString("\t\t\t\t}\n\t\t\t}()\n\t\t\tstart := clock()\n")
	fmt.Fprintf(b, "\t\t\t%s\n", benchCall)
	b.WriteString("\t\t\telapsed := clock() - start\n\t\t\ttotalNs += elapsed\n\t\t\tn++\n\t\t\tsuccessCount++\n")
	b.WriteString("\t\t\tif uint64(len(reservoir)) < cap {\n\t\t\t\treservoir = append(reservoir, float64(elapsed))\n\t\t\t} else {\n")
	b.WriteString("\t\t\t\tj := nextRand() % uint32(n)\n\t\t\t\tif uint64(j) < cap {\n\t\t\t\t\treservoir[j] = float64(elapsed)\n\t\t\t\t}\n\t\t\t}\n\t\t}()\n\t}\n")
	b.WriteString("\topsPerSec := 0.0\n\tif totalNs > 0 {\n\t\topsPerSec = float64(successCount) / (float64(totalNs) / 1e9)\n\t}\n")
	fmt.Fprintf(b, "\tresult := map[string]interface{}{\"benchmark\": %q, \"lang\": \"go\", \"kind\": \"async\", \"iterations\": n, \"successful_results\": reservoir, \"async_success_count\": successCount, \"async_error_count\": errorCount, \"async_error_samples\": errorSamples, \"total_nanos\": float64(totalNs), \"ops_per_sec\": opsPerSec, \"timed_out\": false}\n", spec.FullName)
	b.WriteString("\tline, _ := json.Marshal(result)\n\tfmt.Println(string(line))\n")
}

// ===========================================================================
// TypeScript
// ===========================================================================

func tsProfile() Profile {
	return Profile{
		Lang:        ir.TypeScript,
		Name:        "TypeScript",
		FileExt:     ".ts",
		BaseImports: []string{"node:perf_hooks"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "import %q;\n", imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("node", "--version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "npx", Args: []string{"tsc", "--noEmit", srcPath}, Dir: root, Timeout: 60e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "npx", Args: []string{"esbuild", srcPath, "--bundle", "--platform=node", "--outfile=" + binPath}, Dir: root, Timeout: 60e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: "node", Args: []string{binPath}}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "const __polybenchHeapBefore = () => { if (global.gc) global.gc(); return process.memoryUsage().heapUsed; };"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("const %s = new Uint8Array([%s]);", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "let __polybenchSink: unknown;",
		RenderBenchFunc: func(body string) string {
			return "function bench(): void {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("__polybenchSink = (%s);", expr)
		},
		RenderMain: tsRenderMain,
	}
}

func tsRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("function main(): void {\n")
	b.WriteString("\tconst clock = (): number => Number(process.hrtime.bigint());\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "\tconst warmupDeadline = clock() + %d * 1e6;\n\twhile (clock() < warmupDeadline) {\n\t\t%s;\n\t}\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "\tfor (let i = 0; i < %d; i++) {\n\t\t%s;\n\t}\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		tsEmitAsync(&b, spec, benchCall)
	} else {
		tsEmitSync(&b, spec, benchCall)
	}
	b.WriteString("}\nmain();\n")
	return b.String()
}

func tsEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tconst samples: number[] = [];\n\tfor (let i = 0; i < %d; i++) {\n", spec.Iterations)
		fmt.Fprintf(b, "\t\tconst start = clock();\n\t\t%s;\n\t\tsamples.push(clock() - start);\n\t}\n", benchCall)
		b.WriteString("\tconst totalNanosAll = samples.reduce((a, v) => a + v, 0);\n")
	default:
		fmt.Fprintf(b, "\tconst target = %d * 1e6;\n", spec.TargetTimeMs)
		b.WriteString("\tlet batch = 1;\n\tlet totalNs = 0;\n\tconst samples: number[] = [];\n\twhile (totalNs < target) {\n\t\tconst start = clock();\n")
		fmt.Fprintf(b, "\t\tfor (let j = 0; j < batch; j++) {\n\t\t\t%s;\n\t\t}\n", benchCall)
		b.WriteString("\t\tconst elapsed = clock() - start;\n\t\ttotalNs += elapsed;\n\t\tsamples.push(elapsed / batch);\n")
		b.WriteString("\t\tif (elapsed === 0) {\n\t\t\tbatch *= 10;\n\t\t\tcontinue;\n\t\t}\n")
		b.WriteString("\t\tconst remaining = target - totalNs;\n\t\tconst predicted = Math.floor((batch * remaining) / elapsed);\n")
		b.WriteString("\t\tbatch = remaining < elapsed ? Math.max(1, predicted) : Math.max(batch * 2, Math.min(batch * 10, Math.floor(predicted * 1.1)));\n\t}\n")
		b.WriteString("\tconst totalNanosAll = totalNs;\n")
	}
	b.WriteString("\tconst opsPerSec = totalNanosAll > 0 ? samples.length / (totalNanosAll / 1e9) : 0;\n")
	fmt.Fprintf(b, "\tconsole.log(JSON.stringify({ benchmark: %q, lang: \"ts\", kind: \"sync\", iterations: samples.length, nanos_per_op: samples, total_nanos: totalNanosAll, ops_per_sec: opsPerSec, timed_out: false }));\n", spec.FullName)
}

func tsEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tconst cap = %d;\n", asyncSampleCap(spec))
	b.WriteString("\tconst reservoir: number[] = [];\n\tlet n = 0, successCount = 0, errorCount = 0, totalNs = 0;\n\tconst errorSamples: string[] = [];\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tconst deadline = clock() + %d * 1e6;\n\twhile (clock() < deadline) {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tfor (let i = 0; i < %d; i++) {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\ttry {\n\t\t\tconst start = clock();\n")
	fmt.Fprintf(b, "\t\t\t%s;\n", benchCall)
	b.WriteString("\t\t\tconst elapsed = clock() - start;\n\t\t\ttotalNs += elapsed;\n\t\t\tn++;\n\t\t\tsuccessCount++;\n")
	b.WriteString("\t\t\tif (reservoir.length < cap) {\n\t\t\t\treservoir.push(elapsed);\n\t\t\t} else {\n\t\t\t\tconst j = Math.floor(Math.random() * n);\n\t\t\t\tif (j < cap) reservoir[j] = elapsed;\n\t\t\t}\n")
	fmt.Fprintf(b, "\t\t} catch (err) {\n\t\t\terrorCount++;\n\t\t\tif (errorSamples.length < %d) errorSamples.push(String(err));\n\t\t}\n\t}\n", asyncErrorSampleCap)
	b.WriteString("\tconst opsPerSec = totalNs > 0 ? successCount / (totalNs / 1e9) : 0;\n")
	fmt.Fprintf(b, "\tconsole.log(JSON.stringify({ benchmark: %q, lang: \"ts\", kind: \"async\", iterations: n, successful_results: reservoir, async_success_count: successCount, async_error_count: errorCount, async_error_samples: errorSamples, total_nanos: totalNs, ops_per_sec: opsPerSec, timed_out: false }));\n", spec.FullName)
}

// ===========================================================================
// Rust
// ===========================================================================

func rustProfile() Profile {
	return Profile{
		Lang:        ir.Rust,
		Name:        "Rust",
		FileExt:     ".rs",
		BaseImports: []string{"std::time::Instant"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "use %s;\n", imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("rustc", "--version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "rustc", Args: []string{"--edition", "2021", "--crate-type", "bin", "-o", "/dev/null", "--emit=metadata", srcPath}, Dir: root, Timeout: 60e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "rustc", Args: []string{"-O", "--edition", "2021", "-o", binPath, srcPath}, Dir: root, Timeout: 180e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: binPath}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "use std::alloc::{GlobalAlloc, System, Layout};\nuse std::sync::atomic::{AtomicU64, Ordering};\nstatic __POLYBENCH_ALLOCED: AtomicU64 = AtomicU64::new(0);"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("let %s: Vec<u8> = vec![%s];", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "static mut __POLYBENCH_SINK: Option<Box<dyn std::any::Any>> = None;",
		RenderBenchFunc: func(body string) string {
			return "fn bench() {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("unsafe { __POLYBENCH_SINK = Some(Box::new(%s)); }", expr)
		},
		RenderMain: rustRenderMain,
	}
}

func rustRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("fn main() {\n")
	b.WriteString("\tlet clock = || Instant::now();\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "\tlet warmup_deadline = clock() + std::time::Duration::from_millis(%d);\n\twhile Instant::now() < warmup_deadline {\n\t\t%s;\n\t}\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "\tfor _ in 0..%d {\n\t\t%s;\n\t}\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		rustEmitAsync(&b, spec, benchCall)
	} else {
		rustEmitSync(&b, spec, benchCall)
	}
	b.WriteString("}\n")
	return b.String()
}

func rustEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tlet mut samples: Vec<f64> = Vec::with_capacity(%d);\n\tfor _ in 0..%d {\n", spec.Iterations, spec.Iterations)
		fmt.Fprintf(b, "\t\tlet start = clock();\n\t\t%s;\n\t\tsamples.push(start.elapsed().as_nanos() as f64);\n\t}\n", benchCall)
		b.WriteString("\tlet total_nanos_all: f64 = samples.iter().sum();\n")
	default:
		fmt.Fprintf(b, "\tlet target_ns: i64 = %d * 1_000_000;\n", spec.TargetTimeMs)
		b.WriteString("\tlet mut batch: u64 = 1;\n\tlet mut total_ns: i64 = 0;\n\tlet mut samples: Vec<f64> = Vec::new();\n\twhile total_ns < target_ns {\n\t\tlet start = clock();\n")
		fmt.Fprintf(b, "\t\tfor _ in 0..batch {\n\t\t\t%s;\n\t\t}\n", benchCall)
		b.WriteString("\t\tlet elapsed = start.elapsed().as_nanos() as i64;\n\t\ttotal_ns += elapsed;\n\t\tsamples.push(elapsed as f64 / batch as f64);\n")
		b.WriteString("\t\tif elapsed == 0 {\n\t\t\tbatch *= 10;\n\t\t\tcontinue;\n\t\t}\n")
		b.WriteString("\t\tlet remaining = target_ns - total_ns;\n\t\tlet predicted = (batch as i64 * remaining) / elapsed;\n")
		b.WriteString("\t\tbatch = if remaining < elapsed { predicted.max(1) as u64 } else { (batch * 2).max(((predicted as f64 * 1.1) as u64).min(batch * 10)) };\n\t}\n")
		b.WriteString("\tlet total_nanos_all = total_ns as f64;\n")
	}
	b.WriteString("\tlet ops_per_sec = if total_nanos_all > 0.0 { samples.len() as f64 / (total_nanos_all / 1e9) } else { 0.0 };\n")
	b.WriteString("\tlet nanos_per_op: Vec<String> = samples.iter().map(|v| v.to_string()).collect();\n")
	fmt.Fprintf(b, "\tprintln!(\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"rust\\\",\\\"kind\\\":\\\"sync\\\",\\\"iterations\\\":{},\\\"nanos_per_op\\\":[{}],\\\"total_nanos\\\":{},\\\"ops_per_sec\\\":{},\\\"timed_out\\\":false}}\", samples.len(), nanos_per_op.join(\",\"), total_nanos_all, ops_per_sec);\n", spec.FullName)
}

func rustEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tlet cap: usize = %d;\n", asyncSampleCap(spec))
	b.WriteString("\tlet mut reservoir: Vec<f64> = Vec::with_capacity(cap);\n\tlet mut n: u64 = 0;\n\tlet mut success_count: u64 = 0;\n\tlet mut error_count: u64 = 0;\n\tlet mut total_ns: i64 = 0;\n\tlet mut error_samples: Vec<String> = Vec::new();\n")
	b.WriteString("\tlet mut rng_state: u32 = std::process::id().wrapping_add(1);\n")
	b.WriteString("\tlet mut next_rand = || -> u32 { rng_state ^= rng_state << 13; rng_state ^= rng_state >> 17; rng_state ^= rng_state << 5; rng_state };\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tlet deadline = clock() + std::time::Duration::from_millis(%d);\n\twhile Instant::now() < deadline {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tfor _ in 0..%d {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\tlet start = clock();\n\t\tlet outcome = std::panic::catch_unwind(std::panic::AssertUnwindSafe(|| {\n")
	fmt.Fprintf(b, "\t\t\t%s;\n\t\t}));\n", benchCall)
	b.WriteString("\t\tmatch outcome {\n\t\t\tOk(_) => {\n\t\t\t\tlet elapsed = start.elapsed().as_nanos() as i64;\n\t\t\t\ttotal_ns += elapsed;\n\t\t\t\tn += 1;\n\t\t\t\tsuccess_count += 1;\n")
	b.WriteString("\t\t\t\tif reservoir.len() < cap {\n\t\t\t\t\treservoir.push(elapsed as f64);\n\t\t\t\t} else {\n\t\t\t\t\tlet j = (next_rand() as u64 % n) as usize;\n\t\t\t\t\tif j < cap { reservoir[j] = elapsed as f64; }\n\t\t\t\t}\n\t\t\t}\n")
	fmt.Fprintf(b, "\t\t\tErr(_) => {\n\t\t\t\terror_count += 1;\n\t\t\t\tif error_samples.len() < %d {\n\t\t\t\t\terror_samples.push(\"panic during bench()\".to_string());\n\t\t\t\t}\n\t\t\t}\n\t\t}\n\t}\n", asyncErrorSampleCap)
	b.WriteString("\tlet ops_per_sec = if total_ns > 0 { success_count as f64 / (total_ns as f64 / 1e9) } else { 0.0 };\n")
	b.WriteString("\tlet reservoir_str: Vec<String> = reservoir.iter().map(|v| v.to_string()).collect();\n")
	b.WriteString("\tlet error_str: Vec<String> = error_samples.iter().map(|s| format!(\"\\\"{}\\\"\", s)).collect();\n")
	fmt.Fprintf(b, "\tprintln!(\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"rust\\\",\\\"kind\\\":\\\"async\\\",\\\"iterations\\\":{},\\\"successful_results\\\":[{}],\\\"async_success_count\\\":{},\\\"async_error_count\\\":{},\\\"async_error_samples\\\":[{}],\\\"total_nanos\\\":{},\\\"ops_per_sec\\\":{},\\\"timed_out\\\":false}}\", n, reservoir_str.join(\",\"), success_count, error_count, error_str.join(\",\"), total_ns, ops_per_sec);\n", spec.FullName)
}

// ===========================================================================
// Python
// ===========================================================================

func pythonProfile() Profile {
	return Profile{
		Lang:        ir.Python,
		Name:        "Python",
		FileExt:     ".py",
		BaseImports: []string{"time", "json", "random"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "import %s\n", imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "# " + text },
		ProbeCmd:    commandProbe("python3", "--version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "python3", Args: []string{"-m", "py_compile", srcPath}, Dir: root, Timeout: 30e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "python3", Args: []string{"-m", "py_compile", "-o", binPath, srcPath}, Dir: root, Timeout: 30e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: "python3", Args: []string{binPath}}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "import tracemalloc"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("%s = bytes([%s])", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "__polybench_sink = None",
		RenderBenchFunc: func(body string) string {
			return "def bench():\n" + indentLines(body, "    ")
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("global __polybench_sink; __polybench_sink = (%s)", expr)
		},
		RenderMain: pythonRenderMain,
	}
}

func pythonRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("def main():\n")
	b.WriteString("    clock = time.perf_counter_ns\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "    warmup_deadline = clock() + %d * 1_000_000\n    while clock() < warmup_deadline:\n        %s\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "    for _ in range(%d):\n        %s\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		pythonEmitAsync(&b, spec, benchCall)
	} else {
		pythonEmitSync(&b, spec, benchCall)
	}
	b.WriteString("\n\nmain()\n")
	return b.String()
}

func pythonEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "    samples = []\n    for _ in range(%d):\n", spec.Iterations)
		fmt.Fprintf(b, "        start = clock()\n        %s\n        samples.append(float(clock() - start))\n", benchCall)
		b.WriteString("    total_nanos_all = sum(samples)\n")
	default:
		fmt.Fprintf(b, "    target = %d * 1_000_000\n", spec.TargetTimeMs)
		b.WriteString("    batch = 1\n    total_ns = 0\n    samples = []\n    while total_ns < target:\n        start = clock()\n")
		fmt.Fprintf(b, "        for _ in range(batch):\n            %s\n", benchCall)
		b.WriteString("        elapsed = clock() - start\n        total_ns += elapsed\n        samples.append(elapsed / batch)\n")
		b.WriteString("        if elapsed == 0:\n            batch *= 10\n            continue\n")
		b.WriteString("        remaining = target - total_ns\n        predicted = batch * remaining // elapsed\n")
		b.WriteString("        if remaining < elapsed:\n            batch = max(1, predicted)\n        else:\n            batch = max(batch * 2, min(batch * 10, int(predicted * 1.1)))\n")
		b.WriteString("    total_nanos_all = float(total_ns)\n")
	}
	b.WriteString("    ops_per_sec = (len(samples) / (total_nanos_all / 1e9)) if total_nanos_all > 0 else 0.0\n")
	fmt.Fprintf(b, "    print(json.dumps({\"benchmark\": %q, \"lang\": \"python\", \"kind\": \"sync\", \"iterations\": len(samples), \"nanos_per_op\": samples, \"total_nanos\": total_nanos_all, \"ops_per_sec\": ops_per_sec, \"timed_out\": False}))\n", spec.FullName)
}

func pythonEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "    cap = %d\n", asyncSampleCap(spec))
	b.WriteString("    reservoir = []\n    n = 0\n    success_count = 0\n    error_count = 0\n    total_ns = 0\n    error_samples = []\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "    deadline = clock() + %d * 1_000_000\n    while clock() < deadline:\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "    for _ in range(%d):\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("        try:\n            start = clock()\n")
	fmt.Fprintf(b, "            %s\n", benchCall)
	b.WriteString("            elapsed = clock() - start\n            total_ns += elapsed\n            n += 1\n            success_count += 1\n")
	b.WriteString("            if len(reservoir) < cap:\n                reservoir.append(float(elapsed))\n            else:\n                j = random.randint(0, n - 1)\n                if j < cap:\n                    reservoir[j] = float(elapsed)\n")
	fmt.Fprintf(b, "        except Exception as exc:\n            error_count += 1\n            if len(error_samples) < %d:\n                error_samples.append(str(exc))\n", asyncErrorSampleCap)
	b.WriteString("    ops_per_sec = (success_count / (total_ns / 1e9)) if total_ns > 0 else 0.0\n")
	fmt.Fprintf(b, "    print(json.dumps({\"benchmark\": %q, \"lang\": \"python\", \"kind\": \"async\", \"iterations\": n, \"successful_results\": reservoir, \"async_success_count\": success_count, \"async_error_count\": error_count, \"async_error_samples\": error_samples, \"total_nanos\": float(total_ns), \"ops_per_sec\": ops_per_sec, \"timed_out\": False}))\n", spec.FullName)
}

// ===========================================================================
// C
// ===========================================================================

func cProfile() Profile {
	return Profile{
		Lang:        ir.C,
		Name:        "C",
		FileExt:     ".c",
		BaseImports: []string{"<stdio.h>", "<stdint.h>", "<time.h>"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "#include %s\n", imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("cc", "--version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "cc", Args: []string{"-fsyntax-only", srcPath}, Dir: root, Timeout: 30e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "cc", Args: []string{"-O2", "-o", binPath, srcPath}, Dir: root, Timeout: 120e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: binPath}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "static uint64_t __polybench_alloced = 0;\nstatic void *__polybench_malloc(size_t n) { __polybench_alloced += n; return malloc(n); }"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("static const unsigned char %s[] = {%s};", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "static volatile long __polybench_sink;",
		RenderBenchFunc: func(body string) string {
			return "static void bench(void) {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("__polybench_sink = (long)(%s);", expr)
		},
		RenderMain: cRenderMain,
	}
}

func cRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("static long long __polybench_clock(void) {\n")
	b.WriteString("\tstruct timespec ts;\n\tclock_gettime(CLOCK_MONOTONIC, &ts);\n\treturn (long long)ts.tv_sec * 1000000000LL + ts.tv_nsec;\n}\n\n")
	b.WriteString("int main(void) {\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "\tlong long warmup_deadline = __polybench_clock() + %dLL * 1000000LL;\n\twhile (__polybench_clock() < warmup_deadline) {\n\t\t%s;\n\t}\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "\tfor (uint64_t i = 0; i < %dULL; i++) {\n\t\t%s;\n\t}\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		cEmitAsync(&b, spec, benchCall)
	} else {
		cEmitSync(&b, spec, benchCall)
	}
	b.WriteString("\treturn 0;\n}\n")
	return b.String()
}

func cEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tstatic double samples[%d];\n\tuint64_t count = 0;\n\tfor (uint64_t i = 0; i < %dULL; i++) {\n", spec.Iterations, spec.Iterations)
		fmt.Fprintf(b, "\t\tlong long start = __polybench_clock();\n\t\t%s;\n\t\tsamples[count++] = (double)(__polybench_clock() - start);\n\t}\n", benchCall)
		b.WriteString("\tdouble total_nanos_all = 0;\n\tfor (uint64_t i = 0; i < count; i++) total_nanos_all += samples[i];\n")
	default:
		fmt.Fprintf(b, "\tlong long target = %dLL * 1000000LL;\n", spec.TargetTimeMs)
		b.WriteString("\tuint64_t batch = 1;\n\tlong long total_ns = 0;\n\tstatic double samples[4096];\n\tuint64_t count = 0;\n")
		b.WriteString("\twhile (total_ns < target && count < 4096) {\n\t\tlong long start = __polybench_clock();\n")
		fmt.Fprintf(b, "\t\tfor (uint64_t j = 0; j < batch; j++) {\n\t\t\t%s;\n\t\t}\n", benchCall)
		b.WriteString("\t\tlong long elapsed = __polybench_clock() - start;\n\t\ttotal_ns += elapsed;\n\t\tsamples[count++] = (double)elapsed / (double)batch;\n")
		b.WriteString("\t\tif (elapsed == 0) {\n\t\t\tbatch *= 10;\n\t\t\tcontinue;\n\t\t}\n")
		b.WriteString("\t\tlong long remaining = target - total_ns;\n\t\tlong long predicted = (long long)batch * remaining / elapsed;\n")
		b.WriteString("\t\tif (remaining < elapsed) {\n\t\t\tbatch = predicted > 1 ? (uint64_t)predicted : 1;\n\t\t} else {\n")
		b.WriteString("\t\t\tuint64_t grown = (uint64_t)(predicted * 1.1);\n\t\t\tif (grown < batch * 2) grown = batch * 2;\n\t\t\tif (grown > batch * 10) grown = batch * 10;\n\t\t\tbatch = grown;\n\t\t}\n\t}\n")
		b.WriteString("\tdouble total_nanos_all = (double)total_ns;\n")
	}
	b.WriteString("\tdouble ops_per_sec = total_nanos_all > 0 ? (double)count / (total_nanos_all / 1e9) : 0;\n")
	b.WriteString("\tprintf(\"{\\\"benchmark\\\":\\\"")
	fmt.Fprintf(b, "%s\\\",\\\"lang\\\":\\\"c\\\",\\\"kind\\\":\\\"sync\\\",\\\"iterations\\\":%%llu,\\\"nanos_per_op\\\":[\", (unsigned long long)count);\n", spec.FullName)
	b.WriteString("\tfor (uint64_t i = 0; i < count; i++) {\n\t\tif (i > 0) printf(\",\");\n\t\tprintf(\"%.2f\", samples[i]);\n\t}\n")
	b.WriteString("\tprintf(\"],\\\"total_nanos\\\":%.2f,\\\"ops_per_sec\\\":%.2f,\\\"timed_out\\\":false}\\n\", total_nanos_all, ops_per_sec);\n")
}

func cEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tuint64_t cap = %dULL;\n\tstatic double reservoir[4096];\n\tuint64_t n = 0, success_count = 0, error_count = 0;\n\tlong long total_ns = 0;\n", asyncSampleCap(spec))
	b.WriteString("\tuint32_t rng_state = (uint32_t)__polybench_clock() | 1;\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tlong long deadline = __polybench_clock() + %dLL * 1000000LL;\n\twhile (__polybench_clock() < deadline) {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tfor (uint64_t i = 0; i < %dULL; i++) {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\t/* C has no exception mechanism, so every attempt below counts as a success. */\n")
	b.WriteString("\t\tlong long start = __polybench_clock();\n")
	fmt.Fprintf(b, "\t\t%s;\n", benchCall)
	b.WriteString("\t\tlong long elapsed = __polybench_clock() - start;\n\t\ttotal_ns += elapsed;\n\t\tn++;\n\t\tsuccess_count++;\n")
	b.WriteString("\t\trng_state ^= rng_state << 13; rng_state ^= rng_state >> 17; rng_state ^= rng_state << 5;\n")
	b.WriteString("\t\tif (n <= cap && n - 1 < 4096) {\n\t\t\treservoir[n - 1] = (double)elapsed;\n\t\t} else {\n\t\t\tuint64_t j = rng_state % n;\n\t\t\tif (j < cap && j < 4096) reservoir[j] = (double)elapsed;\n\t\t}\n\t}\n")
	b.WriteString("\tuint64_t kept = n < cap ? n : cap;\n\tdouble ops_per_sec = total_ns > 0 ? (double)success_count / ((double)total_ns / 1e9) : 0;\n")
	b.WriteString("\tprintf(\"{\\\"benchmark\\\":\\\"")
	fmt.Fprintf(b, "%s\\\",\\\"lang\\\":\\\"c\\\",\\\"kind\\\":\\\"async\\\",\\\"iterations\\\":%%llu,\\\"successful_results\\\":[\", (unsigned long long)n);\n", spec.FullName)
	b.WriteString("\tfor (uint64_t i = 0; i < kept; i++) {\n\t\tif (i > 0) printf(\",\");\n\t\tprintf(\"%.2f\", reservoir[i]);\n\t}\n")
	b.WriteString("\tprintf(\"],\\\"async_success_count\\\":%llu,\\\"async_error_count\\\":%llu,\\\"total_nanos\\\":%lld,\\\"ops_per_sec\\\":%.2f,\\\"timed_out\\\":false}\\n\", (unsigned long long)success_count, (unsigned long long)error_count, total_ns, ops_per_sec);\n")
}

// ===========================================================================
// C#
// ===========================================================================

func csharpProfile() Profile {
	return Profile{
		Lang:        ir.CSharp,
		Name:        "C#",
		FileExt:     ".cs",
		BaseImports: []string{"System", "System.Diagnostics", "System.Text"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "using %s;\n", imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("dotnet", "--version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "dotnet", Args: []string{"build", "--nologo"}, Dir: root, Timeout: 60e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "dotnet", Args: []string{"publish", "-c", "Release", "-o", filepath.Dir(binPath)}, Dir: root, Timeout: 180e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: binPath}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "long __polybenchMemBefore, __polybenchMemAfter;"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("static readonly byte[] %s = { %s };", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "static object __polybenchSink;",
		RenderBenchFunc: func(body string) string {
			return "static void bench() {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("__polybenchSink = (%s);", expr)
		},
		RenderMain: csharpRenderMain,
	}
}

func csharpRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("static void Main() {\n")
	b.WriteString("\tvar clockFreq = Stopwatch.Frequency;\n\tFunc<long> clock = () => (long)(Stopwatch.GetTimestamp() * (1_000_000_000.0 / clockFreq));\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "\tlong warmupDeadline = clock() + %d * 1_000_000L;\n\twhile (clock() < warmupDeadline) {\n\t\t%s;\n\t}\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "\tfor (ulong i = 0; i < %dUL; i++) {\n\t\t%s;\n\t}\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		csharpEmitAsync(&b, spec, benchCall)
	} else {
		csharpEmitSync(&b, spec, benchCall)
	}
	b.WriteString("}\n")
	return b.String()
}

func csharpEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tvar samples = new System.Collections.Generic.List<double>();\n\tfor (ulong i = 0; i < %dUL; i++) {\n", spec.Iterations)
		fmt.Fprintf(b, "\t\tlong start = clock();\n\t\t%s;\n\t\tsamples.Add(clock() - start);\n\t}\n", benchCall)
		b.WriteString("\tdouble totalNanosAll = 0;\n\tforeach (var v in samples) totalNanosAll += v;\n")
	default:
		fmt.Fprintf(b, "\tlong target = %d * 1_000_000L;\n", spec.TargetTimeMs)
		b.WriteString("\tulong batch = 1;\n\tlong totalNs = 0;\n\tvar samples = new System.Collections.Generic.List<double>();\n\twhile (totalNs < target) {\n\t\tlong start = clock();\n")
		fmt.Fprintf(b, "\t\tfor (ulong j = 0; j < batch; j++) {\n\t\t\t%s;\n\t\t}\n", benchCall)
		b.WriteString("\t\tlong elapsed = clock() - start;\n\t\ttotalNs += elapsed;\n\t\tsamples.Add((double)elapsed / batch);\n")
		b.WriteString("\t\tif (elapsed == 0) {\n\t\t\tbatch *= 10;\n\t\t\tcontinue;\n\t\t}\n")
		b.WriteString("\t\tlong remaining = target - totalNs;\n\t\tlong predicted = (long)batch * remaining / elapsed;\n")
		b.WriteString("\t\tbatch = remaining < elapsed ? (ulong)Math.Max(1, predicted) : Math.Max(batch * 2, Math.Min(batch * 10, (ulong)(predicted * 1.1)));\n\t}\n")
		b.WriteString("\tdouble totalNanosAll = totalNs;\n")
	}
	b.WriteString("\tdouble opsPerSec = totalNanosAll > 0 ? samples.Count / (totalNanosAll / 1e9) : 0;\n")
	b.WriteString("\tvar sb = new StringBuilder();\n\tsb.Append('[');\n\tfor (int i = 0; i < samples.Count; i++) {\n\t\tif (i > 0) sb.Append(',');\n\t\tsb.Append(samples[i]);\n\t}\n\tsb.Append(']');\n")
	fmt.Fprintf(b, "\tConsole.WriteLine($\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"csharp\\\",\\\"kind\\\":\\\"sync\\\",\\\"iterations\\\":{samples.Count},\\\"nanos_per_op\\\":{sb},\\\"total_nanos\\\":{totalNanosAll},\\\"ops_per_sec\\\":{opsPerSec},\\\"timed_out\\\":false}}\");\n", spec.FullName)
}

func csharpEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tint cap = %d;\n", asyncSampleCap(spec))
	b.WriteString("\tvar reservoir = new System.Collections.Generic.List<double>();\n\tulong n = 0, successCount = 0, errorCount = 0;\n\tlong totalNs = 0;\n\tvar errorSamples = new System.Collections.Generic.List<string>();\n\tvar rng = new Random();\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tlong deadline = clock() + %d * 1_000_000L;\n\twhile (clock() < deadline) {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tfor (ulong i = 0; i < %dUL; i++) {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\ttry {\n\t\t\tlong start = clock();\n")
	fmt.Fprintf(b, "\t\t\t%s;\n", benchCall)
	b.WriteString("\t\t\tlong elapsed = clock() - start;\n\t\t\ttotalNs += elapsed;\n\t\t\tn++;\n\t\t\tsuccessCount++;\n")
	b.WriteString("\t\t\tif (reservoir.Count < cap) {\n\t\t\t\treservoir.Add(elapsed);\n\t\t\t} else {\n\t\t\t\tint j = rng.Next((int)n);\n\t\t\t\tif (j < cap) reservoir[j] = elapsed;\n\t\t\t}\n")
	fmt.Fprintf(b, "\t\t} catch (Exception ex) {\n\t\t\terrorCount++;\n\t\t\tif (errorSamples.Count < %d) errorSamples.Add(ex.Message);\n\t\t}\n\t}\n", asyncErrorSampleCap)
	b.WriteString("\tdouble opsPerSec = totalNs > 0 ? successCount / ((double)totalNs / 1e9) : 0;\n")
	b.WriteString("\tvar sb = new StringBuilder();\n\tsb.Append('[');\n\tfor (int i = 0; i < reservoir.Count; i++) {\n\t\tif (i > 0) sb.Append(',');\n\t\tsb.Append(reservoir[i]);\n\t}\n\tsb.Append(']');\n")
	fmt.Fprintf(b, "\tConsole.WriteLine($\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"csharp\\\",\\\"kind\\\":\\\"async\\\",\\\"iterations\\\":{n},\\\"successful_results\\\":{sb},\\\"async_success_count\\\":{successCount},\\\"async_error_count\\\":{errorCount},\\\"total_nanos\\\":{totalNs},\\\"ops_per_sec\\\":{opsPerSec},\\\"timed_out\\\":false}}\");\n", spec.FullName)
}

// ===========================================================================
// Zig
// ===========================================================================

func zigProfile() Profile {
	return Profile{
		Lang:        ir.Zig,
		Name:        "Zig",
		FileExt:     ".zig",
		BaseImports: []string{"std"},
		RenderImports: func(imports []string) string {
			var b strings.Builder
			for _, imp := range imports {
				fmt.Fprintf(&b, "const %s = @import(%q);\n", imp, imp)
			}
			return b.String()
		},
		LineComment: func(text string) string { return "// " + text },
		ProbeCmd:    commandProbe("zig", "version"),
		CheckCmd: func(root, srcPath string) procexec.Spec {
			return procexec.Spec{Name: "zig", Args: []string{"build-exe", "--show-builtin", "-fno-emit-bin", srcPath}, Dir: root, Timeout: 60e9}
		},
		CompileCmd: func(root, srcPath, binPath string) procexec.Spec {
			return procexec.Spec{Name: "zig", Args: []string{"build-exe", "-O", "ReleaseFast", "-femit-bin=" + binPath, srcPath}, Dir: root, Timeout: 120e9}
		},
		RunCmd: func(binPath string) procexec.Spec {
			return procexec.Spec{Name: binPath}
		},
		MemoryHelper: func(spec *ir.BenchmarkSpec) string {
			if !spec.Memory {
				return ""
			}
			return "var __polybench_gpa = std.heap.GeneralPurposeAllocator(.{ .enable_memory_limit = true }){};"
		},
		FixtureLiteral: func(name string, raw []byte) string {
			return fmt.Sprintf("const %s = [_]u8{ %s };", name, bytesLiteral(raw, ", "))
		},
		SinkDecl: "var __polybench_sink: i64 = 0;",
		RenderBenchFunc: func(body string) string {
			return "fn bench() void {\n" + indentLines(body, "\t") + "}\n"
		},
		SinkAssign: func(expr string) string {
			return fmt.Sprintf("__polybench_sink = @intCast(%s);", expr)
		},
		RenderMain: zigRenderMain,
	}
}

func zigRenderMain(spec *ir.BenchmarkSpec, benchCall string) string {
	var b strings.Builder
	b.WriteString("pub fn main() !void {\n")
	b.WriteString("\tconst clock = std.time.nanoTimestamp;\n")
	b.WriteString("\tconst stdout = std.io.getStdOut().writer();\n")
	if spec.WarmupTimeMs > 0 {
		fmt.Fprintf(&b, "\tconst warmup_deadline = clock() + %d * 1_000_000;\n\twhile (clock() < warmup_deadline) {\n\t\t%s;\n\t}\n", spec.WarmupTimeMs, benchCall)
	} else if warmupCap(spec) > 0 {
		fmt.Fprintf(&b, "\tvar warmup_i: u64 = 0;\n\twhile (warmup_i < %d) : (warmup_i += 1) {\n\t\t%s;\n\t}\n", warmupCap(spec), benchCall)
	}
	if spec.Kind == ir.Async {
		zigEmitAsync(&b, spec, benchCall)
	} else {
		zigEmitSync(&b, spec, benchCall)
	}
	b.WriteString("}\n")
	return b.String()
}

func zigEmitSync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	switch spec.Mode {
	case ir.ModeFixed:
		fmt.Fprintf(b, "\tvar samples: [%d]f64 = undefined;\n\tvar i: u64 = 0;\n\twhile (i < %d) : (i += 1) {\n", spec.Iterations, spec.Iterations)
		fmt.Fprintf(b, "\t\tconst start = clock();\n\t\t%s;\n\t\tsamples[i] = @floatFromInt(clock() - start);\n\t}\n", benchCall)
		b.WriteString("\tvar total_nanos_all: f64 = 0;\n\tfor (samples) |v| total_nanos_all += v;\n\tconst count: u64 = samples.len;\n")
	default:
		fmt.Fprintf(b, "\tconst target: i128 = %d * 1_000_000;\n", spec.TargetTimeMs)
		b.WriteString("\tvar batch: u64 = 1;\n\tvar total_ns: i128 = 0;\n\tvar samples: [4096]f64 = undefined;\n\tvar count: u64 = 0;\n")
		b.WriteString("\twhile (total_ns < target and count < 4096) {\n\t\tconst start = clock();\n\t\tvar j: u64 = 0;\n")
		fmt.Fprintf(b, "\t\twhile (j < batch) : (j += 1) {\n\t\t\t%s;\n\t\t}\n", benchCall)
		b.WriteString("\t\tconst elapsed = clock() - start;\n\t\ttotal_ns += elapsed;\n\t\tsamples[count] = @as(f64, @floatFromInt(elapsed)) / @as(f64, @floatFromInt(batch));\n\t\tcount += 1;\n")
		b.WriteString("\t\tif (elapsed == 0) {\n\t\t\tbatch *= 10;\n\t\t\tcontinue;\n\t\t}\n")
		b.WriteString("\t\tconst remaining = target - total_ns;\n\t\tconst predicted: i128 = @as(i128, batch) * remaining / elapsed;\n")
		b.WriteString("\t\tif (remaining < elapsed) {\n\t\t\tbatch = if (predicted > 1) @intCast(predicted) else 1;\n\t\t} else {\n\t\t\tbatch = @max(batch * 2, @min(batch * 10, @as(u64, @intFromFloat(@as(f64, @floatFromInt(predicted)) * 1.1))));\n\t\t}\n\t}\n")
		b.WriteString("\tconst total_nanos_all: f64 = @floatFromInt(total_ns);\n")
	}
	b.WriteString("\tconst ops_per_sec: f64 = if (total_nanos_all > 0) @as(f64, @floatFromInt(count)) / (total_nanos_all / 1e9) else 0;\n")
	fmt.Fprintf(b, "\ttry stdout.print(\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"zig\\\",\\\"kind\\\":\\\"sync\\\",\\\"iterations\\\":{d},\\\"nanos_per_op\\\":[\", .{count});\n", spec.FullName)
	b.WriteString("\tfor (samples[0..count], 0..) |v, idx| {\n\t\tif (idx > 0) try stdout.print(\",\", .{});\n\t\ttry stdout.print(\"{d:.2}\", .{v});\n\t}\n")
	b.WriteString("\ttry stdout.print(\"],\\\"total_nanos\\\":{d:.2},\\\"ops_per_sec\\\":{d:.2},\\\"timed_out\\\":false}}\\n\", .{ total_nanos_all, ops_per_sec });\n")
}

func zigEmitAsync(b *strings.Builder, spec *ir.BenchmarkSpec, benchCall string) {
	fmt.Fprintf(b, "\tconst cap: u64 = %d;\n\tvar reservoir: [4096]f64 = undefined;\n\tvar n: u64 = 0;\n\tvar success_count: u64 = 0;\n\tvar total_ns: i128 = 0;\n", asyncSampleCap(spec))
	b.WriteString("\tvar rng_state: u32 = @truncate(@as(u128, @intCast(clock()))) | 1;\n")
	if spec.AsyncSamplingPolicy == ir.TimeBudgeted {
		fmt.Fprintf(b, "\tconst deadline = clock() + %d * 1_000_000;\n\twhile (clock() < deadline) {\n", spec.TargetTimeMs)
	} else {
		fmt.Fprintf(b, "\tvar i: u64 = 0;\n\twhile (i < %d) : (i += 1) {\n", asyncFixedCapIterations(spec))
	}
	b.WriteString("\t\t// bench() would need to return an error union for this loop to distinguish\n")
	b.WriteString("\t\t// a caught failure from a success; until the suite declares one, every\n")
	b.WriteString("\t\t// attempt below is treated as a success.\n")
	b.WriteString("\t\tconst start = clock();\n")
	fmt.Fprintf(b, "\t\t%s;\n", benchCall)
	b.WriteString("\t\tconst elapsed = clock() - start;\n\t\ttotal_ns += elapsed;\n\t\tn += 1;\n\t\tsuccess_count += 1;\n")
	b.WriteString("\t\trng_state ^= rng_state << 13;\n\t\trng_state ^= rng_state >> 17;\n\t\trng_state ^= rng_state << 5;\n")
	b.WriteString("\t\tif (n <= cap and n - 1 < 4096) {\n\t\t\treservoir[n - 1] = @floatFromInt(elapsed);\n\t\t} else {\n\t\t\tconst j = rng_state % n;\n\t\t\tif (j < cap and j < 4096) reservoir[j] = @floatFromInt(elapsed);\n\t\t}\n\t}\n")
	b.WriteString("\tconst kept = if (n < cap) n else cap;\n")
	b.WriteString("\tconst ops_per_sec: f64 = if (total_ns > 0) @as(f64, @floatFromInt(success_count)) / (@as(f64, @floatFromInt(total_ns)) / 1e9) else 0;\n")
	fmt.Fprintf(b, "\ttry stdout.print(\"{{\\\"benchmark\\\":\\\"%s\\\",\\\"lang\\\":\\\"zig\\\",\\\"kind\\\":\\\"async\\\",\\\"iterations\\\":{d},\\\"successful_results\\\":[\", .{n});\n", spec.FullName)
	b.WriteString("\tfor (reservoir[0..kept], 0..) |v, idx| {\n\t\tif (idx > 0) try stdout.print(\",\", .{});\n\t\ttry stdout.print(\"{d:.2}\", .{v});\n\t}\n")
	b.WriteString("\ttry stdout.print(\"],\\\"async_success_count\\\":{d},\\\"total_nanos\\\":{d},\\\"ops_per_sec\\\":{d:.2},\\\"timed_out\\\":false}}\\n\", .{ success_count, total_ns, ops_per_sec });\n")
}
