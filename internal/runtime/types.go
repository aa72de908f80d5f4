package runtime

import (
	"context"
	"encoding/json"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
)

// HarnessResult is the single-line JSON object every generated harness
// program prints to stdout on exit, regardless of language. Sync
// benchmarks populate NanosPerOp directly; async benchmarks populate
// SuccessfulResults (the reservoir-sampled per-success timings) plus the
// success/error counters instead, per §C.3/§C.5.
type HarnessResult struct {
	Benchmark    string    `json:"benchmark"`
	Lang         string    `json:"lang"`
	Kind         string    `json:"kind"`
	Iterations   uint64    `json:"iterations"`
	NanosPerOp   []float64 `json:"nanos_per_op"`
	AllocedBytes []float64 `json:"alloced_bytes,omitempty"`
	TimedOut     bool      `json:"timed_out"`
	Error        string    `json:"error,omitempty"`

	TotalNanos float64         `json:"total_nanos,omitempty"`
	WarmupNanos float64        `json:"warmup_nanos,omitempty"`
	SpawnNanos  float64        `json:"spawn_nanos,omitempty"`
	OpsPerSec   float64        `json:"ops_per_sec,omitempty"`
	RawResult   json.RawMessage `json:"raw_result,omitempty"`

	SuccessfulResults []float64 `json:"successful_results,omitempty"`
	AsyncSuccessCount uint64    `json:"async_success_count,omitempty"`
	AsyncErrorCount   uint64    `json:"async_error_count,omitempty"`
	AsyncErrorSamples []string  `json:"async_error_samples,omitempty"`
}

// Runtime is the uniform per-language lifecycle the validator and
// scheduler drive. Every method is safe to call only on the goroutine
// that owns the Runtime value; concurrent benchmarks use one Runtime
// instance per goroutine (instances are cheap; all shared toolchain state
// lives in the Profile).
type Runtime interface {
	// Name is the human-readable runtime name (e.g. "Go", "C#").
	Name() string

	// Lang is the runtime's Lang tag.
	Lang() ir.Lang

	// SetProjectRoot points the runtime at the directory its generated
	// harness programs should be written/built under.
	SetProjectRoot(path string)

	// SetAnvilRPCURL records a running Anvil node's RPC URL; RunBenchmark
	// then passes it to the harness process as the ANVIL_RPC_URL
	// environment variable. The scheduler calls it only for suites that
	// spawned a node.
	SetAnvilRPCURL(url string)

	// Initialize performs one-time, possibly slow setup (toolchain
	// version probe, workspace scaffold) before any benchmark runs.
	Initialize(ctx context.Context) error

	// GenerateCheckSource renders the full harness source for one
	// benchmark without compiling or running it.
	GenerateCheckSource(suite *ir.SuiteIR, spec *ir.BenchmarkSpec) (string, error)

	// CompileCheck compiles (or syntax-checks, for interpreted
	// languages) source without executing it, consulting and updating
	// cache by content hash.
	CompileCheck(ctx context.Context, fullName, source string, cache *compilecache.Cache) (compilecache.CompileResult, error)

	// Precompile produces a ready-to-run binary/script for spec, reusing
	// a cached one when the source hash is unchanged. Returns the path
	// to invoke at run time.
	Precompile(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, cache *compilecache.Cache) (string, error)

	// RunBenchmark executes the precompiled artifact and parses its
	// single-line JSON result.
	RunBenchmark(ctx context.Context, spec *ir.BenchmarkSpec, binaryPath string) (*HarnessResult, error)

	// Shutdown releases any resources Initialize acquired.
	Shutdown(ctx context.Context) error

	// LastPrecompileNanos is the wall-clock duration of the most recent
	// successful Precompile call; 0 when that call was a cache hit, or
	// when none has run.
	LastPrecompileNanos() int64

	// LastLineMap returns the LineMap extracted from the most recently
	// generated source, for remapping a compile or check error's
	// generated-file line back to the suite section it came from.
	LastLineMap() LineMap
}
