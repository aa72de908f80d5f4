package runtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/jpequegn/polybench/internal/compilecache"
	"github.com/jpequegn/polybench/internal/ir"
	"github.com/jpequegn/polybench/internal/procexec"
)

// genericRuntime implements Runtime for any Profile. Every one of the
// seven supported languages is one genericRuntime wrapping one Profile;
// no per-language Go type exists.
type genericRuntime struct {
	profile Profile

	projectRoot string
	anvilRPCURL string

	lastPrecompileNanos atomic.Int64
	lastLineMap         LineMap

	cachedHash   uint64
	cachedBinary string
}

// New constructs a Runtime for the given Profile.
func New(profile Profile) Runtime {
	return &genericRuntime{profile: profile}
}

func (r *genericRuntime) Name() string { return r.profile.Name }

func (r *genericRuntime) Lang() ir.Lang { return r.profile.Lang }

func (r *genericRuntime) SetProjectRoot(path string) { r.projectRoot = path }

func (r *genericRuntime) SetAnvilRPCURL(url string) { r.anvilRPCURL = url }

func (r *genericRuntime) Initialize(ctx context.Context) error {
	if r.profile.ProbeCmd == nil {
		return nil
	}
	if _, err := procexec.Run(ctx, r.profile.ProbeCmd()); err != nil {
		return fmt.Errorf("%s toolchain unavailable: %w", r.profile.Name, err)
	}
	return nil
}

func (r *genericRuntime) GenerateCheckSource(suite *ir.SuiteIR, spec *ir.BenchmarkSpec) (string, error) {
	source, err := GenerateSource(r.profile, suite, spec)
	if err != nil {
		return "", err
	}
	r.lastLineMap = ExtractLineMap(source)
	return source, nil
}

// LastLineMap returns the LineMap extracted from the most recent source
// this runtime generated, for rewriting compiler/check errors per §C.7.
func (r *genericRuntime) LastLineMap() LineMap {
	return r.lastLineMap
}

func (r *genericRuntime) sandboxDir() string {
	root := r.projectRoot
	if root == "" {
		root = os.TempDir()
	}
	return filepath.Join(root, ".polybench", "runtime-env", string(r.profile.Lang))
}

func (r *genericRuntime) writeSource(fullName, source string) (string, error) {
	dir := r.sandboxDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sanitizeFileStem(fullName)+r.profile.FileExt)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (r *genericRuntime) CompileCheck(ctx context.Context, fullName, source string, cache *compilecache.Cache) (compilecache.CompileResult, error) {
	if cache != nil {
		if cached, ok := cache.Get(fullName, string(r.profile.Lang), source); ok {
			return cached, nil
		}
	}

	srcPath, err := r.writeSource(fullName, source)
	if err != nil {
		return compilecache.CompileResult{}, err
	}

	result := compilecache.CompileResult{OK: true}

	if r.profile.CheckCmd != nil {
		if _, err := procexec.Run(ctx, r.profile.CheckCmd(r.sandboxDir(), srcPath)); err != nil {
			result = compilecache.CompileResult{OK: false, Message: err.Error()}
		}
	}

	if cache != nil {
		cache.Set(fullName, string(r.profile.Lang), source, result)
	}

	return result, nil
}

func (r *genericRuntime) Precompile(ctx context.Context, suite *ir.SuiteIR, spec *ir.BenchmarkSpec, cache *compilecache.Cache) (string, error) {
	source, err := GenerateSource(r.profile, suite, spec)
	if err != nil {
		return "", err
	}
	r.lastLineMap = ExtractLineMap(source)

	hash := compilecache.Key(spec.FullName, string(r.profile.Lang), source)

	if r.cachedBinary != "" && r.cachedHash == hash {
		if _, err := os.Stat(r.cachedBinary); err == nil {
			r.lastPrecompileNanos.Store(0)
			return r.cachedBinary, nil
		}
	}

	srcPath, err := r.writeSource(spec.FullName, source)
	if err != nil {
		return "", err
	}

	binPath := filepath.Join(r.sandboxDir(), sanitizeFileStem(spec.FullName)+".bin")

	var result compilecache.CompileResult
	duration := measureDuration(func() error {
		if r.profile.CompileCmd == nil {
			result = compilecache.CompileResult{OK: true}
			return nil
		}
		if _, err := procexec.Run(ctx, r.profile.CompileCmd(r.sandboxDir(), srcPath, binPath)); err != nil {
			result = compilecache.CompileResult{OK: false, Message: err.Error()}
			return err
		}
		result = compilecache.CompileResult{OK: true}
		return nil
	})

	if cache != nil {
		cache.Set(spec.FullName, string(r.profile.Lang), source, result)
	}

	if !result.OK {
		return "", fmt.Errorf("precompile failed for %s (%s): %s", spec.FullName, r.profile.Lang, result.Message)
	}

	r.lastPrecompileNanos.Store(duration.Nanoseconds())
	r.cachedHash = hash
	r.cachedBinary = binPath

	return binPath, nil
}

func (r *genericRuntime) RunBenchmark(ctx context.Context, spec *ir.BenchmarkSpec, binaryPath string) (*HarnessResult, error) {
	if r.profile.RunCmd == nil {
		return nil, fmt.Errorf("%s has no run command configured", r.profile.Name)
	}

	runSpec := r.profile.RunCmd(binaryPath)
	if spec.TimeoutMs > 0 {
		runSpec.Timeout = msToDuration(spec.TimeoutMs)
	}
	if r.anvilRPCURL != "" {
		env := runSpec.Env
		if len(env) == 0 {
			env = os.Environ()
		}
		runSpec.Env = append(env, "ANVIL_RPC_URL="+r.anvilRPCURL)
	}

	res, err := procexec.Run(ctx, runSpec)
	if err != nil {
		if res != nil && res.TimedOut {
			return &HarnessResult{
				Benchmark: spec.FullName,
				Lang:      string(r.profile.Lang),
				Kind:      spec.Kind.String(),
				TimedOut:  true,
			}, nil
		}
		return nil, fmt.Errorf("%s run failed: %w", spec.FullName, err)
	}

	return parseHarnessResult(res.Stdout)
}

func (r *genericRuntime) Shutdown(ctx context.Context) error {
	return nil
}

func (r *genericRuntime) LastPrecompileNanos() int64 {
	return r.lastPrecompileNanos.Load()
}

func parseHarnessResult(stdout []byte) (*HarnessResult, error) {
	line := lastNonEmptyLine(stdout)
	if line == "" {
		return nil, fmt.Errorf("harness produced no output")
	}

	var hr HarnessResult
	if err := json.Unmarshal([]byte(line), &hr); err != nil {
		return nil, fmt.Errorf("failed to parse harness result: %w", err)
	}
	return &hr, nil
}

func lastNonEmptyLine(b []byte) string {
	lines := bytes.Split(bytes.TrimRight(b, "\n"), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := bytes.TrimSpace(lines[i])
		if len(trimmed) > 0 {
			return string(trimmed)
		}
	}
	return ""
}

func sanitizeFileStem(fullName string) string {
	out := make([]rune, 0, len(fullName))
	for _, c := range fullName {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
