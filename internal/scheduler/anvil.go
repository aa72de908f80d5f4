package scheduler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/jpequegn/polybench/internal/ir"
)

// AnvilSpawner starts and stops a local Ethereum node (Foundry's anvil) for
// suites that declare an AnvilConfig. Spawn returns the node's JSON-RPC URL
// once it is ready to accept connections.
type AnvilSpawner interface {
	Spawn(ctx context.Context, cfg *ir.AnvilConfig) (rpcURL string, err error)
	Shutdown(ctx context.Context) error
}

// NoopAnvilSpawner starts no node: Spawn returns an empty URL and no
// error. It is the Scheduler's default when no WithAnvilSpawner option is
// given; a suite that declares an Anvil config then runs without a node
// and no runtime receives an RPC URL.
type NoopAnvilSpawner struct{}

func (NoopAnvilSpawner) Spawn(ctx context.Context, cfg *ir.AnvilConfig) (string, error) {
	return "", nil
}

func (NoopAnvilSpawner) Shutdown(ctx context.Context) error { return nil }

// ProcessAnvilSpawner shells out to the real "anvil" binary, forking from
// cfg.ForkURL when set, and parses the "Listening on 127.0.0.1:PORT" line
// anvil prints to stdout once its JSON-RPC server is up.
type ProcessAnvilSpawner struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

func NewProcessAnvilSpawner() *ProcessAnvilSpawner {
	return &ProcessAnvilSpawner{}
}

func (s *ProcessAnvilSpawner) Spawn(ctx context.Context, cfg *ir.AnvilConfig) (string, error) {
	args := []string{}
	if cfg != nil && cfg.ForkURL != "" {
		args = append(args, "--fork-url", cfg.ForkURL)
	}

	cmd := exec.CommandContext(ctx, "anvil", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("anvil stdout pipe: %w", err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("anvil start: %w", err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	urlCh := make(chan string, 1)
	go scanForListeningLine(stdout, urlCh)

	select {
	case url, ok := <-urlCh:
		if !ok || url == "" {
			_ = s.Shutdown(context.Background())
			return "", fmt.Errorf("anvil exited before reporting a listening address")
		}
		return url, nil
	case <-time.After(15 * time.Second):
		_ = s.Shutdown(context.Background())
		return "", fmt.Errorf("anvil did not report readiness within 15s")
	}
}

// scanForListeningLine reads anvil's startup banner looking for its
// "Listening on HOST:PORT" line and converts it to an http RPC URL.
func scanForListeningLine(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "Listening on "); idx >= 0 {
			addr := strings.TrimSpace(line[idx+len("Listening on "):])
			out <- "http://" + addr
			return
		}
	}
}

func (s *ProcessAnvilSpawner) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	_ = cmd.Wait()
	return nil
}
