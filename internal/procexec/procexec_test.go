package procexec

import (
	"context"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	result, err := Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Stdout) != "hello\n" {
		t.Errorf("unexpected stdout: %q", result.Stdout)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	result, err := Run(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo oops 1>&2; exit 3"},
	})
	if err == nil {
		t.Fatal("expected error on non-zero exit")
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}
	if string(result.Stderr) != "oops\n" {
		t.Errorf("unexpected stderr: %q", result.Stderr)
	}
}

func TestRun_Timeout(t *testing.T) {
	result, err := Run(context.Background(), Spec{
		Name:    "sh",
		Args:    []string{"-c", "sleep 5"},
		Timeout: 50 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !result.TimedOut {
		t.Error("expected TimedOut to be set")
	}
}

func TestRun_WorkDir(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), Spec{
		Name: "pwd",
		Dir:  dir,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Stdout) == 0 {
		t.Error("expected non-empty pwd output")
	}
}
