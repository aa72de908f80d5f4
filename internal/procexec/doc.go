// Package procexec runs one external command to completion and captures
// its stdout/stderr, under an optional deadline.
//
// It is the os/exec call site for every run-to-completion subprocess.
// Both the runtime package (compiler invocations, harness execution) and
// the validator package (phase 1/2 compile checks) build on top of it, so
// those launches go through one timeout and capture path. The scheduler's
// Anvil spawner, which keeps a long-running node process, calls os/exec
// directly.
package procexec
