package scheduler

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jpequegn/polybench/internal/ir"
)

// EventType classifies a ProgressEvent.
type EventType int

const (
	EventSuiteStarted EventType = iota
	EventBenchmarkStarted
	EventRunCompleted
	EventBenchmarkCompleted
	EventBenchmarkFailed
	EventSuiteCompleted
)

// ProgressEvent is emitted at the points listed in §5 where the scheduler
// suspends: per-run completion, per-benchmark completion, and suite
// boundaries. A --serve invocation fans these out over a websocket in
// addition to the stderr printer.
type ProgressEvent struct {
	Type      EventType
	Suite     string
	Benchmark string
	Lang      ir.Lang
	RunIndex  int
	RunCount  int
	Elapsed   time.Duration
	Err       error
}

// ProgressHandler receives every ProgressEvent the scheduler emits.
type ProgressHandler func(ProgressEvent)

var (
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	styleSuite   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1F4E8C"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
	styleFail    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	styleLang    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E6F0"))
)

// DefaultProgressPrinter returns a ProgressHandler that writes a
// lipgloss-styled one-line-per-event stream to stderr, in the spirit of
// the corpus's own terminal-output styling.
func DefaultProgressPrinter() ProgressHandler {
	return func(ev ProgressEvent) {
		switch ev.Type {
		case EventSuiteStarted:
			fmt.Fprintln(os.Stderr, styleSuite.Render("▶ "+ev.Suite))
		case EventRunCompleted:
			fmt.Fprintf(os.Stderr, "  %s %s run %d/%d %s\n",
				styleLang.Render(string(ev.Lang)), ev.Benchmark, ev.RunIndex+1, ev.RunCount,
				styleMuted.Render(ev.Elapsed.String()))
		case EventBenchmarkCompleted:
			fmt.Fprintf(os.Stderr, "  %s %s %s\n", styleOK.Render("✓"), ev.Benchmark, styleMuted.Render(ev.Elapsed.String()))
		case EventBenchmarkFailed:
			fmt.Fprintf(os.Stderr, "  %s %s (%s): %v\n", styleFail.Render("✗"), ev.Benchmark, ev.Lang, ev.Err)
		case EventSuiteCompleted:
			fmt.Fprintln(os.Stderr, styleMuted.Render("  done: "+ev.Suite))
		}
	}
}

// NoopProgressHandler discards every event; the default when the caller
// supplies none.
func NoopProgressHandler(ProgressEvent) {}

// RenderRatioSummary formats a RatioSummary as a single styled line, e.g.
// "go 1.00x  ts 1.34x  rust 0.41x  (baseline go)".
func RenderRatioSummary(r *RatioSummary) string {
	if r == nil {
		return ""
	}
	out := ""
	for _, lang := range ir.AllLangs {
		ratio, ok := r.Ratios[lang]
		if !ok {
			continue
		}
		out += fmt.Sprintf("%s %.2fx  ", styleLang.Render(string(lang)), ratio)
	}
	return out + styleMuted.Render(fmt.Sprintf("(baseline %s)", r.BaselineLang))
}
