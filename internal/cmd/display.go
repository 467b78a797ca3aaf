package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/Iron-Ham/multiphase/internal/multiphase"
	"github.com/Iron-Ham/multiphase/internal/phase"
)

const banner = `
                 _ _   _       _
                | | | (_)     | |
 _ __ ___  _   _| | |_ _ _ __ | |__   __ _ ___  ___
| '_ ' _ \| | | | | __| | '_ \| '_ \ / _' / __|/ _ \
| | | | | | |_| | | |_| | |_) | | | | (_| \__ \  __/
|_| |_| |_|\__,_|_|\__|_| .__/|_| |_|\__,_|___/\___|
                        | |
                        |_|
`

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22D3EE")) // Cyan
	versionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")) // Yellow
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")) // Gray
	runningStyle = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // Green
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")) // Amber
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")) // Red
)

// display renders operator-facing progress. Output is suppressed entirely at
// verbosity zero and styled only when writing to a terminal.
type display struct {
	w         io.Writer
	verbosity int
	styled    bool
}

func newDisplay(w io.Writer, verbosity int, styled bool) *display {
	return &display{w: w, verbosity: verbosity, styled: styled}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func (d *display) render(style lipgloss.Style, s string) string {
	if !d.styled {
		return s
	}
	return style.Render(s)
}

func (d *display) printf(format string, args ...any) {
	if d.verbosity <= 0 {
		return
	}
	_, _ = fmt.Fprintf(d.w, format, args...)
}

// Banner prints the title, version and effective settings.
func (d *display) Banner(version string, settings [][2]string) {
	d.printf("%s\n", d.render(titleStyle, banner))
	d.printf("%s\n", d.render(versionStyle, "Version: "+version))
	for _, kv := range settings {
		d.printf("%s: %s\n", d.render(keyStyle, fmt.Sprintf("%25s", kv[0])), kv[1])
	}
	d.printf("\n")
}

// PhaseStarted implements multiphase.Observer.
func (d *display) PhaseStarted(cmd phase.Command, total int) {
	d.printf("%s %s...\n",
		d.render(runningStyle, fmt.Sprintf("[%d/%d] Running", cmd.Phase.Index+1, total)),
		cmd.String())
}

// PhaseFinished implements multiphase.Observer.
func (d *display) PhaseFinished(outcome multiphase.PhaseOutcome, total int) {
	label := fmt.Sprintf("[%d/%d] %s", outcome.Command.Phase.Index+1, total, describe(outcome))
	switch outcome.Status {
	case multiphase.StatusSucceeded:
		d.printf("%s\n", d.render(okStyle, label))
	case multiphase.StatusExitNonZero:
		d.printf("%s\n", d.render(warnStyle, label))
	default:
		d.printf("%s\n", d.render(failStyle, label))
	}
}

func describe(o multiphase.PhaseOutcome) string {
	switch o.Status {
	case multiphase.StatusSucceeded:
		return fmt.Sprintf("exited 0 in %s", o.Result.Duration.Round(time.Millisecond))
	case multiphase.StatusExitNonZero:
		return fmt.Sprintf("exited %d in %s", o.Result.ExitCode, o.Result.Duration.Round(time.Millisecond))
	case multiphase.StatusLaunchFailed:
		return "could not be started"
	case multiphase.StatusTimedOut:
		return "timed out"
	case multiphase.StatusCancelled:
		return "interrupted"
	case multiphase.StatusPersistError:
		return "result could not be written"
	default:
		return string(o.Status)
	}
}

// Summary prints one line counting each outcome.
func (d *display) Summary(r *multiphase.Report) {
	parts := []string{fmt.Sprintf("%d/%d phases ran", len(r.Phases), r.Planned)}
	for _, s := range []multiphase.Status{
		multiphase.StatusSucceeded,
		multiphase.StatusExitNonZero,
		multiphase.StatusLaunchFailed,
		multiphase.StatusTimedOut,
		multiphase.StatusCancelled,
		multiphase.StatusPersistError,
	} {
		if n := r.Count(s); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(s), "_", " ")))
		}
	}

	line := strings.Join(parts, ", ")
	style := okStyle
	if r.Err() != nil {
		style = failStyle
	}
	d.printf("\n%s in %s\n", d.render(style, line), r.Duration.Round(time.Millisecond))
}

var _ multiphase.Observer = (*display)(nil)
