// Package runner launches a single phase command and captures its output.
//
// Standard output is read line by line while the child runs and may be echoed
// to a live writer. Standard error is drained concurrently so a chatty child
// never blocks on a full pipe, but it is only surfaced after the child exits.
// A non-zero exit status is data on the JobResult, not an error.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/logging"
	"github.com/Iron-Ham/multiphase/internal/phase"
)

// JobResult is the captured outcome of one child process.
type JobResult struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the child exited with status zero.
func (r *JobResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// Config controls how commands are executed.
type Config struct {
	// Verbosity above zero echoes stdout live and stderr after exit.
	Verbosity int
	// Timeout bounds each command. Zero disables the limit.
	Timeout time.Duration
	// Dir is the working directory of the child. Empty means inherit.
	Dir string
	// WaitDelay bounds how long output pipes stay open after a timeout or
	// cancellation, in case a process outside the child's group still holds
	// them. Zero means DefaultWaitDelay.
	WaitDelay time.Duration
}

// DefaultWaitDelay is used when Config.WaitDelay is zero.
const DefaultWaitDelay = 5 * time.Second

// Runner executes phase commands one at a time.
type Runner struct {
	config Config
	echo   io.Writer
	logger *logging.Logger
}

// New creates a Runner that echoes to echo when verbosity is enabled.
// A nil echo writer or logger disables that output.
func New(cfg Config, echo io.Writer, logger *logging.Logger) *Runner {
	if echo == nil {
		echo = io.Discard
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = DefaultWaitDelay
	}
	return &Runner{config: cfg, echo: echo, logger: logger}
}

// Execute runs cmd to completion and returns its captured output.
//
// If the process cannot be started, Execute returns a *errors.LaunchError and
// a nil result. If the configured timeout expires, the child is killed and
// the partial result is returned together with a *errors.TimeoutError. If ctx
// is cancelled, the child is killed and the partial result is returned with
// ctx.Err().
func (r *Runner) Execute(ctx context.Context, cmd phase.Command) (*JobResult, error) {
	runCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	logger := r.logger.WithPhase(cmd.Phase.Index).With("command", cmd.String())

	c := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	c.Dir = r.config.Dir
	c.WaitDelay = r.config.WaitDelay
	configureProcess(c)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, errors.NewLaunchError(cmd.Exec, err).WithDir(c.Dir)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, errors.NewLaunchError(cmd.Exec, err).WithDir(c.Dir)
	}

	started := time.Now()
	if err := c.Start(); err != nil {
		logger.Warn("failed to start process", "error", err)
		return nil, errors.NewLaunchError(cmd.Exec, err).WithDir(c.Dir)
	}
	logger.Debug("process started", "pid", c.Process.Pid)

	var errBuf strings.Builder
	var wg conc.WaitGroup
	wg.Go(func() {
		_, _ = io.Copy(&errBuf, stderr)
	})

	out, readErr := r.readStdout(stdout)
	wg.Wait()
	waitErr := c.Wait()

	result := &JobResult{
		Stdout:    out,
		Stderr:    errBuf.String(),
		StartedAt: started,
		Duration:  time.Since(started),
	}

	if r.config.Verbosity > 0 && result.Stderr != "" {
		_, _ = fmt.Fprintf(r.echo, "\nstderr: \n%s\n", result.Stderr)
	}

	code, err := exitStatus(c.ProcessState, waitErr)
	if err != nil {
		// Wait failed for a reason other than the child's exit status.
		return nil, errors.NewLaunchError(cmd.Exec, err).WithDir(c.Dir)
	}
	result.ExitCode = code

	if readErr != nil {
		logger.Warn("stdout read interrupted", "error", readErr)
	}

	switch {
	case ctx.Err() != nil:
		logger.Warn("phase cancelled", "exit_code", code)
		return result, ctx.Err()
	case runCtx.Err() == context.DeadlineExceeded:
		logger.Warn("phase timed out", "timeout", r.config.Timeout.String())
		return result, errors.NewTimeoutError(fmt.Sprintf("phase %d", cmd.Phase.Index), r.config.Timeout).
			WithCause(runCtx.Err())
	}

	logger.Debug("process exited",
		"exit_code", code,
		"duration_ms", result.Duration.Milliseconds(),
		"stdout_bytes", len(result.Stdout),
		"stderr_bytes", len(result.Stderr),
	)
	return result, nil
}

// readStdout accumulates stdout until EOF, echoing each line as it arrives
// when verbosity is enabled. A final line without a trailing newline is kept.
func (r *Runner) readStdout(stdout io.Reader) (string, error) {
	var sb strings.Builder
	reader := bufio.NewReader(stdout)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			sb.WriteString(line)
			if r.config.Verbosity > 0 {
				_, _ = io.WriteString(r.echo, line)
			}
		}
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

// exitStatus converts the result of exec.Cmd.Wait into an exit code.
// A process killed by a signal gets the negated signal number.
func exitStatus(state *os.ProcessState, waitErr error) (int, error) {
	var exitErr *exec.ExitError
	switch {
	case errors.As(waitErr, &exitErr):
		return exitCode(exitErr), nil
	case state != nil:
		// Wait reports the context error for a child that exited cleanly
		// just as its context expired.
		return state.ExitCode(), nil
	default:
		return 0, waitErr
	}
}
