// Package multiphase runs an external executable once per phase against a
// fixed input directory and records each phase's output in the output
// directory.
//
// A Driver composes the three stages linearly: the phase planner builds the
// commands, the process runner executes them one at a time, and the job log
// store persists each result before the next phase starts. Phases never
// overlap.
//
// A phase that cannot be launched or that times out is recorded and the run
// moves on to the next phase. A result that cannot be persisted, or a
// cancelled context, stops the run.
package multiphase

import (
	"context"
	"time"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/joblog"
	"github.com/Iron-Ham/multiphase/internal/logging"
	"github.com/Iron-Ham/multiphase/internal/phase"
	"github.com/Iron-Ham/multiphase/internal/runner"
)

// Executor runs a single planned command. *runner.Runner satisfies it.
type Executor interface {
	Execute(ctx context.Context, cmd phase.Command) (*runner.JobResult, error)
}

// Persister stores a phase result. *joblog.Store satisfies it.
type Persister interface {
	Persist(result *runner.JobResult, prefix string) error
	CheckDir() error
}

// Observer is notified as phases start and finish. Display code implements
// it; the driver never writes to the terminal itself.
type Observer interface {
	PhaseStarted(cmd phase.Command, total int)
	PhaseFinished(outcome PhaseOutcome, total int)
}

// Driver executes a planned run.
type Driver struct {
	registry *phase.Registry
	executor Executor
	store    Persister
	logger   *logging.Logger
	observer Observer
	fs       afero.Fs
	strict   bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithObserver registers an observer for phase progress.
func WithObserver(o Observer) Option {
	return func(d *Driver) {
		d.observer = o
	}
}

// WithStrict makes non-zero child exits fail the run.
func WithStrict(strict bool) Option {
	return func(d *Driver) {
		d.strict = strict
	}
}

// WithFs sets the filesystem used to check the input directory.
func WithFs(fs afero.Fs) Option {
	return func(d *Driver) {
		d.fs = fs
	}
}

// New creates a Driver.
func New(registry *phase.Registry, executor Executor, store Persister, opts ...Option) *Driver {
	d := &Driver{
		registry: registry,
		executor: executor,
		store:    store,
		logger:   logging.NopLogger(),
		fs:       afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run checks the directories, plans every phase, then executes and persists
// them in order.
//
// An error is returned, with no phase run, when a directory is unusable or
// spec.Exec has no registered strategy. Otherwise Run returns the report
// and, if the run was stopped early, the error that stopped it. Per-phase
// failures that did not stop the run are available from Report.Err.
func (d *Driver) Run(ctx context.Context, spec phase.Spec) (*Report, error) {
	if err := d.checkInputDir(spec.InputDir); err != nil {
		return nil, err
	}
	if err := d.store.CheckDir(); err != nil {
		return nil, err
	}

	cmds, err := d.registry.Plan(spec)
	if err != nil {
		return nil, err
	}

	logger := d.logger.WithExec(spec.Exec)
	report := &Report{
		Exec:      spec.Exec,
		Planned:   len(cmds),
		Phases:    make([]PhaseOutcome, 0, len(cmds)),
		Strict:    d.strict,
		StartedAt: time.Now(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	logger.Info("run started",
		"phases", len(cmds),
		"input_dir", spec.InputDir,
		"output_dir", spec.OutputDir,
	)

	for _, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			logger.Warn("run interrupted", "completed", len(report.Phases), "planned", len(cmds))
			return report, err
		}

		outcome := d.runPhase(ctx, logger.WithPhase(cmd.Phase.Index), cmd, len(cmds))
		report.Phases = append(report.Phases, outcome)
		if d.observer != nil {
			d.observer.PhaseFinished(outcome, len(cmds))
		}

		switch {
		case errors.IsFatal(outcome.Err):
			logger.Error("run aborted",
				"error", outcome.Err,
				"severity", errors.GetSeverity(outcome.Err).String(),
			)
			return report, outcome.Err
		case ctx.Err() != nil:
			logger.Warn("run interrupted", "completed", len(report.Phases), "planned", len(cmds))
			if outcome.Err != nil {
				return report, outcome.Err
			}
			return report, ctx.Err()
		}
	}

	logger.Info("run finished",
		"succeeded", report.Count(StatusSucceeded),
		"exit_nonzero", report.Count(StatusExitNonZero),
		"launch_failed", report.Count(StatusLaunchFailed),
		"timed_out", report.Count(StatusTimedOut),
	)
	return report, nil
}

// runPhase executes and persists a single command.
func (d *Driver) runPhase(ctx context.Context, logger *logging.Logger, cmd phase.Command, total int) PhaseOutcome {
	if d.observer != nil {
		d.observer.PhaseStarted(cmd, total)
	}
	logger.Info("phase started", "command", cmd.String())

	result, execErr := d.executor.Execute(ctx, cmd)
	var err error
	if execErr != nil {
		err = errors.NewPhaseError(cmd.Phase.Index, cmd.String(), execErr)
	}

	// A launch failure leaves nothing to persist. A timed out or cancelled
	// phase still has its partial output written, and a failed write keeps
	// the execution error alongside it.
	if result != nil {
		if perr := d.store.Persist(result, cmd.Prefix()); perr != nil {
			err = errors.NewPhaseError(cmd.Phase.Index, cmd.String(), errors.Join(execErr, perr))
		}
	}

	outcome := PhaseOutcome{
		Command: cmd,
		Result:  result,
		Err:     err,
		Status:  classify(result, err),
	}

	switch outcome.Status {
	case StatusSucceeded, StatusExitNonZero:
		logger.Info("phase finished",
			"exit_code", result.ExitCode,
			"duration_ms", result.Duration.Milliseconds(),
		)
	default:
		logger.Warn("phase failed",
			"status", string(outcome.Status),
			"severity", errors.GetSeverity(err).String(),
			"error", err,
		)
	}
	return outcome
}

func (d *Driver) checkInputDir(dir string) error {
	info, err := d.fs.Stat(dir)
	if err != nil {
		return errors.NewValidationError("input directory is not accessible").
			WithField("inputDir").WithValue(dir).WithCause(err)
	}
	if !info.IsDir() {
		return errors.NewValidationError("input path is not a directory").
			WithField("inputDir").WithValue(dir)
	}
	return nil
}

var (
	_ Executor  = (*runner.Runner)(nil)
	_ Persister = (*joblog.Store)(nil)
)
