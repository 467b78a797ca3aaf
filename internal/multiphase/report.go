package multiphase

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/phase"
	"github.com/Iron-Ham/multiphase/internal/runner"
)

// Status classifies how a phase ended.
type Status string

const (
	StatusSucceeded    Status = "succeeded"     // exited zero
	StatusExitNonZero  Status = "exit_nonzero"  // ran, exited non-zero
	StatusLaunchFailed Status = "launch_failed" // never started
	StatusTimedOut     Status = "timed_out"     // killed after the phase timeout
	StatusCancelled    Status = "cancelled"     // killed because the run was interrupted
	StatusPersistError Status = "persist_error" // ran, but its result could not be written
)

// PhaseOutcome is the record of one executed phase.
type PhaseOutcome struct {
	Command phase.Command
	// Result is nil when the process could not be launched.
	Result *runner.JobResult
	// Err is a *errors.PhaseError, or nil when the phase ran to completion
	// and its result was persisted.
	Err    error
	Status Status
}

// ExitCode returns the child's exit code, or -1 when it never ran.
func (o PhaseOutcome) ExitCode() int {
	if o.Result == nil {
		return -1
	}
	return o.Result.ExitCode
}

func classify(result *runner.JobResult, err error) Status {
	switch {
	case errors.IsLaunchFailure(err):
		return StatusLaunchFailed
	case errors.Is(err, errors.ErrPersistFailed):
		return StatusPersistError
	case errors.Is(err, errors.ErrTimeout):
		return StatusTimedOut
	case err != nil:
		return StatusCancelled
	case result.Succeeded():
		return StatusSucceeded
	default:
		return StatusExitNonZero
	}
}

// Report summarizes a run. Phases holds one outcome per phase that was
// attempted, in phase order.
type Report struct {
	Exec      string
	Planned   int
	Phases    []PhaseOutcome
	Strict    bool
	StartedAt time.Time
	Duration  time.Duration
}

// Count returns the number of phases that ended with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, p := range r.Phases {
		if p.Status == s {
			n++
		}
	}
	return n
}

// Complete reports whether every planned phase was attempted.
func (r *Report) Complete() bool {
	return len(r.Phases) == r.Planned
}

// Err returns the error that should determine the process exit status, or
// nil for a clean run. Launch failures, timeouts, cancellation and
// persistence failures always count. Non-zero child exits count only in
// strict mode.
func (r *Report) Err() error {
	var errs []error
	for _, p := range r.Phases {
		switch {
		case p.Err != nil:
			errs = append(errs, p.Err)
		case r.Strict && p.Status == StatusExitNonZero:
			errs = append(errs, errors.NewPhaseError(p.Command.Phase.Index, p.Command.String(),
				fmt.Errorf("%w: exit code %d", errors.ErrPhaseFailed, p.ExitCode())))
		}
	}
	if !r.Complete() && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d phases ran", errors.ErrPhaseFailed, len(r.Phases), r.Planned))
	}
	return errors.Join(errs...)
}
