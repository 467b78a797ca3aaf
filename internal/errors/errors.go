// Package errors provides the error definitions and classification helpers
// used across multiphase. It defines sentinel errors for the conditions a run
// can hit, typed errors carrying phase context, and helpers for deciding how
// an error should affect the run.
//
// # Error Types
//
//   - LaunchError: the child process could not be started
//   - PersistError: a phase result could not be written to the output directory
//   - PhaseError: wraps any of the above with the phase index and command
//   - TimeoutError: a phase exceeded its configured timeout
//   - ValidationError: invalid configuration or input
//
// # Usage
//
//	err := errors.NewLaunchError("demo", startErr).WithDir("/incoming")
//	err = errors.NewPhaseError(2, "demo -I /in -O /out", err)
//
//	if errors.Is(err, errors.ErrLaunchFailed) { ... }
//
//	var phaseErr *errors.PhaseError
//	if errors.As(err, &phaseErr) {
//	    fmt.Println(phaseErr.Index)
//	}
//
// A non-zero exit code from the child is not an error anywhere in this
// package; it is recorded as data on the job result.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityWarning is for errors that are recorded but do not stop the run.
	SeverityWarning Severity = iota
	// SeverityError is for errors that fail a phase.
	SeverityError
	// SeverityCritical is for errors that abort the whole run.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

var (
	// ErrUnsupportedExecutable indicates that no command-assembly strategy is
	// registered for the requested executable identifier.
	ErrUnsupportedExecutable = New("unsupported executable")
	// ErrLaunchFailed indicates that the child process could not be started.
	ErrLaunchFailed = New("process launch failed")
	// ErrPersistFailed indicates that a job result could not be written.
	ErrPersistFailed = New("job result persistence failed")
	// ErrPhaseFailed indicates that one or more phases did not complete cleanly.
	ErrPhaseFailed = New("phase failed")
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// severer is implemented by every typed error in this package.
type severer interface {
	Severity() Severity
}

// -----------------------------------------------------------------------------
// LaunchError
// -----------------------------------------------------------------------------

// LaunchError reports that a child process could not be started: the
// executable is missing, not executable, or the working directory is bad.
// It is kept distinct from a process that ran and exited non-zero.
//
// Example:
//
//	err := errors.NewLaunchError("pfdo_mgz2image", execErr).WithDir("/incoming")
//	fmt.Println(err) // "launch error [exec=pfdo_mgz2image, dir=/incoming]: cannot start process: ..."
type LaunchError struct {
	baseError
	Executable string
	Dir        string
}

// NewLaunchError creates a new LaunchError for the given executable.
func NewLaunchError(executable string, cause error) *LaunchError {
	return &LaunchError{
		baseError: baseError{
			message:  "cannot start process",
			cause:    cause,
			severity: SeverityError,
		},
		Executable: executable,
	}
}

// WithDir adds the working directory to the error context.
func (e *LaunchError) WithDir(dir string) *LaunchError {
	e.Dir = dir
	return e
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	var parts []string
	if e.Executable != "" {
		parts = append(parts, fmt.Sprintf("exec=%s", e.Executable))
	}
	if e.Dir != "" {
		parts = append(parts, fmt.Sprintf("dir=%s", e.Dir))
	}

	prefix := "launch error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("launch error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *LaunchError) Is(target error) bool {
	if _, ok := target.(*LaunchError); ok {
		return true
	}
	if target == ErrLaunchFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// PersistError
// -----------------------------------------------------------------------------

// PersistError reports a failure to write one of a phase's result files.
type PersistError struct {
	baseError
	Path string
}

// NewPersistError creates a new PersistError for the file at path.
func NewPersistError(path string, cause error) *PersistError {
	return &PersistError{
		baseError: baseError{
			message:  "cannot write job result",
			cause:    cause,
			severity: SeverityCritical,
		},
		Path: path,
	}
}

// Error returns the formatted error message.
func (e *PersistError) Error() string {
	base := fmt.Sprintf("persist error [path=%s]: %s", e.Path, e.message)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *PersistError) Is(target error) bool {
	if _, ok := target.(*PersistError); ok {
		return true
	}
	if target == ErrPersistFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// PhaseError
// -----------------------------------------------------------------------------

// PhaseError attaches the phase index and rendered command to an error so the
// operator can tell which phase failed.
//
// Example:
//
//	err := errors.NewPhaseError(1, "demo -I /in -O /out b", cause)
//	fmt.Println(err) // "phase 1 [demo -I /in -O /out b]: ..."
type PhaseError struct {
	baseError
	Index   int
	Command string
}

// NewPhaseError creates a new PhaseError. The severity is inherited from the
// cause when the cause carries one.
func NewPhaseError(index int, command string, cause error) *PhaseError {
	sev := SeverityError
	if cause != nil {
		sev = GetSeverity(cause)
	}
	return &PhaseError{
		baseError: baseError{
			message:  fmt.Sprintf("phase %d", index),
			cause:    cause,
			severity: sev,
		},
		Index:   index,
		Command: command,
	}
}

// Error returns the formatted error message.
func (e *PhaseError) Error() string {
	prefix := e.message
	if e.Command != "" {
		prefix = fmt.Sprintf("%s [%s]", e.message, e.Command)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *PhaseError) Is(target error) bool {
	if _, ok := target.(*PhaseError); ok {
		return true
	}
	if target == ErrPhaseFailed {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// ValidationError
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or configuration.
//
// Example:
//
//	err := errors.NewValidationError("input directory does not exist").
//	    WithField("inputDir").WithValue("/missing")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:  message,
			severity: SeverityCritical,
		},
	}
}

// WithField sets the field that failed validation.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue sets the offending value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error")
	if e.Field != "" {
		sb.WriteString(fmt.Sprintf(" [%s]", e.Field))
	}
	sb.WriteString(": ")
	sb.WriteString(e.message)
	if e.Value != nil {
		sb.WriteString(fmt.Sprintf(" (got: %v)", e.Value))
	}
	if e.cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.cause))
	}
	return sb.String()
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// TimeoutError
// -----------------------------------------------------------------------------

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("phase 0", 30*time.Second)
//	fmt.Println(err) // "timeout error: phase 0 (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:  operation,
			severity: SeverityError,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsLaunchFailure reports whether err means the child process never ran.
func IsLaunchFailure(err error) bool {
	return err != nil && Is(err, ErrLaunchFailed)
}

// IsFatal reports whether err should abort the whole run rather than just the
// phase that produced it.
func IsFatal(err error) bool {
	return err != nil && GetSeverity(err) == SeverityCritical
}

// GetSeverity returns the highest severity carried anywhere in err's chain,
// including every branch of a joined error.
// Returns SeverityError for errors that don't carry a severity.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityWarning
	}
	if sev, ok := maxSeverity(err); ok {
		return sev
	}
	return SeverityError
}

func maxSeverity(err error) (Severity, bool) {
	var highest Severity
	found := false
	if s, ok := err.(severer); ok {
		highest, found = s.Severity(), true
	}

	var children []error
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		children = u.Unwrap()
	case interface{ Unwrap() error }:
		if c := u.Unwrap(); c != nil {
			children = []error{c}
		}
	}
	for _, c := range children {
		if sev, ok := maxSeverity(c); ok && (!found || sev > highest) {
			highest, found = sev, true
		}
	}
	return highest, found
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
