package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"
	"time"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLaunchError(t *testing.T) {
	cause := exec.ErrNotFound
	err := NewLaunchError("pfdo_mgz2image", cause).WithDir("/incoming")

	want := "launch error [exec=pfdo_mgz2image, dir=/incoming]: cannot start process: " + cause.Error()
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrLaunchFailed) {
		t.Error("errors.Is(err, ErrLaunchFailed) = false, want true")
	}
	if !errors.Is(err, exec.ErrNotFound) {
		t.Error("errors.Is(err, exec.ErrNotFound) = false, want true")
	}
	if errors.Is(err, ErrPersistFailed) {
		t.Error("errors.Is(err, ErrPersistFailed) = true, want false")
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
}

func TestLaunchError_NoContext(t *testing.T) {
	err := NewLaunchError("", nil)
	if got, want := err.Error(), "launch error: cannot start process"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestPersistError(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := NewPersistError("/out/demo-0-stdout", cause)

	want := "persist error [path=/out/demo-0-stdout]: cannot write job result: permission denied"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrPersistFailed) {
		t.Error("errors.Is(err, ErrPersistFailed) = false, want true")
	}
	if !IsFatal(err) {
		t.Error("IsFatal() = false, want true")
	}
}

func TestPhaseError(t *testing.T) {
	t.Run("inherits severity from cause", func(t *testing.T) {
		err := NewPhaseError(2, "demo -I /in -O /out c", NewPersistError("/out/x", nil))
		if err.Severity() != SeverityCritical {
			t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
		}
		if !errors.Is(err, ErrPersistFailed) {
			t.Error("errors.Is(err, ErrPersistFailed) = false, want true")
		}
		if !errors.Is(err, ErrPhaseFailed) {
			t.Error("errors.Is(err, ErrPhaseFailed) = false, want true")
		}
	})

	t.Run("defaults to error severity", func(t *testing.T) {
		err := NewPhaseError(0, "", fmt.Errorf("boom"))
		if err.Severity() != SeverityError {
			t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
		}
		if got, want := err.Error(), "phase 0: boom"; got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})

	t.Run("includes command", func(t *testing.T) {
		err := NewPhaseError(1, "demo b", NewLaunchError("demo", exec.ErrNotFound))
		want := "phase 1 [demo b]: launch error [exec=demo]: cannot start process: " + exec.ErrNotFound.Error()
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !IsLaunchFailure(err) {
			t.Error("IsLaunchFailure() = false, want true")
		}

		var phaseErr *PhaseError
		if !errors.As(err, &phaseErr) || phaseErr.Index != 1 {
			t.Errorf("errors.As did not recover phase index, got %+v", phaseErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("bad"),
			want: "validation error: bad",
		},
		{
			name: "field and value",
			err:  NewValidationError("does not exist").WithField("inputDir").WithValue("/missing"),
			want: "validation error [inputDir]: does not exist (got: /missing)",
		},
		{
			name: "with cause",
			err:  NewValidationError("unknown").WithField("exec").WithCause(ErrUnsupportedExecutable),
			want: "validation error [exec]: unknown: unsupported executable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Error("errors.Is(err, ErrInvalidInput) = false, want true")
			}
		})
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("phase 0", 30*time.Second)
	if got, want := err.Error(), "timeout error: phase 0 (timeout: 30s)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("errors.Is(err, ErrTimeout) = false, want true")
	}
	if IsFatal(err) {
		t.Error("IsFatal() = true, want false")
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil", nil, SeverityWarning},
		{"plain", fmt.Errorf("x"), SeverityError},
		{"wrapped persist", Wrap(NewPersistError("p", nil), "ctx"), SeverityCritical},
		{"launch", NewLaunchError("x", nil), SeverityError},
		{"joined timeout and persist", Join(NewTimeoutError("phase 0", time.Second), NewPersistError("p", nil)), SeverityCritical},
		{"phase wrapping join", NewPhaseError(0, "demo", Join(NewTimeoutError("phase 0", time.Second), NewPersistError("p", nil))), SeverityCritical},
		{"joined plain errors", Join(New("a"), New("b")), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	err := Wrapf(ErrTimeout, "phase %d", 3)
	if got, want := err.Error(), "phase 3: operation timed out"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("Wrapf() lost the wrapped error")
	}
}
