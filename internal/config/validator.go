package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "run.verbosity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateRun()...)
	errors = append(errors, c.validateExecutables()...)
	errors = append(errors, c.validateOutput()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateRun validates the RunConfig
func (c *Config) validateRun() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.Run.Exec) == "" {
		errors = append(errors, ValidationError{
			Field:   "run.exec",
			Value:   c.Run.Exec,
			Message: "must not be empty",
		})
	}

	if c.Run.Verbosity < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.verbosity",
			Value:   c.Run.Verbosity,
			Message: "must be non-negative",
		})
	}

	if c.Run.PhaseTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "run.phase_timeout",
			Value:   c.Run.PhaseTimeout,
			Message: "must be non-negative (0 disables the timeout)",
		})
	}

	return errors
}

// validateExecutables validates the extra registry entries
func (c *Config) validateExecutables() []ValidationError {
	var errors []ValidationError

	seen := make(map[string]bool)
	for i, e := range c.Executables {
		field := fmt.Sprintf("executables[%d]", i)

		if e.Name == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Value:   e.Name,
				Message: "must not be empty",
			})
			continue
		}
		if strings.ContainsAny(e.Name, " \t/\\") {
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Value:   e.Name,
				Message: "must not contain whitespace or path separators",
			})
		}
		if seen[e.Name] {
			errors = append(errors, ValidationError{
				Field:   field + ".name",
				Value:   e.Name,
				Message: "duplicate executable name",
			})
		}
		seen[e.Name] = true

		if e.InputFlag != "" && e.InputFlag == e.OutputFlag {
			errors = append(errors, ValidationError{
				Field:   field + ".output_flag",
				Value:   e.OutputFlag,
				Message: "must differ from input_flag",
			})
		}
	}

	return errors
}

// validateOutput validates the OutputConfig
func (c *Config) validateOutput() []ValidationError {
	var errors []ValidationError

	mode, err := c.Output.Mode()
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "output.file_mode",
			Value:   c.Output.FileMode,
			Message: "must be an octal permission string such as 0644",
		})
	} else if mode > 0777 {
		errors = append(errors, ValidationError{
			Field:   "output.file_mode",
			Value:   c.Output.FileMode,
			Message: "must only contain permission bits (at most 0777)",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "path contains invalid null character",
		})
	}

	return errors
}
