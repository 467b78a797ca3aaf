// Package logging provides structured diagnostic logging for multiphase runs.
//
// It wraps log/slog with a JSON handler and adds child loggers that carry
// run context (executable, phase index) on every record. Diagnostic logs are
// separate from the operator-facing progress output and from the per-phase
// job result files.
//
// # Basic Usage
//
//	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
//	phaseLogger := logger.WithExec("pfdo_mgz2image").WithPhase(0)
//	phaseLogger.Info("phase finished", "exit_code", 0)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"phase finished","exec":"pfdo_mgz2image","phase":0,"exit_code":0}
//
// # Log Files
//
// [NewFileLogger] writes to {dir}/multiphase.log through a [RotatingWriter],
// which rotates the file once it exceeds the configured size. Backups are
// named multiphase.log.1 (newest) through multiphase.log.N and are gzip
// compressed when requested.
//
// # Testing
//
// Use [NopLogger] to discard all output.
package logging
