package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/multiphase/internal/config"
	"github.com/Iron-Ham/multiphase/internal/joblog"
	"github.com/Iron-Ham/multiphase/internal/logging"
	"github.com/Iron-Ham/multiphase/internal/multiphase"
	"github.com/Iron-Ham/multiphase/internal/phase"
	"github.com/Iron-Ham/multiphase/internal/runner"
)

func runMultiphase(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return fmt.Errorf("failed to read config file: %w", configReadErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	spec := phase.Spec{
		Exec:         cfg.Run.Exec,
		InputDir:     args[0],
		OutputDir:    args[1],
		CommonArgs:   cfg.Run.CommonArgs,
		SpecificArgs: cfg.Run.SpecificArgs,
	}

	out := cmd.OutOrStdout()
	disp := newDisplay(out, cfg.Run.Verbosity, isTerminal(out))
	disp.Banner(Version, settingsTable(cfg, spec))

	mode, _ := cfg.Output.Mode() // validated by config.Load
	storeOpts := []joblog.Option{joblog.WithFileMode(mode)}
	if cfg.Run.NoJobLogging {
		storeOpts = append(storeOpts, joblog.Disabled())
	}
	store := joblog.NewStore(spec.OutputDir, storeOpts...)

	r := runner.New(runner.Config{
		Verbosity: cfg.Run.Verbosity,
		Timeout:   cfg.Run.PhaseTimeout,
	}, out, logger)

	driver := multiphase.New(registry, r, store,
		multiphase.WithLogger(logger),
		multiphase.WithObserver(disp),
		multiphase.WithStrict(cfg.Run.Strict),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := driver.Run(ctx, spec)
	if report != nil {
		disp.Summary(report)
	}
	if err != nil {
		return err
	}
	return report.Err()
}

// newLogger builds the diagnostic logger. With no log directory configured,
// records go to stderr.
func newLogger(cfg config.LoggingConfig, stderr io.Writer) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Dir == "" {
		return logging.NewLogger(stderr, level), nil
	}
	logger, err := logging.NewFileLogger(cfg.Dir, level, logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostic log: %w", err)
	}
	return logger, nil
}

// settingsTable lists the effective run settings shown under the banner.
func settingsTable(cfg *config.Config, spec phase.Spec) [][2]string {
	timeout := "none"
	if cfg.Run.PhaseTimeout > 0 {
		timeout = cfg.Run.PhaseTimeout.String()
	}
	return [][2]string{
		{"inputdir", spec.InputDir},
		{"outputdir", spec.OutputDir},
		{"exec", spec.Exec},
		{"commonArgs", spec.CommonArgs},
		{"specificArgs", spec.SpecificArgs},
		{"noJobLogging", fmt.Sprint(cfg.Run.NoJobLogging)},
		{"verbosity", fmt.Sprint(cfg.Run.Verbosity)},
		{"timeout", timeout},
		{"strict", fmt.Sprint(cfg.Run.Strict)},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
