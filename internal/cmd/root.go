package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/multiphase/internal/config"
	"github.com/Iron-Ham/multiphase/internal/errors"
	"github.com/Iron-Ham/multiphase/internal/phase"
)

// configReadErr holds the error from reading a config file named with
// --config. A missing file in the default search path is not an error.
var configReadErr error

// Version is set at build time with -ldflags "-X .../internal/cmd.Version=...".
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "multiphase [flags] <inputDir> <outputDir>",
	Short: "Run an executable in several phases over the same input directory",
	Long: `multiphase runs one executable several times over the same input
directory. Each run, or phase, receives the common arguments plus one entry
of the pipe-separated specific arguments. The stdout, stderr and exit code of
every phase are written to the output directory as

  <exec>-<phase>-stdout
  <exec>-<phase>-stderr
  <exec>-<phase>-returncode

Phases run one after another, in the order they are listed.`,
	Example: `  multiphase -e pfdo_mgz2image \
    -c "--filterExpression mgz --verbose 1" \
    -s "--lookupTable __val__|--lookupTable __fs__" \
    /incoming /outgoing`,
	Args:          cobra.ExactArgs(2),
	RunE:          runMultiphase,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// Process exit statuses returned by ExitCode.
const (
	ExitFailure = 1 // a phase or the run failed
	ExitUsage   = 2 // the arguments could not be used
)

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, errors.ErrUnsupportedExecutable):
		return ExitUsage
	default:
		return ExitFailure
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default is $HOME/.config/multiphase/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "diagnostic log level: debug, info, warn, error")

	// Run flags
	flags := rootCmd.Flags()
	flags.StringP("exec", "e", phase.DefaultExec, "executable to run in each phase")
	flags.StringP("commonArgs", "c", "", "arguments passed to every phase")
	flags.StringP("specificArgs", "s", "", "pipe-separated per-phase arguments")
	flags.Bool("noJobLogging", false, "do not write per-phase stdout, stderr and returncode files")
	flags.IntP("verbosity", "v", 0, "echo child output and progress when above zero")
	flags.Duration("timeout", 0, "kill a phase that runs longer than this (0 disables)")
	flags.Bool("strict", false, "exit non-zero when any phase exits non-zero")
}

// flagBindings maps config keys to the flags that override them.
var flagBindings = map[string]string{
	"config":             "config",
	"logging.level":      "log-level",
	"run.exec":           "exec",
	"run.common_args":    "commonArgs",
	"run.specific_args":  "specificArgs",
	"run.no_job_logging": "noJobLogging",
	"run.verbosity":      "verbosity",
	"run.phase_timeout":  "timeout",
	"run.strict":         "strict",
}

// bindFlags binds every run flag to its config key. Bindings live on the
// global viper instance, so they are re-applied on each initialization.
func bindFlags(cmd *cobra.Command) {
	for key, name := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.PersistentFlags().Lookup(name)
		}
		if f != nil {
			_ = viper.BindPFlag(key, f)
		}
	}
}

func initConfig() {
	bindFlags(rootCmd)

	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/multiphase")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MULTIPHASE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MULTIPHASE_RUN_PHASE_TIMEOUT for run.phase_timeout
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	configReadErr = nil
	if err := viper.ReadInConfig(); err != nil && viper.GetString("config") != "" {
		configReadErr = err
	}
}
