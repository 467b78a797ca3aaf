package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/multiphase/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View multiphase configuration",
	Long: `View multiphase configuration.

Without arguments, displays the current configuration.
Use subcommands to create a config file or locate it.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/multiphase/config.yaml with all available options.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return fmt.Errorf("failed to read config file: %w", configReadErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintln(out, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// defaultConfigContent is the commented template written by config init.
const defaultConfigContent = `# multiphase configuration
#
# Every run.* value can also be set on the command line or through a
# MULTIPHASE_* environment variable (e.g., MULTIPHASE_RUN_PHASE_TIMEOUT).

run:
  # Executable identifier to run in each phase
  exec: pfdo_mgz2image
  # Arguments passed to every phase
  common_args: ""
  # Pipe-separated per-phase arguments, e.g. "--a 1|--a 2"
  specific_args: ""
  # Skip writing <exec>-<n>-stdout, -stderr and -returncode files
  no_job_logging: false
  # Echo child output and progress when above zero
  verbosity: 0
  # Kill a phase that runs longer than this, e.g. 30m (0 disables)
  phase_timeout: 0s
  # Exit non-zero when any phase exits non-zero
  strict: false

# Additional executables using the "<input_flag> <in> <output_flag> <out>" form
executables: []
#  - name: pfdo_med2image
#    binary: /usr/local/bin/pfdo_med2image
#    input_flag: -I
#    output_flag: -O

output:
  # Permission bits of the result files
  file_mode: "0644"

# Diagnostic log
logging:
  # debug, info, warn or error
  level: warn
  # Directory for multiphase.log (empty logs to stderr)
  dir: ""
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created config file at %s\n", configFile)
	fmt.Fprintln(out, "Edit this file to customize multiphase's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Fprintln(out, "\nSearch paths:")
	fmt.Fprintf(out, "  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Fprintf(out, "  2. $HOME/.config/multiphase/config.yaml\n")
	fmt.Fprintf(out, "  3. ./config.yaml (current directory)\n")
	fmt.Fprintln(out, "\nEnvironment variables: MULTIPHASE_* (e.g., MULTIPHASE_RUN_EXEC)")

	return nil
}
