package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/multiphase/internal/phase"
)

// Config represents the complete multiphase configuration
type Config struct {
	Run         RunConfig          `mapstructure:"run" yaml:"run"`
	Executables []ExecutableConfig `mapstructure:"executables" yaml:"executables"`
	Output      OutputConfig       `mapstructure:"output" yaml:"output"`
	Logging     LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// RunConfig holds the per-invocation settings. Every field can also be set
// from the command line.
type RunConfig struct {
	// Exec is the executable identifier to run (default: "pfdo_mgz2image")
	Exec string `mapstructure:"exec" yaml:"exec"`
	// CommonArgs is appended to every phase's command line
	CommonArgs string `mapstructure:"common_args" yaml:"common_args"`
	// SpecificArgs is the pipe-delimited list of per-phase fragments
	SpecificArgs string `mapstructure:"specific_args" yaml:"specific_args"`
	// NoJobLogging disables writing the per-phase result files
	NoJobLogging bool `mapstructure:"no_job_logging" yaml:"no_job_logging"`
	// Verbosity above zero echoes child output to the terminal
	Verbosity int `mapstructure:"verbosity" yaml:"verbosity"`
	// PhaseTimeout kills a phase that runs longer than this (0 = disabled)
	PhaseTimeout time.Duration `mapstructure:"phase_timeout" yaml:"phase_timeout"`
	// Strict makes any non-zero child exit fail the run
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// ExecutableConfig registers an additional flag-based executable.
type ExecutableConfig struct {
	// Name is the identifier passed with --exec and used in result file names
	Name string `mapstructure:"name" yaml:"name"`
	// Binary is the program to launch (default: Name)
	Binary string `mapstructure:"binary" yaml:"binary,omitempty"`
	// InputFlag precedes the input directory (default: "-I")
	InputFlag string `mapstructure:"input_flag" yaml:"input_flag,omitempty"`
	// OutputFlag precedes the output directory (default: "-O")
	OutputFlag string `mapstructure:"output_flag" yaml:"output_flag,omitempty"`
}

// Strategy returns the assembly strategy described by e, with defaults
// applied for unset flags.
func (e ExecutableConfig) Strategy() phase.FlagStrategy {
	s := phase.NewFlagStrategy()
	s.Binary = e.Binary
	if e.InputFlag != "" {
		s.InputFlag = e.InputFlag
	}
	if e.OutputFlag != "" {
		s.OutputFlag = e.OutputFlag
	}
	return s
}

// OutputConfig controls the result files written to the output directory
type OutputConfig struct {
	// FileMode is the octal permission string for result files (default: "0644")
	FileMode FileMode `mapstructure:"file_mode" yaml:"file_mode"`
}

// FileMode is an octal permission string such as "0644".
type FileMode string

var fileModeType = reflect.TypeOf(FileMode(""))

// fileModeHook restores the octal spelling of a file mode written unquoted
// in YAML. The decoder reads 0644 as the integer 420, which would otherwise
// be parsed back as 0420.
func fileModeHook(from, to reflect.Type, data any) (any, error) {
	if to != fileModeType {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflect.ValueOf(data).Int(), 8), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflect.ValueOf(data).Uint(), 8), nil
	default:
		return data, nil
	}
}

// Mode parses FileMode. An empty string yields the default 0644.
func (o OutputConfig) Mode() (os.FileMode, error) {
	if o.FileMode == "" {
		return 0644, nil
	}
	v, err := strconv.ParseUint(string(o.FileMode), 8, 32)
	if err != nil {
		return 0, err
	}
	return os.FileMode(v), nil
}

// LoggingConfig controls the diagnostic log
type LoggingConfig struct {
	// Level is the minimum level recorded: debug, info, warn, error (default: "warn")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where multiphase.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the size at which the log file is rotated (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Exec:         phase.DefaultExec,
			CommonArgs:   "",
			SpecificArgs: "",
			NoJobLogging: false,
			Verbosity:    0,
			PhaseTimeout: 0, // No limit by default
			Strict:       false,
		},
		Executables: []ExecutableConfig{},
		Output: OutputConfig{
			FileMode: "0644",
		},
		Logging: LoggingConfig{
			Level:      "warn",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers default values with the global viper instance
func SetDefaults() {
	SetDefaultsOn(viper.GetViper())
}

// SetDefaultsOn registers default values with v
func SetDefaultsOn(v *viper.Viper) {
	defaults := Default()

	// Run defaults
	v.SetDefault("run.exec", defaults.Run.Exec)
	v.SetDefault("run.common_args", defaults.Run.CommonArgs)
	v.SetDefault("run.specific_args", defaults.Run.SpecificArgs)
	v.SetDefault("run.no_job_logging", defaults.Run.NoJobLogging)
	v.SetDefault("run.verbosity", defaults.Run.Verbosity)
	v.SetDefault("run.phase_timeout", defaults.Run.PhaseTimeout)
	v.SetDefault("run.strict", defaults.Run.Strict)

	// Executable defaults
	v.SetDefault("executables", defaults.Executables)

	// Output defaults
	v.SetDefault("output.file_mode", string(defaults.Output.FileMode))

	// Logging defaults
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.dir", defaults.Logging.Dir)
	v.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	v.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		fileModeHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Registry returns the default executable registry extended with every
// configured executable. Entries are validated by Validate, so a
// registration error here means the config was not validated first.
func (c *Config) Registry() (*phase.Registry, error) {
	reg := phase.DefaultRegistry()
	for _, e := range c.Executables {
		if err := reg.Register(e.Name, e.Strategy()); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "multiphase")
	}
	// Fall back to ~/.config/multiphase
	home, err := os.UserHomeDir()
	if err != nil {
		return ".multiphase"
	}
	return filepath.Join(home, ".config", "multiphase")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
