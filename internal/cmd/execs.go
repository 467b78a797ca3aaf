package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/multiphase/internal/config"
	"github.com/Iron-Ham/multiphase/internal/phase"
)

var execsCmd = &cobra.Command{
	Use:   "execs",
	Short: "List the executables multiphase can run",
	Long: `List every executable identifier accepted by --exec, together with the
program that is launched and the flags that introduce the input and output
directories. Additional executables are declared in the config file under
"executables".`,
	Args: cobra.NoArgs,
	RunE: runExecs,
}

func init() {
	rootCmd.AddCommand(execsCmd)
}

func runExecs(cmd *cobra.Command, args []string) error {
	if configReadErr != nil {
		return fmt.Errorf("failed to read config file: %w", configReadErr)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	registry, err := cfg.Registry()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBINARY\tINPUT FLAG\tOUTPUT FLAG")
	for _, name := range registry.Names() {
		s, err := registry.Lookup(name)
		if err != nil {
			return err
		}
		binary, in, out := name, "-", "-"
		if fs, ok := s.(phase.FlagStrategy); ok {
			if fs.Binary != "" {
				binary = fs.Binary
			}
			in, out = fs.InputFlag, fs.OutputFlag
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, binary, in, out)
	}
	return w.Flush()
}
