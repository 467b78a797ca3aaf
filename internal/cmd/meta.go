package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// appMeta describes multiphase to plugin hosts that register command-line
// apps by introspecting them.
type appMeta struct {
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Version     string      `json:"version"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	License     string      `json:"license"`
	Parameters  []paramMeta `json:"parameters"`
}

type paramMeta struct {
	Name     string `json:"name"`
	Flag     string `json:"flag"`
	Short    string `json:"short_flag,omitempty"`
	Type     string `json:"type"`
	Default  string `json:"default"`
	Help     string `json:"help"`
	Optional bool   `json:"optional"`
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Print a JSON description of the app and its parameters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(describeApp(rootCmd), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode app description: %w", err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(metaCmd)
}

func describeApp(root *cobra.Command) appMeta {
	meta := appMeta{
		Name:        root.Name(),
		Title:       "Multiphase wrapper",
		Version:     Version,
		Category:    "utility",
		Type:        "ds",
		Description: root.Short,
		License:     "MIT",
		Parameters:  []paramMeta{},
	}
	root.Flags().VisitAll(func(f *pflag.Flag) {
		meta.Parameters = append(meta.Parameters, paramMeta{
			Name:     f.Name,
			Flag:     "--" + f.Name,
			Short:    shortFlag(f),
			Type:     f.Value.Type(),
			Default:  f.DefValue,
			Help:     f.Usage,
			Optional: true,
		})
	})
	return meta
}

func shortFlag(f *pflag.Flag) string {
	if f.Shorthand == "" {
		return ""
	}
	return "-" + f.Shorthand
}
