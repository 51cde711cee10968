package cmd

import (
	"fmt"

	"github.com/cottand/duckcheck/internal/config"
	"github.com/spf13/cobra"
)

var BuiltinsCmd = &cobra.Command{
	Use:          "builtins",
	Short:        "Print the table of built-in types as TOML",
	RunE:         runBuiltins,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

var overridePath *string

func init() {
	overridePath = BuiltinsCmd.Flags().StringP("builtins", "b", "", "TOML table of built-in types, merged over the default one")
}

func runBuiltins(cmd *cobra.Command, _ []string) error {
	table, err := config.Default()
	if *overridePath != "" {
		table, err = config.LoadFile(*overridePath)
	}
	if err != nil {
		return fmt.Errorf("could not load built-in types: %w", err)
	}
	// fail early on tables which cannot be registered
	if _, err := table.Registry(); err != nil {
		return fmt.Errorf("invalid built-in types: %w", err)
	}
	return table.Encode(cmd.OutOrStdout())
}
