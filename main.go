//go:build !(js || wasm)

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cottand/duckcheck/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		if !errors.Is(err, cmd.ErrDiagnostics) {
			_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "duckcheck [subcommand]",
	Short:         "duckcheck 🦆\n a structural type checker for duck-typed programs",
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.BuiltinsCmd)
}
