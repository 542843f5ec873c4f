// Package cli implements the azxfer command-line interface.
// Built with cobra:
// - One transfer per invocation
// - The process exits with azcopy's own exit code
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// globalOptions are available to all commands.
type globalOptions struct {
	verbose bool
	quiet   bool
	dryRun  bool
}

// ExitCodeError carries azcopy's exit code out to main.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("azcopy exited with code %d", e.Code)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// newRootCmd is the base command for azxfer.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "azxfer",
		Short: "Copy data between Azure storage endpoints with azcopy",
		Long: `azxfer copies data between two Azure storage endpoints by running azcopy.

Every copy uses the same transfer policy:
  • recursive, overwriting only when the source is newer
  • length checking, 100 MB blocks, 500 Mbps cap
  • INFO logging to <log-dir>/azcopy.log, resumable

Settings come from AZXFER_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "Show what would be done without doing it")

	rootCmd.AddCommand(newCopyCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the azxfer version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "azxfer %s\n", Version)
		},
	}
}
