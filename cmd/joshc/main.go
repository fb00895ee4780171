// Command joshc compiles and runs Josh scripts: the DSL this module
// implements for spatially-gridded, agent-based ecological
// simulations. File layout mirrors the reference CLI's cmd_*.go split
// (main.go for the root command and global flags, one file per
// subcommand).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/internal/obslog"
)

var (
	verbose bool
	logFile string
)

var rootCmd = &cobra.Command{
	Use:   "joshc",
	Short: "joshc - Josh simulation compiler and runner",
	Long: `joshc parses, compiles, and runs Josh scripts: a DSL describing
agent-based ecological simulations over a patch grid.

A script declares unit conversions, entity stanzas (simulation, patch,
agent, disturbance), and attribute handlers keyed by lifecycle event.
joshc's "check" subcommand validates a script without running it;
"run" executes it and streams results in the wire format; "units"
converts a value between two unit expressions and prints the result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return obslog.Initialize(obslog.Config{Debug: verbose, FilePath: logFile})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		obslog.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug-level logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Tee JSON logs to this file in addition to stderr")

	rootCmd.AddCommand(runCmd, checkCmd, unitsCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
