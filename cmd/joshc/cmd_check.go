package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/josherr"
	"github.com/schmidtdse/joshsim/internal/lang"
)

var checkCmd = &cobra.Command{
	Use:   "check <script.josh>",
	Short: "Parse and compile a script without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}

		prog, err := lang.Parse(string(src))
		if err != nil {
			return reportDiagnostic(args[0], err)
		}
		if _, err := compiler.Compile(prog); err != nil {
			return reportDiagnostic(args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
		return nil
	},
}

// reportDiagnostic prints a source-anchored message when err carries a
// josherr.Error location and exits non-zero either way.
func reportDiagnostic(path string, err error) error {
	var jerr *josherr.Error
	if asErr, ok := err.(*josherr.Error); ok {
		jerr = asErr
	}
	if jerr != nil && jerr.Pos.String() != "" {
		return fmt.Errorf("%s:%s: %w", path, jerr.Pos, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}
