package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/lang"
	"github.com/schmidtdse/joshsim/internal/units"
)

var unitsScriptPath string

var unitsCmd = &cobra.Command{
	Use:   "units <value> <from> <to>",
	Short: "Convert a value between units and print the converted value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value float64
		if _, err := fmt.Sscanf(args[0], "%g", &value); err != nil {
			return fmt.Errorf("invalid value %q: %w", args[0], err)
		}
		src, err := units.Parse(args[1])
		if err != nil {
			return fmt.Errorf("invalid source unit %q: %w", args[1], err)
		}
		dst, err := units.Parse(args[2])
		if err != nil {
			return fmt.Errorf("invalid destination unit %q: %w", args[2], err)
		}

		converter, err := resolveConverter()
		if err != nil {
			return err
		}
		conv, err := converter.GetConversion(src, dst)
		if err != nil {
			return err
		}
		out, err := conv.Apply(value)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g %s = %g %s\n", value, src, out, dst)
		return nil
	},
}

func init() {
	unitsCmd.Flags().StringVar(&unitsScriptPath, "script", "", "Load custom unit stanzas from this script before converting")
}

// resolveConverter builds the builtin-only converter, layering in a
// script's declared unit stanzas when --script is given.
func resolveConverter() (*units.Converter, error) {
	if unitsScriptPath == "" {
		b := units.NewBuilder()
		units.SeedBuiltins(b)
		return b.Build(), nil
	}

	src, err := os.ReadFile(unitsScriptPath)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	prog, err := lang.Parse(string(src))
	if err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(prog)
	if err != nil {
		return nil, err
	}
	return compiled.Converter, nil
}
