package main

import (
	"errors"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var errInvalidGraph = errors.New("graph has errors")

var validateCmd = &cobra.Command{
	Use:   "validate <graph-file>",
	Short: "Check the graph for consistency",
	Long: `Compiles the graph without writing files and reports dangling references,
auto-transition cycles, callback conflicts and nodes that cannot be generated.
Exits with status 1 when an error is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}
		diags, err := botsmith.Validate(cmd.Context(), g, compileOptions(cmd)...)
		if err != nil {
			return err
		}
		tui.PrintDiagnostics(cmd.OutOrStdout(), diags)
		if diags.HasErrors() {
			return errInvalidGraph
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	compileFlags(validateCmd)
}
