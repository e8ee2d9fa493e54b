package main

import (
	"fmt"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var readmeCmd = &cobra.Command{
	Use:   "readme <graph-file>",
	Short: "Preview the README generated for a graph",
	Long:  `Compiles the graph and prints its README.md, rendered for the terminal when stdout is one.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}
		bundle, err := botsmith.Compile(cmd.Context(), g, compileOptions(cmd)...)
		if err != nil {
			return err
		}
		readme, _ := bundle.File(botsmith.ReadmeFile)

		out := cmd.OutOrStdout()
		if raw, _ := cmd.Flags().GetBool("raw"); raw || !tui.IsTerminal(out) {
			fmt.Fprint(out, readme.Content)
			return nil
		}
		rendered, err := tui.NewRenderer(tui.TerminalWidth(out))(readme.Content)
		if err != nil {
			return fmt.Errorf("failed to render README: %w", err)
		}
		fmt.Fprint(out, rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(readmeCmd)
	compileFlags(readmeCmd)
	readmeCmd.Flags().Bool("raw", false, "Print markdown without terminal rendering")
}
