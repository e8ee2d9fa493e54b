package main

import (
	"fmt"

	"github.com/aretw0/botsmith/internal/presentation/graph"
	"github.com/aretw0/botsmith/internal/resolver"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <graph-file>",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the bot's control flow, marking unreachable nodes and dangling references.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := readGraph(cmd, args[0])
		if err != nil {
			return err
		}
		emitAll, _ := cmd.Flags().GetBool("emit-all")
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, resolver.Resolve(g, emitAll)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("emit-all", false, "Treat every node as reachable")
}
