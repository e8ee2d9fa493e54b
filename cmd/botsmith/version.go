package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/botsmith"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of botsmith",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "botsmith version %s\n", strings.TrimSpace(botsmith.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
