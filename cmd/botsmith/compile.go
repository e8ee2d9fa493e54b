package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/adapters/file"
	"github.com/aretw0/botsmith/internal/cli"
	"github.com/aretw0/botsmith/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <graph-file>",
	Short: "Compile a bot graph into a runnable project",
	Long: `Compiles the graph and writes bot.py, requirements.txt, README.md,
Dockerfile and .env into the output directory. Use "-" to read the graph from stdin.
Diagnostics are printed to stderr; the files are written even when some nodes fail.

With --watch the graph file is compiled again every time it changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			return compileOnce(cmd, args[0])
		}
		if args[0] == "-" {
			return fmt.Errorf("--watch needs a graph file, not stdin")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return cli.Watch(ctx, args[0], cli.DefaultDebounce, current.logger, func(ctx context.Context) error {
			cmd.SetContext(ctx)
			return compileOnce(cmd, args[0])
		})
	},
}

func compileOnce(cmd *cobra.Command, path string) error {
	g, err := readGraph(cmd, path)
	if err != nil {
		return err
	}
	bundle, err := botsmith.Compile(cmd.Context(), g, compileOptions(cmd)...)
	if err != nil {
		return err
	}

	if stdout, _ := cmd.Flags().GetBool("stdout"); stdout {
		fmt.Fprint(cmd.OutOrStdout(), bundle.Program)
	} else {
		out, _ := cmd.Flags().GetString("output")
		if !cmd.Flags().Changed("output") {
			out = current.cfg.Output
		}
		w := file.NewWriter(out)
		for _, f := range bundle.Files {
			if err := w.Write(f.Name, []byte(f.Content)); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(bundle.Files), filepath.Clean(out))
	}

	if len(bundle.Diagnostics) > 0 {
		tui.PrintDiagnostics(cmd.ErrOrStderr(), bundle.Diagnostics)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileFlags(compileCmd)
	compileCmd.Flags().StringP("output", "o", "dist", "Output directory (default from config)")
	compileCmd.Flags().Bool("stdout", false, "Print bot.py to stdout instead of writing files")
	compileCmd.Flags().BoolP("watch", "w", false, "Recompile whenever the graph file changes")
}
