package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/adapters/file"
	"github.com/aretw0/botsmith/internal/presentation/tui"
	httpAdapter "github.com/aretw0/botsmith/pkg/adapters/http"
	"github.com/aretw0/botsmith/pkg/observability"
	"github.com/aretw0/botsmith/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the compiler HTTP server",
	Long: `Exposes the compiler as a JSON API over HTTP. With --dir, the graphs stored
in that directory can be listed and compiled by name. Metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := current.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		opts := append(compileOptions(cmd), botsmith.WithHooks(metrics.Hooks()))
		handler, err := httpAdapter.NewHandler(&httpAdapter.Server{
			Loader:   storeLoader(cmd),
			Options:  opts,
			Gatherer: reg,
			Logger:   current.logger,
		})
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			if tui.IsTerminal(os.Stdout) {
				tui.PrintBanner(os.Stdout)
			}
			current.logger.Info("starting botsmith server", "addr", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			current.logger.Info("shutdown signal received")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				current.logger.Warn("graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
			current.logger.Info("botsmith server stopped gracefully")
			return nil
		}
	},
}

// storeLoader returns a file loader for --dir, or nil when the flag is empty.
func storeLoader(cmd *cobra.Command) ports.GraphLoader {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		return nil
	}
	return file.NewLoader(dir)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	compileFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default from config)")
	serveCmd.Flags().String("dir", "", "Directory of stored graph documents")
}
