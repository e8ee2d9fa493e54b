package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/config"
	"github.com/aretw0/botsmith/internal/logging"
	"github.com/aretw0/botsmith/pkg/adapters/redis"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/persistence/middleware"
	"github.com/aretw0/botsmith/pkg/ports"
	"github.com/spf13/cobra"
)

// app holds what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	redis  *redis.TokenStore
	tokens ports.TokenStore
}

var current app

var rootCmd = &cobra.Command{
	Use:   "botsmith",
	Short: "botsmith compiles Telegram bot graphs into aiogram programs",
	Long: `botsmith turns the graph drawn in the bot editor (JSON or YAML export)
into a runnable Python program for aiogram 3, together with requirements.txt,
README.md, a Dockerfile and a .env template.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		current.cfg = cfg
		current.logger = logging.New(level)
		slog.SetDefault(current.logger)

		return openTokenStore(cfg)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if current.redis != nil {
			return current.redis.Close()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the botsmith config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
}

// openTokenStore connects the Redis token store, encrypted when a key is configured.
func openTokenStore(cfg *config.Config) error {
	current.redis, current.tokens = nil, nil
	addr := cfg.Token.Redis.Addr
	if addr == "" {
		return nil
	}
	current.redis = redis.New(addr, cfg.Token.Redis.Password, cfg.Token.Redis.DB,
		redis.WithPrefix(cfg.Token.Redis.Prefix))
	current.tokens = current.redis

	enc, err := cfg.Token.Encryption()
	if err != nil || enc == nil {
		return err
	}
	mw, err := middleware.NewEncryptionMiddleware(*enc)
	if err != nil {
		return err
	}
	current.tokens = mw(current.redis)
	return nil
}

// compileFlags registers the per-invocation overrides of the config file.
func compileFlags(cmd *cobra.Command) {
	cmd.Flags().String("project-name", "", "Project name shown in the generated files")
	cmd.Flags().Int64("project-id", 0, "Project id used for message logging and token lookup")
	cmd.Flags().Bool("database", false, "Persist users, answers and messages in PostgreSQL")
	cmd.Flags().Bool("emit-all", false, "Also emit nodes no entry point can reach")
	cmd.Flags().Bool("no-comments", false, "Omit explanatory comments from the program")
}

// compileOptions merges the config file, the command flags and the token source.
func compileOptions(cmd *cobra.Command) []botsmith.Option {
	cfg := *current.cfg
	if cmd.Flags().Changed("project-name") {
		cfg.Project.Name, _ = cmd.Flags().GetString("project-name")
	}
	if cmd.Flags().Changed("project-id") {
		cfg.Project.ID, _ = cmd.Flags().GetInt64("project-id")
	}
	if cmd.Flags().Changed("database") {
		cfg.Database, _ = cmd.Flags().GetBool("database")
	}
	if cmd.Flags().Changed("emit-all") {
		cfg.EmitAll, _ = cmd.Flags().GetBool("emit-all")
	}
	if noComments, _ := cmd.Flags().GetBool("no-comments"); noComments {
		cfg.Comments = false
	}

	opts := append(cfg.Options(), botsmith.WithLogger(current.logger))
	if current.tokens != nil {
		opts = append(opts, botsmith.WithTokenSource(current.tokens))
	}
	return opts
}

// readGraph parses the graph at path, or stdin for "-".
func readGraph(cmd *cobra.Command, path string) (*domain.Graph, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	g, err := botsmith.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
