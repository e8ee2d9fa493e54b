// Package config loads botsmith.yaml, the per-project compiler settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/internal/logging"
	"github.com/aretw0/botsmith/pkg/persistence/middleware"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the file looked up in the working directory.
const DefaultPath = "botsmith.yaml"

// Project identifies the bot being compiled.
type Project struct {
	Name string `yaml:"name"`
	ID   int64  `yaml:"id"`
}

// Redis points at the store holding bot tokens.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Token configures where the bot token written to .env comes from.
type Token struct {
	Value   string        `yaml:"value"`
	Timeout time.Duration `yaml:"timeout"`
	Redis   Redis         `yaml:"redis"`

	// EncryptionKey is a base64 encoded AES-256 key. When set, tokens are
	// stored encrypted; FallbackKeys still decrypt tokens written before a rotation.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
}

// Encryption decodes the configured keys. It returns nil when encryption is off.
func (t Token) Encryption() (*middleware.EncryptionConfig, error) {
	if t.EncryptionKey == "" {
		return nil, nil
	}
	active, err := middleware.ParseKey(t.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("token.encryption_key: %w", err)
	}
	cfg := &middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range t.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("token.fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	return cfg, nil
}

// Server configures the HTTP API.
type Server struct {
	Port int `yaml:"port"`
}

// Config is the content of botsmith.yaml.
type Config struct {
	Project  Project `yaml:"project"`
	Database bool    `yaml:"database"`
	Comments bool    `yaml:"comments"`
	Logging  bool    `yaml:"logging"`
	EmitAll  bool    `yaml:"emit_all"`
	Workers  int     `yaml:"workers"`
	Output   string  `yaml:"output"`
	LogLevel string  `yaml:"log_level"`
	Token    Token   `yaml:"token"`
	Server   Server  `yaml:"server"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		Comments: true,
		Logging:  true,
		Output:   "dist",
		LogLevel: "info",
		Token: Token{
			Timeout: botsmith.DefaultTokenTimeout,
			Redis:   Redis{Prefix: "botsmith:"},
		},
		Server: Server{Port: 8080},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Token.Timeout < 0 {
		errs = append(errs, fmt.Errorf("token.timeout must not be negative, got %s", c.Token.Timeout))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Token.Encryption(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Options converts the settings into compiler options.
// The token source is wired by the caller since it needs a live client.
func (c *Config) Options() []botsmith.Option {
	opts := []botsmith.Option{
		botsmith.WithProject(c.Project.Name, c.Project.ID),
		botsmith.WithDatabase(c.Database),
		botsmith.WithComments(c.Comments),
		botsmith.WithLogging(c.Logging),
		botsmith.WithEmitAll(c.EmitAll),
	}
	if c.Workers > 0 {
		opts = append(opts, botsmith.WithWorkers(c.Workers))
	}
	if c.Token.Value != "" {
		opts = append(opts, botsmith.WithToken(c.Token.Value))
	}
	if c.Token.Timeout > 0 {
		opts = append(opts, botsmith.WithTokenTimeout(c.Token.Timeout))
	}
	return opts
}
