package botsmith

import (
	"log/slog"
	"time"

	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
)

// DefaultTokenTimeout bounds the lookup of the bot token in a TokenSource.
const DefaultTokenTimeout = 2 * time.Second

type config struct {
	projectName   string
	projectID     int64
	database      bool
	comments      bool
	logging       bool
	emitAll       bool
	token         string
	tokenSource   ports.TokenSource
	tokenTimeout  time.Duration
	logger        *slog.Logger
	generatedAt   time.Time
	workers       int
	hooks         domain.CompileHooks
	skipArtifacts bool
}

func defaults() *config {
	return &config{
		comments:     true,
		logging:      true,
		tokenTimeout: DefaultTokenTimeout,
	}
}

// Option defines a functional option for configuring a compilation.
type Option func(*config)

// WithProject sets the project name shown in the generated files and the
// project id used for message logging and token lookup.
func WithProject(name string, id int64) Option {
	return func(c *config) {
		c.projectName = name
		c.projectID = id
	}
}

// WithDatabase makes the generated bot persist users, answers and messages in PostgreSQL.
func WithDatabase(enabled bool) Option {
	return func(c *config) {
		c.database = enabled
	}
}

// WithComments controls the explanatory comments in the generated program.
func WithComments(enabled bool) Option {
	return func(c *config) {
		c.comments = enabled
	}
}

// WithLogging sets the generated bot's log level to INFO instead of WARNING.
func WithLogging(enabled bool) Option {
	return func(c *config) {
		c.logging = enabled
	}
}

// WithEmitAll emits nodes that no entry point can reach.
func WithEmitAll(enabled bool) Option {
	return func(c *config) {
		c.emitAll = enabled
	}
}

// WithToken sets the bot token written to .env. It takes precedence over a TokenSource.
func WithToken(token string) Option {
	return func(c *config) {
		c.token = token
	}
}

// WithTokenSource looks the bot token up by project id.
func WithTokenSource(src ports.TokenSource) Option {
	return func(c *config) {
		c.tokenSource = src
	}
}

// WithTokenTimeout bounds the TokenSource lookup (default: DefaultTokenTimeout).
func WithTokenTimeout(d time.Duration) Option {
	return func(c *config) {
		c.tokenTimeout = d
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithGeneratedAt prints a generation timestamp in the program docstring.
// Without it the output is byte-for-byte reproducible.
func WithGeneratedAt(t time.Time) Option {
	return func(c *config) {
		c.generatedAt = t
	}
}

// WithWorkers bounds the number of nodes emitted in parallel (default: GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.CompileHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}
