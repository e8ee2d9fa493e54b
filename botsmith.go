package botsmith

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/botsmith/internal/artifacts"
	"github.com/aretw0/botsmith/internal/assembler"
	"github.com/aretw0/botsmith/internal/compiler"
	"github.com/aretw0/botsmith/internal/logging"
	"github.com/aretw0/botsmith/internal/validator"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/aretw0/botsmith/pkg/ports"
)

// ErrInvalidOption is returned when an option carries an out-of-range value.
var ErrInvalidOption = errors.New("invalid option")

// Parse decodes an exported graph document (JSON or YAML, single or multi-sheet).
func Parse(data []byte) (*domain.Graph, error) {
	return compiler.NewParser().Parse(data)
}

// Compile turns a bot graph into a runnable aiogram program and its companion files.
// It returns an error only for a nil graph, invalid options or a cancelled context;
// everything wrong with the graph itself is reported in Bundle.Diagnostics.
// Compile is safe for concurrent use.
func Compile(ctx context.Context, g *domain.Graph, opts ...Option) (*Bundle, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, domain.ErrEmptyGraph
	}

	var tokenCh <-chan tokenResult
	if !cfg.skipArtifacts {
		tokenCh = fetchToken(ctx, cfg)
	}

	diags := validator.ValidateGraph(g)

	meta := assembler.Meta{
		ProjectID:       cfg.projectID,
		ProjectName:     cfg.projectName,
		DatabaseEnabled: cfg.database,
		LoggingEnabled:  cfg.logging,
		CommentsEnabled: cfg.comments,
		EmitAll:         cfg.emitAll,
		GeneratedAt:     cfg.generatedAt,
	}
	asm := assembler.New(
		assembler.WithWorkers(cfg.workers),
		assembler.WithLogger(cfg.logger),
		assembler.WithHooks(cfg.hooks),
	)
	res, err := asm.Assemble(ctx, g, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble program: %w", err)
	}
	diags = append(diags, res.Diagnostics...)

	bundle := &Bundle{Program: res.Program}
	if cfg.skipArtifacts {
		bundle.Diagnostics = diags
		return bundle, nil
	}

	tok := <-tokenCh
	if tok.diag != nil {
		cfg.logger.Warn("bot token unavailable", "project", cfg.projectID, "error", tok.err)
		diags = append(diags, *tok.diag)
	}
	bundle.Diagnostics = diags

	files, err := renderArtifacts(meta, g, res, tok.token)
	if err != nil {
		return nil, err
	}
	bundle.Files = append([]Artifact{{Name: ProgramFile, Content: res.Program}}, files...)
	return bundle, nil
}

// Validate compiles the graph without rendering companion files and returns
// every diagnostic found on the way.
func Validate(ctx context.Context, g *domain.Graph, opts ...Option) (domain.Diagnostics, error) {
	opts = append(opts, func(c *config) { c.skipArtifacts = true })
	bundle, err := Compile(ctx, g, opts...)
	if err != nil {
		return nil, err
	}
	return bundle.Diagnostics, nil
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaults()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workers < 0 {
		return nil, fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOption, cfg.workers)
	}
	if cfg.tokenTimeout < 0 {
		return nil, fmt.Errorf("%w: token timeout must not be negative, got %s", ErrInvalidOption, cfg.tokenTimeout)
	}
	if cfg.tokenTimeout == 0 {
		cfg.tokenTimeout = DefaultTokenTimeout
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}
	return cfg, nil
}

type tokenResult struct {
	token string
	err   error
	diag  *domain.Diagnostic
}

// fetchToken resolves the bot token concurrently with compilation.
// A failing or slow TokenSource yields an empty token and a warning.
func fetchToken(ctx context.Context, cfg *config) <-chan tokenResult {
	out := make(chan tokenResult, 1)
	if cfg.token != "" || cfg.tokenSource == nil {
		out <- tokenResult{token: cfg.token}
		return out
	}

	go func() {
		ctx, cancel := context.WithTimeout(ctx, cfg.tokenTimeout)
		defer cancel()

		token, err := cfg.tokenSource.Token(ctx, cfg.projectID)
		if err == nil {
			out <- tokenResult{token: token}
			return
		}
		msg := fmt.Sprintf("could not fetch the bot token: %v; %s was written instead", err, artifacts.TokenPlaceholder)
		if errors.Is(err, ports.ErrTokenNotFound) {
			msg = fmt.Sprintf("no bot token is stored for project %d; %s was written instead", cfg.projectID, artifacts.TokenPlaceholder)
		}
		out <- tokenResult{err: err, diag: &domain.Diagnostic{
			Severity: domain.SeverityWarning,
			Kind:     domain.DiagCollaboratorFailure,
			Message:  msg,
		}}
	}()
	return out
}

func renderArtifacts(meta assembler.Meta, g *domain.Graph, res *assembler.Result, token string) ([]Artifact, error) {
	readme, err := artifacts.Readme(meta, g, res.Flags)
	if err != nil {
		return nil, fmt.Errorf("failed to render README: %w", err)
	}
	dockerfile, err := artifacts.Dockerfile(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to render Dockerfile: %w", err)
	}
	env, err := artifacts.Env(meta, res.Flags, token)
	if err != nil {
		return nil, fmt.Errorf("failed to render .env: %w", err)
	}
	return []Artifact{
		{Name: RequirementsFile, Content: artifacts.Requirements(meta, res.Flags)},
		{Name: ReadmeFile, Content: readme},
		{Name: DockerFile, Content: dockerfile},
		{Name: EnvFile, Content: env},
	}, nil
}
