package ports

import (
	"context"
	"errors"
)

// ErrTokenNotFound is returned when no token is stored for a project.
var ErrTokenNotFound = errors.New("bot token not found")

// TokenSource looks up the bot token of a project.
// Compile calls it under a timeout and falls back to a placeholder on failure.
type TokenSource interface {
	Token(ctx context.Context, projectID int64) (string, error)
}

// TokenStore is a TokenSource that can be written to.
type TokenStore interface {
	TokenSource
	SetToken(ctx context.Context, projectID int64, token string) error
	DeleteToken(ctx context.Context, projectID int64) error
}
