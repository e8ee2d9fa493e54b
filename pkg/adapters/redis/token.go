package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/botsmith/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// TokenStore implements ports.TokenStore using Redis.
// Tokens live under "<prefix>token:<project id>".
type TokenStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a TokenStore.
type Option func(*TokenStore)

// WithTTL sets the expiration for stored tokens.
func WithTTL(ttl time.Duration) Option {
	return func(s *TokenStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *TokenStore) {
		s.prefix = prefix
	}
}

// New creates a new Redis token store with options.
func New(address, password string, db int, opts ...Option) *TokenStore {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis token store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *TokenStore {
	store := &TokenStore{
		client: client,
		prefix: "botsmith:",
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

func (s *TokenStore) key(projectID int64) string {
	return s.prefix + "token:" + strconv.FormatInt(projectID, 10)
}

// Token retrieves the bot token of a project.
func (s *TokenStore) Token(ctx context.Context, projectID int64) (string, error) {
	val, err := s.client.Get(ctx, s.key(projectID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", ports.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get token from redis: %w", err)
	}
	return val, nil
}

// SetToken stores the bot token of a project.
func (s *TokenStore) SetToken(ctx context.Context, projectID int64, token string) error {
	if err := s.client.Set(ctx, s.key(projectID), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token to redis: %w", err)
	}
	return nil
}

// DeleteToken removes the bot token of a project.
func (s *TokenStore) DeleteToken(ctx context.Context, projectID int64) error {
	return s.client.Del(ctx, s.key(projectID)).Err()
}

// Ping checks the connection.
func (s *TokenStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *TokenStore) Close() error {
	return s.client.Close()
}
