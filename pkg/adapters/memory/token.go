package memory

import (
	"context"
	"sync"

	"github.com/aretw0/botsmith/pkg/ports"
)

// TokenStore implements ports.TokenStore in memory.
// Safe for concurrent use.
type TokenStore struct {
	tokens map[int64]string
	mu     sync.RWMutex
}

// NewTokenStore creates an empty token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[int64]string)}
}

// Token returns the stored token of a project.
func (s *TokenStore) Token(_ context.Context, projectID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[projectID]
	if !ok {
		return "", ports.ErrTokenNotFound
	}
	return token, nil
}

// SetToken stores the token of a project.
func (s *TokenStore) SetToken(_ context.Context, projectID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[projectID] = token
	return nil
}

// DeleteToken removes the token of a project.
func (s *TokenStore) DeleteToken(_ context.Context, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, projectID)
	return nil
}
