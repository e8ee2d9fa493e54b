// Package middleware wraps token stores with extra behaviour.
package middleware

import "github.com/aretw0/botsmith/pkg/ports"

// Middleware allows wrapping a TokenStore to add behavior.
type Middleware func(ports.TokenStore) ports.TokenStore
