package services

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// APITokenSvc defines operations for API token management
type APITokenSvc interface {
	// CreateToken generates a new API token
	// Returns the plaintext token (only shown once) and the token details
	CreateToken(ctx context.Context, name string, expiresIn *time.Duration) (string, *domain.APIToken, error)

	// ListTokens returns all API tokens
	ListTokens(ctx context.Context) ([]domain.APIToken, error)

	// RevokeToken deletes a specific API token
	RevokeToken(ctx context.Context, tokenID string) error

	// RevokeAllTokens deletes all API tokens
	RevokeAllTokens(ctx context.Context) error

	// ValidateToken checks if a token is valid and returns its details
	// Updates the last_used_at timestamp if the token is valid
	ValidateToken(ctx context.Context, tokenString string) (*domain.APIToken, error)

	// EnsureBootstrapToken guarantees a token derived from the configured
	// bootstrap key exists, so a fresh deployment can mint real tokens
	EnsureBootstrapToken(ctx context.Context, rawKey string) error
}
