package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// APITokenRepository defines the interface for API token data access operations
type APITokenRepository interface {
	// Create persists a new API token
	Create(ctx context.Context, token *domain.APIToken) error

	// FindByID retrieves an API token by its ID
	FindByID(ctx context.Context, id string) (*domain.APIToken, error)

	// FindAll retrieves all non-deleted API tokens
	FindAll(ctx context.Context) ([]domain.APIToken, error)

	// Update updates an existing API token (e.g., to update last_used_at or the refresh token hash)
	Update(ctx context.Context, token *domain.APIToken) error

	// Delete removes an API token by ID
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every API token
	DeleteAll(ctx context.Context) error

	// DeleteExpired removes all API tokens that expired before the given time
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// APITokenRepositoryWithTx extends APITokenRepository with transaction capabilities
type APITokenRepositoryWithTx interface {
	APITokenRepository
	WithTx(tx interface{}) APITokenRepository
}
