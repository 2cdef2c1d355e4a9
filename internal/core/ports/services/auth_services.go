package services

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// TokenSvcFacade defines the interface for token management services.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, token *domain.APIToken) (string, time.Time, error)
	GenerateRefreshToken(ctx context.Context, token *domain.APIToken) (string, time.Time, error)
	// ValidateAndParseRefreshToken validates a refresh token string against the stored token details.
	// It returns the API token if the refresh token is valid and not expired.
	ValidateAndParseRefreshToken(ctx context.Context, tokenID string, refreshTokenString string) (*domain.APIToken, error)
}
