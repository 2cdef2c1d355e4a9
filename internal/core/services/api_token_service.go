package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
)

const (
	// apiTokenPrefix marks structured API keys: pla_<tokenID>.<secret>.
	// Embedding the token ID lets validation look the record up directly
	// instead of scanning every stored hash.
	apiTokenPrefix = "pla_"

	// bootstrapTokenID is the fixed ID of the token backed by the configured
	// bootstrap key.
	bootstrapTokenID = "bootstrap"
)

// apiTokenService implements the APITokenSvc interface
type apiTokenService struct {
	BaseService
	tokenRepo repositories.APITokenRepository
}

// NewAPITokenService creates a new instance of apiTokenService
func NewAPITokenService(tokenRepo repositories.APITokenRepository) portssvc.APITokenSvc {
	return &apiTokenService{
		tokenRepo: tokenRepo,
	}
}

// Ensure apiTokenService implements the portssvc.APITokenSvc interface
var _ portssvc.APITokenSvc = (*apiTokenService)(nil)

// CreateToken generates a new API token. The plaintext key is returned once
// and only its hash is stored.
func (s *apiTokenService) CreateToken(ctx context.Context, name string, expiresIn *time.Duration) (string, *domain.APIToken, error) {
	if name == "" {
		return "", nil, errors.New("token name is required")
	}

	secret, err := generateTokenSecret(32) // 32 bytes = 256 bits
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token secret: %w", err)
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash token secret: %w", err)
	}

	var expiresAt *time.Time
	if expiresIn != nil {
		expiry := time.Now().Add(*expiresIn)
		expiresAt = &expiry
	}

	now := time.Now()
	apiToken := &domain.APIToken{
		ID:         uuid.NewString(),
		Name:       name,
		SecretHash: string(secretHash),
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.tokenRepo.Create(ctx, apiToken); err != nil {
		return "", nil, fmt.Errorf("failed to save token: %w", err)
	}

	return apiTokenPrefix + apiToken.ID + "." + secret, apiToken, nil
}

// ListTokens returns all API tokens
func (s *apiTokenService) ListTokens(ctx context.Context) ([]domain.APIToken, error) {
	tokens, err := s.tokenRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken deletes a specific API token
func (s *apiTokenService) RevokeToken(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return errors.New("token ID is required")
	}

	if _, err := s.tokenRepo.FindByID(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to find token: %w", err)
	}

	if err := s.tokenRepo.Delete(ctx, tokenID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeAllTokens deletes all API tokens
func (s *apiTokenService) RevokeAllTokens(ctx context.Context) error {
	if err := s.tokenRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to revoke all tokens: %w", err)
	}
	return nil
}

// ValidateToken checks a presented key and returns its token record.
// Structured keys resolve by the embedded ID; anything else is compared
// against the bootstrap token.
func (s *apiTokenService) ValidateToken(ctx context.Context, tokenString string) (*domain.APIToken, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: token is required", apperrors.ErrUnauthorized)
	}

	tokenID := bootstrapTokenID
	secret := tokenString
	if rest, ok := strings.CutPrefix(tokenString, apiTokenPrefix); ok {
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: malformed token", apperrors.ErrUnauthorized)
		}
		tokenID = parts[0]
		secret = parts[1]
	}

	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find token: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)) != nil {
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	if token.IsExpired() {
		// Auto-revoke expired tokens
		if err := s.tokenRepo.Delete(ctx, token.ID); err != nil {
			s.LogWarn(ctx, "Failed to delete expired token", "token_id", token.ID, "error", err)
		}
		return nil, fmt.Errorf("%w: token has expired", apperrors.ErrUnauthorized)
	}

	token.UpdateLastUsed()
	if err := s.tokenRepo.Update(ctx, token); err != nil {
		// Stale last_used_at is not worth failing the request over.
		s.LogWarn(ctx, "Failed to update token last used timestamp", "token_id", token.ID, "error", err)
	}

	return token, nil
}

// EnsureBootstrapToken makes the configured bootstrap key usable as an API
// token, creating or rehashing the backing record so the environment stays
// the source of truth. An empty key is a no-op.
func (s *apiTokenService) EnsureBootstrapToken(ctx context.Context, rawKey string) error {
	if rawKey == "" {
		return nil
	}

	existing, err := s.tokenRepo.FindByID(ctx, bootstrapTokenID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to look up bootstrap token: %w", err)
	}

	if existing != nil {
		if bcrypt.CompareHashAndPassword([]byte(existing.SecretHash), []byte(rawKey)) == nil {
			return nil
		}
		secretHash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash bootstrap key: %w", err)
		}
		existing.SecretHash = string(secretHash)
		existing.UpdatedAt = time.Now()
		if err := s.tokenRepo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update bootstrap token: %w", err)
		}
		s.LogInfo(ctx, "Bootstrap token rehashed from configured key")
		return nil
	}

	secretHash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap key: %w", err)
	}

	now := time.Now()
	if err := s.tokenRepo.Create(ctx, &domain.APIToken{
		ID:         bootstrapTokenID,
		Name:       "bootstrap",
		SecretHash: string(secretHash),
		CreatedAt:  now,
		UpdatedAt:  now,
	}); err != nil {
		return fmt.Errorf("failed to create bootstrap token: %w", err)
	}

	s.LogInfo(ctx, "Bootstrap token created from configured key")
	return nil
}

// generateTokenSecret generates a secure random token secret
func generateTokenSecret(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Use URL-safe base64 encoding without padding
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}
