package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/SscSPs/payment_ledger_app/internal/utils"
)

// tokenService implements the TokenSvcFacade for handling JWT and refresh
// tokens. API tokens are the principals here; a validated API key is exchanged
// for a short-lived JWT whose subject is the token ID.
type tokenService struct {
	cfg       *config.Config
	tokenRepo repositories.APITokenRepository
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config, tokenRepo repositories.APITokenRepository) portssvc.TokenSvcFacade {
	return &tokenService{
		cfg:       cfg,
		tokenRepo: tokenRepo,
	}
}

// Ensure tokenService implements the portssvc.TokenSvcFacade interface
var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a new JWT access token for the given API token.
func (s *tokenService) GenerateAccessToken(ctx context.Context, token *domain.APIToken) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	accessToken, err := utils.GenerateJWT(token.ID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}

// GenerateRefreshToken creates a new refresh token for the given API token and
// stores its hash on the token record. The raw value exists only in the
// response to the caller.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, token *domain.APIToken) (string, time.Time, error) {
	// 32 bytes gives a 64-character hex string.
	rawRefreshToken, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate secure random string for refresh token: %w", err)
	}

	expiryTime := time.Now().Add(s.cfg.RefreshTokenExpiryDuration)

	token.RefreshTokenHash = utils.HashRefreshToken(rawRefreshToken)
	token.RefreshTokenExpiryTime = &expiryTime
	token.UpdatedAt = time.Now()
	if err := s.tokenRepo.Update(ctx, token); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store refresh token hash: %w", err)
	}

	return rawRefreshToken, expiryTime, nil
}

// ValidateAndParseRefreshToken validates a refresh token string against the
// hash stored on the identified API token.
func (s *tokenService) ValidateAndParseRefreshToken(ctx context.Context, tokenID string, refreshTokenString string) (*domain.APIToken, error) {
	token, err := s.tokenRepo.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to retrieve token for refresh validation: %w", err)
	}

	if token.RefreshTokenHash == "" || token.RefreshTokenExpiryTime == nil {
		return nil, apperrors.ErrUnauthorized
	}
	if time.Now().After(*token.RefreshTokenExpiryTime) {
		return nil, apperrors.ErrRefreshTokenExpired
	}
	if !utils.CompareRefreshTokenHash(refreshTokenString, token.RefreshTokenHash) {
		return nil, apperrors.ErrUnauthorized
	}

	return token, nil
}
