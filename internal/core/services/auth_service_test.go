package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/SscSPs/payment_ledger_app/internal/utils"
)

type TokenServiceTestSuite struct {
	suite.Suite
	mockTokenRepo *MockAPITokenRepository
	cfg           *config.Config
	service       portssvc.TokenSvcFacade
}

func (suite *TokenServiceTestSuite) SetupTest() {
	suite.mockTokenRepo = new(MockAPITokenRepository)
	suite.cfg = &config.Config{
		JWTSecret:                  "test-secret",
		JWTExpiryDuration:          15 * time.Minute,
		JWTIssuer:                  "pla-backend",
		RefreshTokenExpiryDuration: 30 * 24 * time.Hour,
	}
	suite.service = services.NewTokenService(suite.cfg, suite.mockTokenRepo)
}

func (suite *TokenServiceTestSuite) apiToken() *domain.APIToken {
	now := time.Now().Add(-time.Hour)
	return &domain.APIToken{
		ID:        "tok-1",
		Name:      "ci",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (suite *TokenServiceTestSuite) TestGenerateAccessToken_RoundTrips() {
	ctx := context.Background()
	token := suite.apiToken()

	accessToken, expiry, err := suite.service.GenerateAccessToken(ctx, token)

	suite.Require().NoError(err)
	suite.NotEmpty(accessToken)
	suite.WithinDuration(time.Now().Add(15*time.Minute), expiry, 5*time.Second)

	claims, err := utils.ParseAndValidateJWT(accessToken, suite.cfg.JWTSecret)
	suite.Require().NoError(err)
	suite.Equal(token.ID, claims.Subject)
	suite.Equal(suite.cfg.JWTIssuer, claims.Issuer)
}

func (suite *TokenServiceTestSuite) TestGenerateAccessToken_RejectsWrongSecret() {
	ctx := context.Background()
	token := suite.apiToken()

	accessToken, _, err := suite.service.GenerateAccessToken(ctx, token)
	suite.Require().NoError(err)

	_, err = utils.ParseAndValidateJWT(accessToken, "other-secret")
	suite.Require().Error(err)
}

func (suite *TokenServiceTestSuite) TestGenerateRefreshToken_PersistsHashOnly() {
	ctx := context.Background()
	token := suite.apiToken()

	suite.mockTokenRepo.On("Update", ctx, mock.MatchedBy(func(saved *domain.APIToken) bool {
		return saved.RefreshTokenHash != "" && saved.RefreshTokenExpiryTime != nil
	})).Return(nil).Once()

	raw, expiry, err := suite.service.GenerateRefreshToken(ctx, token)

	suite.Require().NoError(err)
	suite.Len(raw, 64)
	// Only the hash lands on the record; the raw value goes to the caller once.
	suite.NotEqual(raw, token.RefreshTokenHash)
	suite.True(utils.CompareRefreshTokenHash(raw, token.RefreshTokenHash))
	suite.WithinDuration(time.Now().Add(30*24*time.Hour), expiry, 5*time.Second)
	suite.mockTokenRepo.AssertExpectations(suite.T())
}

func (suite *TokenServiceTestSuite) TestValidateAndParseRefreshToken_Success() {
	ctx := context.Background()
	token := suite.apiToken()
	expiry := time.Now().Add(time.Hour)
	token.RefreshTokenHash = utils.HashRefreshToken("raw-refresh")
	token.RefreshTokenExpiryTime = &expiry

	suite.mockTokenRepo.On("FindByID", ctx, "tok-1").Return(token, nil).Once()

	got, err := suite.service.ValidateAndParseRefreshToken(ctx, "tok-1", "raw-refresh")

	suite.Require().NoError(err)
	suite.Equal(token, got)
}

func (suite *TokenServiceTestSuite) TestValidateAndParseRefreshToken_Expired() {
	ctx := context.Background()
	token := suite.apiToken()
	expiry := time.Now().Add(-time.Minute)
	token.RefreshTokenHash = utils.HashRefreshToken("raw-refresh")
	token.RefreshTokenExpiryTime = &expiry

	suite.mockTokenRepo.On("FindByID", ctx, "tok-1").Return(token, nil).Once()

	_, err := suite.service.ValidateAndParseRefreshToken(ctx, "tok-1", "raw-refresh")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrRefreshTokenExpired)
}

func (suite *TokenServiceTestSuite) TestValidateAndParseRefreshToken_WrongToken() {
	ctx := context.Background()
	token := suite.apiToken()
	expiry := time.Now().Add(time.Hour)
	token.RefreshTokenHash = utils.HashRefreshToken("raw-refresh")
	token.RefreshTokenExpiryTime = &expiry

	suite.mockTokenRepo.On("FindByID", ctx, "tok-1").Return(token, nil).Once()

	_, err := suite.service.ValidateAndParseRefreshToken(ctx, "tok-1", "stolen-guess")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *TokenServiceTestSuite) TestValidateAndParseRefreshToken_NoneIssued() {
	ctx := context.Background()
	token := suite.apiToken()

	suite.mockTokenRepo.On("FindByID", ctx, "tok-1").Return(token, nil).Once()

	_, err := suite.service.ValidateAndParseRefreshToken(ctx, "tok-1", "anything")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func (suite *TokenServiceTestSuite) TestValidateAndParseRefreshToken_UnknownID() {
	ctx := context.Background()

	suite.mockTokenRepo.On("FindByID", ctx, "ghost").Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.ValidateAndParseRefreshToken(ctx, "ghost", "anything")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

// --- Run Test Suite ---
func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}
