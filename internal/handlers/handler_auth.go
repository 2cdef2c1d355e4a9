package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// AuthHandler exchanges API keys for short-lived JWTs.
type AuthHandler struct {
	apiTokenSvc portssvc.APITokenSvc
	tokenSvc    portssvc.TokenSvcFacade
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(apiTokenSvc portssvc.APITokenSvc, tokenSvc portssvc.TokenSvcFacade) *AuthHandler {
	return &AuthHandler{
		apiTokenSvc: apiTokenSvc,
		tokenSvc:    tokenSvc,
	}
}

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// registerAuthRoutes sets up the token exchange routes. Both endpoints take
// credentials, so both sit behind an IP rate limit.
func registerAuthRoutes(r *gin.Engine, services *portssvc.ServiceContainer) {
	h := NewAuthHandler(services.APIToken, services.Token)

	// 5 requests per minute per IP
	rate, _ := limiter.NewRateFromFormatted("5-M")
	ipLimiter := limiter.New(memory.NewStore(), rate)
	limitMiddleware := middleware.RateLimit(ipLimiter)

	auth := r.Group("/api/v1/auth")
	{
		auth.POST("/token", limitMiddleware, h.ExchangeToken)
		auth.POST("/refresh", limitMiddleware, h.RefreshToken)
	}
}

// ExchangeToken godoc
// @Summary Exchange an API key for JWTs
// @Description Validates the API key from the x-api-key header and issues a short-lived access token plus a refresh token. Issuing a refresh token invalidates any previous one for the same API token.
// @Tags auth
// @Produce json
// @Param x-api-key header string true "API key"
// @Success 200 {object} dto.TokenExchangeResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) ExchangeToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	apiKey := c.GetHeader("x-api-key")
	if apiKey == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "x-api-key header required"})
		return
	}

	token, err := h.apiTokenSvc.ValidateToken(c.Request.Context(), apiKey)
	if err != nil {
		logger.Warn("API key rejected during token exchange", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid API key"})
		return
	}

	resp, err := h.issueTokenPair(c, logger, token)
	if err != nil {
		return // issueTokenPair already responded
	}

	logger.Info("API key exchanged for JWT", slog.String("token_id", token.ID))
	c.JSON(http.StatusOK, resp)
}

// RefreshToken godoc
// @Summary Refresh an access token
// @Description Validates a refresh token and issues a new access token and refresh token pair. The presented refresh token is consumed.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshTokenRequest true "Token ID and refresh token"
// @Success 200 {object} dto.TokenExchangeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	token, err := h.tokenSvc.ValidateAndParseRefreshToken(c.Request.Context(), req.TokenID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrRefreshTokenExpired) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Refresh token has expired"})
			return
		}
		logger.Warn("Refresh token rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid refresh token"})
		return
	}

	resp, err := h.issueTokenPair(c, logger, token)
	if err != nil {
		return
	}

	logger.Info("Access token refreshed", slog.String("token_id", token.ID))
	c.JSON(http.StatusOK, resp)
}

// issueTokenPair mints an access and refresh token for a validated API token.
// On failure it writes the error response and returns a non-nil error.
func (h *AuthHandler) issueTokenPair(c *gin.Context, logger *slog.Logger, token *domain.APIToken) (dto.TokenExchangeResponse, error) {
	accessToken, accessExpiry, err := h.tokenSvc.GenerateAccessToken(c.Request.Context(), token)
	if err != nil {
		logger.Error("Failed to generate access token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return dto.TokenExchangeResponse{}, err
	}

	refreshToken, refreshExpiry, err := h.tokenSvc.GenerateRefreshToken(c.Request.Context(), token)
	if err != nil {
		logger.Error("Failed to generate refresh token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to generate token"})
		return dto.TokenExchangeResponse{}, err
	}

	return dto.TokenExchangeResponse{
		TokenID:               token.ID,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiry,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiry,
	}, nil
}
