package middleware

import (
	"strings"

	"github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// APITokenAuth is a middleware that authenticates requests using API tokens
func APITokenAuth(tokenSvc services.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip authentication for public routes
		if isPublicRoute(c.Request.URL.Path) {
			c.Next()
			return
		}

		// Get the api key header
		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next() // No api key provided, let it continue to JWT auth
			return
		}

		// Validate the token
		token, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			c.Next() // Token validation failed, let it continue to JWT auth
			return
		}

		// Token is valid, set actor in context and skip JWT auth
		c.Set(string(actorIDKey), token.ID)
		c.Set("authMethod", "api_token")
		c.Next()
	}
}

// isPublicRoute checks if the given path is a public route that doesn't require authentication
func isPublicRoute(path string) bool {
	publicRoutes := []string{
		"/api/v1/auth/token",
		"/api/v1/auth/refresh",
		"/health",
		"/metrics",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}

	// Gateway webhooks authenticate with provider signatures, not api keys
	return strings.HasPrefix(path, "/webhooks/")
}
