package dto

import "time"

// TokenExchangeResponse represents the response for a successful API key exchange.
// TokenID identifies the API token the JWTs were minted for; refresh requests
// must present it alongside the refresh token.
type TokenExchangeResponse struct {
	TokenID               string    `json:"tokenID"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

// RefreshTokenRequest represents the payload for refreshing an access token.
type RefreshTokenRequest struct {
	TokenID      string `json:"tokenID" binding:"required"`
	RefreshToken string `json:"refreshToken" binding:"required"`
}
