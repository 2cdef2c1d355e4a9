package models

import "time"

// APIToken represents a persisted service credential. Rows are soft-deleted
// via DeletedAt so revoked token IDs stay reserved.
type APIToken struct {
	ID                     string     `json:"id" db:"id"`
	Name                   string     `json:"name" db:"name"`
	SecretHash             string     `json:"-" db:"secret_hash"`
	LastUsedAt             *time.Time `json:"lastUsedAt,omitempty" db:"last_used_at"`
	ExpiresAt              *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	RefreshTokenHash       *string    `json:"-" db:"refresh_token_hash"`
	RefreshTokenExpiryTime *time.Time `json:"-" db:"refresh_token_expiry_time"`
	CreatedAt              time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt              time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt              *time.Time `json:"-" db:"deleted_at"`
}

// TableName specifies the table name for this model.
func (APIToken) TableName() string {
	return "api_tokens"
}
