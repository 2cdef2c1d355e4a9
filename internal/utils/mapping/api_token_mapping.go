package mapping

import (
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/models"
)

// ToModelAPIToken converts a domain APIToken to a model APIToken.
// An empty refresh hash means no refresh token was issued and stores as NULL.
func ToModelAPIToken(d domain.APIToken) models.APIToken {
	m := models.APIToken{
		ID:                     d.ID,
		Name:                   d.Name,
		SecretHash:             d.SecretHash,
		LastUsedAt:             d.LastUsedAt,
		ExpiresAt:              d.ExpiresAt,
		RefreshTokenExpiryTime: d.RefreshTokenExpiryTime,
		CreatedAt:              d.CreatedAt,
		UpdatedAt:              d.UpdatedAt,
		DeletedAt:              d.DeletedAt,
	}
	if d.RefreshTokenHash != "" {
		hash := d.RefreshTokenHash
		m.RefreshTokenHash = &hash
	}
	return m
}

// ToDomainAPIToken converts a model APIToken to a domain APIToken
func ToDomainAPIToken(m models.APIToken) domain.APIToken {
	d := domain.APIToken{
		ID:                     m.ID,
		Name:                   m.Name,
		SecretHash:             m.SecretHash,
		LastUsedAt:             m.LastUsedAt,
		ExpiresAt:              m.ExpiresAt,
		RefreshTokenExpiryTime: m.RefreshTokenExpiryTime,
		CreatedAt:              m.CreatedAt,
		UpdatedAt:              m.UpdatedAt,
		DeletedAt:              m.DeletedAt,
	}
	if m.RefreshTokenHash != nil {
		d.RefreshTokenHash = *m.RefreshTokenHash
	}
	return d
}

// ToDomainAPITokenSlice converts a slice of model APITokens to a slice of domain APITokens
func ToDomainAPITokenSlice(ms []models.APIToken) []domain.APIToken {
	ds := make([]domain.APIToken, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAPIToken(m)
	}
	return ds
}
