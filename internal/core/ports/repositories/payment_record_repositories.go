package repositories

import (
	"context"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// PaymentRecordRepository defines data access for offline payment intents.
// Only providers without a remote gateway (the manual provider) use this.
type PaymentRecordRepository interface {
	// CreatePaymentRecord persists a new payment record.
	CreatePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error

	// FindPaymentRecordByID retrieves a payment record by its intent ID.
	FindPaymentRecordByID(ctx context.Context, intentID string) (*domain.PaymentRecord, error)

	// SavePaymentRecord persists the full mutable state of a payment record.
	SavePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error
}
