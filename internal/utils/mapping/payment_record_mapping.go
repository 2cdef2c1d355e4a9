package mapping

import (
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/models"
)

// ToModelPaymentRecord converts a domain PaymentRecord to a model PaymentRecord
func ToModelPaymentRecord(d domain.PaymentRecord) models.PaymentRecord {
	return models.PaymentRecord{
		IntentID:       d.IntentID,
		Gateway:        d.Gateway,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Status:         string(d.Status),
		Instructions:   d.Instructions,
		PaidAt:         d.PaidAt,
		RefundedAmount: d.RefundedAmount,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// ToDomainPaymentRecord converts a model PaymentRecord to a domain PaymentRecord
func ToDomainPaymentRecord(m models.PaymentRecord) domain.PaymentRecord {
	return domain.PaymentRecord{
		IntentID:       m.IntentID,
		Gateway:        m.Gateway,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Status:         domain.PaymentStatus(m.Status),
		Instructions:   m.Instructions,
		PaidAt:         m.PaidAt,
		RefundedAmount: m.RefundedAmount,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
