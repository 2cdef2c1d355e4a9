package dto

import (
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ConfirmManualPaymentRequest carries the optional instant an offline payment
// was received. A nil At is resolved to the request time by the handler.
type ConfirmManualPaymentRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// ManualPaymentResponse defines the state of an offline payment intent.
type ManualPaymentResponse struct {
	IntentID       string          `json:"intentID"`
	Gateway        string          `json:"gateway"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	Instructions   *string         `json:"instructions,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ToManualPaymentResponse converts a domain.PaymentRecord to its response DTO.
func ToManualPaymentResponse(rec *domain.PaymentRecord) ManualPaymentResponse {
	return ManualPaymentResponse{
		IntentID:       rec.IntentID,
		Gateway:        rec.Gateway,
		Amount:         rec.Amount,
		Currency:       rec.Currency,
		Status:         string(rec.Status),
		Instructions:   rec.Instructions,
		PaidAt:         rec.PaidAt,
		RefundedAmount: rec.RefundedAmount,
		CreatedAt:      rec.CreatedAt,
	}
}
