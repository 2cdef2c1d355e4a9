package dto

import (
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest defines the payload for creating a charge.
type CreateTransactionRequest struct {
	Category       string            `json:"category" binding:"required"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency" binding:"required,currency"`
	Gateway        string            `json:"gateway" binding:"required"`
	IdempotencyKey *string           `json:"idempotencyKey,omitempty"`
	Description    string            `json:"description,omitempty"`
	ReferenceID    *string           `json:"referenceID,omitempty"`
	ReferenceModel *string           `json:"referenceModel,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// VerifyTransactionRequest identifies a transaction by one of its gateway identifiers.
type VerifyTransactionRequest struct {
	SessionID       *string `json:"sessionID,omitempty"`
	PaymentIntentID *string `json:"paymentIntentID,omitempty"`
}

// RefundTransactionRequest defines the payload for refunding a transaction.
// A nil amount refunds the full refundable balance.
type RefundTransactionRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason *string          `json:"reason,omitempty"`
}

// ListTransactionsParams defines query parameters for listing transactions.
type ListTransactionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
	Category  *string `form:"category"`
	Status    *string `form:"status"`
}

// CommissionResponse defines the commission breakdown returned for a transaction.
type CommissionResponse struct {
	Rate             decimal.Decimal `json:"rate"`
	GrossAmount      decimal.Decimal `json:"grossAmount"`
	GatewayFeeRate   decimal.Decimal `json:"gatewayFeeRate"`
	GatewayFeeAmount decimal.Decimal `json:"gatewayFeeAmount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
	Status           string          `json:"status"`
}

// EscrowReleaseResponse defines one release record on a hold.
type EscrowReleaseResponse struct {
	ReleaseID     string          `json:"releaseID"`
	RecipientID   string          `json:"recipientID"`
	RecipientType string          `json:"recipientType"`
	Amount        decimal.Decimal `json:"amount"`
	ReleasedAt    time.Time       `json:"releasedAt"`
}

// EscrowResponse defines the escrow hold state returned for a transaction.
type EscrowResponse struct {
	Status         string                  `json:"status"`
	HeldAmount     decimal.Decimal         `json:"heldAmount"`
	ReleasedAmount decimal.Decimal         `json:"releasedAmount"`
	Reason         string                  `json:"reason"`
	HeldAt         time.Time               `json:"heldAt"`
	HoldUntil      *time.Time              `json:"holdUntil,omitempty"`
	Releases       []EscrowReleaseResponse `json:"releases,omitempty"`
}

// SplitEntryResponse defines one computed split returned for a transaction.
type SplitEntryResponse struct {
	Type             string          `json:"type"`
	RecipientID      string          `json:"recipientID"`
	RecipientType    string          `json:"recipientType"`
	Rate             decimal.Decimal `json:"rate"`
	GrossAmount      decimal.Decimal `json:"grossAmount"`
	GatewayFeeAmount decimal.Decimal `json:"gatewayFeeAmount"`
	NetAmount        decimal.Decimal `json:"netAmount"`
	Status           string          `json:"status"`
}

// TransactionResponse defines the data returned for a ledger transaction.
type TransactionResponse struct {
	TransactionID          string               `json:"transactionID"`
	IdempotencyKey         string               `json:"idempotencyKey"`
	Direction              string               `json:"direction"`
	Category               string               `json:"category"`
	Status                 string               `json:"status"`
	Amount                 decimal.Decimal      `json:"amount"`
	Currency               string               `json:"currency"`
	Gateway                string               `json:"gateway"`
	GatewaySessionID       *string              `json:"gatewaySessionID,omitempty"`
	GatewayPaymentIntentID *string              `json:"gatewayPaymentIntentID,omitempty"`
	Commission             *CommissionResponse  `json:"commission,omitempty"`
	Escrow                 *EscrowResponse      `json:"escrow,omitempty"`
	Splits                 []SplitEntryResponse `json:"splits,omitempty"`
	RefundedAmount         decimal.Decimal      `json:"refundedAmount"`
	RefundedAt             *time.Time           `json:"refundedAt,omitempty"`
	ReferenceID            *string              `json:"referenceID,omitempty"`
	ReferenceModel         *string              `json:"referenceModel,omitempty"`
	VerifiedAt             *time.Time           `json:"verifiedAt,omitempty"`
	VerifiedBy             *string              `json:"verifiedBy,omitempty"`
	CreatedAt              time.Time            `json:"createdAt"`
}

// PaymentIntentResponse defines the provider handle returned on creation.
type PaymentIntentResponse struct {
	IntentID        string  `json:"intentID"`
	SessionID       *string `json:"sessionID,omitempty"`
	PaymentIntentID *string `json:"paymentIntentID,omitempty"`
	Status          string  `json:"status"`
	ClientSecret    *string `json:"clientSecret,omitempty"`
	PaymentURL      *string `json:"paymentURL,omitempty"`
	Instructions    *string `json:"instructions,omitempty"`
}

// CreateTransactionResponse combines the persisted transaction with the
// provider intent the caller needs to complete payment. Both fields are
// null for a zero-amount request, which creates no ledger row.
type CreateTransactionResponse struct {
	Transaction *TransactionResponse   `json:"transaction"`
	Payment     *PaymentIntentResponse `json:"payment"`
}

// ListTransactionsResponse defines a page of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	NextToken    *string               `json:"nextToken,omitempty"`
}

// ToCommissionResponse converts a domain.Commission to its response DTO.
func ToCommissionResponse(c *domain.Commission) *CommissionResponse {
	if c == nil {
		return nil
	}
	return &CommissionResponse{
		Rate:             c.Rate,
		GrossAmount:      c.GrossAmount,
		GatewayFeeRate:   c.GatewayFeeRate,
		GatewayFeeAmount: c.GatewayFeeAmount,
		NetAmount:        c.NetAmount,
		Status:           string(c.Status),
	}
}

// ToEscrowResponse converts a domain.EscrowHold to its response DTO.
func ToEscrowResponse(h *domain.EscrowHold) *EscrowResponse {
	if h == nil {
		return nil
	}
	releases := make([]EscrowReleaseResponse, len(h.Releases))
	for i, r := range h.Releases {
		releases[i] = EscrowReleaseResponse{
			ReleaseID:     r.ReleaseID,
			RecipientID:   r.RecipientID,
			RecipientType: r.RecipientType,
			Amount:        r.Amount,
			ReleasedAt:    r.ReleasedAt,
		}
	}
	return &EscrowResponse{
		Status:         string(h.Status),
		HeldAmount:     h.HeldAmount,
		ReleasedAmount: h.ReleasedAmount,
		Reason:         h.Reason,
		HeldAt:         h.HeldAt,
		HoldUntil:      h.HoldUntil,
		Releases:       releases,
	}
}

// ToSplitEntryResponses converts domain split entries to response DTOs.
func ToSplitEntryResponses(splits []domain.SplitEntry) []SplitEntryResponse {
	if len(splits) == 0 {
		return nil
	}
	out := make([]SplitEntryResponse, len(splits))
	for i, s := range splits {
		out[i] = SplitEntryResponse{
			Type:             s.Type,
			RecipientID:      s.RecipientID,
			RecipientType:    s.RecipientType,
			Rate:             s.Rate,
			GrossAmount:      s.GrossAmount,
			GatewayFeeAmount: s.GatewayFeeAmount,
			NetAmount:        s.NetAmount,
			Status:           string(s.Status),
		}
	}
	return out
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:          txn.TransactionID,
		IdempotencyKey:         txn.IdempotencyKey,
		Direction:              string(txn.Direction),
		Category:               txn.Category,
		Status:                 string(txn.Status),
		Amount:                 txn.Amount,
		Currency:               txn.Currency,
		Gateway:                txn.Gateway,
		GatewaySessionID:       txn.GatewaySessionID,
		GatewayPaymentIntentID: txn.GatewayPaymentIntentID,
		Commission:             ToCommissionResponse(txn.Commission),
		Escrow:                 ToEscrowResponse(txn.Escrow),
		Splits:                 ToSplitEntryResponses(txn.Splits),
		RefundedAmount:         txn.RefundedAmount,
		RefundedAt:             txn.RefundedAt,
		ReferenceID:            txn.ReferenceID,
		ReferenceModel:         txn.ReferenceModel,
		VerifiedAt:             txn.VerifiedAt,
		VerifiedBy:             txn.VerifiedBy,
		CreatedAt:              txn.CreatedAt,
	}
}

// ToTransactionResponses converts a slice of domain.Transaction to []TransactionResponse.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}

// ToPaymentIntentResponse converts a domain.PaymentIntent to its response DTO.
func ToPaymentIntentResponse(intent *domain.PaymentIntent) *PaymentIntentResponse {
	if intent == nil {
		return nil
	}
	return &PaymentIntentResponse{
		IntentID:        intent.IntentID,
		SessionID:       intent.SessionID,
		PaymentIntentID: intent.PaymentIntentID,
		Status:          string(intent.Status),
		ClientSecret:    intent.ClientSecret,
		PaymentURL:      intent.PaymentURL,
		Instructions:    intent.Instructions,
	}
}
