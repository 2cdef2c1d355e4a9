package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is a provider-reported payment state. Only "succeeded" maps to
// a verified ledger transaction; every other value is stored verbatim.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusExpired    PaymentStatus = "expired"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// CreateIntentParams carries everything a provider needs to open a payment.
type CreateIntentParams struct {
	Amount         decimal.Decimal
	Currency       string
	Category       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

// PaymentIntent is a provider's handle for an initiated payment.
type PaymentIntent struct {
	IntentID        string        `json:"intentID"` // Provider-scoped identifier
	SessionID       *string       `json:"sessionID,omitempty"`
	PaymentIntentID *string       `json:"paymentIntentID,omitempty"`
	Status          PaymentStatus `json:"status"`
	ClientSecret    *string       `json:"clientSecret,omitempty"`
	PaymentURL      *string       `json:"paymentURL,omitempty"`
	Instructions    *string       `json:"instructions,omitempty"` // Manual providers: how to pay
}

// PaymentResult is a provider's answer to a verification or status query.
type PaymentResult struct {
	Status   PaymentStatus   `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	PaidAt   *time.Time      `json:"paidAt,omitempty"`
}

// RefundResult is a provider's answer to a refund request.
type RefundResult struct {
	Status     PaymentStatus   `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	RefundedAt *time.Time      `json:"refundedAt,omitempty"`
}

// Canonical webhook event types. Providers translate their gateway-specific
// payloads into these before the event reaches the ledger.
const (
	WebhookPaymentSucceeded = "payment.succeeded"
	WebhookPaymentFailed    = "payment.failed"
	WebhookPaymentCancelled = "payment.cancelled"
	WebhookPaymentExpired   = "payment.expired"
)

// WebhookEvent is a provider-parsed asynchronous notification. At least one of
// SessionID / PaymentIntentID must be present for the event to be routable.
type WebhookEvent struct {
	Type            string           `json:"type"` // Provider-scoped event type
	SessionID       *string          `json:"sessionID,omitempty"`
	PaymentIntentID *string          `json:"paymentIntentID,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
}

// ProviderCapabilities declares what a payment provider supports.
type ProviderCapabilities struct {
	SupportsWebhooks           bool
	SupportsRefunds            bool
	SupportsPartialRefunds     bool
	RequiresManualVerification bool
}

// PaymentRecord is the durable state an offline provider keeps per intent.
// Gateway providers hold this state remotely; the manual provider persists it.
type PaymentRecord struct {
	IntentID       string          `json:"intentID"` // Primary Key
	Gateway        string          `json:"gateway"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PaymentStatus   `json:"status"`
	Instructions   *string         `json:"instructions,omitempty"`
	PaidAt         *time.Time      `json:"paidAt,omitempty"`
	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
