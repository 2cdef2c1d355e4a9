package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the persisted form of a payment transaction.
// Commission, Escrow and Splits are stored as jsonb documents; the mapping
// layer marshals them to and from their domain structs.
type Transaction struct {
	TransactionID          string          `db:"transaction_id"`
	IdempotencyKey         string          `db:"idempotency_key"`
	Direction              string          `db:"direction"`
	Category               string          `db:"category"`
	Status                 string          `db:"status"`
	Amount                 decimal.Decimal `db:"amount"`
	Currency               string          `db:"currency"`
	Gateway                string          `db:"gateway"`
	GatewaySessionID       *string         `db:"gateway_session_id"`        // Nullable
	GatewayPaymentIntentID *string         `db:"gateway_payment_intent_id"` // Nullable
	Commission             json.RawMessage `db:"commission"`                // Nullable jsonb
	Escrow                 json.RawMessage `db:"escrow"`                    // Nullable jsonb
	Splits                 json.RawMessage `db:"splits"`                    // Nullable jsonb
	RefundedAmount         decimal.Decimal `db:"refunded_amount"`
	RefundedAt             *time.Time      `db:"refunded_at"`
	ReferenceID            *string         `db:"reference_id"`
	ReferenceModel         *string         `db:"reference_model"`
	VerifiedAt             *time.Time      `db:"verified_at"`
	VerifiedBy             *string         `db:"verified_by"`
	AuditFields
}
