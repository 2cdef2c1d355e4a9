package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether money flows into or out of the ledger.
// Original charges are always income; refunds are always expense.
type TransactionDirection string

const (
	DirectionIncome  TransactionDirection = "income"
	DirectionExpense TransactionDirection = "expense"
)

// TransactionStatus is the lifecycle state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusPending           TransactionStatus = "pending"
	TransactionStatusVerified          TransactionStatus = "verified"
	TransactionStatusCompleted         TransactionStatus = "completed"
	TransactionStatusFailed            TransactionStatus = "failed"
	TransactionStatusCancelled         TransactionStatus = "cancelled"
	TransactionStatusExpired           TransactionStatus = "expired"
	TransactionStatusPartiallyRefunded TransactionStatus = "partially_refunded"
	TransactionStatusRefunded          TransactionStatus = "refunded"
)

// CommissionStatus tracks whether a commission has been collected.
type CommissionStatus string

const (
	CommissionStatusPending CommissionStatus = "pending"
	CommissionStatusSettled CommissionStatus = "settled"
	CommissionStatusWaived  CommissionStatus = "waived"
)

// Commission is the platform's fee breakdown attached to a transaction.
// Absent (nil pointer on Transaction) when the commission rate is zero.
type Commission struct {
	Rate             decimal.Decimal  `json:"rate"`             // Fraction of Amount, e.g. 0.10
	GrossAmount      decimal.Decimal  `json:"grossAmount"`      // round2(Amount * Rate)
	GatewayFeeRate   decimal.Decimal  `json:"gatewayFeeRate"`   // Fraction, e.g. 0.018
	GatewayFeeAmount decimal.Decimal  `json:"gatewayFeeAmount"` // round2(Amount * GatewayFeeRate)
	NetAmount        decimal.Decimal  `json:"netAmount"`        // max(0, GrossAmount - GatewayFeeAmount)
	Status           CommissionStatus `json:"status"`
}

// SplitStatus tracks whether a split entry has been paid out.
type SplitStatus string

const (
	SplitStatusPending  SplitStatus = "pending"
	SplitStatusReleased SplitStatus = "released"
)

// RecipientTypeOrganization marks the platform itself as the recipient.
// The organization share is never materialised as a split entry; it is the
// remainder after all configured splits.
const RecipientTypeOrganization = "organization"

// SplitRule describes one recipient's share of a held amount.
type SplitRule struct {
	Type          string          `json:"type"`          // Caller-defined label, e.g. "vendor_share"
	RecipientID   string          `json:"recipientID"`   // Opaque recipient reference
	RecipientType string          `json:"recipientType"` // e.g. "vendor", "affiliate", "organization"
	Rate          decimal.Decimal `json:"rate"`          // Fraction of the transaction amount
}

// SplitEntry is a computed split with its fee breakdown.
type SplitEntry struct {
	Type             string          `json:"type"`
	RecipientID      string          `json:"recipientID"`
	RecipientType    string          `json:"recipientType"`
	Rate             decimal.Decimal `json:"rate"`
	GrossAmount      decimal.Decimal `json:"grossAmount"`      // round2(Amount * Rate)
	GatewayFeeAmount decimal.Decimal `json:"gatewayFeeAmount"` // round2(GrossAmount * gatewayFeeRate)
	NetAmount        decimal.Decimal `json:"netAmount"`        // max(0, GrossAmount - GatewayFeeAmount)
	Status           SplitStatus     `json:"status"`
}

// Transaction is the single polymorphic money-movement record.
// Refunds never mutate the original row; each refund is a new expense
// Transaction referencing the original.
type Transaction struct {
	TransactionID  string               `json:"transactionID"`  // Primary Key (UUID)
	IdempotencyKey string               `json:"idempotencyKey"` // Unique; generated when the caller omits one
	Direction      TransactionDirection `json:"direction"`
	Category       string               `json:"category"` // Caller-defined, e.g. "subscription", "purchase"
	Status         TransactionStatus    `json:"status"`
	Amount         decimal.Decimal      `json:"amount"`   // Non-negative, two fractional digits
	Currency       string               `json:"currency"` // ISO code, immutable after creation

	Gateway                string  `json:"gateway"` // Provider name; "manual" for offline
	GatewaySessionID       *string `json:"gatewaySessionID,omitempty"`
	GatewayPaymentIntentID *string `json:"gatewayPaymentIntentID,omitempty"`

	Commission *Commission  `json:"commission,omitempty"`
	Escrow     *EscrowHold  `json:"escrow,omitempty"`
	Splits     []SplitEntry `json:"splits,omitempty"`

	RefundedAmount decimal.Decimal `json:"refundedAmount"`
	RefundedAt     *time.Time      `json:"refundedAt,omitempty"`

	ReferenceID    *string `json:"referenceID,omitempty"`    // Opaque link, e.g. subscription or original transaction
	ReferenceModel *string `json:"referenceModel,omitempty"` // e.g. "subscription", "transaction"

	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	VerifiedBy *string    `json:"verifiedBy,omitempty"` // Actor ID or "system"

	AuditFields
}

// IsRefundable reports whether the transaction is in a state that allows refunds.
func (t *Transaction) IsRefundable() bool {
	switch t.Status {
	case TransactionStatusVerified, TransactionStatusCompleted, TransactionStatusPartiallyRefunded:
		return true
	}
	return false
}

// RefundableAmount returns how much of the original amount can still be refunded.
func (t *Transaction) RefundableAmount() decimal.Decimal {
	return t.Amount.Sub(t.RefundedAmount)
}

// HasActiveHold reports whether funds are currently held in escrow.
func (t *Transaction) HasActiveHold() bool {
	if t.Escrow == nil {
		return false
	}
	return t.Escrow.Status == EscrowStatusHeld || t.Escrow.Status == EscrowStatusPartialRelease
}

// Validate checks the structural invariants of a transaction.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.Direction != DirectionIncome && t.Direction != DirectionExpense {
		return fmt.Errorf("invalid direction: %s", t.Direction)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("amount must not be negative")
	}
	if t.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if t.RefundedAmount.IsNegative() {
		return fmt.Errorf("refunded amount must not be negative")
	}
	if t.RefundedAmount.GreaterThan(t.Amount) {
		return fmt.Errorf("refunded amount exceeds transaction amount")
	}
	if (t.GatewaySessionID != nil || t.GatewayPaymentIntentID != nil) && t.Gateway == "" {
		return fmt.Errorf("gateway is required when gateway identifiers are set")
	}
	if t.Escrow != nil {
		if t.Escrow.ReleasedAmount.GreaterThan(t.Escrow.HeldAmount) {
			return fmt.Errorf("released amount exceeds held amount")
		}
	}
	if len(t.Splits) > 0 {
		total := decimal.Zero
		for _, s := range t.Splits {
			total = total.Add(s.GrossAmount)
		}
		if total.GreaterThan(t.Amount) {
			return fmt.Errorf("split total exceeds transaction amount")
		}
	}
	return nil
}
