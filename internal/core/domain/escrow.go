package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus is the lifecycle state of a hold on transaction funds.
type EscrowStatus string

const (
	EscrowStatusHeld           EscrowStatus = "held"
	EscrowStatusPartialRelease EscrowStatus = "partial_release"
	EscrowStatusReleased       EscrowStatus = "released"
	EscrowStatusCancelled      EscrowStatus = "cancelled"
)

// EscrowHold records funds held by the platform pending release to recipients.
type EscrowHold struct {
	Status         EscrowStatus    `json:"status"`
	HeldAmount     decimal.Decimal `json:"heldAmount"`
	ReleasedAmount decimal.Decimal `json:"releasedAmount"`
	Reason         string          `json:"reason"`
	HeldAt         time.Time       `json:"heldAt"`
	HoldUntil      *time.Time      `json:"holdUntil,omitempty"` // Advisory; elapse is detected by the caller
	CancelledAt    *time.Time      `json:"cancelledAt,omitempty"`
	CancelReason   *string         `json:"cancelReason,omitempty"`
	Releases       []EscrowRelease `json:"releases,omitempty"`
}

// EscrowRelease is one payout of held funds to a recipient.
type EscrowRelease struct {
	ReleaseID     string          `json:"releaseID"` // UUID
	RecipientID   string          `json:"recipientID"`
	RecipientType string          `json:"recipientType"`
	Amount        decimal.Decimal `json:"amount"`
	ReleasedAt    time.Time       `json:"releasedAt"`
	ReleasedBy    string          `json:"releasedBy"` // Actor ID or "system"
}

// RemainingAmount returns the held balance not yet released.
func (h *EscrowHold) RemainingAmount() decimal.Decimal {
	return h.HeldAmount.Sub(h.ReleasedAmount)
}

// IsActive reports whether the hold can still accept releases or cancellation.
func (h *EscrowHold) IsActive() bool {
	return h.Status == EscrowStatusHeld || h.Status == EscrowStatusPartialRelease
}
