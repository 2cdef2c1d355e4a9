package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is one of a closed set of typed notifications emitted after mutating
// operations. Emission is fire-and-forget; see the notifications port.
type Event interface {
	EventName() string
}

// TransactionCreatedEvent is emitted after a transaction is persisted.
type TransactionCreatedEvent struct {
	TransactionID string               `json:"transactionID"`
	Direction     TransactionDirection `json:"direction"`
	Category      string               `json:"category"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Gateway       string               `json:"gateway"`
	Status        TransactionStatus    `json:"status"`
}

func (TransactionCreatedEvent) EventName() string { return "transaction.created" }

// TransactionVerifiedEvent is emitted when a transaction reaches verified.
type TransactionVerifiedEvent struct {
	TransactionID string          `json:"transactionID"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Gateway       string          `json:"gateway"`
	VerifiedAt    time.Time       `json:"verifiedAt"`
	VerifiedBy    string          `json:"verifiedBy"`
}

func (TransactionVerifiedEvent) EventName() string { return "transaction.verified" }

// TransactionFailedEvent is emitted when verification fails or the provider
// reports a failure.
type TransactionFailedEvent struct {
	TransactionID string `json:"transactionID"`
	Gateway       string `json:"gateway"`
	Reason        string `json:"reason"`
}

func (TransactionFailedEvent) EventName() string { return "transaction.failed" }

// TransactionRefundedEvent is emitted after a refund completes.
type TransactionRefundedEvent struct {
	TransactionID       string          `json:"transactionID"`       // Original transaction
	RefundTransactionID string          `json:"refundTransactionID"` // Satellite expense row
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	FullyRefunded       bool            `json:"fullyRefunded"`
}

func (TransactionRefundedEvent) EventName() string { return "transaction.refunded" }

// EscrowHeldEvent is emitted when funds are placed on hold.
type EscrowHeldEvent struct {
	TransactionID string          `json:"transactionID"`
	HeldAmount    decimal.Decimal `json:"heldAmount"`
	Reason        string          `json:"reason"`
	HoldUntil     *time.Time      `json:"holdUntil,omitempty"`
}

func (EscrowHeldEvent) EventName() string { return "escrow.held" }

// EscrowSplitEvent is emitted when a held amount is apportioned.
type EscrowSplitEvent struct {
	TransactionID      string          `json:"transactionID"`
	SplitCount         int             `json:"splitCount"`
	OrganizationPayout decimal.Decimal `json:"organizationPayout"`
}

func (EscrowSplitEvent) EventName() string { return "escrow.split" }

// EscrowReleasedEvent is emitted for each release of held funds.
type EscrowReleasedEvent struct {
	TransactionID string          `json:"transactionID"`
	RecipientID   string          `json:"recipientID"`
	RecipientType string          `json:"recipientType"`
	Amount        decimal.Decimal `json:"amount"`
	Remaining     decimal.Decimal `json:"remaining"`
}

func (EscrowReleasedEvent) EventName() string { return "escrow.released" }

// EscrowCancelledEvent is emitted when a hold is cancelled.
type EscrowCancelledEvent struct {
	TransactionID string `json:"transactionID"`
	Reason        string `json:"reason"`
}

func (EscrowCancelledEvent) EventName() string { return "escrow.cancelled" }

// SubscriptionCreatedEvent is emitted after a subscription is persisted.
type SubscriptionCreatedEvent struct {
	SubscriptionID string          `json:"subscriptionID"`
	PlanKey        string          `json:"planKey"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	TransactionID  *string         `json:"transactionID,omitempty"` // Absent for free plans
}

func (SubscriptionCreatedEvent) EventName() string { return "subscription.created" }

// SubscriptionActivatedEvent is emitted when a subscription becomes active.
type SubscriptionActivatedEvent struct {
	SubscriptionID string    `json:"subscriptionID"`
	PeriodStart    time.Time `json:"periodStart"`
	PeriodEnd      time.Time `json:"periodEnd"`
}

func (SubscriptionActivatedEvent) EventName() string { return "subscription.activated" }

// SubscriptionRenewedEvent is emitted when a renewal charge is created.
type SubscriptionRenewedEvent struct {
	SubscriptionID string          `json:"subscriptionID"`
	TransactionID  string          `json:"transactionID"`
	Amount         decimal.Decimal `json:"amount"`
	RenewalCount   int             `json:"renewalCount"`
}

func (SubscriptionRenewedEvent) EventName() string { return "subscription.renewed" }

// SubscriptionPausedEvent is emitted when a subscription is paused.
type SubscriptionPausedEvent struct {
	SubscriptionID string    `json:"subscriptionID"`
	Reason         string    `json:"reason"`
	PausedAt       time.Time `json:"pausedAt"`
}

func (SubscriptionPausedEvent) EventName() string { return "subscription.paused" }

// SubscriptionResumedEvent is emitted when a paused subscription resumes.
type SubscriptionResumedEvent struct {
	SubscriptionID string     `json:"subscriptionID"`
	ResumedAt      time.Time  `json:"resumedAt"`
	PeriodEnd      *time.Time `json:"periodEnd,omitempty"`
}

func (SubscriptionResumedEvent) EventName() string { return "subscription.resumed" }

// SubscriptionCancelledEvent is emitted when a subscription is cancelled,
// immediately or at period end.
type SubscriptionCancelledEvent struct {
	SubscriptionID    string `json:"subscriptionID"`
	Immediate         bool   `json:"immediate"`
	CancelAtPeriodEnd bool   `json:"cancelAtPeriodEnd"`
}

func (SubscriptionCancelledEvent) EventName() string { return "subscription.cancelled" }

// SubscriptionExpiredEvent is emitted when an elapsed billing period is
// acknowledged and the subscription moves to expired.
type SubscriptionExpiredEvent struct {
	SubscriptionID string    `json:"subscriptionID"`
	PeriodEnd      time.Time `json:"periodEnd"`
}

func (SubscriptionExpiredEvent) EventName() string { return "subscription.expired" }
