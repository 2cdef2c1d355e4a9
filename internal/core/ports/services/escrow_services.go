package services

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// EscrowSvcFacade defines the hold lifecycle operations on a transaction's funds
type EscrowSvcFacade interface {
	// HoldFunds places the full amount of a verified transaction in escrow.
	// holdUntil is advisory; nothing releases automatically when it elapses.
	HoldFunds(ctx context.Context, transactionID string, reason string, holdUntil *time.Time, actorID string, at time.Time) (*domain.Transaction, error)

	// SplitFunds allocates held funds across recipients by rate and records an
	// income transaction per non-organization recipient. Returns the updated
	// transaction and the organization's residual payout.
	SplitFunds(ctx context.Context, transactionID string, rules []domain.SplitRule, actorID string, at time.Time) (*domain.Transaction, decimal.Decimal, error)

	// ReleaseFunds pays out part or all of the held balance to one recipient.
	// A nil amount releases the full remaining balance.
	ReleaseFunds(ctx context.Context, transactionID string, recipientID string, recipientType string, amount *decimal.Decimal, actorID string, at time.Time) (*domain.Transaction, error)

	// CancelHold voids an active hold with no payouts. Any amount already
	// released stays released; only the remainder is returned to the payer.
	CancelHold(ctx context.Context, transactionID string, reason string, actorID string, at time.Time) (*domain.Transaction, error)
}
