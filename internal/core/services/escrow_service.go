package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/SscSPs/payment_ledger_app/internal/utils/fees"
	"github.com/shopspring/decimal"
)

var (
	ErrNotHoldable        = errors.New("transaction must be verified or completed to hold funds")
	ErrAlreadyHeld        = errors.New("transaction already has an escrow hold")
	ErrNoActiveHold       = errors.New("transaction has no active escrow hold")
	ErrReleaseExceedsHeld = errors.New("release amount exceeds the remaining held balance")
)

// escrowService manages the hold lifecycle layered on verified transactions.
type escrowService struct {
	BaseService
	cfg      *config.Config
	txnRepo  portsrepo.TransactionRepositoryWithTx
	notifier portsnotif.Notifier
}

// NewEscrowService creates a new EscrowService.
func NewEscrowService(cfg *config.Config, txnRepo portsrepo.TransactionRepositoryWithTx, notifier portsnotif.Notifier) portssvc.EscrowSvcFacade {
	return &escrowService{
		cfg:      cfg,
		txnRepo:  txnRepo,
		notifier: notifier,
	}
}

// Ensure escrowService implements the portssvc.EscrowSvcFacade interface
var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

// HoldFunds places the full transaction amount in escrow.
// Implements portssvc.EscrowSvcFacade
func (s *escrowService) HoldFunds(ctx context.Context, transactionID string, reason string, holdUntil *time.Time, actorID string, at time.Time) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if txn.Escrow != nil {
		// A hold exists once per transaction; cancelled and released holds are
		// part of its history, not a slot to overwrite.
		return nil, fmt.Errorf("%w: hold status is %s", ErrAlreadyHeld, txn.Escrow.Status)
	}
	if txn.Status != domain.TransactionStatusVerified && txn.Status != domain.TransactionStatusCompleted {
		return nil, fmt.Errorf("%w: status is %s", ErrNotHoldable, txn.Status)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: hold reason is required", apperrors.ErrValidation)
	}

	txn.Escrow = &domain.EscrowHold{
		Status:         domain.EscrowStatusHeld,
		HeldAmount:     txn.Amount,
		ReleasedAmount: decimal.Zero,
		Reason:         reason,
		HeldAt:         at,
		HoldUntil:      holdUntil,
	}
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = actorID

	if err := s.txnRepo.SaveTransaction(ctx, *txn); err != nil {
		s.LogError(ctx, err, "Failed to save escrow hold", "transaction_id", transactionID)
		return nil, fmt.Errorf("failed to save hold: %w", err)
	}

	s.notifier.Emit(ctx, domain.EscrowHeldEvent{
		TransactionID: txn.TransactionID,
		HeldAmount:    txn.Escrow.HeldAmount,
		Reason:        reason,
		HoldUntil:     holdUntil,
	})

	s.LogInfo(ctx, "Funds held in escrow", "transaction_id", transactionID, "held_amount", txn.Escrow.HeldAmount.String())
	return txn, nil
}

// SplitFunds apportions the held amount across recipients. Held funds are not
// moved; the split list and its satellite payout rows are bookkeeping for a
// later release.
// Implements portssvc.EscrowSvcFacade
func (s *escrowService) SplitFunds(ctx context.Context, transactionID string, rules []domain.SplitRule, actorID string, at time.Time) (*domain.Transaction, decimal.Decimal, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if !txn.HasActiveHold() {
		return nil, decimal.Zero, ErrNoActiveHold
	}
	if len(rules) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: at least one split rule is required", apperrors.ErrValidation)
	}

	splits, err := fees.ComputeSplits(txn.Amount, rules, s.cfg.GatewayFeeRateFor(txn.Gateway))
	if err != nil {
		return nil, decimal.Zero, err
	}
	payout, err := fees.ComputeOrganizationPayout(txn.Amount, splits)
	if err != nil {
		return nil, decimal.Zero, err
	}

	txn.Splits = splits
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = actorID

	// Each external recipient gets an income row for downstream payout
	// tracking; the organization's remainder never materialises as a row.
	satellites := make([]domain.Transaction, 0, len(splits))
	for _, entry := range splits {
		if entry.RecipientType == domain.RecipientTypeOrganization {
			continue
		}
		satellites = append(satellites, domain.Transaction{
			TransactionID:  uuid.NewString(),
			IdempotencyKey: uuid.NewString(),
			Direction:      domain.DirectionIncome,
			Category:       txn.Category,
			Status:         domain.TransactionStatusPending,
			Amount:         entry.NetAmount,
			Currency:       txn.Currency,
			Gateway:        txn.Gateway,
			RefundedAmount: decimal.Zero,
			ReferenceID:    &txn.TransactionID,
			ReferenceModel: strPtr("transaction"),
			AuditFields: domain.AuditFields{
				CreatedAt:     at,
				CreatedBy:     actorID,
				LastUpdatedAt: at,
				LastUpdatedBy: actorID,
				Version:       1,
			},
		})
	}

	if err := s.txnRepo.SaveTransactionWithSatellites(ctx, *txn, satellites); err != nil {
		s.LogError(ctx, err, "Failed to save split", "transaction_id", transactionID)
		return nil, decimal.Zero, fmt.Errorf("failed to save split: %w", err)
	}

	s.notifier.Emit(ctx, domain.EscrowSplitEvent{
		TransactionID:      txn.TransactionID,
		SplitCount:         len(splits),
		OrganizationPayout: payout,
	})

	s.LogInfo(ctx, "Held funds split", "transaction_id", transactionID, "split_count", len(splits), "organization_payout", payout.String())
	return txn, payout, nil
}

// ReleaseFunds pays out part or all of the held balance to one recipient.
// Implements portssvc.EscrowSvcFacade
func (s *escrowService) ReleaseFunds(ctx context.Context, transactionID string, recipientID string, recipientType string, amount *decimal.Decimal, actorID string, at time.Time) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if !txn.HasActiveHold() {
		return nil, ErrNoActiveHold
	}
	if recipientID == "" || recipientType == "" {
		return nil, fmt.Errorf("%w: recipient ID and type are required", apperrors.ErrValidation)
	}

	hold := txn.Escrow
	remaining := hold.RemainingAmount()
	releaseAmount := remaining
	if amount != nil {
		releaseAmount = *amount
	}
	if releaseAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: release amount must be positive", apperrors.ErrValidation)
	}
	if releaseAmount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: requested %s, remaining %s", ErrReleaseExceedsHeld, releaseAmount.String(), remaining.String())
	}

	hold.Releases = append(hold.Releases, domain.EscrowRelease{
		ReleaseID:     uuid.NewString(),
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Amount:        releaseAmount,
		ReleasedAt:    at,
		ReleasedBy:    actorID,
	})
	hold.ReleasedAmount = hold.ReleasedAmount.Add(releaseAmount)
	if hold.ReleasedAmount.Equal(hold.HeldAmount) {
		hold.Status = domain.EscrowStatusReleased
	} else {
		hold.Status = domain.EscrowStatusPartialRelease
	}
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = actorID

	if err := s.txnRepo.SaveTransaction(ctx, *txn); err != nil {
		s.LogError(ctx, err, "Failed to save release", "transaction_id", transactionID)
		return nil, fmt.Errorf("failed to save release: %w", err)
	}

	s.notifier.Emit(ctx, domain.EscrowReleasedEvent{
		TransactionID: txn.TransactionID,
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Amount:        releaseAmount,
		Remaining:     hold.RemainingAmount(),
	})

	s.LogInfo(ctx, "Held funds released", "transaction_id", transactionID, "amount", releaseAmount.String(), "hold_status", string(hold.Status))
	return txn, nil
}

// CancelHold voids an active hold. Amounts already released stay released; the
// remainder is returned to the payer as bookkeeping, never as an automatic
// refund.
// Implements portssvc.EscrowSvcFacade
func (s *escrowService) CancelHold(ctx context.Context, transactionID string, reason string, actorID string, at time.Time) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if !txn.HasActiveHold() {
		return nil, ErrNoActiveHold
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", apperrors.ErrValidation)
	}

	txn.Escrow.Status = domain.EscrowStatusCancelled
	txn.Escrow.CancelledAt = &at
	txn.Escrow.CancelReason = &reason
	txn.Status = domain.TransactionStatusCancelled
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = actorID

	if err := s.txnRepo.SaveTransaction(ctx, *txn); err != nil {
		s.LogError(ctx, err, "Failed to save hold cancellation", "transaction_id", transactionID)
		return nil, fmt.Errorf("failed to save hold cancellation: %w", err)
	}

	s.notifier.Emit(ctx, domain.EscrowCancelledEvent{
		TransactionID: txn.TransactionID,
		Reason:        reason,
	})

	s.LogInfo(ctx, "Escrow hold cancelled", "transaction_id", transactionID, "reason", reason)
	return txn, nil
}
