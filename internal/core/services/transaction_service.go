package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsproviders "github.com/SscSPs/payment_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/middleware"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
	"github.com/SscSPs/payment_ledger_app/internal/utils/fees"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownGateway       = errors.New("unknown payment gateway")
	ErrMissingGatewayRef    = errors.New("a gateway session ID or payment intent ID is required")
	ErrAmountMismatch       = errors.New("provider-reported amount does not match the stored transaction")
	ErrCurrencyMismatch     = errors.New("provider-reported currency does not match the stored transaction")
	ErrNotRefundable        = errors.New("transaction is not refundable in its current status")
	ErrRefundExceedsBalance = errors.New("refund amount exceeds the refundable balance")
	ErrRefundBlockedByHold  = errors.New("transaction has an active escrow hold")
)

// transactionService drives the transaction state machine.
type transactionService struct {
	cfg       *config.Config
	txnRepo   portsrepo.TransactionRepositoryWithTx
	providers portsproviders.Registry
	notifier  portsnotif.Notifier
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(cfg *config.Config, txnRepo portsrepo.TransactionRepositoryWithTx, providers portsproviders.Registry, notifier portsnotif.Notifier) portssvc.TransactionSvcFacade {
	return &transactionService{
		cfg:       cfg,
		txnRepo:   txnRepo,
		providers: providers,
		notifier:  notifier,
	}
}

// Ensure transactionService implements the portssvc.TransactionSvcFacade interface
var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// gatewayRef picks the identifier to hand back to the provider, preferring the
// payment-intent ID over the checkout session ID.
func gatewayRef(txn *domain.Transaction) string {
	if txn.GatewayPaymentIntentID != nil {
		return *txn.GatewayPaymentIntentID
	}
	if txn.GatewaySessionID != nil {
		return *txn.GatewaySessionID
	}
	return ""
}

// CreateTransaction opens a payment intent and persists the pending transaction.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorID string, at time.Time) (*domain.Transaction, *domain.PaymentIntent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Amount.IsNegative() {
		return nil, nil, fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	// A free grant produces no ledger row at all.
	if req.Amount.IsZero() {
		logger.Info("Zero amount, no transaction created", slog.String("category", req.Category))
		return nil, nil, nil
	}

	currency := strings.ToUpper(req.Currency)
	category := s.cfg.ResolveCategory(req.Category)

	provider, ok := s.providers.Get(req.Gateway)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownGateway, req.Gateway)
	}

	// The ledger always carries an idempotency key; generate one when the
	// caller did not supply theirs.
	idempotencyKey := uuid.NewString()
	if req.IdempotencyKey != nil && *req.IdempotencyKey != "" {
		idempotencyKey = *req.IdempotencyKey
		existing, err := s.txnRepo.FindTransactionByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			logger.Info("Idempotency key replay, returning existing transaction", slog.String("transaction_id", existing.TransactionID))
			return existing, nil, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed idempotency lookup", slog.String("error", err.Error()))
			return nil, nil, fmt.Errorf("failed to check idempotency key: %w", err)
		}
	}

	commission, err := fees.ComputeCommission(req.Amount, s.cfg.CommissionRateFor(category), s.cfg.GatewayFeeRateFor(req.Gateway))
	if err != nil {
		return nil, nil, err
	}

	intent, err := provider.CreateIntent(ctx, domain.CreateIntentParams{
		Amount:         req.Amount,
		Currency:       currency,
		Category:       category,
		Description:    req.Description,
		IdempotencyKey: idempotencyKey,
		Metadata:       req.Metadata,
	})
	if err != nil {
		logger.Error("Provider rejected intent creation", slog.String("gateway", req.Gateway), slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	now := at
	txn := domain.Transaction{
		TransactionID:          uuid.NewString(),
		IdempotencyKey:         idempotencyKey,
		Direction:              domain.DirectionIncome,
		Category:               category,
		Status:                 domain.TransactionStatusPending,
		Amount:                 req.Amount,
		Currency:               currency,
		Gateway:                req.Gateway,
		GatewaySessionID:       intent.SessionID,
		GatewayPaymentIntentID: intent.PaymentIntentID,
		Commission:             commission,
		RefundedAmount:         decimal.Zero,
		ReferenceID:            req.ReferenceID,
		ReferenceModel:         req.ReferenceModel,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorID,
			Version:       1,
		},
	}
	// Some providers confirm synchronously (zero-friction or pre-settled
	// flows); persist as verified straight away.
	if intent.Status == domain.PaymentStatusSucceeded {
		txn.Status = domain.TransactionStatusVerified
		txn.VerifiedAt = &now
		txn.VerifiedBy = &creatorID
	}

	if err := s.txnRepo.CreateTransaction(ctx, txn); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Lost a concurrent-create race on the same key; the winner's row
			// is the transaction.
			existing, ferr := s.txnRepo.FindTransactionByIdempotencyKey(ctx, idempotencyKey)
			if ferr == nil {
				logger.Info("Concurrent duplicate create coalesced", slog.String("transaction_id", existing.TransactionID))
				return existing, nil, nil
			}
		}
		logger.Error("Failed to persist transaction", slog.String("error", err.Error()))
		return nil, nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	s.notifier.Emit(ctx, domain.TransactionCreatedEvent{
		TransactionID: txn.TransactionID,
		Direction:     txn.Direction,
		Category:      txn.Category,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Gateway:       txn.Gateway,
		Status:        txn.Status,
	})
	if txn.Status == domain.TransactionStatusVerified {
		s.notifier.Emit(ctx, domain.TransactionVerifiedEvent{
			TransactionID: txn.TransactionID,
			Amount:        txn.Amount,
			Currency:      txn.Currency,
			Gateway:       txn.Gateway,
			VerifiedAt:    now,
			VerifiedBy:    creatorID,
		})
	}

	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID), slog.String("gateway", txn.Gateway), slog.String("status", string(txn.Status)))
	return &txn, intent, nil
}

// VerifyTransaction resolves a transaction by gateway identifier and applies the
// provider's authoritative result.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) VerifyTransaction(ctx context.Context, sessionID *string, paymentIntentID *string, verifierID string, at time.Time) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if sessionID == nil && paymentIntentID == nil {
		return nil, ErrMissingGatewayRef
	}

	txn, err := s.txnRepo.FindTransactionByGatewayID(ctx, sessionID, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to locate transaction by gateway identifier: %w", err)
	}

	provider, ok := s.providers.Get(txn.Gateway)
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for gateway %q", apperrors.ErrConfiguration, txn.Gateway)
	}

	result, err := provider.VerifyPayment(ctx, gatewayRef(txn))
	if err != nil {
		logger.Error("Provider verification failed", slog.String("transaction_id", txn.TransactionID), slog.String("gateway", txn.Gateway), slog.String("error", err.Error()))
		s.notifier.Emit(ctx, domain.TransactionFailedEvent{
			TransactionID: txn.TransactionID,
			Gateway:       txn.Gateway,
			Reason:        err.Error(),
		})
		return nil, err
	}

	// An intent whose amount or currency drifted from the stored row is
	// tampered or stale; never accept it, whatever the current status.
	if !result.Amount.Equal(txn.Amount) {
		return nil, fmt.Errorf("%w: provider reported %s, transaction holds %s", ErrAmountMismatch, result.Amount.String(), txn.Amount.String())
	}
	if !strings.EqualFold(result.Currency, txn.Currency) {
		return nil, fmt.Errorf("%w: provider reported %s, transaction holds %s", ErrCurrencyMismatch, result.Currency, txn.Currency)
	}

	if txn.Status != domain.TransactionStatusPending {
		logger.Debug("Verification requested for non-pending transaction", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
		return txn, nil
	}

	return s.applyProviderStatus(ctx, txn, result.Status, verifierID, at)
}

// applyProviderStatus maps a provider-reported payment status onto the ledger
// state machine. Only "succeeded" becomes verified; failed, cancelled and
// expired are stored verbatim; anything else leaves the row pending.
func (s *transactionService) applyProviderStatus(ctx context.Context, txn *domain.Transaction, providerStatus domain.PaymentStatus, actorID string, at time.Time) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var next domain.TransactionStatus
	var verifiedAt *time.Time
	var verifiedBy *string
	switch providerStatus {
	case domain.PaymentStatusSucceeded:
		next = domain.TransactionStatusVerified
		verifiedAt = &at
		verifiedBy = &actorID
	case domain.PaymentStatusFailed:
		next = domain.TransactionStatusFailed
	case domain.PaymentStatusCancelled:
		next = domain.TransactionStatusCancelled
	case domain.PaymentStatusExpired:
		next = domain.TransactionStatusExpired
	default:
		logger.Debug("Provider status causes no transition", slog.String("transaction_id", txn.TransactionID), slog.String("provider_status", string(providerStatus)))
		return txn, nil
	}

	err := s.txnRepo.UpdateTransactionStatusIfCurrent(ctx, txn.TransactionID, domain.TransactionStatusPending, next, verifiedAt, verifiedBy, actorID, at)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// A concurrent webhook or verification won the race; the stored
			// outcome stands.
			logger.Info("Transaction already transitioned concurrently", slog.String("transaction_id", txn.TransactionID))
			return s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
		}
		logger.Error("Failed to transition transaction", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	updated, err := s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload transaction after transition: %w", err)
	}

	switch next {
	case domain.TransactionStatusVerified:
		s.notifier.Emit(ctx, domain.TransactionVerifiedEvent{
			TransactionID: updated.TransactionID,
			Amount:        updated.Amount,
			Currency:      updated.Currency,
			Gateway:       updated.Gateway,
			VerifiedAt:    at,
			VerifiedBy:    actorID,
		})
	case domain.TransactionStatusFailed:
		s.notifier.Emit(ctx, domain.TransactionFailedEvent{
			TransactionID: updated.TransactionID,
			Gateway:       updated.Gateway,
			Reason:        fmt.Sprintf("provider reported %s", providerStatus),
		})
	}

	logger.Info("Transaction transitioned", slog.String("transaction_id", updated.TransactionID), slog.String("status", string(updated.Status)))
	return updated, nil
}

// HandleProviderWebhook parses an inbound gateway notification and applies the
// same status mapping as VerifyTransaction.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) HandleProviderWebhook(ctx context.Context, providerName string, payload []byte, headers map[string]string, at time.Time) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	provider, ok := s.providers.Get(providerName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGateway, providerName)
	}
	if !provider.Capabilities().SupportsWebhooks {
		return nil, fmt.Errorf("%w: provider %q does not accept webhooks", apperrors.ErrUnsupported, providerName)
	}

	event, err := provider.HandleWebhook(ctx, payload, headers)
	if err != nil {
		logger.Warn("Webhook payload rejected by provider", slog.String("provider", providerName), slog.String("error", err.Error()))
		return nil, err
	}
	if event.SessionID == nil && event.PaymentIntentID == nil {
		return nil, fmt.Errorf("%w: webhook event carries no gateway identifier", apperrors.ErrValidation)
	}

	txn, err := s.txnRepo.FindTransactionByGatewayID(ctx, event.SessionID, event.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to locate transaction for webhook: %w", err)
	}

	// A checkout session can later yield a payment-intent ID (and vice
	// versa); backfill whichever identifier the stored row lacks.
	backfilled := false
	if txn.GatewaySessionID == nil && event.SessionID != nil {
		txn.GatewaySessionID = event.SessionID
		backfilled = true
	}
	if txn.GatewayPaymentIntentID == nil && event.PaymentIntentID != nil {
		txn.GatewayPaymentIntentID = event.PaymentIntentID
		backfilled = true
	}
	if backfilled {
		txn.LastUpdatedAt = at
		txn.LastUpdatedBy = domain.SystemActorID
		if err := s.txnRepo.SaveTransaction(ctx, *txn); err != nil {
			if !errors.Is(err, apperrors.ErrConflict) {
				logger.Error("Failed to backfill gateway identifiers", slog.String("transaction_id", txn.TransactionID), slog.String("error", err.Error()))
				return nil, fmt.Errorf("failed to update gateway identifiers: %w", err)
			}
			// A concurrent writer touched the row; reload and carry on.
			txn, err = s.txnRepo.FindTransactionByID(ctx, txn.TransactionID)
			if err != nil {
				return nil, fmt.Errorf("failed to reload transaction: %w", err)
			}
		}
	}

	if event.Amount != nil && !event.Amount.Equal(txn.Amount) {
		return nil, fmt.Errorf("%w: webhook reported %s, transaction holds %s", ErrAmountMismatch, event.Amount.String(), txn.Amount.String())
	}

	var status domain.PaymentStatus
	switch event.Type {
	case domain.WebhookPaymentSucceeded:
		status = domain.PaymentStatusSucceeded
	case domain.WebhookPaymentFailed:
		status = domain.PaymentStatusFailed
	case domain.WebhookPaymentCancelled:
		status = domain.PaymentStatusCancelled
	case domain.WebhookPaymentExpired:
		status = domain.PaymentStatusExpired
	default:
		logger.Info("Ignoring unhandled webhook event type", slog.String("provider", providerName), slog.String("event_type", event.Type))
		return txn, nil
	}

	if txn.Status != domain.TransactionStatusPending {
		// Redelivered webhook for an already-settled transaction.
		logger.Debug("Webhook for non-pending transaction ignored", slog.String("transaction_id", txn.TransactionID), slog.String("status", string(txn.Status)))
		return txn, nil
	}

	return s.applyProviderStatus(ctx, txn, status, domain.SystemActorID, at)
}

// CompleteTransaction marks a verified transaction as completed.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) CompleteTransaction(ctx context.Context, transactionID string, actorID string, at time.Time) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.Status == domain.TransactionStatusCompleted {
		logger.Debug("Transaction already completed", slog.String("transaction_id", transactionID))
		return txn, nil
	}
	if txn.Status != domain.TransactionStatusVerified {
		return nil, fmt.Errorf("%w: cannot complete a %s transaction", apperrors.ErrConflict, txn.Status)
	}

	err = s.txnRepo.UpdateTransactionStatusIfCurrent(ctx, transactionID, domain.TransactionStatusVerified, domain.TransactionStatusCompleted, nil, nil, actorID, at)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			current, ferr := s.txnRepo.FindTransactionByID(ctx, transactionID)
			if ferr == nil && current.Status == domain.TransactionStatusCompleted {
				return current, nil
			}
			return nil, fmt.Errorf("%w: transaction changed concurrently", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to complete transaction: %w", err)
	}

	logger.Info("Transaction completed", slog.String("transaction_id", transactionID))
	return s.txnRepo.FindTransactionByID(ctx, transactionID)
}

// RefundTransaction refunds part or all of a refundable transaction, recording
// the refund as a new expense transaction.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) RefundTransaction(ctx context.Context, transactionID string, amount *decimal.Decimal, reason *string, actorID string, at time.Time) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}

	if !txn.IsRefundable() {
		return nil, fmt.Errorf("%w: status is %s", ErrNotRefundable, txn.Status)
	}
	if txn.HasActiveHold() {
		// Held funds must be released or the hold cancelled before money can
		// flow back to the payer.
		return nil, fmt.Errorf("%w: release or cancel the hold first", ErrRefundBlockedByHold)
	}

	refundable := txn.RefundableAmount()
	refundAmount := refundable
	if amount != nil {
		refundAmount = *amount
	}
	if refundAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: refund amount must be positive", apperrors.ErrValidation)
	}
	if refundAmount.GreaterThan(refundable) {
		return nil, fmt.Errorf("%w: requested %s, refundable %s", ErrRefundExceedsBalance, refundAmount.String(), refundable.String())
	}

	provider, ok := s.providers.Get(txn.Gateway)
	if !ok {
		return nil, fmt.Errorf("%w: no provider registered for gateway %q", apperrors.ErrConfiguration, txn.Gateway)
	}
	caps := provider.Capabilities()
	if !caps.SupportsRefunds {
		return nil, fmt.Errorf("%w: provider %q does not support refunds", apperrors.ErrUnsupported, txn.Gateway)
	}
	if refundAmount.LessThan(refundable) && !caps.SupportsPartialRefunds {
		return nil, fmt.Errorf("%w: provider %q does not support partial refunds", apperrors.ErrUnsupported, txn.Gateway)
	}

	if _, err := provider.Refund(ctx, gatewayRef(txn), &refundAmount); err != nil {
		logger.Error("Provider refund failed", slog.String("transaction_id", transactionID), slog.String("gateway", txn.Gateway), slog.String("error", err.Error()))
		return nil, err
	}

	refundTxn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		IdempotencyKey: uuid.NewString(),
		Direction:      domain.DirectionExpense,
		Category:       txn.Category,
		Status:         domain.TransactionStatusCompleted,
		Amount:         refundAmount,
		Currency:       txn.Currency,
		Gateway:        txn.Gateway,
		Commission:     fees.ReverseCommission(txn.Commission, txn.Amount, refundAmount),
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
	}

	// The original's amount is never touched; only the refunded bookkeeping
	// and status move.
	txn.RefundedAmount = txn.RefundedAmount.Add(refundAmount)
	txn.RefundedAt = &at
	if txn.RefundedAmount.Equal(txn.Amount) {
		txn.Status = domain.TransactionStatusRefunded
	} else {
		txn.Status = domain.TransactionStatusPartiallyRefunded
	}
	txn.LastUpdatedAt = at
	txn.LastUpdatedBy = actorID

	if err := s.txnRepo.SaveTransactionWithSatellites(ctx, *txn, []domain.Transaction{refundTxn}); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Concurrent refund detected", slog.String("transaction_id", transactionID))
			return nil, fmt.Errorf("%w: transaction was refunded concurrently, retry with fresh state", apperrors.ErrConflict)
		}
		logger.Error("Failed to persist refund", slog.String("transaction_id", transactionID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save refund: %w", err)
	}

	s.notifier.Emit(ctx, domain.TransactionRefundedEvent{
		TransactionID:       txn.TransactionID,
		RefundTransactionID: refundTxn.TransactionID,
		Amount:              refundAmount,
		Currency:            txn.Currency,
		FullyRefunded:       txn.Status == domain.TransactionStatusRefunded,
	})

	logger.Info("Transaction refunded",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("refund_transaction_id", refundTxn.TransactionID),
		slog.String("amount", refundAmount.String()),
		slog.Bool("fully_refunded", txn.Status == domain.TransactionStatusRefunded))
	return &refundTxn, nil
}

// GetTransactionByID retrieves a specific transaction.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find transaction by ID", slog.String("error", err.Error()), slog.String("transaction_id", transactionID))
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactions retrieves a paginated list of transactions.
// Implements portssvc.TransactionSvcFacade
func (s *transactionService) ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20 // Default limit
	}

	var status *domain.TransactionStatus
	if params.Status != nil {
		st := domain.TransactionStatus(*params.Status)
		status = &st
	}

	txns, nextToken, err := s.txnRepo.ListTransactions(ctx, limit, params.NextToken, params.Category, status)
	if err != nil {
		logger.Error("Failed to list transactions from repository", "error", err)
		return nil, fmt.Errorf("failed to retrieve transactions: %w", err)
	}

	resp := &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		NextToken:    nextToken,
	}

	logger.Info("Transactions listed successfully", "count", len(txns))
	return resp, nil
}

func strPtr(s string) *string {
	return &s
}
