package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
)

const defaultSubscriptionCategory = "subscription"

var (
	ErrSubscriptionNotActive = errors.New("subscription is not active")
	ErrSubscriptionNotPaused = errors.New("subscription is not paused")
	ErrFreePlanNotRenewable  = errors.New("free subscriptions cannot be renewed")
	ErrPeriodNotElapsed      = errors.New("current billing period has not elapsed")
)

// subscriptionService drives the subscription state machine. Charges go
// through the transaction service so renewals share the commission, provider
// and idempotency behaviour of any other charge.
type subscriptionService struct {
	BaseService
	cfg      *config.Config
	subRepo  portsrepo.SubscriptionRepositoryWithTx
	txnSvc   portssvc.TransactionSvcFacade
	notifier portsnotif.Notifier
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(cfg *config.Config, subRepo portsrepo.SubscriptionRepositoryWithTx, txnSvc portssvc.TransactionSvcFacade, notifier portsnotif.Notifier) portssvc.SubscriptionSvcFacade {
	return &subscriptionService{
		cfg:      cfg,
		subRepo:  subRepo,
		txnSvc:   txnSvc,
		notifier: notifier,
	}
}

// Ensure subscriptionService implements the portssvc.SubscriptionSvcFacade interface
var _ portssvc.SubscriptionSvcFacade = (*subscriptionService)(nil)

// CreateSubscription creates a subscription and, for paid plans, its initial
// charge. Free plans skip the charge and activate on the spot.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest, creatorID string, at time.Time) (*domain.Subscription, *domain.Transaction, *domain.PaymentIntent, error) {
	if req.Amount.IsNegative() {
		return nil, nil, nil, fmt.Errorf("%w: amount cannot be negative", apperrors.ErrValidation)
	}

	category := req.Category
	if category == "" {
		category = defaultSubscriptionCategory
	}

	sub := domain.Subscription{
		SubscriptionID: uuid.NewString(),
		PlanKey:        req.PlanKey,
		Amount:         req.Amount,
		Currency:       strings.ToUpper(req.Currency),
		Category:       s.cfg.ResolveCategory(category),
		Gateway:        req.Gateway,
		Status:         domain.SubscriptionStatusPending,
		Interval:       domain.BillingInterval(req.Interval),
		ReferenceID:    req.ReferenceID,
		ReferenceModel: req.ReferenceModel,
		AuditFields: domain.AuditFields{
			CreatedAt:     at,
			CreatedBy:     creatorID,
			LastUpdatedAt: at,
			LastUpdatedBy: creatorID,
			Version:       1,
		},
	}

	if sub.IsFree() {
		start := at
		end := sub.Interval.PeriodEnd(at)
		sub.Status = domain.SubscriptionStatusActive
		sub.CurrentPeriodStart = &start
		sub.CurrentPeriodEnd = &end

		if err := s.subRepo.CreateSubscription(ctx, sub); err != nil {
			s.LogError(ctx, err, "Failed to create free subscription", "plan_key", req.PlanKey)
			return nil, nil, nil, fmt.Errorf("failed to create subscription: %w", err)
		}

		s.notifier.Emit(ctx, domain.SubscriptionCreatedEvent{
			SubscriptionID: sub.SubscriptionID,
			PlanKey:        sub.PlanKey,
			Amount:         sub.Amount,
			Currency:       sub.Currency,
		})
		s.notifier.Emit(ctx, domain.SubscriptionActivatedEvent{
			SubscriptionID: sub.SubscriptionID,
			PeriodStart:    start,
			PeriodEnd:      end,
		})

		s.LogInfo(ctx, "Free subscription created and activated", "subscription_id", sub.SubscriptionID, "plan_key", sub.PlanKey)
		return &sub, nil, nil, nil
	}

	// The charge is created first so a provider rejection leaves nothing
	// behind. A failed subscription insert afterwards orphans the charge,
	// which the dangling reference makes findable.
	txn, intent, err := s.txnSvc.CreateTransaction(ctx, dto.CreateTransactionRequest{
		Category:       sub.Category,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Gateway:        sub.Gateway,
		IdempotencyKey: req.IdempotencyKey,
		Description:    fmt.Sprintf("Initial charge for plan %s", sub.PlanKey),
		ReferenceID:    &sub.SubscriptionID,
		ReferenceModel: strPtr("subscription"),
		Metadata:       map[string]string{"subscriptionID": sub.SubscriptionID},
	}, creatorID, at)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create initial charge: %w", err)
	}

	if err := s.subRepo.CreateSubscription(ctx, sub); err != nil {
		s.LogError(ctx, err, "Failed to create subscription after its initial charge", "plan_key", req.PlanKey, "transaction_id", txn.TransactionID)
		return nil, nil, nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionCreatedEvent{
		SubscriptionID: sub.SubscriptionID,
		PlanKey:        sub.PlanKey,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		TransactionID:  &txn.TransactionID,
	})

	s.LogInfo(ctx, "Subscription created", "subscription_id", sub.SubscriptionID, "plan_key", sub.PlanKey, "transaction_id", txn.TransactionID)
	return &sub, txn, intent, nil
}

// ActivateSubscription starts the first billing period. Activating an already
// active subscription is a no-op.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) ActivateSubscription(ctx context.Context, subscriptionID string, actorID string, at time.Time) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.Status == domain.SubscriptionStatusActive {
		s.LogDebug(ctx, "Subscription is already active", "subscription_id", subscriptionID)
		return sub, nil
	}
	if sub.Status != domain.SubscriptionStatusPending {
		return nil, fmt.Errorf("%w: cannot activate a %s subscription", apperrors.ErrConflict, sub.Status)
	}

	start := at
	end := sub.Interval.PeriodEnd(at)
	sub.Status = domain.SubscriptionStatusActive
	sub.CurrentPeriodStart = &start
	sub.CurrentPeriodEnd = &end
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogError(ctx, err, "Failed to activate subscription", "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to activate subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionActivatedEvent{
		SubscriptionID: sub.SubscriptionID,
		PeriodStart:    start,
		PeriodEnd:      end,
	})

	s.LogInfo(ctx, "Subscription activated", "subscription_id", subscriptionID, "period_end", end)
	return sub, nil
}

// RenewSubscription opens the charge for the next period. The billing period
// itself only advances once the caller verifies that charge and activates the
// new period; a failed payment must not silently extend service.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) RenewSubscription(ctx context.Context, subscriptionID string, req dto.RenewSubscriptionRequest, actorID string, at time.Time) (*domain.Subscription, *domain.Transaction, *domain.PaymentIntent, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.IsFree() {
		return nil, nil, nil, fmt.Errorf("%w: plan %s has no charge", ErrFreePlanNotRenewable, sub.PlanKey)
	}
	if sub.Status != domain.SubscriptionStatusActive {
		return nil, nil, nil, fmt.Errorf("%w: status is %s", ErrSubscriptionNotActive, sub.Status)
	}

	txn, intent, err := s.txnSvc.CreateTransaction(ctx, dto.CreateTransactionRequest{
		Category:       sub.Category,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Gateway:        sub.Gateway,
		IdempotencyKey: req.IdempotencyKey,
		Description:    fmt.Sprintf("Renewal %d for plan %s", sub.RenewalCount+1, sub.PlanKey),
		ReferenceID:    &sub.SubscriptionID,
		ReferenceModel: strPtr("subscription"),
		Metadata:       map[string]string{"subscriptionID": sub.SubscriptionID},
	}, actorID, at)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create renewal charge: %w", err)
	}

	sub.RenewalCount++
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogWarn(ctx, "Failed to save subscription after renewal charge", "subscription_id", subscriptionID, "transaction_id", txn.TransactionID, "error", err)
		return nil, nil, nil, fmt.Errorf("failed to save subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionRenewedEvent{
		SubscriptionID: sub.SubscriptionID,
		TransactionID:  txn.TransactionID,
		Amount:         sub.Amount,
		RenewalCount:   sub.RenewalCount,
	})

	s.LogInfo(ctx, "Renewal charge created", "subscription_id", subscriptionID, "transaction_id", txn.TransactionID, "renewal_count", sub.RenewalCount)
	return sub, txn, intent, nil
}

// PauseSubscription suspends an active subscription.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) PauseSubscription(ctx context.Context, subscriptionID string, reason string, actorID string, at time.Time) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.Status != domain.SubscriptionStatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrSubscriptionNotActive, sub.Status)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: pause reason is required", apperrors.ErrValidation)
	}

	sub.Status = domain.SubscriptionStatusPaused
	sub.PausedAt = &at
	sub.PauseReason = &reason
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogError(ctx, err, "Failed to pause subscription", "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to pause subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionPausedEvent{
		SubscriptionID: sub.SubscriptionID,
		Reason:         reason,
		PausedAt:       at,
	})

	s.LogInfo(ctx, "Subscription paused", "subscription_id", subscriptionID, "reason", reason)
	return sub, nil
}

// ResumeSubscription reactivates a paused subscription. With extendPeriod the
// current period end moves out by the time spent paused, so the subscriber
// keeps the days they paid for.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) ResumeSubscription(ctx context.Context, subscriptionID string, extendPeriod bool, actorID string, at time.Time) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.Status != domain.SubscriptionStatusPaused || sub.PausedAt == nil {
		return nil, fmt.Errorf("%w: status is %s", ErrSubscriptionNotPaused, sub.Status)
	}

	if extendPeriod && sub.CurrentPeriodEnd != nil {
		extended := sub.CurrentPeriodEnd.Add(at.Sub(*sub.PausedAt))
		sub.CurrentPeriodEnd = &extended
	}
	sub.Status = domain.SubscriptionStatusActive
	sub.PausedAt = nil
	sub.PauseReason = nil
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogError(ctx, err, "Failed to resume subscription", "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to resume subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionResumedEvent{
		SubscriptionID: sub.SubscriptionID,
		ResumedAt:      at,
		PeriodEnd:      sub.CurrentPeriodEnd,
	})

	s.LogInfo(ctx, "Subscription resumed", "subscription_id", subscriptionID, "extend_period", extendPeriod)
	return sub, nil
}

// CancelSubscription cancels now or flags cancellation for the period end.
// Cancelling an already cancelled subscription is a no-op.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) CancelSubscription(ctx context.Context, subscriptionID string, immediate bool, actorID string, at time.Time) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.Status == domain.SubscriptionStatusCancelled {
		s.LogDebug(ctx, "Subscription is already cancelled", "subscription_id", subscriptionID)
		return sub, nil
	}
	if sub.Status == domain.SubscriptionStatusExpired {
		return nil, fmt.Errorf("%w: cannot cancel an expired subscription", apperrors.ErrConflict)
	}

	if immediate {
		sub.Status = domain.SubscriptionStatusCancelled
		sub.CancelledAt = &at
		sub.CancelAtPeriodEnd = false
	} else {
		sub.CancelAtPeriodEnd = true
	}
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogError(ctx, err, "Failed to cancel subscription", "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionCancelledEvent{
		SubscriptionID:    sub.SubscriptionID,
		Immediate:         immediate,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	})

	s.LogInfo(ctx, "Subscription cancelled", "subscription_id", subscriptionID, "immediate", immediate)
	return sub, nil
}

// ExpireSubscription moves an active subscription whose period has elapsed to
// expired. The caller's scheduler decides when to invoke this.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) ExpireSubscription(ctx context.Context, subscriptionID string, actorID string, at time.Time) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}

	if sub.Status != domain.SubscriptionStatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrSubscriptionNotActive, sub.Status)
	}
	if sub.CurrentPeriodEnd == nil || at.Before(*sub.CurrentPeriodEnd) {
		return nil, fmt.Errorf("%w: period ends at %v", ErrPeriodNotElapsed, sub.CurrentPeriodEnd)
	}

	periodEnd := *sub.CurrentPeriodEnd
	sub.Status = domain.SubscriptionStatusExpired
	sub.LastUpdatedAt = at
	sub.LastUpdatedBy = actorID

	if err := s.subRepo.SaveSubscription(ctx, *sub); err != nil {
		s.LogError(ctx, err, "Failed to expire subscription", "subscription_id", subscriptionID)
		return nil, fmt.Errorf("failed to expire subscription: %w", err)
	}

	s.notifier.Emit(ctx, domain.SubscriptionExpiredEvent{
		SubscriptionID: sub.SubscriptionID,
		PeriodEnd:      periodEnd,
	})

	s.LogInfo(ctx, "Subscription expired", "subscription_id", subscriptionID, "period_end", periodEnd)
	return sub, nil
}

// GetSubscriptionByID retrieves a subscription by its ID.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) GetSubscriptionByID(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	sub, err := s.subRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

// ListSubscriptions retrieves a paginated list of subscriptions.
// Implements portssvc.SubscriptionSvcFacade
func (s *subscriptionService) ListSubscriptions(ctx context.Context, params dto.ListSubscriptionsParams) (*dto.ListSubscriptionsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	var status *domain.SubscriptionStatus
	if params.Status != nil && *params.Status != "" {
		st := domain.SubscriptionStatus(*params.Status)
		status = &st
	}

	subs, nextToken, err := s.subRepo.ListSubscriptions(ctx, limit, params.NextToken, status)
	if err != nil {
		s.LogError(ctx, err, "Failed to list subscriptions")
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return &dto.ListSubscriptionsResponse{
		Subscriptions: dto.ToSubscriptionResponses(subs),
		NextToken:     nextToken,
	}, nil
}
