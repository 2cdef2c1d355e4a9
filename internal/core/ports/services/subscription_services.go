package services

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
)

// SubscriptionReaderSvc defines read operations for subscriptions
type SubscriptionReaderSvc interface {
	// GetSubscriptionByID retrieves a specific subscription by its ID.
	GetSubscriptionByID(ctx context.Context, subscriptionID string) (*domain.Subscription, error)

	// ListSubscriptions retrieves a paginated list of subscriptions.
	ListSubscriptions(ctx context.Context, params dto.ListSubscriptionsParams) (*dto.ListSubscriptionsResponse, error)
}

// SubscriptionWriterSvc defines the mutating operations of the subscription state machine
type SubscriptionWriterSvc interface {
	// CreateSubscription creates a pending subscription and, for paid plans,
	// the transaction that must be verified before activation. Free plans
	// activate immediately and return (sub, nil, nil, nil).
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest, creatorID string, at time.Time) (*domain.Subscription, *domain.Transaction, *domain.PaymentIntent, error)

	// ActivateSubscription starts the first billing period at the given instant.
	ActivateSubscription(ctx context.Context, subscriptionID string, actorID string, at time.Time) (*domain.Subscription, error)

	// RenewSubscription opens a payment for the next period of an active
	// subscription. The period only advances once that payment verifies.
	RenewSubscription(ctx context.Context, subscriptionID string, req dto.RenewSubscriptionRequest, actorID string, at time.Time) (*domain.Subscription, *domain.Transaction, *domain.PaymentIntent, error)

	// PauseSubscription suspends an active subscription, recording the reason.
	PauseSubscription(ctx context.Context, subscriptionID string, reason string, actorID string, at time.Time) (*domain.Subscription, error)

	// ResumeSubscription reactivates a paused subscription. With extendPeriod
	// the current period end is pushed out by the time spent paused.
	ResumeSubscription(ctx context.Context, subscriptionID string, extendPeriod bool, actorID string, at time.Time) (*domain.Subscription, error)

	// CancelSubscription cancels immediately or at the end of the current
	// period, depending on the immediate flag.
	CancelSubscription(ctx context.Context, subscriptionID string, immediate bool, actorID string, at time.Time) (*domain.Subscription, error)

	// ExpireSubscription moves an active subscription whose billing period has
	// elapsed to expired. Period elapse is detected by the caller's scheduler,
	// never polled for here.
	ExpireSubscription(ctx context.Context, subscriptionID string, actorID string, at time.Time) (*domain.Subscription, error)
}

// SubscriptionSvcFacade combines all subscription-related service interfaces
// This is a facade for clients that need access to all operations
type SubscriptionSvcFacade interface {
	SubscriptionReaderSvc
	SubscriptionWriterSvc
}
