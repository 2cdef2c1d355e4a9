package repositories

import (
	"context"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// SubscriptionReader defines read operations for subscription data
type SubscriptionReader interface {
	// FindSubscriptionByID retrieves a specific subscription by its unique identifier.
	FindSubscriptionByID(ctx context.Context, subscriptionID string) (*domain.Subscription, error)

	// ListSubscriptions retrieves a paginated list of subscriptions using token-based
	// pagination, optionally filtered by status.
	ListSubscriptions(ctx context.Context, limit int, nextToken *string, status *domain.SubscriptionStatus) ([]domain.Subscription, *string, error)
}

// SubscriptionWriter defines write operations for subscription data
type SubscriptionWriter interface {
	// CreateSubscription persists a new subscription.
	CreateSubscription(ctx context.Context, sub domain.Subscription) error

	// SaveSubscription persists the full mutable state of an existing subscription.
	// The write is guarded on sub.Version; a concurrent update surfaces
	// apperrors.ErrConflict and nothing is written.
	SaveSubscription(ctx context.Context, sub domain.Subscription) error
}

// SubscriptionRepositoryFacade combines all subscription-related repository interfaces
type SubscriptionRepositoryFacade interface {
	SubscriptionReader
	SubscriptionWriter
}

// SubscriptionRepositoryWithTx extends SubscriptionRepositoryFacade with transaction capabilities
type SubscriptionRepositoryWithTx interface {
	SubscriptionRepositoryFacade
	TransactionManager
}
