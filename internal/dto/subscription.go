package dto

import (
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateSubscriptionRequest defines the payload for creating a subscription.
// Amount zero creates a free subscription with no ledger transaction.
type CreateSubscriptionRequest struct {
	PlanKey        string          `json:"planKey" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" binding:"required,currency"`
	Interval       string          `json:"interval" binding:"required"`
	Category       string          `json:"category,omitempty"` // Defaults to "subscription"
	Gateway        string          `json:"gateway" binding:"required"`
	IdempotencyKey *string         `json:"idempotencyKey,omitempty"`
	ReferenceID    *string         `json:"referenceID,omitempty"`
	ReferenceModel *string         `json:"referenceModel,omitempty"`
}

// ActivateSubscriptionRequest carries the explicit activation instant.
// A nil At is resolved to the request time by the handler.
type ActivateSubscriptionRequest struct {
	At *time.Time `json:"at,omitempty"`
}

// RenewSubscriptionRequest carries the explicit renewal instant.
type RenewSubscriptionRequest struct {
	At             *time.Time `json:"at,omitempty"`
	IdempotencyKey *string    `json:"idempotencyKey,omitempty"`
}

// PauseSubscriptionRequest defines the payload for pausing a subscription.
type PauseSubscriptionRequest struct {
	Reason string     `json:"reason" binding:"required"`
	At     *time.Time `json:"at,omitempty"`
}

// ResumeSubscriptionRequest defines the payload for resuming a paused subscription.
// ExtendPeriod shifts the current period end by the elapsed pause duration.
type ResumeSubscriptionRequest struct {
	At           *time.Time `json:"at,omitempty"`
	ExtendPeriod bool       `json:"extendPeriod"`
}

// CancelSubscriptionRequest defines the payload for cancelling a subscription.
// Immediate cancels now; otherwise cancellation is flagged for period end.
type CancelSubscriptionRequest struct {
	Immediate bool       `json:"immediate"`
	At        *time.Time `json:"at,omitempty"`
}

// ListSubscriptionsParams defines query parameters for listing subscriptions.
type ListSubscriptionsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
	Status    *string `form:"status"`
}

// SubscriptionResponse defines the data returned for a subscription.
type SubscriptionResponse struct {
	SubscriptionID     string          `json:"subscriptionID"`
	PlanKey            string          `json:"planKey"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Category           string          `json:"category"`
	Gateway            string          `json:"gateway"`
	Status             string          `json:"status"`
	Interval           string          `json:"interval"`
	CurrentPeriodStart *time.Time      `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time      `json:"currentPeriodEnd,omitempty"`
	PausedAt           *time.Time      `json:"pausedAt,omitempty"`
	PauseReason        *string         `json:"pauseReason,omitempty"`
	CancelledAt        *time.Time      `json:"cancelledAt,omitempty"`
	CancelAtPeriodEnd  bool            `json:"cancelAtPeriodEnd"`
	RenewalCount       int             `json:"renewalCount"`
	ReferenceID        *string         `json:"referenceID,omitempty"`
	ReferenceModel     *string         `json:"referenceModel,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// CreateSubscriptionResponse combines the subscription with the initial charge
// and its provider intent. Transaction and Payment are null for free plans.
type CreateSubscriptionResponse struct {
	Subscription SubscriptionResponse   `json:"subscription"`
	Transaction  *TransactionResponse   `json:"transaction"`
	Payment      *PaymentIntentResponse `json:"payment"`
}

// RenewSubscriptionResponse combines the updated subscription with the renewal
// charge and its provider intent.
type RenewSubscriptionResponse struct {
	Subscription SubscriptionResponse   `json:"subscription"`
	Transaction  *TransactionResponse   `json:"transaction"`
	Payment      *PaymentIntentResponse `json:"payment"`
}

// ListSubscriptionsResponse defines a page of subscriptions.
type ListSubscriptionsResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	NextToken     *string                `json:"nextToken,omitempty"`
}

// ToSubscriptionResponse converts a domain.Subscription to SubscriptionResponse DTO.
func ToSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		SubscriptionID:     s.SubscriptionID,
		PlanKey:            s.PlanKey,
		Amount:             s.Amount,
		Currency:           s.Currency,
		Category:           s.Category,
		Gateway:            s.Gateway,
		Status:             string(s.Status),
		Interval:           string(s.Interval),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		PausedAt:           s.PausedAt,
		PauseReason:        s.PauseReason,
		CancelledAt:        s.CancelledAt,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		RenewalCount:       s.RenewalCount,
		ReferenceID:        s.ReferenceID,
		ReferenceModel:     s.ReferenceModel,
		CreatedAt:          s.CreatedAt,
	}
}

// ToSubscriptionResponses converts a slice of domain.Subscription to []SubscriptionResponse.
func ToSubscriptionResponses(subs []domain.Subscription) []SubscriptionResponse {
	responses := make([]SubscriptionResponse, len(subs))
	for i := range subs {
		responses[i] = ToSubscriptionResponse(&subs[i])
	}
	return responses
}
