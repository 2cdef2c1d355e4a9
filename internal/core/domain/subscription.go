package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// BillingInterval determines how the current period end is derived from its start.
type BillingInterval string

const (
	IntervalMonthly   BillingInterval = "monthly"
	IntervalQuarterly BillingInterval = "quarterly"
	IntervalYearly    BillingInterval = "yearly"
)

// PeriodEnd returns the end of a billing period anchored at start.
// Unrecognised intervals fall back to 30 days.
func (i BillingInterval) PeriodEnd(start time.Time) time.Time {
	switch i {
	case IntervalMonthly:
		return start.AddDate(0, 1, 0)
	case IntervalQuarterly:
		return start.AddDate(0, 3, 0)
	case IntervalYearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 30)
	}
}

// Subscription is a recurring billing agreement. It owns no money directly;
// money flows through Transactions that reference it.
type Subscription struct {
	SubscriptionID     string             `json:"subscriptionID"` // Primary Key (UUID)
	PlanKey            string             `json:"planKey"`        // Caller-defined plan identifier
	Amount             decimal.Decimal    `json:"amount"`         // Per-period charge; zero means free
	Currency           string             `json:"currency"`
	Category           string             `json:"category"` // Canonical category stamped on its transactions
	Gateway            string             `json:"gateway"`  // Payment provider used for charges
	Status             SubscriptionStatus `json:"status"`
	Interval           BillingInterval    `json:"interval"`
	CurrentPeriodStart *time.Time         `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"currentPeriodEnd,omitempty"`
	PausedAt           *time.Time         `json:"pausedAt,omitempty"`
	PauseReason        *string            `json:"pauseReason,omitempty"`
	CancelledAt        *time.Time         `json:"cancelledAt,omitempty"`
	CancelAtPeriodEnd  bool               `json:"cancelAtPeriodEnd"`
	RenewalCount       int                `json:"renewalCount"`
	ReferenceID        *string            `json:"referenceID,omitempty"`    // Opaque owner link
	ReferenceModel     *string            `json:"referenceModel,omitempty"` // e.g. "customer", "order"
	AuditFields
}

// IsFree reports whether the subscription charges nothing per period.
func (s *Subscription) IsFree() bool {
	return s.Amount.IsZero()
}
