package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is the persisted form of a recurring billing agreement.
// The billing interval column avoids the reserved word "interval".
type Subscription struct {
	SubscriptionID     string          `db:"subscription_id"`
	PlanKey            string          `db:"plan_key"`
	Amount             decimal.Decimal `db:"amount"`
	Currency           string          `db:"currency"`
	Category           string          `db:"category"`
	Gateway            string          `db:"gateway"`
	Status             string          `db:"status"`
	Interval           string          `db:"billing_interval"`
	CurrentPeriodStart *time.Time      `db:"current_period_start"`
	CurrentPeriodEnd   *time.Time      `db:"current_period_end"`
	PausedAt           *time.Time      `db:"paused_at"`
	PauseReason        *string         `db:"pause_reason"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
	CancelAtPeriodEnd  bool            `db:"cancel_at_period_end"`
	RenewalCount       int             `db:"renewal_count"`
	ReferenceID        *string         `db:"reference_id"`
	ReferenceModel     *string         `db:"reference_model"`
	AuditFields
}
