package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is the persisted intent state for providers that settle
// outside any gateway, such as manual bank transfers.
type PaymentRecord struct {
	IntentID       string          `db:"intent_id"`
	Gateway        string          `db:"gateway"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	Status         string          `db:"status"`
	Instructions   *string         `db:"instructions"`
	PaidAt         *time.Time      `db:"paid_at"`
	RefundedAmount decimal.Decimal `db:"refunded_amount"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// TableName specifies the table name for this model.
func (PaymentRecord) TableName() string {
	return "payment_records"
}
