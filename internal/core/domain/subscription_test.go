package domain_test

import (
	"testing"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBillingInterval_PeriodEnd(t *testing.T) {
	start := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		interval domain.BillingInterval
		want     time.Time
	}{
		{
			name:     "monthly adds one month",
			interval: domain.IntervalMonthly,
			want:     time.Date(2024, 2, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "quarterly adds three months",
			interval: domain.IntervalQuarterly,
			want:     time.Date(2024, 4, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "yearly adds one year",
			interval: domain.IntervalYearly,
			want:     time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "unknown interval falls back to thirty days",
			interval: domain.BillingInterval("weekly"),
			want:     time.Date(2024, 2, 14, 10, 30, 0, 0, time.UTC),
		},
		{
			name:     "empty interval falls back to thirty days",
			interval: domain.BillingInterval(""),
			want:     time.Date(2024, 2, 14, 10, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.interval.PeriodEnd(start))
		})
	}
}

func TestSubscription_IsFree(t *testing.T) {
	free := domain.Subscription{Amount: decimal.Zero}
	paid := domain.Subscription{Amount: decimal.NewFromFloat(9.99)}

	assert.True(t, free.IsFree())
	assert.False(t, paid.IsFree())
}
