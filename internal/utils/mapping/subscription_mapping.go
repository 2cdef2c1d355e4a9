package mapping

import (
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/models"
)

// ToModelSubscription converts a domain Subscription to a model Subscription
func ToModelSubscription(d domain.Subscription) models.Subscription {
	return models.Subscription{
		SubscriptionID:     d.SubscriptionID,
		PlanKey:            d.PlanKey,
		Amount:             d.Amount,
		Currency:           d.Currency,
		Category:           d.Category,
		Gateway:            d.Gateway,
		Status:             string(d.Status),
		Interval:           string(d.Interval),
		CurrentPeriodStart: d.CurrentPeriodStart,
		CurrentPeriodEnd:   d.CurrentPeriodEnd,
		PausedAt:           d.PausedAt,
		PauseReason:        d.PauseReason,
		CancelledAt:        d.CancelledAt,
		CancelAtPeriodEnd:  d.CancelAtPeriodEnd,
		RenewalCount:       d.RenewalCount,
		ReferenceID:        d.ReferenceID,
		ReferenceModel:     d.ReferenceModel,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainSubscription converts a model Subscription to a domain Subscription
func ToDomainSubscription(m models.Subscription) domain.Subscription {
	return domain.Subscription{
		SubscriptionID:     m.SubscriptionID,
		PlanKey:            m.PlanKey,
		Amount:             m.Amount,
		Currency:           m.Currency,
		Category:           m.Category,
		Gateway:            m.Gateway,
		Status:             domain.SubscriptionStatus(m.Status),
		Interval:           domain.BillingInterval(m.Interval),
		CurrentPeriodStart: m.CurrentPeriodStart,
		CurrentPeriodEnd:   m.CurrentPeriodEnd,
		PausedAt:           m.PausedAt,
		PauseReason:        m.PauseReason,
		CancelledAt:        m.CancelledAt,
		CancelAtPeriodEnd:  m.CancelAtPeriodEnd,
		RenewalCount:       m.RenewalCount,
		ReferenceID:        m.ReferenceID,
		ReferenceModel:     m.ReferenceModel,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainSubscriptionSlice converts a slice of model Subscriptions to domain Subscriptions
func ToDomainSubscriptionSlice(ms []models.Subscription) []domain.Subscription {
	ds := make([]domain.Subscription, 0, len(ms))
	for _, m := range ms {
		ds = append(ds, ToDomainSubscription(m))
	}
	return ds
}
