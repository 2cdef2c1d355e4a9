package providers

import (
	"context"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentProvider is the capability contract every payment gateway integration
// implements. Gateway failures are reported as *apperrors.ProviderError so
// callers can distinguish retryable transport trouble from hard rejections.
type PaymentProvider interface {
	// Name returns the provider's registry name (e.g. "manual").
	Name() string

	// CreateIntent opens a payment with the gateway and returns its handle.
	CreateIntent(ctx context.Context, params domain.CreateIntentParams) (*domain.PaymentIntent, error)

	// VerifyPayment asks the gateway for the authoritative result of an intent.
	VerifyPayment(ctx context.Context, intentID string) (*domain.PaymentResult, error)

	// GetStatus is a read-only status query without verification side effects.
	GetStatus(ctx context.Context, intentID string) (*domain.PaymentResult, error)

	// Refund returns funds for a payment. A nil amount means a full refund.
	Refund(ctx context.Context, paymentID string, amount *decimal.Decimal) (*domain.RefundResult, error)

	// HandleWebhook parses and validates an inbound gateway notification.
	// Transport-level signature verification happens before this call.
	HandleWebhook(ctx context.Context, payload []byte, headers map[string]string) (*domain.WebhookEvent, error)

	// Capabilities declares what this provider supports.
	Capabilities() domain.ProviderCapabilities
}

// Registry maps provider names to implementations. It is built once during
// startup and injected; nothing mutates it at runtime.
type Registry map[string]PaymentProvider

// Get looks up a provider by name.
func (r Registry) Get(name string) (PaymentProvider, bool) {
	p, ok := r[name]
	return p, ok
}
