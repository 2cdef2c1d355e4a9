package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsprov "github.com/SscSPs/payment_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/payment_ledger_app/internal/utils"
)

// ManualProviderName is the registry name of the offline provider.
const ManualProviderName = "manual"

const manualIntentPrefix = "man_"

// ManualProvider settles payments outside any gateway: it records intents in
// the database and an operator confirms them once money arrives out of band.
// The intent ID doubles as the payment reference quoted by the payer.
type ManualProvider struct {
	records      portsrepo.PaymentRecordRepository
	instructions string
}

// NewManualProvider creates the offline payment provider. instructions is the
// static payment text (bank details etc.); empty generates a reference line
// per intent.
func NewManualProvider(records portsrepo.PaymentRecordRepository, instructions string) *ManualProvider {
	return &ManualProvider{
		records:      records,
		instructions: instructions,
	}
}

var _ portsprov.PaymentProvider = (*ManualProvider)(nil)

// Name implements portsprov.PaymentProvider
func (p *ManualProvider) Name() string {
	return ManualProviderName
}

// Capabilities implements portsprov.PaymentProvider
func (p *ManualProvider) Capabilities() domain.ProviderCapabilities {
	return domain.ProviderCapabilities{
		SupportsWebhooks:           false,
		SupportsRefunds:            true,
		SupportsPartialRefunds:     true,
		RequiresManualVerification: true,
	}
}

// CreateIntent opens a pending offline intent. The returned handle carries the
// intent ID as the payment-intent reference so later verification and refunds
// can address it.
func (p *ManualProvider) CreateIntent(ctx context.Context, params domain.CreateIntentParams) (*domain.PaymentIntent, error) {
	intentID := manualIntentPrefix + uuid.NewString()
	now := time.Now()

	instructions := p.instructions
	if instructions == "" {
		instructions = fmt.Sprintf("Transfer %s %s quoting reference %s", utils.FormatAmount(params.Amount), params.Currency, intentID)
	}

	rec := domain.PaymentRecord{
		IntentID:       intentID,
		Gateway:        ManualProviderName,
		Amount:         params.Amount,
		Currency:       params.Currency,
		Status:         domain.PaymentStatusPending,
		Instructions:   &instructions,
		RefundedAmount: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := p.records.CreatePaymentRecord(ctx, rec); err != nil {
		return nil, apperrors.NewProviderError(ManualProviderName, "storage_error", "failed to record payment intent", true, err)
	}

	return &domain.PaymentIntent{
		IntentID:        intentID,
		PaymentIntentID: &intentID,
		Status:          domain.PaymentStatusPending,
		Instructions:    &instructions,
	}, nil
}

// VerifyPayment reports the current state of an offline intent. The state is
// authoritative here because this provider is its own ledger.
func (p *ManualProvider) VerifyPayment(ctx context.Context, intentID string) (*domain.PaymentResult, error) {
	rec, err := p.findRecord(ctx, intentID)
	if err != nil {
		return nil, err
	}
	return &domain.PaymentResult{
		Status:   rec.Status,
		Amount:   rec.Amount,
		Currency: rec.Currency,
		PaidAt:   rec.PaidAt,
	}, nil
}

// GetStatus implements portsprov.PaymentProvider. Reads have no side effects
// for offline intents, so this is VerifyPayment under another name.
func (p *ManualProvider) GetStatus(ctx context.Context, intentID string) (*domain.PaymentResult, error) {
	return p.VerifyPayment(ctx, intentID)
}

// Refund returns funds for a confirmed intent. A nil amount refunds whatever
// has not been refunded yet.
func (p *ManualProvider) Refund(ctx context.Context, paymentID string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	rec, err := p.findRecord(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.PaymentStatusSucceeded && rec.Status != domain.PaymentStatusRefunded {
		return nil, apperrors.NewProviderError(ManualProviderName, "not_refundable", fmt.Sprintf("intent %s is %s, only confirmed payments can be refunded", paymentID, rec.Status), false, nil)
	}

	remaining := rec.Amount.Sub(rec.RefundedAmount)
	refundAmount := remaining
	if amount != nil {
		refundAmount = *amount
	}
	if refundAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.NewProviderError(ManualProviderName, "invalid_amount", "refund amount must be positive", false, nil)
	}
	if refundAmount.GreaterThan(remaining) {
		return nil, apperrors.NewProviderError(ManualProviderName, "refund_exceeds_paid", fmt.Sprintf("requested %s, remaining %s", refundAmount.String(), remaining.String()), false, nil)
	}

	now := time.Now()
	rec.RefundedAmount = rec.RefundedAmount.Add(refundAmount)
	if rec.RefundedAmount.Equal(rec.Amount) {
		rec.Status = domain.PaymentStatusRefunded
	}
	rec.UpdatedAt = now

	if err := p.records.SavePaymentRecord(ctx, *rec); err != nil {
		return nil, apperrors.NewProviderError(ManualProviderName, "storage_error", "failed to record refund", true, err)
	}

	return &domain.RefundResult{
		Status:     domain.PaymentStatusRefunded,
		Amount:     refundAmount,
		RefundedAt: &now,
	}, nil
}

// HandleWebhook implements portsprov.PaymentProvider. Offline payments have no
// asynchronous gateway notifications.
func (p *ManualProvider) HandleWebhook(ctx context.Context, payload []byte, headers map[string]string) (*domain.WebhookEvent, error) {
	return nil, fmt.Errorf("%w: manual provider does not deliver webhooks", apperrors.ErrUnsupported)
}

// MarkPaid is the operator confirmation path: it transitions a pending intent
// to succeeded and stamps the payment time. Confirming an already-confirmed
// intent is a no-op so double submissions are harmless.
func (p *ManualProvider) MarkPaid(ctx context.Context, intentID string, at time.Time) (*domain.PaymentRecord, error) {
	rec, err := p.findRecord(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.PaymentStatusSucceeded {
		return rec, nil
	}
	if rec.Status != domain.PaymentStatusPending && rec.Status != domain.PaymentStatusProcessing {
		return nil, fmt.Errorf("%w: intent %s is %s and cannot be confirmed", apperrors.ErrConflict, intentID, rec.Status)
	}

	rec.Status = domain.PaymentStatusSucceeded
	rec.PaidAt = &at
	rec.UpdatedAt = time.Now()

	if err := p.records.SavePaymentRecord(ctx, *rec); err != nil {
		return nil, fmt.Errorf("failed to confirm payment intent %s: %w", intentID, err)
	}
	return rec, nil
}

func (p *ManualProvider) findRecord(ctx context.Context, intentID string) (*domain.PaymentRecord, error) {
	rec, err := p.records.FindPaymentRecordByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewProviderError(ManualProviderName, "intent_not_found", fmt.Sprintf("payment intent %s not found", intentID), false, err)
		}
		return nil, apperrors.NewProviderError(ManualProviderName, "storage_error", "failed to load payment intent", true, err)
	}
	return rec, nil
}
