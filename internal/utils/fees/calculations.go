package fees

import (
	"fmt"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// round2 rounds a monetary value to two fractional digits, half away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeCommission converts an amount plus rate table entries into the platform's
// commission breakdown. Returns nil when the commission rate is zero, meaning no
// commission field is attached to the transaction at all.
//
// netAmount is clamped at zero so a high gateway fee never produces a negative
// commission.
func ComputeCommission(amount, rate, gatewayFeeRate decimal.Decimal) (*domain.Commission, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount)
	}
	if rate.IsNegative() || rate.GreaterThan(one) {
		return nil, fmt.Errorf("%w: commission rate must be between 0 and 1, got %s", apperrors.ErrValidation, rate)
	}
	if gatewayFeeRate.IsNegative() || gatewayFeeRate.GreaterThan(one) {
		return nil, fmt.Errorf("%w: gateway fee rate must be between 0 and 1, got %s", apperrors.ErrValidation, gatewayFeeRate)
	}
	if rate.IsZero() {
		return nil, nil
	}

	gross := round2(amount.Mul(rate))
	fee := round2(amount.Mul(gatewayFeeRate))
	net := round2(gross.Sub(fee))
	if net.IsNegative() {
		net = decimal.Zero
	}

	return &domain.Commission{
		Rate:             rate,
		GrossAmount:      gross,
		GatewayFeeRate:   gatewayFeeRate,
		GatewayFeeAmount: fee,
		NetAmount:        net,
		Status:           domain.CommissionStatusPending,
	}, nil
}

// ReverseCommission produces the commission breakdown for a refund of
// refundAmount out of originalAmount. Each monetary field of the original is
// scaled by the refund ratio and rounded independently; net is NOT recomputed
// from the scaled gross and fee. Downstream consumers depend on this exact
// rounding, so keep it.
//
// The reversed commission is always waived; it is never due again.
func ReverseCommission(original *domain.Commission, originalAmount, refundAmount decimal.Decimal) *domain.Commission {
	if original == nil {
		return nil
	}
	if originalAmount.IsZero() {
		return nil
	}
	ratio := refundAmount.Div(originalAmount)

	return &domain.Commission{
		Rate:             original.Rate,
		GrossAmount:      round2(original.GrossAmount.Mul(ratio)),
		GatewayFeeRate:   original.GatewayFeeRate,
		GatewayFeeAmount: round2(original.GatewayFeeAmount.Mul(ratio)),
		NetAmount:        round2(original.NetAmount.Mul(ratio)),
		Status:           domain.CommissionStatusWaived,
	}
}

// ComputeSplits distributes an amount across weighted recipients. Output order
// matches input order; callers rely on positional semantics for display.
func ComputeSplits(amount decimal.Decimal, rules []domain.SplitRule, gatewayFeeRate decimal.Decimal) ([]domain.SplitEntry, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount)
	}
	if gatewayFeeRate.IsNegative() || gatewayFeeRate.GreaterThan(one) {
		return nil, fmt.Errorf("%w: gateway fee rate must be between 0 and 1, got %s", apperrors.ErrValidation, gatewayFeeRate)
	}

	entries := make([]domain.SplitEntry, 0, len(rules))
	for _, rule := range rules {
		if rule.Rate.IsNegative() || rule.Rate.GreaterThan(one) {
			return nil, fmt.Errorf("%w: split rate for recipient %s must be between 0 and 1, got %s", apperrors.ErrValidation, rule.RecipientID, rule.Rate)
		}
		gross := round2(amount.Mul(rule.Rate))
		fee := round2(gross.Mul(gatewayFeeRate))
		net := gross.Sub(fee)
		if net.IsNegative() {
			net = decimal.Zero
		}
		entries = append(entries, domain.SplitEntry{
			Type:             rule.Type,
			RecipientID:      rule.RecipientID,
			RecipientType:    rule.RecipientType,
			Rate:             rule.Rate,
			GrossAmount:      gross,
			GatewayFeeAmount: fee,
			NetAmount:        net,
			Status:           domain.SplitStatusPending,
		})
	}
	return entries, nil
}

// ComputeOrganizationPayout returns the remainder the owning organization keeps
// after all splits. A negative remainder means the split rules are misconfigured
// and must be rejected before anything is persisted.
func ComputeOrganizationPayout(amount decimal.Decimal, splits []domain.SplitEntry) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.GrossAmount)
	}
	payout := amount.Sub(total)
	if payout.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: split gross total %s exceeds amount %s", apperrors.ErrValidation, total, amount)
	}
	return payout, nil
}
