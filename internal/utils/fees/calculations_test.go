package fees

import (
	"testing"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeCommission(t *testing.T) {
	c, err := ComputeCommission(d("1000"), d("0.10"), d("0.018"))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "100.00", c.GrossAmount.StringFixed(2))
	assert.Equal(t, "18.00", c.GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "82.00", c.NetAmount.StringFixed(2))
	assert.Equal(t, domain.CommissionStatusPending, c.Status)
	assert.True(t, c.Rate.Equal(d("0.10")))
	assert.True(t, c.GatewayFeeRate.Equal(d("0.018")))
}

func TestComputeCommission_ZeroRateIsAbsent(t *testing.T) {
	for _, amount := range []string{"0", "10", "999.99", "123456.78"} {
		c, err := ComputeCommission(d(amount), decimal.Zero, d("0.018"))
		assert.NoError(t, err)
		assert.Nil(t, c, "zero rate must produce no commission for amount %s", amount)
	}
}

func TestComputeCommission_NetClampedAtZero(t *testing.T) {
	// Gateway fee larger than the gross commission.
	c, err := ComputeCommission(d("1000"), d("0.01"), d("0.05"))
	require.NoError(t, err)
	require.NotNil(t, c)

	assert.Equal(t, "10.00", c.GrossAmount.StringFixed(2))
	assert.Equal(t, "50.00", c.GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "0.00", c.NetAmount.StringFixed(2))
}

func TestComputeCommission_NetMatchesRoundedDifference(t *testing.T) {
	cases := []struct {
		amount string
		rate   string
		fee    string
	}{
		{"1000", "0.10", "0.018"},
		{"19.99", "0.15", "0.029"},
		{"0.01", "0.5", "0.5"},
		{"123456.78", "0.07", "0.012"},
		{"55.55", "1", "0"},
	}

	for _, tc := range cases {
		c, err := ComputeCommission(d(tc.amount), d(tc.rate), d(tc.fee))
		require.NoError(t, err)
		require.NotNil(t, c)

		gross := d(tc.amount).Mul(d(tc.rate)).Round(2)
		fee := d(tc.amount).Mul(d(tc.fee)).Round(2)
		want := gross.Sub(fee).Round(2)
		if want.IsNegative() {
			want = decimal.Zero
		}
		assert.True(t, c.NetAmount.Equal(want),
			"amount=%s rate=%s fee=%s: net %s, want %s", tc.amount, tc.rate, tc.fee, c.NetAmount, want)
		assert.False(t, c.NetAmount.IsNegative())
	}
}

func TestComputeCommission_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		rate   string
		fee    string
	}{
		{name: "negative amount", amount: "-1", rate: "0.1", fee: "0.018"},
		{name: "negative rate", amount: "100", rate: "-0.1", fee: "0.018"},
		{name: "rate above one", amount: "100", rate: "1.01", fee: "0.018"},
		{name: "negative gateway fee rate", amount: "100", rate: "0.1", fee: "-0.018"},
		{name: "gateway fee rate above one", amount: "100", rate: "0.1", fee: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ComputeCommission(d(tt.amount), d(tt.rate), d(tt.fee))
			assert.Nil(t, c)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestReverseCommission_FullRefundReproducesOriginal(t *testing.T) {
	original, err := ComputeCommission(d("1000"), d("0.10"), d("0.018"))
	require.NoError(t, err)

	reversed := ReverseCommission(original, d("1000"), d("1000"))
	require.NotNil(t, reversed)

	assert.Equal(t, original.GrossAmount.StringFixed(2), reversed.GrossAmount.StringFixed(2))
	assert.Equal(t, original.GatewayFeeAmount.StringFixed(2), reversed.GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, original.NetAmount.StringFixed(2), reversed.NetAmount.StringFixed(2))
	assert.Equal(t, domain.CommissionStatusWaived, reversed.Status)
}

func TestReverseCommission_HalfRefundHalvesEachField(t *testing.T) {
	original, err := ComputeCommission(d("1000"), d("0.10"), d("0.018"))
	require.NoError(t, err)

	reversed := ReverseCommission(original, d("1000"), d("500"))
	require.NotNil(t, reversed)

	assert.Equal(t, "50.00", reversed.GrossAmount.StringFixed(2))
	assert.Equal(t, "9.00", reversed.GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "41.00", reversed.NetAmount.StringFixed(2))
	assert.Equal(t, domain.CommissionStatusWaived, reversed.Status)
}

func TestReverseCommission_RoundsFieldsIndependently(t *testing.T) {
	// At ratio 0.01 the scaled net rounds to 0.01 while the scaled gross and
	// fee both round to 0.12. Net must come from scaling the original net,
	// never from recomputing gross minus fee after scaling.
	original := &domain.Commission{
		Rate:             d("0.0124"),
		GrossAmount:      d("12.40"),
		GatewayFeeRate:   d("0.0115"),
		GatewayFeeAmount: d("11.50"),
		NetAmount:        d("0.90"),
		Status:           domain.CommissionStatusPending,
	}

	reversed := ReverseCommission(original, d("1000"), d("10"))
	require.NotNil(t, reversed)

	assert.Equal(t, "0.12", reversed.GrossAmount.StringFixed(2))
	assert.Equal(t, "0.12", reversed.GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "0.01", reversed.NetAmount.StringFixed(2))
}

func TestReverseCommission_NilOriginal(t *testing.T) {
	assert.Nil(t, ReverseCommission(nil, d("1000"), d("500")))
}

func TestReverseCommission_ZeroOriginalAmount(t *testing.T) {
	original := &domain.Commission{GrossAmount: d("10")}
	assert.Nil(t, ReverseCommission(original, decimal.Zero, d("5")))
}

func TestComputeSplits(t *testing.T) {
	rules := []domain.SplitRule{
		{Type: "instructor_share", RecipientID: "rec_1", RecipientType: "vendor", Rate: d("0.10")},
		{Type: "affiliate_share", RecipientID: "rec_2", RecipientType: "affiliate", Rate: d("0.05")},
	}

	splits, err := ComputeSplits(d("1000"), rules, d("0.018"))
	require.NoError(t, err)
	require.Len(t, splits, 2)

	// Order matches input order.
	assert.Equal(t, "rec_1", splits[0].RecipientID)
	assert.Equal(t, "rec_2", splits[1].RecipientID)

	assert.Equal(t, "100.00", splits[0].GrossAmount.StringFixed(2))
	assert.Equal(t, "1.80", splits[0].GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "98.20", splits[0].NetAmount.StringFixed(2))
	assert.Equal(t, domain.SplitStatusPending, splits[0].Status)

	assert.Equal(t, "50.00", splits[1].GrossAmount.StringFixed(2))
	assert.Equal(t, "0.90", splits[1].GatewayFeeAmount.StringFixed(2))
	assert.Equal(t, "49.10", splits[1].NetAmount.StringFixed(2))

	payout, err := ComputeOrganizationPayout(d("1000"), splits)
	require.NoError(t, err)
	assert.Equal(t, "850.00", payout.StringFixed(2))
}

func TestComputeSplits_InvalidRate(t *testing.T) {
	rules := []domain.SplitRule{{RecipientID: "rec_1", Rate: d("1.2")}}
	splits, err := ComputeSplits(d("1000"), rules, d("0.018"))
	assert.Nil(t, splits)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestComputeSplits_EmptyRules(t *testing.T) {
	splits, err := ComputeSplits(d("1000"), nil, d("0.018"))
	require.NoError(t, err)
	assert.Empty(t, splits)

	payout, err := ComputeOrganizationPayout(d("1000"), splits)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", payout.StringFixed(2))
}

func TestComputeOrganizationPayout_NegativeRemainderRejected(t *testing.T) {
	rules := []domain.SplitRule{
		{RecipientID: "rec_1", Rate: d("0.60")},
		{RecipientID: "rec_2", Rate: d("0.50")},
	}
	splits, err := ComputeSplits(d("1000"), rules, decimal.Zero)
	require.NoError(t, err)

	_, err = ComputeOrganizationPayout(d("1000"), splits)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestComputeOrganizationPayout_CatchesRoundingOverflow(t *testing.T) {
	// Rates sum to 1.0 but rounding each gross up pushes the total to 100.00
	// against an amount of 99.99. The payout guard must catch this before
	// anything is persisted.
	rules := []domain.SplitRule{
		{RecipientID: "rec_1", Rate: d("0.33")},
		{RecipientID: "rec_2", Rate: d("0.33")},
		{RecipientID: "rec_3", Rate: d("0.34")},
	}
	splits, err := ComputeSplits(d("99.99"), rules, d("0.018"))
	require.NoError(t, err)

	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.GrossAmount)
	}
	assert.Equal(t, "100.00", total.StringFixed(2))

	_, err = ComputeOrganizationPayout(d("99.99"), splits)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
