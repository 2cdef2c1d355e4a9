package providers_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/payment_ledger_app/internal/providers"
)

// MockPaymentRecordRepository is a mock implementation of portsrepo.PaymentRecordRepository
type MockPaymentRecordRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRecordRepository = (*MockPaymentRecordRepository)(nil)

func (m *MockPaymentRecordRepository) CreatePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockPaymentRecordRepository) FindPaymentRecordByID(ctx context.Context, intentID string) (*domain.PaymentRecord, error) {
	args := m.Called(ctx, intentID)
	if rec, ok := args.Get(0).(*domain.PaymentRecord); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentRecordRepository) SavePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type ManualProviderTestSuite struct {
	suite.Suite
	ctx     context.Context
	records *MockPaymentRecordRepository
	at      time.Time
}

func (suite *ManualProviderTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.records = new(MockPaymentRecordRepository)
	suite.at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *ManualProviderTestSuite) confirmedRecord(intentID string) *domain.PaymentRecord {
	paidAt := suite.at.Add(-time.Hour)
	return &domain.PaymentRecord{
		IntentID:       intentID,
		Gateway:        "manual",
		Amount:         decimal.RequireFromString("1000"),
		Currency:       "USD",
		Status:         domain.PaymentStatusSucceeded,
		PaidAt:         &paidAt,
		RefundedAmount: decimal.Zero,
		CreatedAt:      suite.at.Add(-2 * time.Hour),
		UpdatedAt:      paidAt,
	}
}

func (suite *ManualProviderTestSuite) TestCreateIntent_GeneratesReferenceInstructions() {
	provider := providers.NewManualProvider(suite.records, "")

	var persisted domain.PaymentRecord
	suite.records.On("CreatePaymentRecord", suite.ctx, mock.MatchedBy(func(rec domain.PaymentRecord) bool {
		persisted = rec
		return rec.Status == domain.PaymentStatusPending
	})).Return(nil).Once()

	intent, err := provider.CreateIntent(suite.ctx, domain.CreateIntentParams{
		Amount:   decimal.RequireFromString("250.50"),
		Currency: "EUR",
		Category: "consulting",
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(intent)
	suite.True(strings.HasPrefix(intent.IntentID, "man_"))
	suite.Require().NotNil(intent.PaymentIntentID)
	suite.Equal(intent.IntentID, *intent.PaymentIntentID)
	suite.Nil(intent.SessionID)
	suite.Equal(domain.PaymentStatusPending, intent.Status)
	suite.Require().NotNil(intent.Instructions)
	suite.Contains(*intent.Instructions, "250.5")
	suite.Contains(*intent.Instructions, "EUR")
	suite.Contains(*intent.Instructions, intent.IntentID)

	suite.Equal(intent.IntentID, persisted.IntentID)
	suite.Equal("manual", persisted.Gateway)
	suite.True(persisted.Amount.Equal(decimal.RequireFromString("250.50")))
	suite.records.AssertExpectations(suite.T())
}

func (suite *ManualProviderTestSuite) TestCreateIntent_UsesConfiguredInstructions() {
	provider := providers.NewManualProvider(suite.records, "Wire to IBAN DE00 1234")

	suite.records.On("CreatePaymentRecord", suite.ctx, mock.AnythingOfType("domain.PaymentRecord")).Return(nil).Once()

	intent, err := provider.CreateIntent(suite.ctx, domain.CreateIntentParams{
		Amount:   decimal.RequireFromString("10"),
		Currency: "USD",
	})

	suite.Require().NoError(err)
	suite.Require().NotNil(intent.Instructions)
	suite.Equal("Wire to IBAN DE00 1234", *intent.Instructions)
}

func (suite *ManualProviderTestSuite) TestCreateIntent_StorageFailureIsRetryableProviderError() {
	provider := providers.NewManualProvider(suite.records, "")

	suite.records.On("CreatePaymentRecord", suite.ctx, mock.AnythingOfType("domain.PaymentRecord")).
		Return(apperrors.NewAppError(500, "db down", nil)).Once()

	intent, err := provider.CreateIntent(suite.ctx, domain.CreateIntentParams{
		Amount:   decimal.RequireFromString("10"),
		Currency: "USD",
	})

	suite.Require().Error(err)
	suite.Nil(intent)
	suite.ErrorIs(err, apperrors.ErrProvider)
	suite.True(apperrors.IsRetryableProviderError(err))
}

func (suite *ManualProviderTestSuite) TestVerifyPayment_ReturnsRecordState() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()

	result, err := provider.VerifyPayment(suite.ctx, "man_abc")

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusSucceeded, result.Status)
	suite.True(result.Amount.Equal(rec.Amount))
	suite.Equal("USD", result.Currency)
	suite.Require().NotNil(result.PaidAt)
	suite.True(result.PaidAt.Equal(*rec.PaidAt))
}

func (suite *ManualProviderTestSuite) TestVerifyPayment_UnknownIntent() {
	provider := providers.NewManualProvider(suite.records, "")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_missing").
		Return(nil, apperrors.NewNotFoundError("payment record man_missing not found")).Once()

	result, err := provider.VerifyPayment(suite.ctx, "man_missing")

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrProvider)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.False(apperrors.IsRetryableProviderError(err))
}

func (suite *ManualProviderTestSuite) TestMarkPaid_ConfirmsPendingIntent() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")
	rec.Status = domain.PaymentStatusPending
	rec.PaidAt = nil

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()
	suite.records.On("SavePaymentRecord", suite.ctx, mock.MatchedBy(func(saved domain.PaymentRecord) bool {
		return saved.Status == domain.PaymentStatusSucceeded &&
			saved.PaidAt != nil && saved.PaidAt.Equal(suite.at)
	})).Return(nil).Once()

	confirmed, err := provider.MarkPaid(suite.ctx, "man_abc", suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusSucceeded, confirmed.Status)
	suite.Require().NotNil(confirmed.PaidAt)
	suite.True(confirmed.PaidAt.Equal(suite.at))
	suite.records.AssertExpectations(suite.T())
}

func (suite *ManualProviderTestSuite) TestMarkPaid_AlreadyConfirmedIsNoOp() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()

	confirmed, err := provider.MarkPaid(suite.ctx, "man_abc", suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusSucceeded, confirmed.Status)
	suite.records.AssertNotCalled(suite.T(), "SavePaymentRecord", mock.Anything, mock.Anything)
}

func (suite *ManualProviderTestSuite) TestMarkPaid_CancelledIntentRejected() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")
	rec.Status = domain.PaymentStatusCancelled
	rec.PaidAt = nil

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()

	confirmed, err := provider.MarkPaid(suite.ctx, "man_abc", suite.at)

	suite.Require().Error(err)
	suite.Nil(confirmed)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.records.AssertNotCalled(suite.T(), "SavePaymentRecord", mock.Anything, mock.Anything)
}

func (suite *ManualProviderTestSuite) TestRefund_FullByDefault() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()
	suite.records.On("SavePaymentRecord", suite.ctx, mock.MatchedBy(func(saved domain.PaymentRecord) bool {
		return saved.Status == domain.PaymentStatusRefunded &&
			saved.RefundedAmount.Equal(decimal.RequireFromString("1000"))
	})).Return(nil).Once()

	result, err := provider.Refund(suite.ctx, "man_abc", nil)

	suite.Require().NoError(err)
	suite.Equal(domain.PaymentStatusRefunded, result.Status)
	suite.True(result.Amount.Equal(decimal.RequireFromString("1000")))
	suite.Require().NotNil(result.RefundedAt)
	suite.records.AssertExpectations(suite.T())
}

func (suite *ManualProviderTestSuite) TestRefund_PartialKeepsIntentConfirmed() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")
	partial := decimal.RequireFromString("250")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()
	suite.records.On("SavePaymentRecord", suite.ctx, mock.MatchedBy(func(saved domain.PaymentRecord) bool {
		return saved.Status == domain.PaymentStatusSucceeded &&
			saved.RefundedAmount.Equal(partial)
	})).Return(nil).Once()

	result, err := provider.Refund(suite.ctx, "man_abc", &partial)

	suite.Require().NoError(err)
	suite.True(result.Amount.Equal(partial))
	suite.records.AssertExpectations(suite.T())
}

func (suite *ManualProviderTestSuite) TestRefund_ExceedingRemainingRejected() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")
	rec.RefundedAmount = decimal.RequireFromString("900")
	tooMuch := decimal.RequireFromString("200")

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()

	result, err := provider.Refund(suite.ctx, "man_abc", &tooMuch)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrProvider)
	suite.Contains(err.Error(), "refund_exceeds_paid")
	suite.records.AssertNotCalled(suite.T(), "SavePaymentRecord", mock.Anything, mock.Anything)
}

func (suite *ManualProviderTestSuite) TestRefund_PendingIntentRejected() {
	provider := providers.NewManualProvider(suite.records, "")
	rec := suite.confirmedRecord("man_abc")
	rec.Status = domain.PaymentStatusPending
	rec.PaidAt = nil

	suite.records.On("FindPaymentRecordByID", suite.ctx, "man_abc").Return(rec, nil).Once()

	result, err := provider.Refund(suite.ctx, "man_abc", nil)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.Contains(err.Error(), "not_refundable")
}

func (suite *ManualProviderTestSuite) TestHandleWebhook_Unsupported() {
	provider := providers.NewManualProvider(suite.records, "")

	event, err := provider.HandleWebhook(suite.ctx, []byte(`{}`), nil)

	suite.Require().Error(err)
	suite.Nil(event)
	suite.ErrorIs(err, apperrors.ErrUnsupported)
}

func (suite *ManualProviderTestSuite) TestCapabilities() {
	provider := providers.NewManualProvider(suite.records, "")

	caps := provider.Capabilities()

	suite.False(caps.SupportsWebhooks)
	suite.True(caps.SupportsRefunds)
	suite.True(caps.SupportsPartialRefunds)
	suite.True(caps.RequiresManualVerification)
}

func TestManualProvider(t *testing.T) {
	suite.Run(t, new(ManualProviderTestSuite))
}
