package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsnotif "github.com/SscSPs/payment_ledger_app/internal/core/ports/notifications"
	portsproviders "github.com/SscSPs/payment_ledger_app/internal/core/ports/providers"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
)

func strP(s string) *string                   { return &s }
func decP(d decimal.Decimal) *decimal.Decimal { return &d }

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

// Ensure MockTransactionRepository implements portsrepo.TransactionRepositoryWithTx
var _ portsrepo.TransactionRepositoryWithTx = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	args := m.Called(ctx, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByGatewayID(ctx context.Context, sessionID *string, paymentIntentID *string) (*domain.Transaction, error) {
	args := m.Called(ctx, sessionID, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactions(ctx context.Context, limit int, nextToken *string, category *string, status *domain.TransactionStatus) ([]domain.Transaction, *string, error) {
	args := m.Called(ctx, limit, nextToken, category, status)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var returnedNextToken *string
	if args.Get(1) != nil {
		tokenVal := args.Get(1).(string)
		returnedNextToken = &tokenVal
	}
	return args.Get(0).([]domain.Transaction), returnedNextToken, args.Error(2)
}

func (m *MockTransactionRepository) FindTransactionsByReference(ctx context.Context, referenceID string, referenceModel string) ([]domain.Transaction, error) {
	args := m.Called(ctx, referenceID, referenceModel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) CreateTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveTransactionWithSatellites(ctx context.Context, original domain.Transaction, satellites []domain.Transaction) error {
	args := m.Called(ctx, original, satellites)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionStatusIfCurrent(ctx context.Context, transactionID string, expected domain.TransactionStatus, next domain.TransactionStatus, verifiedAt *time.Time, verifiedBy *string, updatedBy string, updatedAt time.Time) error {
	args := m.Called(ctx, transactionID, expected, next, verifiedAt, verifiedBy, updatedBy, updatedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTransactionRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock PaymentProvider ---
type MockPaymentProvider struct {
	mock.Mock
}

var _ portsproviders.PaymentProvider = (*MockPaymentProvider)(nil)

func (m *MockPaymentProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPaymentProvider) CreateIntent(ctx context.Context, params domain.CreateIntentParams) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *MockPaymentProvider) VerifyPayment(ctx context.Context, intentID string) (*domain.PaymentResult, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentProvider) GetStatus(ctx context.Context, intentID string) (*domain.PaymentResult, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResult), args.Error(1)
}

func (m *MockPaymentProvider) Refund(ctx context.Context, paymentID string, amount *decimal.Decimal) (*domain.RefundResult, error) {
	args := m.Called(ctx, paymentID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefundResult), args.Error(1)
}

func (m *MockPaymentProvider) HandleWebhook(ctx context.Context, payload []byte, headers map[string]string) (*domain.WebhookEvent, error) {
	args := m.Called(ctx, payload, headers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookEvent), args.Error(1)
}

func (m *MockPaymentProvider) Capabilities() domain.ProviderCapabilities {
	args := m.Called()
	return args.Get(0).(domain.ProviderCapabilities)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

var _ portsnotif.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Emit(ctx context.Context, event domain.Event) {
	m.Called(ctx, event)
}

// --- Test Suite Setup ---
type TransactionServiceTestSuite struct {
	suite.Suite
	mockTxnRepo  *MockTransactionRepository
	mockProvider *MockPaymentProvider
	mockNotifier *MockNotifier
	cfg          *config.Config
	service      portssvc.TransactionSvcFacade
	actorID      string
	at           time.Time
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockProvider = new(MockPaymentProvider)
	suite.mockNotifier = new(MockNotifier)
	suite.cfg = &config.Config{
		DefaultCommissionRate: decimal.RequireFromString("0.1"),
		CommissionRates:       map[string]decimal.Decimal{},
		DefaultGatewayFeeRate: decimal.RequireFromString("0.018"),
		GatewayFeeRates:       map[string]decimal.Decimal{},
		CategoryAliases:       map[string]string{"session": "training_session"},
	}
	registry := portsproviders.Registry{"stripe": suite.mockProvider}
	suite.service = services.NewTransactionService(suite.cfg, suite.mockTxnRepo, registry, suite.mockNotifier)

	suite.actorID = uuid.NewString()
	suite.at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// pendingTxn builds a pending stored transaction carrying a payment-intent ID.
func (suite *TransactionServiceTestSuite) pendingTxn() *domain.Transaction {
	return &domain.Transaction{
		TransactionID:          uuid.NewString(),
		IdempotencyKey:         uuid.NewString(),
		Direction:              domain.DirectionIncome,
		Category:               "training_session",
		Status:                 domain.TransactionStatusPending,
		Amount:                 decimal.NewFromInt(1000),
		Currency:               "USD",
		Gateway:                "stripe",
		GatewayPaymentIntentID: strP("pi_123"),
		RefundedAmount:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     suite.at.Add(-time.Hour),
			CreatedBy:     suite.actorID,
			LastUpdatedAt: suite.at.Add(-time.Hour),
			LastUpdatedBy: suite.actorID,
			Version:       1,
		},
	}
}

// verifiedTxn builds a verified stored transaction with a commission snapshot.
func (suite *TransactionServiceTestSuite) verifiedTxn() *domain.Transaction {
	txn := suite.pendingTxn()
	txn.Status = domain.TransactionStatusVerified
	verifiedAt := suite.at.Add(-30 * time.Minute)
	txn.VerifiedAt = &verifiedAt
	txn.VerifiedBy = strP(suite.actorID)
	txn.Commission = &domain.Commission{
		Rate:             decimal.RequireFromString("0.1"),
		GrossAmount:      decimal.NewFromInt(100),
		GatewayFeeRate:   decimal.RequireFromString("0.018"),
		GatewayFeeAmount: decimal.NewFromInt(18),
		NetAmount:        decimal.NewFromInt(82),
		Status:           domain.CommissionStatusPending,
	}
	return txn
}

// --- CreateTransaction ---

func (suite *TransactionServiceTestSuite) TestCreateTransaction_Success() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Category: "session",
		Amount:   decimal.NewFromInt(1000),
		Currency: "usd",
		Gateway:  "stripe",
	}

	intent := &domain.PaymentIntent{
		IntentID:        "pi_123",
		PaymentIntentID: strP("pi_123"),
		Status:          domain.PaymentStatusPending,
	}
	suite.mockProvider.On("CreateIntent", ctx, mock.MatchedBy(func(p domain.CreateIntentParams) bool {
		return p.Amount.Equal(decimal.NewFromInt(1000)) &&
			p.Currency == "USD" &&
			p.Category == "training_session" &&
			p.IdempotencyKey != ""
	})).Return(intent, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionCreatedEvent")).Return().Once()

	txn, gotIntent, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.Require().NotNil(gotIntent)
	suite.NotEmpty(txn.TransactionID)
	suite.NotEmpty(txn.IdempotencyKey)
	suite.Equal(domain.DirectionIncome, txn.Direction)
	suite.Equal(domain.TransactionStatusPending, txn.Status)
	suite.Equal("training_session", txn.Category)
	suite.Equal("USD", txn.Currency)
	suite.Equal(strP("pi_123"), txn.GatewayPaymentIntentID)
	suite.Require().NotNil(txn.Commission)
	suite.True(txn.Commission.GrossAmount.Equal(decimal.NewFromInt(100)))
	suite.True(txn.Commission.GatewayFeeAmount.Equal(decimal.NewFromInt(18)))
	suite.True(txn.Commission.NetAmount.Equal(decimal.NewFromInt(82)))
	suite.Equal(suite.at, txn.CreatedAt)
	suite.Equal(int64(1), txn.Version)

	// No caller key means no replay lookup.
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "FindTransactionByIdempotencyKey", mock.Anything, mock.Anything)
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_ZeroAmountCreatesNothing() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Category: "grant",
		Amount:   decimal.Zero,
		Currency: "USD",
		Gateway:  "stripe",
	}

	txn, intent, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Nil(txn)
	suite.Nil(intent)
	suite.mockProvider.AssertNotCalled(suite.T(), "CreateIntent", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_NegativeAmount() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Category: "session",
		Amount:   decimal.NewFromInt(-5),
		Currency: "USD",
		Gateway:  "stripe",
	}

	_, _, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_UnknownGateway() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Category: "session",
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
		Gateway:  "paypal",
	}

	_, _, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnknownGateway)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_IdempotentReplay() {
	ctx := context.Background()
	existing := suite.verifiedTxn()
	req := dto.CreateTransactionRequest{
		Category:       "session",
		Amount:         decimal.NewFromInt(1000),
		Currency:       "USD",
		Gateway:        "stripe",
		IdempotencyKey: strP("order-42"),
	}

	suite.mockTxnRepo.On("FindTransactionByIdempotencyKey", ctx, "order-42").Return(existing, nil).Once()

	txn, intent, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(existing, txn)
	suite.Nil(intent)
	suite.mockProvider.AssertNotCalled(suite.T(), "CreateIntent", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "CreateTransaction", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_DuplicateInsertCoalesced() {
	ctx := context.Background()
	existing := suite.pendingTxn()
	req := dto.CreateTransactionRequest{
		Category:       "session",
		Amount:         decimal.NewFromInt(1000),
		Currency:       "USD",
		Gateway:        "stripe",
		IdempotencyKey: strP("order-43"),
	}

	intent := &domain.PaymentIntent{IntentID: "pi_9", PaymentIntentID: strP("pi_9"), Status: domain.PaymentStatusPending}
	suite.mockTxnRepo.On("FindTransactionByIdempotencyKey", ctx, "order-43").Return(nil, apperrors.ErrNotFound).Once()
	suite.mockProvider.On("CreateIntent", ctx, mock.Anything).Return(intent, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(apperrors.ErrDuplicate).Once()
	suite.mockTxnRepo.On("FindTransactionByIdempotencyKey", ctx, "order-43").Return(existing, nil).Once()

	txn, gotIntent, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(existing, txn)
	suite.Nil(gotIntent)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_SynchronousSuccessPersistsVerified() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Category: "session",
		Amount:   decimal.NewFromInt(500),
		Currency: "USD",
		Gateway:  "stripe",
	}

	intent := &domain.PaymentIntent{
		IntentID:        "pi_sync",
		PaymentIntentID: strP("pi_sync"),
		Status:          domain.PaymentStatusSucceeded,
	}
	suite.mockProvider.On("CreateIntent", ctx, mock.Anything).Return(intent, nil).Once()
	suite.mockTxnRepo.On("CreateTransaction", ctx, mock.MatchedBy(func(txn domain.Transaction) bool {
		return txn.Status == domain.TransactionStatusVerified && txn.VerifiedAt != nil && txn.VerifiedBy != nil
	})).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionCreatedEvent")).Return().Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionVerifiedEvent")).Return().Once()

	txn, _, err := suite.service.CreateTransaction(ctx, req, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusVerified, txn.Status)
	suite.Require().NotNil(txn.VerifiedAt)
	suite.Equal(suite.at, *txn.VerifiedAt)
	suite.Equal(strP(suite.actorID), txn.VerifiedBy)
	suite.mockNotifier.AssertExpectations(suite.T())
}

// --- VerifyTransaction ---

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_MissingIdentifiers() {
	ctx := context.Background()

	_, err := suite.service.VerifyTransaction(ctx, nil, nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrMissingGatewayRef)
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_Success() {
	ctx := context.Background()
	txn := suite.pendingTxn()
	updated := *txn
	updated.Status = domain.TransactionStatusVerified
	updated.VerifiedAt = &suite.at
	updated.VerifiedBy = strP(suite.actorID)

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(&domain.PaymentResult{
		Status:   domain.PaymentStatusSucceeded,
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
	}, nil).Once()
	suite.mockTxnRepo.On("UpdateTransactionStatusIfCurrent", ctx, txn.TransactionID,
		domain.TransactionStatusPending, domain.TransactionStatusVerified,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*string"),
		suite.actorID, suite.at).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(&updated, nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionVerifiedEvent")).Return().Once()

	got, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusVerified, got.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_AmountMismatchRejectedEvenWhenSettled() {
	ctx := context.Background()
	txn := suite.verifiedTxn()

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(&domain.PaymentResult{
		Status:   domain.PaymentStatusSucceeded,
		Amount:   decimal.NewFromInt(900),
		Currency: "USD",
	}, nil).Once()

	_, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAmountMismatch)
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_CurrencyMismatch() {
	ctx := context.Background()
	txn := suite.pendingTxn()

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(&domain.PaymentResult{
		Status:   domain.PaymentStatusSucceeded,
		Amount:   decimal.NewFromInt(1000),
		Currency: "EUR",
	}, nil).Once()

	_, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrCurrencyMismatch)
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_NonPendingIsNoOp() {
	ctx := context.Background()
	txn := suite.verifiedTxn()

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(&domain.PaymentResult{
		Status:   domain.PaymentStatusSucceeded,
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
	}, nil).Once()

	got, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(txn, got)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransactionStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_ProviderFailureEmitsFailedEvent() {
	ctx := context.Background()
	txn := suite.pendingTxn()
	provErr := apperrors.NewProviderError("stripe", "api_error", "gateway unreachable", true, nil)

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(nil, provErr).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionFailedEvent")).Return().Once()

	_, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrProvider)
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestVerifyTransaction_ConcurrentWinnerStands() {
	ctx := context.Background()
	txn := suite.pendingTxn()
	winner := *txn
	winner.Status = domain.TransactionStatusCancelled

	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockProvider.On("VerifyPayment", ctx, "pi_123").Return(&domain.PaymentResult{
		Status:   domain.PaymentStatusSucceeded,
		Amount:   decimal.NewFromInt(1000),
		Currency: "USD",
	}, nil).Once()
	suite.mockTxnRepo.On("UpdateTransactionStatusIfCurrent", ctx, txn.TransactionID,
		domain.TransactionStatusPending, domain.TransactionStatusVerified,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*string"),
		suite.actorID, suite.at).Return(apperrors.ErrConflict).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(&winner, nil).Once()

	got, err := suite.service.VerifyTransaction(ctx, nil, strP("pi_123"), suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusCancelled, got.Status)
	suite.mockNotifier.AssertNotCalled(suite.T(), "Emit", mock.Anything, mock.Anything)
}

// --- HandleProviderWebhook ---

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_Success() {
	ctx := context.Background()
	txn := suite.pendingTxn()
	updated := *txn
	updated.Status = domain.TransactionStatusVerified
	payload := []byte(`{"type":"payment_intent.succeeded"}`)
	headers := map[string]string{"Signature": "sig"}

	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, payload, headers).Return(&domain.WebhookEvent{
		Type:            domain.WebhookPaymentSucceeded,
		PaymentIntentID: strP("pi_123"),
		Amount:          decP(decimal.NewFromInt(1000)),
	}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()
	suite.mockTxnRepo.On("UpdateTransactionStatusIfCurrent", ctx, txn.TransactionID,
		domain.TransactionStatusPending, domain.TransactionStatusVerified,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*string"),
		domain.SystemActorID, suite.at).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(&updated, nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionVerifiedEvent")).Return().Once()

	got, err := suite.service.HandleProviderWebhook(ctx, "stripe", payload, headers, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusVerified, got.Status)
	// The stored row already carried the identifier; nothing to backfill.
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_BackfillsMissingIdentifier() {
	ctx := context.Background()
	txn := suite.pendingTxn()
	txn.GatewayPaymentIntentID = nil
	txn.GatewaySessionID = strP("cs_55")
	updated := *txn
	updated.Status = domain.TransactionStatusVerified
	payload := []byte(`{}`)

	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, payload, map[string]string(nil)).Return(&domain.WebhookEvent{
		Type:            domain.WebhookPaymentSucceeded,
		SessionID:       strP("cs_55"),
		PaymentIntentID: strP("pi_88"),
	}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, strP("cs_55"), strP("pi_88")).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(saved domain.Transaction) bool {
		return saved.GatewayPaymentIntentID != nil && *saved.GatewayPaymentIntentID == "pi_88" &&
			saved.LastUpdatedBy == domain.SystemActorID
	})).Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransactionStatusIfCurrent", ctx, txn.TransactionID,
		domain.TransactionStatusPending, domain.TransactionStatusVerified,
		mock.AnythingOfType("*time.Time"), mock.AnythingOfType("*string"),
		domain.SystemActorID, suite.at).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(&updated, nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionVerifiedEvent")).Return().Once()

	_, err := suite.service.HandleProviderWebhook(ctx, "stripe", payload, nil, suite.at)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_WebhooksUnsupported() {
	ctx := context.Background()
	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: false}).Once()

	_, err := suite.service.HandleProviderWebhook(ctx, "stripe", []byte(`{}`), nil, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsupported)
	suite.mockProvider.AssertNotCalled(suite.T(), "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_UnknownProvider() {
	ctx := context.Background()

	_, err := suite.service.HandleProviderWebhook(ctx, "paypal", []byte(`{}`), nil, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnknownGateway)
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_EventWithoutIdentifier() {
	ctx := context.Background()
	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, mock.Anything, mock.Anything).Return(&domain.WebhookEvent{
		Type: domain.WebhookPaymentSucceeded,
	}, nil).Once()

	_, err := suite.service.HandleProviderWebhook(ctx, "stripe", []byte(`{}`), nil, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_AmountMismatch() {
	ctx := context.Background()
	txn := suite.pendingTxn()

	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, mock.Anything, mock.Anything).Return(&domain.WebhookEvent{
		Type:            domain.WebhookPaymentSucceeded,
		PaymentIntentID: strP("pi_123"),
		Amount:          decP(decimal.NewFromInt(999)),
	}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()

	_, err := suite.service.HandleProviderWebhook(ctx, "stripe", []byte(`{}`), nil, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAmountMismatch)
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_UnhandledEventTypeIgnored() {
	ctx := context.Background()
	txn := suite.pendingTxn()

	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, mock.Anything, mock.Anything).Return(&domain.WebhookEvent{
		Type:            "payment.disputed",
		PaymentIntentID: strP("pi_123"),
	}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()

	got, err := suite.service.HandleProviderWebhook(ctx, "stripe", []byte(`{}`), nil, suite.at)

	suite.Require().NoError(err)
	suite.Equal(txn, got)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransactionStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestHandleProviderWebhook_RedeliveryForSettledIsNoOp() {
	ctx := context.Background()
	txn := suite.verifiedTxn()

	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{SupportsWebhooks: true}).Once()
	suite.mockProvider.On("HandleWebhook", ctx, mock.Anything, mock.Anything).Return(&domain.WebhookEvent{
		Type:            domain.WebhookPaymentSucceeded,
		PaymentIntentID: strP("pi_123"),
	}, nil).Once()
	suite.mockTxnRepo.On("FindTransactionByGatewayID", ctx, (*string)(nil), strP("pi_123")).Return(txn, nil).Once()

	got, err := suite.service.HandleProviderWebhook(ctx, "stripe", []byte(`{}`), nil, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusVerified, got.Status)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransactionStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- CompleteTransaction ---

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_Success() {
	ctx := context.Background()
	txn := suite.verifiedTxn()
	completed := *txn
	completed.Status = domain.TransactionStatusCompleted

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("UpdateTransactionStatusIfCurrent", ctx, txn.TransactionID,
		domain.TransactionStatusVerified, domain.TransactionStatusCompleted,
		(*time.Time)(nil), (*string)(nil), suite.actorID, suite.at).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(&completed, nil).Once()

	got, err := suite.service.CompleteTransaction(ctx, txn.TransactionID, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusCompleted, got.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_AlreadyCompletedIsNoOp() {
	ctx := context.Background()
	txn := suite.verifiedTxn()
	txn.Status = domain.TransactionStatusCompleted

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	got, err := suite.service.CompleteTransaction(ctx, txn.TransactionID, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(txn, got)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransactionStatusIfCurrent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCompleteTransaction_InvalidState() {
	ctx := context.Background()
	txn := suite.pendingTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.CompleteTransaction(ctx, txn.TransactionID, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

// --- RefundTransaction ---

func (suite *TransactionServiceTestSuite) TestRefundTransaction_FullRefund() {
	ctx := context.Background()
	txn := suite.verifiedTxn()
	originalID := txn.TransactionID

	suite.mockTxnRepo.On("FindTransactionByID", ctx, originalID).Return(txn, nil).Once()
	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{
		SupportsRefunds:        true,
		SupportsPartialRefunds: true,
	}).Once()
	suite.mockProvider.On("Refund", ctx, "pi_123", mock.MatchedBy(func(amt *decimal.Decimal) bool {
		return amt != nil && amt.Equal(decimal.NewFromInt(1000))
	})).Return(&domain.RefundResult{Status: domain.PaymentStatusRefunded, Amount: decimal.NewFromInt(1000)}, nil).Once()
	suite.mockTxnRepo.On("SaveTransactionWithSatellites", ctx,
		mock.MatchedBy(func(orig domain.Transaction) bool {
			return orig.Status == domain.TransactionStatusRefunded &&
				orig.RefundedAmount.Equal(decimal.NewFromInt(1000)) &&
				orig.RefundedAt != nil
		}),
		mock.MatchedBy(func(sats []domain.Transaction) bool {
			if len(sats) != 1 {
				return false
			}
			r := sats[0]
			return r.Direction == domain.DirectionExpense &&
				r.Status == domain.TransactionStatusCompleted &&
				r.Amount.Equal(decimal.NewFromInt(1000)) &&
				r.ReferenceID != nil && *r.ReferenceID == originalID &&
				r.ReferenceModel != nil && *r.ReferenceModel == "transaction"
		})).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionRefundedEvent")).Return().Once()

	refund, err := suite.service.RefundTransaction(ctx, originalID, nil, nil, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Require().NotNil(refund)
	suite.Equal(domain.DirectionExpense, refund.Direction)
	suite.True(refund.Amount.Equal(decimal.NewFromInt(1000)))
	suite.Require().NotNil(refund.Commission)
	suite.Equal(domain.CommissionStatusWaived, refund.Commission.Status)
	suite.True(refund.Commission.GrossAmount.Equal(decimal.NewFromInt(100)))
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestRefundTransaction_PartialRefundScalesCommission() {
	ctx := context.Background()
	txn := suite.verifiedTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{
		SupportsRefunds:        true,
		SupportsPartialRefunds: true,
	}).Once()
	suite.mockProvider.On("Refund", ctx, "pi_123", mock.Anything).
		Return(&domain.RefundResult{Status: domain.PaymentStatusRefunded, Amount: decimal.NewFromInt(250)}, nil).Once()
	suite.mockTxnRepo.On("SaveTransactionWithSatellites", ctx,
		mock.MatchedBy(func(orig domain.Transaction) bool {
			return orig.Status == domain.TransactionStatusPartiallyRefunded &&
				orig.RefundedAmount.Equal(decimal.NewFromInt(250))
		}),
		mock.AnythingOfType("[]domain.Transaction")).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.TransactionRefundedEvent")).Return().Once()

	refund, err := suite.service.RefundTransaction(ctx, txn.TransactionID, decP(decimal.NewFromInt(250)), strP("customer request"), suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.True(refund.Amount.Equal(decimal.NewFromInt(250)))
	suite.Require().NotNil(refund.Commission)
	suite.True(refund.Commission.GrossAmount.Equal(decimal.NewFromInt(25)))
	suite.True(refund.Commission.GatewayFeeAmount.Equal(decimal.RequireFromString("4.5")))
	suite.True(refund.Commission.NetAmount.Equal(decimal.RequireFromString("20.5")))
}

func (suite *TransactionServiceTestSuite) TestRefundTransaction_ExceedsRefundableBalance() {
	ctx := context.Background()
	txn := suite.verifiedTxn()
	txn.RefundedAmount = decimal.NewFromInt(800)
	txn.Status = domain.TransactionStatusPartiallyRefunded

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.RefundTransaction(ctx, txn.TransactionID, decP(decimal.NewFromInt(300)), nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrRefundExceedsBalance)
	suite.mockProvider.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestRefundTransaction_NotRefundable() {
	ctx := context.Background()
	txn := suite.pendingTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.RefundTransaction(ctx, txn.TransactionID, nil, nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotRefundable)
}

func (suite *TransactionServiceTestSuite) TestRefundTransaction_BlockedByActiveHold() {
	ctx := context.Background()
	txn := suite.verifiedTxn()
	txn.Escrow = &domain.EscrowHold{
		Status:         domain.EscrowStatusHeld,
		HeldAmount:     txn.Amount,
		ReleasedAmount: decimal.Zero,
		Reason:         "vendor payout pending",
		HeldAt:         suite.at.Add(-time.Hour),
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.RefundTransaction(ctx, txn.TransactionID, nil, nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrRefundBlockedByHold)
}

func (suite *TransactionServiceTestSuite) TestRefundTransaction_PartialUnsupportedByProvider() {
	ctx := context.Background()
	txn := suite.verifiedTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockProvider.On("Capabilities").Return(domain.ProviderCapabilities{
		SupportsRefunds:        true,
		SupportsPartialRefunds: false,
	}).Once()

	_, err := suite.service.RefundTransaction(ctx, txn.TransactionID, decP(decimal.NewFromInt(250)), nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrUnsupported)
	suite.mockProvider.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything, mock.Anything)
}

// --- Reads ---

func (suite *TransactionServiceTestSuite) TestListTransactions_DefaultsLimit() {
	ctx := context.Background()

	suite.mockTxnRepo.On("ListTransactions", ctx, 20, (*string)(nil), (*string)(nil), (*domain.TransactionStatus)(nil)).
		Return([]domain.Transaction{*suite.verifiedTxn()}, nil, nil).Once()

	resp, err := suite.service.ListTransactions(ctx, dto.ListTransactionsParams{})

	suite.Require().NoError(err)
	suite.Len(resp.Transactions, 1)
	suite.Nil(resp.NextToken)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestGetTransactionByID_NotFound() {
	ctx := context.Background()
	id := uuid.NewString()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, id).Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.GetTransactionByID(ctx, id)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Run Test Suite ---
func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
