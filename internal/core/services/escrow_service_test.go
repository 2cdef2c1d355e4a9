package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portssvc "github.com/SscSPs/payment_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/payment_ledger_app/internal/core/services"
	"github.com/SscSPs/payment_ledger_app/internal/platform/config"
)

type EscrowServiceTestSuite struct {
	suite.Suite
	mockTxnRepo  *MockTransactionRepository
	mockNotifier *MockNotifier
	service      portssvc.EscrowSvcFacade
	actorID      string
	at           time.Time
}

func (suite *EscrowServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockNotifier = new(MockNotifier)
	cfg := &config.Config{
		DefaultGatewayFeeRate: decimal.RequireFromString("0.018"),
		GatewayFeeRates:       map[string]decimal.Decimal{},
	}
	suite.service = services.NewEscrowService(cfg, suite.mockTxnRepo, suite.mockNotifier)

	suite.actorID = uuid.NewString()
	suite.at = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// holdableTxn builds a verified transaction that carries no hold yet.
func (suite *EscrowServiceTestSuite) holdableTxn() *domain.Transaction {
	verifiedAt := suite.at.Add(-time.Hour)
	return &domain.Transaction{
		TransactionID:          uuid.NewString(),
		IdempotencyKey:         uuid.NewString(),
		Direction:              domain.DirectionIncome,
		Category:               "training_session",
		Status:                 domain.TransactionStatusVerified,
		Amount:                 decimal.NewFromInt(1000),
		Currency:               "USD",
		Gateway:                "stripe",
		GatewayPaymentIntentID: strP("pi_123"),
		RefundedAmount:         decimal.Zero,
		VerifiedAt:             &verifiedAt,
		VerifiedBy:             strP(suite.actorID),
		AuditFields: domain.AuditFields{
			CreatedAt:     suite.at.Add(-2 * time.Hour),
			CreatedBy:     suite.actorID,
			LastUpdatedAt: verifiedAt,
			LastUpdatedBy: suite.actorID,
			Version:       2,
		},
	}
}

// heldTxn builds a verified transaction with an active hold over its full amount.
func (suite *EscrowServiceTestSuite) heldTxn() *domain.Transaction {
	txn := suite.holdableTxn()
	txn.Escrow = &domain.EscrowHold{
		Status:         domain.EscrowStatusHeld,
		HeldAmount:     txn.Amount,
		ReleasedAmount: decimal.Zero,
		Reason:         "vendor payout pending",
		HeldAt:         suite.at.Add(-30 * time.Minute),
	}
	return txn
}

// --- HoldFunds ---

func (suite *EscrowServiceTestSuite) TestHoldFunds_Success() {
	ctx := context.Background()
	txn := suite.holdableTxn()
	holdUntil := suite.at.Add(14 * 24 * time.Hour)

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(saved domain.Transaction) bool {
		return saved.Escrow != nil &&
			saved.Escrow.Status == domain.EscrowStatusHeld &&
			saved.Escrow.HeldAmount.Equal(decimal.NewFromInt(1000)) &&
			saved.Escrow.ReleasedAmount.IsZero() &&
			saved.LastUpdatedBy == suite.actorID
	})).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.EscrowHeldEvent")).Return().Once()

	got, err := suite.service.HoldFunds(ctx, txn.TransactionID, "dispute window", &holdUntil, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Require().NotNil(got.Escrow)
	suite.Equal(domain.EscrowStatusHeld, got.Escrow.Status)
	suite.Equal("dispute window", got.Escrow.Reason)
	suite.Equal(suite.at, got.Escrow.HeldAt)
	suite.Equal(&holdUntil, got.Escrow.HoldUntil)
	// Holding does not change the transaction lifecycle status.
	suite.Equal(domain.TransactionStatusVerified, got.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestHoldFunds_SecondHoldRejected() {
	ctx := context.Background()
	txn := suite.holdableTxn()
	cancelledAt := suite.at.Add(-10 * time.Minute)
	txn.Escrow = &domain.EscrowHold{
		Status:         domain.EscrowStatusCancelled,
		HeldAmount:     txn.Amount,
		ReleasedAmount: decimal.Zero,
		Reason:         "first hold",
		HeldAt:         suite.at.Add(-time.Hour),
		CancelledAt:    &cancelledAt,
		CancelReason:   strP("order withdrawn"),
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.HoldFunds(ctx, txn.TransactionID, "second attempt", nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyHeld)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestHoldFunds_PendingNotHoldable() {
	ctx := context.Background()
	txn := suite.holdableTxn()
	txn.Status = domain.TransactionStatusPending
	txn.VerifiedAt = nil
	txn.VerifiedBy = nil

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.HoldFunds(ctx, txn.TransactionID, "too early", nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotHoldable)
}

func (suite *EscrowServiceTestSuite) TestHoldFunds_ReasonRequired() {
	ctx := context.Background()
	txn := suite.holdableTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.HoldFunds(ctx, txn.TransactionID, "", nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- SplitFunds ---

func (suite *EscrowServiceTestSuite) TestSplitFunds_Success() {
	ctx := context.Background()
	txn := suite.heldTxn()
	rules := []domain.SplitRule{
		{Type: "vendor_share", RecipientID: "vendor-1", RecipientType: "vendor", Rate: decimal.RequireFromString("0.6")},
		{Type: "platform_share", RecipientID: "org", RecipientType: domain.RecipientTypeOrganization, Rate: decimal.RequireFromString("0.1")},
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransactionWithSatellites", ctx,
		mock.MatchedBy(func(saved domain.Transaction) bool {
			return len(saved.Splits) == 2 && saved.Escrow.Status == domain.EscrowStatusHeld
		}),
		mock.MatchedBy(func(sats []domain.Transaction) bool {
			// Only the vendor share materialises; the organization is the remainder.
			if len(sats) != 1 {
				return false
			}
			sat := sats[0]
			return sat.Direction == domain.DirectionIncome &&
				sat.Status == domain.TransactionStatusPending &&
				sat.Amount.Equal(decimal.RequireFromString("589.2")) &&
				sat.ReferenceID != nil && *sat.ReferenceID == txn.TransactionID &&
				sat.ReferenceModel != nil && *sat.ReferenceModel == "transaction"
		})).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.MatchedBy(func(e domain.Event) bool {
		split, ok := e.(domain.EscrowSplitEvent)
		return ok && split.SplitCount == 2 && split.OrganizationPayout.Equal(decimal.NewFromInt(300))
	})).Return().Once()

	got, payout, err := suite.service.SplitFunds(ctx, txn.TransactionID, rules, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.True(payout.Equal(decimal.NewFromInt(300)))
	suite.Require().Len(got.Splits, 2)
	vendor := got.Splits[0]
	suite.True(vendor.GrossAmount.Equal(decimal.NewFromInt(600)))
	suite.True(vendor.GatewayFeeAmount.Equal(decimal.RequireFromString("10.8")))
	suite.True(vendor.NetAmount.Equal(decimal.RequireFromString("589.2")))
	suite.Equal(domain.SplitStatusPending, vendor.Status)
	// The hold itself is untouched until funds are released.
	suite.Equal(domain.EscrowStatusHeld, got.Escrow.Status)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestSplitFunds_NoActiveHold() {
	ctx := context.Background()
	txn := suite.holdableTxn()
	rules := []domain.SplitRule{{Type: "vendor_share", RecipientID: "vendor-1", RecipientType: "vendor", Rate: decimal.RequireFromString("0.5")}}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, _, err := suite.service.SplitFunds(ctx, txn.TransactionID, rules, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNoActiveHold)
}

func (suite *EscrowServiceTestSuite) TestSplitFunds_RulesRequired() {
	ctx := context.Background()
	txn := suite.heldTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, _, err := suite.service.SplitFunds(ctx, txn.TransactionID, nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *EscrowServiceTestSuite) TestSplitFunds_OverallocationRejected() {
	ctx := context.Background()
	txn := suite.heldTxn()
	rules := []domain.SplitRule{
		{Type: "vendor_share", RecipientID: "vendor-1", RecipientType: "vendor", Rate: decimal.RequireFromString("0.7")},
		{Type: "affiliate_share", RecipientID: "aff-1", RecipientType: "affiliate", Rate: decimal.RequireFromString("0.5")},
	}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, _, err := suite.service.SplitFunds(ctx, txn.TransactionID, rules, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransactionWithSatellites", mock.Anything, mock.Anything, mock.Anything)
}

// --- ReleaseFunds ---

func (suite *EscrowServiceTestSuite) TestReleaseFunds_PartialMarksPartialRelease() {
	ctx := context.Background()
	txn := suite.heldTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.MatchedBy(func(e domain.Event) bool {
		rel, ok := e.(domain.EscrowReleasedEvent)
		return ok && rel.Amount.Equal(decimal.NewFromInt(400)) && rel.Remaining.Equal(decimal.NewFromInt(600))
	})).Return().Once()

	got, err := suite.service.ReleaseFunds(ctx, txn.TransactionID, "vendor-1", "vendor", decP(decimal.NewFromInt(400)), suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowStatusPartialRelease, got.Escrow.Status)
	suite.True(got.Escrow.ReleasedAmount.Equal(decimal.NewFromInt(400)))
	suite.Require().Len(got.Escrow.Releases, 1)
	suite.Equal("vendor-1", got.Escrow.Releases[0].RecipientID)
	suite.Equal(suite.actorID, got.Escrow.Releases[0].ReleasedBy)
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestReleaseFunds_DefaultReleasesRemainder() {
	ctx := context.Background()
	txn := suite.heldTxn()
	txn.Escrow.Status = domain.EscrowStatusPartialRelease
	txn.Escrow.ReleasedAmount = decimal.NewFromInt(400)
	txn.Escrow.Releases = []domain.EscrowRelease{{
		ReleaseID:     uuid.NewString(),
		RecipientID:   "vendor-1",
		RecipientType: "vendor",
		Amount:        decimal.NewFromInt(400),
		ReleasedAt:    suite.at.Add(-10 * time.Minute),
		ReleasedBy:    suite.actorID,
	}}

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.AnythingOfType("domain.Transaction")).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.MatchedBy(func(e domain.Event) bool {
		rel, ok := e.(domain.EscrowReleasedEvent)
		return ok && rel.Amount.Equal(decimal.NewFromInt(600)) && rel.Remaining.IsZero()
	})).Return().Once()

	got, err := suite.service.ReleaseFunds(ctx, txn.TransactionID, "vendor-2", "vendor", nil, suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.EscrowStatusReleased, got.Escrow.Status)
	suite.True(got.Escrow.ReleasedAmount.Equal(decimal.NewFromInt(1000)))
	suite.Len(got.Escrow.Releases, 2)
	// Full release still leaves the transaction status to its own lifecycle.
	suite.Equal(domain.TransactionStatusVerified, got.Status)
}

func (suite *EscrowServiceTestSuite) TestReleaseFunds_ExceedsRemaining() {
	ctx := context.Background()
	txn := suite.heldTxn()
	txn.Escrow.Status = domain.EscrowStatusPartialRelease
	txn.Escrow.ReleasedAmount = decimal.NewFromInt(900)

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.ReleaseFunds(ctx, txn.TransactionID, "vendor-1", "vendor", decP(decimal.NewFromInt(200)), suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrReleaseExceedsHeld)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *EscrowServiceTestSuite) TestReleaseFunds_RecipientRequired() {
	ctx := context.Background()
	txn := suite.heldTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.ReleaseFunds(ctx, txn.TransactionID, "", "vendor", nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *EscrowServiceTestSuite) TestReleaseFunds_NoActiveHold() {
	ctx := context.Background()
	txn := suite.heldTxn()
	txn.Escrow.Status = domain.EscrowStatusReleased
	txn.Escrow.ReleasedAmount = txn.Escrow.HeldAmount

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.ReleaseFunds(ctx, txn.TransactionID, "vendor-1", "vendor", nil, suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNoActiveHold)
}

// --- CancelHold ---

func (suite *EscrowServiceTestSuite) TestCancelHold_Success() {
	ctx := context.Background()
	txn := suite.heldTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(saved domain.Transaction) bool {
		return saved.Status == domain.TransactionStatusCancelled &&
			saved.Escrow.Status == domain.EscrowStatusCancelled &&
			saved.Escrow.CancelledAt != nil &&
			saved.Escrow.CancelReason != nil && *saved.Escrow.CancelReason == "order withdrawn"
	})).Return(nil).Once()
	suite.mockNotifier.On("Emit", ctx, mock.AnythingOfType("domain.EscrowCancelledEvent")).Return().Once()

	got, err := suite.service.CancelHold(ctx, txn.TransactionID, "order withdrawn", suite.actorID, suite.at)

	suite.Require().NoError(err)
	suite.Equal(domain.TransactionStatusCancelled, got.Status)
	suite.Equal(domain.EscrowStatusCancelled, got.Escrow.Status)
	suite.Equal(&suite.at, got.Escrow.CancelledAt)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockNotifier.AssertExpectations(suite.T())
}

func (suite *EscrowServiceTestSuite) TestCancelHold_ReasonRequired() {
	ctx := context.Background()
	txn := suite.heldTxn()

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.CancelHold(ctx, txn.TransactionID, "", suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *EscrowServiceTestSuite) TestCancelHold_AfterFullRelease() {
	ctx := context.Background()
	txn := suite.heldTxn()
	txn.Escrow.Status = domain.EscrowStatusReleased
	txn.Escrow.ReleasedAmount = txn.Escrow.HeldAmount

	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.CancelHold(ctx, txn.TransactionID, "too late", suite.actorID, suite.at)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNoActiveHold)
}

// --- Run Test Suite ---
func TestEscrowService(t *testing.T) {
	suite.Run(t, new(EscrowServiceTestSuite))
}
