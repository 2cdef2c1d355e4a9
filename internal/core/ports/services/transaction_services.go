package services

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	"github.com/SscSPs/payment_ledger_app/internal/dto"
	"github.com/shopspring/decimal"
)

// TransactionReaderSvc defines read operations for ledger transactions
type TransactionReaderSvc interface {
	// GetTransactionByID retrieves a specific transaction by its ID.
	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions.
	ListTransactions(ctx context.Context, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error)
}

// TransactionWriterSvc defines the mutating operations of the transaction state machine
type TransactionWriterSvc interface {
	// CreateTransaction opens a payment intent with the named gateway, computes
	// commission from the configured rate tables, and persists a pending
	// transaction. A zero amount creates nothing and returns (nil, nil, nil).
	CreateTransaction(ctx context.Context, req dto.CreateTransactionRequest, creatorID string, at time.Time) (*domain.Transaction, *domain.PaymentIntent, error)

	// VerifyTransaction resolves a transaction by gateway identifier (session ID
	// takes precedence) and applies the provider's authoritative result.
	VerifyTransaction(ctx context.Context, sessionID *string, paymentIntentID *string, verifierID string, at time.Time) (*domain.Transaction, error)

	// CompleteTransaction marks a verified transaction as completed, meaning
	// the underlying obligation was fulfilled. Completed transactions remain
	// refundable.
	CompleteTransaction(ctx context.Context, transactionID string, actorID string, at time.Time) (*domain.Transaction, error)

	// RefundTransaction refunds part or all of a refundable transaction. A nil
	// amount refunds the full refundable balance. Returns the refund itself, a
	// new expense transaction; the original row's amount is never changed.
	RefundTransaction(ctx context.Context, transactionID string, amount *decimal.Decimal, reason *string, actorID string, at time.Time) (*domain.Transaction, error)

	// HandleProviderWebhook parses an inbound gateway notification through the
	// named provider and applies the same status mapping as VerifyTransaction.
	HandleProviderWebhook(ctx context.Context, providerName string, payload []byte, headers map[string]string, at time.Time) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all transaction-related service interfaces
// This is a facade for clients that need access to all operations
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWriterSvc
}
