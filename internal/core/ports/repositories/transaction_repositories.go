package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

// TransactionReader defines read operations for ledger transactions
type TransactionReader interface {
	// FindTransactionByID retrieves a specific transaction by its unique identifier.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindTransactionByIdempotencyKey retrieves the transaction created under a given idempotency key.
	FindTransactionByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.Transaction, error)

	// FindTransactionByGatewayID resolves a transaction from gateway identifiers.
	// A session ID match takes precedence over a payment-intent ID match.
	FindTransactionByGatewayID(ctx context.Context, sessionID *string, paymentIntentID *string) (*domain.Transaction, error)

	// ListTransactions retrieves a paginated list of transactions using token-based pagination,
	// optionally filtered by category and status. It returns the transactions, a token for
	// the next page, and an error.
	ListTransactions(ctx context.Context, limit int, nextToken *string, category *string, status *domain.TransactionStatus) ([]domain.Transaction, *string, error)

	// FindTransactionsByReference retrieves all transactions carrying the given polymorphic reference.
	FindTransactionsByReference(ctx context.Context, referenceID string, referenceModel string) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for ledger transactions
type TransactionWriter interface {
	// CreateTransaction persists a new transaction. A duplicate idempotency key
	// surfaces apperrors.ErrDuplicate.
	CreateTransaction(ctx context.Context, txn domain.Transaction) error

	// SaveTransaction persists the full mutable state of an existing transaction.
	// The write is guarded on txn.Version; a concurrent update surfaces
	// apperrors.ErrConflict and nothing is written.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// SaveTransactionWithSatellites atomically persists a version-guarded update
	// to the original transaction together with newly created satellite rows
	// (refund expense rows, split payout rows).
	SaveTransactionWithSatellites(ctx context.Context, original domain.Transaction, satellites []domain.Transaction) error

	// UpdateTransactionStatusIfCurrent transitions the status only when the stored
	// status equals expected, recording verification fields when supplied. A missed
	// guard surfaces apperrors.ErrConflict. This is the race guard for concurrent
	// webhook delivery versus manual verification.
	UpdateTransactionStatusIfCurrent(ctx context.Context, transactionID string, expected domain.TransactionStatus, next domain.TransactionStatus, verifiedAt *time.Time, verifiedBy *string, updatedBy string, updatedAt time.Time) error
}

// TransactionRepositoryFacade combines all transaction-related repository interfaces
// This is a facade for clients that need access to all operations
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
}

// TransactionRepositoryWithTx extends TransactionRepositoryFacade with transaction capabilities
type TransactionRepositoryWithTx interface {
	TransactionRepositoryFacade
	TransactionManager
}
