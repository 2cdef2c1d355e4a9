package pgsql

import (
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	transactionRepo := newPgxTransactionRepository(dbPool)
	subscriptionRepo := newPgxSubscriptionRepository(dbPool)
	paymentRecordRepo := newPgxPaymentRecordRepository(dbPool)
	apiTokenRepo := newPgxAPITokenRepository(dbPool)

	return portsrepo.RepositoryProvider{
		TransactionRepo:   transactionRepo,
		SubscriptionRepo:  subscriptionRepo,
		PaymentRecordRepo: paymentRecordRepo,
		APITokenRepo:      apiTokenRepo,
	}
}
