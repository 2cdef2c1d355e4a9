package pgsql

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/payment_ledger_app/internal/models"
	"github.com/SscSPs/payment_ledger_app/internal/utils/mapping"
	"github.com/SscSPs/payment_ledger_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxTransactionRepository implements transaction persistence using pgx.
type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new instance of PgxTransactionRepository
func newPgxTransactionRepository(db *pgxpool.Pool) portsrepo.TransactionRepositoryWithTx {
	return &PgxTransactionRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const (
	transactionsTable = "transactions"

	selectTransactionFields = `
		transaction_id, idempotency_key, direction, category, status, amount, currency, gateway,
		gateway_session_id, gateway_payment_intent_id, commission, escrow, splits,
		refunded_amount, refunded_at, reference_id, reference_model, verified_at, verified_by,
		created_at, created_by, last_updated_at, last_updated_by, version
	`

	insertTransactionQuery = `
		INSERT INTO ` + transactionsTable + ` (
			transaction_id, idempotency_key, direction, category, status, amount, currency, gateway,
			gateway_session_id, gateway_payment_intent_id, commission, escrow, splits,
			refunded_amount, refunded_at, reference_id, reference_model, verified_at, verified_by,
			created_at, created_by, last_updated_at, last_updated_by, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24
		)
	`

	// The idempotency key never changes after insert; everything else mutable
	// is rewritten. The version guard makes lost updates impossible.
	updateTransactionQuery = `
		UPDATE ` + transactionsTable + `
		SET
			direction = $2,
			category = $3,
			status = $4,
			amount = $5,
			currency = $6,
			gateway = $7,
			gateway_session_id = $8,
			gateway_payment_intent_id = $9,
			commission = $10,
			escrow = $11,
			splits = $12,
			refunded_amount = $13,
			refunded_at = $14,
			reference_id = $15,
			reference_model = $16,
			verified_at = $17,
			verified_by = $18,
			last_updated_at = $19,
			last_updated_by = $20,
			version = version + 1
		WHERE transaction_id = $1 AND version = $21
	`

	updateTransactionStatusQuery = `
		UPDATE ` + transactionsTable + `
		SET
			status = $3,
			verified_at = COALESCE($4, verified_at),
			verified_by = COALESCE($5, verified_by),
			last_updated_at = $6,
			last_updated_by = $7,
			version = version + 1
		WHERE transaction_id = $1 AND status = $2
	`
)

// insertTransactionArgs lays out a model row in insertTransactionQuery order.
func insertTransactionArgs(m models.Transaction) []interface{} {
	return []interface{}{
		m.TransactionID,
		m.IdempotencyKey,
		m.Direction,
		m.Category,
		m.Status,
		m.Amount,
		m.Currency,
		m.Gateway,
		m.GatewaySessionID,
		m.GatewayPaymentIntentID,
		m.Commission,
		m.Escrow,
		m.Splits,
		m.RefundedAmount,
		m.RefundedAt,
		m.ReferenceID,
		m.ReferenceModel,
		m.VerifiedAt,
		m.VerifiedBy,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	}
}

// updateTransactionArgs lays out a model row in updateTransactionQuery order.
func updateTransactionArgs(m models.Transaction) []interface{} {
	return []interface{}{
		m.TransactionID,
		m.Direction,
		m.Category,
		m.Status,
		m.Amount,
		m.Currency,
		m.Gateway,
		m.GatewaySessionID,
		m.GatewayPaymentIntentID,
		m.Commission,
		m.Escrow,
		m.Splits,
		m.RefundedAmount,
		m.RefundedAt,
		m.ReferenceID,
		m.ReferenceModel,
		m.VerifiedAt,
		m.VerifiedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	}
}

// scanTransaction scans a transaction row in selectTransactionFields order.
func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.IdempotencyKey,
		&m.Direction,
		&m.Category,
		&m.Status,
		&m.Amount,
		&m.Currency,
		&m.Gateway,
		&m.GatewaySessionID,
		&m.GatewayPaymentIntentID,
		&m.Commission,
		&m.Escrow,
		&m.Splits,
		&m.RefundedAmount,
		&m.RefundedAt,
		&m.ReferenceID,
		&m.ReferenceModel,
		&m.VerifiedAt,
		&m.VerifiedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.Version,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTransaction persists a new transaction row.
func (r *PgxTransactionRepository) CreateTransaction(ctx context.Context, txn domain.Transaction) error {
	modelTxn, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode transaction "+txn.TransactionID, err)
	}

	_, err = r.Pool.Exec(ctx, insertTransactionQuery, insertTransactionArgs(modelTxn)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewAppError(409, "transaction with idempotency key "+txn.IdempotencyKey+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert transaction "+txn.TransactionID, err)
	}
	return nil
}

// SaveTransaction rewrites the mutable state of an existing transaction.
// A stale version writes nothing and surfaces ErrConflict.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	modelTxn, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode transaction "+txn.TransactionID, err)
	}

	cmdTag, err := r.Pool.Exec(ctx, updateTransactionQuery, updateTransactionArgs(modelTxn)...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transaction "+txn.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "transaction "+txn.TransactionID+" was modified concurrently", apperrors.ErrConflict)
	}
	return nil
}

// SaveTransactionWithSatellites persists a version-guarded update to the
// original transaction and inserts its satellite rows in one database
// transaction. Either everything lands or nothing does.
func (r *PgxTransactionRepository) SaveTransactionWithSatellites(ctx context.Context, original domain.Transaction, satellites []domain.Transaction) error {
	modelOriginal, err := mapping.ToModelTransaction(original)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode transaction "+original.TransactionID, err)
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	cmdTag, err := tx.Exec(ctx, updateTransactionQuery, updateTransactionArgs(modelOriginal)...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update transaction "+original.TransactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "transaction "+original.TransactionID+" was modified concurrently", apperrors.ErrConflict)
	}

	batch := &pgx.Batch{}
	for _, sat := range satellites {
		modelSat, err := mapping.ToModelTransaction(sat)
		if err != nil {
			return apperrors.NewAppError(500, "failed to encode transaction "+sat.TransactionID, err)
		}
		batch.Queue(insertTransactionQuery, insertTransactionArgs(modelSat)...)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewAppError(409, "satellite transaction already exists for "+original.TransactionID, apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert satellite transactions for "+original.TransactionID, err)
	}

	return r.Commit(ctx, tx)
}

// UpdateTransactionStatusIfCurrent transitions status only when the stored
// status still equals expected. Verification fields are written when supplied
// and left untouched when nil.
func (r *PgxTransactionRepository) UpdateTransactionStatusIfCurrent(ctx context.Context, transactionID string, expected domain.TransactionStatus, next domain.TransactionStatus, verifiedAt *time.Time, verifiedBy *string, updatedBy string, updatedAt time.Time) error {
	cmdTag, err := r.Pool.Exec(ctx, updateTransactionStatusQuery,
		transactionID,
		string(expected),
		string(next),
		verifiedAt,
		verifiedBy,
		updatedAt,
		updatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to transition transaction "+transactionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "transaction "+transactionID+" is no longer "+string(expected), apperrors.ErrConflict)
	}
	return nil
}

// FindTransactionByID retrieves a transaction by its ID.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE transaction_id = $1;
	`
	row := r.Pool.QueryRow(ctx, query, transactionID)
	modelTxn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction " + transactionID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction "+transactionID, err)
	}

	domainTxn, err := mapping.ToDomainTransaction(*modelTxn)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode transaction "+transactionID, err)
	}
	return &domainTxn, nil
}

// FindTransactionByIdempotencyKey retrieves the transaction created under a key.
func (r *PgxTransactionRepository) FindTransactionByIdempotencyKey(ctx context.Context, idempotencyKey string) (*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE idempotency_key = $1;
	`
	row := r.Pool.QueryRow(ctx, query, idempotencyKey)
	modelTxn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction for idempotency key not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by idempotency key", err)
	}

	domainTxn, err := mapping.ToDomainTransaction(*modelTxn)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode transaction "+modelTxn.TransactionID, err)
	}
	return &domainTxn, nil
}

// FindTransactionByGatewayID resolves a transaction from gateway identifiers.
// A session ID match wins over a payment-intent ID match.
func (r *PgxTransactionRepository) FindTransactionByGatewayID(ctx context.Context, sessionID *string, paymentIntentID *string) (*domain.Transaction, error) {
	if sessionID != nil && *sessionID != "" {
		txn, err := r.findByGatewayColumn(ctx, "gateway_session_id", *sessionID)
		if err == nil || !errors.Is(err, apperrors.ErrNotFound) {
			return txn, err
		}
	}
	if paymentIntentID != nil && *paymentIntentID != "" {
		return r.findByGatewayColumn(ctx, "gateway_payment_intent_id", *paymentIntentID)
	}
	return nil, apperrors.NewNotFoundError("transaction for gateway identifiers not found")
}

func (r *PgxTransactionRepository) findByGatewayColumn(ctx context.Context, column, value string) (*domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`
	row := r.Pool.QueryRow(ctx, query, value)
	modelTxn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("transaction for gateway identifiers not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find transaction by gateway identifier", err)
	}

	domainTxn, err := mapping.ToDomainTransaction(*modelTxn)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to decode transaction "+modelTxn.TransactionID, err)
	}
	return &domainTxn, nil
}

// ListTransactions retrieves a page of transactions ordered newest first,
// optionally filtered by category and status.
func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, limit int, nextToken *string, category *string, status *domain.TransactionStatus) ([]domain.Transaction, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to learn whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable

	var conditions []string
	var args []interface{}

	if category != nil && *category != "" {
		args = append(args, *category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if status != nil && *status != "" {
		args = append(args, string(*status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	if nextToken != nil && *nextToken != "" {
		fields, decodeErr := pagination.DecodeMultiFieldToken(*nextToken)
		if decodeErr != nil || len(fields) != 2 {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		lastCreatedAt, parseErr := time.Parse(time.RFC3339Nano, fields[0])
		if parseErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", parseErr)
		}
		args = append(args, lastCreatedAt, fields[1])
		// Stable ordering lets a tuple comparison resume exactly after the cursor.
		conditions = append(conditions, "(created_at, transaction_id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, transaction_id DESC LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query transactions", err)
	}
	defer rows.Close()

	modelTxns := make([]models.Transaction, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan transaction row", scanErr)
		}
		modelTxns = append(modelTxns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	var nextTokenVal *string
	results := modelTxns
	if len(modelTxns) > limit {
		last := modelTxns[limit-1]
		newToken := pagination.EncodeMultiFieldToken(last.CreatedAt.Format(time.RFC3339Nano), last.TransactionID)
		nextTokenVal = &newToken
		results = modelTxns[:limit]
	}

	domainTxns, err := mapping.ToDomainTransactionSlice(results)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to decode transaction rows", err)
	}
	return domainTxns, nextTokenVal, nil
}

// FindTransactionsByReference retrieves all transactions carrying a reference,
// oldest first so satellites follow their originals.
func (r *PgxTransactionRepository) FindTransactionsByReference(ctx context.Context, referenceID string, referenceModel string) ([]domain.Transaction, error) {
	query := `
		SELECT ` + selectTransactionFields + `
		FROM ` + transactionsTable + `
		WHERE reference_id = $1 AND reference_model = $2
		ORDER BY created_at ASC, transaction_id ASC;
	`
	rows, err := r.Pool.Query(ctx, query, referenceID, referenceModel)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query transactions by reference", err)
	}
	defer rows.Close()

	var modelTxns []models.Transaction
	for rows.Next() {
		m, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row", scanErr)
		}
		modelTxns = append(modelTxns, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}

	return mapping.ToDomainTransactionSlice(modelTxns)
}
