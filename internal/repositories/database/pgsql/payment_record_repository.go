package pgsql

import (
	"context"
	"errors"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/payment_ledger_app/internal/models"
	"github.com/SscSPs/payment_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPaymentRecordRepository persists offline payment intents using pgx.
type PgxPaymentRecordRepository struct {
	BaseRepository
}

// newPgxPaymentRecordRepository creates a new instance of PgxPaymentRecordRepository
func newPgxPaymentRecordRepository(db *pgxpool.Pool) portsrepo.PaymentRecordRepository {
	return &PgxPaymentRecordRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const (
	paymentRecordsTable = "payment_records"

	selectPaymentRecordFields = `
		intent_id, gateway, amount, currency, status, instructions,
		paid_at, refunded_amount, created_at, updated_at
	`
)

// CreatePaymentRecord persists a new payment record.
func (r *PgxPaymentRecordRepository) CreatePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error {
	query := `
		INSERT INTO ` + paymentRecordsTable + ` (
			intent_id, gateway, amount, currency, status, instructions,
			paid_at, refunded_amount, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	m := mapping.ToModelPaymentRecord(rec)

	_, err := r.Pool.Exec(ctx, query,
		m.IntentID,
		m.Gateway,
		m.Amount,
		m.Currency,
		m.Status,
		m.Instructions,
		m.PaidAt,
		m.RefundedAmount,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewAppError(409, "payment record "+rec.IntentID+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert payment record "+rec.IntentID, err)
	}
	return nil
}

// FindPaymentRecordByID retrieves a payment record by its intent ID.
func (r *PgxPaymentRecordRepository) FindPaymentRecordByID(ctx context.Context, intentID string) (*domain.PaymentRecord, error) {
	query := `
		SELECT ` + selectPaymentRecordFields + `
		FROM ` + paymentRecordsTable + `
		WHERE intent_id = $1;
	`
	var m models.PaymentRecord
	err := r.Pool.QueryRow(ctx, query, intentID).Scan(
		&m.IntentID,
		&m.Gateway,
		&m.Amount,
		&m.Currency,
		&m.Status,
		&m.Instructions,
		&m.PaidAt,
		&m.RefundedAmount,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("payment record " + intentID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find payment record "+intentID, err)
	}

	rec := mapping.ToDomainPaymentRecord(m)
	return &rec, nil
}

// SavePaymentRecord persists the full mutable state of a payment record.
func (r *PgxPaymentRecordRepository) SavePaymentRecord(ctx context.Context, rec domain.PaymentRecord) error {
	query := `
		UPDATE ` + paymentRecordsTable + `
		SET
			status = $2,
			instructions = $3,
			paid_at = $4,
			refunded_amount = $5,
			updated_at = $6
		WHERE intent_id = $1;
	`
	m := mapping.ToModelPaymentRecord(rec)

	cmdTag, err := r.Pool.Exec(ctx, query,
		m.IntentID,
		m.Status,
		m.Instructions,
		m.PaidAt,
		m.RefundedAmount,
		m.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update payment record "+rec.IntentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("payment record " + rec.IntentID + " not found")
	}
	return nil
}
