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

// PgxSubscriptionRepository implements subscription persistence using pgx.
type PgxSubscriptionRepository struct {
	BaseRepository
}

// newPgxSubscriptionRepository creates a new instance of PgxSubscriptionRepository
func newPgxSubscriptionRepository(db *pgxpool.Pool) portsrepo.SubscriptionRepositoryWithTx {
	return &PgxSubscriptionRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const (
	subscriptionsTable = "subscriptions"

	selectSubscriptionFields = `
		subscription_id, plan_key, amount, currency, category, gateway, status, billing_interval,
		current_period_start, current_period_end, paused_at, pause_reason,
		cancelled_at, cancel_at_period_end, renewal_count, reference_id, reference_model,
		created_at, created_by, last_updated_at, last_updated_by, version
	`

	insertSubscriptionQuery = `
		INSERT INTO ` + subscriptionsTable + ` (
			subscription_id, plan_key, amount, currency, category, gateway, status, billing_interval,
			current_period_start, current_period_end, paused_at, pause_reason,
			cancelled_at, cancel_at_period_end, renewal_count, reference_id, reference_model,
			created_at, created_by, last_updated_at, last_updated_by, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22
		)
	`

	updateSubscriptionQuery = `
		UPDATE ` + subscriptionsTable + `
		SET
			plan_key = $2,
			amount = $3,
			currency = $4,
			category = $5,
			gateway = $6,
			status = $7,
			billing_interval = $8,
			current_period_start = $9,
			current_period_end = $10,
			paused_at = $11,
			pause_reason = $12,
			cancelled_at = $13,
			cancel_at_period_end = $14,
			renewal_count = $15,
			reference_id = $16,
			reference_model = $17,
			last_updated_at = $18,
			last_updated_by = $19,
			version = version + 1
		WHERE subscription_id = $1 AND version = $20
	`
)

// scanSubscription scans a subscription row in selectSubscriptionFields order.
func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var m models.Subscription
	err := row.Scan(
		&m.SubscriptionID,
		&m.PlanKey,
		&m.Amount,
		&m.Currency,
		&m.Category,
		&m.Gateway,
		&m.Status,
		&m.Interval,
		&m.CurrentPeriodStart,
		&m.CurrentPeriodEnd,
		&m.PausedAt,
		&m.PauseReason,
		&m.CancelledAt,
		&m.CancelAtPeriodEnd,
		&m.RenewalCount,
		&m.ReferenceID,
		&m.ReferenceModel,
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

// CreateSubscription persists a new subscription row.
func (r *PgxSubscriptionRepository) CreateSubscription(ctx context.Context, sub domain.Subscription) error {
	m := mapping.ToModelSubscription(sub)

	_, err := r.Pool.Exec(ctx, insertSubscriptionQuery,
		m.SubscriptionID,
		m.PlanKey,
		m.Amount,
		m.Currency,
		m.Category,
		m.Gateway,
		m.Status,
		m.Interval,
		m.CurrentPeriodStart,
		m.CurrentPeriodEnd,
		m.PausedAt,
		m.PauseReason,
		m.CancelledAt,
		m.CancelAtPeriodEnd,
		m.RenewalCount,
		m.ReferenceID,
		m.ReferenceModel,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewAppError(409, "subscription "+sub.SubscriptionID+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert subscription "+sub.SubscriptionID, err)
	}
	return nil
}

// SaveSubscription rewrites the mutable state of an existing subscription.
// A stale version writes nothing and surfaces ErrConflict.
func (r *PgxSubscriptionRepository) SaveSubscription(ctx context.Context, sub domain.Subscription) error {
	m := mapping.ToModelSubscription(sub)

	cmdTag, err := r.Pool.Exec(ctx, updateSubscriptionQuery,
		m.SubscriptionID,
		m.PlanKey,
		m.Amount,
		m.Currency,
		m.Category,
		m.Gateway,
		m.Status,
		m.Interval,
		m.CurrentPeriodStart,
		m.CurrentPeriodEnd,
		m.PausedAt,
		m.PauseReason,
		m.CancelledAt,
		m.CancelAtPeriodEnd,
		m.RenewalCount,
		m.ReferenceID,
		m.ReferenceModel,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update subscription "+sub.SubscriptionID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "subscription "+sub.SubscriptionID+" was modified concurrently", apperrors.ErrConflict)
	}
	return nil
}

// FindSubscriptionByID retrieves a subscription by its ID.
func (r *PgxSubscriptionRepository) FindSubscriptionByID(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	query := `
		SELECT ` + selectSubscriptionFields + `
		FROM ` + subscriptionsTable + `
		WHERE subscription_id = $1;
	`
	row := r.Pool.QueryRow(ctx, query, subscriptionID)
	m, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("subscription " + subscriptionID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find subscription "+subscriptionID, err)
	}

	domainSub := mapping.ToDomainSubscription(*m)
	return &domainSub, nil
}

// ListSubscriptions retrieves a page of subscriptions ordered newest first,
// optionally filtered by status.
func (r *PgxSubscriptionRepository) ListSubscriptions(ctx context.Context, limit int, nextToken *string, status *domain.SubscriptionStatus) ([]domain.Subscription, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT ` + selectSubscriptionFields + `
		FROM ` + subscriptionsTable

	var conditions []string
	var args []interface{}

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
		conditions = append(conditions, "(created_at, subscription_id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, subscription_id DESC LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query subscriptions", err)
	}
	defer rows.Close()

	modelSubs := make([]models.Subscription, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanSubscription(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan subscription row", scanErr)
		}
		modelSubs = append(modelSubs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating subscription rows", err)
	}

	var nextTokenVal *string
	results := modelSubs
	if len(modelSubs) > limit {
		last := modelSubs[limit-1]
		newToken := pagination.EncodeMultiFieldToken(last.CreatedAt.Format(time.RFC3339Nano), last.SubscriptionID)
		nextTokenVal = &newToken
		results = modelSubs[:limit]
	}

	return mapping.ToDomainSubscriptionSlice(results), nextTokenVal, nil
}
