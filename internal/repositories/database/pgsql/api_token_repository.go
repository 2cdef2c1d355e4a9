package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/payment_ledger_app/internal/apperrors"
	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
	portsrepo "github.com/SscSPs/payment_ledger_app/internal/core/ports/repositories"
	"github.com/SscSPs/payment_ledger_app/internal/models"
	"github.com/SscSPs/payment_ledger_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAPITokenRepository struct {
	BaseRepository
}

// newPgxAPITokenRepository creates a new instance of PgxAPITokenRepository
func newPgxAPITokenRepository(db *pgxpool.Pool) portsrepo.APITokenRepositoryWithTx {
	return &PgxAPITokenRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// queryRow is a helper method to execute a query that returns a single row
func (r *PgxAPITokenRepository) queryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return r.Pool.QueryRow(ctx, sql, args...)
}

// query is a helper method to execute a query that returns multiple rows
func (r *PgxAPITokenRepository) query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return r.Pool.Query(ctx, sql, args...)
}

// exec is a helper method to execute a query that doesn't return rows
func (r *PgxAPITokenRepository) exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return r.Pool.Exec(ctx, sql, args...)
}

const (
	apiTokensTable = "api_tokens"

	selectAPITokenFields = `
		id, name, secret_hash, last_used_at, expires_at,
		refresh_token_hash, refresh_token_expiry_time, created_at, updated_at, deleted_at
	`

	insertAPITokenQuery = `
		INSERT INTO ` + apiTokensTable + ` (
			id, name, secret_hash, expires_at,
			refresh_token_hash, refresh_token_expiry_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	findAPITokenByIDQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE id = $1 AND deleted_at IS NULL
	`

	findAllAPITokensQuery = `
		SELECT ` + selectAPITokenFields + `
		FROM ` + apiTokensTable + `
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	updateAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET
			name = $2,
			secret_hash = $3,
			last_used_at = $4,
			expires_at = $5,
			refresh_token_hash = $6,
			refresh_token_expiry_time = $7,
			updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	deleteAPITokenQuery = `
		UPDATE ` + apiTokensTable + `
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	deleteAllAPITokensQuery = `
		UPDATE ` + apiTokensTable + `
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE deleted_at IS NULL
	`

	deleteExpiredAPITokensQuery = `
		UPDATE ` + apiTokensTable + `
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE expires_at < $1 AND deleted_at IS NULL
	`
)

// Create persists a new API token. The caller supplies the ID and timestamps.
func (r *PgxAPITokenRepository) Create(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	modelToken := mapping.ToModelAPIToken(*token)

	_, err := r.exec(
		ctx,
		insertAPITokenQuery,
		modelToken.ID,
		modelToken.Name,
		modelToken.SecretHash,
		modelToken.ExpiresAt,
		modelToken.RefreshTokenHash,
		modelToken.RefreshTokenExpiryTime,
		modelToken.CreatedAt,
		modelToken.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return apperrors.NewAppError(409, "API token "+token.ID+" already exists", apperrors.ErrDuplicate)
		}
		return apperrors.NewAppError(500, "failed to insert API token", err)
	}
	return nil
}

// FindByID retrieves an API token by its ID
func (r *PgxAPITokenRepository) FindByID(ctx context.Context, id string) (*domain.APIToken, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty")
	}

	row := r.queryRow(ctx, findAPITokenByIDQuery, id)
	token, err := scanAPIToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("API token " + id + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find API token", err)
	}

	domainToken := mapping.ToDomainAPIToken(*token)
	return &domainToken, nil
}

// FindAll retrieves all non-deleted API tokens
func (r *PgxAPITokenRepository) FindAll(ctx context.Context) ([]domain.APIToken, error) {
	rows, err := r.query(ctx, findAllAPITokensQuery)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list API tokens", err)
	}
	defer rows.Close()

	var tokens []models.APIToken
	for rows.Next() {
		token, err := scanAPIToken(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan API token", err)
		}
		tokens = append(tokens, *token)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to read API tokens", err)
	}

	return mapping.ToDomainAPITokenSlice(tokens), nil
}

// Update persists the mutable fields of an existing API token
func (r *PgxAPITokenRepository) Update(ctx context.Context, token *domain.APIToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}

	modelToken := mapping.ToModelAPIToken(*token)
	updatedAt := time.Now()

	result, err := r.exec(
		ctx,
		updateAPITokenQuery,
		modelToken.ID,
		modelToken.Name,
		modelToken.SecretHash,
		modelToken.LastUsedAt,
		modelToken.ExpiresAt,
		modelToken.RefreshTokenHash,
		modelToken.RefreshTokenExpiryTime,
		updatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update API token", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("API token " + token.ID + " not found")
	}

	token.UpdatedAt = updatedAt
	return nil
}

// Delete removes an API token by ID (soft delete)
func (r *PgxAPITokenRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}

	result, err := r.exec(ctx, deleteAPITokenQuery, id)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete API token", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("API token " + id + " not found")
	}
	return nil
}

// DeleteAll removes every API token (soft delete)
func (r *PgxAPITokenRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.exec(ctx, deleteAllAPITokensQuery); err != nil {
		return apperrors.NewAppError(500, "failed to delete API tokens", err)
	}
	return nil
}

// DeleteExpired removes all tokens that expired before the given time (soft delete)
func (r *PgxAPITokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, errors.New("invalid time provided")
	}

	result, err := r.exec(ctx, deleteExpiredAPITokensQuery, before)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to delete expired API tokens", err)
	}
	return result.RowsAffected(), nil
}

// WithTx returns the repository unchanged; token writes are single statements.
func (r *PgxAPITokenRepository) WithTx(tx interface{}) portsrepo.APITokenRepository {
	return r
}

// scanAPIToken scans an API token from a row
func scanAPIToken(row pgx.Row) (*models.APIToken, error) {
	var token models.APIToken
	err := row.Scan(
		&token.ID,
		&token.Name,
		&token.SecretHash,
		&token.LastUsedAt,
		&token.ExpiresAt,
		&token.RefreshTokenHash,
		&token.RefreshTokenExpiryTime,
		&token.CreatedAt,
		&token.UpdatedAt,
		&token.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &token, nil
}
