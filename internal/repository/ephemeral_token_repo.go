package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

// EphemeralTokenRepository stores single-use codes. One instance serves one
// table; verification codes and password reset codes never share a ledger.
type EphemeralTokenRepository struct {
	pool     *pgxpool.Pool
	table    string
	notFound *apierror.APIError
}

func NewVerificationTokenRepository(pool *pgxpool.Pool) *EphemeralTokenRepository {
	return &EphemeralTokenRepository{pool: pool, table: "verification_tokens", notFound: apierror.VerificationTokenInvalid}
}

func NewPasswordResetTokenRepository(pool *pgxpool.Pool) *EphemeralTokenRepository {
	return &EphemeralTokenRepository{pool: pool, table: "password_reset_tokens", notFound: apierror.ResetPasswordTokenInvalid}
}

func (r *EphemeralTokenRepository) Create(ctx context.Context, t model.EphemeralToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO `+r.table+` (id, code, user_id, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Code, t.UserID, t.ExpiresAt, t.CreatedAt, t.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return model.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("store %s: %w", r.table, err)
	}
	return nil
}

func (r *EphemeralTokenRepository) FindByCode(ctx context.Context, code string) (model.EphemeralToken, error) {
	var t model.EphemeralToken
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, user_id, expires_at, created_at, updated_at
		 FROM `+r.table+` WHERE code = $1`, code).
		Scan(&t.ID, &t.Code, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EphemeralToken{}, r.notFound
	}
	if err != nil {
		return model.EphemeralToken{}, fmt.Errorf("find %s: %w", r.table, err)
	}
	return t, nil
}

func (r *EphemeralTokenRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+r.table+` WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", r.table, err)
	}
	return exists, nil
}

// Consume deletes the code and reports whether this call removed it.
func (r *EphemeralTokenRepository) Consume(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("consume %s: %w", r.table, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *EphemeralTokenRepository) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete %s for user: %w", r.table, err)
	}
	return nil
}

func (r *EphemeralTokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean expired %s: %w", r.table, err)
	}
	return tag.RowsAffected(), nil
}
