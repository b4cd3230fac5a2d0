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

const refreshTokenColumns = `id, user_id, token_hash, family_id, expires_at, revoked, revoked_at,
	created_by_ip, user_agent, created_at, updated_at`

type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func scanRefreshToken(row pgx.Row) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.FamilyID, &t.ExpiresAt, &t.Revoked,
		&t.RevokedAt, &t.CreatedIP, &t.UserAgent, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (`+refreshTokenColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.UserID, t.TokenHash, t.FamilyID, t.ExpiresAt, t.Revoked, t.RevokedAt,
		t.CreatedIP, t.UserAgent, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	t, err := scanRefreshToken(r.pool.QueryRow(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens WHERE token_hash = $1`, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, apierror.RefreshTokenInvalid
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return t, nil
}

// Rotate revokes the token only if it is still live and returns the row as it
// was before revocation. Exactly one of several concurrent callers wins.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, tokenHash string, now time.Time) (model.RefreshToken, error) {
	t, err := scanRefreshToken(r.pool.QueryRow(ctx,
		`UPDATE refresh_tokens
		 SET revoked = true, revoked_at = $2, updated_at = $2
		 WHERE token_hash = $1 AND NOT revoked AND expires_at > $2
		 RETURNING `+refreshTokenColumns, tokenHash, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, apierror.RefreshTokenInvalid
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true, revoked_at = $2, updated_at = $2
		 WHERE token_hash = $1 AND NOT revoked`, tokenHash, now)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true, revoked_at = $2, updated_at = $2
		 WHERE family_id = $1 AND NOT revoked`, familyID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke token family: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked = true, revoked_at = $2, updated_at = $2
		 WHERE user_id = $1 AND NOT revoked`, userID, now)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]model.RefreshToken, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+refreshTokenColumns+` FROM refresh_tokens
		 WHERE user_id = $1 AND NOT revoked AND expires_at > $2
		 ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list refresh tokens: %w", err)
	}
	defer rows.Close()

	tokens := make([]model.RefreshToken, 0)
	for rows.Next() {
		t, err := scanRefreshToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan refresh token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// CleanExpired removes tokens past expiry. Revoked but unexpired rows are kept
// so replay of a rotated token is still recognised.
func (r *RefreshTokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
