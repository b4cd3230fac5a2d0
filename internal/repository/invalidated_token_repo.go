package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
)

type InvalidatedTokenRepository struct {
	pool *pgxpool.Pool
}

func NewInvalidatedTokenRepository(pool *pgxpool.Pool) *InvalidatedTokenRepository {
	return &InvalidatedTokenRepository{pool: pool}
}

func (r *InvalidatedTokenRepository) Add(ctx context.Context, t model.InvalidatedToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invalidated_tokens (id, expires_at) VALUES ($1, $2)
		 ON CONFLICT (id) DO NOTHING`, t.ID, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("invalidate token: %w", err)
	}
	return nil
}

func (r *InvalidatedTokenRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM invalidated_tokens WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invalidated token: %w", err)
	}
	return exists, nil
}

func (r *InvalidatedTokenRepository) CleanExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invalidated_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("clean invalidated tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
