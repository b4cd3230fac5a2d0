package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p model.Profile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, bio, avatar_url, address, phone_number, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.UserID, p.Bio, p.AvatarURL, p.Address, p.PhoneNumber, p.CreatedAt, p.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return apierror.ProfileExists
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByUser(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, bio, avatar_url, address, phone_number, created_at, updated_at
		 FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Bio, &p.AvatarURL, &p.Address, &p.PhoneNumber, &p.CreatedAt, &p.UpdatedAt)
	if noRow(err) {
		return model.Profile{}, apierror.ProfileNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p model.Profile) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET bio = $2, avatar_url = $3, address = $4, phone_number = $5, updated_at = $6
		 WHERE user_id = $1`,
		p.UserID, p.Bio, p.AvatarURL, p.Address, p.PhoneNumber, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.ProfileNotFound
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.ProfileNotFound
	}
	return nil
}
