package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const sharedLinkColumns = `id, public_id, password_hash, collection_id, created_at, updated_at`

type SharedLinkRepository struct {
	pool *pgxpool.Pool
}

func NewSharedLinkRepository(pool *pgxpool.Pool) *SharedLinkRepository {
	return &SharedLinkRepository{pool: pool}
}

func scanSharedLink(row pgx.Row) (model.SharedLink, error) {
	var l model.SharedLink
	err := row.Scan(&l.ID, &l.PublicID, &l.PasswordHash, &l.CollectionID, &l.CreatedAt, &l.UpdatedAt)
	return l, err
}

// Create inserts the link. A public id collision yields model.ErrDuplicateKey so
// the caller can regenerate; a second link for the collection is a conflict.
func (r *SharedLinkRepository) Create(ctx context.Context, l model.SharedLink) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO shared_links (`+sharedLinkColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.PublicID, l.PasswordHash, l.CollectionID, l.CreatedAt, l.UpdatedAt)
	if constraint, ok := uniqueViolation(err); ok {
		if strings.Contains(constraint, "collection_id") {
			return apierror.SharedLinkAlreadyExists.WithDetails(l.CollectionID)
		}
		return model.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("create shared link: %w", err)
	}
	return nil
}

func (r *SharedLinkRepository) FindByPublicID(ctx context.Context, publicID string) (model.SharedLink, error) {
	return r.findOne(ctx, `SELECT `+sharedLinkColumns+` FROM shared_links WHERE public_id = $1`, publicID)
}

func (r *SharedLinkRepository) FindByCollectionID(ctx context.Context, collectionID string) (model.SharedLink, error) {
	return r.findOne(ctx, `SELECT `+sharedLinkColumns+` FROM shared_links WHERE collection_id = $1`, collectionID)
}

func (r *SharedLinkRepository) findOne(ctx context.Context, query string, arg string) (model.SharedLink, error) {
	l, err := scanSharedLink(r.pool.QueryRow(ctx, query, arg))
	if noRow(err) {
		return model.SharedLink{}, apierror.SharedLinkNotFound.WithDetails(arg)
	}
	if err != nil {
		return model.SharedLink{}, fmt.Errorf("find shared link: %w", err)
	}
	return l, nil
}

func (r *SharedLinkRepository) ExistsByPublicID(ctx context.Context, publicID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shared_links WHERE public_id = $1)`, publicID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check public id exists: %w", err)
	}
	return exists, nil
}

func (r *SharedLinkRepository) ExistsByCollectionID(ctx context.Context, collectionID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM shared_links WHERE collection_id = $1)`, collectionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check shared link exists: %w", err)
	}
	return exists, nil
}

func (r *SharedLinkRepository) UpdatePassword(ctx context.Context, id string, passwordHash *string, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE shared_links SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, now)
	if err != nil {
		return fmt.Errorf("update shared link password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.SharedLinkNotFound.WithDetails(id)
	}
	return nil
}

func (r *SharedLinkRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM shared_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete shared link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.SharedLinkNotFound.WithDetails(id)
	}
	return nil
}
