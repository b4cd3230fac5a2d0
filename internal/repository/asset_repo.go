package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const assetColumns = `id, collection_id, filename, storage_key, file_type, file_size, thumbnail_url,
	tags, is_deleted, created_at, updated_at`

type AssetRepository struct {
	pool *pgxpool.Pool
}

func NewAssetRepository(pool *pgxpool.Pool) *AssetRepository {
	return &AssetRepository{pool: pool}
}

func scanAsset(row pgx.Row) (model.Asset, error) {
	var a model.Asset
	err := row.Scan(&a.ID, &a.CollectionID, &a.Filename, &a.StorageKey, &a.FileType, &a.FileSize,
		&a.ThumbnailURL, &a.Tags, &a.Deleted, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *AssetRepository) Create(ctx context.Context, a model.Asset) error {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.CollectionID, a.Filename, a.StorageKey, a.FileType, a.FileSize,
		a.ThumbnailURL, tags, a.Deleted, a.CreatedAt, a.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return model.ErrDuplicateKey
	}
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (r *AssetRepository) FindByID(ctx context.Context, id string) (model.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if noRow(err) {
		return model.Asset{}, apierror.AssetNotFound.WithDetails(id)
	}
	if err != nil {
		return model.Asset{}, fmt.Errorf("find asset: %w", err)
	}
	return a, nil
}

// ListByCollection pages over live assets. A non-positive limit returns all of them.
func (r *AssetRepository) ListByCollection(ctx context.Context, collectionID string, page int, limit int) ([]model.Asset, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assets WHERE collection_id = $1 AND NOT is_deleted`,
		collectionID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}

	query := `SELECT ` + assetColumns + ` FROM assets
		WHERE collection_id = $1 AND NOT is_deleted ORDER BY created_at DESC`
	args := []any{collectionID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset(page, limit))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, total, rows.Err()
}

// SoftDelete flags the asset deleted and reports whether this call changed it.
func (r *AssetRepository) SoftDelete(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET is_deleted = true, updated_at = $2 WHERE id = $1 AND NOT is_deleted`, id, now)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AssetRepository) Update(ctx context.Context, a model.Asset) error {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET filename = $2, thumbnail_url = $3, tags = $4, updated_at = $5
		 WHERE id = $1 AND NOT is_deleted`,
		a.ID, a.Filename, a.ThumbnailURL, tags, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.AssetNotFound.WithDetails(a.ID)
	}
	return nil
}

// ListDeletedByOwner pages over the trashed assets across every collection of the owner,
// most recently deleted first.
func (r *AssetRepository) ListDeletedByOwner(ctx context.Context, ownerID string, page int, limit int) ([]model.Asset, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assets a JOIN collections c ON c.id = a.collection_id
		 WHERE c.owner_id = $1 AND a.is_deleted`,
		ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deleted assets: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.collection_id, a.filename, a.storage_key, a.file_type, a.file_size,
			a.thumbnail_url, a.tags, a.is_deleted, a.created_at, a.updated_at
		 FROM assets a JOIN collections c ON c.id = a.collection_id
		 WHERE c.owner_id = $1 AND a.is_deleted
		 ORDER BY a.updated_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list deleted assets: %w", err)
	}
	defer rows.Close()

	assets := make([]model.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, total, rows.Err()
}

// Restore clears the deleted flag and reports whether this call changed it.
func (r *AssetRepository) Restore(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assets SET is_deleted = false, updated_at = $2 WHERE id = $1 AND is_deleted`, id, now)
	if err != nil {
		return false, fmt.Errorf("restore asset: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *AssetRepository) HardDelete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("hard delete asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.AssetNotFound.WithDetails(id)
	}
	return nil
}
