package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"arkive/internal/model"
	"arkive/pkg/apierror"
)

const collectionSelect = `SELECT c.id, c.owner_id, c.name, c.description, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM assets a WHERE a.collection_id = c.id AND NOT a.is_deleted)
	FROM collections c`

type CollectionRepository struct {
	pool *pgxpool.Pool
}

func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{pool: pool}
}

func scanCollection(row pgx.Row) (model.Collection, error) {
	var c model.Collection
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt, &c.AssetCount)
	return c, err
}

func (r *CollectionRepository) Create(ctx context.Context, c model.Collection) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO collections (id, owner_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.OwnerID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return apierror.CollectionExists.WithDetails(c.Name)
	}
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

func (r *CollectionRepository) FindByID(ctx context.Context, id string) (model.Collection, error) {
	c, err := scanCollection(r.pool.QueryRow(ctx, collectionSelect+` WHERE c.id = $1`, id))
	if noRow(err) {
		return model.Collection{}, apierror.CollectionNotFound.WithDetails(id)
	}
	if err != nil {
		return model.Collection{}, fmt.Errorf("find collection: %w", err)
	}
	return c, nil
}

func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID string, page int, limit int) ([]model.Collection, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM collections WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		collectionSelect+` WHERE c.owner_id = $1 ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	collections := make([]model.Collection, 0)
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, total, rows.Err()
}

func (r *CollectionRepository) Update(ctx context.Context, c model.Collection) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE collections SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		c.ID, c.Name, c.Description, c.UpdatedAt)
	if _, ok := uniqueViolation(err); ok {
		return apierror.CollectionExists.WithDetails(c.Name)
	}
	if err != nil {
		return fmt.Errorf("update collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.CollectionNotFound.WithDetails(c.ID)
	}
	return nil
}

func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.CollectionNotFound.WithDetails(id)
	}
	return nil
}
