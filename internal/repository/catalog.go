package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/backend/internal/domain/catalog"
)

const (
	listVariantsSQL = `SELECT id, product_name, unit, unit_price, discount_percent, stock
		FROM variants ORDER BY product_name, unit`

	getVariantByIDSQL = `SELECT id, product_name, unit, unit_price, discount_percent, stock
		FROM variants WHERE id = $1`
)

var _ catalog.Repository = (*VariantRepository)(nil)

// VariantRepository implements catalog.Repository backed by PostgreSQL.
type VariantRepository struct {
	pool *pgxpool.Pool
}

// NewVariantRepository returns a VariantRepository that uses the given pool.
func NewVariantRepository(pool *pgxpool.Pool) *VariantRepository {
	return &VariantRepository{pool: pool}
}

// List returns all catalog variants in a stable order.
func (r *VariantRepository) List(ctx context.Context) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, listVariantsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing variants: %w", err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// GetByID returns a single variant. Returns catalog.ErrNotFound when no
// matching variant exists.
func (r *VariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %s: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting variant %s: %w", id, err)
	}
	return &v, nil
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ProductName, &v.Unit, &v.UnitPrice, &v.DiscountPercent, &v.Stock)
	return v, err
}
