package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/backend/internal/domain/cart"
	"github.com/freshkart/backend/internal/domain/checkout"
)

const (
	addCartLineSQL = `INSERT INTO cart_lines (id, user_id, variant_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, variant_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, user_id, variant_id, quantity, added_at`

	listCartLinesSQL = `SELECT id, user_id, variant_id, quantity, added_at
		FROM cart_lines WHERE user_id = $1 ORDER BY added_at, id`

	removeCartLineSQL = `DELETE FROM cart_lines WHERE id = $1 AND user_id = $2`

	listPricedLinesSQL = `SELECT v.id, v.product_name, v.unit, v.unit_price, v.discount_percent, v.stock, cl.quantity
		FROM cart_lines cl
		JOIN variants v ON v.id = cl.variant_id
		WHERE cl.user_id = $1
		ORDER BY cl.added_at, cl.id`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Add upserts a cart line: an existing (user, variant) line gets the
// quantity added, otherwise a new line is inserted.
func (r *CartRepository) Add(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, addCartLineSQL, uuid.New(), userID, variantID, quantity)
	if err != nil {
		return nil, fmt.Errorf("adding cart line: %w", err)
	}

	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("adding cart line: %w", err)
	}
	return &l, nil
}

// ListByUser returns the user's cart lines in insertion order.
func (r *CartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Remove deletes one line owned by the user.
func (r *CartRepository) Remove(ctx context.Context, lineID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, removeCartLineSQL, lineID, userID)
	if err != nil {
		return fmt.Errorf("removing cart line %s: %w", lineID, err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// ListPricedByUser returns the cart joined with variant price snapshots,
// ready for a checkout preview. No locks are taken; the placement
// transaction re-reads the cart under lock.
func (r *CartRepository) ListPricedByUser(ctx context.Context, userID uuid.UUID) ([]checkout.Line, error) {
	rows, err := r.pool.Query(ctx, listPricedLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing priced cart lines: %w", err)
	}
	return pgx.CollectRows(rows, scanPricedLine)
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.UserID, &l.VariantID, &l.Quantity, &l.AddedAt)
	return l, err
}

func scanPricedLine(row pgx.CollectableRow) (checkout.Line, error) {
	var l checkout.Line
	err := row.Scan(
		&l.Variant.ID, &l.Variant.ProductName, &l.Variant.Unit,
		&l.Variant.UnitPrice, &l.Variant.DiscountPercent, &l.Variant.Stock,
		&l.Quantity,
	)
	return l, err
}
