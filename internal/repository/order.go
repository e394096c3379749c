package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/backend/internal/domain/order"
)

const (
	// Locks the user's cart rows for the duration of the placement
	// transaction. A concurrent placement by the same user blocks here and
	// then sees an empty cart, so one cart can never yield two orders.
	lockPricedLinesSQL = `SELECT v.id, v.product_name, v.unit, v.unit_price, v.discount_percent, v.stock, cl.quantity
		FROM cart_lines cl
		JOIN variants v ON v.id = cl.variant_id
		WHERE cl.user_id = $1
		ORDER BY cl.added_at, cl.id
		FOR UPDATE OF cl`

	insertOrderSQL = `INSERT INTO orders (id, user_id, status, note, coupon_code,
			discount_amount, tax_amount, shipping_fee, total_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, variant_id, quantity, price_at_order)
		VALUES ($1, $2, $3, $4)`

	insertPaymentSQL = `INSERT INTO payments (order_id, payment_method, payment_status, amount_paid)
		VALUES ($1, $2, $3, $4)`

	insertDeliverySQL = `INSERT INTO deliveries (id, order_id, delivery_person, delivery_status)
		VALUES ($1, $2, $3, $4)`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1`

	listOrdersByUserSQL = `SELECT id, user_id, status, note, coupon_code,
			discount_amount, tax_amount, shipping_fee, total_amount, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Place runs the placement transaction: lock and read the user's cart lines,
// let build produce the write set, persist order, items, payment and
// delivery, clear the cart, commit. Any error rolls the whole unit back.
func (r *OrderRepository) Place(ctx context.Context, userID uuid.UUID, build order.BuildFunc) (*order.Order, error) {
	var placed *order.Order

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, lockPricedLinesSQL, userID)
		if err != nil {
			return fmt.Errorf("locking cart lines: %w", err)
		}
		lines, err := pgx.CollectRows(rows, scanPricedLine)
		if err != nil {
			return fmt.Errorf("reading cart lines: %w", err)
		}

		p, err := build(ctx, lines)
		if err != nil {
			return err
		}

		o := p.Order
		if _, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.UserID, o.Status, o.Note, o.CouponCode,
			o.DiscountAmount, o.TaxAmount, o.ShippingFee, o.TotalAmount, o.CreatedAt,
		); err != nil {
			return fmt.Errorf("creating order %s: %w", o.ID, err)
		}

		batch := &pgx.Batch{}
		for _, it := range p.Items {
			batch.Queue(insertOrderItemSQL, it.OrderID, it.VariantID, it.Quantity, it.PriceAtOrder)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("creating order items: %w", err)
		}

		if _, err := tx.Exec(ctx, insertPaymentSQL,
			p.Payment.OrderID, p.Payment.Method, p.Payment.Status, p.Payment.AmountPaid,
		); err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}

		if _, err := tx.Exec(ctx, insertDeliverySQL,
			p.Delivery.ID, p.Delivery.OrderID, p.Delivery.DeliveryPersonID, p.Delivery.Status,
		); err != nil {
			return fmt.Errorf("creating delivery: %w", err)
		}

		if _, err := tx.Exec(ctx, clearCartSQL, userID); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}

		placed = &o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.Note, &o.CouponCode,
		&o.DiscountAmount, &o.TaxAmount, &o.ShippingFee, &o.TotalAmount, &o.CreatedAt,
	)
	return o, err
}
