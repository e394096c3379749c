package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/backend/internal/domain/delivery"
	"github.com/freshkart/backend/internal/domain/order"
)

const (
	getDeliveryByIDSQL = `SELECT id, order_id, delivery_person, delivery_status, delivered_at
		FROM deliveries WHERE id = $1`

	listDeliveriesByPersonSQL = `SELECT d.id, d.order_id, d.delivery_person, d.delivery_status, d.delivered_at
		FROM deliveries d
		JOIN orders o ON o.id = d.order_id
		WHERE d.delivery_person = $1
		ORDER BY o.created_at DESC`

	updateDeliveryStatusSQL = `UPDATE deliveries
		SET delivery_status = $2, delivered_at = COALESCE($3, delivered_at)
		WHERE id = $1`

	markPaymentPaidSQL = `UPDATE payments SET payment_status = $2
		WHERE order_id = (SELECT order_id FROM deliveries WHERE id = $1)`
)

var _ delivery.Repository = (*DeliveryRepository)(nil)

// DeliveryRepository implements delivery.Repository backed by PostgreSQL.
type DeliveryRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryRepository returns a DeliveryRepository that uses the given pool.
func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

// GetByID returns one delivery. Returns delivery.ErrNotFound when it does
// not exist.
func (r *DeliveryRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Delivery, error) {
	rows, err := r.pool.Query(ctx, getDeliveryByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting delivery %s: %w", id, err)
	}

	d, err := pgx.CollectExactlyOneRow(rows, scanDelivery)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, delivery.ErrNotFound
		}
		return nil, fmt.Errorf("getting delivery %s: %w", id, err)
	}
	return &d, nil
}

// ListByPerson returns the deliveries assigned to one delivery person,
// newest order first.
func (r *DeliveryRepository) ListByPerson(ctx context.Context, personID uuid.UUID) ([]order.Delivery, error) {
	rows, err := r.pool.Query(ctx, listDeliveriesByPersonSQL, personID)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries for %s: %w", personID, err)
	}

	deliveries, err := pgx.CollectRows(rows, scanDelivery)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries for %s: %w", personID, err)
	}
	return deliveries, nil
}

// UpdateStatus persists a status transition. When deliveredAt is set the
// delivery timestamp and the payment's paid flip happen in one transaction:
// both land or neither does.
func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.DeliveryStatus, deliveredAt *time.Time) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateDeliveryStatusSQL, id, status, deliveredAt)
		if err != nil {
			return fmt.Errorf("updating delivery %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return delivery.ErrNotFound
		}

		if deliveredAt != nil {
			if _, err := tx.Exec(ctx, markPaymentPaidSQL, id, order.PaymentPaid); err != nil {
				return fmt.Errorf("marking payment paid for delivery %s: %w", id, err)
			}
		}
		return nil
	})
}

func scanDelivery(row pgx.CollectableRow) (order.Delivery, error) {
	var d order.Delivery
	err := row.Scan(&d.ID, &d.OrderID, &d.DeliveryPersonID, &d.Status, &d.DeliveredAt)
	return d, err
}
