// Package order holds the order aggregate and the placement pipeline that
// turns a mutable cart into an immutable, auditable order.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshkart/backend/internal/domain/checkout"
)

// Sentinel errors for placement preconditions.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNoAddress = errors.New("no saved address")
	ErrNotFound  = errors.New("order not found")
)

// Status tracks an order through its lifecycle. Completed and cancelled are
// terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod enumerates how an order is paid.
type PaymentMethod string

const (
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	MethodCard           PaymentMethod = "card"
	MethodWallet         PaymentMethod = "wallet"
	MethodTransfer       PaymentMethod = "transfer"
)

// PaymentStatus tracks a payment. Paid and failed are terminal.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// DeliveryStatus tracks a delivery. Delivered is terminal.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryAssigned       DeliveryStatus = "assigned"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

// Order is the immutable record created at placement. The monetary fields
// are snapshots from the checkout summary; CouponCode is a denormalized
// string, not a live reference, so later coupon changes never touch the
// order. The subtotal is implicit: it is the sum of the items'
// price_at_order * quantity, and total = subtotal + tax + shipping - discount.
type Order struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Status         Status
	Note           string
	CouponCode     string
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingFee    decimal.Decimal
	TotalAmount    decimal.Decimal
	CreatedAt      time.Time
}

// Item is one order line, frozen at creation. PriceAtOrder is the discounted
// unit price at placement time and is never recomputed.
type Item struct {
	OrderID      uuid.UUID
	VariantID    uuid.UUID
	Quantity     int
	PriceAtOrder decimal.Decimal
}

// Payment is the one-to-one payment record for an order.
type Payment struct {
	OrderID    uuid.UUID
	Method     PaymentMethod
	Status     PaymentStatus
	AmountPaid decimal.Decimal
}

// Delivery is the one-to-one delivery record for an order. DeliveryPersonID
// is nil while unassigned; DeliveredAt is set only on the transition to
// delivered.
type Delivery struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	DeliveryPersonID *uuid.UUID
	Status           DeliveryStatus
	DeliveredAt      *time.Time
}

// Placement is the full write set created atomically at placement time.
type Placement struct {
	Order    Order
	Items    []Item
	Payment  Payment
	Delivery Delivery
}

// BuildFunc turns the user's locked cart lines into a Placement. Returning
// an error aborts the transaction with no writes.
type BuildFunc func(ctx context.Context, lines []checkout.Line) (*Placement, error)

// Repository defines order persistence. Place must execute as one atomic
// unit: it reads and locks the user's cart lines, invokes build, persists
// the placement, deletes the cart lines, and commits, or rolls everything
// back. The lock serializes concurrent placements by the same user so one
// cart can never produce two orders.
type Repository interface {
	Place(ctx context.Context, userID uuid.UUID, build BuildFunc) (*Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
}
