package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/freshkart/backend/internal/domain/checkout"
	"github.com/freshkart/backend/internal/domain/user"
)

// Service orchestrates order placement.
type Service struct {
	orders   Repository
	users    user.Repository
	calc     *checkout.Calculator
	assigner Assigner
	now      func() time.Time
}

// NewService creates an order Service with the required dependencies.
func NewService(
	orders Repository,
	users user.Repository,
	calc *checkout.Calculator,
	assigner Assigner,
) *Service {
	return &Service{
		orders:   orders,
		users:    users,
		calc:     calc,
		assigner: assigner,
		now:      time.Now,
	}
}

// PlaceRequest holds the client-supplied input for placing an order.
type PlaceRequest struct {
	UserID     uuid.UUID
	CouponCode string
	Note       string
}

// Place converts the user's cart into an order.
//
// Preconditions: the user has a default saved address (ErrNoAddress) and a
// non-empty cart (ErrEmptyCart). Everything after the address check runs
// inside one repository transaction: the cart is read under lock, the
// checkout summary is recomputed, and the order, its items, a pending
// cash-on-delivery payment and a delivery record are created together before
// the cart is cleared. Any failure rolls the whole unit back, leaving the
// cart untouched. A missing delivery person is not a failure: the delivery
// is created unassigned.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*Order, error) {
	hasAddr, err := s.users.HasDefaultAddress(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "check address")
	}
	if !hasAddr {
		return nil, ErrNoAddress
	}

	return s.orders.Place(ctx, req.UserID, func(ctx context.Context, lines []checkout.Line) (*Placement, error) {
		if len(lines) == 0 {
			return nil, ErrEmptyCart
		}

		summary, err := s.calc.Summary(ctx, lines, req.CouponCode)
		if err != nil {
			return nil, err
		}

		o := Order{
			ID:             uuid.New(),
			UserID:         req.UserID,
			Status:         StatusPending,
			Note:           req.Note,
			CouponCode:     req.CouponCode,
			DiscountAmount: summary.Discount,
			TaxAmount:      summary.TaxAmount,
			ShippingFee:    summary.ShippingFee,
			TotalAmount:    summary.TotalAmount,
			CreatedAt:      s.now(),
		}

		items := make([]Item, len(lines))
		for i, l := range lines {
			// Recomputed per variant; identical to the value that went
			// into the subtotal by construction.
			items[i] = Item{
				OrderID:      o.ID,
				VariantID:    l.Variant.ID,
				Quantity:     l.Quantity,
				PriceAtOrder: l.Variant.DiscountedPrice(),
			}
		}

		personID, err := s.assigner.NextDeliveryPerson(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "assign delivery")
		}

		return &Placement{
			Order: o,
			Items: items,
			Payment: Payment{
				OrderID:    o.ID,
				Method:     MethodCashOnDelivery,
				Status:     PaymentPending,
				AmountPaid: summary.TotalAmount,
			},
			Delivery: Delivery{
				ID:               uuid.New(),
				OrderID:          o.ID,
				DeliveryPersonID: personID,
				Status:           DeliveryPending,
			},
		}, nil
	})
}
