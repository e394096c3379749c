// Package delivery handles delivery status transitions, including the paid
// flip on the order's payment when a delivery completes.
package delivery

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/freshkart/backend/internal/domain/order"
)

var (
	// ErrNotFound is returned when the delivery does not exist or is not
	// assigned to the acting user.
	ErrNotFound = errors.New("delivery not found")
	// ErrInvalidTransition is returned for backwards or repeated status
	// transitions.
	ErrInvalidTransition = errors.New("invalid delivery status transition")
	// ErrUnknownStatus is returned for status values outside the enum.
	ErrUnknownStatus = errors.New("unknown delivery status")
)

// statusRank orders the delivery lifecycle. Transitions must move strictly
// forward; delivered is terminal.
var statusRank = map[order.DeliveryStatus]int{
	order.DeliveryPending:        0,
	order.DeliveryAssigned:       1,
	order.DeliveryOutForDelivery: 2,
	order.DeliveryDelivered:      3,
}

// ParseStatus validates a client-supplied status string.
func ParseStatus(s string) (order.DeliveryStatus, error) {
	st := order.DeliveryStatus(s)
	if _, ok := statusRank[st]; !ok {
		return "", ErrUnknownStatus
	}
	return st, nil
}

// Repository defines delivery persistence.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*order.Delivery, error)
	ListByPerson(ctx context.Context, personID uuid.UUID) ([]order.Delivery, error)
	// UpdateStatus persists the new status. When deliveredAt is non-nil it
	// is stamped on the delivery and the order's payment is marked paid in
	// the same transaction; both writes land or neither does.
	UpdateStatus(ctx context.Context, id uuid.UUID, status order.DeliveryStatus, deliveredAt *time.Time) error
}

// Service applies delivery status transitions.
type Service struct {
	deliveries Repository
	now        func() time.Time
}

// NewService creates a delivery Service.
func NewService(deliveries Repository) *Service {
	return &Service{deliveries: deliveries, now: time.Now}
}

// ListForPerson returns the deliveries assigned to actorID.
func (s *Service) ListForPerson(ctx context.Context, actorID uuid.UUID) ([]order.Delivery, error) {
	deliveries, err := s.deliveries.ListByPerson(ctx, actorID)
	if err != nil {
		return nil, errors.Wrap(err, "list deliveries")
	}
	return deliveries, nil
}

// UpdateStatus moves the delivery identified by id to next, on behalf of
// actorID. Only the assigned delivery person may transition a delivery;
// anyone else sees ErrNotFound, matching a lookup scoped to their own
// deliveries. Transitions must move strictly forward through
// pending -> assigned -> out_for_delivery -> delivered (skipping ahead is
// allowed, going back or repeating is not).
func (s *Service) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, next order.DeliveryStatus) (*order.Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.DeliveryPersonID == nil || *d.DeliveryPersonID != actorID {
		return nil, ErrNotFound
	}

	if statusRank[next] <= statusRank[d.Status] {
		return nil, ErrInvalidTransition
	}

	var deliveredAt *time.Time
	if next == order.DeliveryDelivered {
		t := s.now()
		deliveredAt = &t
	}

	if err := s.deliveries.UpdateStatus(ctx, id, next, deliveredAt); err != nil {
		return nil, errors.Wrap(err, "update delivery status")
	}

	d.Status = next
	d.DeliveredAt = deliveredAt
	return d, nil
}
