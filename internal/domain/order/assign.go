package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/freshkart/backend/internal/domain/user"
)

// Assigner selects the delivery person for a new order. Implementations may
// load-balance however they like; returning (nil, nil) leaves the delivery
// unassigned.
type Assigner interface {
	NextDeliveryPerson(ctx context.Context) (*uuid.UUID, error)
}

var _ Assigner = (*FirstAvailableAssigner)(nil)

// FirstAvailableAssigner picks whichever delivery-role user comes first in
// the repository's stable existence order. No load balancing.
type FirstAvailableAssigner struct {
	users user.Repository
}

// NewFirstAvailableAssigner creates the default assignment strategy.
func NewFirstAvailableAssigner(users user.Repository) *FirstAvailableAssigner {
	return &FirstAvailableAssigner{users: users}
}

// NextDeliveryPerson returns the first delivery person, or (nil, nil) when
// none exists.
func (a *FirstAvailableAssigner) NextDeliveryPerson(ctx context.Context) (*uuid.UUID, error) {
	u, err := a.users.FirstDeliveryPerson(ctx)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find delivery person")
	}
	id := u.ID
	return &id, nil
}
