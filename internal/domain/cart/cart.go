// Package cart models the mutable per-user cart that feeds checkout.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrLineNotFound is returned when a cart line does not exist for the user.
var ErrLineNotFound = errors.New("cart line not found")

// Line is one (variant, quantity) pairing awaiting checkout. Lines are
// transient: they are deleted on successful order placement or explicit
// removal.
type Line struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	VariantID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// Repository defines persistence operations for cart lines.
type Repository interface {
	// Add upserts a line for (user, variant): an existing line has the
	// quantity added to it, otherwise a new line is created.
	Add(ctx context.Context, userID, variantID uuid.UUID, quantity int) (*Line, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error)
	// Remove deletes one line owned by the user. Returns ErrLineNotFound
	// when no such line exists.
	Remove(ctx context.Context, lineID, userID uuid.UUID) error
}
