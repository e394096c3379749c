// Package user holds the identity model consumed by authentication, order
// placement and delivery assignment. User management itself lives elsewhere.
package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned when no user matches a lookup.
var ErrNotFound = errors.New("user not found")

// Role designates what a user is allowed to do.
type Role string

const (
	RoleCustomer       Role = "customer"
	RoleAdmin          Role = "admin"
	RoleDeliveryPerson Role = "delivery_person"
)

// User is the minimal identity read by this service.
type User struct {
	ID       uuid.UUID
	Username string
	FullName string
	Role     Role
}

// Repository defines the identity reads the pipeline needs.
type Repository interface {
	// FindByAPIKeyHash resolves the user owning the given API key hash.
	// Returns ErrNotFound for unknown hashes.
	FindByAPIKeyHash(ctx context.Context, hash string) (*User, error)
	// HasDefaultAddress reports whether the user has a default saved address.
	HasDefaultAddress(ctx context.Context, userID uuid.UUID) (bool, error)
	// FirstDeliveryPerson returns the delivery-role user that comes first in
	// a stable existence order (username ascending). Returns ErrNotFound
	// when no delivery person exists.
	FirstDeliveryPerson(ctx context.Context) (*User, error)
}
