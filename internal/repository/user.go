package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/freshkart/backend/internal/domain/user"
)

const (
	findUserByAPIKeyHashSQL = `SELECT id, username, full_name, user_role
		FROM users WHERE api_key_hash = $1`

	hasDefaultAddressSQL = `SELECT EXISTS (
		SELECT 1 FROM addresses WHERE user_id = $1 AND is_default = TRUE)`

	// Username is unique and immutable, giving a stable existence order
	// for delivery assignment.
	firstDeliveryPersonSQL = `SELECT id, username, full_name, user_role
		FROM users WHERE user_role = $1 ORDER BY username LIMIT 1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByAPIKeyHash resolves a user from an API key hash. Returns
// user.ErrNotFound for unknown hashes.
func (r *UserRepository) FindByAPIKeyHash(ctx context.Context, hash string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, findUserByAPIKeyHashSQL, hash)
	if err != nil {
		return nil, fmt.Errorf("finding user by api key: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding user by api key: %w", err)
	}
	return &u, nil
}

// HasDefaultAddress reports whether the user has a default saved address.
func (r *UserRepository) HasDefaultAddress(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, hasDefaultAddressSQL, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking default address for %s: %w", userID, err)
	}
	return exists, nil
}

// FirstDeliveryPerson returns the first delivery-role user by username.
// Returns user.ErrNotFound when none exists.
func (r *UserRepository) FirstDeliveryPerson(ctx context.Context) (*user.User, error) {
	rows, err := r.pool.Query(ctx, firstDeliveryPersonSQL, user.RoleDeliveryPerson)
	if err != nil {
		return nil, fmt.Errorf("finding delivery person: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("finding delivery person: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.Role)
	return u, err
}
