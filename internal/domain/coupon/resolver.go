package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var _ Resolver = (*RepoResolver)(nil)

// RepoResolver implements Resolver by looking up coupons in a Repository.
type RepoResolver struct {
	repo Repository
}

// NewRepoResolver creates a RepoResolver backed by the given Repository.
func NewRepoResolver(repo Repository) *RepoResolver {
	return &RepoResolver{repo: repo}
}

// Resolve returns the discount for the given code and subtotal.
//
// An empty code yields a zero discount without any lookup. An unknown or
// inactive code yields ErrInvalidCoupon. A subtotal below the coupon's
// minimum spend yields ErrMinimumNotMet. Otherwise the coupon's flat
// discount amount is returned unmodified; it is NOT clamped to the subtotal,
// so a large enough coupon can push the order total negative. That matches
// how the store has always priced orders and is pinned by tests.
func (r *RepoResolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	if code == "" {
		return decimal.Zero, nil
	}

	c, err := r.repo.FindActive(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return decimal.Zero, ErrInvalidCoupon
		}
		return decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	if subtotal.LessThan(c.MinimumAmount) {
		return decimal.Zero, ErrMinimumNotMet
	}

	return c.DiscountAmount, nil
}
