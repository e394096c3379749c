// Package coupon validates coupon codes against the active-coupon registry
// and computes the flat discount a code grants.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when no active coupon exists for a code.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrMinimumNotMet is returned when the cart subtotal is below the
	// coupon's minimum spend.
	ErrMinimumNotMet = errors.New("minimum amount not reached for coupon")
)

// Coupon is a flat-amount discount rule. The registry is externally owned;
// this service only reads it.
type Coupon struct {
	Code           string
	DiscountAmount decimal.Decimal
	MinimumAmount  decimal.Decimal
	Active         bool
}

// Repository provides lookup of active coupons.
type Repository interface {
	// FindActive returns the active coupon with the given code, or
	// ErrInvalidCoupon when none exists.
	FindActive(ctx context.Context, code string) (*Coupon, error)
	// ListActiveCodes returns the codes of all active coupons.
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// Resolver resolves a coupon code and cart subtotal to a discount amount.
type Resolver interface {
	Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (decimal.Decimal, error)
}
