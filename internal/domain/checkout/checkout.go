// Package checkout computes the priced summary of a cart: subtotal, tax,
// shipping, coupon discount and total. The computation is pure and safe to
// run repeatedly for previews; it mutates nothing.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/freshkart/backend/internal/domain/catalog"
	"github.com/freshkart/backend/internal/domain/coupon"
	"github.com/freshkart/backend/internal/domain/money"
)

// Line is a cart line joined with its variant snapshot, ready for pricing.
type Line struct {
	Variant  catalog.Variant
	Quantity int
}

// Summary is the priced breakdown of a cart. Each field is independently
// rounded to whole currency units.
type Summary struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	ShippingFee decimal.Decimal
	Discount    decimal.Decimal
	TotalAmount decimal.Decimal
}

// Pricing holds the rates applied on top of the subtotal.
type Pricing struct {
	// TaxRate is the flat tax fraction applied to the subtotal.
	TaxRate decimal.Decimal
	// FreeShippingMin is the subtotal at which shipping becomes free.
	FreeShippingMin decimal.Decimal
	// ShippingFee is the flat fee charged below FreeShippingMin.
	ShippingFee decimal.Decimal
}

// DefaultPricing returns the store's standard rates: 5% tax, 50-unit
// shipping, free shipping from 1000 units.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:         decimal.RequireFromString("0.05"),
		FreeShippingMin: decimal.NewFromInt(1000),
		ShippingFee:     decimal.NewFromInt(50),
	}
}

// Subtotal sums discounted_price * quantity across all lines and rounds the
// result to a whole unit. The per-line prices are themselves already rounded
// per variant.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		sum = sum.Add(l.Variant.DiscountedPrice().Mul(qty))
	}
	return money.RoundWhole(sum)
}

// Calculator produces checkout summaries. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	coupons coupon.Resolver
	pricing Pricing
}

// NewCalculator creates a Calculator with the given coupon resolver and rates.
func NewCalculator(coupons coupon.Resolver, pricing Pricing) *Calculator {
	return &Calculator{coupons: coupons, pricing: pricing}
}

// Summary prices the given lines with an optional coupon code.
//
// Callers must reject empty carts before calling; an empty slice is priced as
// a zero subtotal, not an error. Coupon failures (coupon.ErrInvalidCoupon,
// coupon.ErrMinimumNotMet) propagate unchanged. The discount is subtracted
// without a floor at zero, so the total can go negative when a flat coupon
// exceeds subtotal + tax + shipping.
func (c *Calculator) Summary(ctx context.Context, lines []Line, couponCode string) (Summary, error) {
	subtotal := Subtotal(lines)

	taxAmount := money.RoundWhole(subtotal.Mul(c.pricing.TaxRate))

	shippingFee := c.pricing.ShippingFee
	if subtotal.GreaterThanOrEqual(c.pricing.FreeShippingMin) {
		shippingFee = decimal.Zero
	}

	discount, err := c.coupons.Resolve(ctx, couponCode, subtotal)
	if err != nil {
		return Summary{}, errors.Wrap(err, "resolve coupon")
	}

	total := money.RoundWhole(subtotal.Add(taxAmount).Add(shippingFee).Sub(discount))

	return Summary{
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		ShippingFee: shippingFee,
		Discount:    discount,
		TotalAmount: total,
	}, nil
}
