// Package catalog exposes the purchasable variant model consumed by the
// pricing pipeline. Variants are owned by an external catalog service; this
// package only reads them.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/freshkart/backend/internal/domain/money"
)

// ErrNotFound is returned when no variant exists for a given ID.
var ErrNotFound = errors.New("variant not found")

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Variant is a purchasable unit of a product (a specific pack size) with its
// own price, stock and discount. Prices read here are treated as an immutable
// snapshot at order time.
type Variant struct {
	ID              uuid.UUID
	ProductName     string
	Unit            string
	UnitPrice       decimal.Decimal
	DiscountPercent int
	Stock           int
}

// DiscountedPrice returns unit_price * (1 - discount_percent/100), rounded
// half-away-from-zero to a whole currency unit. The rounding happens per
// variant, so every cart line referencing the same variant prices identically.
func (v Variant) DiscountedPrice() decimal.Decimal {
	pct := decimal.NewFromInt(int64(v.DiscountPercent))
	return money.RoundWhole(v.UnitPrice.Mul(one.Sub(pct.Div(hundred))))
}

// Repository defines read access to the variant catalog.
type Repository interface {
	List(ctx context.Context) ([]Variant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Variant, error)
}
