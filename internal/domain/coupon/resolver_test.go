package coupon

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	coupon  *Coupon
	err     error
	lookups int
	codes   []string
}

func (m *mockCouponRepo) FindActive(_ context.Context, _ string) (*Coupon, error) {
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	return m.coupon, nil
}

func (m *mockCouponRepo) ListActiveCodes(_ context.Context) ([]string, error) {
	return m.codes, nil
}

func TestRepoResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty code skips lookup", func(t *testing.T) {
		repo := &mockCouponRepo{err: errors.New("must not be called")}
		r := NewRepoResolver(repo)

		got, err := r.Resolve(ctx, "", decimal.NewFromInt(500))
		require.NoError(t, err)
		assert.True(t, got.IsZero())
		assert.Zero(t, repo.lookups)
	})

	t.Run("unknown code", func(t *testing.T) {
		r := NewRepoResolver(&mockCouponRepo{err: ErrInvalidCoupon})

		_, err := r.Resolve(ctx, "BOGUS", decimal.NewFromInt(500))
		require.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("subtotal below minimum", func(t *testing.T) {
		r := NewRepoResolver(&mockCouponRepo{coupon: &Coupon{
			Code:           "SAVE100",
			DiscountAmount: decimal.NewFromInt(100),
			MinimumAmount:  decimal.NewFromInt(1000),
			Active:         true,
		}})

		_, err := r.Resolve(ctx, "SAVE100", decimal.NewFromInt(900))
		require.ErrorIs(t, err, ErrMinimumNotMet)
	})

	t.Run("flat amount returned unmodified", func(t *testing.T) {
		r := NewRepoResolver(&mockCouponRepo{coupon: &Coupon{
			Code:           "SAVE100",
			DiscountAmount: decimal.NewFromInt(100),
			MinimumAmount:  decimal.NewFromInt(1000),
			Active:         true,
		}})

		got, err := r.Resolve(ctx, "SAVE100", decimal.NewFromInt(1000))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(100)))
	})

	t.Run("discount may exceed subtotal", func(t *testing.T) {
		r := NewRepoResolver(&mockCouponRepo{coupon: &Coupon{
			Code:           "HUGE",
			DiscountAmount: decimal.NewFromInt(5000),
			MinimumAmount:  decimal.Zero,
			Active:         true,
		}})

		got, err := r.Resolve(ctx, "HUGE", decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(5000)), "no clamp is applied")
	})

	t.Run("repository failure is wrapped", func(t *testing.T) {
		r := NewRepoResolver(&mockCouponRepo{err: errors.New("db down")})

		_, err := r.Resolve(ctx, "SAVE100", decimal.NewFromInt(1000))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCoupon)
	})
}
