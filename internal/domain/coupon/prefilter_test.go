package coupon

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefilter_Resolve(t *testing.T) {
	ctx := context.Background()
	repo := &mockCouponRepo{
		coupon: &Coupon{
			Code:           "SAVE50",
			DiscountAmount: decimal.NewFromInt(50),
			MinimumAmount:  decimal.Zero,
			Active:         true,
		},
		codes: []string{"SAVE50"},
	}
	p := NewPrefilter(NewRepoResolver(repo), repo)

	t.Run("passes everything before first rebuild", func(t *testing.T) {
		got, err := p.Resolve(ctx, "SAVE50", decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(50)))
	})

	require.NoError(t, p.Rebuild(ctx))

	t.Run("known code reaches the repository", func(t *testing.T) {
		before := repo.lookups
		got, err := p.Resolve(ctx, "SAVE50", decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, before+1, repo.lookups)
	})

	t.Run("unknown code rejected without lookup", func(t *testing.T) {
		before := repo.lookups
		_, err := p.Resolve(ctx, "DEFINITELY-NOT-A-CODE", decimal.NewFromInt(200))
		require.ErrorIs(t, err, ErrInvalidCoupon)
		assert.Equal(t, before, repo.lookups)
	})

	t.Run("empty code still resolves to zero", func(t *testing.T) {
		got, err := p.Resolve(ctx, "", decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})
}
