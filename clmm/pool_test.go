package clmm

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cykura/sdk/clmm/calculator/tickmath"
)

func validView() PoolView {
	return PoolView{
		ID:           1,
		Token0:       10,
		Token1:       20,
		Fee:          600,
		TickSpacing:  10,
		Tick:         0,
		Liquidity:    big.NewInt(1_000_000_000),
		SqrtPriceX32: new(big.Int).Lsh(big.NewInt(1), 32),
	}
}

func TestNewPool(t *testing.T) {
	pool, err := NewPool(validView(), nil)
	require.NoError(t, err)
	assert.True(t, pool.InvolvesToken(10))
	assert.True(t, pool.InvolvesToken(20))
	assert.False(t, pool.InvolvesToken(30))

	// A nil directory is replaced by the failing stub, not left nil.
	_, err = pool.Directory.GetTick(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoTickData)
}

func TestNewPool_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PoolView)
		err    error
	}{
		{"equal tokens", func(v *PoolView) { v.Token1 = v.Token0 }, ErrTokenOrder},
		{"reversed tokens", func(v *PoolView) { v.Token0, v.Token1 = v.Token1, v.Token0 }, ErrTokenOrder},
		{"fee at denominator", func(v *PoolView) { v.Fee = 1_000_000 }, ErrFeeTooHigh},
		{"zero spacing", func(v *PoolView) { v.TickSpacing = 0 }, ErrInvalidTickSpacing},
		{"negative spacing", func(v *PoolView) { v.TickSpacing = -10 }, ErrInvalidTickSpacing},
		{"nil liquidity", func(v *PoolView) { v.Liquidity = nil }, ErrMissingPoolState},
		{"nil price", func(v *PoolView) { v.SqrtPriceX32 = nil }, ErrMissingPoolState},
		{"price below tick range", func(v *PoolView) { v.Tick = 100 }, ErrPriceTickMismatch},
		{"price above tick range", func(v *PoolView) { v.Tick = -100 }, ErrPriceTickMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := validView()
			tt.mutate(&view)
			_, err := NewPool(view, nil)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewPool_MaxTickBoundary(t *testing.T) {
	view := validView()
	view.Tick = tickmath.MAX_TICK
	require.NoError(t, tickmath.GetSqrtRatioAtTick(view.SqrtPriceX32, tickmath.MAX_TICK))

	_, err := NewPool(view, nil)
	assert.NoError(t, err)
}

func TestNoTickDirectory(t *testing.T) {
	ctx := context.Background()
	dir := NoTickDirectory{}

	_, err := dir.GetTick(ctx, 0)
	assert.ErrorIs(t, err, ErrNoTickData)
	_, err = dir.GetTickLocator(ctx, 0)
	assert.ErrorIs(t, err, ErrNoTickData)
	_, err = dir.NextInitializedTickWithinOneWord(ctx, 0, true, 10)
	assert.ErrorIs(t, err, ErrNoTickData)
}
