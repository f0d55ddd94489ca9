package sqrtpricemath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomBetween returns a random big.Int in [lo, hi).
func randomBetween(t *testing.T, lo, hi *big.Int) *big.Int {
	t.Helper()
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(hi, lo))
	require.NoError(t, err)
	return n.Add(n, lo)
}

func TestEncodeSqrtRatioX32(t *testing.T) {
	tests := []struct {
		name    string
		amount1 int64
		amount0 int64
		want    int64
	}{
		{"one to one", 1, 1, 4294967296},
		{"hundred to one", 100, 1, 42949672960},
		{"one to hundred", 1, 100, 429496729},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeSqrtRatioX32(big.NewInt(tt.amount1), big.NewInt(tt.amount0))
			assert.Equal(t, big.NewInt(tt.want), got)
		})
	}
}

func TestGetNextSqrtPriceFromInput_Preconditions(t *testing.T) {
	dest := new(big.Int)

	err := GetNextSqrtPriceFromInput(dest, big.NewInt(0), big.NewInt(1), big.NewInt(1), true)
	assert.ErrorIs(t, err, ErrSqrtPriceZero)

	err = GetNextSqrtPriceFromInput(dest, big.NewInt(4294967296), big.NewInt(0), big.NewInt(1), true)
	assert.ErrorIs(t, err, ErrLiquidityZero)
}

func TestGetNextSqrtPriceFromInput(t *testing.T) {
	dest := new(big.Int)
	price := big.NewInt(4294967296) // 1.0
	liquidity := big.NewInt(1_000_000_000)

	// Zero input leaves the price unchanged.
	require.NoError(t, GetNextSqrtPriceFromInput(dest, price, liquidity, big.NewInt(0), true))
	assert.Equal(t, price, dest)
	require.NoError(t, GetNextSqrtPriceFromInput(dest, price, liquidity, big.NewInt(0), false))
	assert.Equal(t, price, dest)

	// Input of token0 moves the price down; token1 moves it up.
	require.NoError(t, GetNextSqrtPriceFromInput(dest, price, liquidity, big.NewInt(1000), true))
	assert.Equal(t, -1, dest.Cmp(price))
	require.NoError(t, GetNextSqrtPriceFromInput(dest, price, liquidity, big.NewInt(1000), false))
	assert.Equal(t, 1, dest.Cmp(price))
}

func TestGetNextSqrtPriceFromOutput_InsufficientLiquidity(t *testing.T) {
	dest := new(big.Int)
	price := big.NewInt(4294967296)
	liquidity := big.NewInt(1000)

	// Asking for more token1 out than the range holds must fail, not wrap.
	err := GetNextSqrtPriceFromOutput(dest, price, liquidity, big.NewInt(1_000_000), true)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	// Same for token0 on the way up.
	err = GetNextSqrtPriceFromOutput(dest, price, liquidity, big.NewInt(1_000_000), false)
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestGetAmount0Delta(t *testing.T) {
	dest := new(big.Int)

	// Zero liquidity locks nothing.
	require.NoError(t, GetAmount0Delta(dest, big.NewInt(4294967296), big.NewInt(8589934592), big.NewInt(0), true))
	assert.Equal(t, int64(0), dest.Int64())

	// Equal prices lock nothing.
	require.NoError(t, GetAmount0Delta(dest, big.NewInt(4294967296), big.NewInt(4294967296), big.NewInt(1000), true))
	assert.Equal(t, int64(0), dest.Int64())

	err := GetAmount0Delta(dest, big.NewInt(0), big.NewInt(4294967296), big.NewInt(1000), true)
	assert.ErrorIs(t, err, ErrSqrtPriceZero)
}

func TestGetAmount1Delta(t *testing.T) {
	dest := new(big.Int)

	// L * (sqrtB - sqrtA) / 2^32 with exact division: 1000 * 2^32 / 2^32.
	GetAmount1Delta(dest, big.NewInt(4294967296), big.NewInt(8589934592), big.NewInt(1000), false)
	assert.Equal(t, int64(1000), dest.Int64())

	// Argument order must not matter.
	GetAmount1Delta(dest, big.NewInt(8589934592), big.NewInt(4294967296), big.NewInt(1000), false)
	assert.Equal(t, int64(1000), dest.Int64())
}

// TestDeltaRoundingAdjacency checks that for random price ranges the rounded-up
// delta never differs from the rounded-down delta by more than one, and is
// never smaller.
func TestDeltaRoundingAdjacency(t *testing.T) {
	minPrice := big.NewInt(65536)
	maxPrice := new(big.Int).Lsh(big.NewInt(1), 48)
	maxLiquidity := new(big.Int).Lsh(big.NewInt(1), 64)

	up := new(big.Int)
	down := new(big.Int)
	diff := new(big.Int)

	for i := 0; i < 500; i++ {
		a := randomBetween(t, minPrice, maxPrice)
		b := randomBetween(t, minPrice, maxPrice)
		liquidity := randomBetween(t, big.NewInt(1), maxLiquidity)

		require.NoError(t, GetAmount0Delta(up, a, b, liquidity, true))
		require.NoError(t, GetAmount0Delta(down, a, b, liquidity, false))
		diff.Sub(up, down)
		require.True(t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(2)) < 0, "amount0 rounding gap: %s", diff)

		GetAmount1Delta(up, a, b, liquidity, true)
		GetAmount1Delta(down, a, b, liquidity, false)
		diff.Sub(up, down)
		require.True(t, diff.Sign() >= 0 && diff.Cmp(big.NewInt(2)) < 0, "amount1 rounding gap: %s", diff)
	}
}

// TestNextPriceConsumesNoMoreThanInput checks that the price returned for a
// random input never implies a larger input than was provided.
func TestNextPriceConsumesNoMoreThanInput(t *testing.T) {
	minPrice := big.NewInt(65536)
	maxPrice := new(big.Int).Lsh(big.NewInt(1), 48)
	maxLiquidity := new(big.Int).Lsh(big.NewInt(1), 48)
	maxAmount := new(big.Int).Lsh(big.NewInt(1), 40)

	next := new(big.Int)
	implied := new(big.Int)

	for i := 0; i < 500; i++ {
		price := randomBetween(t, minPrice, maxPrice)
		liquidity := randomBetween(t, big.NewInt(1), maxLiquidity)
		amount := randomBetween(t, big.NewInt(0), maxAmount)

		for _, zeroForOne := range []bool{true, false} {
			require.NoError(t, GetNextSqrtPriceFromInput(next, price, liquidity, amount, zeroForOne))

			if zeroForOne {
				require.True(t, next.Cmp(price) <= 0)
				require.NoError(t, GetAmount0Delta(implied, next, price, liquidity, false))
			} else {
				require.True(t, next.Cmp(price) >= 0)
				GetAmount1Delta(implied, price, next, liquidity, false)
			}
			require.True(t, implied.Cmp(amount) <= 0,
				"price %s, liquidity %s, amount %s: implied %s", price, liquidity, amount, implied)
		}
	}
}
