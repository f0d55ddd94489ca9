package tickmath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRatioAtTick(t *testing.T, tick int64) *big.Int {
	t.Helper()
	dest := new(big.Int)
	require.NoError(t, GetSqrtRatioAtTick(dest, tick))
	return dest
}

func TestGetSqrtRatioAtTick_Bounds(t *testing.T) {
	dest := new(big.Int)

	assert.ErrorIs(t, GetSqrtRatioAtTick(dest, MIN_TICK-1), ErrTickOutOfBounds)
	assert.ErrorIs(t, GetSqrtRatioAtTick(dest, MAX_TICK+1), ErrTickOutOfBounds)

	assert.NoError(t, GetSqrtRatioAtTick(dest, MIN_TICK))
	assert.NoError(t, GetSqrtRatioAtTick(dest, MAX_TICK))
}

func TestGetSqrtRatioAtTick_KnownValues(t *testing.T) {
	// Tick zero is exactly 1.0 in Q32.32.
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 32), mustRatioAtTick(t, 0))

	// One tick above par is strictly greater than 1.0 and less than a full
	// 1.0001 factor away.
	par := new(big.Int).Lsh(big.NewInt(1), 32)
	ratioOne := mustRatioAtTick(t, 1)
	assert.Equal(t, 1, ratioOne.Cmp(par))
	assert.Equal(t, -1, ratioOne.Cmp(new(big.Int).Add(par, big.NewInt(430_000))))

	// The extreme ticks stay within the global price domain, and the top of
	// the range is near 2^48, not collapsed.
	assert.True(t, mustRatioAtTick(t, MIN_TICK).Cmp(MIN_SQRT_RATIO) >= 0)
	assert.True(t, mustRatioAtTick(t, MAX_TICK).Cmp(MAX_SQRT_RATIO) <= 0)
	assert.True(t, mustRatioAtTick(t, MAX_TICK).Cmp(new(big.Int).Lsh(big.NewInt(1), 47)) > 0)

	// Opposite ticks are (near-)reciprocal: ratio(t) * ratio(-t) ~= 2^64.
	for _, tick := range []int64{1, 60, 1000, 50000, 221818} {
		product := new(big.Int).Mul(mustRatioAtTick(t, tick), mustRatioAtTick(t, -tick))
		product.Rsh(product, 64)
		assert.InDelta(t, 1.0, float64(product.Int64()), 1.0, "tick %d", tick)
	}
}

func TestGetSqrtRatioAtTick_Monotonic(t *testing.T) {
	ticks := []int64{MIN_TICK, -221817, -100000, -50000, -60, -1, 0, 1, 60, 50000, 100000, 221817, MAX_TICK}
	for i := 1; i < len(ticks); i++ {
		lo := mustRatioAtTick(t, ticks[i-1])
		hi := mustRatioAtTick(t, ticks[i])
		assert.Equal(t, -1, lo.Cmp(hi), "ratio(%d) < ratio(%d)", ticks[i-1], ticks[i])
	}
}

func TestGetTickAtSqrtRatio_Bounds(t *testing.T) {
	_, err := GetTickAtSqrtRatio(new(big.Int).Sub(MIN_SQRT_RATIO, big.NewInt(1)))
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)

	// The upper bound is exclusive.
	_, err = GetTickAtSqrtRatio(MAX_SQRT_RATIO)
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)

	tick, err := GetTickAtSqrtRatio(MIN_SQRT_RATIO)
	require.NoError(t, err)
	assert.Equal(t, MIN_TICK, tick)

	tick, err = GetTickAtSqrtRatio(new(big.Int).Sub(MAX_SQRT_RATIO, big.NewInt(1)))
	require.NoError(t, err)
	assert.Equal(t, MAX_TICK, tick)
}

func TestGetTickAtSqrtRatio_KnownValues(t *testing.T) {
	tick, err := GetTickAtSqrtRatio(new(big.Int).Lsh(big.NewInt(1), 32))
	require.NoError(t, err)
	assert.Equal(t, int64(0), tick)

	// One below the exact ratio of tick 1 still belongs to tick 0.
	below := new(big.Int).Sub(mustRatioAtTick(t, 1), big.NewInt(1))
	tick, err = GetTickAtSqrtRatio(below)
	require.NoError(t, err)
	assert.Equal(t, int64(0), tick)
}

// TestTickRoundTrip checks the defining property of the pair: for any tick,
// GetTickAtSqrtRatio(GetSqrtRatioAtTick(tick)) returns the tick itself.
func TestTickRoundTrip(t *testing.T) {
	span := big.NewInt(MAX_TICK - MIN_TICK + 1)
	dest := new(big.Int)

	for i := 0; i < 1000; i++ {
		n, err := rand.Int(rand.Reader, span)
		require.NoError(t, err)
		tick := MIN_TICK + n.Int64()

		require.NoError(t, GetSqrtRatioAtTick(dest, tick))
		got, err := GetTickAtSqrtRatio(dest)
		require.NoError(t, err)
		require.Equal(t, tick, got, "round trip through ratio %s", dest)
	}
}

func TestNearestUsableTick(t *testing.T) {
	tests := []struct {
		name        string
		tick        int64
		tickSpacing int64
		want        int64
	}{
		{"already aligned", 120, 60, 120},
		{"rounds down", 125, 60, 120},
		{"rounds up", 155, 60, 180},
		{"halfway rounds up", 150, 60, 180},
		{"negative rounds toward nearest", -125, 60, -120},
		{"negative rounds down", -155, 60, -180},
		{"zero", 0, 10, 0},
		{"below minimum nudges back in", MIN_TICK, 60, -221760},
		{"above maximum nudges back in", MAX_TICK, 60, 221760},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearestUsableTick(tt.tick, tt.tickSpacing))
		})
	}
}
