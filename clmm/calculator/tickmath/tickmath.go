package tickmath

import (
	"errors"
	"math/big"
	"math/bits"
	"sync"

	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

var (
	// MIN_TICK is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MIN_TICK = int64(-221818)
	// MAX_TICK is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MAX_TICK = int64(221818)

	// MIN_SQRT_RATIO is the minimum sqrt price accepted by GetTickAtSqrtRatio, 2^16.
	MIN_SQRT_RATIO = big.NewInt(65536)
	// MAX_SQRT_RATIO is the exclusive upper sqrt price bound, 2^48.
	MAX_SQRT_RATIO = big.NewInt(281474976710656)

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	// Pre-computed constants for performance
	one        = uint256.NewInt(1)
	maxUint256 = new(uint256.Int).SetAllOne()

	// Constants for GetSqrtRatioAtTick, pre-parsed from hex.
	// These represent sqrt(1.0001^2^i) in Q128.128 for i in 0..18, and a mask.
	ratioConstants = [21]*uint256.Int{
		uint256.MustFromBig(fromHex("0xfffcb933bd6fad37aa2d162d1a594001")),  // sqrt(1.0001^1)
		uint256.MustFromBig(fromHex("0x100000000000000000000000000000000")), // 1 in Q128.128
		uint256.MustFromBig(fromHex("0xfff97272373d413259a46990580e213a")),  // sqrt(1.0001^2)
		uint256.MustFromBig(fromHex("0xfff2e50f5f656932ef12357cf3c7fdcc")),  // sqrt(1.0001^4)
		uint256.MustFromBig(fromHex("0xffe5caca7e10e4e61c3624eaa0941cd0")),  // sqrt(1.0001^8)
		uint256.MustFromBig(fromHex("0xffcb9843d60f6159c9db58835c926644")),  // sqrt(1.0001^16)
		uint256.MustFromBig(fromHex("0xff973b41fa98c081472e6896dfb254c0")),  // sqrt(1.0001^32)
		uint256.MustFromBig(fromHex("0xff2ea16466c96a3843ec78b326b52861")),  // sqrt(1.0001^64)
		uint256.MustFromBig(fromHex("0xfe5dee046a99a2a811c461f1969c3053")),  // sqrt(1.0001^128)
		uint256.MustFromBig(fromHex("0xfcbe86c7900a88aedcffc83b479aa3a4")),  // sqrt(1.0001^256)
		uint256.MustFromBig(fromHex("0xf987a7253ac413176f2b074cf7815e54")),  // sqrt(1.0001^512)
		uint256.MustFromBig(fromHex("0xf3392b0822b70005940c7a398e4b70f3")),  // sqrt(1.0001^1024)
		uint256.MustFromBig(fromHex("0xe7159475a2c29b7443b29c7fa6e889d9")),  // sqrt(1.0001^2048)
		uint256.MustFromBig(fromHex("0xd097f3bdfd2022b8845ad8f792aa5825")),  // sqrt(1.0001^4096)
		uint256.MustFromBig(fromHex("0xa9f746462d870fdf8a65dc1f90e061e5")),  // sqrt(1.0001^8192)
		uint256.MustFromBig(fromHex("0x70d869a156d2a1b890bb3df62baf32f7")),  // sqrt(1.0001^16384)
		uint256.MustFromBig(fromHex("0x31be135f97d08fd981231505542fcfa6")),  // sqrt(1.0001^32768)
		uint256.MustFromBig(fromHex("0x9aa508b5b7a84e1c677de54f3e99bc9")),   // sqrt(1.0001^65536)
		uint256.MustFromBig(fromHex("0x5d6af8dedb81196699c329225ee604")),    // sqrt(1.0001^131072)
		uint256.MustFromBig(fromHex("0x2216e584f5fa1ea926041bedfe98")),      // sqrt(1.0001^262144)
		uint256.MustFromBig(fromHex("0xffffffffffffffffffffffff")),          // 96-bit mask for rounding
	}
)

// tickMath holds reusable objects to avoid memory allocations.
type tickMath struct {
	ratio *uint256.Int
	rem   *uint256.Int
	temp  *big.Int
}

// pool manages a pool of tickMath objects for safe concurrent use.
var pool = sync.Pool{
	New: func() any {
		return &tickMath{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
			temp:  new(big.Int),
		}
	},
}

// GetSqrtRatioAtTick calculates sqrt(1.0001^tick) * 2^32 as a Q32.32 value.
// The ratio is accumulated in Q128.128 via a binary-exponentiation ladder and
// rescaled to Q32.32 at the end, rounding up.
func GetSqrtRatioAtTick(dest *big.Int, tick int64) error {
	if tick < MIN_TICK || tick > MAX_TICK {
		return ErrTickOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	// Initialize ratio based on the least significant bit of absTick.
	if (absTick & 0x1) != 0 {
		tm.ratio.Set(ratioConstants[0])
	} else {
		tm.ratio.Set(ratioConstants[1])
	}

	// One multiply-and-renormalize per set bit of absTick.
	for i := 2; i < 21; i++ {
		if (absTick & (1 << (i - 1))) != 0 {
			tm.ratio.Mul(tm.ratio, ratioConstants[i]).Rsh(tm.ratio, 128)
		}
	}

	// If the tick is positive, compute the reciprocal. The ratio is a
	// Q128.128 integer, so dividing the full 256-bit maximum by it keeps
	// the result in Q128.128.
	if tick > 0 {
		tm.ratio.Div(maxUint256, tm.ratio)
	}

	// Final rounding step: divide by 2^96 and round up.
	tm.rem.And(tm.ratio, ratioConstants[20])
	tm.ratio.Rsh(tm.ratio, 96)
	if tm.rem.Sign() > 0 {
		tm.ratio.Add(tm.ratio, one)
	}

	tm.ratio.IntoBig(&dest)
	return nil
}

// GetTickAtSqrtRatio calculates the greatest tick value such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX32. It extracts a base-2 logarithm
// from the Q64.64 form of the input and converts it to tick scale, then
// disambiguates the two candidate ticks against the exact ladder.
func GetTickAtSqrtRatio(sqrtPriceX32 *big.Int) (int64, error) {
	if sqrtPriceX32.Cmp(MIN_SQRT_RATIO) < 0 || sqrtPriceX32.Cmp(MAX_SQRT_RATIO) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	ratio := uint128.From64(sqrtPriceX32.Uint64()).Lsh(32)

	var msb int64
	if ratio.Hi != 0 {
		msb = int64(64 + bits.Len64(ratio.Hi) - 1)
	} else {
		msb = int64(bits.Len64(ratio.Lo) - 1)
	}

	// Normalize to a mantissa in [2^63, 2^64).
	var r uint64
	if msb >= 64 {
		r = ratio.Rsh(uint(msb - 63)).Lo
	} else {
		r = ratio.Lsh(uint(63 - msb)).Lo
	}

	// Integer part of log2, 16 fractional bits to come.
	log2 := (msb - 64) << 16

	// 14 rounds of square-then-shift bit extraction.
	for i := 0; i < 14; i++ {
		sq := uint128.From64(r).Mul64(r).Rsh(63)
		f := sq.Hi // 1 iff the square overflowed the 64-bit mantissa
		log2 |= int64(f) << (15 - i)
		r = sq.Rsh(uint(f)).Lo
	}

	// log2(1.0001)/2 reciprocal in Q16, converting the log to tick scale.
	logSqrt10001 := log2 * 908567298

	tickLow := (logSqrt10001 - 42949672) >> 32
	tickHigh := (logSqrt10001 + 3677218864) >> 32

	// The approximation band can poke past the tick bounds at the very edge
	// of the price domain; the answer is still within them.
	if tickLow < MIN_TICK {
		tickLow = MIN_TICK
	}
	if tickHigh > MAX_TICK {
		tickHigh = MAX_TICK
	}

	if tickLow == tickHigh {
		return tickLow, nil
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	if err := GetSqrtRatioAtTick(tm.temp, tickHigh); err != nil {
		return 0, err
	}
	if tm.temp.Cmp(sqrtPriceX32) <= 0 {
		return tickHigh, nil
	}
	return tickLow, nil
}

// NearestUsableTick returns the closest tick that is a multiple of
// tickSpacing, nudged back into [MIN_TICK, MAX_TICK] if rounding left it
// outside.
func NearestUsableTick(tick, tickSpacing int64) int64 {
	// floor(tick/tickSpacing + 1/2) without floats.
	numerator := 2*tick + tickSpacing
	denominator := 2 * tickSpacing
	quotient := numerator / denominator
	if numerator%denominator != 0 && (numerator < 0) != (denominator < 0) {
		quotient--
	}
	rounded := quotient * tickSpacing

	if rounded < MIN_TICK {
		return rounded + tickSpacing
	}
	if rounded > MAX_TICK {
		return rounded - tickSpacing
	}
	return rounded
}

// Helper to create a big.Int from a hex string.
func fromHex(s string) *big.Int {
	n, _ := new(big.Int).SetString(s[2:], 16)
	return n
}
