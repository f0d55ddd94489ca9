package sqrtpricemath

import (
	"errors"
	"math/big"
	"sync"
)

var (
	// Q32 is the fixed-point scaling constant, 2^32.
	Q32 = new(big.Int).Lsh(big.NewInt(1), 32)
	// Resolution is the number of fractional bits in the Q32.32 format.
	Resolution = uint(32)

	// maxUint128 masks intermediate products to 128 bits, the width the
	// on-chain program computes them in, so wraparound is detected the
	// same way.
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

	ErrLiquidityZero         = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero         = errors.New("sqrt price must be greater than zero")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for requested amount")

	// one is a pre-computed big.Int for the value 1.
	one = big.NewInt(1)
)

// SqrtPriceMath holds reusable big.Int objects to avoid memory allocations.
// Instances are managed by a sync.Pool for safe concurrent use.
type SqrtPriceMath struct {
	product     *big.Int
	numerator1  *big.Int
	numerator2  *big.Int
	denominator *big.Int
	quotient    *big.Int
	term        *big.Int
	rem         *big.Int
}

// pool manages a pool of SqrtPriceMath objects.
var pool = sync.Pool{
	New: func() any {
		return &SqrtPriceMath{
			product:     new(big.Int),
			numerator1:  new(big.Int),
			numerator2:  new(big.Int),
			denominator: new(big.Int),
			quotient:    new(big.Int),
			term:        new(big.Int),
			rem:         new(big.Int),
		}
	},
}

// --- Zero-Allocation Helper Methods (Internal) ---

// mulDiv writes (a * b) / c into dest at full precision.
func (s *SqrtPriceMath) mulDiv(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
}

// mulDivRoundingUp writes ceil((a * b) / c) into dest.
func (s *SqrtPriceMath) mulDivRoundingUp(dest, a, b, c *big.Int) {
	s.product.Mul(a, b)
	dest.Div(s.product, c)
	if s.rem.Rem(s.product, c).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// divRoundingUp writes ceil(a / b) into dest.
func (s *SqrtPriceMath) divRoundingUp(dest, a, b *big.Int) {
	dest.Div(a, b)
	if s.rem.Rem(a, b).Sign() > 0 {
		dest.Add(dest, one)
	}
}

// --- Public API with Destination-Passing ---

// GetNextSqrtPriceFromAmount0RoundingUp calculates the next sqrt price given a delta of token0.
func GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX32, liquidity, amount *big.Int, add bool) error {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX32, liquidity, amount, add)
}

// GetNextSqrtPriceFromAmount1RoundingDown calculates the next sqrt price given a delta of token1.
func GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX32, liquidity, amount *big.Int, add bool) error {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX32, liquidity, amount, add)
}

// GetNextSqrtPriceFromInput calculates the next sqrt price given an input amount.
func GetNextSqrtPriceFromInput(dest, sqrtPX32, liquidity, amountIn *big.Int, zeroForOne bool) error {
	if sqrtPX32.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX32, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX32, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput calculates the next sqrt price given an output amount.
func GetNextSqrtPriceFromOutput(dest, sqrtPX32, liquidity, amountOut *big.Int, zeroForOne bool) error {
	if sqrtPX32.Sign() <= 0 {
		return ErrSqrtPriceZero
	}
	if liquidity.Sign() <= 0 {
		return ErrLiquidityZero
	}

	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX32, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX32, liquidity, amountOut, false)
}

// GetAmount0Delta calculates the amount0 locked between two sqrt prices.
func GetAmount0Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity *big.Int, roundUp bool) error {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	return s.getAmount0Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity, roundUp)
}

// GetAmount1Delta calculates the amount1 locked between two sqrt prices.
func GetAmount1Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity *big.Int, roundUp bool) {
	s := pool.Get().(*SqrtPriceMath)
	defer pool.Put(s)
	s.getAmount1Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity, roundUp)
}

// EncodeSqrtRatioX32 returns the Q32.32 sqrt price for the ratio amount1/amount0.
func EncodeSqrtRatioX32(amount1, amount0 *big.Int) *big.Int {
	num := new(big.Int).Lsh(amount1, 64)
	ratio := num.Div(num, amount0)
	return ratio.Sqrt(ratio)
}

// --- Internal Implementations (using destination-passing for performance) ---

func (s *SqrtPriceMath) getNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX32, liquidity, amount *big.Int, add bool) error {
	if amount.Sign() == 0 {
		dest.Set(sqrtPX32)
		return nil
	}

	s.numerator1.Lsh(liquidity, Resolution)

	if add {
		// The reference computes amount * sqrtPrice in 128 bits; mask the
		// product and fall back to the overflow-safe form on precision loss.
		s.product.Mul(amount, sqrtPX32)
		s.product.And(s.product, maxUint128)
		if s.quotient.Div(s.product, amount).Cmp(sqrtPX32) == 0 {
			s.denominator.Add(s.numerator1, s.product)
			s.denominator.And(s.denominator, maxUint128)
			if s.denominator.Cmp(s.numerator1) >= 0 {
				s.mulDivRoundingUp(dest, s.numerator1, sqrtPX32, s.denominator)
				return nil
			}
		}
		s.denominator.Div(s.numerator1, sqrtPX32)
		s.denominator.Add(s.denominator, amount)
		s.divRoundingUp(dest, s.numerator1, s.denominator)
		return nil
	} else {
		s.product.Mul(amount, sqrtPX32)
		s.product.And(s.product, maxUint128)
		if s.quotient.Div(s.product, amount).Cmp(sqrtPX32) != 0 || s.numerator1.Cmp(s.product) <= 0 {
			return ErrInsufficientLiquidity
		}
		s.denominator.Sub(s.numerator1, s.product)
		s.mulDivRoundingUp(dest, s.numerator1, sqrtPX32, s.denominator)
		return nil
	}
}

func (s *SqrtPriceMath) getNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX32, liquidity, amount *big.Int, add bool) error {
	if add {
		s.mulDiv(s.quotient, amount, Q32, liquidity)
		dest.Add(sqrtPX32, s.quotient)
		return nil
	} else {
		s.mulDivRoundingUp(s.quotient, amount, Q32, liquidity)
		if sqrtPX32.Cmp(s.quotient) <= 0 {
			return ErrInsufficientLiquidity
		}
		dest.Sub(sqrtPX32, s.quotient)
		return nil
	}
}

func (s *SqrtPriceMath) getAmount0Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity *big.Int, roundUp bool) error {
	if sqrtRatioAX32.Cmp(sqrtRatioBX32) > 0 {
		sqrtRatioAX32, sqrtRatioBX32 = sqrtRatioBX32, sqrtRatioAX32
	}
	if sqrtRatioAX32.Sign() <= 0 {
		return ErrSqrtPriceZero
	}

	s.numerator1.Lsh(liquidity, Resolution)
	s.numerator2.Sub(sqrtRatioBX32, sqrtRatioAX32)

	if roundUp {
		s.mulDivRoundingUp(s.term, s.numerator1, s.numerator2, sqrtRatioBX32)
		s.divRoundingUp(dest, s.term, sqrtRatioAX32)
	} else {
		s.mulDiv(s.term, s.numerator1, s.numerator2, sqrtRatioBX32)
		dest.Div(s.term, sqrtRatioAX32)
	}
	return nil
}

func (s *SqrtPriceMath) getAmount1Delta(dest, sqrtRatioAX32, sqrtRatioBX32, liquidity *big.Int, roundUp bool) {
	if sqrtRatioAX32.Cmp(sqrtRatioBX32) > 0 {
		sqrtRatioAX32, sqrtRatioBX32 = sqrtRatioBX32, sqrtRatioAX32
	}

	s.numerator1.Sub(sqrtRatioBX32, sqrtRatioAX32)
	if roundUp {
		s.mulDivRoundingUp(dest, liquidity, s.numerator1, Q32)
	} else {
		s.mulDiv(dest, liquidity, s.numerator1, Q32)
	}
}
