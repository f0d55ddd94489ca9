package liquiditymath

import (
	"errors"
	"math/big"
)

var (
	// maxUint64 is the maximum value the liquidity accumulator may hold (2^64 - 1).
	maxUint64 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1))

	ErrLiquidityOverflow  = errors.New("liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta adds a signed liquidity delta to an unsigned liquidity value,
// returning an error if the operation results in an overflow or underflow.
// Underflow means the upstream tick data is inconsistent; it is reported,
// never silently wrapped.
func AddDelta(dest *big.Int, x *big.Int, y *big.Int) error {
	dest.Add(x, y)

	if dest.Sign() < 0 {
		return ErrLiquidityUnderflow
	}

	if dest.Cmp(maxUint64) > 0 {
		return ErrLiquidityOverflow
	}

	return nil
}
