package calculator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/cykura/sdk/clmm"
	"github.com/cykura/sdk/clmm/calculator/liquiditymath"
	"github.com/cykura/sdk/clmm/calculator/swapmath"
	"github.com/cykura/sdk/clmm/calculator/tickmath"
)

var (
	ErrInvalidAmountIn       = errors.New("amountIn must be greater than zero")
	ErrInvalidAmountOut      = errors.New("amountOut must be negative for an exact-output swap")
	ErrTokenMismatch         = errors.New("token mismatch")
	ErrPriceLimitOutOfBounds = errors.New("price limit out of bounds for trade direction")
	ErrStepBudgetExceeded    = errors.New("swap exceeded its step budget")

	Q32    = new(big.Int).Lsh(big.NewInt(1), 32)
	Q32F   = new(big.Float).SetInt(Q32)
	oneInt = big.NewInt(1)
)

// swapState represents the state of a swap as it progresses.
// It includes all temporary variables needed for the simulation to avoid allocations.
type swapState struct {
	// --- Input parameters ---
	amountSpecifiedRemaining *big.Int
	amountCalculated         *big.Int
	sqrtPriceX32             *big.Int
	tick                     int64
	liquidity                *big.Int

	// --- Reusable temporary variables for the loop ---
	sqrtPriceStartX32 *big.Int
	sqrtPriceNextX32  *big.Int
	targetPrice       *big.Int
	stepAmountIn      *big.Int
	stepAmountOut     *big.Int
	stepFeeAmount     *big.Int
	tempAmount        *big.Int
	liquidityNet      *big.Int

	// --- Touched-resource tracking ---
	touched   []clmm.Locator
	seenWords map[int64]struct{}
	seenTicks map[int64]struct{}
}

func (s *swapState) reset() {
	s.touched = s.touched[:0]
	clear(s.seenWords)
	clear(s.seenTicks)
}

// swapStatePool manages a pool of swapState objects for safe concurrent use.
var swapStatePool = sync.Pool{
	New: func() any {
		return &swapState{
			amountSpecifiedRemaining: new(big.Int),
			amountCalculated:         new(big.Int),
			sqrtPriceX32:             new(big.Int),
			liquidity:                new(big.Int),
			sqrtPriceStartX32:        new(big.Int),
			sqrtPriceNextX32:         new(big.Int),
			targetPrice:              new(big.Int),
			stepAmountIn:             new(big.Int),
			stepAmountOut:            new(big.Int),
			stepFeeAmount:            new(big.Int),
			tempAmount:               new(big.Int),
			liquidityNet:             new(big.Int),
			seenWords:                make(map[int64]struct{}),
			seenTicks:                make(map[int64]struct{}),
		}
	},
}

// _swap is the internal, core simulation engine. It walks the tick bitmap
// through the pool's directory, computing one swap step per initialized-tick
// range, until the requested amount is satisfied, the price limit is reached,
// or the tick range is exhausted.
func _swap(
	ctx context.Context,
	state *swapState,
	pool clmm.Pool,
	sqrtPriceLimitX32 *big.Int,
	zeroForOne bool,
) error {

	if sqrtPriceLimitX32 == nil {
		// One unit past the global boundary in the trade direction.
		if zeroForOne {
			sqrtPriceLimitX32 = new(big.Int).Add(tickmath.MIN_SQRT_RATIO, oneInt)
		} else {
			sqrtPriceLimitX32 = new(big.Int).Sub(tickmath.MAX_SQRT_RATIO, oneInt)
		}
	}

	// The limit must lie strictly between the current price and the global
	// bound in the trade direction.
	if zeroForOne {
		if sqrtPriceLimitX32.Cmp(state.sqrtPriceX32) >= 0 || sqrtPriceLimitX32.Cmp(tickmath.MIN_SQRT_RATIO) <= 0 {
			return ErrPriceLimitOutOfBounds
		}
	} else {
		if sqrtPriceLimitX32.Cmp(state.sqrtPriceX32) <= 0 || sqrtPriceLimitX32.Cmp(tickmath.MAX_SQRT_RATIO) >= 0 {
			return ErrPriceLimitOutOfBounds
		}
	}

	budget := pool.StepBudget
	if budget == 0 {
		budget = clmm.DefaultStepBudget
	}

	// Per-call read cache; never shared across swaps.
	dir := newQuoteCache(pool.Directory)

	exactInput := state.amountSpecifiedRemaining.Sign() > 0

	// Main simulation loop.
	steps := 0
	for state.amountSpecifiedRemaining.Sign() != 0 &&
		state.sqrtPriceX32.Cmp(sqrtPriceLimitX32) != 0 &&
		state.tick > tickmath.MIN_TICK && state.tick < tickmath.MAX_TICK {

		steps++
		if steps > budget {
			return fmt.Errorf("%w: budget %d", ErrStepBudgetExceeded, budget)
		}

		state.sqrtPriceStartX32.Set(state.sqrtPriceX32)

		res, err := dir.NextInitializedTickWithinOneWord(ctx, state.tick, zeroForOne, pool.TickSpacing)
		if err != nil {
			return err
		}
		if _, ok := state.seenWords[res.WordPos]; !ok {
			state.seenWords[res.WordPos] = struct{}{}
			state.touched = append(state.touched, res.Word)
		}

		tickNext := res.Next
		if tickNext < tickmath.MIN_TICK {
			tickNext = tickmath.MIN_TICK
		} else if tickNext > tickmath.MAX_TICK {
			tickNext = tickmath.MAX_TICK
		}

		if err := tickmath.GetSqrtRatioAtTick(state.sqrtPriceNextX32, tickNext); err != nil {
			return err
		}

		if (zeroForOne && state.sqrtPriceNextX32.Cmp(sqrtPriceLimitX32) < 0) ||
			(!zeroForOne && state.sqrtPriceNextX32.Cmp(sqrtPriceLimitX32) > 0) {
			state.targetPrice.Set(sqrtPriceLimitX32)
		} else {
			state.targetPrice.Set(state.sqrtPriceNextX32)
		}

		err = swapmath.ComputeSwapStep(
			state.sqrtPriceX32, state.stepAmountIn, state.stepAmountOut, state.stepFeeAmount, // Destination pointers
			state.sqrtPriceStartX32,
			state.targetPrice,
			state.liquidity,
			state.amountSpecifiedRemaining,
			state.tempAmount.SetUint64(pool.Fee),
		)
		if err != nil {
			return err
		}

		if exactInput {
			state.amountSpecifiedRemaining.Sub(state.amountSpecifiedRemaining, state.tempAmount.Add(state.stepAmountIn, state.stepFeeAmount))
			state.amountCalculated.Add(state.amountCalculated, state.stepAmountOut)
		} else {
			state.amountSpecifiedRemaining.Add(state.amountSpecifiedRemaining, state.stepAmountOut)
			state.amountCalculated.Add(state.amountCalculated, state.tempAmount.Add(state.stepAmountIn, state.stepFeeAmount))
		}

		if state.sqrtPriceX32.Cmp(state.sqrtPriceNextX32) == 0 {
			// The step crossed the candidate tick.
			if res.Initialized {
				if _, ok := state.seenTicks[tickNext]; !ok {
					state.seenTicks[tickNext] = struct{}{}
					loc, err := dir.GetTickLocator(ctx, tickNext)
					if err != nil {
						return err
					}
					state.touched = append(state.touched, loc)
				}

				info, err := dir.GetTick(ctx, tickNext)
				if err != nil {
					return err
				}
				state.liquidityNet.Set(info.LiquidityNet)
				if zeroForOne {
					state.liquidityNet.Neg(state.liquidityNet)
				}
				if err := liquiditymath.AddDelta(state.liquidity, state.liquidity, state.liquidityNet); err != nil {
					return err
				}
			}

			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtPriceX32.Cmp(state.sqrtPriceStartX32) != 0 {
			// Partial move within the range; recompute the tick from the price.
			state.tick, err = tickmath.GetTickAtSqrtRatio(state.sqrtPriceX32)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// QuoteExactInput calculates the output amount, successor pool state, and the
// set of remote records a transaction performing this swap would reference.
func QuoteExactInput(
	ctx context.Context,
	amountIn *big.Int,
	sqrtPriceLimitX32 *big.Int,
	tokenInID uint64,
	pool clmm.Pool,
) (amountOut *big.Int, newPoolState clmm.Pool, touched []clmm.Locator, err error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, clmm.Pool{}, nil, ErrInvalidAmountIn
	}

	zeroForOne := tokenInID == pool.Token0
	if !zeroForOne && tokenInID != pool.Token1 {
		return nil, clmm.Pool{}, nil, fmt.Errorf("%w: token %d is not in pool %d", ErrTokenMismatch, tokenInID, pool.ID)
	}

	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)
	state.reset()

	// Set the amount to be swapped (a positive number)
	state.amountSpecifiedRemaining.Set(amountIn)
	state.amountCalculated.SetInt64(0)
	state.sqrtPriceX32.Set(pool.SqrtPriceX32)
	state.tick = pool.Tick
	state.liquidity.Set(pool.Liquidity)

	if err := _swap(ctx, state, pool, sqrtPriceLimitX32, zeroForOne); err != nil {
		return nil, clmm.Pool{}, nil, err
	}

	newPoolState = pool
	newPoolState.SqrtPriceX32 = new(big.Int).Set(state.sqrtPriceX32)
	newPoolState.Tick = state.tick
	newPoolState.Liquidity = new(big.Int).Set(state.liquidity)

	// amountCalculated now holds the amountOut
	amountOut = new(big.Int).Set(state.amountCalculated)
	touched = append([]clmm.Locator(nil), state.touched...)
	return amountOut, newPoolState, touched, nil
}

// QuoteExactOutput calculates the required input amount, successor pool state,
// and touched records for a swap that must deliver an exact output.
// NOTE: It expects a negative amountOut to signal the exact-output swap type.
func QuoteExactOutput(
	ctx context.Context,
	amountOut *big.Int,
	sqrtPriceLimitX32 *big.Int,
	tokenInID uint64,
	pool clmm.Pool,
) (amountIn *big.Int, newPoolState clmm.Pool, touched []clmm.Locator, err error) {
	if amountOut == nil || amountOut.Sign() >= 0 {
		return nil, clmm.Pool{}, nil, ErrInvalidAmountOut
	}

	zeroForOne := tokenInID == pool.Token0
	if !zeroForOne && tokenInID != pool.Token1 {
		return nil, clmm.Pool{}, nil, fmt.Errorf("%w: token %d is not in pool %d", ErrTokenMismatch, tokenInID, pool.ID)
	}

	state := swapStatePool.Get().(*swapState)
	defer swapStatePool.Put(state)
	state.reset()

	// Set the amount to be received (a negative number to trigger exact-out logic in _swap)
	state.amountSpecifiedRemaining.Set(amountOut)
	state.amountCalculated.SetInt64(0)
	state.sqrtPriceX32.Set(pool.SqrtPriceX32)
	state.tick = pool.Tick
	state.liquidity.Set(pool.Liquidity)

	if err := _swap(ctx, state, pool, sqrtPriceLimitX32, zeroForOne); err != nil {
		return nil, clmm.Pool{}, nil, err
	}

	newPoolState = pool
	newPoolState.SqrtPriceX32 = new(big.Int).Set(state.sqrtPriceX32)
	newPoolState.Tick = state.tick
	newPoolState.Liquidity = new(big.Int).Set(state.liquidity)

	// amountCalculated now holds the required amountIn
	amountIn = new(big.Int).Set(state.amountCalculated)
	touched = append([]clmm.Locator(nil), state.touched...)
	return amountIn, newPoolState, touched, nil
}

// GetAmountOut calculates the amount out for a given exact amount in, when
// the caller does not need the successor pool state.
func GetAmountOut(
	ctx context.Context,
	amountIn *big.Int,
	sqrtPriceLimitX32 *big.Int,
	tokenInID uint64,
	pool clmm.Pool,
) (*big.Int, error) {
	amountOut, _, _, err := QuoteExactInput(ctx, amountIn, sqrtPriceLimitX32, tokenInID, pool)
	return amountOut, err
}

// GetAmountIn calculates the required amount in for a given exact amount out.
// NOTE: It expects a negative amountOut to signal the exact-output swap type.
func GetAmountIn(
	ctx context.Context,
	amountOut *big.Int,
	sqrtPriceLimitX32 *big.Int,
	tokenInID uint64,
	pool clmm.Pool,
) (*big.Int, error) {
	amountIn, _, _, err := QuoteExactOutput(ctx, amountOut, sqrtPriceLimitX32, tokenInID, pool)
	return amountIn, err
}

// GetVirtualReserves calculates the virtual reserves of a pool based on its
// current liquidity and price.
func GetVirtualReserves(tokenInID, tokenOutID uint64, pool clmm.Pool) (reserveIn, reserveOut *big.Int, err error) {
	if !((tokenInID == pool.Token0 && tokenOutID == pool.Token1) || (tokenInID == pool.Token1 && tokenOutID == pool.Token0)) {
		return nil, nil, fmt.Errorf("%w: provided tokens do not match pool tokens", ErrTokenMismatch)
	}

	// This function is not on a hot path, so a few allocations are acceptable for clarity.
	reserve0 := new(big.Int).Div(new(big.Int).Lsh(pool.Liquidity, 32), pool.SqrtPriceX32)
	reserve1 := new(big.Int).Div(new(big.Int).Mul(pool.Liquidity, pool.SqrtPriceX32), Q32)

	if tokenInID == pool.Token0 {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

// GetSpotPrice calculates the spot price of tokenIn in terms of tokenOut,
// adjusted for token decimals. The returned big.Int represents the price
// with precision matching the decimals of tokenOut.
func GetSpotPrice(
	tokenInID, tokenOutID uint64,
	decimalsIn, decimalsOut uint8,
	pool clmm.Pool,
) (*big.Int, error) {
	if !((tokenInID == pool.Token0 && tokenOutID == pool.Token1) || (tokenInID == pool.Token1 && tokenOutID == pool.Token0)) {
		return nil, fmt.Errorf("%w: provided tokens do not match pool tokens", ErrTokenMismatch)
	}

	// SqrtPriceX32 is a Q32.32 fixed-point number: sqrt(token1/token0) * 2^32
	decimalsInF := big.NewFloat(math.Pow(10, float64(decimalsIn)))
	decimalsOutF := big.NewFloat(math.Pow(10, float64(decimalsOut)))

	sqrtPriceF := new(big.Float).SetInt(pool.SqrtPriceX32)
	intermediate := sqrtPriceF.Quo(sqrtPriceF, Q32F)
	price := new(big.Float).Mul(intermediate, intermediate)

	if tokenInID == pool.Token0 {
		spotPrice := new(big.Float).Quo(price, new(big.Float).Quo(decimalsOutF, decimalsInF))
		spotPrice.Mul(spotPrice, decimalsOutF)
		sp, _ := spotPrice.Int(nil)
		return sp, nil
	}

	spotPrice := new(big.Float).Quo(big.NewFloat(1), price)
	spotPrice.Quo(spotPrice, new(big.Float).Quo(decimalsOutF, decimalsInF))
	spotPrice.Mul(spotPrice, decimalsOutF)
	sp, _ := spotPrice.Int(nil)
	return sp, nil
}
