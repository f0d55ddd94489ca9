package clmm

import (
	"errors"
	"math/big"

	"github.com/cykura/sdk/clmm/calculator/tickmath"
)

var (
	ErrTokenOrder         = errors.New("token0 must sort before token1")
	ErrFeeTooHigh         = errors.New("fee must be below 1,000,000 hundredths of a bip")
	ErrInvalidTickSpacing = errors.New("tick spacing must be positive")
	ErrMissingPoolState   = errors.New("pool liquidity and sqrt price are required")
	ErrPriceTickMismatch  = errors.New("sqrt price does not lie within the current tick's range")
)

// DefaultStepBudget bounds the number of swap-loop iterations when a pool
// does not set its own budget. It models the cap on distinct records a
// transaction may reference.
const DefaultStepBudget = 32

// PoolView provides the scalar state of a single concentrated-liquidity pool.
type PoolView struct {
	ID           uint64   `json:"id"`
	Token0       uint64   `json:"token0"`
	Token1       uint64   `json:"token1"`
	Fee          uint64   `json:"fee"`
	TickSpacing  int64    `json:"tickSpacing"`
	Tick         int64    `json:"tick"`
	Liquidity    *big.Int `json:"liquidity"`
	SqrtPriceX32 *big.Int `json:"sqrtPriceX32"`

	// StepBudget caps the swap loop's iterations; zero means DefaultStepBudget.
	StepBudget int `json:"stepBudget,omitempty"`
}

// TickInfo is an initialized tick as seen by the swap engine: the signed
// change in active liquidity when the price crosses it moving upward.
// Fee-growth and oracle bookkeeping live outside this engine.
type TickInfo struct {
	Index        int64    `json:"index"`
	LiquidityNet *big.Int `json:"liquidityNet"`
}

// Pool is an immutable snapshot of a pool plus the directory capability its
// tick and bitmap records are read through. Swaps never mutate a Pool; they
// produce a successor value.
type Pool struct {
	PoolView
	Directory TickDirectory `json:"-"`
}

// NewPool validates a pool snapshot and binds it to a tick directory.
// A nil directory yields a pool that fails on any tick-dependent operation.
func NewPool(view PoolView, directory TickDirectory) (Pool, error) {
	if view.Token0 >= view.Token1 {
		return Pool{}, ErrTokenOrder
	}
	if view.Fee >= 1_000_000 {
		return Pool{}, ErrFeeTooHigh
	}
	if view.TickSpacing <= 0 {
		return Pool{}, ErrInvalidTickSpacing
	}
	if view.Liquidity == nil || view.SqrtPriceX32 == nil {
		return Pool{}, ErrMissingPoolState
	}

	// The current sqrt price must lie within the current tick's range.
	lower := new(big.Int)
	if err := tickmath.GetSqrtRatioAtTick(lower, view.Tick); err != nil {
		return Pool{}, err
	}
	if view.SqrtPriceX32.Cmp(lower) < 0 {
		return Pool{}, ErrPriceTickMismatch
	}
	if view.Tick < tickmath.MAX_TICK {
		upper := new(big.Int)
		if err := tickmath.GetSqrtRatioAtTick(upper, view.Tick+1); err != nil {
			return Pool{}, err
		}
		if view.SqrtPriceX32.Cmp(upper) > 0 {
			return Pool{}, ErrPriceTickMismatch
		}
	}

	if directory == nil {
		directory = NoTickDirectory{}
	}
	return Pool{PoolView: view, Directory: directory}, nil
}

// InvolvesToken reports whether the given token identifier is one of the
// pool's pair.
func (p Pool) InvolvesToken(tokenID uint64) bool {
	return tokenID == p.Token0 || tokenID == p.Token1
}
