package clmm

import (
	"context"
	"errors"
)

// ErrNoTickData is returned by NoTickDirectory for every operation. Pools
// constructed without tick data can still report spot prices and reserves
// but fail on any range-dependent computation.
var ErrNoTickData = errors.New("no tick data available")

// Locator is an opaque identifier for a remote record (a tick account or a
// bitmap word). The engine only collects locators so callers know which
// records a resulting transaction must reference; it never interprets them.
type Locator string

// NextTickResult is the answer to a single-word bitmap query.
type NextTickResult struct {
	// Next is the candidate tick: the nearest initialized tick within the
	// word, or the word boundary in the search direction if none is set.
	Next        int64
	Initialized bool
	WordPos     int64
	BitPos      uint
	// Word locates the bitmap record the query consulted.
	Word Locator
}

// TickDirectory is the capability through which the swap engine reads tick
// and bitmap records. Implementations may be backed by remote storage and
// may block; they must honor the passed context. The engine only reads.
type TickDirectory interface {
	// GetTick returns the liquidity bookkeeping for an initialized tick.
	// Directories backed by real storage return a zero-valued record for an
	// absent tick rather than failing; absence is an expected state.
	GetTick(ctx context.Context, tick int64) (TickInfo, error)

	// GetTickLocator returns the opaque record identifier for a tick. It is
	// used for resource tracking only, never for computation.
	GetTickLocator(ctx context.Context, tick int64) (Locator, error)

	// NextInitializedTickWithinOneWord finds the next initialized tick in
	// the given direction without looking past one 256-bit bitmap word.
	NextInitializedTickWithinOneWord(ctx context.Context, tick int64, lte bool, tickSpacing int64) (NextTickResult, error)
}

// NoTickDirectory is the "no tick data" stub: every operation fails with
// ErrNoTickData.
type NoTickDirectory struct{}

var _ TickDirectory = NoTickDirectory{}

func (NoTickDirectory) GetTick(context.Context, int64) (TickInfo, error) {
	return TickInfo{}, ErrNoTickData
}

func (NoTickDirectory) GetTickLocator(context.Context, int64) (Locator, error) {
	return "", ErrNoTickData
}

func (NoTickDirectory) NextInitializedTickWithinOneWord(context.Context, int64, bool, int64) (NextTickResult, error) {
	return NextTickResult{}, ErrNoTickData
}
