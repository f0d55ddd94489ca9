package clmm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/cykura/sdk/bitset"
	"github.com/cykura/sdk/clmm/calculator/tickbitmap"
	"github.com/cykura/sdk/clmm/calculator/tickmath"
)

var (
	ErrTicksUnsorted       = errors.New("ticks must be sorted by index, strictly ascending")
	ErrTickMisaligned      = errors.New("tick index is not a multiple of the tick spacing")
	ErrTickSpacingMismatch = errors.New("tick spacing differs from the directory's spacing")

	zero = big.NewInt(0)
)

// TickListDirectory is an in-memory TickDirectory built from a complete list
// of a pool's initialized ticks. It derives the 256-bit bitmap words from the
// list, so single-word queries behave exactly like the remote directory's.
type TickListDirectory struct {
	tickSpacing int64
	ticks       []TickInfo
	words       map[int64]bitset.Word
}

var _ TickDirectory = (*TickListDirectory)(nil)

// NewTickListDirectory validates the tick list and indexes it. Ticks must be
// strictly ascending, aligned to the spacing, and within the global bounds.
func NewTickListDirectory(ticks []TickInfo, tickSpacing int64) (*TickListDirectory, error) {
	if tickSpacing <= 0 {
		return nil, ErrInvalidTickSpacing
	}

	words := make(map[int64]bitset.Word)
	for i, t := range ticks {
		if t.Index < tickmath.MIN_TICK || t.Index > tickmath.MAX_TICK {
			return nil, fmt.Errorf("tick %d: %w", t.Index, tickmath.ErrTickOutOfBounds)
		}
		if t.Index%tickSpacing != 0 {
			return nil, fmt.Errorf("tick %d: %w", t.Index, ErrTickMisaligned)
		}
		if i > 0 && ticks[i-1].Index >= t.Index {
			return nil, ErrTicksUnsorted
		}

		wordPos, bitPos := tickbitmap.Position(t.Index / tickSpacing)
		word := words[wordPos]
		word.Set(bitPos)
		words[wordPos] = word
	}

	return &TickListDirectory{
		tickSpacing: tickSpacing,
		ticks:       ticks,
		words:       words,
	}, nil
}

// GetTick returns the stored record for an initialized tick, or a
// zero-liquidity record if the tick is absent. Absence is a legitimate
// state, not an error.
func (d *TickListDirectory) GetTick(_ context.Context, tick int64) (TickInfo, error) {
	i := sort.Search(len(d.ticks), func(i int) bool {
		return d.ticks[i].Index >= tick
	})
	if i < len(d.ticks) && d.ticks[i].Index == tick {
		return d.ticks[i], nil
	}
	return TickInfo{Index: tick, LiquidityNet: zero}, nil
}

func (d *TickListDirectory) GetTickLocator(_ context.Context, tick int64) (Locator, error) {
	return Locator(fmt.Sprintf("tick/%d", tick)), nil
}

// NextInitializedTickWithinOneWord answers a single-word bitmap query from
// the derived words. A word with no initialized ticks reads as all zero.
func (d *TickListDirectory) NextInitializedTickWithinOneWord(
	_ context.Context,
	tick int64,
	lte bool,
	tickSpacing int64,
) (NextTickResult, error) {
	if tickSpacing != d.tickSpacing {
		return NextTickResult{}, ErrTickSpacingMismatch
	}

	compressed := tickbitmap.Compress(tick, tickSpacing)
	if !lte {
		compressed++
	}
	wordPos, _ := tickbitmap.Position(compressed)

	next, initialized, wordPos, bitPos := tickbitmap.NextInitializedTickWithinOneWord(
		d.words[wordPos], tick, lte, tickSpacing,
	)
	return NextTickResult{
		Next:        next,
		Initialized: initialized,
		WordPos:     wordPos,
		BitPos:      bitPos,
		Word:        Locator(fmt.Sprintf("word/%d", wordPos)),
	}, nil
}
