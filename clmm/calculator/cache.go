package calculator

import (
	"context"

	"github.com/cykura/sdk/clmm"
)

type nextKey struct {
	tick int64
	lte  bool
}

// quoteCache memoizes directory reads for the duration of one quote. A swap
// that re-enters a word or re-reads a crossed tick must observe the same
// record it saw the first time, and a remote-backed directory should not be
// hit twice for it. The cache is created per call and never shared.
type quoteCache struct {
	dir      clmm.TickDirectory
	ticks    map[int64]clmm.TickInfo
	locators map[int64]clmm.Locator
	next     map[nextKey]clmm.NextTickResult
}

func newQuoteCache(dir clmm.TickDirectory) *quoteCache {
	return &quoteCache{
		dir:      dir,
		ticks:    make(map[int64]clmm.TickInfo),
		locators: make(map[int64]clmm.Locator),
		next:     make(map[nextKey]clmm.NextTickResult),
	}
}

func (c *quoteCache) GetTick(ctx context.Context, tick int64) (clmm.TickInfo, error) {
	if info, ok := c.ticks[tick]; ok {
		return info, nil
	}
	info, err := c.dir.GetTick(ctx, tick)
	if err != nil {
		return clmm.TickInfo{}, err
	}
	c.ticks[tick] = info
	return info, nil
}

func (c *quoteCache) GetTickLocator(ctx context.Context, tick int64) (clmm.Locator, error) {
	if loc, ok := c.locators[tick]; ok {
		return loc, nil
	}
	loc, err := c.dir.GetTickLocator(ctx, tick)
	if err != nil {
		return "", err
	}
	c.locators[tick] = loc
	return loc, nil
}

func (c *quoteCache) NextInitializedTickWithinOneWord(ctx context.Context, tick int64, lte bool, tickSpacing int64) (clmm.NextTickResult, error) {
	key := nextKey{tick: tick, lte: lte}
	if res, ok := c.next[key]; ok {
		return res, nil
	}
	res, err := c.dir.NextInitializedTickWithinOneWord(ctx, tick, lte, tickSpacing)
	if err != nil {
		return clmm.NextTickResult{}, err
	}
	c.next[key] = res
	return res, nil
}
