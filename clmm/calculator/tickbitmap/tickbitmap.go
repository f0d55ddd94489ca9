package tickbitmap

import (
	"github.com/cykura/sdk/bitset"
)

// Compress maps a tick to its compressed index at the given spacing, rounding
// toward negative infinity so that negative ticks land in the right word.
func Compress(tick, tickSpacing int64) int64 {
	compressed := tick / tickSpacing
	if tick < 0 && tick%tickSpacing != 0 {
		compressed--
	}
	return compressed
}

// Position splits a compressed tick into its word index and the bit position
// within that 256-bit word.
func Position(compressed int64) (wordPos int64, bitPos uint) {
	wordPos = compressed >> 8
	bitPos = uint(compressed & 255)
	return wordPos, bitPos
}

// NextInitializedTickWithinOneWord returns the next initialized tick at or
// near the given tick, looking no further than the boundaries of one bitmap
// word. The caller supplies the 256-bit word for the position this query
// lands in; an unfetched word is passed as the zero value.
//
// When lte is true the scan runs from the tick's own bit downward and, if
// nothing is set, reports the word's lower boundary with initialized=false.
// Otherwise the scan starts one compressed tick above and runs upward,
// defaulting to the word's upper boundary. Callers walk word by word until
// an initialized tick or the global tick bound is reached.
func NextInitializedTickWithinOneWord(
	word bitset.Word,
	tick int64,
	lte bool,
	tickSpacing int64,
) (next int64, initialized bool, wordPos int64, bitPos uint) {
	compressed := Compress(tick, tickSpacing)

	if lte {
		wordPos, bitPos = Position(compressed)
		if b, ok := word.PrevSet(bitPos); ok {
			return (compressed - int64(bitPos-b)) * tickSpacing, true, wordPos, bitPos
		}
		return (compressed - int64(bitPos)) * tickSpacing, false, wordPos, bitPos
	}

	// Searching strictly greater: start at the next compressed tick.
	compressed++
	wordPos, bitPos = Position(compressed)
	if b, ok := word.NextSet(bitPos); ok {
		return (compressed + int64(b-bitPos)) * tickSpacing, true, wordPos, bitPos
	}
	return (compressed + int64(255-bitPos)) * tickSpacing, false, wordPos, bitPos
}
