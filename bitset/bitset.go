package bitset

import "math/bits"

// WordBits is the number of bit positions in a bitmap word.
const WordBits = 256

// Word is a fixed 256-bit set. Bit 0 is the lowest position. The zero value
// is the empty word, which is also how an unfetched bitmap word is modeled.
type Word [4]uint64

func (w Word) IsSet(index uint) bool {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	return (w[wordPosition] & mask) != 0
}

func (w *Word) Set(index uint) {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	w[wordPosition] |= mask
}

func (w *Word) Unset(index uint) {
	wordPosition := index / 64
	bitPosition := index % 64
	mask := uint64(1) << bitPosition

	w[wordPosition] = w[wordPosition] &^ mask
}

func (w Word) IsZero() bool {
	return w[0]|w[1]|w[2]|w[3] == 0
}

// PrevSet returns the highest set bit position <= index, scanning downward.
// The second return value is false if no bit at or below index is set.
func (w Word) PrevSet(index uint) (uint, bool) {
	wordPosition := int(index / 64)
	bitPosition := index % 64

	// Mask off bits above index in the first word inspected.
	word := w[wordPosition] & (^uint64(0) >> (63 - bitPosition))
	for {
		if word != 0 {
			msb := 63 - bits.LeadingZeros64(word)
			return uint(wordPosition*64 + msb), true
		}
		wordPosition--
		if wordPosition < 0 {
			return 0, false
		}
		word = w[wordPosition]
	}
}

// NextSet returns the lowest set bit position >= index, scanning upward.
// The second return value is false if no bit at or above index is set.
func (w Word) NextSet(index uint) (uint, bool) {
	wordPosition := int(index / 64)
	bitPosition := index % 64

	// Mask off bits below index in the first word inspected.
	word := w[wordPosition] & (^uint64(0) << bitPosition)
	for {
		if word != 0 {
			lsb := bits.TrailingZeros64(word)
			return uint(wordPosition*64 + lsb), true
		}
		wordPosition++
		if wordPosition > 3 {
			return 0, false
		}
		word = w[wordPosition]
	}
}
