// Package hashing computes the perceptual hashes used as distance oracles: a 64-bit
// pHash, a colour histogram hash and a crop-resistant multi-hash built on top of it.
package hashing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLengthMismatch = errors.New("hashes differ in length")
	ErrEmptyImage     = errors.New("image has no pixels")
)

// Hash is a bit string laid out in rows, the way colour hashes group their bits per bin
type Hash struct {
	bits []bool
	rows int
}

// NewHash builds a hash from bits grouped into rows of equal width
func NewHash(bits []bool, rows int) (Hash, error) {
	if rows <= 0 || len(bits)%rows != 0 {
		return Hash{}, fmt.Errorf("%d bits cannot be split into %d rows", len(bits), rows)
	}
	return Hash{bits: append([]bool(nil), bits...), rows: rows}, nil
}

// Len returns the number of rows
func (h Hash) Len() int {
	return h.rows
}

// Bits returns the total number of bits
func (h Hash) Bits() int {
	return len(h.bits)
}

// Distance returns the Hamming distance between two hashes of the same shape
func (h Hash) Distance(other Hash) (int, error) {
	if len(h.bits) != len(other.bits) {
		return 0, fmt.Errorf("%w: %d and %d bits", ErrLengthMismatch, len(h.bits), len(other.bits))
	}
	distance := 0
	for i, bit := range h.bits {
		if bit != other.bits[i] {
			distance++
		}
	}
	return distance, nil
}

// String renders the bits as hex, most significant bit first
func (h Hash) String() string {
	var sb strings.Builder
	pad := (4 - len(h.bits)%4) % 4
	nibble, n := 0, pad
	for _, bit := range h.bits {
		nibble <<= 1
		if bit {
			nibble |= 1
		}
		n++
		if n == 4 {
			fmt.Fprintf(&sb, "%x", nibble)
			nibble, n = 0, 0
		}
	}
	return sb.String()
}
