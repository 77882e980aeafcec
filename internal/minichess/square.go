package minichess

import (
	"errors"
	"fmt"
)

// ErrInvalidSquare is returned when a coordinate falls outside the board.
var ErrInvalidSquare = errors.New("minichess: invalid square")

// Square is a board coordinate in 0..63, little-endian rank-file:
// a1=0, h1=7, a8=56, h8=63.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// File returns the file of the square (0=a .. 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank of the square (0=first rank .. 7=eighth).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// RelativeRank returns the rank as seen from the given side: 0 is the
// side's home rank, 7 its promotion rank.
func (sq Square) RelativeRank(s Side) int {
	if s == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}

// IsValid reports whether the square lies on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// String returns the algebraic name of the square, e.g. "e4".
func (sq Square) String() string {
	if !sq.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// NewSquare builds a square from 0-indexed file and rank. Out-of-range
// components fail with ErrInvalidSquare; this is the only place a bad
// coordinate can surface.
func NewSquare(file, rank int) (Square, error) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: file=%d rank=%d", ErrInvalidSquare, file, rank)
	}
	return squareAt(file, rank), nil
}

// squareAt is NewSquare without the range check, for callers that already
// validated the components.
func squareAt(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation ("e4") into a Square.
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '1')
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return squareAt(file, rank), nil
}
