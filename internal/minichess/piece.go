package minichess

import (
	"fmt"
	"strings"
)

// Side is the color of a piece or player.
type Side uint8

const (
	White Side = iota
	Black
)

// Other returns the opposite side.
func (s Side) Other() Side {
	return s ^ 1
}

// String returns "white" or "black".
func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// ParseSide parses "white"/"w" or "black"/"b", case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(s) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("minichess: invalid side %q", s)
}

// PieceType is the kind of a piece.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

// Material values in pawn units. The king carries no material value.
var pieceValues = [7]int{1, 3, 3, 5, 9, 0, 0}

// Value returns the material value of the piece type.
func (pt PieceType) Value() int {
	if pt > NoPieceType {
		return 0
	}
	return pieceValues[pt]
}

// String returns the lowercase English name of the piece type.
func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// Piece combines a PieceType with a Side in one byte. The zero value is
// NoPiece, the empty square.
type Piece uint8

const (
	NoPiece Piece = iota
	WhitePawn
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
)

// NewPiece builds a Piece from type and side.
func NewPiece(pt PieceType, s Side) Piece {
	if pt >= NoPieceType || s > Black {
		return NoPiece
	}
	return Piece(1 + uint8(pt) + uint8(s)*6)
}

// Type returns the kind of the piece, NoPieceType for NoPiece.
func (p Piece) Type() PieceType {
	if p == NoPiece || p > BlackKing {
		return NoPieceType
	}
	return PieceType((p - 1) % 6)
}

// Side returns the owner of the piece. Only meaningful when p != NoPiece.
func (p Piece) Side() Side {
	if p >= BlackPawn && p <= BlackKing {
		return Black
	}
	return White
}

// Value returns the material value of the piece, zero for NoPiece.
func (p Piece) Value() int {
	return p.Type().Value()
}

// String returns the FEN character of the piece: uppercase for White,
// lowercase for Black, a space for NoPiece.
func (p Piece) String() string {
	if p == NoPiece || p > BlackKing {
		return " "
	}
	return string("PNBRQKpnbrqk"[p-1])
}

// PieceFromChar converts a FEN character into a Piece, NoPiece when the
// character names no piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	}
	return NoPiece
}
