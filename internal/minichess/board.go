// Package minichess implements a simplified two-player chess variant:
// pieces move as in chess, but there is no check detection, no castling
// and no en passant, and a pawn reaching its last rank always becomes a
// queen. Boards are immutable snapshots; applying a move yields a new
// board and never touches the old one.
package minichess

import (
	"fmt"
	"strings"
)

// Board is a complete position: 64 squares plus the side to move. It is a
// value type; share and store it freely, every mutation path returns a
// fresh copy.
type Board struct {
	squares [64]Piece
	turn    Side
}

// Back-rank piece order, a-file to h-file.
var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard starting position. White occupies ranks
// 1-2, Black ranks 7-8, White to move.
func NewBoard() Board {
	var b Board
	for file := 0; file < 8; file++ {
		b.squares[squareAt(file, 0)] = NewPiece(backRank[file], White)
		b.squares[squareAt(file, 1)] = NewPiece(Pawn, White)
		b.squares[squareAt(file, 6)] = NewPiece(Pawn, Black)
		b.squares[squareAt(file, 7)] = NewPiece(backRank[file], Black)
	}
	return b
}

// PieceAt returns the piece on the square, NoPiece when the square is
// empty or invalid.
func (b Board) PieceAt(sq Square) Piece {
	if !sq.IsValid() {
		return NoPiece
	}
	return b.squares[sq]
}

// SideToMove returns whose turn it is.
func (b Board) SideToMove() Side {
	return b.turn
}

// Placement returns the FEN piece-placement field of the position: ranks
// 8 down to 1 separated by '/', digits counting empty runs.
func (b Board) Placement() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			p := b.squares[squareAt(file, rank)]
			if p == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte('0' + byte(empty))
				empty = 0
			}
			sb.WriteString(p.String())
		}
		if empty > 0 {
			sb.WriteByte('0' + byte(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// String returns the placement plus the side to move, "…/… w".
func (b Board) String() string {
	turn := "w"
	if b.turn == Black {
		turn = "b"
	}
	return b.Placement() + " " + turn
}

// ParseBoard builds a position from a placement string as produced by
// Placement or String: the piece field, optionally followed by "w" or
// "b" for the side to move (White when absent).
func ParseBoard(s string) (Board, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 2 {
		return Board{}, fmt.Errorf("minichess: invalid position %q", s)
	}
	var b Board
	rank, file := 7, 0
	for i := 0; i < len(fields[0]); i++ {
		c := fields[0][i]
		switch {
		case c == '/':
			if file != 8 || rank == 0 {
				return Board{}, fmt.Errorf("minichess: invalid placement %q", fields[0])
			}
			rank--
			file = 0
		case c >= '1' && c <= '8':
			file += int(c - '0')
			if file > 8 {
				return Board{}, fmt.Errorf("minichess: invalid placement %q", fields[0])
			}
		default:
			p := PieceFromChar(c)
			if p == NoPiece || file > 7 {
				return Board{}, fmt.Errorf("minichess: invalid placement %q", fields[0])
			}
			b.squares[squareAt(file, rank)] = p
			file++
		}
	}
	if rank != 0 || file != 8 {
		return Board{}, fmt.Errorf("minichess: invalid placement %q", fields[0])
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "w":
			b.turn = White
		case "b":
			b.turn = Black
		default:
			return Board{}, fmt.Errorf("minichess: invalid side to move %q", fields[1])
		}
	}
	return b, nil
}
