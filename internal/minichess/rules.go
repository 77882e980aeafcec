package minichess

// Offsets on the 0..63 grid. A step whose file shifts by more than two
// would have warped around the board edge; step rejects it.
var (
	knightOffsets = [8]int{-17, -15, -10, -6, 6, 10, 15, 17}
	kingOffsets   = [8]int{-9, -8, -7, -1, 1, 7, 8, 9}
	bishopOffsets = [4]int{-9, -7, 7, 9}
	rookOffsets   = [4]int{-8, -1, 1, 8}
)

// step returns the square reached from sq by the given offset, NoSquare
// when it leaves the board.
func (sq Square) step(offset int) Square {
	to := int(sq) + offset
	if to < 0 || to > 63 {
		return NoSquare
	}
	t := Square(to)
	if df := t.File() - sq.File(); df < -2 || df > 2 {
		return NoSquare
	}
	return t
}

type generator struct {
	board *Board
	moves []Move
}

// LegalMoves enumerates every move available to the side to move, origins
// in ascending square order (a1..h8), destinations in the fixed offset and
// ray order above. The order is deterministic for a given position; move
// selection relies on it.
func (b Board) LegalMoves() []Move {
	gen := generator{board: &b}
	for sq := A1; sq <= H8; sq++ {
		gen.from(sq)
	}
	return gen.moves
}

// LegalDestinations enumerates the squares reachable from the given
// origin. An empty, invalid or opponent-owned origin yields an empty set,
// never an error.
func (b Board) LegalDestinations(from Square) []Square {
	if !from.IsValid() {
		return nil
	}
	gen := generator{board: &b}
	gen.from(from)
	if len(gen.moves) == 0 {
		return nil
	}
	dests := make([]Square, len(gen.moves))
	for i, mv := range gen.moves {
		dests[i] = mv.To
	}
	return dests
}

// IsLegal reports whether the move would be generated for the current
// position.
func (b Board) IsLegal(mv Move) bool {
	for _, to := range b.LegalDestinations(mv.From) {
		if to == mv.To {
			return true
		}
	}
	return false
}

// Apply plays the move and returns the resulting position: origin
// emptied, any occupant of the destination discarded, pawn reaching its
// last rank replaced by a queen, side to move flipped. The receiver is
// left untouched. mv must come from LegalMoves or LegalDestinations for
// the same position.
func (b Board) Apply(mv Move) Board {
	next := b
	p := next.squares[mv.From]
	next.squares[mv.From] = NoPiece
	if p.Type() == Pawn && mv.To.RelativeRank(p.Side()) == 7 {
		p = NewPiece(Queen, p.Side())
	}
	next.squares[mv.To] = p
	next.turn = next.turn.Other()
	return next
}

func (gen *generator) from(sq Square) {
	p := gen.board.squares[sq]
	if p == NoPiece || p.Side() != gen.board.turn {
		return
	}
	switch p.Type() {
	case Pawn:
		gen.pawn(sq)
	case Knight:
		gen.leaper(sq, knightOffsets[:])
	case Bishop:
		gen.slider(sq, bishopOffsets[:])
	case Rook:
		gen.slider(sq, rookOffsets[:])
	case Queen:
		gen.slider(sq, bishopOffsets[:])
		gen.slider(sq, rookOffsets[:])
	case King:
		gen.leaper(sq, kingOffsets[:])
	}
}

// add records from->to unless the destination holds a friendly piece.
// Returns whether a slider may continue past to.
func (gen *generator) add(from, to Square) bool {
	if to == NoSquare {
		return false
	}
	occ := gen.board.squares[to]
	if occ == NoPiece || occ.Side() != gen.board.turn {
		gen.moves = append(gen.moves, Move{From: from, To: to})
	}
	return occ == NoPiece
}

func (gen *generator) leaper(from Square, offsets []int) {
	for _, off := range offsets {
		gen.add(from, from.step(off))
	}
}

func (gen *generator) slider(from Square, offsets []int) {
	for _, off := range offsets {
		to := from.step(off)
		for gen.add(from, to) {
			to = to.step(off)
		}
	}
}

// pawn moves: single push onto an empty square, double push from the
// home rank when both squares are empty, diagonal steps only as captures.
func (gen *generator) pawn(from Square) {
	forward := 8
	if gen.board.turn == Black {
		forward = -8
	}
	one := from.step(forward)
	if one != NoSquare && gen.board.squares[one] == NoPiece {
		gen.moves = append(gen.moves, Move{From: from, To: one})
		if from.RelativeRank(gen.board.turn) == 1 {
			if two := one.step(forward); two != NoSquare && gen.board.squares[two] == NoPiece {
				gen.moves = append(gen.moves, Move{From: from, To: two})
			}
		}
	}
	gen.pawnCapture(from, from.step(forward-1))
	gen.pawnCapture(from, from.step(forward+1))
}

func (gen *generator) pawnCapture(from, to Square) {
	if to == NoSquare {
		return
	}
	occ := gen.board.squares[to]
	if occ != NoPiece && occ.Side() != gen.board.turn {
		gen.moves = append(gen.moves, Move{From: from, To: to})
	}
}
