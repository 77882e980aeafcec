package minichess

import "fmt"

// Move describes moving whatever stands on From to To. It carries no
// board reference and no promotion flag: a pawn landing on its last rank
// is promoted to a queen by Apply unconditionally.
type Move struct {
	From Square
	To   Square
}

// String returns the coordinate form of the move, e.g. "e2e4".
func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// ParseMove parses coordinate form ("e2e4") into a Move.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 {
		return Move{}, fmt.Errorf("minichess: invalid move %q", s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, fmt.Errorf("minichess: invalid move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return Move{}, fmt.Errorf("minichess: invalid move %q: %w", s, err)
	}
	return Move{From: from, To: to}, nil
}
