package minichess

// MaterialScore computes the material balance of the position: the sum of
// White's piece values minus Black's. Positive favors White. Kings do not
// count.
func MaterialScore(b Board) int {
	score := 0
	for sq := A1; sq <= H8; sq++ {
		p := b.squares[sq]
		if p == NoPiece {
			continue
		}
		if p.Side() == White {
			score += p.Value()
		} else {
			score -= p.Value()
		}
	}
	return score
}
