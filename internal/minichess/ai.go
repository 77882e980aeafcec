package minichess

// SelectMove picks a move for the side to move by a single-ply greedy
// rule: the candidate capturing the most material wins, where a
// candidate's worth is the value of whatever currently stands on its
// destination. Candidates are compared in LegalMoves order and only a
// strictly better capture displaces the current pick, so equal captures
// resolve to the earliest candidate; with no captures on the board the
// first legal move is chosen. Opponent replies are not considered.
//
// ok is false only when the side to move has no legal move at all.
func SelectMove(b Board) (mv Move, ok bool) {
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return Move{}, false
	}
	best := moves[0]
	bestGain := b.PieceAt(best.To).Value()
	for _, cand := range moves[1:] {
		if gain := b.PieceAt(cand.To).Value(); gain > bestGain {
			best = cand
			bestGain = gain
		}
	}
	return best, true
}
