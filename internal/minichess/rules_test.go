package minichess

import "testing"

func squaresContain(dests []Square, sq Square) bool {
	for _, d := range dests {
		if d == sq {
			return true
		}
	}
	return false
}

func TestInitialPositionMoveCount(t *testing.T) {
	moves := NewBoard().LegalMoves()
	if len(moves) != 20 {
		t.Fatalf("expected 20 opening moves, got %d: %v", len(moves), moves)
	}
}

func TestKnightNearCorner(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/8/1N6/8 w")
	dests := b.LegalDestinations(B2)
	if len(dests) != 4 {
		t.Fatalf("knight on b2 should have 4 targets, got %d: %v", len(dests), dests)
	}
	for _, want := range []Square{D1, D3, A4, C4} {
		if !squaresContain(dests, want) {
			t.Fatalf("knight on b2 missing %s in %v", want, dests)
		}
	}
}

func TestKnightInCenter(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/3N4/8/8/8 w")
	if dests := b.LegalDestinations(D4); len(dests) != 8 {
		t.Fatalf("knight on d4 should have 8 targets, got %d: %v", len(dests), dests)
	}
}

func TestRookBlockedByFriendly(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/P7/8/R7 w")
	dests := b.LegalDestinations(A1)
	if squaresContain(dests, A3) {
		t.Fatalf("rook must not land on friendly pawn: %v", dests)
	}
	if !squaresContain(dests, A2) || !squaresContain(dests, H1) {
		t.Fatalf("rook missing open squares: %v", dests)
	}
	if len(dests) != 8 {
		t.Fatalf("expected 8 rook targets, got %d: %v", len(dests), dests)
	}
}

func TestRookCaptureStopsRay(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/p7/8/R7 w")
	dests := b.LegalDestinations(A1)
	if !squaresContain(dests, A3) {
		t.Fatalf("rook should capture on a3: %v", dests)
	}
	if squaresContain(dests, A4) {
		t.Fatalf("ray must stop at the capture: %v", dests)
	}
	if len(dests) != 9 {
		t.Fatalf("expected 9 rook targets, got %d: %v", len(dests), dests)
	}
}

func TestPawnPushes(t *testing.T) {
	b := NewBoard()
	dests := b.LegalDestinations(E2)
	if len(dests) != 2 || !squaresContain(dests, E3) || !squaresContain(dests, E4) {
		t.Fatalf("e2 pawn should offer e3 and e4, got %v", dests)
	}
}

func TestPawnBlocked(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/8/4p3/4P3/8 w")
	if dests := b.LegalDestinations(E2); len(dests) != 0 {
		t.Fatalf("blocked pawn must have no moves, got %v", dests)
	}
}

func TestPawnDoubleBlockedOnSecondSquare(t *testing.T) {
	b := mustBoard(t, "8/8/8/8/4p3/8/4P3/8 w")
	dests := b.LegalDestinations(E2)
	if len(dests) != 1 || dests[0] != E3 {
		t.Fatalf("expected only e3, got %v", dests)
	}
}

func TestPawnCapturesDiagonallyOnly(t *testing.T) {
	b := mustBoard(t, "8/8/8/3p4/4P3/8/8/8 w")
	dests := b.LegalDestinations(E4)
	if len(dests) != 2 || !squaresContain(dests, E5) || !squaresContain(dests, D5) {
		t.Fatalf("expected e5 push and d5 capture, got %v", dests)
	}
}

func TestBlackPawnMovesDown(t *testing.T) {
	b := mustBoard(t, "8/4p3/8/8/8/8/8/8 b")
	dests := b.LegalDestinations(E7)
	if len(dests) != 2 || !squaresContain(dests, E6) || !squaresContain(dests, E5) {
		t.Fatalf("black pawn on e7 should offer e6 and e5, got %v", dests)
	}
}

func TestPromotionAlwaysQueen(t *testing.T) {
	b := mustBoard(t, "8/4P3/8/8/8/8/8/8 w")
	next := b.Apply(mustMove(t, "e7e8"))
	if p := next.PieceAt(E8); p != WhiteQueen {
		t.Fatalf("expected white queen on e8, got %q", p)
	}
	if p := next.PieceAt(E7); p != NoPiece {
		t.Fatalf("origin should be empty, got %q", p)
	}

	b = mustBoard(t, "8/8/8/8/8/8/4p3/8 b")
	next = b.Apply(mustMove(t, "e2e1"))
	if p := next.PieceAt(E1); p != BlackQueen {
		t.Fatalf("expected black queen on e1, got %q", p)
	}
}

func TestPromotionByCapture(t *testing.T) {
	b := mustBoard(t, "3r4/4P3/8/8/8/8/8/8 w")
	dests := b.LegalDestinations(E7)
	if !squaresContain(dests, D8) {
		t.Fatalf("pawn should capture onto d8: %v", dests)
	}
	next := b.Apply(Move{From: E7, To: D8})
	if p := next.PieceAt(D8); p != WhiteQueen {
		t.Fatalf("expected white queen on d8, got %q", p)
	}
}

func TestEmptyAndOpponentOriginsYieldNothing(t *testing.T) {
	b := NewBoard()
	if dests := b.LegalDestinations(E4); len(dests) != 0 {
		t.Fatalf("empty origin must yield empty set, got %v", dests)
	}
	if dests := b.LegalDestinations(E7); len(dests) != 0 {
		t.Fatalf("opponent origin must yield empty set, got %v", dests)
	}
	if dests := b.LegalDestinations(NoSquare); len(dests) != 0 {
		t.Fatalf("invalid origin must yield empty set, got %v", dests)
	}
}

func TestKingIgnoresCheckRules(t *testing.T) {
	b := mustBoard(t, "8/8/8/4k3/8/4K3/8/8 w")
	dests := b.LegalDestinations(E3)
	if len(dests) != 8 {
		t.Fatalf("king on e3 should have 8 targets, got %d: %v", len(dests), dests)
	}
	if !squaresContain(dests, E4) {
		t.Fatalf("stepping next to the enemy king must be allowed: %v", dests)
	}

	b = mustBoard(t, "8/8/8/4k3/4K3/8/8/8 w")
	if dests := b.LegalDestinations(E4); !squaresContain(dests, E5) {
		t.Fatalf("capturing the enemy king must be allowed: %v", dests)
	}
}

func TestApplyLeavesOriginalUntouched(t *testing.T) {
	b := NewBoard()
	next := b.Apply(mustMove(t, "e2e4"))
	if p := b.PieceAt(E2); p != WhitePawn {
		t.Fatalf("original board changed: e2 now %q", p)
	}
	if b.SideToMove() != White {
		t.Fatalf("original board changed: turn now %v", b.SideToMove())
	}
	if next.PieceAt(E4) != WhitePawn || next.PieceAt(E2) != NoPiece {
		t.Fatalf("move not applied to the new board: %s", next)
	}
	if next.SideToMove() != Black {
		t.Fatalf("turn must flip, got %v", next.SideToMove())
	}
}

func TestApplyCaptureDiscardsOccupant(t *testing.T) {
	b := mustBoard(t, "8/8/8/3p4/4P3/8/8/8 w")
	next := b.Apply(Move{From: E4, To: D5})
	if p := next.PieceAt(D5); p != WhitePawn {
		t.Fatalf("expected white pawn on d5, got %q", p)
	}
	if got := MaterialScore(next); got != 1 {
		t.Fatalf("captured pawn should leave +1, got %d", got)
	}
}

func TestLegalMovesDeterministic(t *testing.T) {
	b := mustBoard(t, "1r6/2P5/8/8/8/5p2/8/6N1 w")
	first := b.LegalMoves()
	second := b.LegalMoves()
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("order differs at %d: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestIsLegal(t *testing.T) {
	b := NewBoard()
	if !b.IsLegal(mustMove(t, "e2e4")) {
		t.Fatalf("e2e4 should be legal from the start")
	}
	if b.IsLegal(mustMove(t, "e2e5")) {
		t.Fatalf("e2e5 should be illegal")
	}
	if b.IsLegal(mustMove(t, "e7e5")) {
		t.Fatalf("moving the opponent's pawn should be illegal")
	}
}
