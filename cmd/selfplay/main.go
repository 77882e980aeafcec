// selfplay runs the arena engine against itself from the command line.
// The engine is deterministic, so a plain run replays one fixed game;
// seed different lines with -opening, or crank -games for profiling.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/profile"

	"github.com/park285/minichess-arena/internal/minichess"
)

type result struct {
	winner  string
	method  string
	plies   int
	moves   []string
	material int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var games, maxPlies int
	var opening string
	var verbose, cpuProfile bool
	flag.IntVar(&games, "games", 1, "games to play (identical unless -opening varies; higher counts suit profiling)")
	flag.IntVar(&maxPlies, "max-plies", 400, "abort a game after this many half-moves")
	flag.StringVar(&opening, "opening", "", "comma-separated opening line, e.g. e2e4,d7d5")
	flag.BoolVar(&verbose, "v", false, "print every move")
	flag.BoolVar(&cpuProfile, "cpuprofile", false, "write a CPU profile to the working directory")
	flag.Parse()

	if cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	openingMoves, err := parseOpening(opening)
	if err != nil {
		fmt.Printf("bad opening line: %s\n", err)
		os.Exit(1)
	}

	start := time.Now()
	tally := map[string]int{}
	totalPlies := 0

GameLoop:
	for i := 0; i < games; i++ {
		select {
		case <-ctx.Done():
			fmt.Println("interrupted")
			break GameLoop
		default:
		}

		res, err := playGame(ctx, openingMoves, maxPlies, verbose)
		if err != nil {
			fmt.Printf("game %d: %s\n", i+1, err)
			os.Exit(1)
		}
		tally[res.winner]++
		totalPlies += res.plies
		if verbose || games == 1 {
			fmt.Printf("game %d: %s by %s after %d plies (material %+d)\n",
				i+1, res.winner, res.method, res.plies, res.material)
			fmt.Printf("  %s\n", strings.Join(res.moves, " "))
		}
	}

	elapsed := time.Since(start)
	fmt.Printf("white %d, black %d, draws %d, aborted %d | %d plies in %s\n",
		tally["white"], tally["black"], tally["draw"], tally["aborted"], totalPlies, elapsed.Round(time.Millisecond))
}

func parseOpening(raw string) ([]minichess.Move, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var moves []minichess.Move
	for _, token := range strings.Split(raw, ",") {
		mv, err := minichess.ParseMove(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		moves = append(moves, mv)
	}
	return moves, nil
}

func playGame(ctx context.Context, opening []minichess.Move, maxPlies int, verbose bool) (result, error) {
	board := minichess.NewBoard()
	res := result{winner: "aborted", method: "ply_limit"}

	apply := func(mv minichess.Move) bool {
		victim := board.PieceAt(mv.To)
		mover := board.SideToMove()
		board = board.Apply(mv)
		res.moves = append(res.moves, mv.String())
		res.plies++
		if verbose {
			fmt.Printf("  %3d. %s %s\n", res.plies, mover, mv)
		}
		if victim.Type() == minichess.King {
			res.winner = mover.String()
			res.method = "king_captured"
			return true
		}
		return false
	}

	for _, mv := range opening {
		if !board.IsLegal(mv) {
			return res, fmt.Errorf("opening move %s is not legal at ply %d", mv, res.plies+1)
		}
		if apply(mv) {
			res.material = minichess.MaterialScore(board)
			return res, nil
		}
	}

	for res.plies < maxPlies {
		select {
		case <-ctx.Done():
			res.method = "interrupted"
			res.material = minichess.MaterialScore(board)
			return res, nil
		default:
		}

		mv, ok := minichess.SelectMove(board)
		if !ok {
			res.winner = "draw"
			res.method = "dead_end"
			break
		}
		if apply(mv) {
			break
		}
	}

	res.material = minichess.MaterialScore(board)
	return res, nil
}
