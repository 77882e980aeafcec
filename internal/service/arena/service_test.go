package arena

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/minichess"
	"github.com/park285/minichess-arena/internal/service/cache"
)

type stubRenderer struct {
	calls int
}

func (s *stubRenderer) RenderPNG(_ context.Context, _ minichess.Board, _ RenderOptions) ([]byte, error) {
	s.calls++
	return []byte("png"), nil
}

func newTestService(t *testing.T, cfg Config) (*Service, *MemoryRepository) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("parse miniredis port: %v", err)
	}

	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{Host: mr.Host(), Port: port}, zap.NewNop())
	if err != nil {
		t.Fatalf("create cache service: %v", err)
	}
	t.Cleanup(func() { _ = cacheSvc.Close() })

	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = time.Hour
	}

	repo := NewMemoryRepository()
	svc, err := NewService(cacheSvc, repo, &stubRenderer{}, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("create arena service: %v", err)
	}
	return svc, repo
}

func testMeta() SessionMeta {
	return SessionMeta{SessionID: "room-1", Channel: "main", Player: "Anna"}
}

func mustPlay(t *testing.T, svc *Service, meta SessionMeta, move string) *MoveSummary {
	t.Helper()
	summary, err := svc.Play(context.Background(), meta, move)
	if err != nil {
		t.Fatalf("play %s: %v", move, err)
	}
	return summary
}

func TestStartSessionDefaultsToWhite(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	state, err := svc.StartSession(ctx, meta, "")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if state.HumanSide != "white" {
		t.Fatalf("expected human side white, got %s", state.HumanSide)
	}
	if state.Turn != "white" {
		t.Fatalf("expected white to move, got %s", state.Turn)
	}
	if state.MoveCount != 0 {
		t.Fatalf("expected fresh game, got %d moves", state.MoveCount)
	}
	if state.Placement != "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR" {
		t.Fatalf("unexpected placement %s", state.Placement)
	}
	if len(state.BoardImage) == 0 {
		t.Fatal("expected a rendered board image")
	}
	if state.PlayerName != "Anna" {
		t.Fatalf("expected player label Anna, got %q", state.PlayerName)
	}

	if _, err := svc.StartSession(ctx, meta, ""); !errors.Is(err, ErrSessionInProgress) {
		t.Fatalf("expected ErrSessionInProgress, got %v", err)
	}
}

func TestStartSessionBlackReceivesBotOpening(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	state, err := svc.StartSession(ctx, testMeta(), "black")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if state.HumanSide != "black" {
		t.Fatalf("expected human side black, got %s", state.HumanSide)
	}
	if state.MoveCount != 1 {
		t.Fatalf("expected the bot to open, got %d moves", state.MoveCount)
	}
	// No captures are available in the opening position, so the bot
	// keeps its first generated move.
	if state.Moves[0] != "b1a3" {
		t.Fatalf("expected opening move b1a3, got %s", state.Moves[0])
	}
	if state.Turn != "black" {
		t.Fatalf("expected black to move after bot opening, got %s", state.Turn)
	}
}

func TestPlayAppliesPlayerAndBotMoves(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	summary := mustPlay(t, svc, meta, "e2e4")
	if summary.PlayerMove != "e2e4" {
		t.Fatalf("expected player move e2e4, got %s", summary.PlayerMove)
	}
	if summary.EngineMove != "a7a6" {
		t.Fatalf("expected bot reply a7a6, got %s", summary.EngineMove)
	}
	if summary.Finished {
		t.Fatal("game should still be running")
	}
	if summary.State.MoveCount != 2 {
		t.Fatalf("expected 2 recorded moves, got %d", summary.State.MoveCount)
	}
	if summary.State.Turn != "white" {
		t.Fatalf("expected white back on move, got %s", summary.State.Turn)
	}
	if summary.PlayerCapture != minichess.NoPieceType || summary.EngineCapture != minichess.NoPieceType {
		t.Fatal("no captures expected in the opening")
	}
}

func TestPlayRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.Play(ctx, meta, "e2e4"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	for _, move := range []string{"", "e2", "e2e5", "e7e5", "zzzz"} {
		if _, err := svc.Play(ctx, meta, move); !errors.Is(err, ErrInvalidMove) {
			t.Fatalf("expected ErrInvalidMove for %q, got %v", move, err)
		}
	}
}

func TestLegalTargetsIsPermissive(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.LegalTargets(ctx, meta, "e2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	targets, err := svc.LegalTargets(ctx, meta, "e2")
	if err != nil {
		t.Fatalf("legal targets: %v", err)
	}
	if len(targets) != 2 || targets[0] != "e3" || targets[1] != "e4" {
		t.Fatalf("unexpected pawn targets %v", targets)
	}

	for _, origin := range []string{"e4", "e7"} {
		targets, err := svc.LegalTargets(ctx, meta, origin)
		if err != nil {
			t.Fatalf("legal targets for %s: %v", origin, err)
		}
		if len(targets) != 0 {
			t.Fatalf("expected no targets for %s, got %v", origin, targets)
		}
	}

	if _, err := svc.LegalTargets(ctx, meta, "j9"); err == nil {
		t.Fatal("expected an error for an unparseable square")
	}
}

func TestPlayKingCaptureWinsGame(t *testing.T) {
	svc, repo := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	// The bot answers greedily and deterministically: quiet pawn
	// pushes until the bishop sacrifice on f7, which it must take with
	// the king. The queen then walks in and captures the king.
	mustPlay(t, svc, meta, "e2e4") // bot: a7a6
	mustPlay(t, svc, meta, "f1c4") // bot: a6a5
	summary := mustPlay(t, svc, meta, "c4f7")
	if summary.EngineMove != "e8f7" {
		t.Fatalf("expected the king to take the bishop, got %s", summary.EngineMove)
	}
	if summary.EngineCapture != minichess.Bishop {
		t.Fatalf("expected bishop capture, got %v", summary.EngineCapture)
	}

	mustPlay(t, svc, meta, "d1h5") // bot: a5a4
	final := mustPlay(t, svc, meta, "h5f7")

	if !final.Finished {
		t.Fatal("expected the game to finish")
	}
	if final.PlayerCapture != minichess.King {
		t.Fatalf("expected king capture, got %v", final.PlayerCapture)
	}
	if final.EngineMove != "" {
		t.Fatalf("bot must not reply after the game ends, got %s", final.EngineMove)
	}
	if final.State.Outcome != OutcomeWhiteWon {
		t.Fatalf("expected 1-0, got %s", final.State.Outcome)
	}
	if final.State.OutcomeMethod != MethodKingCaptured {
		t.Fatalf("expected king_captured, got %s", final.State.OutcomeMethod)
	}
	if final.GameID == 0 {
		t.Fatal("expected the finished game to be archived")
	}
	if final.Profile == nil || final.Profile.Wins != 1 {
		t.Fatalf("expected a win on the profile, got %+v", final.Profile)
	}
	if final.RatingDelta <= 0 {
		t.Fatalf("expected a rating gain, got %d", final.RatingDelta)
	}

	if _, err := svc.Status(ctx, meta); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("finished session should be gone, got %v", err)
	}

	games, err := repo.GetRecentGames(ctx, final.State.PlayerHash, 5)
	if err != nil {
		t.Fatalf("recent games: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 archived game, got %d", len(games))
	}
	game := games[0]
	if game.Result != "win" || game.ResultMethod != MethodKingCaptured {
		t.Fatalf("unexpected archive %s/%s", game.Result, game.ResultMethod)
	}
	if len(game.Moves) != 9 {
		t.Fatalf("expected 9 recorded moves, got %d", len(game.Moves))
	}
	if game.FinalPosition == "" {
		t.Fatal("expected the final position to be recorded")
	}
}

func TestResignScoresForBot(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.Resign(ctx, meta); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}

	state, err := svc.Resign(ctx, meta)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if state.Outcome != OutcomeBlackWon {
		t.Fatalf("expected 0-1 after white resigns, got %s", state.Outcome)
	}
	if state.OutcomeMethod != MethodResignation {
		t.Fatalf("expected resignation, got %s", state.OutcomeMethod)
	}
	if state.Profile == nil || state.Profile.Losses != 1 {
		t.Fatalf("expected a recorded loss, got %+v", state.Profile)
	}
	if state.RatingDelta >= 0 {
		t.Fatalf("expected a rating drop, got %d", state.RatingDelta)
	}

	if _, err := svc.Status(ctx, meta); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("resigned session should be gone, got %v", err)
	}
}

func TestProfilePreferredSideDrivesNewGames(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.Profile(ctx, meta); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}

	profile, err := svc.UpdatePreferredSide(ctx, meta, "black")
	if err != nil {
		t.Fatalf("update preferred side: %v", err)
	}
	if profile.PreferredSide != "black" {
		t.Fatalf("expected preferred side black, got %s", profile.PreferredSide)
	}

	state, err := svc.StartSession(ctx, meta, "")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if state.HumanSide != "black" {
		t.Fatalf("expected preference to pick black, got %s", state.HumanSide)
	}
	if state.MoveCount != 1 {
		t.Fatalf("expected bot opening for black human, got %d moves", state.MoveCount)
	}
}

func TestChannelAllowlist(t *testing.T) {
	svc, _ := newTestService(t, Config{AllowedChannels: []string{"Main"}})
	ctx := context.Background()

	blocked := SessionMeta{SessionID: "room-2", Channel: "backroom", Player: "Sam"}
	if _, err := svc.StartSession(ctx, blocked, ""); !errors.Is(err, ErrChannelNotAllowed) {
		t.Fatalf("expected ErrChannelNotAllowed, got %v", err)
	}

	allowed := SessionMeta{SessionID: "room-2", Channel: "MAIN", Player: "Sam"}
	if _, err := svc.StartSession(ctx, allowed, ""); err != nil {
		t.Fatalf("allowed channel rejected: %v", err)
	}
}

func TestGameLookupScopedToPlayer(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	state, err := svc.Resign(ctx, meta)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}

	games, err := svc.History(ctx, meta, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}

	game, err := svc.Game(ctx, meta, games[0].ID)
	if err != nil {
		t.Fatalf("game lookup: %v", err)
	}
	if game.SessionUUID != state.SessionUUID {
		t.Fatalf("expected session %s, got %s", state.SessionUUID, game.SessionUUID)
	}

	stranger := SessionMeta{SessionID: "room-9", Channel: "main", Player: "Noah"}
	if _, err := svc.Game(ctx, stranger, games[0].ID); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound for another player, got %v", err)
	}
}

func TestSessionStateSurvivesReplay(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	mustPlay(t, svc, meta, "e2e4")
	mustPlay(t, svc, meta, "d2d4")

	state, err := svc.Status(ctx, meta)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if state.MoveCount != 4 {
		t.Fatalf("expected 4 moves, got %d", state.MoveCount)
	}
	if state.Turn != "white" {
		t.Fatalf("expected white to move, got %s", state.Turn)
	}
	if state.Moves[0] != "e2e4" || state.Moves[1] != "a7a6" {
		t.Fatalf("unexpected move record %v", state.Moves)
	}
}

func TestMaterialScoreTracksCaptures(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()
	meta := testMeta()

	if _, err := svc.StartSession(ctx, meta, "white"); err != nil {
		t.Fatalf("start session: %v", err)
	}
	mustPlay(t, svc, meta, "e2e4") // bot: a7a6
	mustPlay(t, svc, meta, "f1c4") // bot: a6a5
	summary := mustPlay(t, svc, meta, "c4f7")

	// White gave a bishop for a pawn: material is down 2 for White.
	if diff := summary.Material.Diff(); diff != -2 {
		t.Fatalf("expected material diff -2, got %d", diff)
	}
	if summary.Captured.White[minichess.Pawn] != 1 {
		t.Fatalf("expected one pawn taken by white, got %+v", summary.Captured.White)
	}
	if summary.Captured.Black[minichess.Bishop] != 1 {
		t.Fatalf("expected one bishop taken by black, got %+v", summary.Captured.Black)
	}
	recent := summary.Captured.Recent(minichess.Black, 3)
	if len(recent) != 1 || recent[0] != minichess.Bishop {
		t.Fatalf("unexpected recent captures %v", recent)
	}
}
