package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/park285/minichess-arena/internal/domain"
)

func sampleGame(session, player string, endedAt time.Time) *domain.ArenaGame {
	return &domain.ArenaGame{
		SessionUUID:   session,
		PlayerHash:    player,
		ChannelHash:   "channel",
		HumanSide:     "white",
		Result:        "win",
		ResultMethod:  MethodKingCaptured,
		Moves:         []string{"e2e4", "a7a6"},
		FinalPosition: "rnbqkbnr/1ppppppp/p7/8/4P3/8/PPPP1PPP/RNBQKBNR w",
		StartedAt:     endedAt.Add(-time.Minute),
		EndedAt:       endedAt,
		Duration:      time.Minute,
	}
}

func TestMemoryRepositoryDeduplicatesSessions(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.InsertGame(ctx, sampleGame("uuid-1", "alice", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a game id")
	}

	if _, err := repo.InsertGame(ctx, sampleGame("uuid-1", "alice", time.Now())); !errors.Is(err, ErrDuplicateGame) {
		t.Fatalf("expected ErrDuplicateGame, got %v", err)
	}
}

func TestMemoryRepositoryRecentGamesNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		game := sampleGame("uuid-"+string(rune('a'+i)), "alice", base.Add(time.Duration(i)*time.Minute))
		if _, err := repo.InsertGame(ctx, game); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if _, err := repo.InsertGame(ctx, sampleGame("uuid-other", "bob", base)); err != nil {
		t.Fatalf("insert other player: %v", err)
	}

	games, err := repo.GetRecentGames(ctx, "alice", 2)
	if err != nil {
		t.Fatalf("recent games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].SessionUUID != "uuid-c" || games[1].SessionUUID != "uuid-b" {
		t.Fatalf("unexpected order: %s, %s", games[0].SessionUUID, games[1].SessionUUID)
	}
}

func TestMemoryRepositoryGameLookup(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	id, err := repo.InsertGame(ctx, sampleGame("uuid-1", "alice", time.Now()))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	game, err := repo.GetGame(ctx, id, "alice")
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if game == nil || game.SessionUUID != "uuid-1" {
		t.Fatalf("unexpected game %+v", game)
	}

	// Mutating the returned copy must not leak into the store.
	game.Moves[0] = "h2h4"
	again, err := repo.GetGameBySession(ctx, "uuid-1", "alice")
	if err != nil {
		t.Fatalf("get by session: %v", err)
	}
	if again.Moves[0] != "e2e4" {
		t.Fatalf("stored game mutated: %v", again.Moves)
	}

	if game, _ := repo.GetGame(ctx, id, "mallory"); game != nil {
		t.Fatal("game must not be visible to another player")
	}
}

func TestMemoryRepositoryProfileRoundTrip(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if profile, err := repo.GetProfile(ctx, "alice", "channel"); err != nil || profile != nil {
		t.Fatalf("expected empty store, got %+v err %v", profile, err)
	}

	stored := &domain.ArenaProfile{
		PlayerHash:  "alice",
		ChannelHash: "channel",
		Rating:      1210,
		GamesPlayed: 1,
		Wins:        1,
		StreakType:  "win",
		Streak:      1,
	}
	if err := repo.UpsertProfile(ctx, stored); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	profile, err := repo.GetProfile(ctx, "alice", "channel")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if profile.Rating != 1210 || profile.Wins != 1 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	stored.Rating = 1188
	stored.Losses = 1
	if err := repo.UpsertProfile(ctx, stored); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	profile, err = repo.GetProfile(ctx, "alice", "channel")
	if err != nil {
		t.Fatalf("get profile again: %v", err)
	}
	if profile.Rating != 1188 || profile.Losses != 1 {
		t.Fatalf("profile not updated: %+v", profile)
	}
}
