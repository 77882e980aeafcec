package arena

import (
	"context"
	"sync"

	"github.com/park285/minichess-arena/internal/domain"
)

// MemoryRepository keeps games and profiles in process memory. It backs
// local development without PostgreSQL and the service tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	games     []*domain.ArenaGame
	bySession map[string]*domain.ArenaGame
	profiles  map[string]*domain.ArenaProfile
	nextID    int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bySession: make(map[string]*domain.ArenaGame),
		profiles:  make(map[string]*domain.ArenaProfile),
		nextID:    1,
	}
}

func (r *MemoryRepository) InsertGame(_ context.Context, game *domain.ArenaGame) (int64, error) {
	if game == nil {
		return 0, ErrDuplicateGame
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySession[game.SessionUUID]; exists {
		return 0, ErrDuplicateGame
	}

	stored := cloneGame(game)
	stored.ID = r.nextID
	r.nextID++
	r.games = append(r.games, stored)
	r.bySession[stored.SessionUUID] = stored
	return stored.ID, nil
}

func (r *MemoryRepository) GetRecentGames(_ context.Context, playerHash string, limit int) ([]*domain.ArenaGame, error) {
	if limit <= 0 {
		limit = 10
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Games are appended in finish order, so walking backwards yields
	// newest first.
	out := make([]*domain.ArenaGame, 0, limit)
	for i := len(r.games) - 1; i >= 0 && len(out) < limit; i-- {
		if r.games[i].PlayerHash != playerHash {
			continue
		}
		out = append(out, cloneGame(r.games[i]))
	}
	return out, nil
}

func (r *MemoryRepository) GetGame(_ context.Context, id int64, playerHash string) (*domain.ArenaGame, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, game := range r.games {
		if game.ID == id && game.PlayerHash == playerHash {
			return cloneGame(game), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) GetGameBySession(_ context.Context, sessionUUID, playerHash string) (*domain.ArenaGame, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	game, ok := r.bySession[sessionUUID]
	if !ok || game.PlayerHash != playerHash {
		return nil, nil
	}
	return cloneGame(game), nil
}

func (r *MemoryRepository) GetProfile(_ context.Context, playerHash, channelHash string) (*domain.ArenaProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[playerHash+":"+channelHash]
	if !ok {
		return nil, nil
	}
	clone := *profile
	return &clone, nil
}

func (r *MemoryRepository) UpsertProfile(_ context.Context, profile *domain.ArenaProfile) error {
	if profile == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *profile
	r.profiles[profile.PlayerHash+":"+profile.ChannelHash] = &clone
	return nil
}

func cloneGame(game *domain.ArenaGame) *domain.ArenaGame {
	clone := *game
	clone.Moves = append([]string(nil), game.Moves...)
	return &clone
}
