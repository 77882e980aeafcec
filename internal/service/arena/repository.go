package arena

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/domain"
)

// ErrDuplicateGame signals that a game with the same session UUID was
// already archived. Callers treat it as an idempotent success.
var ErrDuplicateGame = errors.New("arena game already recorded")

// Repository archives finished games and player records.
type Repository interface {
	InsertGame(ctx context.Context, game *domain.ArenaGame) (int64, error)
	GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ArenaGame, error)
	GetGame(ctx context.Context, id int64, playerHash string) (*domain.ArenaGame, error)
	GetGameBySession(ctx context.Context, sessionUUID, playerHash string) (*domain.ArenaGame, error)
	GetProfile(ctx context.Context, playerHash, channelHash string) (*domain.ArenaProfile, error)
	UpsertProfile(ctx context.Context, profile *domain.ArenaProfile) error
}

// PostgresRepository stores arena data in PostgreSQL via lib/pq.
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRepository(db *sql.DB, logger *zap.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresRepository{db: db, logger: logger}, nil
}

// EnsureSchema creates the arena tables and indexes when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS arena_games (
			id BIGSERIAL PRIMARY KEY,
			session_uuid TEXT NOT NULL UNIQUE,
			player_hash TEXT NOT NULL,
			channel_hash TEXT NOT NULL,
			human_side TEXT NOT NULL,
			result TEXT NOT NULL,
			result_method TEXT NOT NULL DEFAULT '',
			moves JSONB NOT NULL DEFAULT '[]'::jsonb,
			final_position TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_arena_games_player_ended
			ON arena_games (player_hash, ended_at DESC)`,
		`CREATE TABLE IF NOT EXISTS arena_profiles (
			player_hash TEXT NOT NULL,
			channel_hash TEXT NOT NULL,
			preferred_side TEXT NOT NULL DEFAULT '',
			rating INTEGER NOT NULL DEFAULT 1200,
			games_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			draws INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			streak_type TEXT NOT NULL DEFAULT '',
			last_side TEXT NOT NULL DEFAULT '',
			last_played_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_hash, channel_hash)
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure arena schema: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) InsertGame(ctx context.Context, game *domain.ArenaGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("game is nil")
	}

	movesJSON, err := json.Marshal(game.Moves)
	if err != nil {
		return 0, fmt.Errorf("encode moves: %w", err)
	}

	const query = `
		INSERT INTO arena_games (
			session_uuid, player_hash, channel_hash, human_side,
			result, result_method, moves, final_position,
			started_at, ended_at, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_uuid) DO NOTHING
		RETURNING id`

	var id int64
	err = r.db.QueryRowContext(ctx, query,
		game.SessionUUID,
		game.PlayerHash,
		game.ChannelHash,
		game.HumanSide,
		game.Result,
		game.ResultMethod,
		movesJSON,
		game.FinalPosition,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert arena game: %w", err)
	}
	return id, nil
}

const gameColumns = `
	id, session_uuid, player_hash, channel_hash, human_side,
	result, result_method, moves, final_position,
	started_at, ended_at, duration_ms`

func (r *PostgresRepository) GetRecentGames(ctx context.Context, playerHash string, limit int) ([]*domain.ArenaGame, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT` + gameColumns + `
		FROM arena_games
		WHERE player_hash = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerHash, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent arena games: %w", err)
	}
	defer rows.Close()

	games := make([]*domain.ArenaGame, 0, limit)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate arena games: %w", err)
	}
	return games, nil
}

func (r *PostgresRepository) GetGame(ctx context.Context, id int64, playerHash string) (*domain.ArenaGame, error) {
	query := `SELECT` + gameColumns + `
		FROM arena_games
		WHERE id = $1 AND player_hash = $2`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, id, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (r *PostgresRepository) GetGameBySession(ctx context.Context, sessionUUID, playerHash string) (*domain.ArenaGame, error) {
	query := `SELECT` + gameColumns + `
		FROM arena_games
		WHERE session_uuid = $1 AND player_hash = $2`

	game, err := scanGame(r.db.QueryRowContext(ctx, query, sessionUUID, playerHash))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*domain.ArenaGame, error) {
	var (
		game       domain.ArenaGame
		movesJSON  []byte
		durationMS int64
	)
	err := row.Scan(
		&game.ID,
		&game.SessionUUID,
		&game.PlayerHash,
		&game.ChannelHash,
		&game.HumanSide,
		&game.Result,
		&game.ResultMethod,
		&movesJSON,
		&game.FinalPosition,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan arena game: %w", err)
	}
	if len(movesJSON) > 0 {
		if err := json.Unmarshal(movesJSON, &game.Moves); err != nil {
			return nil, fmt.Errorf("decode moves: %w", err)
		}
	}
	game.Duration = time.Duration(durationMS) * time.Millisecond
	return &game, nil
}

func (r *PostgresRepository) GetProfile(ctx context.Context, playerHash, channelHash string) (*domain.ArenaProfile, error) {
	const query = `
		SELECT player_hash, channel_hash, preferred_side, rating,
			games_played, wins, losses, draws, streak, streak_type,
			last_side, last_played_at, updated_at, created_at
		FROM arena_profiles
		WHERE player_hash = $1 AND channel_hash = $2`

	var (
		profile      domain.ArenaProfile
		lastPlayedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, playerHash, channelHash).Scan(
		&profile.PlayerHash,
		&profile.ChannelHash,
		&profile.PreferredSide,
		&profile.Rating,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.Streak,
		&profile.StreakType,
		&profile.LastSide,
		&lastPlayedAt,
		&profile.UpdatedAt,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query arena profile: %w", err)
	}
	if lastPlayedAt.Valid {
		profile.LastPlayedAt = lastPlayedAt.Time
	}
	return &profile, nil
}

func (r *PostgresRepository) UpsertProfile(ctx context.Context, profile *domain.ArenaProfile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	const query = `
		INSERT INTO arena_profiles (
			player_hash, channel_hash, preferred_side, rating,
			games_played, wins, losses, draws, streak, streak_type,
			last_side, last_played_at, updated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (player_hash, channel_hash) DO UPDATE SET
			preferred_side = EXCLUDED.preferred_side,
			rating = EXCLUDED.rating,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			streak = EXCLUDED.streak,
			streak_type = EXCLUDED.streak_type,
			last_side = EXCLUDED.last_side,
			last_played_at = EXCLUDED.last_played_at,
			updated_at = EXCLUDED.updated_at`

	var lastPlayedAt sql.NullTime
	if !profile.LastPlayedAt.IsZero() {
		lastPlayedAt = sql.NullTime{Time: profile.LastPlayedAt, Valid: true}
	}
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := profile.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		profile.PlayerHash,
		profile.ChannelHash,
		profile.PreferredSide,
		profile.Rating,
		profile.GamesPlayed,
		profile.Wins,
		profile.Losses,
		profile.Draws,
		profile.Streak,
		profile.StreakType,
		profile.LastSide,
		lastPlayedAt,
		updatedAt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert arena profile: %w", err)
	}
	return nil
}
