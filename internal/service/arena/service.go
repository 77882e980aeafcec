// Package arena runs single-player games of the simplified chess variant
// against the built-in greedy bot: one live session per player and
// channel, sessions in Redis, finished games and player records in the
// repository.
package arena

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/domain"
	"github.com/park285/minichess-arena/internal/minichess"
	"github.com/park285/minichess-arena/internal/service/cache"
)

var (
	ErrSessionNotFound   = errors.New("arena session not found")
	ErrSessionInProgress = errors.New("arena session already in progress")
	ErrInvalidMove       = errors.New("invalid arena move")
	ErrGameFinished      = errors.New("arena game already finished")
	ErrGameNotFound      = errors.New("arena game not found")
	ErrProfileNotFound   = errors.New("arena profile not found")
	ErrChannelNotAllowed = errors.New("arena channel not allowed")
)

const (
	defaultPlayerRating   = 1200
	botApproxRating       = 800
	kFactor               = 24
	profileCacheTTL       = 6 * time.Hour
	maxHistoryLimit       = 50
	playerLabelRuneLimit  = 24
	defaultHUDPlayerLabel = "Player"
)

// Outcome is the result of a finished game in score notation.
type Outcome string

const (
	OutcomeNone     Outcome = ""
	OutcomeWhiteWon Outcome = "1-0"
	OutcomeBlackWon Outcome = "0-1"
	OutcomeDraw     Outcome = "1/2-1/2"
)

// Methods a game can end by. King capture decides the game for the
// capturing side; a side left without a single legal move is a dead end
// scored as a draw.
const (
	MethodKingCaptured = "king_captured"
	MethodDeadEnd      = "dead_end"
	MethodResignation  = "resignation"
)

type SessionMeta struct {
	SessionID string
	Channel   string
	Player    string
}

type sessionIdentity struct {
	SessionID   string
	ChannelHash string
	PlayerHash  string
}

type Config struct {
	SessionTTL      time.Duration
	HistoryLimit    int
	AllowedChannels []string
	BotSide         string
}

type Service struct {
	cache            *cache.CacheService
	renderer         BoardRenderer
	repo             Repository
	cfg              Config
	allowedChannels  map[string]struct{}
	defaultHumanSide minichess.Side
	logger           *zap.Logger
}

type sessionPayload struct {
	SessionUUID string    `json:"session_uuid"`
	PlayerHash  string    `json:"player_hash"`
	ChannelHash string    `json:"channel_hash"`
	PlayerName  string    `json:"player_name,omitempty"`
	HumanSide   string    `json:"human_side"`
	Moves       []string  `json:"moves"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SessionState struct {
	SessionUUID   string
	PlayerHash    string
	ChannelHash   string
	PlayerName    string
	HumanSide     string
	Moves         []string
	Placement     string
	Turn          string
	MoveCount     int
	Outcome       Outcome
	OutcomeMethod string
	StartedAt     time.Time
	UpdatedAt     time.Time
	RatingDelta   int
	Profile       *domain.ArenaProfile
	Material      MaterialScore
	Captured      CapturedPieces
	BoardImage    []byte
}

type MoveSummary struct {
	State         *SessionState
	PlayerMove    string
	EngineMove    string
	PlayerCapture minichess.PieceType
	EngineCapture minichess.PieceType
	Finished      bool
	GameID        int64
	Profile       *domain.ArenaProfile
	RatingDelta   int
	Material      MaterialScore
	Captured      CapturedPieces
}

// MaterialScore carries the remaining material per side; Diff matches
// the engine's White-positive convention.
type MaterialScore struct {
	White int
	Black int
}

func (m MaterialScore) Diff() int {
	return m.White - m.Black
}

func (m MaterialScore) CapturedValue(side minichess.Side) int {
	if side == minichess.White {
		return materialBase - m.Black
	}
	return materialBase - m.White
}

// CapturedPieces records what each side has taken, in capture order.
type CapturedPieces struct {
	White      map[minichess.PieceType]int
	Black      map[minichess.PieceType]int
	WhiteOrder []minichess.PieceType
	BlackOrder []minichess.PieceType
}

func newCapturedPieces() CapturedPieces {
	return CapturedPieces{
		White:      map[minichess.PieceType]int{},
		Black:      map[minichess.PieceType]int{},
		WhiteOrder: make([]minichess.PieceType, 0),
		BlackOrder: make([]minichess.PieceType, 0),
	}
}

func (c *CapturedPieces) record(by minichess.Side, pt minichess.PieceType) {
	if by == minichess.White {
		c.White[pt]++
		c.WhiteOrder = append(c.WhiteOrder, pt)
		return
	}
	c.Black[pt]++
	c.BlackOrder = append(c.BlackOrder, pt)
}

func (c CapturedPieces) IsEmpty() bool {
	return len(c.White) == 0 && len(c.Black) == 0
}

// Recent returns the side's last captures, newest first.
func (c CapturedPieces) Recent(side minichess.Side, limit int) []minichess.PieceType {
	if limit <= 0 {
		return nil
	}
	order := c.WhiteOrder
	if side == minichess.Black {
		order = c.BlackOrder
	}
	if len(order) == 0 {
		return nil
	}
	start := len(order) - limit
	if start < 0 {
		start = 0
	}
	subset := order[start:]
	result := make([]minichess.PieceType, len(subset))
	for i := range subset {
		result[i] = subset[len(subset)-1-i]
	}
	return result
}

var (
	initialMaterialScore = materialFromBoard(minichess.NewBoard())
	materialBase         = initialMaterialScore.White
)

func InitialMaterialScore() MaterialScore {
	return initialMaterialScore
}

func NewService(cacheSvc *cache.CacheService, repo Repository, renderer BoardRenderer, cfg Config, logger *zap.Logger) (*Service, error) {
	if cacheSvc == nil {
		return nil, fmt.Errorf("cache service is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("arena repository is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("board renderer is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session TTL must be greater than 0")
	}
	if cfg.HistoryLimit <= 0 || cfg.HistoryLimit > maxHistoryLimit {
		cfg.HistoryLimit = 10
	}
	botSide := minichess.Black
	if token := strings.ToLower(strings.TrimSpace(cfg.BotSide)); token != "" {
		parsed, err := minichess.ParseSide(token)
		if err != nil {
			return nil, fmt.Errorf("bot side validation failed: %w", err)
		}
		botSide = parsed
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedChannels := make(map[string]struct{})
	for _, channel := range cfg.AllowedChannels {
		normalized := strings.ToLower(strings.TrimSpace(channel))
		if normalized == "" {
			continue
		}
		allowedChannels[normalized] = struct{}{}
	}

	return &Service{
		cache:    cacheSvc,
		renderer: renderer,
		repo:     repo,
		cfg: Config{
			SessionTTL:      cfg.SessionTTL,
			HistoryLimit:    cfg.HistoryLimit,
			AllowedChannels: append([]string(nil), cfg.AllowedChannels...),
			BotSide:         botSide.String(),
		},
		allowedChannels:  allowedChannels,
		defaultHumanSide: botSide.Other(),
		logger:           logger,
	}, nil
}

// StartSession opens a game for the player, or returns the live state
// with ErrSessionInProgress when one already runs. When the human takes
// Black the bot plays its opening move before the state is returned.
func (s *Service) StartSession(ctx context.Context, meta SessionMeta, sideInput string) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)

	existing, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		board, captured, err := replaySession(existing)
		if err != nil {
			return nil, err
		}
		state := s.stateFromPosition(existing, board, captured)
		if profile, profErr := s.fetchProfile(ctx, identity, true); profErr == nil {
			state.Profile = profile
		}
		s.applyPlayerName(state, existing, meta)
		s.attachBoardImage(ctx, state, board, nil, nil)
		return state, ErrSessionInProgress
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	humanSide, err := s.resolveHumanSide(sideInput, profile)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payload := &sessionPayload{
		SessionUUID: uuid.NewString(),
		PlayerHash:  identity.PlayerHash,
		ChannelHash: identity.ChannelHash,
		PlayerName:  normalizeHUDPlayerLabel(meta.Player),
		HumanSide:   humanSide.String(),
		Moves:       []string{},
		StartedAt:   now,
		UpdatedAt:   now,
	}

	board := minichess.NewBoard()
	captured := newCapturedPieces()
	var highlight *MoveHighlight
	if humanSide == minichess.Black {
		if botMv, ok := minichess.SelectMove(board); ok {
			board, _ = applyTracked(board, botMv, &captured)
			payload.Moves = append(payload.Moves, botMv.String())
			highlight = &MoveHighlight{From: botMv.From, To: botMv.To}
		}
	}

	if err := s.saveSession(ctx, identity.SessionID, payload); err != nil {
		return nil, err
	}

	state := s.stateFromPosition(payload, board, captured)
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state, board, highlight, nil)
	state.Profile = profile
	return state, nil
}

// Status returns the live session state.
func (s *Service) Status(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	board, captured, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	state := s.stateFromPosition(payload, board, captured)
	if profile, profErr := s.fetchProfile(ctx, identity, true); profErr == nil {
		state.Profile = profile
	}
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state, board, nil, nil)
	return state, nil
}

// LegalTargets lists the destination squares for a piece of the live
// session. An empty or opponent-owned origin yields an empty list, never
// an error; only an unparseable square fails.
func (s *Service) LegalTargets(ctx context.Context, meta SessionMeta, squareText string) ([]string, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	sq, err := minichess.ParseSquare(strings.ToLower(strings.TrimSpace(squareText)))
	if err != nil {
		return nil, err
	}

	board, _, err := replaySession(payload)
	if err != nil {
		return nil, err
	}

	targets := board.LegalDestinations(sq)
	out := make([]string, 0, len(targets))
	for _, target := range targets {
		out = append(out, target.String())
	}
	return out, nil
}

// Play applies the player's move and answers with the bot's reply. The
// summary carries both moves, any captures, and the finish report when
// the game ended.
func (s *Service) Play(ctx context.Context, meta SessionMeta, moveInput string) (*MoveSummary, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}

	moveText := strings.ToLower(strings.TrimSpace(moveInput))
	if moveText == "" {
		return nil, ErrInvalidMove
	}

	identity := deriveIdentity(meta)
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	humanSide, err := minichess.ParseSide(payload.HumanSide)
	if err != nil {
		return nil, fmt.Errorf("corrupt session side: %w", err)
	}

	board, captured, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	if _, _, over := gameOver(board); over {
		return nil, ErrGameFinished
	}

	mv, err := minichess.ParseMove(moveText)
	if err != nil {
		return nil, ErrInvalidMove
	}
	if !board.IsLegal(mv) {
		return nil, ErrInvalidMove
	}

	playerMarker := &PlayerMarker{Square: mv.To}
	var playerCapture minichess.PieceType
	board, playerCapture = applyTracked(board, mv, &captured)
	payload.Moves = append(payload.Moves, mv.String())
	payload.UpdatedAt = time.Now()

	summary := &MoveSummary{
		PlayerMove:    mv.String(),
		PlayerCapture: playerCapture,
		EngineCapture: minichess.NoPieceType,
	}

	if _, _, over := gameOver(board); over {
		state := s.stateFromPosition(payload, board, captured)
		s.applyPlayerName(state, payload, meta)
		s.attachBoardImage(ctx, state, board, nil, playerMarker)
		summary.State = state
		summary.Finished = true
		summary.Material = state.Material
		summary.Captured = state.Captured
		if err := s.finishIfNeeded(ctx, identity, payload, board, summary); err != nil {
			return nil, err
		}
		return summary, nil
	}

	botMv, ok := minichess.SelectMove(board)
	if !ok {
		return nil, fmt.Errorf("select reply move: no legal moves")
	}
	var engineCapture minichess.PieceType
	board, engineCapture = applyTracked(board, botMv, &captured)
	payload.Moves = append(payload.Moves, botMv.String())
	payload.UpdatedAt = time.Now()

	summary.EngineMove = botMv.String()
	summary.EngineCapture = engineCapture

	highlight := &MoveHighlight{From: botMv.From, To: botMv.To}
	if !pieceMatchesSide(board, playerMarker.Square, humanSide) {
		playerMarker = nil
	}

	state := s.stateFromPosition(payload, board, captured)
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state, board, highlight, playerMarker)
	summary.State = state
	summary.Finished = state.Outcome != OutcomeNone
	summary.Material = state.Material
	summary.Captured = state.Captured

	if err := s.finishIfNeeded(ctx, identity, payload, board, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// Resign ends the live session in the bot's favor.
func (s *Service) Resign(ctx context.Context, meta SessionMeta) (*SessionState, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}

	identity := deriveIdentity(meta)
	payload, err := s.loadSession(ctx, identity.SessionID)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	humanSide, err := minichess.ParseSide(payload.HumanSide)
	if err != nil {
		return nil, fmt.Errorf("corrupt session side: %w", err)
	}

	board, captured, err := replaySession(payload)
	if err != nil {
		return nil, err
	}
	payload.UpdatedAt = time.Now()

	outcome := OutcomeWhiteWon
	if humanSide == minichess.White {
		outcome = OutcomeBlackWon
	}

	state := s.stateFromPosition(payload, board, captured)
	state.Outcome = outcome
	state.OutcomeMethod = MethodResignation
	s.applyPlayerName(state, payload, meta)
	s.attachBoardImage(ctx, state, board, nil, nil)

	gameID, profile, delta, persistErr := s.persistFinishedGame(ctx, identity, payload, board, outcome, MethodResignation)
	if persistErr != nil {
		return nil, persistErr
	}
	state.Profile = profile
	state.RatingDelta = delta

	if err := s.deleteSession(ctx, identity.SessionID); err != nil {
		s.logger.Warn("failed to delete arena session after resignation", zap.Error(err))
	}
	if gameID == 0 {
		s.logger.Warn("resigned arena game did not persist with id")
	}
	return state, nil
}

// History returns the player's recently finished games.
func (s *Service) History(ctx context.Context, meta SessionMeta, limit int) ([]*domain.ArenaGame, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.HistoryLimit {
		limit = s.cfg.HistoryLimit
	}
	identity := deriveIdentity(meta)
	return s.repo.GetRecentGames(ctx, identity.PlayerHash, limit)
}

// Game returns one archived game owned by the player.
func (s *Service) Game(ctx context.Context, meta SessionMeta, id int64) (*domain.ArenaGame, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	game, err := s.repo.GetGame(ctx, id, identity.PlayerHash)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// Profile returns the player's record against the bot.
func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*domain.ArenaProfile, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	profile, err := s.fetchProfile(ctx, identity, true)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// UpdatePreferredSide stores which side the player wants by default.
func (s *Service) UpdatePreferredSide(ctx context.Context, meta SessionMeta, side string) (*domain.ArenaProfile, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if err := s.ensureChannelAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	parsed, err := minichess.ParseSide(strings.TrimSpace(side))
	if err != nil {
		return nil, fmt.Errorf("side validation failed: %w", err)
	}

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	if profile == nil {
		profile = &domain.ArenaProfile{
			PlayerHash:  identity.PlayerHash,
			ChannelHash: identity.ChannelHash,
			Rating:      defaultPlayerRating,
			CreatedAt:   time.Now(),
		}
	}

	now := time.Now()
	profile.PreferredSide = parsed.String()
	profile.LastPlayedAt = now
	profile.UpdatedAt = now

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, identity, profile)
	return profile, nil
}

func (s *Service) ensureReady() error {
	switch {
	case s.cache == nil:
		return fmt.Errorf("cache service not configured")
	case s.renderer == nil:
		return fmt.Errorf("board renderer not configured")
	case s.repo == nil:
		return fmt.Errorf("arena repository not configured")
	default:
		return nil
	}
}

func (s *Service) ensureChannelAllowed(meta SessionMeta) error {
	if len(s.allowedChannels) == 0 {
		return nil
	}

	channel := strings.ToLower(strings.TrimSpace(meta.Channel))
	if channel == "" {
		channel = "unknown-channel"
	}

	if _, ok := s.allowedChannels[channel]; ok {
		return nil
	}

	s.logger.Info("arena channel access denied",
		zap.String("channel", channel),
		zap.String("player", strings.TrimSpace(meta.Player)),
	)
	return ErrChannelNotAllowed
}

func (s *Service) resolveHumanSide(sideInput string, profile *domain.ArenaProfile) (minichess.Side, error) {
	if token := strings.ToLower(strings.TrimSpace(sideInput)); token != "" {
		side, err := minichess.ParseSide(token)
		if err != nil {
			return minichess.White, fmt.Errorf("side validation failed: %w", err)
		}
		return side, nil
	}
	if profile != nil && profile.PreferredSide != "" {
		if side, err := minichess.ParseSide(profile.PreferredSide); err == nil {
			return side, nil
		}
	}
	return s.defaultHumanSide, nil
}

func (s *Service) sessionKey(sessionID string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(sessionID)))
	return "arena:sessions:" + hex.EncodeToString(hash[:])
}

func (s *Service) profileCacheKey(identity sessionIdentity) string {
	return "arena:profile:" + identity.PlayerHash + ":" + identity.ChannelHash
}

func (s *Service) loadSession(ctx context.Context, sessionID string) (*sessionPayload, error) {
	payload := &sessionPayload{}
	if err := s.cache.Get(ctx, s.sessionKey(sessionID), payload); err != nil {
		return nil, err
	}
	if payload.HumanSide == "" {
		return nil, nil
	}
	return payload, nil
}

func (s *Service) saveSession(ctx context.Context, sessionID string, payload *sessionPayload) error {
	if payload == nil {
		return fmt.Errorf("cannot save nil arena session payload")
	}
	payload.UpdatedAt = time.Now()
	return s.cache.Set(ctx, s.sessionKey(sessionID), payload, s.cfg.SessionTTL)
}

func (s *Service) deleteSession(ctx context.Context, sessionID string) error {
	return s.cache.Del(ctx, s.sessionKey(sessionID))
}

// replaySession rebuilds the position from the stored move list. Each
// replay starts from the standard opening position, so the returned
// board is a fresh snapshot every time.
func replaySession(payload *sessionPayload) (minichess.Board, CapturedPieces, error) {
	board := minichess.NewBoard()
	captured := newCapturedPieces()
	for _, raw := range payload.Moves {
		mv, err := minichess.ParseMove(strings.ToLower(strings.TrimSpace(raw)))
		if err != nil {
			return board, captured, fmt.Errorf("decode move %s: %w", raw, err)
		}
		if !board.IsLegal(mv) {
			return board, captured, fmt.Errorf("replay move %s: %w", raw, ErrInvalidMove)
		}
		board, _ = applyTracked(board, mv, &captured)
	}
	return board, captured, nil
}

// applyTracked plays the move and records any capture against the mover.
// Returns the new position and the captured piece type, NoPieceType when
// the move was quiet.
func applyTracked(board minichess.Board, mv minichess.Move, captured *CapturedPieces) (minichess.Board, minichess.PieceType) {
	victim := board.PieceAt(mv.To)
	next := board.Apply(mv)
	if victim == minichess.NoPiece {
		return next, minichess.NoPieceType
	}
	captured.record(board.SideToMove(), victim.Type())
	return next, victim.Type()
}

// gameOver reports the terminal state of a position: a missing king
// decides the game, a side to move with no legal moves is a dead-end
// draw.
func gameOver(b minichess.Board) (Outcome, string, bool) {
	whiteKing, blackKing := false, false
	for sq := minichess.A1; sq <= minichess.H8; sq++ {
		switch b.PieceAt(sq) {
		case minichess.WhiteKing:
			whiteKing = true
		case minichess.BlackKing:
			blackKing = true
		}
	}
	if !blackKing {
		return OutcomeWhiteWon, MethodKingCaptured, true
	}
	if !whiteKing {
		return OutcomeBlackWon, MethodKingCaptured, true
	}
	if len(b.LegalMoves()) == 0 {
		return OutcomeDraw, MethodDeadEnd, true
	}
	return OutcomeNone, "", false
}

func materialFromBoard(b minichess.Board) MaterialScore {
	var score MaterialScore
	for sq := minichess.A1; sq <= minichess.H8; sq++ {
		p := b.PieceAt(sq)
		if p == minichess.NoPiece {
			continue
		}
		if p.Side() == minichess.White {
			score.White += p.Value()
		} else {
			score.Black += p.Value()
		}
	}
	return score
}

func (s *Service) stateFromPosition(payload *sessionPayload, board minichess.Board, captured CapturedPieces) *SessionState {
	outcome, method, _ := gameOver(board)
	return &SessionState{
		SessionUUID:   payload.SessionUUID,
		PlayerHash:    payload.PlayerHash,
		ChannelHash:   payload.ChannelHash,
		PlayerName:    payload.PlayerName,
		HumanSide:     payload.HumanSide,
		Moves:         append([]string(nil), payload.Moves...),
		Placement:     board.Placement(),
		Turn:          board.SideToMove().String(),
		MoveCount:     len(payload.Moves),
		Outcome:       outcome,
		OutcomeMethod: method,
		StartedAt:     payload.StartedAt,
		UpdatedAt:     payload.UpdatedAt,
		Material:      materialFromBoard(board),
		Captured:      captured,
	}
}

func (s *Service) finishIfNeeded(ctx context.Context, identity sessionIdentity, payload *sessionPayload, board minichess.Board, summary *MoveSummary) error {
	if summary == nil {
		return fmt.Errorf("move summary is nil")
	}

	if summary.Finished {
		outcome, method := OutcomeNone, ""
		if summary.State != nil {
			outcome, method = summary.State.Outcome, summary.State.OutcomeMethod
		}
		gameID, profile, delta, persistErr := s.persistFinishedGame(ctx, identity, payload, board, outcome, method)
		if persistErr != nil {
			return persistErr
		}
		summary.GameID = gameID
		summary.Profile = profile
		summary.RatingDelta = delta
		if summary.State != nil {
			summary.State.Profile = profile
			summary.State.RatingDelta = delta
		}
		if err := s.deleteSession(ctx, identity.SessionID); err != nil {
			s.logger.Warn("failed to delete finished arena session", zap.Error(err))
		}
		return nil
	}

	return s.saveSession(ctx, identity.SessionID, payload)
}

func (s *Service) persistFinishedGame(ctx context.Context, identity sessionIdentity, payload *sessionPayload, board minichess.Board, outcome Outcome, method string) (int64, *domain.ArenaProfile, int, error) {
	humanSide, err := minichess.ParseSide(payload.HumanSide)
	if err != nil {
		return 0, nil, 0, fmt.Errorf("corrupt session side: %w", err)
	}
	now := time.Now()

	gameRecord := &domain.ArenaGame{
		SessionUUID:   payload.SessionUUID,
		PlayerHash:    identity.PlayerHash,
		ChannelHash:   identity.ChannelHash,
		HumanSide:     payload.HumanSide,
		Result:        resultForHuman(outcome, humanSide),
		ResultMethod:  method,
		Moves:         append([]string(nil), payload.Moves...),
		FinalPosition: board.String(),
		StartedAt:     payload.StartedAt,
		EndedAt:       now,
		Duration:      now.Sub(payload.StartedAt),
	}

	gameID, err := s.repo.InsertGame(ctx, gameRecord)
	if err != nil {
		if errors.Is(err, ErrDuplicateGame) {
			existing, fetchErr := s.repo.GetGameBySession(ctx, payload.SessionUUID, identity.PlayerHash)
			if fetchErr != nil || existing == nil {
				return 0, nil, 0, err
			}
			profile, profErr := s.fetchProfile(ctx, identity, true)
			if profErr != nil && !errors.Is(profErr, ErrProfileNotFound) {
				return existing.ID, nil, 0, profErr
			}
			return existing.ID, profile, 0, nil
		}
		return 0, nil, 0, err
	}
	gameRecord.ID = gameID

	profile, err := s.fetchProfile(ctx, identity, false)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return gameID, nil, 0, err
	}
	profile, delta := applyGameResult(profile, identity, humanSide, outcome, now)

	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return gameID, nil, 0, err
	}
	s.cacheProfile(ctx, identity, profile)

	return gameID, profile, delta, nil
}

func (s *Service) fetchProfile(ctx context.Context, identity sessionIdentity, allowCache bool) (*domain.ArenaProfile, error) {
	if !allowCache {
		profile, err := s.repo.GetProfile(ctx, identity.PlayerHash, identity.ChannelHash)
		if profile == nil && err == nil {
			return nil, ErrProfileNotFound
		}
		if err != nil {
			return nil, err
		}
		s.cacheProfile(ctx, identity, profile)
		return profile, nil
	}

	profile := &domain.ArenaProfile{}
	if err := s.cache.Get(ctx, s.profileCacheKey(identity), profile); err != nil {
		return nil, err
	}
	if profile.PlayerHash != "" {
		return profile, nil
	}

	stored, err := s.repo.GetProfile(ctx, identity.PlayerHash, identity.ChannelHash)
	if stored == nil && err == nil {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	s.cacheProfile(ctx, identity, stored)
	return stored, nil
}

func (s *Service) cacheProfile(ctx context.Context, identity sessionIdentity, profile *domain.ArenaProfile) {
	if profile == nil {
		return
	}
	if err := s.cache.Set(ctx, s.profileCacheKey(identity), profile, profileCacheTTL); err != nil {
		s.logger.Warn("failed to cache arena profile", zap.Error(err))
	}
}

func (s *Service) applyPlayerName(state *SessionState, payload *sessionPayload, meta SessionMeta) {
	if state == nil {
		return
	}
	label := ""
	if payload != nil {
		label = normalizeHUDPlayerLabel(payload.PlayerName)
	}
	if label == "" {
		label = normalizeHUDPlayerLabel(meta.Player)
	}
	if label == "" {
		label = defaultHUDPlayerLabel
	}
	state.PlayerName = label
	if payload != nil {
		payload.PlayerName = label
	}
}

func (s *Service) attachBoardImage(ctx context.Context, state *SessionState, board minichess.Board, highlight *MoveHighlight, player *PlayerMarker) {
	if state == nil || s.renderer == nil {
		return
	}
	playerLabel := normalizeHUDPlayerLabel(state.PlayerName)
	if playerLabel == "" {
		playerLabel = defaultHUDPlayerLabel
	}
	hudHeader := fmt.Sprintf("%s vs Bot", playerLabel)
	turnNumber := state.MoveCount/2 + 1
	if turnNumber < 1 {
		turnNumber = 1
	}

	hudTurn := fmt.Sprintf("turn %d", turnNumber)
	switch strings.ToLower(strings.TrimSpace(state.Turn)) {
	case "white":
		hudTurn = fmt.Sprintf("White to move • turn %d", turnNumber)
	case "black":
		hudTurn = fmt.Sprintf("Black to move • turn %d", turnNumber)
	}

	opts := RenderOptions{
		Highlight: highlight,
		Player:    player,
		Material:  state.Material,
		Captured:  state.Captured,
		HUDHeader: hudHeader,
		HUDTurn:   hudTurn,
	}
	data, err := s.renderer.RenderPNG(ctx, board, opts)
	if err != nil {
		s.logger.Warn("failed to render arena board image", zap.Error(err))
		return
	}
	state.BoardImage = data
}

func pieceMatchesSide(board minichess.Board, square minichess.Square, side minichess.Side) bool {
	piece := board.PieceAt(square)
	if piece == minichess.NoPiece {
		return false
	}
	return piece.Side() == side
}

func normalizeHUDPlayerLabel(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return ""
	}
	cleaned = strings.NewReplacer("\r", " ", "\n", " ").Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return ""
	}
	runes := []rune(cleaned)
	if len(runes) > playerLabelRuneLimit {
		truncated := strings.TrimSpace(string(runes[:playerLabelRuneLimit]))
		if truncated == "" {
			return ""
		}
		return truncated + "..."
	}
	return cleaned
}

func deriveIdentity(meta SessionMeta) sessionIdentity {
	sessionID := strings.ToLower(strings.TrimSpace(meta.SessionID))
	channel := strings.ToLower(strings.TrimSpace(meta.Channel))
	player := strings.ToLower(strings.TrimSpace(meta.Player))

	return sessionIdentity{
		SessionID:   sessionID,
		ChannelHash: hashString(channel),
		PlayerHash:  hashString(channel + ":" + player),
	}
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func resultForHuman(outcome Outcome, humanSide minichess.Side) string {
	switch outcome {
	case OutcomeDraw:
		return "draw"
	case OutcomeWhiteWon:
		if humanSide == minichess.White {
			return "win"
		}
		return "loss"
	case OutcomeBlackWon:
		if humanSide == minichess.Black {
			return "win"
		}
		return "loss"
	default:
		return "unknown"
	}
}

func applyGameResult(profile *domain.ArenaProfile, identity sessionIdentity, humanSide minichess.Side, outcome Outcome, endedAt time.Time) (*domain.ArenaProfile, int) {
	if profile == nil {
		profile = &domain.ArenaProfile{
			PlayerHash:  identity.PlayerHash,
			ChannelHash: identity.ChannelHash,
			Rating:      defaultPlayerRating,
			CreatedAt:   endedAt,
		}
	}

	prevRating := profile.Rating

	profile.GamesPlayed++
	profile.LastSide = humanSide.String()
	profile.LastPlayedAt = endedAt
	profile.UpdatedAt = endedAt

	var score float64
	resultType := resultForHuman(outcome, humanSide)
	switch resultType {
	case "win":
		profile.Wins++
		score = 1.0
	case "loss":
		profile.Losses++
		score = 0.0
	default:
		profile.Draws++
		resultType = "draw"
		score = 0.5
	}

	if profile.StreakType == resultType {
		profile.Streak++
	} else {
		profile.Streak = 1
		profile.StreakType = resultType
	}

	expected := 1 / (1 + math.Pow(10, float64(botApproxRating-profile.Rating)/400))
	newRating := float64(profile.Rating) + kFactor*(score-expected)
	profile.Rating = int(math.Round(newRating))

	return profile, profile.Rating - prevRating
}
