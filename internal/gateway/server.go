// Package gateway exposes the arena over HTTP: JSON game endpoints, a
// PNG board snapshot, and a live websocket feed.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/adapter/arenapresenter"
	"github.com/park285/minichess-arena/internal/minichess"
	"github.com/park285/minichess-arena/internal/notify"
	svc "github.com/park285/minichess-arena/internal/service/arena"
	"github.com/park285/minichess-arena/pkg/arenadto"
)

const (
	maxJSONBodyBytes int64 = 1 << 20
	apiCSP                 = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
	webhookTimeout         = 10 * time.Second
)

var errMissingIdentity = errors.New("channel and player are required")

type Config struct {
	Addr string
}

// Server wires the HTTP layer to the arena service.
type Server struct {
	svc       *svc.Service
	formatter *arenapresenter.Formatter
	hub       *Hub
	notifier  *notify.Client
	logger    *zap.Logger
	cfg       Config

	srvMu sync.Mutex
	srv   *http.Server
}

func NewServer(service *svc.Service, formatter *arenapresenter.Formatter, hub *Hub, notifier *notify.Client, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub()
	}
	return &Server{
		svc:       service,
		formatter: formatter,
		hub:       hub,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
	}
}

// Listen starts the HTTP server and blocks until it is closed.
func (s *Server) Listen() error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.logger.Info("arena gateway listening", zap.String("addr", s.cfg.Addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown.
func (s *Server) Close(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/arena/start", s.withJSON(s.handleStart))
	mux.HandleFunc("/api/arena/state", s.withJSON(s.handleState))
	mux.HandleFunc("/api/arena/legal", s.withJSON(s.handleLegal))
	mux.HandleFunc("/api/arena/move", s.withJSON(s.handleMove))
	mux.HandleFunc("/api/arena/resign", s.withJSON(s.handleResign))
	mux.HandleFunc("/api/arena/history", s.withJSON(s.handleHistory))
	mux.HandleFunc("/api/arena/game", s.withJSON(s.handleGame))
	mux.HandleFunc("/api/arena/profile", s.withJSON(s.handleProfile))
	mux.HandleFunc("/api/arena/side", s.withJSON(s.handlePreferredSide))

	// Binary and streaming endpoints skip the JSON wrapper.
	mux.HandleFunc("/api/arena/board.png", s.handleBoardPNG)
	mux.HandleFunc("/api/arena/live", s.handleLive)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ---- JSON plumbing ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applyAPISecurityHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, derr arenadto.DomainError) {
	if derr.Message == "" {
		if note := s.formatter.ErrorNote(derr.Code); note != "" {
			derr.Message = note
		}
	}
	w.WriteHeader(status)
	writeJSON(w, map[string]any{"error": derr})
}

// writeServiceError maps service sentinels onto the DTO error envelope.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status, derr := classifyError(err)
	if note := s.formatter.ErrorNote(derr.Code); note != "" {
		derr.Message = note
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("arena request failed", zap.Error(err))
	}
	w.WriteHeader(status)
	writeJSON(w, map[string]any{"error": derr})
}

func classifyError(err error) (int, arenadto.DomainError) {
	switch {
	case errors.Is(err, svc.ErrSessionNotFound):
		return http.StatusNotFound, arenadto.DomainError{Code: "session_not_found", Message: err.Error()}
	case errors.Is(err, svc.ErrSessionInProgress):
		return http.StatusConflict, arenadto.DomainError{Code: "session_in_progress", Message: err.Error()}
	case errors.Is(err, svc.ErrInvalidMove):
		return http.StatusBadRequest, arenadto.DomainError{Code: "invalid_move", Message: err.Error()}
	case errors.Is(err, svc.ErrGameFinished):
		return http.StatusConflict, arenadto.DomainError{Code: "game_finished", Message: err.Error()}
	case errors.Is(err, svc.ErrGameNotFound):
		return http.StatusNotFound, arenadto.DomainError{Code: "game_not_found", Message: err.Error()}
	case errors.Is(err, svc.ErrProfileNotFound):
		return http.StatusNotFound, arenadto.DomainError{Code: "profile_not_found", Message: err.Error()}
	case errors.Is(err, svc.ErrChannelNotAllowed):
		return http.StatusForbidden, arenadto.DomainError{Code: "channel_not_allowed", Message: err.Error()}
	case errors.Is(err, minichess.ErrInvalidSquare):
		return http.StatusBadRequest, arenadto.DomainError{Code: "invalid_square", Message: err.Error()}
	default:
		return http.StatusInternalServerError, arenadto.DomainError{Code: "internal_error", Message: "arena request failed", Retryable: true}
	}
}

func applyAPISecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("X-Content-Type-Options", "nosniff")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			s.writeError(w, http.StatusRequestEntityTooLarge, arenadto.DomainError{Code: "request_too_large", Message: "request too large"})
			return false
		}
		s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "invalid_json", Message: "invalid json"})
		return false
	}
	return true
}

// ---- identity ----

// normalizeMeta validates the caller identity. A blank session id keys
// the live game per channel+player pair.
func normalizeMeta(m arenadto.RequestMeta) (svc.SessionMeta, error) {
	channel := strings.TrimSpace(m.Channel)
	player := strings.TrimSpace(m.Player)
	if channel == "" || player == "" {
		return svc.SessionMeta{}, errMissingIdentity
	}
	sessionID := strings.ToLower(strings.TrimSpace(m.SessionID))
	if sessionID == "" {
		sessionID = strings.ToLower(channel) + ":" + strings.ToLower(player)
	}
	return svc.SessionMeta{SessionID: sessionID, Channel: channel, Player: player}, nil
}

func metaFromQuery(r *http.Request) (svc.SessionMeta, error) {
	q := r.URL.Query()
	return normalizeMeta(arenadto.RequestMeta{
		SessionID: q.Get("session_id"),
		Channel:   q.Get("channel"),
		Player:    q.Get("player"),
	})
}

func (s *Server) requireMeta(w http.ResponseWriter, m arenadto.RequestMeta) (svc.SessionMeta, bool) {
	meta, err := normalizeMeta(m)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "missing_identity", Message: err.Error()})
		return svc.SessionMeta{}, false
	}
	return meta, true
}

func (s *Server) requireQueryMeta(w http.ResponseWriter, r *http.Request) (svc.SessionMeta, bool) {
	meta, err := metaFromQuery(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "missing_identity", Message: err.Error()})
		return svc.SessionMeta{}, false
	}
	return meta, true
}

// liveKey is the hub routing key for a session.
func liveKey(meta svc.SessionMeta) string {
	return strings.ToLower(strings.TrimSpace(meta.SessionID))
}

// ---- handlers ----

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	var body arenadto.StartSessionRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	meta, ok := s.requireMeta(w, body.Meta)
	if !ok {
		return
	}
	if side := strings.TrimSpace(body.Side); side != "" {
		if _, err := minichess.ParseSide(side); err != nil {
			s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "invalid_side", Message: "side must be white or black"})
			return
		}
	}

	state, err := s.svc.StartSession(r.Context(), meta, body.Side)
	resumed := errors.Is(err, svc.ErrSessionInProgress)
	if err != nil && !resumed {
		s.writeServiceError(w, err)
		return
	}

	dto := arenapresenter.ToDTOState(state)
	dto.Message = s.formatter.Start(dto, resumed)
	if !resumed {
		s.hub.Publish(liveKey(meta), arenadto.LiveEvent{
			Type:  arenadto.LiveEventSessionStarted,
			Note:  dto.Message,
			State: dto,
		})
		s.announceStart(meta, dto)
	}
	writeJSON(w, arenadto.StartSessionResponse{State: dto, Resumed: resumed})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	meta, ok := s.requireQueryMeta(w, r)
	if !ok {
		return
	}
	state, err := s.svc.Status(r.Context(), meta)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	dto := arenapresenter.ToDTOState(state)
	dto.Message = s.formatter.Status(dto)
	writeJSON(w, arenadto.StatusResponse{State: dto})
}

func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	meta, ok := s.requireQueryMeta(w, r)
	if !ok {
		return
	}
	square := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("square")))
	targets, err := s.svc.LegalTargets(r.Context(), meta, square)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, arenadto.LegalTargetsResponse{Origin: square, Targets: targets})
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	var body arenadto.PlayRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	meta, ok := s.requireMeta(w, body.Meta)
	if !ok {
		return
	}

	summary, err := s.svc.Play(r.Context(), meta, body.Move)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	dto := arenapresenter.ToDTOMoveSummary(summary)
	dto.Message = s.formatter.Move(dto)

	eventType := arenadto.LiveEventMovePlayed
	if dto.Finished {
		eventType = arenadto.LiveEventGameFinished
	}
	s.hub.Publish(liveKey(meta), arenadto.LiveEvent{
		Type:    eventType,
		Note:    dto.Message,
		Summary: dto,
	})
	if dto.Finished {
		s.announceFinish(meta, dto.State, dto.Message)
	}
	writeJSON(w, arenadto.PlayResponse{Summary: dto})
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	var body arenadto.ResignRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	meta, ok := s.requireMeta(w, body.Meta)
	if !ok {
		return
	}

	state, err := s.svc.Resign(r.Context(), meta)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	dto := arenapresenter.ToDTOState(state)
	dto.Message = s.formatter.Resign(dto)
	s.hub.Publish(liveKey(meta), arenadto.LiveEvent{
		Type:  arenadto.LiveEventGameFinished,
		Note:  dto.Message,
		State: dto,
	})
	s.announceFinish(meta, dto, dto.Message)
	writeJSON(w, arenadto.ResignResponse{State: dto})
}

func (s *Server) handleBoardPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	meta, err := metaFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, err := s.svc.Status(r.Context(), meta)
	if err != nil {
		status, derr := classifyError(err)
		http.Error(w, derr.Error(), status)
		return
	}
	if len(state.BoardImage) == 0 {
		http.Error(w, "board image unavailable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(state.BoardImage)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	meta, ok := s.requireQueryMeta(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "invalid_limit", Message: "limit must be a number"})
			return
		}
		limit = parsed
	}
	games, err := s.svc.History(r.Context(), meta, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, arenadto.HistoryResponse{Games: arenapresenter.ToDTOGames(games)})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	meta, ok := s.requireQueryMeta(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("id")), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "invalid_game_id", Message: "id must be a positive number"})
		return
	}
	game, err := s.svc.Game(r.Context(), meta, id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, arenadto.GameResponse{Game: arenapresenter.ToDTOGame(game)})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	meta, ok := s.requireQueryMeta(w, r)
	if !ok {
		return
	}
	profile, err := s.svc.Profile(r.Context(), meta)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	dto := arenapresenter.ToDTOProfile(profile)
	writeJSON(w, arenadto.ProfileResponse{
		Profile: dto,
		Summary: s.formatter.Profile(dto, meta.Player),
	})
}

func (s *Server) handlePreferredSide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, arenadto.DomainError{Code: "method_not_allowed", Message: "method not allowed"})
		return
	}
	var body arenadto.UpdatePreferredSideRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	meta, ok := s.requireMeta(w, body.Meta)
	if !ok {
		return
	}
	if _, err := minichess.ParseSide(strings.TrimSpace(body.Side)); err != nil {
		s.writeError(w, http.StatusBadRequest, arenadto.DomainError{Code: "invalid_side", Message: "side must be white or black"})
		return
	}
	profile, err := s.svc.UpdatePreferredSide(r.Context(), meta, body.Side)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, arenadto.ProfileResponse{Profile: arenapresenter.ToDTOProfile(profile)})
}

// ---- webhook fan-out ----

func (s *Server) announceStart(meta svc.SessionMeta, state *arenadto.SessionState) {
	if !s.notifier.Enabled() || state == nil {
		return
	}
	event := notify.Event{
		Channel:     meta.Channel,
		Player:      meta.Player,
		SessionUUID: state.SessionUUID,
		HumanSide:   state.HumanSide,
		MoveCount:   state.MoveCount,
		Text:        state.Message,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()
		if err := s.notifier.GameStarted(ctx, event); err != nil {
			s.logger.Warn("session start webhook failed", zap.Error(err))
		}
	}()
}

func (s *Server) announceFinish(meta svc.SessionMeta, state *arenadto.SessionState, note string) {
	if !s.notifier.Enabled() || state == nil {
		return
	}
	event := notify.Event{
		Channel:     meta.Channel,
		Player:      meta.Player,
		SessionUUID: state.SessionUUID,
		HumanSide:   state.HumanSide,
		Outcome:     state.Outcome,
		Method:      state.OutcomeMethod,
		MoveCount:   state.MoveCount,
		RatingDelta: state.RatingDelta,
		Text:        note,
	}
	if state.Profile != nil {
		event.Rating = state.Profile.Rating
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()
		if err := s.notifier.GameFinished(ctx, event); err != nil {
			s.logger.Warn("game finish webhook failed", zap.Error(err))
		}
	}()
}
