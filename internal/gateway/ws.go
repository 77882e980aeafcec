package gateway

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/minichess-arena/internal/adapter/arenapresenter"
	"github.com/park285/minichess-arena/pkg/arenadto"
)

const (
	livePingInterval = 30 * time.Second
	livePingTimeout  = 3 * time.Second
	liveWriteTimeout = 5 * time.Second
)

// handleLive upgrades to a websocket and streams arena events for one
// session. The feed is push-only; client frames beyond control frames
// are discarded.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	meta, err := metaFromQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	events, cancel := s.hub.Subscribe(liveKey(meta))
	defer cancel()

	// CloseRead keeps control frames flowing and cancels the context
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	// A connecting watcher gets the current position right away when a
	// game is live; errors here just mean there is nothing to show yet.
	if state, statusErr := s.svc.Status(r.Context(), meta); statusErr == nil {
		dto := arenapresenter.ToDTOState(state)
		dto.Message = s.formatter.Status(dto)
		snapshot := arenadto.LiveEvent{
			Type:  arenadto.LiveEventSnapshot,
			Note:  dto.Message,
			State: dto,
			At:    time.Now(),
		}
		if writeErr := writeLiveEvent(ctx, conn, snapshot); writeErr != nil {
			return
		}
	}

	pings := time.NewTicker(livePingInterval)
	defer pings.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
			return
		case event := <-events:
			if writeErr := writeLiveEvent(ctx, conn, event); writeErr != nil {
				return
			}
		case <-pings.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, livePingTimeout)
			pingErr := conn.Ping(pingCtx)
			cancelPing()
			if pingErr != nil {
				return
			}
		}
	}
}

func writeLiveEvent(ctx context.Context, conn *websocket.Conn, event arenadto.LiveEvent) error {
	writeCtx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, event)
}
