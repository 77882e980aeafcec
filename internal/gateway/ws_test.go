package gateway

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/minichess-arena/pkg/arenadto"
)

func waitForSubscriber(t *testing.T, hub *Hub, key string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if hub.Subscribers(key) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no live subscriber appeared for %q", key)
}

func readLiveEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) arenadto.LiveEvent {
	t.Helper()
	var event arenadto.LiveEvent
	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := wsjson.Read(readCtx, conn, &event); err != nil {
		t.Fatalf("read live event: %v", err)
	}
	return event
}

func TestLiveFeedStreamsGameEvents(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/arena/live?channel=main&player=Anna"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial live feed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	waitForSubscriber(t, srv.hub, "main:anna")

	handler := srv.routes()
	startGame(t, handler)
	event := readLiveEvent(t, ctx, conn)
	if event.Type != arenadto.LiveEventSessionStarted {
		t.Fatalf("event type = %q, want %q", event.Type, arenadto.LiveEventSessionStarted)
	}
	if event.State == nil || event.State.HumanSide != "white" {
		t.Fatalf("unexpected start event state: %+v", event.State)
	}

	playMove(t, handler, "e2e4")
	event = readLiveEvent(t, ctx, conn)
	if event.Type != arenadto.LiveEventMovePlayed {
		t.Fatalf("event type = %q, want %q", event.Type, arenadto.LiveEventMovePlayed)
	}
	if event.Summary == nil || event.Summary.PlayerMove != "e2e4" {
		t.Fatalf("unexpected move event: %+v", event.Summary)
	}
	if event.Summary.EngineMove != "a7a6" {
		t.Fatalf("engine move = %q", event.Summary.EngineMove)
	}
}

func TestLiveFeedSendsSnapshotForRunningGame(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	startGame(t, srv.routes())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/arena/live?channel=main&player=Anna"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial live feed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	event := readLiveEvent(t, ctx, conn)
	if event.Type != arenadto.LiveEventSnapshot {
		t.Fatalf("event type = %q, want %q", event.Type, arenadto.LiveEventSnapshot)
	}
	if event.State == nil || event.State.Turn != "white" {
		t.Fatalf("unexpected snapshot state: %+v", event.State)
	}
}

func TestLiveFeedRejectsMissingIdentity(t *testing.T) {
	srv := newTestServer(t, nil)
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http://", "ws://", 1) + "/api/arena/live"
	if _, _, err := websocket.Dial(ctx, wsURL, nil); err == nil {
		t.Fatal("expected dial to fail without channel and player")
	}
}
