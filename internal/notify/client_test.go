package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGameFinishedDeliversEvent(t *testing.T) {
	var got Event
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode event: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithHeaderProvider(func() map[string]string {
		return map[string]string{"Authorization": "Bearer test-token"}
	}))

	err := client.GameFinished(context.Background(), Event{
		Channel:     "main",
		Player:      "Anna",
		SessionUUID: "uuid-1",
		HumanSide:   "white",
		Outcome:     "1-0",
		Method:      "king_captured",
		MoveCount:   9,
		Rating:      1202,
		RatingDelta: 2,
	})
	if err != nil {
		t.Fatalf("GameFinished: %v", err)
	}
	if got.Kind != EventGameFinished {
		t.Fatalf("kind = %q, want %q", got.Kind, EventGameFinished)
	}
	if got.SessionUUID != "uuid-1" || got.Outcome != "1-0" || got.RatingDelta != 2 {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.At.IsZero() {
		t.Fatal("expected At to be stamped")
	}
	if auth != "Bearer test-token" {
		t.Fatalf("auth header = %q", auth)
	}
}

func TestGameFinishedRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(3), WithTimeout(2*time.Second))
	if err := client.GameFinished(context.Background(), Event{SessionUUID: "uuid-2"}); err != nil {
		t.Fatalf("GameFinished after retries: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestGameFinishedStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(3))
	if err := client.GameFinished(context.Background(), Event{SessionUUID: "uuid-3"}); err == nil {
		t.Fatal("expected error for status 400")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 (400 is not retryable)", n)
	}
}

func TestGameStartedDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithRetry(3))
	if err := client.GameStarted(context.Background(), Event{SessionUUID: "uuid-4"}); err == nil {
		t.Fatal("expected error for status 503")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("calls = %d, want 1 (start events are best effort)", n)
	}
}

func TestDisabledClientSwallowsEvents(t *testing.T) {
	client := NewClient("")
	if client.Enabled() {
		t.Fatal("empty endpoint should disable the client")
	}
	if err := client.GameFinished(context.Background(), Event{}); err != nil {
		t.Fatalf("disabled client should no-op, got %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatal("nil client should report disabled")
	}
}
