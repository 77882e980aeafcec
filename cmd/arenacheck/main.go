// arenacheck probes a running arena server: first the health endpoint,
// then, when a channel/player pair is configured, the live websocket
// feed, printing whatever events arrive within the observation window.
package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/minichess-arena/pkg/arenadto"
)

func main() {
	baseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("ARENA_BASE_URL")), "/")
	if baseURL == "" {
		log.Fatal("ARENA_BASE_URL is required")
	}

	if err := checkHealth(baseURL); err != nil {
		log.Fatalf("/healthz error: %v", err)
	}

	channel := strings.TrimSpace(os.Getenv("ARENA_CHECK_CHANNEL"))
	player := strings.TrimSpace(os.Getenv("ARENA_CHECK_PLAYER"))
	if channel == "" || player == "" {
		log.Println("ARENA_CHECK_CHANNEL/ARENA_CHECK_PLAYER not set; skipping live feed check")
		return
	}
	observeLiveFeed(baseURL, channel, player)
}

func checkHealth(baseURL string) error {
	client := &fasthttp.Client{ReadTimeout: 8 * time.Second, WriteTimeout: 8 * time.Second}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(baseURL + "/healthz")
	if err := client.DoDeadline(req, resp, time.Now().Add(5*time.Second)); err != nil {
		return err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("status=%d body=%q", resp.StatusCode(), resp.Body())
	}
	log.Printf("/healthz ok: %q", resp.Body())
	return nil
}

func observeLiveFeed(baseURL, channel, player string) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) +
		"/api/arena/live?channel=" + url.QueryEscape(channel) +
		"&player=" + url.QueryEscape(player)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		log.Fatalf("live feed dial error: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")
	log.Println("live feed connected; observing for 10s")

	for {
		var event arenadto.LiveEvent
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			if ctx.Err() != nil {
				log.Println("observation window elapsed")
				return
			}
			log.Printf("live feed read error: %v", err)
			return
		}
		fmt.Printf("event type=%s note=%q\n", event.Type, event.Note)
	}
}
