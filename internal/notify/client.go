// Package notify delivers arena game events to an optional external
// webhook. A nil or endpoint-less client swallows events, so callers
// never have to branch on configuration.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	EventGameStarted  = "game_started"
	EventGameFinished = "game_finished"
)

// Event is the webhook payload.
type Event struct {
	Kind        string    `json:"kind"`
	Channel     string    `json:"channel"`
	Player      string    `json:"player"`
	SessionUUID string    `json:"session_uuid"`
	HumanSide   string    `json:"human_side"`
	Outcome     string    `json:"outcome,omitempty"`
	Method      string    `json:"method,omitempty"`
	MoveCount   int       `json:"move_count"`
	Rating      int       `json:"rating,omitempty"`
	RatingDelta int       `json:"rating_delta,omitempty"`
	Text        string    `json:"text,omitempty"`
	At          time.Time `json:"at"`
}

// HeaderProvider injects per-request headers, typically auth.
type HeaderProvider func() map[string]string

type Client struct {
	endpoint string
	http     *fasthttp.Client
	headers  HeaderProvider
	logger   *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:       strings.TrimSpace(endpoint),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether events actually leave the process.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// GameStarted fires once per new session. Best effort, no retry.
func (c *Client) GameStarted(ctx context.Context, event Event) error {
	event.Kind = EventGameStarted
	return c.send(ctx, event, false)
}

// GameFinished fires once per archived game. Retried, since losing a
// result notification is worse than a late one.
func (c *Client) GameFinished(ctx context.Context, event Event) error {
	event.Kind = EventGameFinished
	return c.send(ctx, event, true)
}

func (c *Client) send(ctx context.Context, event Event, retry bool) error {
	if !c.Enabled() {
		return nil
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentType("application/json")

	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req.SetBody(payload)

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		deadline := c.computeDeadline(ctx)
		err := c.http.DoDeadline(req, resp, deadline)
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("webhook request failed: %w", err)
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			body := string(resp.Body())
			err := fmt.Errorf("webhook error: status=%d body=%s", status, truncate(body, 512))
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := c.sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown webhook error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.defaultTimeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.defaultTimeout)
}

func (c *Client) sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
