package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string

	RedisURL    string
	DatabaseURL string

	WebhookURL string

	AllowedChannels []string

	BotSide            string
	SessionTTLSec      int
	HistoryLimit       int
	MessageOverrideDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:    ":8080",
		BotSide:       "black",
		SessionTTLSec: 3600,
		HistoryLimit:  10,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.WebhookURL = strings.TrimSpace(os.Getenv("ARENA_WEBHOOK_URL"))

	if v := strings.TrimSpace(os.Getenv("ALLOWED_CHANNELS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedChannels = append(cfg.AllowedChannels, s)
			}
		}
	}

	if v := strings.TrimSpace(os.Getenv("ARENA_BOT_SIDE")); v != "" {
		side := strings.ToLower(v)
		if side != "white" && side != "black" {
			return nil, fmt.Errorf("ARENA_BOT_SIDE must be white or black, got %q", v)
		}
		cfg.BotSide = side
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_SESSION_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ARENA_HISTORY_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("ARENA_MESSAGE_DIR"))

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}

	return cfg, nil
}
