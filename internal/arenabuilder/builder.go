// Package arenabuilder assembles the arena service from configuration:
// Redis cache, Postgres archive (or the in-memory fallback), renderer.
package arenabuilder

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/config"
	svcarena "github.com/park285/minichess-arena/internal/service/arena"
	"github.com/park285/minichess-arena/internal/service/cache"
)

type Deps struct {
	Service *svcarena.Service
	Cache   *cache.CacheService
	Repo    svcarena.Repository

	db *sql.DB
}

// Close releases the connections the builder opened.
func (d *Deps) Close() error {
	var firstErr error
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required for arena sessions")
	}
	cconf, err := parseRedisURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	cacheSvc, err := cache.NewCacheService(*cconf, logger)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	var repo svcarena.Repository
	var db *sql.DB
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			_ = cacheSvc.Close()
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(16)
		db.SetMaxIdleConns(8)
		db.SetConnMaxLifetime(30 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			_ = cacheSvc.Close()
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		pgRepo, err := svcarena.NewPostgresRepository(db, logger)
		if err != nil {
			_ = cacheSvc.Close()
			_ = db.Close()
			return nil, err
		}
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			_ = cacheSvc.Close()
			_ = db.Close()
			return nil, fmt.Errorf("ensure arena schema: %w", err)
		}
		repo = pgRepo
	} else {
		logger.Warn("DATABASE_URL not set, archiving games in memory only")
		repo = svcarena.NewMemoryRepository()
	}

	svcCfg := svcarena.Config{
		SessionTTL:      time.Duration(cfg.SessionTTLSec) * time.Second,
		HistoryLimit:    cfg.HistoryLimit,
		AllowedChannels: append([]string(nil), cfg.AllowedChannels...),
		BotSide:         cfg.BotSide,
	}

	service, err := svcarena.NewService(cacheSvc, repo, svcarena.NewSVGBoardRenderer(), svcCfg, logger)
	if err != nil {
		_ = cacheSvc.Close()
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	return &Deps{Service: service, Cache: cacheSvc, Repo: repo, db: db}, nil
}

func parseRedisURL(raw string) (*cache.CacheConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	host := u.Hostname()
	portStr := u.Port()
	if portStr == "" {
		portStr = "6379"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	db := 0
	if u.Path != "" {
		p := strings.TrimPrefix(u.Path, "/")
		if p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				db = n
			}
		}
	}
	pass, _ := u.User.Password()
	return &cache.CacheConfig{Host: host, Port: port, Password: pass, DB: db}, nil
}
