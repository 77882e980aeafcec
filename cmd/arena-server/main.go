package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/minichess-arena/internal/adapter/arenapresenter"
	"github.com/park285/minichess-arena/internal/arenabuilder"
	appcfg "github.com/park285/minichess-arena/internal/config"
	"github.com/park285/minichess-arena/internal/gateway"
	"github.com/park285/minichess-arena/internal/msgcat"
	"github.com/park285/minichess-arena/internal/notify"
	"github.com/park285/minichess-arena/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	deps, err := arenabuilder.New(cfg, logger)
	if err != nil {
		logger.Fatal("arena init error", zap.Error(err))
	}
	defer func() { _ = deps.Close() }()

	catalog, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}

	notifier := notify.NewClient(cfg.WebhookURL, notify.WithLogger(logger))
	if notifier.Enabled() {
		logger.Info("game webhook enabled", zap.String("url", cfg.WebhookURL))
	}

	server := gateway.NewServer(
		deps.Service,
		arenapresenter.NewFormatter(catalog),
		gateway.NewHub(),
		notifier,
		gateway.Config{Addr: cfg.ListenAddr},
		logger,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("gateway stopped", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Close(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
		<-errCh
	}
}
