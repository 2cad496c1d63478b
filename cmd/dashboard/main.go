package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cellar-market/wine-marketplace/internal/config"
	"github.com/cellar-market/wine-marketplace/internal/dashboard"
	"github.com/cellar-market/wine-marketplace/internal/events"
	"github.com/cellar-market/wine-marketplace/internal/observability"
	"github.com/cellar-market/wine-marketplace/internal/persistence"
	"github.com/cellar-market/wine-marketplace/internal/service"
	"github.com/cellar-market/wine-marketplace/internal/session"
	"github.com/cellar-market/wine-marketplace/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	client := session.NewClient(cfg.Client.APIBaseURL, cfg.Client.Timeout())
	opts := []session.Option{session.WithLogger(logger), session.WithDispatcher(dispatcher)}

	var factory dashboard.ManagerFactory
	switch cfg.Dashboard.SessionBackend {
	case "memory":
		factory = dashboard.MemoryManagers(client, opts...)
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		factory = dashboard.RedisManagers(redis.Client, client, cfg.Dashboard.SessionTTL(), opts...)
	}

	registry := dashboard.NewRegistry(factory, cfg.Dashboard.IdleTimeout(), logger)
	go registry.Run(ctx, time.Minute)

	srv := dashboard.NewServer(cfg.Dashboard, registry, logger, observability.NewMetrics())

	go func() {
		logger.Info("dashboard listening",
			zap.String("addr", cfg.Dashboard.Addr()),
			zap.String("api", cfg.Client.APIBaseURL),
			zap.String("session_backend", cfg.Dashboard.SessionBackend))
		if err := srv.Listen(); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	cancel()
	_ = srv.Shutdown()
}
