package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kowshikb/kidQuest-sub000/internal/cache"
	"github.com/kowshikb/kidQuest-sub000/internal/catalog"
	"github.com/kowshikb/kidQuest-sub000/internal/config"
	"github.com/kowshikb/kidQuest-sub000/internal/database"
	"github.com/kowshikb/kidQuest-sub000/internal/database/postgres"
	"github.com/kowshikb/kidQuest-sub000/internal/event"
	"github.com/kowshikb/kidQuest-sub000/internal/handler"
	"github.com/kowshikb/kidQuest-sub000/internal/leaderboard"
	"github.com/kowshikb/kidQuest-sub000/internal/logger"
	"github.com/kowshikb/kidQuest-sub000/internal/progression"
	"github.com/kowshikb/kidQuest-sub000/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(cfg.GetDBConnString(), database.DefaultMaxConnections,
		database.DefaultMaxConnIdleTime, database.DefaultMaxConnLifetime)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		return
	}
	defer pool.Close()

	if err := database.Migrate(ctx, cfg.GetDBConnString(), "migrations"); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return
	}

	tiers := cache.NewTiers()
	tiers.StartJanitor(ctx, janitorInterval)

	loader := catalog.NewLoader(cfg.TaskCatalogPath, cfg.AchievementCatalogPath, tiers.Static)
	if _, err := loader.Tasks(); err != nil {
		slog.Error("Invalid task catalog", "error", err)
		return
	}
	if _, err := loader.Achievements(); err != nil {
		slog.Error("Invalid achievement catalog", "error", err)
		return
	}

	bus := event.NewResilientPublisher(event.NewMemoryBus(), event.ResilientConfig{
		MaxRetries:     cfg.EventMaxRetries,
		RetryDelay:     cfg.EventRetryDelay,
		DeadLetterPath: cfg.EventDeadLetterPath,
	})
	repo := postgres.NewProfileRepository(pool, cfg.StoreMaxRetries, cfg.StoreRetryBackoff)

	progressionService := progression.NewService(repo, loader, tiers, bus, progression.Config{
		ProfileFetchTimeout: cfg.ProfileFetchTimeout,
		ProfileFetchRetries: cfg.ProfileFetchRetries,
	})
	leaderboardService := leaderboard.NewService(repo)

	handler.InitValidator()

	srv := server.NewServer(cfg.Port, pool, progressionService, leaderboardService, loader, tiers)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}

		// Drain in-flight event retries before exiting.
		bus.Wait()
	}

	slog.Info("Server stopped")
}
