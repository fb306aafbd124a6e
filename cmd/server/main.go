package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fedlearn.dev/dashboard/internal/config"
	"fedlearn.dev/dashboard/internal/server"
	"fedlearn.dev/dashboard/pkg/database"
	"fedlearn.dev/dashboard/pkg/logger"
	"fedlearn.dev/dashboard/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Setup(cfg.IsProduction())
	sys := logger.For(logger.SYSTEM)

	deps := server.Deps{}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			sys.Warn("redis unavailable, using in-process stores", "error", err)
			_ = rdb.Close()
		} else {
			deps.Redis = rdb
			defer rdb.Close()
		}
		cancel()
	}

	db, err := database.Connect(cfg.DatabaseURL, cfg.LedgerPath)
	if err != nil {
		log.Fatalf("failed to open ledger: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	deps.DB = db

	if cfg.MeiliSearchHost != "" {
		deps.Meili = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}

	if cfg.CloudinaryURL != "" {
		mirror, err := storage.NewCloudinaryStorage(cfg.CloudinaryURL)
		if err != nil {
			sys.Warn("cloudinary mirror disabled", "error", err)
		} else {
			deps.Mirror = mirror
		}
	}

	srv, err := server.NewServer(cfg, deps)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		sys.Info("dashboard listening", "port", cfg.Port, "platform", cfg.PlatformAPIURL)
		errCh <- srv.Run(":" + cfg.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server exited with error: %v", err)
		}
	case <-quit:
		sys.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			sys.Error("shutdown failed", "error", err)
		}
	}
}
