package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvstats/internal/config"
	"github.com/JonMunkholm/csvstats/internal/core"
	"github.com/JonMunkholm/csvstats/internal/logging"
	"github.com/JonMunkholm/csvstats/internal/notify"
	"github.com/JonMunkholm/csvstats/internal/store"
	"github.com/JonMunkholm/csvstats/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	files, err := store.Open(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open metadata store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer files.Close()
	slog.Info("metadata store ready", "driver", cfg.Database.Driver)

	cache, err := store.OpenCache(ctx, cfg.Cache)
	if err != nil {
		slog.Error("failed to open result cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()
	slog.Info("result cache ready", "redis", cfg.Cache.RedisAddr != "", "ttl", cfg.Cache.TTL)

	hub := notify.NewHub(notify.Options{OriginPatterns: cfg.Security.WSOriginPatterns})

	service, err := core.NewService(cfg, files, cache, hub)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	hub.SetLookup(service.LookupNotification)

	server := web.NewServer(service, hub, cfg)

	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Let running analyses reach the cache before the stores close
		status := service.LimiterStatus()
		if status.Active > 0 {
			slog.Info("waiting for analyses to complete", "active", status.Active)
			if err := service.WaitForAnalyses(shutdownCtx); err != nil {
				slog.Warn("analyses did not complete in time", "error", err)
			} else {
				slog.Info("all analyses completed")
			}
		}
		service.Close()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
