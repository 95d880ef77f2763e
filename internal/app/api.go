// Package app is the composition root: it builds every component from
// config and runs the HTTP server until a shutdown signal arrives,
// using a goroutine + signal.Notify shutdown sequence so the server
// starts listening before the process blocks waiting for a signal.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	v1 "github.com/vecmap/tilecore/internal/infrastructure/http/v1"
	"github.com/vecmap/tilecore/internal/infrastructure/http/v1/handler"
	"github.com/vecmap/tilecore/internal/fetcher"
	"github.com/vecmap/tilecore/internal/loader"
	"github.com/vecmap/tilecore/internal/repository/cache"
	"github.com/vecmap/tilecore/internal/usecase"
	"github.com/vecmap/tilecore/pkg/config"
	"github.com/vecmap/tilecore/pkg/http_server"
	"github.com/vecmap/tilecore/pkg/logger"
	"github.com/vecmap/tilecore/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger)
	defer l.Sync()

	l.Info("starting tilecore", "config", cfg)

	ctx := context.Background()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, l)
	if err != nil {
		l.Fatal("failed to initialize telemetry", "error", err)
	}

	diskCache, closeCache, err := buildDiskCache(cfg.Cache, cfg.Redis, l)
	if err != nil {
		l.Fatal("failed to initialize disk cache", "error", err)
	}

	tileLoader := buildLoader(cfg, diskCache, l)

	tileUseCase := usecase.NewTileUseCase(tileLoader, l)

	validate := validator.New()
	h := handler.NewHandler(validate, tileUseCase)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	server := http_server.NewServer(cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	}

	tileLoader.Close()

	if closeCache != nil {
		if err := closeCache(); err != nil {
			l.Error("failed to close disk cache", "error", err)
		}
	}

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		l.Error("failed to shut down telemetry", "error", err)
	}

	l.Info("application shutdown completed")
}

// buildDiskCache selects the loader's disk tier per cfg.Cache.Backend.
// The returned close func is nil for backends with nothing to flush.
func buildDiskCache(cfg config.Cache, redisCfg config.Redis, l logger.Logger) (cache.TileCache, func() error, error) {
	switch cfg.Backend {
	case "sqlite":
		c, err := cache.NewSQLiteCache(cfg.SQLitePath, l)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case "redis":
		c, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     redisCfg.Addr,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
			TTL:      redisCfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case "map":
		return cache.NewMapCache(), nil, nil
	case "filesystem", "":
		return cache.NewFilesystemCache(cfg.Root), nil, nil
	default:
		return nil, nil, errors.New("unknown cache backend: " + cfg.Backend)
	}
}

func buildLoader(cfg *config.Config, disk cache.TileCache, l logger.Logger) *loader.Loader {
	if cfg.Upstream.LocalOnly || cfg.Upstream.URLTemplate == "" {
		l.Info("loader running local-only, no network tier configured")
		return loader.NewLocalOnly(disk, cfg.Loader.Workers, l)
	}

	apiKey := resolveAPIKey(cfg.Upstream.APIKeyFile, l)
	f := fetcher.New(fetcher.Config{
		URLTemplate: cfg.Upstream.URLTemplate,
		APIKey:      apiKey,
		UserAgent:   cfg.Upstream.UserAgent,
		Referer:     cfg.Upstream.Referer,
		Timeout:     cfg.Upstream.Timeout,
	})
	return loader.NewWebEnabled(disk, f, cfg.Loader.Workers, l)
}

// resolveAPIKey reads the upstream API key from the configured file,
// the one place this service touches the filesystem for it; the core
// itself never does (spec §9's design note on the source's key.txt
// convention).
func resolveAPIKey(path string, l logger.Logger) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.Warn("failed to read upstream API key file, continuing without a key", "path", path, "error", err)
		return ""
	}
	return strings.TrimSpace(string(data))
}
