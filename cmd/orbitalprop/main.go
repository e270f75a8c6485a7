package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/ReddishWater101/orbitalprop/internal/api"
	"github.com/ReddishWater101/orbitalprop/internal/auth"
	"github.com/ReddishWater101/orbitalprop/internal/batch"
	"github.com/ReddishWater101/orbitalprop/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	addr := os.Getenv("ORBITALPROP_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	authCfg, err := loadAuthConfig(logger)
	if err != nil {
		logger.Error("invalid auth configuration", "error", err)
		os.Exit(1)
	}

	rlCfg := loadRateLimitConfig(logger)
	workers := loadWorkerCount(logger)

	st := store.New()
	orch := batch.New(workers, logger)
	srv := api.NewServer(addr, logger, authCfg, rlCfg, st, orch)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server", "addr", addr, "auth_enabled", authCfg.Enabled, "workers", workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadAuthConfig(logger *slog.Logger) (auth.Config, error) {
	cfg := auth.Config{}

	enabledStr := os.Getenv("ORBITALPROP_AUTH_ENABLED")
	if enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return cfg, errors.New("ORBITALPROP_AUTH_ENABLED must be a boolean value (true/false/1/0)")
		}
		cfg.Enabled = enabled
	}

	if cfg.Enabled {
		cfg.Token = os.Getenv("ORBITALPROP_AUTH_TOKEN")
		if cfg.Token == "" {
			return cfg, errors.New("ORBITALPROP_AUTH_TOKEN is required when auth is enabled")
		}
		logger.Info("auth enabled")
	}

	return cfg, nil
}

func loadRateLimitConfig(logger *slog.Logger) api.RateLimitConfig {
	cfg := api.RateLimitConfig{
		Enabled: false,
		RPS:     10,
		Burst:   20,
	}

	if v := os.Getenv("ORBITALPROP_RATE_LIMIT_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITALPROP_RATE_LIMIT_ENABLED value, rate limiting disabled", "value", v)
		} else {
			cfg.Enabled = enabled
		}
	}

	if v := os.Getenv("ORBITALPROP_RATE_LIMIT_RPS"); v != "" {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 {
			logger.Warn("invalid ORBITALPROP_RATE_LIMIT_RPS value, using default", "value", v, "default", cfg.RPS)
		} else {
			cfg.RPS = n
		}
	}

	if v := os.Getenv("ORBITALPROP_RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITALPROP_RATE_LIMIT_BURST value, using default", "value", v, "default", cfg.Burst)
		} else {
			cfg.Burst = n
		}
	}

	if v := os.Getenv("ORBITALPROP_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid ORBITALPROP_TRUST_PROXY value, defaulting to false", "value", v)
		} else {
			cfg.TrustProxy = trust
		}
	}

	if cfg.Enabled {
		logger.Info("rate limiting enabled", "rps", cfg.RPS, "burst", cfg.Burst, "trust_proxy", cfg.TrustProxy)
	}

	return cfg
}

func loadWorkerCount(logger *slog.Logger) int {
	workers := runtime.NumCPU()
	if v := os.Getenv("ORBITALPROP_BATCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ORBITALPROP_BATCH_WORKERS value, using default", "value", v, "default", workers)
		} else {
			workers = n
		}
	}
	logger.Info("batch config", "workers", workers)
	return workers
}
