// Package main provides the entry point for the recbot recommendation
// assistant.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glebkin/recbot/internal/bot"
	"github.com/glebkin/recbot/internal/config"
	"github.com/glebkin/recbot/internal/engine"
	"github.com/glebkin/recbot/internal/gemini"
	"github.com/glebkin/recbot/internal/metrics"
	"github.com/glebkin/recbot/internal/session"
	"github.com/glebkin/recbot/internal/telegram"
)

const (
	// startupTimeout bounds the backend and transport reachability checks.
	startupTimeout = 30 * time.Second

	// metricsShutdownTimeout bounds draining the metrics listener.
	metricsShutdownTimeout = 5 * time.Second
)

func main() {
	os.Exit(runMain())
}

func runMain() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("shutting down gracefully")
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal error", slog.Any("error", err))
		return 1
	}
	return 0
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)
	slog.SetDefault(logger)
	logger.Info("recbot starting")

	backend, err := gemini.NewClient(gemini.Config{
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		BaseURL:         cfg.Gemini.BaseURL,
		SystemPrompt:    engine.SystemPrompt,
		Timeout:         cfg.Gemini.Timeout,
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, logger)
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}

	tg, err := telegram.NewClient(telegram.Config{
		Token:          cfg.Telegram.Token,
		BaseURL:        cfg.Telegram.BaseURL,
		PollTimeout:    cfg.Telegram.PollTimeout,
		RequestTimeout: cfg.Telegram.RequestTimeout,
		SendRate:       cfg.Telegram.SendRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("create telegram client: %w", err)
	}

	// The receive loop only starts once both collaborators are reachable.
	startupCtx, cancelStartup := context.WithTimeout(ctx, startupTimeout)
	defer cancelStartup()

	if err := backend.Ping(startupCtx); err != nil {
		return fmt.Errorf("gemini not reachable: %w", err)
	}
	me, err := tg.GetMe(startupCtx)
	if err != nil {
		return fmt.Errorf("telegram not reachable: %w", err)
	}
	logger.Info("connected to telegram",
		slog.String("username", me.Username),
		slog.Int64("bot_id", me.ID))

	store := session.NewMemoryStore(cfg.Session.TTL, cfg.Session.CleanupInterval)
	eng := engine.New(store, backend, logger)
	typing := telegram.NewTypingManager(tg, logger)
	b := bot.New(eng, tg, typing, logger)

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, logger)
	}

	logger.Info("recbot started, listening for messages")
	return b.Run(ctx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func startMetricsServer(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
