package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockmetrics/internal/config"
	"stockmetrics/internal/coordinator"
	"stockmetrics/internal/fetcher"
	"stockmetrics/internal/finnhub"
	"stockmetrics/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Create context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := coordinator.New(buildFetchers(cfg), cfg.Concurrency, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.New(coord, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("received interrupt signal, shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("serving stock metrics",
		"addr", cfg.ListenAddr,
		"symbols", len(cfg.StockSymbols),
		"concurrency", cfg.Concurrency)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildFetchers creates one Finnhub fetcher per configured symbol, sharing
// a single HTTP client.
func buildFetchers(cfg *config.Config) []fetcher.Fetcher {
	client := fetcher.NewHTTPClient(cfg.FinnhubBaseURL, cfg.RequestTimeout)

	fetchers := make([]fetcher.Fetcher, 0, len(cfg.StockSymbols))
	for _, symbol := range cfg.StockSymbols {
		fetchers = append(fetchers, finnhub.NewMetricFetcher(cfg.FinnhubAPIKey, symbol, client))
	}
	return fetchers
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
