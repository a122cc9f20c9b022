package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bit-badger/myWebLog-sub005/internal/cache"
	"github.com/bit-badger/myWebLog-sub005/internal/store"
)

type application struct {
	config *Config
	logger *slog.Logger
	data   *store.Data
	caches *cache.Caches
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	data, err := openData(cfg)
	if err != nil {
		logger.Error("failed to connect to the backend", slog.String("backend", cfg.Backend), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer data.Close()

	ctx := context.Background()

	// Create any missing tables before serving
	if err := data.StartUp(ctx); err != nil {
		logger.Error("failed to initialize the backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("backend ready", slog.String("backend", cfg.Backend))

	// Fill the eager caches before any request is accepted
	app := &application{
		config: cfg,
		logger: logger,
		data:   data,
		caches: cache.NewCaches(data),
	}
	if err := app.caches.WebLogs.Fill(ctx); err != nil {
		logger.Error("failed to fill the web log cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := app.caches.ThemeAssets.Fill(ctx); err != nil {
		logger.Error("failed to fill the theme asset cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("caches filled")

	// The HTTP layer consumes app.data and app.caches from here; run until
	// asked to stop.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", slog.String("signal", sig.String()))
}
