package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mcoot/spacetime-relay/internal/api"
	"github.com/mcoot/spacetime-relay/internal/config"
	"github.com/mcoot/spacetime-relay/internal/factory"
	"github.com/mcoot/spacetime-relay/internal/logging"
	"github.com/mcoot/spacetime-relay/internal/services/reaper"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; anything else is worth reporting
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return err
	}

	// Set up logging with JSON output
	logger, logCloser, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		slog.Error("failed to set up logging", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("could not load .env", slog.String("error", envErr.Error()))
	}

	// Create application factory
	app, err := factory.New(factory.Config{
		Logger:         logger,
		MaxPlayers:     cfg.MaxPlayers,
		RespawnDelay:   cfg.RespawnDelay,
		Reaper:         reaper.Config{Interval: cfg.SweepInterval, Retention: cfg.LobbyRetention},
		AllowedOrigins: cfg.AllowedOrigins,
		RedisURL:       cfg.RedisURL,
	})
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = app.Close() }()

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Host
	serverConfig.Port = cfg.Port
	server := api.NewServer(app.Handler, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	appDone := make(chan struct{})
	go func() {
		defer close(appDone)
		app.Run(ctx)
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.Int("max_players", cfg.MaxPlayers),
		slog.Bool("activity_feed", cfg.RedisURL != ""))

	// Wait for shutdown or error
	select {
	case err = <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err = server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	cancel()
	<-appDone
	logger.Info("server stopped")
	return err
}
