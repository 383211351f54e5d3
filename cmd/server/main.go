package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/datathon/internal/api"
	"github.com/mcoot/datathon/internal/config"
	"github.com/mcoot/datathon/internal/factory"
	"github.com/mcoot/datathon/internal/web"
)

func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	settings, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output at the configured level
	var level slog.Level
	if err := level.UnmarshalText([]byte(settings.LogLevel)); err != nil {
		logger.Warn("unknown log level, using info", slog.String("log_level", settings.LogLevel))
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	for _, w := range settings.Warnings {
		logger.Warn(w)
	}
	logger.Info("configuration loaded",
		slog.String("addr", settings.Addr()),
		slog.String("environment", settings.Environment),
		slog.String("storage", settings.BackendName()),
		slog.Bool("auth_enabled", settings.Auth.Enabled),
		slog.String("auth_provider", settings.Auth.Provider),
	)

	// Create application factory
	app, err := factory.New(factory.FromSettings(settings, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close application", slog.String("error", err.Error()))
		}
	}()

	// Create API router
	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		RegistrationService: app.RegistrationService,
		Gate:                app.Gate,
	})

	// Create web router
	webRouter := web.NewRouter(web.RouterConfig{
		Logger:              logger,
		RegistrationService: app.RegistrationService,
		Gate:                app.Gate,
		Production:          settings.IsProduction(),
		StaticDir:           settings.StaticDir,
	})

	// Combine routers
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	// Create server
	server := api.NewServer(mux, api.ServerConfigFor(settings), logger)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			return
		}
	}

	logger.Info("server stopped")
}
