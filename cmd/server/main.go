package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lexrelay/lexrelay/internal/api"
	"github.com/lexrelay/lexrelay/internal/audit"
	"github.com/lexrelay/lexrelay/internal/auth"
	"github.com/lexrelay/lexrelay/internal/client"
	"github.com/lexrelay/lexrelay/internal/config"
	"github.com/lexrelay/lexrelay/internal/importer"
	"github.com/lexrelay/lexrelay/internal/integration"
	"github.com/lexrelay/lexrelay/internal/settings"
	"github.com/lexrelay/lexrelay/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	pool, err := storage.NewPool(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := storage.RunMigrations(pool); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	userRepo := auth.NewRepository(pool)
	authService := auth.NewService(userRepo, cfg.JWTSecret, cfg.SessionTTL, cfg.BcryptCost)

	clientRepo := client.NewRepository(pool)
	importRepo := importer.NewRepository(pool)

	router := api.NewRouter(api.RouterDeps{
		Config:          cfg,
		DBPinger:        pool,
		AuthService:     authService,
		ClientRepo:      clientRepo,
		SettingsRepo:    settings.NewRepository(pool),
		IntegrationRepo: integration.NewRepository(pool),
		Factory:         integration.NewFactory(cfg),
		Importer:        importer.NewImporter(clientRepo, importRepo, slog.Default()),
		AuditRecorder:   audit.NewRecorder(audit.NewRepository(pool)),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting lexrelay server", "port", cfg.Port, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
