package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/certbatch/internal/certificate"
	"github.com/JonMunkholm/certbatch/internal/config"
	"github.com/JonMunkholm/certbatch/internal/core"
	"github.com/JonMunkholm/certbatch/internal/logging"
	"github.com/JonMunkholm/certbatch/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"auth_enabled", cfg.Auth.Enabled,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"assets_dir", cfg.Certificate.AssetsDir,
	)

	assets := certificate.LoadAssets(cfg.Certificate.AssetsDir)
	renderer := certificate.NewRenderer(core.TemplateFromConfig(cfg.Certificate), assets, slog.Default())
	for _, name := range []string{certificate.HeaderFile, certificate.BadgeFile, certificate.SignatureFile} {
		if !renderer.HasAsset(name) {
			slog.Warn("certificate artwork unavailable, drawing fallback", "file", name)
		}
	}

	// Certificates live in memory for the lifetime of the process
	service := core.NewService(renderer, certificate.NewMemorySink(), core.OptionsFromConfig(cfg))
	server := web.NewServer(cfg, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Cancel the run first so open progress streams receive their final
	// event and close
	if err := service.Shutdown(shutdownCtx); err != nil {
		slog.Warn("batch work did not finish in time", "error", err)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
