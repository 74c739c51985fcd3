package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/botfront-labs/whatsapp-relay/internal/classify"
	"github.com/botfront-labs/whatsapp-relay/internal/config"
	"github.com/botfront-labs/whatsapp-relay/internal/domain"
	"github.com/botfront-labs/whatsapp-relay/internal/fallback"
	"github.com/botfront-labs/whatsapp-relay/internal/forward"
	"github.com/botfront-labs/whatsapp-relay/internal/provider/whatsapp"
	"github.com/botfront-labs/whatsapp-relay/internal/relay"
	"github.com/botfront-labs/whatsapp-relay/internal/server"
	"github.com/botfront-labs/whatsapp-relay/internal/telemetry"
	"github.com/botfront-labs/whatsapp-relay/internal/templates"
	"github.com/botfront-labs/whatsapp-relay/internal/webhook"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("whatsapp-relay", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	providerClient := whatsapp.NewClient(
		cfg.Provider.AccessToken,
		cfg.Provider.PhoneNumberID,
		whatsapp.WithBaseURL(cfg.Provider.BaseURL),
		whatsapp.WithAPIVersion(cfg.Provider.APIVersion),
	)

	pipeline := relay.NewPipeline(
		webhook.NewNormalizer(logger),
		classify.New(domain.Category(cfg.Classify.MediaCategory)),
		forward.New(
			cfg.Downstream.BaseURL,
			cfg.Downstream.AuthToken,
			cfg.Downstream.StatusPath,
			logger,
			forward.WithTimeouts(
				cfg.Downstream.MessageTimeoutDuration(),
				cfg.Downstream.StatusTimeoutDuration(),
			),
		),
		fallback.New(cfg.Fallback.Mode, providerClient, logger),
		logger,
	)

	handler := relay.NewHandler(pipeline, cfg.Webhook.VerifyToken, version, cfg.Presence(), logger)
	templateProxy := templates.NewProxy(providerClient, logger)

	srv := server.New(cfg.Server.Port, logger)
	srv.Router.Get("/webhook", handler.HandleVerify)
	srv.Router.Post("/webhook", handler.HandleWebhook)
	srv.Router.Get("/templates/{businessAccountId}", templateProxy.Handle)
	srv.Router.Get("/health", handler.HandleHealth)
	srv.Router.Get("/", handler.HandleHealth)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("relay started",
		slog.String("version", version),
		slog.Int("port", cfg.Server.Port),
		slog.String("fallback_mode", cfg.Fallback.Mode),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("relay shutdown complete")
}
