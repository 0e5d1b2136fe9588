package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tair/eshoplite-products/internal/app"
	"github.com/tair/eshoplite-products/internal/config"
	"github.com/tair/eshoplite-products/pkg/logger"
	"github.com/tair/eshoplite-products/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet; log in console form
		logger.Init(logger.Options{ServiceName: "products-service", IsDevelopment: true})
		logger.Logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	logger.Init(logger.Options{
		ServiceName:   cfg.ServiceName,
		IsDevelopment: cfg.Environment.IsDevelopment(),
		Level:         cfg.LogLevel,
	})

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", string(cfg.Environment)).
		Str("log_level", cfg.LogLevel).
		Msg("Starting products service")

	tp, err := tracing.InitTracer(tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.Tracing.Endpoint,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Error shutting down tracer")
		}
	}()

	application, err := app.New(cfg, app.WithTracerProvider(tp))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize products service")
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.EnsureStorage(ctx); err != nil {
		application.Close()
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize products database")
	}

	if err := application.Run(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Products service stopped with error")
		application.Close()
		os.Exit(1)
	}

	logger.Logger.Info().Msg("Products service stopped")
}
