// Command ledger-server serves the ledger as a JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finledger/internal/cli"
	apphttp "finledger/internal/http"
	"finledger/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(os.Getenv("LEDGER_CONFIG"))
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		log.FromContext(context.Background()).Error("Invalid logging configuration", log.FieldError, err)
		os.Exit(1)
	}

	session, err := cli.OpenLedger(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open ledger", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, session.Ledger, logger, apphttp.WithRateLimit(cfg.RateLimitPerMinute))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := session.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	})

	logger.Info("Starting ledger server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend,
		"events", session.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = session.Close()
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
