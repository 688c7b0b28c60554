// Package cli holds the start-up steps shared by the ledger binaries and the
// terminal rendering used by the ledger command.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finledger/internal/amqp"
	"finledger/internal/backend"
	"finledger/internal/config"
	"finledger/internal/ledger"
	"finledger/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig reads the environment, layered over path when it is set, and
// validates the result.
func LoadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc := log.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = component
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger, nil
}

// Session is an opened ledger together with what must be released when the
// process exits.
type Session struct {
	Ledger    *ledger.Ledger
	Publisher *amqp.Client // nil when AMQP is not configured
	closers   []func() error
}

// Close releases the publisher and the repository.
func (s *Session) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}

// OpenLedger connects the configured repository and, when AMQP_URL is set,
// the event publisher, then loads the ledger once so that corrupt records are
// reported at start-up.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Session, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateRepository(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	s := &Session{closers: []func() error{res.Close}}
	opts := []ledger.Option{
		ledger.WithIDPolicy(cfg.Policy()),
		ledger.WithLogger(logger.WithComponent(log.ComponentLedger)),
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, entry events disabled", log.FieldError, err)
		} else {
			s.Publisher = client
			s.closers = append(s.closers, client.Close)
			opts = append(opts, ledger.WithPublisher(client))
		}
	}

	s.Ledger = ledger.New(res.Repository, opts...)
	report, err := s.Ledger.Load(ctx)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	logger.DebugContext(ctx, "Ledger loaded",
		log.FieldCount, report.Count, log.FieldBackend, cfg.DataBackend)
	return s, nil
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once, bounded by timeout, before the context is cancelled; done is
// closed when it has finished.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		cancel()
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
