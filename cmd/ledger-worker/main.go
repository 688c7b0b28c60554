// Command ledger-worker keeps a mirror of the ledger up to date, syncing on
// every entry event and on a fixed interval.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finledger/internal/amqp"
	"finledger/internal/backend"
	"finledger/internal/cli"
	"finledger/internal/config"
	"finledger/internal/log"
	"finledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig(os.Getenv("LEDGER_CONFIG"))
	if err == nil {
		err = cfg.ValidateMirror()
	}
	if err != nil {
		log.FromContext(context.Background()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		log.FromContext(context.Background()).Error("Invalid logging configuration", log.FieldError, err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	factory := backend.NewFactory(logger)

	sourceCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	source, err := factory.CreateRepository(ctx, sourceCfg)
	if err != nil {
		return err
	}
	defer source.Close()

	targetCfg, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		return err
	}
	target, err := factory.CreateRepository(ctx, targetCfg)
	if err != nil {
		return err
	}
	defer target.Close()

	mirror := worker.NewMirror(source.Repository, target.Repository,
		worker.MirrorConfig{Interval: cfg.SyncInterval}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return mirror.Run(gctx)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		g.Go(func() error {
			err := client.Consume(gctx, mirror.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP_URL not set, mirroring on the sync interval only")
	}

	logger.Info("Starting ledger worker",
		log.FieldBackend, cfg.DataBackend, "mirror", cfg.MirrorBackend, "interval", cfg.SyncInterval.String())
	err = g.Wait()
	if ctx.Err() != nil {
		<-done
	}
	return err
}
