package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentMirror)
	logger.Info("Starting fintrack-mirror")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	mirror, err := backend.NewFactory(logger).CreateMirror(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize mirror", "error", err)
		os.Exit(1)
	}

	// The ledger is read only for reconciliation.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		repo.Close()
		os.Exit(1)
	}

	mirrorWorker := worker.NewMirrorWorker(mirror, repo, cfg.DefaultOwnerID, logger)

	runDone := make(chan struct{})
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		select {
		case <-runDone:
		case <-shutdownCtx.Done():
		}
		_ = amqpClient.Close()
		_ = repo.Close()
	})

	// On startup, repair anything missed while the worker was down.
	logger.Info("Performing startup reconcile...")
	if _, err := mirrorWorker.Reconcile(ctx); err != nil {
		logger.Error("Failed startup reconcile", "error", err)
		// Don't exit - continue with normal operation
	}

	go mirrorWorker.RunReconciler(ctx, cfg.MirrorReconcileInterval)

	go func() {
		defer close(runDone)
		if err := mirrorWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
