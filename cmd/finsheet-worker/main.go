// Command finsheet-worker consumes transaction activity events from AMQP and
// records them in SQLite.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finsheet/internal/amqp"
	"finsheet/internal/cli"
	"finsheet/internal/log"
	"finsheet/internal/worker"
)

const reportInterval = 5 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap()
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewEventWorker(repo, logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := client.Consume(gctx, w.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		w.ReportEvery(gctx, reportInterval)
		return nil
	})

	logger.Info("Starting finsheet-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"db", cfg.SQLiteDBPath)

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
	}
	logger.Info("Worker stopped")
}
