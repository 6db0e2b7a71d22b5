// Command finsheet-api owns the sheet data. It appends, reads, deletes and
// clones rows and manages sheet configurations.
package main

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finsheet/internal/api"
	"finsheet/internal/backend"
	"finsheet/internal/cache"
	"finsheet/internal/cli"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/sheetconfig"
)

func main() {
	cfg, logger := cli.Bootstrap()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger).Create(initCtx, backendCfg)
	cancel()
	if err != nil {
		logger.Error("Failed to create backend", log.FieldError, err,
			"data_backend", cfg.DataBackend,
			"config_store", cfg.ConfigStore)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	idem := idempotency.NewStore(idempotency.DefaultMaxEntries, cfg.IdempotencyTTL)
	caches := cache.NewManager()
	caches.Register(idem.Cache())
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := api.NewServer(":"+cfg.APIPort, api.Deps{
		Rows:               res.Rows,
		Configs:            sheetconfig.NewService(res.Configs, res.Rows, logger),
		Idempotency:        idem,
		Events:             res.Events,
		ServiceAccount:     res.ServiceAccount,
		UserID:             cfg.DefaultUserID,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	logger.Info("Starting finsheet-api",
		"port", cfg.APIPort,
		"data_backend", cfg.DataBackend,
		"config_store", cfg.ConfigStore,
		"events", res.Events != nil)
	cli.Serve(gctx, g, logger, "finsheet-api", srv)

	if err := g.Wait(); err != nil {
		logger.Error("finsheet-api exited with error", log.FieldError, err)
	}
}
