// Command finsheet serves the browser front end. Every data operation is
// forwarded to the API at API_BASE_URL.
package main

import (
	"os"

	"golang.org/x/sync/errgroup"

	"finsheet/internal/apiclient"
	"finsheet/internal/cli"
	apphttp "finsheet/internal/http"
	"finsheet/internal/idempotency"
	"finsheet/internal/log"
	"finsheet/internal/taxonomy"
)

func main() {
	cfg, logger := cli.Bootstrap()

	tax := taxonomy.Default()
	if cfg.TaxonomyFile != "" {
		loaded, err := taxonomy.Load(cfg.TaxonomyFile)
		if err != nil {
			logger.Error("Failed to load taxonomy", log.FieldError, err, "path", cfg.TaxonomyFile)
			os.Exit(1)
		}
		tax = loaded
	}
	index := taxonomy.Build(tax)
	for _, c := range index.Collisions() {
		logger.Warn("Category appears in more than one subgroup, keeping the last",
			log.FieldCategory, c.Category,
			"previous", c.Previous.Group+"/"+c.Previous.Subgroup,
			"kept", c.Current.Group+"/"+c.Current.Subgroup)
	}

	scheme, err := idempotency.ParseScheme(cfg.IdempotencyScheme)
	if err != nil {
		logger.Error("Invalid idempotency scheme", log.FieldError, err)
		os.Exit(1)
	}

	client, err := apiclient.New(cfg.APIBaseURL, cfg.APITimeout)
	if err != nil {
		logger.Error("Failed to create API client", log.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Backend:            client,
		Index:              index,
		Scheme:             scheme,
		ServiceAccount:     cfg.ServiceAccountEmail,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, stop := cli.SignalContext(logger)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	logger.Info("Starting finsheet", "port", cfg.Port, "api", cfg.APIBaseURL)
	cli.Serve(gctx, g, logger, "finsheet", srv)

	if err := g.Wait(); err != nil {
		os.Exit(1)
	}
}
