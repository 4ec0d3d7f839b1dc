package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"shelfcheck/internal/api"
	"shelfcheck/internal/availability"
	"shelfcheck/internal/browser"
	"shelfcheck/internal/catalog"
	"shelfcheck/internal/config"
	"shelfcheck/internal/observability"
	"shelfcheck/internal/probe"
	"shelfcheck/internal/wishlist"
)

// serveCmd creates the "serve" subcommand.
func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the availability HTTP API",
		Long:  "Run the HTTP API that checks wish-lists against the configured library catalogs on demand.",
		RunE:  runServe,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")

	return cmd
}

var servePort int

// pipeline bundles everything a run needs, built once from config.
type pipeline struct {
	pool    *browser.SessionPool
	service *availability.Service
	metrics *observability.Metrics
	sources []catalog.Source
}

// buildPipeline wires the session pool, the catalog adapters, the
// aggregator, and the wish-list extractor from config.
func buildPipeline(cfg *config.Config, logger *slog.Logger) *pipeline {
	pool := browser.NewSessionPool(cfg.Browser.Headless, logger)

	adapterOpts := catalog.Options{
		EntryTimeout:      cfg.Catalog.EntryTimeout,
		SearchBoxTimeout:  cfg.Catalog.SearchBoxTimeout,
		NavigationTimeout: cfg.Catalog.NavigationTimeout,
		AutocompleteDelay: cfg.Catalog.AutocompleteDelay,
		ContentSettle:     cfg.Catalog.ContentSettle,
	}

	sources := catalogSources(cfg)
	adapters := make([]availability.CatalogSource, 0, len(sources))
	for _, src := range sources {
		adapters = append(adapters, catalog.NewAdapter(src, pool, adapterOpts, logger))
	}

	var metrics *observability.Metrics
	aggOpts := []availability.Option{
		availability.WithBookDelay(cfg.Aggregator.BookDelay),
	}
	if cfg.Aggregator.RequestsPerMinute > 0 {
		aggOpts = append(aggOpts, availability.WithSourceRateLimit(cfg.Aggregator.RequestsPerMinute))
	}
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(logger)
		aggOpts = append(aggOpts, availability.WithMetrics(metrics))
	}
	agg := availability.New(adapters, logger, aggOpts...)

	extractor := wishlist.NewExtractor(pool, wishlist.Options{
		NavigationTimeout: cfg.Wishlist.NavigationTimeout,
		ScrollDelay:       cfg.Wishlist.ScrollDelay,
		StableProbeDelay:  cfg.Wishlist.StableProbeDelay,
		StableProbes:      cfg.Wishlist.StableProbes,
		UserAgent:         cfg.Wishlist.UserAgent,
	}, logger)

	return &pipeline{
		pool:    pool,
		service: availability.NewService(extractor, agg, metrics, logger),
		metrics: metrics,
		sources: sources,
	}
}

// catalogSources converts configured sources into catalog sources.
func catalogSources(cfg *config.Config) []catalog.Source {
	sources := make([]catalog.Source, 0, len(cfg.Catalog.Sources))
	for _, src := range cfg.Catalog.Sources {
		sources = append(sources, catalog.Source{
			Key:     src.Key,
			Label:   src.Label,
			BaseURL: src.BaseURL,
		})
	}
	return sources
}

// runServe executes the serve command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	pipe := buildPipeline(cfg, logger)
	defer pipe.pool.Close()

	if pipe.metrics != nil {
		pipe.metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	prober := probe.NewProber(cfg.Catalog.EntryTimeout, logger)
	srv := api.NewServer(cfg.Server.Port, pipe.service, logger).
		WithSources(prober, pipe.sources)

	// Close browser sessions on Ctrl-C before the process dies.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		pipe.pool.Close()
		os.Exit(0)
	}()

	logger.Info("serving availability API",
		"port", cfg.Server.Port,
		"sources", len(pipe.sources),
	)
	return srv.ListenAndServe()
}
