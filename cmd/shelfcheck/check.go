package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shelfcheck/internal/config"
	"shelfcheck/internal/storage"
)

var (
	checkOutput string
	checkFormat string
)

// checkCmd creates the "check" subcommand.
func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [wishlist-url]",
		Short: "Check one wish-list from the terminal",
		Long:  "Run the full pipeline once for the given wish-list URL and write the available books to the configured storage backend.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}

	cmd.Flags().StringVarP(&checkOutput, "output", "o", "", "output path (overrides config)")
	cmd.Flags().StringVarP(&checkFormat, "format", "f", "", "output format: json, jsonl, csv, mongodb, none")

	return cmd
}

// runCheck executes the check command.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if checkOutput != "" {
		cfg.Storage.OutputPath = checkOutput
	}
	if checkFormat != "" {
		cfg.Storage.Type = strings.ToLower(checkFormat)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	wishlistURL := args[0]
	if err := config.ValidateURL(wishlistURL); err != nil {
		return fmt.Errorf("invalid wishlist URL %q: %w", wishlistURL, err)
	}

	logger := setupLogger(cfg.Logging)

	pipe := buildPipeline(cfg, logger)
	defer pipe.pool.Close()

	if pipe.metrics != nil {
		pipe.metrics.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	store, err := newStorage(cfg, logger)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	books, err := pipe.service.Check(ctx, wishlistURL)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	elapsed := time.Since(start)

	if store != nil {
		if err := store.Store(books); err != nil {
			return fmt.Errorf("store results: %w", err)
		}
		if err := store.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}

	fmt.Printf("\n✅ Check complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Available: %d books\n", len(books))
	for _, b := range books {
		fmt.Printf("   - %s (%s) at %s [%s]\n", b.Title, b.Author, b.Library, b.Format)
	}
	if store != nil {
		fmt.Printf("   Output:    %s (%s)\n", cfg.Storage.OutputPath, store.Name())
	}
	return nil
}

// newStorage creates the configured storage backend, or nil for "none".
func newStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "json":
		return storage.NewJSONStorage(cfg.Storage.OutputPath, logger)
	case "jsonl":
		return storage.NewJSONLStorage(cfg.Storage.OutputPath, logger)
	case "csv":
		return storage.NewCSVStorage(cfg.Storage.OutputPath, logger)
	case "mongodb":
		return storage.NewMongoStorage(cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection, logger)
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
