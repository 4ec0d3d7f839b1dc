package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"shelfcheck/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shelfcheck",
		Short: "shelfcheck — Amazon wish-list to library availability checker",
		Long: `shelfcheck reads a public Amazon wish-list and checks each book
against the Salt Lake City and Salt Lake County library catalogs,
reporting which titles are on the shelf right now.

Commands:
  serve    run the HTTP API the frontend talks to
  check    run one wish-list through the pipeline from the terminal
  sources  probe each catalog's entry page for reachability`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("shelfcheck %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Server:\n")
			fmt.Printf("  Port:               %d\n", cfg.Server.Port)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:           %v\n", cfg.Browser.Headless)
			fmt.Printf("\nWishlist:\n")
			fmt.Printf("  Navigation Timeout: %s\n", cfg.Wishlist.NavigationTimeout)
			fmt.Printf("  Scroll Delay:       %s\n", cfg.Wishlist.ScrollDelay)
			fmt.Printf("  Stable Probes:      %d\n", cfg.Wishlist.StableProbes)
			fmt.Printf("\nCatalog:\n")
			fmt.Printf("  Sources:            %d configured\n", len(cfg.Catalog.Sources))
			for _, src := range cfg.Catalog.Sources {
				fmt.Printf("    %-8s %s  (%s)\n", src.Key, src.Label, src.BaseURL)
			}
			fmt.Printf("  Entry Timeout:      %s\n", cfg.Catalog.EntryTimeout)
			fmt.Printf("  Search Box Timeout: %s\n", cfg.Catalog.SearchBoxTimeout)
			fmt.Printf("  Navigation Timeout: %s\n", cfg.Catalog.NavigationTimeout)
			fmt.Printf("  Autocomplete Delay: %s\n", cfg.Catalog.AutocompleteDelay)
			fmt.Printf("  Content Settle:     %s\n", cfg.Catalog.ContentSettle)
			fmt.Printf("\nAggregator:\n")
			fmt.Printf("  Book Delay:         %s\n", cfg.Aggregator.BookDelay)
			fmt.Printf("  Requests/Minute:    %d\n", cfg.Aggregator.RequestsPerMinute)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:               %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path:        %s\n", cfg.Storage.OutputPath)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:            %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:               %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config. The
// --verbose flag forces debug level regardless of config.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
