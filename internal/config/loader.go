package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	// A .env file next to the binary may carry secrets such as the Mongo
	// URI. Missing files are fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("SHELFCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shelfcheck")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".shelfcheck"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override
// individual keys without a config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)

	v.SetDefault("browser.headless", cfg.Browser.Headless)

	v.SetDefault("wishlist.navigation_timeout", cfg.Wishlist.NavigationTimeout)
	v.SetDefault("wishlist.scroll_delay", cfg.Wishlist.ScrollDelay)
	v.SetDefault("wishlist.stable_probe_delay", cfg.Wishlist.StableProbeDelay)
	v.SetDefault("wishlist.stable_probes", cfg.Wishlist.StableProbes)
	v.SetDefault("wishlist.user_agent", cfg.Wishlist.UserAgent)

	v.SetDefault("catalog.sources", cfg.Catalog.Sources)
	v.SetDefault("catalog.entry_timeout", cfg.Catalog.EntryTimeout)
	v.SetDefault("catalog.search_box_timeout", cfg.Catalog.SearchBoxTimeout)
	v.SetDefault("catalog.navigation_timeout", cfg.Catalog.NavigationTimeout)
	v.SetDefault("catalog.autocomplete_delay", cfg.Catalog.AutocompleteDelay)
	v.SetDefault("catalog.content_settle", cfg.Catalog.ContentSettle)

	v.SetDefault("aggregator.book_delay", cfg.Aggregator.BookDelay)
	v.SetDefault("aggregator.requests_per_minute", cfg.Aggregator.RequestsPerMinute)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
