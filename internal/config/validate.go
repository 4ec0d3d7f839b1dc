package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}

	if len(cfg.Catalog.Sources) == 0 {
		return fmt.Errorf("catalog.sources must name at least one source")
	}
	seen := make(map[string]bool, len(cfg.Catalog.Sources))
	for _, src := range cfg.Catalog.Sources {
		if src.Key == "" {
			return fmt.Errorf("catalog source with label %q has no key", src.Label)
		}
		if seen[src.Key] {
			return fmt.Errorf("duplicate catalog source key %q", src.Key)
		}
		seen[src.Key] = true
		if src.Label == "" {
			return fmt.Errorf("catalog source %q has no label", src.Key)
		}
		if err := ValidateURL(src.BaseURL); err != nil {
			return fmt.Errorf("catalog source %q: %w", src.Key, err)
		}
	}

	if cfg.Catalog.EntryTimeout <= 0 {
		return fmt.Errorf("catalog.entry_timeout must be > 0")
	}
	if cfg.Catalog.NavigationTimeout <= 0 {
		return fmt.Errorf("catalog.navigation_timeout must be > 0")
	}
	if cfg.Catalog.AutocompleteDelay < 0 {
		return fmt.Errorf("catalog.autocomplete_delay must be >= 0")
	}
	if cfg.Catalog.ContentSettle < 0 {
		return fmt.Errorf("catalog.content_settle must be >= 0")
	}

	if cfg.Aggregator.BookDelay < 0 {
		return fmt.Errorf("aggregator.book_delay must be >= 0")
	}
	if cfg.Aggregator.RequestsPerMinute < 0 {
		return fmt.Errorf("aggregator.requests_per_minute must be >= 0")
	}

	if cfg.Wishlist.StableProbes < 1 {
		return fmt.Errorf("wishlist.stable_probes must be >= 1, got %d", cfg.Wishlist.StableProbes)
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true, "none": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb, none)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required when storage.type is mongodb")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
		}
	}

	return nil
}

// ValidateURL checks that a raw URL is absolute http(s).
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", rawURL)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", rawURL)
	}
	return nil
}
