package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for shelfcheck.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     yaml:"server"`
	Browser    BrowserConfig    `mapstructure:"browser"    yaml:"browser"`
	Wishlist   WishlistConfig   `mapstructure:"wishlist"   yaml:"wishlist"`
	Catalog    CatalogConfig    `mapstructure:"catalog"    yaml:"catalog"`
	Aggregator AggregatorConfig `mapstructure:"aggregator" yaml:"aggregator"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

// BrowserConfig controls the shared headless browser sessions.
type BrowserConfig struct {
	Headless bool `mapstructure:"headless" yaml:"headless"`
}

// WishlistConfig controls the wish-list extraction stage.
type WishlistConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ScrollDelay       time.Duration `mapstructure:"scroll_delay"       yaml:"scroll_delay"`
	StableProbeDelay  time.Duration `mapstructure:"stable_probe_delay" yaml:"stable_probe_delay"`
	StableProbes      int           `mapstructure:"stable_probes"      yaml:"stable_probes"`
	UserAgent         string        `mapstructure:"user_agent"         yaml:"user_agent"`
}

// CatalogConfig controls the catalog search adapters.
type CatalogConfig struct {
	Sources           []SourceConfig `mapstructure:"sources"             yaml:"sources"`
	EntryTimeout      time.Duration  `mapstructure:"entry_timeout"       yaml:"entry_timeout"`
	SearchBoxTimeout  time.Duration  `mapstructure:"search_box_timeout"  yaml:"search_box_timeout"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout"  yaml:"navigation_timeout"`
	AutocompleteDelay time.Duration  `mapstructure:"autocomplete_delay"  yaml:"autocomplete_delay"`
	ContentSettle     time.Duration  `mapstructure:"content_settle"      yaml:"content_settle"`
}

// SourceConfig identifies one catalog source.
type SourceConfig struct {
	Key     string `mapstructure:"key"      yaml:"key"`
	Label   string `mapstructure:"label"    yaml:"label"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// AggregatorConfig controls fan-out pacing across books and sources.
type AggregatorConfig struct {
	BookDelay         time.Duration `mapstructure:"book_delay"          yaml:"book_delay"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

// StorageConfig controls result export.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults. The two default
// sources are the Salt Lake City and Salt Lake County Polaris catalogs.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3001,
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Wishlist: WishlistConfig{
			NavigationTimeout: 30 * time.Second,
			ScrollDelay:       1500 * time.Millisecond,
			StableProbeDelay:  time.Second,
			StableProbes:      3,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		Catalog: CatalogConfig{
			Sources: []SourceConfig{
				{
					Key:     "slcpl",
					Label:   "Salt Lake City Public Library",
					BaseURL: "https://catalog.slcpl.org",
				},
				{
					Key:     "slco",
					Label:   "Salt Lake County Library",
					BaseURL: "https://catalog.slcolibrary.org/polaris",
				},
			},
			EntryTimeout:      20 * time.Second,
			SearchBoxTimeout:  5 * time.Second,
			NavigationTimeout: 20 * time.Second,
			AutocompleteDelay: 500 * time.Millisecond,
			ContentSettle:     2 * time.Second,
		},
		Aggregator: AggregatorConfig{
			BookDelay:         500 * time.Millisecond,
			RequestsPerMinute: 0, // disabled
		},
		Storage: StorageConfig{
			Type:            "json",
			OutputPath:      "./output/availability.json",
			MongoDatabase:   "shelfcheck",
			MongoCollection: "availability",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
