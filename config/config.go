package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Base44     Base44Config     `yaml:"base44"`
	Sync       SyncConfig       `yaml:"sync"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Detect     DetectConfig     `yaml:"detect"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Base44Config holds the connection settings for the external inventory API.
type Base44Config struct {
	BaseURL        string `yaml:"base_url"`
	AppID          string `yaml:"app_id"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SyncConfig holds the outbound sync tunables. The pacing delays exist only
// to stay under the remote API's undocumented rate limits; they are not
// retry backoffs.
type SyncConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	ChunkSize       int  `yaml:"chunk_size"`
	ItemDelayMs     int  `yaml:"item_delay_ms"`
	ChunkDelayMs    int  `yaml:"chunk_delay_ms"`
	TruckDelayMs    int  `yaml:"truck_delay_ms"`

	// Derived fields, ignored by the YAML parser.
	Interval   time.Duration `yaml:"-"`
	ItemDelay  time.Duration `yaml:"-"`
	ChunkDelay time.Duration `yaml:"-"`
	TruckDelay time.Duration `yaml:"-"`
}

// VendorEntry is one (account code, vendor name) pair of the attribution
// table. Order matters: more specific codes must come first.
type VendorEntry struct {
	Account string `yaml:"account"`
	Name    string `yaml:"name"`
}

// ClassifierConfig holds the vendor attribution table. When empty, the
// built-in default table is used.
type ClassifierConfig struct {
	Vendors []VendorEntry `yaml:"vendors"`
}

// DetectConfig holds the configuration for the duplicate detection worker pool.
type DetectConfig struct {
	WorkerPoolSize int `yaml:"worker_pool_size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ApplyDefaults fills in zero-valued fields and derives the duration fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Base44.TimeoutSeconds <= 0 {
		cfg.Base44.TimeoutSeconds = 30
	}

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 300
	}
	if cfg.Sync.ChunkSize <= 0 {
		cfg.Sync.ChunkSize = 25
	}
	if cfg.Sync.ItemDelayMs <= 0 {
		cfg.Sync.ItemDelayMs = 500
	}
	if cfg.Sync.ChunkDelayMs <= 0 {
		cfg.Sync.ChunkDelayMs = 2000
	}
	if cfg.Sync.TruckDelayMs <= 0 {
		cfg.Sync.TruckDelayMs = 5000
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	cfg.Sync.ItemDelay = time.Duration(cfg.Sync.ItemDelayMs) * time.Millisecond
	cfg.Sync.ChunkDelay = time.Duration(cfg.Sync.ChunkDelayMs) * time.Millisecond
	cfg.Sync.TruckDelay = time.Duration(cfg.Sync.TruckDelayMs) * time.Millisecond

	if cfg.Detect.WorkerPoolSize <= 0 {
		log.Printf("detect.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Detect.WorkerPoolSize = 1
	}
}
