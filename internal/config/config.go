package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage backends accepted by StorageBackend.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the market browser.
type Config struct {
	// Market data provider
	AlphavantageAPIKey  string `mapstructure:"alphavantage_api_key"`
	AlphavantageBaseURL string `mapstructure:"alphavantage_base_url"`

	// Request pacing and provider protection
	RequestInterval time.Duration `mapstructure:"request_interval"`
	QuotaPerMinute  int           `mapstructure:"quota_per_minute"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`

	// Cache freshness
	OverviewTTL time.Duration `mapstructure:"overview_ttl"`
	ListingTTL  time.Duration `mapstructure:"listing_ttl"`

	// Durable storage for the cache and watchlists
	StorageBackend string `mapstructure:"storage_backend"`
	DataDir        string `mapstructure:"data_dir"`
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`

	// Server and logging
	ListenAddr string `mapstructure:"listen_addr"`
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
}

var defaults = map[string]any{
	"alphavantage_base_url": "https://www.alphavantage.co/query",
	"request_interval":      "13s",
	"quota_per_minute":      5,
	"http_timeout":          "15s",
	"breaker_failures":      3,
	"breaker_cooldown":      "60s",
	"overview_ttl":          "24h",
	"listing_ttl":           "5m",
	"storage_backend":       BackendFile,
	"data_dir":              "./data",
	"redis_addr":            "localhost:6379",
	"redis_password":        "",
	"redis_db":              0,
	"listen_addr":           ":8080",
	"log_level":             "info",
	"log_format":            "text",
}

// Load reads configuration from environment variables and optional config file.
// Environment variables take precedence over config file values.
//
// Every key is read from the environment under its upper-case name, e.g.
// ALPHAVANTAGE_API_KEY (required), REQUEST_INTERVAL, STORAGE_BACKEND, REDIS_ADDR.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("") // No prefix, use full names
	v.AutomaticEnv()

	v.SetDefault("alphavantage_api_key", "")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marketbrowser")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	v.BindEnv("alphavantage_api_key", "ALPHAVANTAGE_API_KEY")
	for key := range defaults {
		v.BindEnv(key, strings.ToUpper(key))
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports missing required keys and out-of-range values.
func (c *Config) Validate() error {
	var missing []string
	if c.AlphavantageAPIKey == "" {
		missing = append(missing, "ALPHAVANTAGE_API_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch c.StorageBackend {
	case BackendFile, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid configuration: unknown storage backend %q", c.StorageBackend)
	}
	if c.QuotaPerMinute <= 0 {
		return fmt.Errorf("invalid configuration: quota_per_minute must be positive, got %d", c.QuotaPerMinute)
	}
	if c.RequestInterval < 0 {
		return fmt.Errorf("invalid configuration: request_interval must not be negative, got %s", c.RequestInterval)
	}
	return nil
}
