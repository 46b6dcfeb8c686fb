package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Providers known to the normalizer; anything else is a configuration error
var supportedProviders = map[string]bool{
	"amazon":  true,
	"walmart": true,
	"ebay":    true,
}

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Search    SearchConfig
	Providers ProvidersConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchConfig holds the search API configuration
type SearchConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// ProvidersConfig lists the enabled providers. Output order is the fixed
// provider priority (amazon, walmart, ebay), not the order listed here.
type ProvidersConfig struct {
	Enabled []string `mapstructure:"enabled"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// DatabaseConfig holds the users database configuration.
// An empty URL disables the login endpoint.
type DatabaseConfig struct {
	URL         string        `mapstructure:"url"`
	MaxConns    int32         `mapstructure:"max_conns"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricescan/")

	// Environment variable settings
	v.SetEnvPrefix("PRICESCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Env values for list keys arrive as one comma separated string
	config.Providers.Enabled = splitList(config.Providers.Enabled)
	for i, name := range config.Providers.Enabled {
		config.Providers.Enabled[i] = strings.ToLower(name)
	}
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Search API defaults. api_key has no default: a missing key is reported per request.
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.base_url", "https://serpapi.com/search.json")
	v.SetDefault("search.timeout", "12s")
	v.SetDefault("search.rate_per_second", 5)
	v.SetDefault("search.burst", 10)

	v.SetDefault("providers.enabled", []string{"amazon"})

	// Cache defaults
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "10m")

	// Database defaults
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.idle_timeout", "30s")

	v.SetDefault("ratelimit.per_ip", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.Providers.Enabled) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}

	seen := make(map[string]bool, len(config.Providers.Enabled))
	for _, name := range config.Providers.Enabled {
		if !supportedProviders[name] {
			return fmt.Errorf("unknown provider %q (supported: amazon, walmart, ebay)", name)
		}
		if seen[name] {
			return fmt.Errorf("provider %q enabled twice", name)
		}
		seen[name] = true
	}

	if config.Search.Timeout <= 0 {
		return fmt.Errorf("search timeout must be positive, got: %s", config.Search.Timeout)
	}

	if config.Search.BaseURL == "" {
		return fmt.Errorf("search base URL is required (set PRICESCAN_SEARCH_BASE_URL)")
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}

// splitList flattens comma separated entries and drops blanks
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// loadEnvFile exports KEY=VALUE pairs from ./.env without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	if err := gotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}
