package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Ausmash API
	APIKey   string `mapstructure:"AUSMASH_API_KEY"`
	Endpoint string `mapstructure:"AUSMASH_ENDPOINT"`

	// start.gg GraphQL API
	StartGGAPIKey string `mapstructure:"STARTGG_API_KEY"`

	// Cache
	CacheBackend string        `mapstructure:"CACHE_BACKEND"` // "disk", "redis"
	CacheDir     string        `mapstructure:"CACHE_DIR"`
	CacheTTL     time.Duration `mapstructure:"CACHE_TTL"` // 0 means always revalidate
	RedisURL     string        `mapstructure:"REDIS_URL"`

	// Rate limiting
	SleepOnRateLimit bool `mapstructure:"SLEEP_ON_RATE_LIMIT"`
	RateLimitSecond  int  `mapstructure:"RATE_LIMIT_SECOND"`
	RateLimitMinute  int  `mapstructure:"RATE_LIMIT_MINUTE"`
	RateLimitHour    int  `mapstructure:"RATE_LIMIT_HOUR"`

	// HTTP
	HTTPTimeout time.Duration `mapstructure:"HTTP_TIMEOUT"`
	UserAgent   string        `mapstructure:"USER_AGENT"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Env      string `mapstructure:"ENV"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	// Set defaults
	viper.SetDefault("AUSMASH_API_KEY", "")
	viper.SetDefault("AUSMASH_ENDPOINT", "https://api.ausmash.com.au")
	viper.SetDefault("STARTGG_API_KEY", "")
	viper.SetDefault("CACHE_BACKEND", "disk")
	viper.SetDefault("CACHE_DIR", defaultCacheDir())
	viper.SetDefault("CACHE_TTL", "48h")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("SLEEP_ON_RATE_LIMIT", true)
	viper.SetDefault("RATE_LIMIT_SECOND", 200)
	viper.SetDefault("RATE_LIMIT_MINUTE", 5000)
	viper.SetDefault("RATE_LIMIT_HOUR", 300000)
	viper.SetDefault("HTTP_TIMEOUT", "30s")
	viper.SetDefault("USER_AGENT", "ausmash-go (github.com/jstittsworth/ausmash-go)")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ENV", "development")

	viper.AutomaticEnv()

	// A missing .env file is fine, env vars and defaults still apply
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks configuration values that would break the client at runtime
func (c *Config) Validate() error {
	switch strings.ToLower(c.CacheBackend) {
	case "disk", "redis":
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: must be disk or redis", c.CacheBackend)
	}

	if c.RateLimitSecond <= 0 || c.RateLimitMinute <= 0 || c.RateLimitHour <= 0 {
		return fmt.Errorf("rate limit ceilings must be positive")
	}

	if c.Endpoint == "" {
		return fmt.Errorf("AUSMASH_ENDPOINT must not be empty")
	}

	return nil
}

// IsDevelopment reports whether the library runs with development logging
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ausmash")
	}
	return filepath.Join(base, "ausmash")
}
