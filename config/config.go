package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Catalog   CatalogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CatalogConfig selects and configures the product catalog backend
type CatalogConfig struct {
	Driver      string `mapstructure:"driver"` // "memory" or "postgres"
	DatabaseURL string `mapstructure:"database_url"`
	SeedFile    string `mapstructure:"seed_file"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "none", "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// MatchingConfig holds defaults for ingredient matching and list building
type MatchingConfig struct {
	MinScore          float64  `mapstructure:"min_score"`
	MaxResults        int      `mapstructure:"max_results"`
	PreferredBrands   []string `mapstructure:"preferred_brands"`
	ReferenceServings int      `mapstructure:"reference_servings"`
	Workers           int      `mapstructure:"workers"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cartwise/")

	v.SetEnvPrefix("CARTWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("log.level", "info")

	v.SetDefault("catalog.driver", "memory")
	v.SetDefault("catalog.database_url", "")
	v.SetDefault("catalog.seed_file", "")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.burst", 20)

	v.SetDefault("matching.min_score", 0.3)
	v.SetDefault("matching.max_results", 5)
	v.SetDefault("matching.preferred_brands", []string{})
	v.SetDefault("matching.reference_servings", 4)
	v.SetDefault("matching.workers", 4)
}

func validate(config *Config) error {
	switch config.Catalog.Driver {
	case "memory":
	case "postgres":
		if config.Catalog.DatabaseURL == "" {
			return fmt.Errorf("database URL is required when catalog driver is 'postgres' (set CARTWISE_CATALOG_DATABASE_URL)")
		}
	default:
		return fmt.Errorf("catalog driver must be 'memory' or 'postgres', got: %s", config.Catalog.Driver)
	}

	switch config.Cache.Type {
	case "none", "memory":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Matching.MinScore < 0 || config.Matching.MinScore > 1 {
		return fmt.Errorf("matching min_score must be within [0, 1], got: %v", config.Matching.MinScore)
	}
	if config.Matching.ReferenceServings <= 0 {
		return fmt.Errorf("matching reference_servings must be positive, got: %d", config.Matching.ReferenceServings)
	}
	if config.Matching.MaxResults <= 0 {
		return fmt.Errorf("matching max_results must be positive, got: %d", config.Matching.MaxResults)
	}
	if config.Matching.Workers <= 0 {
		config.Matching.Workers = 1
	}

	return nil
}
