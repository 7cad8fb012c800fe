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
	Server       ServerConfig
	Catalog      CatalogConfig
	Cache        CacheConfig
	Storage      StorageConfig
	Capabilities CapabilitiesConfig
	Search       SearchConfig
	Summary      SummaryConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	Timezone       string   `mapstructure:"timezone"`
	LogLevel       string   `mapstructure:"log_level"`
}

// CatalogConfig holds remote nutrition database configuration
type CatalogConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Debug   bool          `mapstructure:"debug"`
}

// CacheConfig holds search cache configuration
type CacheConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StorageConfig selects where the meal list blob lives
type StorageConfig struct {
	Type     string `mapstructure:"type"` // "file", "s3" or "postgres"
	Key      string `mapstructure:"key"`
	Dir      string `mapstructure:"dir"`
	S3Bucket string `mapstructure:"s3_bucket"`
	S3Region string `mapstructure:"s3_region"`
	S3Prefix string `mapstructure:"s3_prefix"`
	DSN      string `mapstructure:"dsn"`
}

// CapabilitiesConfig toggles the optional detection capabilities
type CapabilitiesConfig struct {
	Barcode    BarcodeCapabilityConfig    `mapstructure:"barcode"`
	Classifier ClassifierCapabilityConfig `mapstructure:"classifier"`
}

// BarcodeCapabilityConfig configures the barcode decoder
type BarcodeCapabilityConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FallbackDelay time.Duration `mapstructure:"fallback_delay"`
}

// ClassifierCapabilityConfig configures the image classifier
type ClassifierCapabilityConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	Region        string  `mapstructure:"region"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// SearchConfig holds live search configuration
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// SummaryConfig holds dashboard settings
type SummaryConfig struct {
	CalorieGoal int `mapstructure:"calorie_goal"`
}

// AuthConfig holds bearer token verification settings.
// An empty JWTSecret disables verification.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`  // requests per minute
	Catalog int `mapstructure:"catalog"` // requests per minute to the remote database
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aimeal/")

	v.SetEnvPrefix("AIMEAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
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

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already present in the environment are not overridden.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values.
// Every key is registered here so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.timezone", "Local")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("catalog.base_url", "https://world.openfoodfacts.org/api/v0")
	v.SetDefault("catalog.timeout", "15s")
	v.SetDefault("catalog.debug", false)

	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("storage.type", "file")
	v.SetDefault("storage.key", "aimeal-meals")
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_region", "")
	v.SetDefault("storage.s3_prefix", "")
	v.SetDefault("storage.dsn", "")

	v.SetDefault("capabilities.barcode.enabled", true)
	v.SetDefault("capabilities.barcode.fallback_delay", "2s")
	v.SetDefault("capabilities.classifier.enabled", false)
	v.SetDefault("capabilities.classifier.region", "")
	v.SetDefault("capabilities.classifier.min_confidence", 50.0)

	v.SetDefault("search.debounce", "300ms")

	v.SetDefault("summary.calorie_goal", 2000)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("ratelimit.per_ip", 120)
	v.SetDefault("ratelimit.catalog", 60)
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Storage.Type {
	case "file":
		if config.Storage.Dir == "" {
			return fmt.Errorf("storage dir is required when storage type is 'file'")
		}
	case "s3":
		if config.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required when storage type is 's3' (set AIMEAL_STORAGE_S3_BUCKET)")
		}
	case "postgres":
		if config.Storage.DSN == "" {
			return fmt.Errorf("DSN is required when storage type is 'postgres' (set AIMEAL_STORAGE_DSN)")
		}
	default:
		return fmt.Errorf("storage type must be 'file', 's3' or 'postgres', got: %s", config.Storage.Type)
	}

	if config.Storage.Key == "" {
		return fmt.Errorf("storage key must not be empty")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got: %s", config.Cache.TTL)
	}

	if config.Capabilities.Barcode.FallbackDelay < 0 {
		return fmt.Errorf("barcode fallback delay must not be negative")
	}

	if _, err := config.Location(); err != nil {
		return fmt.Errorf("unknown server timezone %q: %w", config.Server.Timezone, err)
	}

	return nil
}

// Location resolves the timezone used for "today" calculations
func (c *Config) Location() (*time.Location, error) {
	if c.Server.Timezone == "" || c.Server.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Server.Timezone)
}
