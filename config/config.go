package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Display   DisplayConfig   `mapstructure:"display"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"` // IPs or CIDRs allowed to set X-Forwarded-For
}

// BackendConfig holds the meal REST backend configuration
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

// AnalysisConfig holds the food photo analysis service configuration
type AnalysisConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds S3-compatible photo storage configuration.
// Photo uploads are disabled while Endpoint is empty.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// DisplayConfig controls how records are presented
type DisplayConfig struct {
	Timezone           string `mapstructure:"timezone"`
	DefaultCalorieGoal int    `mapstructure:"default_calorie_goal"`
	CarbsGoal          int    `mapstructure:"carbs_goal"`   // grams
	ProteinGoal        int    `mapstructure:"protein_goal"` // grams
	FatGoal            int    `mapstructure:"fat_goal"`     // grams
	MaxRangeDays       int    `mapstructure:"max_range_days"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // member profile lifetime
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/harudiet/")

	// HARU_BACKEND_BASE_URL -> backend.base_url
	v.SetEnvPrefix("HARU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

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

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile exports the variables of ./.env that are not already set.
// A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load(".env")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default so
// AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", "10s")
	v.SetDefault("backend.rate_per_second", 10)
	v.SetDefault("backend.burst", 20)
	v.SetDefault("backend.max_retries", 3)

	v.SetDefault("analysis.base_url", "")
	v.SetDefault("analysis.timeout", "60s")

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "food-images")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_base_url", "")

	v.SetDefault("display.timezone", "Asia/Seoul")
	v.SetDefault("display.default_calorie_goal", 2000)
	v.SetDefault("display.carbs_goal", 300)
	v.SetDefault("display.protein_goal", 60)
	v.SetDefault("display.fat_goal", 70)
	v.SetDefault("display.max_range_days", 93)

	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("ratelimit.per_ip", 120)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base URL is required (set HARU_BACKEND_BASE_URL)")
	}

	if _, err := time.LoadLocation(config.Display.Timezone); err != nil {
		return fmt.Errorf("unknown display timezone %q: %w", config.Display.Timezone, err)
	}

	if config.Display.DefaultCalorieGoal <= 0 {
		return fmt.Errorf("default calorie goal must be positive, got: %d", config.Display.DefaultCalorieGoal)
	}

	d := config.Display
	if d.CarbsGoal <= 0 || d.ProteinGoal <= 0 || d.FatGoal <= 0 {
		return fmt.Errorf("macro goals must be positive, got: carbs=%d protein=%d fat=%d", d.CarbsGoal, d.ProteinGoal, d.FatGoal)
	}

	if d.MaxRangeDays <= 0 {
		return fmt.Errorf("max range days must be positive, got: %d", d.MaxRangeDays)
	}

	if config.Storage.Endpoint != "" && (config.Storage.AccessKeyID == "" || config.Storage.SecretAccessKey == "") {
		return fmt.Errorf("storage credentials are required when storage endpoint is set")
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("per-IP rate limit must be positive, got: %d", config.RateLimit.PerIP)
	}

	return nil
}

// Location returns the configured display location
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
