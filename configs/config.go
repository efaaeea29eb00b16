package configs

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`
	DataDir      string `mapstructure:"data_dir"`

	// HTTP server configuration
	Server ServerConfig `mapstructure:"server"`

	// Database configuration
	Database DatabaseConfig `mapstructure:"database"`

	// Audio feature extraction configuration
	Extractor ExtractorConfig `mapstructure:"extractor"`

	// Recommendation engine configuration
	Recommend RecommendConfig `mapstructure:"recommend"`

	// Recommendation cache configuration
	Cache CacheConfig `mapstructure:"cache"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig contains SQLite settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// ExtractorConfig contains audio analysis settings
type ExtractorConfig struct {
	Workers          int `mapstructure:"workers"`
	QueueSize        int `mapstructure:"queue_size"`
	WindowSize       int `mapstructure:"window_size"`
	HopSize          int `mapstructure:"hop_size"`
	MFCCCoefficients int `mapstructure:"mfcc_coefficients"`
	ContrastBands    int `mapstructure:"contrast_bands"`
}

// RecommendConfig contains recommendation engine settings
type RecommendConfig struct {
	DefaultLimit     int `mapstructure:"default_limit"`
	MaxLimit         int `mapstructure:"max_limit"`
	ActiveStartHour  int `mapstructure:"active_start_hour"`
	ActiveEndHour    int `mapstructure:"active_end_hour"`
	InteractionDays  int `mapstructure:"interaction_days"`
	InteractionLimit int `mapstructure:"interaction_limit"`
}

// CacheConfig contains recommendation cache settings
type CacheConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server address must be set")
	}

	if config.Database.Path == "" {
		return fmt.Errorf("database path must be set")
	}

	if config.Extractor.Workers <= 0 {
		return fmt.Errorf("extractor workers must be positive")
	}

	if config.Extractor.WindowSize <= 0 || config.Extractor.HopSize <= 0 {
		return fmt.Errorf("extractor window and hop sizes must be positive")
	}

	if config.Extractor.HopSize > config.Extractor.WindowSize {
		return fmt.Errorf("extractor hop size cannot exceed window size")
	}

	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	if config.Recommend.MaxLimit < config.Recommend.DefaultLimit {
		return fmt.Errorf("recommend max limit cannot be below the default limit")
	}

	if config.Recommend.ActiveStartHour < 0 || config.Recommend.ActiveStartHour > 23 ||
		config.Recommend.ActiveEndHour < 0 || config.Recommend.ActiveEndHour > 23 {
		return fmt.Errorf("active hours must be within 0-23")
	}

	return nil
}
