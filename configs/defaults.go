package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults sets default configuration values for all components
func SetDefaults(v *viper.Viper) {
	// Application defaults
	if !v.IsSet("verbose") {
		v.Set("verbose", false)
	}
	if !v.IsSet("log_level") {
		v.Set("log_level", "info")
	}
	if !v.IsSet("output_format") {
		v.Set("output_format", "json")
	}
	if !v.IsSet("data_dir") {
		home, _ := os.UserHomeDir()
		v.Set("data_dir", filepath.Join(home, ".local", "share", "resonance"))
	}

	// Server defaults
	if !v.IsSet("server.addr") {
		v.Set("server.addr", ":8085")
	}
	if !v.IsSet("server.read_timeout") {
		v.Set("server.read_timeout", 30*time.Second)
	}
	if !v.IsSet("server.write_timeout") {
		v.Set("server.write_timeout", 30*time.Second)
	}
	if !v.IsSet("server.shutdown_timeout") {
		v.Set("server.shutdown_timeout", 10*time.Second)
	}
	if !v.IsSet("server.max_upload_bytes") {
		v.Set("server.max_upload_bytes", int64(32<<20))
	}

	// Database defaults
	if !v.IsSet("database.path") {
		v.Set("database.path", "resonance.db")
	}

	// Extractor defaults
	if !v.IsSet("extractor.workers") {
		v.Set("extractor.workers", 4)
	}
	if !v.IsSet("extractor.queue_size") {
		v.Set("extractor.queue_size", 16)
	}
	if !v.IsSet("extractor.window_size") {
		v.Set("extractor.window_size", 2048)
	}
	if !v.IsSet("extractor.hop_size") {
		v.Set("extractor.hop_size", 512)
	}
	if !v.IsSet("extractor.mfcc_coefficients") {
		v.Set("extractor.mfcc_coefficients", 13)
	}
	if !v.IsSet("extractor.contrast_bands") {
		v.Set("extractor.contrast_bands", 7)
	}

	// Recommendation defaults
	if !v.IsSet("recommend.default_limit") {
		v.Set("recommend.default_limit", 10)
	}
	if !v.IsSet("recommend.max_limit") {
		v.Set("recommend.max_limit", 50)
	}
	if !v.IsSet("recommend.active_start_hour") {
		v.Set("recommend.active_start_hour", 9)
	}
	if !v.IsSet("recommend.active_end_hour") {
		v.Set("recommend.active_end_hour", 23)
	}
	if !v.IsSet("recommend.interaction_days") {
		v.Set("recommend.interaction_days", 30)
	}
	if !v.IsSet("recommend.interaction_limit") {
		v.Set("recommend.interaction_limit", 100)
	}

	// Cache defaults
	if !v.IsSet("cache.ttl") {
		v.Set("cache.ttl", time.Hour)
	}
	if !v.IsSet("cache.sweep_interval") {
		v.Set("cache.sweep_interval", 10*time.Minute)
	}
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "json",
		DataDir:      filepath.Join(home, ".local", "share", "resonance"),
		Server:       GetDefaultServerConfig(),
		Database:     DatabaseConfig{Path: "resonance.db"},
		Extractor:    GetDefaultExtractorConfig(),
		Recommend:    GetDefaultRecommendConfig(),
		Cache:        GetDefaultCacheConfig(),
	}
}

// GetDefaultServerConfig returns default HTTP server settings
func GetDefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8085",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxUploadBytes:  32 << 20,
	}
}

// GetDefaultExtractorConfig returns default audio analysis settings
func GetDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Workers:          4,
		QueueSize:        16,
		WindowSize:       2048,
		HopSize:          512,
		MFCCCoefficients: 13,
		ContrastBands:    7,
	}
}

// GetDefaultRecommendConfig returns default recommendation engine settings
func GetDefaultRecommendConfig() RecommendConfig {
	return RecommendConfig{
		DefaultLimit:     10,
		MaxLimit:         50,
		ActiveStartHour:  9,
		ActiveEndHour:    23,
		InteractionDays:  30,
		InteractionLimit: 100,
	}
}

// GetDefaultCacheConfig returns default recommendation cache settings
func GetDefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:           time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}
