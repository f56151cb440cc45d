package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Estimation blending constants.
	MinComparables int
	SpreadMin      float64
	SpreadMax      float64
	OfficialFactor float64

	// Geocoding collaborator configuration.
	GeocoderEnabled   bool
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	minComparables, err := parseInt("MIN_COMPARABLES", 5)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("GEOCODER_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	spreadMin, err := parseFloat("SPREAD_MIN", 0.15)
	if err != nil {
		return nil, err
	}
	spreadMax, err := parseFloat("SPREAD_MAX", 0.35)
	if err != nil {
		return nil, err
	}
	officialFactor, err := parseFloat("OFFICIAL_FACTOR", 1.25)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         envOrDefault("OMI_DATA_DIR", "data/omi"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MinComparables: minComparables,
		SpreadMin:      spreadMin,
		SpreadMax:      spreadMax,
		OfficialFactor: officialFactor,

		GeocoderEnabled:   os.Getenv("GEOCODER_ENABLED") == "true",
		GeocoderBaseURL:   envOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: envOrDefault("GEOCODER_USER_AGENT", "omi-valuation/1.0"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderCacheSize: cacheSize,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("OMI_DATA_DIR is required")
	}
	if cfg.MinComparables < 0 {
		return nil, errors.New("MIN_COMPARABLES must not be negative")
	}
	if cfg.SpreadMin < 0 || cfg.SpreadMax < cfg.SpreadMin {
		return nil, errors.New("SPREAD_MIN/SPREAD_MAX must satisfy 0 <= min <= max")
	}
	if cfg.OfficialFactor <= 0 {
		return nil, errors.New("OFFICIAL_FACTOR must be positive")
	}
	if cfg.GeocoderEnabled && cfg.GeocoderBaseURL == "" {
		return nil, errors.New("GEOCODER_ENABLED is true but GEOCODER_BASE_URL is not set")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}
