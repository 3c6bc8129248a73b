package config

import (
	"time"
)

// Config is the complete server configuration.
type Config struct {
	Survey SurveyConfig `yaml:"survey"`
}

// SurveyConfig holds route sources and calculation settings.
type SurveyConfig struct {
	// OutputUnit is the chainage unit for all API responses: km, m, usft, nm
	OutputUnit string `yaml:"output_unit"`

	// RefreshInterval controls how often route definition files are reloaded
	// so re-issued route files are picked up during a campaign
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	// SampleCacheTTL bounds how long generated centerline sample sets are
	// served from cache
	SampleCacheTTL time.Duration `yaml:"sample_cache_ttl"`

	// CacheCleanupInterval controls stale cache entry eviction
	CacheCleanupInterval time.Duration `yaml:"cache_cleanup_interval"`

	Routes []RouteSource `yaml:"routes"`
}

// RouteSource identifies one route definition document to load.
type RouteSource struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// Path is a local route definition file (.json or .kml); URL is a remote
	// one. Exactly one should be set.
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Survey: SurveyConfig{
			OutputUnit:           "km",
			RefreshInterval:      15 * time.Minute,
			SampleCacheTTL:       time.Hour,
			CacheCleanupInterval: 10 * time.Minute,
		},
	}
}

// Normalize fills in zero-valued intervals from the defaults.
func (c *Config) Normalize() {
	defaults := DefaultConfig().Survey
	if c.Survey.OutputUnit == "" {
		c.Survey.OutputUnit = defaults.OutputUnit
	}
	if c.Survey.RefreshInterval <= 0 {
		c.Survey.RefreshInterval = defaults.RefreshInterval
	}
	if c.Survey.SampleCacheTTL <= 0 {
		c.Survey.SampleCacheTTL = defaults.SampleCacheTTL
	}
	if c.Survey.CacheCleanupInterval <= 0 {
		c.Survey.CacheCleanupInterval = defaults.CacheCleanupInterval
	}
}
