// Package config provides configuration management for the federated STAC
// gateway service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server     ServerConfig     `envPrefix:"SERVER_"`
	STAC       STACConfig       `envPrefix:"STAC_"`
	Federation FederationConfig `envPrefix:"FEDERATION_"`
	Backends   BackendsConfig   `envPrefix:"BACKEND_"`
	Download   DownloadConfig   `envPrefix:"DOWNLOAD_"`
	Features   FeatureConfig    `envPrefix:"FEATURE_"`
	Logging    LoggingConfig    `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// STACConfig contains STAC API metadata configuration.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL"` // Public-facing URL (required)
	Title       string `env:"TITLE" envDefault:"Federated EO STAC API"`
	Description string `env:"DESCRIPTION" envDefault:"STAC API gateway over a federated Earth-observation search engine"`
}

// FederationConfig contains settings for the federated search engine.
type FederationConfig struct {
	// ProductTypesDir is the directory holding product type JSON definitions.
	ProductTypesDir string `env:"PRODUCT_TYPES_DIR" envDefault:"./product-types"`

	// FetchExternalCollections controls pre-fetching of externally hosted
	// STAC collection documents at startup.
	FetchExternalCollections bool          `env:"FETCH_EXTERNAL_COLLECTIONS" envDefault:"true"`
	ExternalFetchTimeout     time.Duration `env:"EXTERNAL_FETCH_TIMEOUT" envDefault:"30s"`

	// ValidateRequests is forwarded to the engine's search call.
	ValidateRequests bool `env:"VALIDATE_REQUESTS" envDefault:"false"`

	// Count asks providers to report total match counts.
	Count bool `env:"COUNT" envDefault:"true"`
}

// BackendConfig configures one federation backend endpoint.
type BackendConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	BaseURL string        `env:"BASE_URL" envDefault:""`
	APIKey  string        `env:"API_KEY" envDefault:""`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// BackendsConfig groups the known federation backend endpoints. A backend
// with an empty base URL is left unregistered.
type BackendsConfig struct {
	PEPS  BackendConfig `envPrefix:"PEPS_"`
	Theia BackendConfig `envPrefix:"THEIA_"`
}

// Active returns the enabled backends keyed by federation backend name.
func (b *BackendsConfig) Active() map[string]BackendConfig {
	out := make(map[string]BackendConfig)
	if b.PEPS.Enabled && b.PEPS.BaseURL != "" {
		out["peps"] = b.PEPS
	}
	if b.Theia.Enabled && b.Theia.BaseURL != "" {
		out["theia"] = b.Theia
	}
	return out
}

// DownloadConfig contains asset proxying and ordering configuration.
type DownloadConfig struct {
	// BaseURL overrides the public URL used for proxied asset hrefs.
	// Falls back to the STAC base URL when empty.
	BaseURL string `env:"BASE_URL"`

	// KeepOriginURL preserves provider origin URLs in an
	// "alternate.origin" asset entry next to the proxied href.
	KeepOriginURL bool `env:"KEEP_ORIGIN_URL" envDefault:"false"`

	// OriginURLBlacklist lists URL prefixes that must never be exposed as
	// origin URLs, even when KeepOriginURL is on.
	OriginURLBlacklist []string `env:"ORIGIN_URL_BLACKLIST" envSeparator:","`

	// AutoOrderWhitelist lists federation backends whose products are
	// always treated as online: ordering happens implicitly at download.
	AutoOrderWhitelist []string `env:"AUTO_ORDER_WHITELIST" envSeparator:","`
}

// FeatureConfig contains feature flags and limits.
type FeatureConfig struct {
	EnableDataDownload    bool `env:"ENABLE_DATA_DOWNLOAD" envDefault:"true"`
	EnableCollectionOrder bool `env:"ENABLE_COLLECTION_ORDER" envDefault:"true"`
	EnableQueryables      bool `env:"ENABLE_QUERYABLES" envDefault:"true"`
	DefaultLimit          int  `env:"DEFAULT_LIMIT" envDefault:"20"`
	MaxLimit              int  `env:"MAX_LIMIT" envDefault:"250"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.STAC.BaseURL == "" {
		return fmt.Errorf("STAC base URL is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	if c.Federation.ProductTypesDir == "" {
		return fmt.Errorf("product types directory is required")
	}

	if c.Federation.ExternalFetchTimeout <= 0 {
		return fmt.Errorf("external fetch timeout must be positive, got %s", c.Federation.ExternalFetchTimeout)
	}

	for name, backend := range c.Backends.Active() {
		if backend.Timeout <= 0 {
			return fmt.Errorf("backend %s timeout must be positive, got %s", name, backend.Timeout)
		}
	}

	for _, prefix := range c.Download.OriginURLBlacklist {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("origin URL blacklist must not contain empty prefixes")
		}
	}

	if c.Features.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.Features.DefaultLimit)
	}

	if c.Features.MaxLimit < c.Features.DefaultLimit {
		return fmt.Errorf("max limit (%d) must be >= default limit (%d)", c.Features.MaxLimit, c.Features.DefaultLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// DownloadBaseURL returns the base URL for proxied asset hrefs.
func (c *Config) DownloadBaseURL() string {
	if c.Download.BaseURL != "" {
		return strings.TrimSuffix(c.Download.BaseURL, "/")
	}
	return strings.TrimSuffix(c.STAC.BaseURL, "/")
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
