// ABOUTME: Configuration loading and parsing for handoff-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// MinSessionSecretLength is the minimum accepted length for the session
// signing secret. Shorter secrets make HS256 brute-forceable.
const MinSessionSecretLength = 32

// Config represents the complete handoff-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	SSO       SSOConfig       `yaml:"sso"`
	Session   SessionConfig   `yaml:"session"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	CORS      CORSConfig      `yaml:"cors"`
	Migration MigrationConfig `yaml:"migration"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SSOConfig describes the external identity authority whose assertions
// the gateway accepts.
type SSOConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	JWKSURL  string `yaml:"jwks_url"`

	JWKSCacheTTL time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	JWKSCacheTTLRaw string `yaml:"jwks_cache_ttl"`
}

// SessionConfig describes the local session tokens the gateway mints.
type SessionConfig struct {
	Issuer       string `yaml:"issuer"`
	Audience     string `yaml:"audience"`
	Secret       string `yaml:"secret"`
	CookieName   string `yaml:"cookie_name"`
	CookieDomain string `yaml:"cookie_domain"`
	SameSite     string `yaml:"same_site"` // "none", "lax", or "strict"

	TTL            time.Duration `yaml:"-"`
	NonceRetention time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	TTLRaw            string `yaml:"ttl"`
	NonceRetentionRaw string `yaml:"nonce_retention"`
}

// UpstreamConfig describes the protected upstream application.
type UpstreamConfig struct {
	BaseURL         string `yaml:"base_url"`
	ProtectedPrefix string `yaml:"protected_prefix"`
	HandoffPath     string `yaml:"handoff_path"`
	CompletePath    string `yaml:"complete_path"`
}

// CORSConfig holds the cross-site origin allow-list.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MigrationConfig gates the HTTP migration endpoint.
type MigrationConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values that have sensible defaults when omitted.
func (c *Config) applyDefaults() {
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "0.0.0.0:8080"
	}
	if c.SSO.JWKSCacheTTL == 0 {
		c.SSO.JWKSCacheTTL = 10 * time.Minute
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = 600 * time.Second
	}
	if c.Session.NonceRetention == 0 {
		c.Session.NonceRetention = 24 * time.Hour
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = "vibe_session"
	}
	if c.Session.SameSite == "" {
		// Cross-site handoff needs the cookie on redirects from the
		// frontend origin.
		c.Session.SameSite = "none"
	}
	if c.Upstream.ProtectedPrefix == "" {
		c.Upstream.ProtectedPrefix = "/app"
	}
	if c.Upstream.HandoffPath == "" {
		c.Upstream.HandoffPath = "/api/sso/handoff"
	}
	if c.Upstream.CompletePath == "" {
		c.Upstream.CompletePath = "/sso/complete"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.SSO.Issuer == "" {
		return fmt.Errorf("sso.issuer is required")
	}
	if c.SSO.Audience == "" {
		return fmt.Errorf("sso.audience is required")
	}
	if c.SSO.JWKSURL == "" {
		return fmt.Errorf("sso.jwks_url is required")
	}
	if _, err := url.Parse(c.SSO.JWKSURL); err != nil {
		return fmt.Errorf("sso.jwks_url is not a valid URL: %w", err)
	}

	if c.Session.Issuer == "" {
		return fmt.Errorf("session.issuer is required")
	}
	if c.Session.Audience == "" {
		return fmt.Errorf("session.audience is required")
	}
	if len(c.Session.Secret) < MinSessionSecretLength {
		return fmt.Errorf("session.secret must be at least %d bytes", MinSessionSecretLength)
	}
	switch strings.ToLower(c.Session.SameSite) {
	case "none", "lax", "strict":
	default:
		return fmt.Errorf("session.same_site must be one of none, lax, strict (got %q)", c.Session.SameSite)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL")
	}
	if !strings.HasPrefix(c.Upstream.ProtectedPrefix, "/") {
		return fmt.Errorf("upstream.protected_prefix must start with /")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.SSO.JWKSCacheTTLRaw != "" {
		cfg.SSO.JWKSCacheTTL, err = time.ParseDuration(cfg.SSO.JWKSCacheTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing jwks_cache_ttl %q: %w", cfg.SSO.JWKSCacheTTLRaw, err)
		}
	}

	if cfg.Session.TTLRaw != "" {
		cfg.Session.TTL, err = time.ParseDuration(cfg.Session.TTLRaw)
		if err != nil {
			return fmt.Errorf("parsing session ttl %q: %w", cfg.Session.TTLRaw, err)
		}
	}

	if cfg.Session.NonceRetentionRaw != "" {
		cfg.Session.NonceRetention, err = time.ParseDuration(cfg.Session.NonceRetentionRaw)
		if err != nil {
			return fmt.Errorf("parsing nonce_retention %q: %w", cfg.Session.NonceRetentionRaw, err)
		}
	}

	return nil
}
