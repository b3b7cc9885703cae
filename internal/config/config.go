// Package config loads tenantctl settings from defaults, an optional TOML file
// and TENANTCTL_* environment variables, in increasing order of precedence.
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

// EnvPrefix prefixes every environment override, e.g. TENANTCTL_AUTH_METHOD.
const EnvPrefix = "TENANTCTL"

// Configuration keys.
const (
	KeyAuthMethod             = "auth.method"
	KeyAuthClientID           = "auth.client_id"
	KeyAuthTenant             = "auth.tenant"
	KeyAuthClientSecret       = "auth.client_secret"
	KeyAuthRequiredRoles      = "auth.required_roles"
	KeyGraphBaseURL           = "graph.base_url"
	KeyGraphRequestsPerSecond = "graph.requests_per_second"
	KeyGraphBurst             = "graph.burst"
	KeyExchangeBaseURL        = "exchange.base_url"
	KeyExchangeRequestsPerSec = "exchange.requests_per_second"
	KeyExchangeBurst          = "exchange.burst"
	KeySessionTeardown        = "session.teardown_timeout"
	KeySessionDiscovery       = "session.discovery_timeout"
	KeyLogLevel               = "log.level"
	KeyLogFormat              = "log.format"
)

// Config is the effective tenantctl configuration.
type Config struct {
	Auth     AuthConfig
	Graph    EndpointConfig
	Exchange EndpointConfig
	Session  SessionConfig
	Log      LogConfig

	// File is the configuration file that was read. Empty when none was found.
	File string
}

// AuthConfig selects the sign-in method and the admin role gate.
type AuthConfig struct {
	Method        string
	ClientID      string
	Tenant        string
	ClientSecret  string
	RequiredRoles []string
}

// EndpointConfig addresses one remote API.
type EndpointConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
}

// SessionConfig bounds session operations.
type SessionConfig struct {
	TeardownTimeout  time.Duration
	DiscoveryTimeout time.Duration
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string
	Format string
}

func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", KeyAuthMethod, c.Auth.Method)
	fmt.Fprintf(&b, "%s: %s\n", KeyAuthClientID, c.Auth.ClientID)
	fmt.Fprintf(&b, "%s: %s\n", KeyAuthTenant, c.Auth.Tenant)
	fmt.Fprintf(&b, "%s: %s\n", KeyAuthClientSecret, redact(c.Auth.ClientSecret))
	fmt.Fprintf(&b, "%s: %s\n", KeyAuthRequiredRoles, c.Auth.RequiredRoles)
	fmt.Fprintf(&b, "%s: %s\n", KeyGraphBaseURL, c.Graph.BaseURL)
	fmt.Fprintf(&b, "%s: %g\n", KeyGraphRequestsPerSecond, c.Graph.RequestsPerSecond)
	fmt.Fprintf(&b, "%s: %d\n", KeyGraphBurst, c.Graph.Burst)
	fmt.Fprintf(&b, "%s: %s\n", KeyExchangeBaseURL, c.Exchange.BaseURL)
	fmt.Fprintf(&b, "%s: %g\n", KeyExchangeRequestsPerSec, c.Exchange.RequestsPerSecond)
	fmt.Fprintf(&b, "%s: %d\n", KeyExchangeBurst, c.Exchange.Burst)
	fmt.Fprintf(&b, "%s: %s\n", KeySessionTeardown, c.Session.TeardownTimeout)
	fmt.Fprintf(&b, "%s: %s\n", KeySessionDiscovery, c.Session.DiscoveryTimeout)
	fmt.Fprintf(&b, "%s: %s\n", KeyLogLevel, c.Log.Level)
	fmt.Fprintf(&b, "%s: %s\n", KeyLogFormat, c.Log.Format)
	return b.String()
}

// DefaultPath returns ~/.tenantctl/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".tenantctl", "config.toml"), nil
}

// Load reads the configuration. An explicit path must exist; without one the
// default path is read if present.
func Load(path string) (*Config, error) {
	options := viper.New()

	options.SetDefault(KeyAuthMethod, "interactive")
	options.SetDefault(KeyAuthClientID, "")
	options.SetDefault(KeyAuthTenant, "")
	options.SetDefault(KeyAuthClientSecret, "")
	options.SetDefault(KeyAuthRequiredRoles, []string{})
	options.SetDefault(KeyGraphBaseURL, "https://graph.microsoft.com/v1.0")
	options.SetDefault(KeyGraphRequestsPerSecond, 10.0)
	options.SetDefault(KeyGraphBurst, 15)
	options.SetDefault(KeyExchangeBaseURL, "https://outlook.office365.com")
	options.SetDefault(KeyExchangeRequestsPerSec, 3.0)
	options.SetDefault(KeyExchangeBurst, 5)
	options.SetDefault(KeySessionTeardown, "10s")
	options.SetDefault(KeySessionDiscovery, "5m")
	options.SetDefault(KeyLogLevel, "info")
	options.SetDefault(KeyLogFormat, "text")

	options.SetEnvPrefix(EnvPrefix)
	options.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	options.AutomaticEnv()

	file, err := readFile(options, path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Auth: AuthConfig{
			Method:        options.GetString(KeyAuthMethod),
			ClientID:      options.GetString(KeyAuthClientID),
			Tenant:        options.GetString(KeyAuthTenant),
			ClientSecret:  options.GetString(KeyAuthClientSecret),
			RequiredRoles: options.GetStringSlice(KeyAuthRequiredRoles),
		},
		Graph: EndpointConfig{
			BaseURL:           options.GetString(KeyGraphBaseURL),
			RequestsPerSecond: options.GetFloat64(KeyGraphRequestsPerSecond),
			Burst:             options.GetInt(KeyGraphBurst),
		},
		Exchange: EndpointConfig{
			BaseURL:           options.GetString(KeyExchangeBaseURL),
			RequestsPerSecond: options.GetFloat64(KeyExchangeRequestsPerSec),
			Burst:             options.GetInt(KeyExchangeBurst),
		},
		Session: SessionConfig{
			TeardownTimeout:  options.GetDuration(KeySessionTeardown),
			DiscoveryTimeout: options.GetDuration(KeySessionDiscovery),
		},
		Log: LogConfig{
			Level:  options.GetString(KeyLogLevel),
			Format: options.GetString(KeyLogFormat),
		},
		File: file,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(options *viper.Viper, path string) (string, error) {
	if path != "" {
		options.SetConfigFile(path)
		if err := options.ReadInConfig(); err != nil {
			return "", fmt.Errorf("read config %s: %w", path, err)
		}
		return path, nil
	}

	def, err := DefaultPath()
	if err != nil {
		return "", nil
	}
	if _, err := os.Stat(def); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	options.SetConfigFile(def)
	options.SetConfigType("toml")
	if err := options.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read config %s: %w", def, err)
	}
	return def, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.TeardownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeySessionTeardown))
	}
	if c.Session.DiscoveryTimeout < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeySessionDiscovery))
	}
	if c.Graph.RequestsPerSecond <= 0 || c.Exchange.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests_per_second must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
