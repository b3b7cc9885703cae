package config

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// fileView is the on-disk TOML layout.
type fileView struct {
	Auth struct {
		Method        string   `toml:"method"`
		ClientID      string   `toml:"client_id"`
		Tenant        string   `toml:"tenant"`
		ClientSecret  string   `toml:"client_secret"`
		RequiredRoles []string `toml:"required_roles"`
	} `toml:"auth"`
	Graph    endpointView `toml:"graph"`
	Exchange endpointView `toml:"exchange"`
	Session  struct {
		TeardownTimeout  string `toml:"teardown_timeout"`
		DiscoveryTimeout string `toml:"discovery_timeout"`
	} `toml:"session"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

type endpointView struct {
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Render returns the configuration as a TOML document that Load can read back.
// The client secret is redacted.
func Render(c *Config) ([]byte, error) {
	var v fileView
	v.Auth.Method = c.Auth.Method
	v.Auth.ClientID = c.Auth.ClientID
	v.Auth.Tenant = c.Auth.Tenant
	v.Auth.ClientSecret = redact(c.Auth.ClientSecret)
	v.Auth.RequiredRoles = c.Auth.RequiredRoles
	if v.Auth.RequiredRoles == nil {
		v.Auth.RequiredRoles = []string{}
	}
	v.Graph = endpointView(c.Graph)
	v.Exchange = endpointView(c.Exchange)
	v.Session.TeardownTimeout = c.Session.TeardownTimeout.String()
	v.Session.DiscoveryTimeout = c.Session.DiscoveryTimeout.String()
	v.Log.Level = c.Log.Level
	v.Log.Format = c.Log.Format

	out, err := toml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}
