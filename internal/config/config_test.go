package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory so no real config file is read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")

	require.NoError(t, err)
	want := &Config{
		Auth: AuthConfig{Method: "interactive", RequiredRoles: []string{}},
		Graph: EndpointConfig{
			BaseURL: "https://graph.microsoft.com/v1.0", RequestsPerSecond: 10, Burst: 15,
		},
		Exchange: EndpointConfig{
			BaseURL: "https://outlook.office365.com", RequestsPerSecond: 3, Burst: 5,
		},
		Session: SessionConfig{TeardownTimeout: 10 * time.Second, DiscoveryTimeout: 5 * time.Minute},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("TENANTCTL_AUTH_METHOD", "device-code")
	t.Setenv("TENANTCTL_AUTH_TENANT", "contoso.com")
	t.Setenv("TENANTCTL_AUTH_REQUIRED_ROLES", "62e90394-69f5-4237-9190-012177145e10 Directory.Read.All")
	t.Setenv("TENANTCTL_SESSION_TEARDOWN_TIMEOUT", "3s")
	t.Setenv("TENANTCTL_EXCHANGE_BURST", "2")
	t.Setenv("TENANTCTL_LOG_FORMAT", "json")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "device-code", cfg.Auth.Method)
	assert.Equal(t, "contoso.com", cfg.Auth.Tenant)
	assert.Equal(t, []string{"62e90394-69f5-4237-9190-012177145e10", "Directory.Read.All"}, cfg.Auth.RequiredRoles)
	assert.Equal(t, 3*time.Second, cfg.Session.TeardownTimeout)
	assert.Equal(t, 2, cfg.Exchange.Burst)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "tenantctl.toml")
	writeFile(t, path, `
[auth]
method = "client-secret"
client_id = "11111111-2222-3333-4444-555555555555"
tenant = "fabrikam.com"
client_secret = "s3cret"

[session]
teardown_timeout = "2s"
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, "client-secret", cfg.Auth.Method)
	assert.Equal(t, "fabrikam.com", cfg.Auth.Tenant)
	assert.Equal(t, "s3cret", cfg.Auth.ClientSecret)
	assert.Equal(t, 2*time.Second, cfg.Session.TeardownTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Session.DiscoveryTimeout, "unset keys keep defaults")
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "tenantctl.toml")
	writeFile(t, path, "[auth]\nmethod = \"client-secret\"\n")
	t.Setenv("TENANTCTL_AUTH_METHOD", "azure-cli")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "azure-cli", cfg.Auth.Method)
}

func TestLoad_DefaultFile(t *testing.T) {
	home := isolate(t)
	writeFile(t, filepath.Join(home, ".tenantctl", "config.toml"), "[log]\nlevel = \"debug\"\n")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(home, ".tenantctl", "config.toml"), cfg.File)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "missing explicit file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "absent.toml")
			},
		},
		{
			name: "malformed file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "bad.toml")
				writeFile(t, path, "[auth\nmethod=")
				return path
			},
		},
		{
			name: "invalid log format",
			setup: func(t *testing.T) string {
				t.Setenv("TENANTCTL_LOG_FORMAT", "xml")
				return ""
			},
		},
		{
			name: "zero teardown timeout",
			setup: func(t *testing.T) string {
				t.Setenv("TENANTCTL_SESSION_TEARDOWN_TIMEOUT", "0s")
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := tt.setup(t)

			_, err := Load(path)

			assert.Error(t, err)
		})
	}
}

func TestRender_RoundTrip(t *testing.T) {
	isolate(t)
	t.Setenv("TENANTCTL_AUTH_CLIENT_SECRET", "s3cret")
	t.Setenv("TENANTCTL_AUTH_TENANT", "contoso.com")
	cfg, err := Load("")
	require.NoError(t, err)

	out, err := Render(cfg)
	require.NoError(t, err)

	assert.Contains(t, string(out), "[auth]")
	assert.Contains(t, string(out), "teardown_timeout = ")
	assert.Contains(t, string(out), "10s")
	assert.NotContains(t, string(out), "s3cret")

	path := filepath.Join(t.TempDir(), "rendered.toml")
	writeFile(t, path, string(out))
	os.Unsetenv("TENANTCTL_AUTH_CLIENT_SECRET")
	os.Unsetenv("TENANTCTL_AUTH_TENANT")

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "contoso.com", back.Auth.Tenant)
	assert.Equal(t, cfg.Session, back.Session)
	assert.Equal(t, cfg.Graph, back.Graph)
	assert.Equal(t, "********", back.Auth.ClientSecret)
}

func TestConfig_String(t *testing.T) {
	cfg := Config{Auth: AuthConfig{Method: "client-secret", ClientSecret: "s3cret"}}

	s := cfg.String()

	assert.Contains(t, s, "auth.method: client-secret\n")
	assert.Contains(t, s, "auth.client_secret: ********\n")
	assert.NotContains(t, s, "s3cret")
}
