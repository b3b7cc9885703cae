// Package connectors assembles the Microsoft 365 service adapters from configuration.
package connectors

import (
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/custodia-labs/tenantctl/internal/config"
	"github.com/custodia-labs/tenantctl/internal/connectors/microsoft"
	"github.com/custodia-labs/tenantctl/internal/connectors/microsoft/directory"
	"github.com/custodia-labs/tenantctl/internal/connectors/microsoft/exchange"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
)

// CredentialBuilder creates a token credential for one sign-in method.
type CredentialBuilder func(opts microsoft.CredentialOptions) (azcore.TokenCredential, error)

// Factory creates the directory and mail services and credential prompts.
type Factory struct {
	mu         sync.RWMutex
	builders   map[microsoft.AuthMethod]CredentialBuilder
	cfg        *config.Config
	httpClient *http.Client
}

// NewFactory creates a factory with a builder registered for every built-in sign-in method.
// httpClient may be nil.
func NewFactory(cfg *config.Config, httpClient *http.Client) *Factory {
	f := &Factory{
		builders:   make(map[microsoft.AuthMethod]CredentialBuilder),
		cfg:        cfg,
		httpClient: httpClient,
	}
	f.registerDefaultBuilders()
	return f
}

func (f *Factory) registerDefaultBuilders() {
	for _, m := range microsoft.AuthMethods() {
		f.Register(m, microsoft.NewCredential)
	}
}

// Register adds or replaces the credential builder for a sign-in method.
func (f *Factory) Register(method microsoft.AuthMethod, builder CredentialBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[method] = builder
}

// SupportedMethods returns the registered sign-in methods in name order.
func (f *Factory) SupportedMethods() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	methods := make([]string, 0, len(f.builders))
	for m := range f.builders {
		methods = append(methods, string(m))
	}
	sort.Strings(methods)
	return methods
}

// Prompt builds a credential prompt for the named method that signs in to tenant.
// Empty method and tenant use the configured values. deviceCode receives device
// code sign-in instructions.
func (f *Factory) Prompt(method, tenant string, deviceCode func(message string)) (driven.CredentialPrompt, error) {
	if method == "" {
		method = f.cfg.Auth.Method
	}
	if tenant == "" {
		tenant = f.cfg.Auth.Tenant
	}
	m, err := microsoft.ParseAuthMethod(method)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	builder, ok := f.builders[m]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no credential builder for auth method %s", m)
	}

	cred, err := builder(microsoft.CredentialOptions{
		Method:       m,
		TenantID:     tenant,
		ClientID:     f.cfg.Auth.ClientID,
		ClientSecret: f.cfg.Auth.ClientSecret,
		DeviceCode:   deviceCode,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s credential: %w", m, err)
	}
	return microsoft.NewPrompt(cred), nil
}

// Directory creates the Microsoft Graph directory service.
func (f *Factory) Directory() *directory.Service {
	roles := f.cfg.Auth.RequiredRoles
	if len(roles) == 0 {
		roles = nil
	}
	return directory.New(directory.Options{
		BaseURL:       f.cfg.Graph.BaseURL,
		RequiredRoles: roles,
		RateLimit:     rateLimit(f.cfg.Graph),
		HTTPClient:    f.httpClient,
	})
}

// Mail creates the Exchange Online mail service.
func (f *Factory) Mail() *exchange.Service {
	return exchange.New(exchange.Options{
		BaseURL:    f.cfg.Exchange.BaseURL,
		RateLimit:  rateLimit(f.cfg.Exchange),
		HTTPClient: f.httpClient,
	})
}

func rateLimit(e config.EndpointConfig) microsoft.RateLimitConfig {
	return microsoft.RateLimitConfig{RequestsPerSecond: e.RequestsPerSecond, BurstSize: e.Burst}
}
