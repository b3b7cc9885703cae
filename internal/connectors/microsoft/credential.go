package microsoft

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
)

// Ensure Prompt implements the interface.
var _ driven.CredentialPrompt = (*Prompt)(nil)

// AuthMethod selects how the operator signs in.
type AuthMethod string

const (
	// AuthInteractive opens the system browser.
	AuthInteractive AuthMethod = "interactive"
	// AuthDeviceCode prints a code to enter at microsoft.com/devicelogin.
	AuthDeviceCode AuthMethod = "device-code"
	// AuthClientSecret signs in as an application registration.
	AuthClientSecret AuthMethod = "client-secret"
	// AuthAzureCLI reuses the account signed in to the az CLI.
	AuthAzureCLI AuthMethod = "azure-cli"
)

// AuthMethods lists the supported methods.
func AuthMethods() []AuthMethod {
	return []AuthMethod{AuthInteractive, AuthDeviceCode, AuthClientSecret, AuthAzureCLI}
}

// ParseAuthMethod resolves a method name. An empty name means interactive.
func ParseAuthMethod(name string) (AuthMethod, error) {
	if name == "" {
		return AuthInteractive, nil
	}
	for _, m := range AuthMethods() {
		if strings.EqualFold(string(m), name) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown auth method %q (want one of interactive, device-code, client-secret, azure-cli)", name)
}

// CredentialOptions configures NewCredential.
type CredentialOptions struct {
	Method AuthMethod
	// TenantID is a tenant GUID or domain. Empty lets the operator pick at sign-in.
	TenantID string
	// ClientID is the application registration. Empty uses the identity platform default.
	ClientID     string
	ClientSecret string
	// DeviceCode receives the sign-in instructions of the device code flow.
	DeviceCode func(message string)
}

// NewCredential builds an azidentity credential for the configured method.
func NewCredential(opts CredentialOptions) (azcore.TokenCredential, error) {
	switch opts.Method {
	case AuthInteractive, "":
		return azidentity.NewInteractiveBrowserCredential(&azidentity.InteractiveBrowserCredentialOptions{
			TenantID: opts.TenantID,
			ClientID: opts.ClientID,
		})
	case AuthDeviceCode:
		show := opts.DeviceCode
		if show == nil {
			show = func(string) {}
		}
		return azidentity.NewDeviceCodeCredential(&azidentity.DeviceCodeCredentialOptions{
			TenantID: opts.TenantID,
			ClientID: opts.ClientID,
			UserPrompt: func(_ context.Context, msg azidentity.DeviceCodeMessage) error {
				show(msg.Message)
				return nil
			},
		})
	case AuthClientSecret:
		if opts.TenantID == "" || opts.ClientID == "" || opts.ClientSecret == "" {
			return nil, errors.New("client-secret sign-in needs auth.tenant, auth.client_id and auth.client_secret")
		}
		return azidentity.NewClientSecretCredential(opts.TenantID, opts.ClientID, opts.ClientSecret, nil)
	case AuthAzureCLI:
		return azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{
			TenantID: opts.TenantID,
		})
	default:
		return nil, fmt.Errorf("unknown auth method %q", opts.Method)
	}
}

// Prompt adapts an azcore.TokenCredential to driven.CredentialPrompt.
type Prompt struct {
	cred azcore.TokenCredential
}

// NewPrompt wraps cred.
func NewPrompt(cred azcore.TokenCredential) *Prompt {
	return &Prompt{cred: cred}
}

// Acquire obtains a token for scopes, prompting the operator if the credential needs to.
func (p *Prompt) Acquire(ctx context.Context, scopes []string) (domain.AccessToken, error) {
	tok, err := p.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: scopes})
	if err != nil {
		return domain.AccessToken{}, credentialError(ctx, err)
	}
	return domain.AccessToken{Token: tok.Token, ExpiresOn: tok.ExpiresOn}, nil
}

// credentialError maps an azidentity failure onto the domain taxonomy.
func credentialError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrPromptCancelled, err)
	}
	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) && authErr.RawResponse != nil &&
		authErr.RawResponse.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: identity platform: %w", domain.ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
}
