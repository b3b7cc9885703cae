package microsoft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// fakeCredential implements azcore.TokenCredential for testing.
type fakeCredential struct {
	token  azcore.AccessToken
	err    error
	scopes []string
	block  bool
}

func (f *fakeCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	f.scopes = opts.Scopes
	if f.block {
		<-ctx.Done()
		return azcore.AccessToken{}, ctx.Err()
	}
	return f.token, f.err
}

func TestParseAuthMethod(t *testing.T) {
	tests := []struct {
		input    string
		expected AuthMethod
		wantErr  bool
	}{
		{input: "", expected: AuthInteractive},
		{input: "interactive", expected: AuthInteractive},
		{input: "Device-Code", expected: AuthDeviceCode},
		{input: "client-secret", expected: AuthClientSecret},
		{input: "azure-cli", expected: AuthAzureCLI},
		{input: "kerberos", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAuthMethod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewCredential(t *testing.T) {
	tests := []struct {
		name    string
		opts    CredentialOptions
		wantErr bool
	}{
		{name: "interactive", opts: CredentialOptions{Method: AuthInteractive}},
		{name: "device code", opts: CredentialOptions{Method: AuthDeviceCode, TenantID: "contoso.com"}},
		{name: "azure cli", opts: CredentialOptions{Method: AuthAzureCLI}},
		{
			name: "client secret",
			opts: CredentialOptions{
				Method:       AuthClientSecret,
				TenantID:     "0d3c2f71-0000-4000-8000-000000000001",
				ClientID:     "11111111-2222-3333-4444-555555555555",
				ClientSecret: "s3cret",
			},
		},
		{name: "client secret missing secret", opts: CredentialOptions{Method: AuthClientSecret, TenantID: "t", ClientID: "c"}, wantErr: true},
		{name: "unknown", opts: CredentialOptions{Method: "kerberos"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := NewCredential(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cred)
		})
	}
}

func TestPrompt_Acquire(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	cred := &fakeCredential{token: azcore.AccessToken{Token: "abc", ExpiresOn: expires}}
	p := NewPrompt(cred)

	tok, err := p.Acquire(context.Background(), []string{GraphScope})

	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Token)
	assert.Equal(t, expires, tok.ExpiresOn)
	assert.Equal(t, []string{GraphScope}, cred.scopes)
}

func TestPrompt_Acquire_Rejected(t *testing.T) {
	p := NewPrompt(&fakeCredential{err: errors.New("AADSTS50126: invalid username or password")})

	_, err := p.Acquire(context.Background(), []string{GraphScope})

	assert.ErrorIs(t, err, domain.ErrAuthentication)
	assert.NotErrorIs(t, err, domain.ErrPromptCancelled)
}

func TestPrompt_Acquire_Cancelled(t *testing.T) {
	p := NewPrompt(&fakeCredential{block: true})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Acquire(ctx, []string{GraphScope})

	assert.ErrorIs(t, err, domain.ErrPromptCancelled)
	assert.ErrorIs(t, err, domain.ErrAuthentication)
}
