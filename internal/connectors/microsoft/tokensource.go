package microsoft

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
)

// promptTokenSource fetches tokens from a credential prompt.
type promptTokenSource struct {
	ctx    context.Context
	prompt driven.CredentialPrompt
	scopes []string
}

func (s *promptTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.prompt.Acquire(s.ctx, s.scopes)
	if err != nil {
		return nil, err
	}
	return toOAuth2(tok), nil
}

// NewTokenSource returns a caching token source seeded with initial.
// Refreshes go back to prompt, detached from the cancellation of ctx so a
// session outlives the command that opened it.
func NewTokenSource(
	ctx context.Context, prompt driven.CredentialPrompt, scopes []string, initial domain.AccessToken,
) oauth2.TokenSource {
	src := &promptTokenSource{
		ctx:    context.WithoutCancel(ctx),
		prompt: prompt,
		scopes: scopes,
	}
	return oauth2.ReuseTokenSource(toOAuth2(initial), src)
}

// NewHTTPClient returns an HTTP client that adds a bearer token from ts to each request.
// base supplies the transport and timeout; nil uses a default client.
func NewHTTPClient(ctx context.Context, base *http.Client, ts oauth2.TokenSource) *http.Client {
	if base == nil {
		base = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
}

func toOAuth2(tok domain.AccessToken) *oauth2.Token {
	return &oauth2.Token{
		AccessToken: tok.Token,
		TokenType:   "Bearer",
		Expiry:      tok.ExpiresOn,
	}
}
