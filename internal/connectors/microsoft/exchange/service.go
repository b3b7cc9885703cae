// Package exchange implements the mail service on the Exchange Online admin API.
//
// Cmdlets are invoked over REST the way the ExchangeOnlineManagement module does:
//
//	POST {base}/adminapi/beta/{tenant}/InvokeCommand
//	{"CmdletInput": {"CmdletName": "Get-EXOMailbox", "Parameters": {...}}}
//
// Results come back as an OData collection and page through @odata.nextLink.
package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/custodia-labs/tenantctl/internal/connectors/microsoft"
	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.MailService = (*Service)(nil)

// systemMailboxAnchor routes admin requests to the tenant's arbitration mailbox.
const systemMailboxAnchor = "UPN:SystemMailbox{bb558c35-97f1-4cb9-8ff7-d53741dc928c}@"

// Recipient type filters.
const (
	recipientShared       = "SharedMailbox"
	recipientDistribution = "MailUniversalDistributionGroup"
	recipientSecurity     = "MailUniversalSecurityGroup"
)

// cmdletInput is the InvokeCommand request body.
type cmdletInput struct {
	CmdletInput cmdlet `json:"CmdletInput"`
}

type cmdlet struct {
	CmdletName string         `json:"CmdletName"`
	Parameters map[string]any `json:"Parameters,omitempty"`
}

// recipient holds the properties shared by mailbox and group cmdlet results.
type recipient struct {
	ExternalDirectoryObjectID string `json:"ExternalDirectoryObjectId"`
	GUID                      string `json:"Guid"`
	DisplayName               string `json:"DisplayName"`
	Alias                     string `json:"Alias"`
	PrimarySMTPAddress        string `json:"PrimarySmtpAddress"`
}

// id prefers the Entra object id so mail objects line up with directory objects.
func (r recipient) id() string {
	if r.ExternalDirectoryObjectID != "" {
		return r.ExternalDirectoryObjectID
	}
	if r.GUID != "" {
		return r.GUID
	}
	return r.PrimarySMTPAddress
}

type organizationConfig struct {
	Name        string `json:"Name"`
	DisplayName string `json:"DisplayName"`
}

// Options configures the Exchange Online mail service.
type Options struct {
	// BaseURL defaults to microsoft.ExchangeBaseURL.
	BaseURL string
	// Scope defaults to microsoft.ExchangeScope.
	Scope     string
	RateLimit microsoft.RateLimitConfig
	// HTTPClient supplies the transport; nil uses a default client.
	HTTPClient *http.Client
}

// Service reads mail recipients from Exchange Online.
type Service struct {
	opts    Options
	limiter *microsoft.RateLimiter

	mu     sync.RWMutex
	client *microsoft.Client
	path   string
}

// New creates a disconnected mail service.
func New(opts Options) *Service {
	if opts.BaseURL == "" {
		opts.BaseURL = microsoft.ExchangeBaseURL
	}
	if opts.Scope == "" {
		opts.Scope = microsoft.ExchangeScope
	}
	return &Service{opts: opts, limiter: microsoft.NewRateLimiterWithConfig(microsoft.ServiceExchange, opts.RateLimit)}
}

// Authenticate obtains an Exchange token for the tenant the directory signed in
// to and checks access with Get-OrganizationConfig.
func (s *Service) Authenticate(ctx context.Context, prompt driven.CredentialPrompt, tenant domain.TenantIdentity) error {
	if tenant.TenantID == "" {
		return fmt.Errorf("exchange: %w: no tenant to connect to", domain.ErrAuthentication)
	}
	scopes := []string{s.opts.Scope}
	token, err := prompt.Acquire(ctx, scopes)
	if err != nil {
		return fmt.Errorf("exchange: acquire token: %w", err)
	}

	ts := microsoft.NewTokenSource(ctx, prompt, scopes, token)
	client := microsoft.NewClient(
		microsoft.NewHTTPClient(ctx, s.opts.HTTPClient, ts), s.opts.BaseURL, microsoft.ServiceExchange, s.limiter)
	anchor := tenant.DefaultDomain
	if anchor == "" {
		anchor = tenant.TenantID
	}
	client.SetHeader("X-AnchorMailbox", systemMailboxAnchor+anchor)
	client.SetHeader("X-ResponseFormat", "json")
	path := "adminapi/beta/" + url.PathEscape(tenant.TenantID) + "/InvokeCommand"

	orgs, err := microsoft.PostAll[organizationConfig](ctx, client, path, cmdletInput{
		CmdletInput: cmdlet{CmdletName: "Get-OrganizationConfig"},
	})
	if err != nil {
		return fmt.Errorf("exchange: read organization config: %w", err)
	}
	if len(orgs) > 0 {
		logger.Debug("exchange: connected to organization %s", orgs[0].Name)
	}

	s.mu.Lock()
	s.client = client
	s.path = path
	s.mu.Unlock()
	return nil
}

// ListSharedMailboxes returns the tenant's shared mailboxes.
func (s *Service) ListSharedMailboxes(ctx context.Context) ([]domain.SharedMailbox, error) {
	return invoke(ctx, s, "Get-EXOMailbox", recipientShared, func(r recipient) domain.SharedMailbox {
		return domain.SharedMailbox{
			ID: r.id(), DisplayName: r.DisplayName, Alias: r.Alias, PrimarySmtpAddress: r.PrimarySMTPAddress,
		}
	})
}

// ListDistributionLists returns the tenant's distribution groups.
func (s *Service) ListDistributionLists(ctx context.Context) ([]domain.DistributionList, error) {
	return invoke(ctx, s, "Get-DistributionGroup", recipientDistribution, func(r recipient) domain.DistributionList {
		return domain.DistributionList{
			ID: r.id(), DisplayName: r.DisplayName, Alias: r.Alias, PrimarySmtpAddress: r.PrimarySMTPAddress,
		}
	})
}

// ListMailSecurityGroups returns the tenant's mail-enabled security groups.
func (s *Service) ListMailSecurityGroups(ctx context.Context) ([]domain.MailSecurityGroup, error) {
	return invoke(ctx, s, "Get-DistributionGroup", recipientSecurity, func(r recipient) domain.MailSecurityGroup {
		return domain.MailSecurityGroup{
			ID: r.id(), DisplayName: r.DisplayName, Alias: r.Alias, PrimarySmtpAddress: r.PrimarySMTPAddress,
		}
	})
}

// Disconnect forgets the Exchange session and closes idle connections.
func (s *Service) Disconnect(_ context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.path = ""
	s.mu.Unlock()

	if client != nil {
		client.CloseIdleConnections()
	}
	return nil
}

func invoke[D any](
	ctx context.Context, s *Service, name, recipientType string, fn func(recipient) D,
) ([]D, error) {
	s.mu.RLock()
	client, path := s.client, s.path
	s.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("exchange: %w", microsoft.ErrNotConnected)
	}

	items, err := microsoft.PostAll[recipient](ctx, client, path, cmdletInput{
		CmdletInput: cmdlet{
			CmdletName: name,
			Parameters: map[string]any{
				"RecipientTypeDetails": recipientType,
				"ResultSize":           "Unlimited",
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: %s %s: %w", name, recipientType, err)
	}

	out := make([]D, 0, len(items))
	for _, r := range items {
		out = append(out, fn(r))
	}
	return out, nil
}
