// Package directory implements the directory service on Microsoft Graph.
package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/custodia-labs/tenantctl/internal/connectors/microsoft"
	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

// Ensure Service implements the interface.
var _ driven.DirectoryService = (*Service)(nil)

// Graph $select lists.
const (
	selectDomains = "id,isDefault,isInitial,isVerified"
	selectUsers   = "id,displayName,userPrincipalName,mail,accountEnabled,userType,assignedLicenses"
	selectGroups  = "id,displayName,mail,mailEnabled,securityEnabled,groupTypes"
	selectSkus    = "skuId,skuPartNumber,prepaidUnits,consumedUnits"
	selectSites   = "id,name,displayName,webUrl"
	selectOrg     = "id,displayName,verifiedDomains"
	pageSize      = "999"
)

// Options configures the Graph directory service.
type Options struct {
	// BaseURL defaults to microsoft.GraphBaseURL.
	BaseURL string
	// Scope defaults to microsoft.GraphScope.
	Scope string
	// RequiredRoles are directory role template ids or app permissions, any one of which
	// the signed-in principal must hold. Nil uses microsoft.DefaultRequiredRoles.
	RequiredRoles []string
	RateLimit     microsoft.RateLimitConfig
	// HTTPClient supplies the transport; nil uses a default client.
	HTTPClient *http.Client
}

// Service reads tenant directory data from Microsoft Graph.
type Service struct {
	opts    Options
	limiter *microsoft.RateLimiter

	mu     sync.RWMutex
	client *microsoft.Client
}

// New creates a disconnected directory service.
func New(opts Options) *Service {
	if opts.BaseURL == "" {
		opts.BaseURL = microsoft.GraphBaseURL
	}
	if opts.Scope == "" {
		opts.Scope = microsoft.GraphScope
	}
	if opts.RequiredRoles == nil {
		opts.RequiredRoles = microsoft.DefaultRequiredRoles
	}
	return &Service{opts: opts, limiter: microsoft.NewRateLimiterWithConfig(microsoft.ServiceGraph, opts.RateLimit)}
}

// Authenticate signs in through prompt, checks the administrative role gate and
// reads the organisation. A non-empty tenantHint must match the tenant id or
// one of its verified domains.
func (s *Service) Authenticate(
	ctx context.Context, prompt driven.CredentialPrompt, tenantHint string,
) (domain.TenantIdentity, error) {
	scopes := []string{s.opts.Scope}
	token, err := prompt.Acquire(ctx, scopes)
	if err != nil {
		return domain.TenantIdentity{}, fmt.Errorf("graph: acquire token: %w", err)
	}

	claims, err := microsoft.ParseClaims(token.Token)
	if err != nil {
		return domain.TenantIdentity{}, fmt.Errorf("graph: %w", err)
	}
	if err := claims.RequireRole(s.opts.RequiredRoles); err != nil {
		return domain.TenantIdentity{}, fmt.Errorf("graph: %w", err)
	}

	ts := microsoft.NewTokenSource(ctx, prompt, scopes, token)
	client := microsoft.NewClient(
		microsoft.NewHTTPClient(ctx, s.opts.HTTPClient, ts), s.opts.BaseURL, microsoft.ServiceGraph, s.limiter)

	orgs, err := microsoft.GetAll[graphOrganization](ctx, client, "organization", url.Values{"$select": {selectOrg}})
	if err != nil {
		return domain.TenantIdentity{}, fmt.Errorf("graph: read organization: %w", err)
	}
	if len(orgs) == 0 {
		return domain.TenantIdentity{}, fmt.Errorf("graph: %w: no organization visible to %s",
			domain.ErrPermission, claims.Principal)
	}
	org := orgs[0]

	if tenantHint != "" && !strings.EqualFold(tenantHint, claims.TenantID) && !org.hasDomain(tenantHint) {
		return domain.TenantIdentity{}, fmt.Errorf("graph: %w: %s (%s), expected %s",
			domain.ErrTenantMismatch, org.DisplayName, claims.TenantID, tenantHint)
	}

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()

	logger.Debug("graph: signed in to %s as %s (app=%t)", claims.TenantID, claims.Principal, claims.App)
	return domain.TenantIdentity{
		TenantID:      claims.TenantID,
		DisplayName:   org.DisplayName,
		DefaultDomain: org.defaultDomain(),
		Principal:     claims.Principal,
	}, nil
}

// ListDomains returns the tenant's domains.
func (s *Service) ListDomains(ctx context.Context) ([]domain.AcceptedDomain, error) {
	return list(ctx, s, "domains", url.Values{"$select": {selectDomains}}, graphDomain.toDomain)
}

// ListUsers returns every directory user.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return list(ctx, s, "users", url.Values{"$select": {selectUsers}, "$top": {pageSize}}, graphUser.toDomain)
}

// ListGroups returns every directory group.
func (s *Service) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return list(ctx, s, "groups", url.Values{"$select": {selectGroups}, "$top": {pageSize}}, graphGroup.toDomain)
}

// ListLicenseSkus returns the subscribed license SKUs.
func (s *Service) ListLicenseSkus(ctx context.Context) ([]domain.LicenseSku, error) {
	return list(ctx, s, "subscribedSkus", url.Values{"$select": {selectSkus}}, graphSku.toDomain)
}

// ListSites returns the SharePoint sites found by a wildcard search.
func (s *Service) ListSites(ctx context.Context) ([]domain.Site, error) {
	return list(ctx, s, "sites", url.Values{"search": {"*"}, "$select": {selectSites}}, graphSite.toDomain)
}

// Disconnect drops the Graph session. Graph has no server-side sign-out for
// bearer tokens, so this forgets the token source and closes idle connections.
func (s *Service) Disconnect(_ context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	if client != nil {
		client.CloseIdleConnections()
	}
	return nil
}

func (s *Service) current() (*microsoft.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, fmt.Errorf("graph: %w", microsoft.ErrNotConnected)
	}
	return s.client, nil
}

func list[G any, D any](
	ctx context.Context, s *Service, path string, query url.Values, fn func(G) D,
) ([]D, error) {
	client, err := s.current()
	if err != nil {
		return nil, err
	}
	items, err := microsoft.GetAll[G](ctx, client, path, query)
	if err != nil {
		return nil, fmt.Errorf("graph: list %s: %w", path, err)
	}
	return convert(items, fn), nil
}
