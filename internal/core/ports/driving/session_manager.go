package driving

import (
	"context"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
)

// ConnectRequest carries what a front end supplies to start a tenant session.
type ConnectRequest struct {
	// Prompt acquires credentials from the operator.
	Prompt driven.CredentialPrompt
	// TenantHint is an optional tenant domain or GUID to sign in to.
	TenantHint string
}

// SessionManager mediates the tenant session lifecycle.
type SessionManager interface {
	// Connect authenticates and runs discovery. Valid only while disconnected.
	Connect(ctx context.Context, req ConnectRequest) (domain.ConnectionState, error)

	// SwitchTenant clears the cache and tears down the session. Valid only while connected.
	// Teardown failures are logged, never returned.
	SwitchTenant(ctx context.Context) error

	// DiscoverTenantData refreshes the cache. Valid only while connected.
	DiscoverTenantData(ctx context.Context) (domain.DiscoveryResult, error)

	// GetState returns the current connection state.
	GetState() domain.ConnectionState

	// LastDiscovery returns the result of the most recent discovery for the current session.
	LastDiscovery() (domain.DiscoveryResult, bool)

	// Cache returns a read-only view of the tenant cache.
	Cache() TenantCacheView

	// Snapshot returns the state, last discovery and a copy of the cache read together.
	Snapshot() SessionSnapshot

	// Close ends any active session.
	Close(ctx context.Context) error
}

// SessionSnapshot is a consistent read of the session. Cache is a copy that
// belongs to State and does not change afterwards.
type SessionSnapshot struct {
	State domain.ConnectionState
	// Discovery is the last discovery result, nil when there is none.
	Discovery *domain.DiscoveryResult
	Cache     TenantCacheView
}

// TenantCacheView is the read-only view of the tenant cache handed to front ends.
// Every method returns a copy.
type TenantCacheView interface {
	// TenantID returns the tenant the cached data belongs to, or "" when empty.
	TenantID() string

	Domains() []domain.AcceptedDomain
	Users() []domain.User
	Groups() []domain.Group
	SharedMailboxes() []domain.SharedMailbox
	DistributionLists() []domain.DistributionList
	MailSecurityGroups() []domain.MailSecurityGroup
	LicenseSkus() []domain.LicenseSku
	Sites() []domain.Site

	// Count returns the size of one collection.
	Count(c domain.Collection) int
	// Counts returns the size of every collection.
	Counts() map[domain.Collection]int
	// IsEmpty reports whether every collection is empty.
	IsEmpty() bool
}
