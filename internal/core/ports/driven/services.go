package driven

import (
	"context"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// CredentialPrompt obtains access tokens from the operator.
// Closing the prompt must return an error wrapping domain.ErrPromptCancelled.
type CredentialPrompt interface {
	// Acquire returns a token valid for the given scopes.
	Acquire(ctx context.Context, scopes []string) (domain.AccessToken, error)
}

// DirectoryService is the identity/directory collaborator.
type DirectoryService interface {
	// Authenticate signs in through the prompt and resolves the tenant.
	// Returns domain.ErrAuthentication or domain.ErrPermission on failure.
	Authenticate(ctx context.Context, prompt CredentialPrompt, tenantHint string) (domain.TenantIdentity, error)

	ListDomains(ctx context.Context) ([]domain.AcceptedDomain, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	ListLicenseSkus(ctx context.Context) ([]domain.LicenseSku, error)
	ListSites(ctx context.Context) ([]domain.Site, error)

	// Disconnect drops the session. Safe to call when not authenticated.
	Disconnect(ctx context.Context) error
}

// MailService is the mailbox/groups collaborator.
type MailService interface {
	// Authenticate signs in for the tenant resolved by the directory service.
	Authenticate(ctx context.Context, prompt CredentialPrompt, tenant domain.TenantIdentity) error

	ListSharedMailboxes(ctx context.Context) ([]domain.SharedMailbox, error)
	ListDistributionLists(ctx context.Context) ([]domain.DistributionList, error)
	ListMailSecurityGroups(ctx context.Context) ([]domain.MailSecurityGroup, error)

	// Disconnect drops the session. Safe to call when not authenticated.
	Disconnect(ctx context.Context) error
}

// SessionObserver receives session lifecycle notifications.
// Calls are made synchronously from the session manager and must not block.
type SessionObserver interface {
	StateChanged(from, to domain.SessionState)
	DiscoveryCompleted(result domain.DiscoveryResult)
	ConnectFailed(err error)
}
