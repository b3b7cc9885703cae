package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/services"
)

// mockDirectory implements driven.DirectoryService for testing.
type mockDirectory struct {
	authErr error
	hint    string
	users   []domain.User
	listErr error
}

func (d *mockDirectory) Authenticate(
	_ context.Context, _ driven.CredentialPrompt, hint string,
) (domain.TenantIdentity, error) {
	d.hint = hint
	if d.authErr != nil {
		return domain.TenantIdentity{}, d.authErr
	}
	return domain.TenantIdentity{
		TenantID:      "9188040d-6c67-4c5b-b112-36a304b66dad",
		DisplayName:   "Contoso",
		DefaultDomain: "contoso.com",
		Principal:     "admin@contoso.com",
	}, nil
}

func (d *mockDirectory) ListDomains(context.Context) ([]domain.AcceptedDomain, error) {
	return []domain.AcceptedDomain{{Name: "contoso.com", IsDefault: true, Verified: true}}, nil
}

func (d *mockDirectory) ListUsers(context.Context) ([]domain.User, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.users, nil
}

func (d *mockDirectory) ListGroups(context.Context) ([]domain.Group, error) { return nil, nil }

func (d *mockDirectory) ListLicenseSkus(context.Context) ([]domain.LicenseSku, error) {
	return []domain.LicenseSku{{SkuID: "sku-1", SkuPartNumber: "ENTERPRISEPACK", Enabled: 25, Consumed: 3}}, nil
}

func (d *mockDirectory) ListSites(context.Context) ([]domain.Site, error) { return nil, nil }

func (d *mockDirectory) Disconnect(context.Context) error { return nil }

// mockMail implements driven.MailService for testing.
type mockMail struct {
	authErr error
}

func (m *mockMail) Authenticate(context.Context, driven.CredentialPrompt, domain.TenantIdentity) error {
	return m.authErr
}

func (m *mockMail) ListSharedMailboxes(context.Context) ([]domain.SharedMailbox, error) {
	return []domain.SharedMailbox{{ID: "mb-1", DisplayName: "Support", PrimarySmtpAddress: "support@contoso.com"}}, nil
}

func (m *mockMail) ListDistributionLists(context.Context) ([]domain.DistributionList, error) {
	return nil, nil
}

func (m *mockMail) ListMailSecurityGroups(context.Context) ([]domain.MailSecurityGroup, error) {
	return nil, nil
}

func (m *mockMail) Disconnect(context.Context) error { return nil }

// mockPrompt implements driven.CredentialPrompt for testing.
type mockPrompt struct{}

func (mockPrompt) Acquire(context.Context, []string) (domain.AccessToken, error) {
	return domain.AccessToken{Token: "token"}, nil
}

// promptRecorder is a PromptFactory that records the requested method and tenant.
type promptRecorder struct {
	method string
	tenant string
	calls  int
	err    error
}

func (r *promptRecorder) factory(method, tenant string, _ func(string)) (driven.CredentialPrompt, error) {
	r.method = method
	r.tenant = tenant
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return mockPrompt{}, nil
}

func defaultUsers() []domain.User {
	return []domain.User{
		{ID: "u1", DisplayName: "Adele Vance", UserPrincipalName: "adele@contoso.com", AccountEnabled: true},
		{ID: "u2", DisplayName: "Alex Wilber", UserPrincipalName: "alex@contoso.com", AccountEnabled: true},
		{ID: "u3", DisplayName: "Old Account", UserPrincipalName: "old@contoso.com"},
	}
}

// newTestSession returns a session manager over the mock services.
func newTestSession(dir *mockDirectory, mail *mockMail) *services.SessionManager {
	if mail == nil {
		return services.NewSessionManager(dir, nil, services.DefaultSessionConfig())
	}
	return services.NewSessionManager(dir, mail, services.DefaultSessionConfig())
}

// setup isolates configuration, injects services and restores package state afterwards.
func setup(t *testing.T, s *Services) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	oldSession, oldPrompts, oldMetrics := sessionManager, promptFactory, metricsHandler
	oldBuilder, oldConfig := serviceBuilder, loadedConfig
	t.Cleanup(func() {
		sessionManager, promptFactory, metricsHandler = oldSession, oldPrompts, oldMetrics
		serviceBuilder, loadedConfig = oldBuilder, oldConfig
		tenantHint, authMethod, tuiAuthMethod = "", "", ""
		metricsAddr, logFile, configPath = "", "", ""
		verbose = false
	})

	sessionManager, promptFactory, metricsHandler = nil, nil, nil
	serviceBuilder, loadedConfig = nil, nil
	SetServices(s)
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute(context.Background())
	return stdout.String(), stderr.String(), err
}
