package tui

import (
	"bytes"
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
	"github.com/custodia-labs/tenantctl/internal/core/services"
)

// idleDirectory implements driven.DirectoryService for a session that is never connected.
type idleDirectory struct{}

func (idleDirectory) Authenticate(context.Context, driven.CredentialPrompt, string) (domain.TenantIdentity, error) {
	return domain.TenantIdentity{}, domain.ErrAuthentication
}
func (idleDirectory) ListDomains(context.Context) ([]domain.AcceptedDomain, error) { return nil, nil }
func (idleDirectory) ListUsers(context.Context) ([]domain.User, error)             { return nil, nil }
func (idleDirectory) ListGroups(context.Context) ([]domain.Group, error)           { return nil, nil }
func (idleDirectory) ListLicenseSkus(context.Context) ([]domain.LicenseSku, error) { return nil, nil }
func (idleDirectory) ListSites(context.Context) ([]domain.Site, error)             { return nil, nil }
func (idleDirectory) Disconnect(context.Context) error                             { return nil }

func newIdleSession() driving.SessionManager {
	return services.NewSessionManager(idleDirectory{}, nil, services.DefaultSessionConfig())
}

func TestRun_RequiresSession(t *testing.T) {
	err := Run(context.Background(), Options{})

	assert.Error(t, err)
}

func TestRun_QuitsOnKey(t *testing.T) {
	var in, out bytes.Buffer
	in.WriteString("q")

	err := Run(context.Background(), Options{
		Session: newIdleSession(),
		ProgramOptions: []tea.ProgramOption{
			tea.WithInput(&in),
			tea.WithOutput(&out),
		},
	})

	require.NoError(t, err)
}
