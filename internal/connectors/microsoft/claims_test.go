package microsoft

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// signTestToken builds an access token for tests. The signing key is irrelevant
// because claims are read unverified.
func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func TestParseClaims(t *testing.T) {
	tests := []struct {
		name      string
		claims    jwt.MapClaims
		principal string
		app       bool
	}{
		{
			name: "delegated user token",
			claims: jwt.MapClaims{
				"tid":  "0d3c2f71-0000-4000-8000-000000000001",
				"upn":  "admin@contoso.com",
				"wids": []string{RoleGlobalAdministrator},
			},
			principal: "admin@contoso.com",
		},
		{
			name: "preferred username when upn missing",
			claims: jwt.MapClaims{
				"tid":                "0d3c2f71-0000-4000-8000-000000000001",
				"preferred_username": "guest@fabrikam.com",
			},
			principal: "guest@fabrikam.com",
		},
		{
			name: "application token",
			claims: jwt.MapClaims{
				"tid":   "0d3c2f71-0000-4000-8000-000000000001",
				"appid": "11111111-2222-3333-4444-555555555555",
				"idtyp": "app",
				"roles": []string{"Directory.Read.All"},
			},
			principal: "11111111-2222-3333-4444-555555555555",
			app:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseClaims(signTestToken(t, tt.claims))

			require.NoError(t, err)
			assert.Equal(t, "0d3c2f71-0000-4000-8000-000000000001", c.TenantID)
			assert.Equal(t, tt.principal, c.Principal)
			assert.Equal(t, tt.app, c.App)
		})
	}
}

func TestParseClaims_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "not a jwt", token: "opaque-token"},
		{name: "missing tenant", token: signTestToken(t, jwt.MapClaims{"upn": "admin@contoso.com"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseClaims(tt.token)

			assert.ErrorIs(t, err, domain.ErrAuthentication)
		})
	}
}

func TestClaims_RequireRole(t *testing.T) {
	tests := []struct {
		name     string
		claims   Claims
		required []string
		allowed  bool
	}{
		{
			name:     "directory role present",
			claims:   Claims{DirectoryRoles: []string{"other", RoleUserAdministrator}},
			required: DefaultRequiredRoles,
			allowed:  true,
		},
		{
			name:     "app permission present, case insensitive",
			claims:   Claims{AppRoles: []string{"directory.read.all"}},
			required: DefaultRequiredRoles,
			allowed:  true,
		},
		{
			name:     "no roles",
			claims:   Claims{Principal: "user@contoso.com"},
			required: DefaultRequiredRoles,
			allowed:  false,
		},
		{
			name:     "wrong role",
			claims:   Claims{DirectoryRoles: []string{RoleExchangeAdministrator}},
			required: []string{RoleGlobalAdministrator},
			allowed:  false,
		},
		{
			name:     "gate disabled",
			claims:   Claims{},
			required: nil,
			allowed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.claims.RequireRole(tt.required)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrMissingRole)
			assert.ErrorIs(t, err, domain.ErrPermission)
		})
	}
}
