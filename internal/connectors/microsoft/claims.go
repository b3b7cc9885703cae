package microsoft

import (
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// Directory role template ids, as carried in the wids claim.
const (
	RoleGlobalAdministrator   = "62e90394-69f5-4237-9190-012177145e10"
	RoleGlobalReader          = "f2ef992c-3afb-46b9-b7cf-a126ee74c451"
	RoleUserAdministrator     = "fe930be7-5e62-47db-91af-98c3a49a38b1"
	RoleExchangeAdministrator = "29232cdf-9323-42fd-ade2-1d097af3e4de"
)

// DefaultRequiredRoles are accepted when no roles are configured.
// Application tokens satisfy the gate with Directory.Read.All instead.
var DefaultRequiredRoles = []string{
	RoleGlobalAdministrator,
	RoleGlobalReader,
	RoleUserAdministrator,
	RoleExchangeAdministrator,
	"Directory.Read.All",
}

// tokenClaims is the subset of an Entra ID access token we read.
type tokenClaims struct {
	jwt.RegisteredClaims
	TenantID          string   `json:"tid"`
	WIDs              []string `json:"wids"`
	Roles             []string `json:"roles"`
	UPN               string   `json:"upn"`
	PreferredUsername string   `json:"preferred_username"`
	AppID             string   `json:"appid"`
	IDType            string   `json:"idtyp"`
}

// Claims describes who an access token was issued to.
type Claims struct {
	TenantID string
	// Principal is the user principal name, or the application id for app-only tokens.
	Principal string
	// DirectoryRoles holds directory role template ids (wids).
	DirectoryRoles []string
	// AppRoles holds application permissions (roles).
	AppRoles []string
	App      bool
}

// ParseClaims reads the claims of an access token without verifying its signature.
// The token comes straight from the identity platform; it is never accepted from a third party.
func ParseClaims(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("%w: parse access token: %w", domain.ErrAuthentication, err)
	}
	if tc.TenantID == "" {
		return Claims{}, fmt.Errorf("%w: access token has no tenant id", domain.ErrAuthentication)
	}

	c := Claims{
		TenantID:       tc.TenantID,
		DirectoryRoles: tc.WIDs,
		AppRoles:       tc.Roles,
		App:            tc.IDType == "app" || (tc.UPN == "" && tc.PreferredUsername == "" && tc.AppID != ""),
	}
	switch {
	case tc.UPN != "":
		c.Principal = tc.UPN
	case tc.PreferredUsername != "":
		c.Principal = tc.PreferredUsername
	case tc.AppID != "":
		c.Principal = tc.AppID
	default:
		c.Principal = tc.Subject
	}
	return c, nil
}

// HasAnyRole reports whether the token carries at least one of required.
// An empty required list always passes.
func (c Claims) HasAnyRole(required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if slices.ContainsFunc(c.DirectoryRoles, func(w string) bool { return strings.EqualFold(w, r) }) ||
			slices.ContainsFunc(c.AppRoles, func(a string) bool { return strings.EqualFold(a, r) }) {
			return true
		}
	}
	return false
}

// RequireRole returns ErrMissingRole unless the token carries one of required.
func (c Claims) RequireRole(required []string) error {
	if c.HasAnyRole(required) {
		return nil
	}
	return fmt.Errorf("%w: %s holds none of %s", ErrMissingRole, c.Principal, strings.Join(required, ", "))
}
