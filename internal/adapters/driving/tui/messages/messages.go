// Package messages defines the tea messages exchanged between TUI views and the
// operator-facing text for session errors.
package messages

import (
	"errors"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// Connected is sent when a connect attempt finishes.
type Connected struct {
	State domain.ConnectionState
	Err   error
}

// Switched is sent when a tenant switch finishes.
type Switched struct {
	Err error
}

// Discovered is sent when a discovery refresh finishes.
type Discovered struct {
	Result domain.DiscoveryResult
	Err    error
}

// DeviceCode carries device code sign-in instructions to display.
type DeviceCode struct {
	Message string
}

// Describe returns a short operator-facing explanation of a session error.
// Errors outside the session taxonomy return their own text.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrPromptCancelled):
		return "Sign-in was cancelled."
	case errors.Is(err, domain.ErrTenantMismatch):
		return "The account signed in to a different tenant than the one requested. " +
			"Check the tenant name and that the account is a member of it."
	case errors.Is(err, domain.ErrAuthentication):
		return "Sign-in failed. Check the account and complete any MFA challenge, then try again."
	case errors.Is(err, domain.ErrPermission):
		return "The signed-in account does not hold an administrative role that can read this tenant."
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "Microsoft 365 could not be reached. Check the network connection and try again."
	case errors.Is(err, domain.ErrBusy):
		return "Another session operation is still running."
	case errors.Is(err, domain.ErrInvalidState):
		return "That action is not available in the current session state."
	default:
		return err.Error()
	}
}
