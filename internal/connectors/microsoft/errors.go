package microsoft

import (
	"fmt"
	"net/http"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// Error types for Microsoft Graph and Exchange Online responses.
// Each one wraps the domain error the session manager classifies on.
var (
	// ErrUnauthorised indicates the access token is invalid or expired.
	ErrUnauthorised = fmt.Errorf("microsoft: unauthorised: %w", domain.ErrAuthentication)

	// ErrForbidden indicates the principal lacks permission for the requested resource.
	ErrForbidden = fmt.Errorf("microsoft: forbidden: %w", domain.ErrPermission)

	// ErrMissingRole indicates the token carries none of the required administrative roles.
	ErrMissingRole = fmt.Errorf("microsoft: required administrative role not present: %w", domain.ErrPermission)

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = fmt.Errorf("microsoft: not found: %w", domain.ErrNotFound)

	// ErrRateLimited indicates the request was throttled.
	ErrRateLimited = fmt.Errorf("microsoft: rate limited: %w", domain.ErrServiceUnavailable)

	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = fmt.Errorf("microsoft: bad request")

	// ErrServerError indicates a server-side error.
	ErrServerError = fmt.Errorf("microsoft: server error: %w", domain.ErrServiceUnavailable)

	// ErrUnreachable indicates the request never produced a response.
	ErrUnreachable = fmt.Errorf("microsoft: service unreachable: %w", domain.ErrServiceUnavailable)

	// ErrUnexpectedStatus indicates a non-success status with no specific mapping.
	ErrUnexpectedStatus = fmt.Errorf("microsoft: unexpected status")

	// ErrNotConnected indicates a list call was made before Authenticate succeeded.
	ErrNotConnected = fmt.Errorf("microsoft: not connected: %w", domain.ErrInvalidState)
)

// WrapError converts an HTTP status code to an appropriate error.
// Success codes return nil.
func WrapError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorised
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= 500 {
			return ErrServerError
		}
		if statusCode >= 400 {
			return ErrUnexpectedStatus
		}
		return nil
	}
}

// IsRateLimited checks if the status code indicates rate limiting.
func IsRateLimited(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

