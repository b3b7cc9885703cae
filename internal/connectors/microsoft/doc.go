// Package microsoft provides the shared plumbing for talking to Microsoft 365
// tenant administration APIs.
//
// This package provides:
//   - Credential prompts backed by azidentity (browser, device code, client secret, az CLI)
//   - A bridge from credential prompts to oauth2 bearer-token HTTP clients
//   - Access token claim parsing and the administrative role gate
//   - A paging JSON client with rate limiting
//   - Error handling that maps HTTP status codes onto the session error taxonomy
//
// The directory and exchange subpackages build the DirectoryService and
// MailService on top of it.
//
// # Paging
//
// Graph and the Exchange admin API both return OData collections:
//
//	{"value": [...], "@odata.nextLink": "https://..."}
//
// GetAll and PostAll follow nextLink until it is absent.
//
// # Status Mapping
//
//   - 401: ErrUnauthorised (domain.ErrAuthentication)
//   - 403: ErrForbidden (domain.ErrPermission)
//   - 404: ErrNotFound
//   - 429, 5xx, transport failures: domain.ErrServiceUnavailable
//
// A 429 also pauses the service's RateLimiter for the Retry-After period.
//
// # Rate Limits
//
// Microsoft Graph allows approximately 10,000 requests per 10 minutes per app.
// This package implements conservative rate limiting to avoid hitting quotas.
package microsoft
