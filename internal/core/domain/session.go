package domain

import "time"

// SessionState is the lifecycle state of the tenant session.
type SessionState int

const (
	// StateDisconnected means no tenant session exists and the cache is empty.
	StateDisconnected SessionState = iota
	// StateConnecting means authentication and discovery are in progress.
	StateConnecting
	// StateConnected means a tenant session is established and the cache belongs to it.
	StateConnected
	// StateDisconnecting means the session is being torn down.
	StateDisconnecting
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// ConnectionState describes the current tenant session.
// TenantID is non-empty if and only if DirectoryConnected or MailConnected is true.
type ConnectionState struct {
	State              SessionState
	DirectoryConnected bool
	MailConnected      bool
	// TenantID is the tenant GUID or primary domain of the connected organisation.
	TenantID string
	// TenantName is the organisation display name, when known.
	TenantName string
	// DefaultDomain is the tenant's default accepted domain, when known.
	DefaultDomain string
	// Principal is the signed-in user principal name or application id.
	Principal   string
	ConnectedAt time.Time
}

// IsConnected reports whether any remote session is established.
func (c ConnectionState) IsConnected() bool {
	return c.DirectoryConnected || c.MailConnected
}

// TenantIdentity is what the directory service learns about the tenant during authentication.
type TenantIdentity struct {
	TenantID      string
	DisplayName   string
	DefaultDomain string
	Principal     string
}

// AccessToken is a bearer token obtained through a credential prompt.
type AccessToken struct {
	Token     string
	ExpiresOn time.Time
}
