package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driven"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
	"github.com/custodia-labs/tenantctl/internal/logger"
)

// Ensure SessionManager implements the interface.
var _ driving.SessionManager = (*SessionManager)(nil)

// SessionConfig holds timing limits for session operations.
type SessionConfig struct {
	// TeardownTimeout bounds each remote disconnect during a tenant switch.
	TeardownTimeout time.Duration
	// DiscoveryTimeout bounds a whole discovery run. Zero means no limit beyond the caller's context.
	DiscoveryTimeout time.Duration
}

// DefaultSessionConfig returns the default session limits.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TeardownTimeout:  10 * time.Second,
		DiscoveryTimeout: 5 * time.Minute,
	}
}

// SessionManager owns the single tenant session of the process and its cache.
// At most one of Connect, SwitchTenant and DiscoverTenantData runs at a time;
// a concurrent call fails with domain.ErrBusy.
type SessionManager struct {
	directory driven.DirectoryService
	mail      driven.MailService
	observer  driven.SessionObserver
	config    SessionConfig
	now       func() time.Time

	inFlight atomic.Bool

	mu    sync.RWMutex
	conn  domain.ConnectionState
	last  *domain.DiscoveryResult
	cache *TenantCache
}

// NewSessionManager creates a disconnected session manager.
// mail may be nil, in which case mail collections are always reported as fallback.
func NewSessionManager(
	directory driven.DirectoryService,
	mail driven.MailService,
	cfg SessionConfig,
) *SessionManager {
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = DefaultSessionConfig().TeardownTimeout
	}
	return &SessionManager{
		directory: directory,
		mail:      mail,
		observer:  noopObserver{},
		config:    cfg,
		now:       time.Now,
		cache:     NewTenantCache(),
	}
}

// SetObserver registers a lifecycle observer. Passing nil removes it.
// It may be called while operations are running; they pick up the new observer
// at their next notification.
func (m *SessionManager) SetObserver(o driven.SessionObserver) {
	if o == nil {
		o = noopObserver{}
	}
	m.mu.Lock()
	m.observer = o
	m.mu.Unlock()
}

func (m *SessionManager) notifier() driven.SessionObserver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.observer
}

// GetState returns the current connection state.
func (m *SessionManager) GetState() domain.ConnectionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

// LastDiscovery returns the most recent discovery result of the current session.
func (m *SessionManager) LastDiscovery() (domain.DiscoveryResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return domain.DiscoveryResult{}, false
	}
	return *m.last, true
}

// Cache returns the read-only cache view. It follows later commits; use Snapshot
// to read the cache together with the state it belongs to.
func (m *SessionManager) Cache() driving.TenantCacheView {
	return m.cache
}

// Snapshot returns the connection state, the last discovery and a copy of the
// cache read under one lock. Every cache mutation happens under the same lock,
// so the copy always belongs to the returned state.
func (m *SessionManager) Snapshot() driving.SessionSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := driving.SessionSnapshot{State: m.conn, Cache: m.cache.clone()}
	if m.last != nil {
		last := *m.last
		snap.Discovery = &last
	}
	return snap
}

// Connect authenticates against the directory service (and the mail service when
// configured), runs discovery and commits the result.
func (m *SessionManager) Connect(ctx context.Context, req driving.ConnectRequest) (domain.ConnectionState, error) {
	if req.Prompt == nil {
		return m.GetState(), errors.New("session: connect requires a credential prompt")
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return m.GetState(), domain.ErrBusy
	}
	defer m.inFlight.Store(false)

	m.mu.Lock()
	if m.conn.State != domain.StateDisconnected {
		state := m.conn.State
		m.mu.Unlock()
		return m.GetState(), fmt.Errorf("%w: connect requires %s, session is %s",
			domain.ErrInvalidState, domain.StateDisconnected, state)
	}
	m.conn = domain.ConnectionState{State: domain.StateConnecting}
	m.mu.Unlock()
	m.notifier().StateChanged(domain.StateDisconnected, domain.StateConnecting)

	attempt := uuid.NewString()
	logger.Debug("session[%s]: connecting (tenant hint %q)", attempt, req.TenantHint)

	identity, err := m.directory.Authenticate(ctx, req.Prompt, req.TenantHint)
	if err == nil && identity.TenantID == "" {
		err = fmt.Errorf("%w: directory returned no tenant id", domain.ErrAuthentication)
	}
	if err != nil {
		err = classifyConnectError(ctx, err)
		logger.Warn("session[%s]: directory authentication failed: %v", attempt, err)
		m.abortConnect(ctx)
		m.notifier().ConnectFailed(err)
		return m.GetState(), fmt.Errorf("session: connect: %w", err)
	}
	logger.Info("session[%s]: directory connected to tenant %s as %s", attempt, identity.TenantID, identity.Principal)

	mailConnected := false
	if m.mail != nil {
		if err := m.mail.Authenticate(ctx, req.Prompt, identity); err != nil {
			logger.Warn("session[%s]: mail authentication failed, continuing with directory only: %v", attempt, err)
			m.disconnectService(ctx, domain.ServiceMail, m.mail.Disconnect)
		} else {
			mailConnected = true
		}
	}

	snap, result := m.discover(ctx, identity.TenantID, mailConnected)
	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrPromptCancelled, err)
		logger.Warn("session[%s]: connect cancelled during discovery", attempt)
		m.abortConnect(ctx)
		m.notifier().ConnectFailed(err)
		return m.GetState(), fmt.Errorf("session: connect: %w", err)
	}

	m.mu.Lock()
	m.cache.commit(identity.TenantID, snap)
	result.Counts = m.cache.Counts()
	m.conn = domain.ConnectionState{
		State:              domain.StateConnected,
		DirectoryConnected: true,
		MailConnected:      mailConnected,
		TenantID:           identity.TenantID,
		TenantName:         identity.DisplayName,
		DefaultDomain:      identity.DefaultDomain,
		Principal:          identity.Principal,
		ConnectedAt:        m.now(),
	}
	m.last = &result
	state := m.conn
	m.mu.Unlock()

	m.notifier().StateChanged(domain.StateConnecting, domain.StateConnected)
	m.notifier().DiscoveryCompleted(result)
	logger.Info("session[%s]: connected to %s, %d objects cached (%s)",
		attempt, identity.TenantID, result.Total(), result.DataSource)

	return state, nil
}

// SwitchTenant empties the cache, resets the connection state and tears down
// both remote sessions. It always ends disconnected once started.
func (m *SessionManager) SwitchTenant(ctx context.Context) error {
	if !m.inFlight.CompareAndSwap(false, true) {
		return domain.ErrBusy
	}
	defer m.inFlight.Store(false)

	m.mu.Lock()
	if m.conn.State != domain.StateConnected {
		state := m.conn.State
		m.mu.Unlock()
		return fmt.Errorf("%w: switch requires %s, session is %s",
			domain.ErrInvalidState, domain.StateConnected, state)
	}
	previous := m.conn.TenantID
	m.cache.reset()
	m.last = nil
	m.conn = domain.ConnectionState{State: domain.StateDisconnecting}
	m.mu.Unlock()
	m.notifier().StateChanged(domain.StateConnected, domain.StateDisconnecting)

	logger.Info("session: leaving tenant %s", previous)
	m.teardown(ctx)

	m.mu.Lock()
	m.conn = domain.ConnectionState{State: domain.StateDisconnected}
	m.mu.Unlock()
	m.notifier().StateChanged(domain.StateDisconnecting, domain.StateDisconnected)

	return nil
}

// DiscoverTenantData re-reads every collection for the connected tenant and
// replaces the cache with the result.
func (m *SessionManager) DiscoverTenantData(ctx context.Context) (domain.DiscoveryResult, error) {
	if !m.inFlight.CompareAndSwap(false, true) {
		return domain.DiscoveryResult{}, domain.ErrBusy
	}
	defer m.inFlight.Store(false)

	m.mu.RLock()
	state := m.conn
	m.mu.RUnlock()
	if state.State != domain.StateConnected {
		return domain.DiscoveryResult{}, fmt.Errorf("%w: discovery requires %s, session is %s",
			domain.ErrInvalidState, domain.StateConnected, state.State)
	}

	snap, result := m.discover(ctx, state.TenantID, state.MailConnected)
	if err := ctx.Err(); err != nil {
		return domain.DiscoveryResult{}, fmt.Errorf("session: discovery cancelled: %w", err)
	}

	m.mu.Lock()
	m.cache.commit(state.TenantID, snap)
	result.Counts = m.cache.Counts()
	m.last = &result
	m.mu.Unlock()

	m.notifier().DiscoveryCompleted(result)
	return result, nil
}

// Close ends the session if one is connected.
func (m *SessionManager) Close(ctx context.Context) error {
	if m.GetState().State != domain.StateConnected {
		return nil
	}
	return m.SwitchTenant(ctx)
}

// abortConnect returns a failed connect attempt to Disconnected.
// The cache was never populated, so only remote sessions need dropping.
func (m *SessionManager) abortConnect(ctx context.Context) {
	m.teardown(ctx)

	m.mu.Lock()
	m.conn = domain.ConnectionState{State: domain.StateDisconnected}
	m.mu.Unlock()
	m.notifier().StateChanged(domain.StateConnecting, domain.StateDisconnected)
}

// teardown disconnects both services. Failures and timeouts are logged only.
func (m *SessionManager) teardown(ctx context.Context) {
	m.disconnectService(ctx, domain.ServiceDirectory, m.directory.Disconnect)
	if m.mail != nil {
		m.disconnectService(ctx, domain.ServiceMail, m.mail.Disconnect)
	}
}

// disconnectService runs one disconnect bounded by the teardown timeout.
// A disconnect that ignores its context is abandoned, not awaited.
func (m *SessionManager) disconnectService(
	ctx context.Context, kind domain.ServiceKind, disconnect func(context.Context) error,
) {
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.TeardownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- disconnect(tctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Warn("session: %s teardown failed: %v", kind, err)
		}
	case <-tctx.Done():
		logger.Warn("session: %s teardown timed out after %s", kind, m.config.TeardownTimeout)
	}
}

// discover reads every collection. Collections that fail are left empty and tagged fallback.
func (m *SessionManager) discover(
	ctx context.Context, tenantID string, mailConnected bool,
) (cacheSnapshot, domain.DiscoveryResult) {
	if m.config.DiscoveryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.DiscoveryTimeout)
		defer cancel()
	}

	result := domain.DiscoveryResult{
		TenantID:  tenantID,
		Sources:   make(map[domain.Collection]domain.DataSource, len(domain.AllCollections())),
		StartedAt: m.now(),
	}
	var snap cacheSnapshot

	snap.domains = fetch(ctx, &result, domain.CollectionDomains, m.directory.ListDomains)
	snap.users = fetch(ctx, &result, domain.CollectionUsers, m.directory.ListUsers)
	snap.groups = fetch(ctx, &result, domain.CollectionGroups, m.directory.ListGroups)
	snap.licenseSkus = fetch(ctx, &result, domain.CollectionLicenseSkus, m.directory.ListLicenseSkus)
	snap.sites = fetch(ctx, &result, domain.CollectionSites, m.directory.ListSites)

	if mailConnected {
		snap.sharedMailboxes = fetch(ctx, &result, domain.CollectionSharedMailboxes, m.mail.ListSharedMailboxes)
		snap.distributionLists = fetch(ctx, &result, domain.CollectionDistributionLists, m.mail.ListDistributionLists)
		snap.mailSecurityGroups = fetch(ctx, &result, domain.CollectionMailSecurityGroups, m.mail.ListMailSecurityGroups)
	} else {
		for _, c := range domain.ServiceMail.Collections() {
			result.Sources[c] = domain.DataSourceFallback
		}
		result.Warnings = append(result.Warnings, "mail service not connected; mail collections unavailable")
	}

	result.DataSource = domain.Summarise(result.Sources)
	result.Duration = m.now().Sub(result.StartedAt)
	return snap, result
}

// fetch runs one list call and records its outcome in result.
func fetch[T any](
	ctx context.Context,
	result *domain.DiscoveryResult,
	c domain.Collection,
	list func(context.Context) ([]T, error),
) []T {
	items, err := list(ctx)
	if err != nil {
		logger.Warn("session: discovery of %s failed: %v", c, err)
		result.Sources[c] = domain.DataSourceFallback
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", c, err))
		return nil
	}
	logger.Debug("session: discovered %d %s", len(items), c)
	result.Sources[c] = domain.DataSourceLive
	return items
}

// classifyConnectError maps a cancelled context onto the cancellation error.
func classifyConnectError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrAuthentication) || errors.Is(err, domain.ErrPermission) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", domain.ErrPromptCancelled, err)
	}
	return err
}

// noopObserver is the default observer.
type noopObserver struct{}

func (noopObserver) StateChanged(_, _ domain.SessionState) {}

func (noopObserver) DiscoveryCompleted(_ domain.DiscoveryResult) {}

func (noopObserver) ConnectFailed(_ error) {}
