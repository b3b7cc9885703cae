package services

import (
	"slices"
	"sync"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
	"github.com/custodia-labs/tenantctl/internal/core/ports/driving"
)

// Ensure TenantCache implements the read-only view.
var _ driving.TenantCacheView = (*TenantCache)(nil)

// collection is an insertion-ordered set of entities keyed by Key().
// A repeated key replaces the earlier entity in place.
type collection[T domain.Keyed] struct {
	order []string
	items map[string]T
}

func (c *collection[T]) replace(items []T) {
	c.order = make([]string, 0, len(items))
	c.items = make(map[string]T, len(items))
	for _, item := range items {
		key := item.Key()
		if _, exists := c.items[key]; !exists {
			c.order = append(c.order, key)
		}
		c.items[key] = item
	}
}

func (c *collection[T]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

func (c *collection[T]) len() int {
	return len(c.order)
}

func (c *collection[T]) reset() {
	c.order = nil
	c.items = nil
}

// cacheSnapshot is a fully discovered set of collections waiting to be committed.
type cacheSnapshot struct {
	domains            []domain.AcceptedDomain
	users              []domain.User
	groups             []domain.Group
	sharedMailboxes    []domain.SharedMailbox
	distributionLists  []domain.DistributionList
	mailSecurityGroups []domain.MailSecurityGroup
	licenseSkus        []domain.LicenseSku
	sites              []domain.Site
}

// TenantCache holds the directory objects discovered for the connected tenant.
// Only the SessionManager mutates it; front ends read it through driving.TenantCacheView.
// The tenant id and every collection change together under one lock.
type TenantCache struct {
	mu       sync.RWMutex
	tenantID string

	domains            collection[domain.AcceptedDomain]
	users              collection[domain.User]
	groups             collection[domain.Group]
	sharedMailboxes    collection[domain.SharedMailbox]
	distributionLists  collection[domain.DistributionList]
	mailSecurityGroups collection[domain.MailSecurityGroup]
	licenseSkus        collection[domain.LicenseSku]
	sites              collection[domain.Site]
}

// NewTenantCache creates an empty cache.
func NewTenantCache() *TenantCache {
	return &TenantCache{}
}

// commit replaces every collection with the snapshot and tags it with tenantID.
func (c *TenantCache) commit(tenantID string, snap cacheSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tenantID = tenantID
	c.domains.replace(snap.domains)
	c.users.replace(snap.users)
	c.groups.replace(snap.groups)
	c.sharedMailboxes.replace(snap.sharedMailboxes)
	c.distributionLists.replace(snap.distributionLists)
	c.mailSecurityGroups.replace(snap.mailSecurityGroups)
	c.licenseSkus.replace(snap.licenseSkus)
	c.sites.replace(snap.sites)
}

// clone returns an independent copy of the cache.
func (c *TenantCache) clone() *TenantCache {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users := c.users.list()
	for i := range users {
		users[i].LicenseSkuIDs = slices.Clone(users[i].LicenseSkuIDs)
	}
	cp := NewTenantCache()
	cp.commit(c.tenantID, cacheSnapshot{
		domains:            c.domains.list(),
		users:              users,
		groups:             c.groups.list(),
		sharedMailboxes:    c.sharedMailboxes.list(),
		distributionLists:  c.distributionLists.list(),
		mailSecurityGroups: c.mailSecurityGroups.list(),
		licenseSkus:        c.licenseSkus.list(),
		sites:              c.sites.list(),
	})
	return cp
}

// reset empties every collection and clears the tenant tag.
func (c *TenantCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tenantID = ""
	c.domains.reset()
	c.users.reset()
	c.groups.reset()
	c.sharedMailboxes.reset()
	c.distributionLists.reset()
	c.mailSecurityGroups.reset()
	c.licenseSkus.reset()
	c.sites.reset()
}

// TenantID returns the tenant the cached data belongs to.
func (c *TenantCache) TenantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tenantID
}

// Domains returns the accepted domains in discovery order.
func (c *TenantCache) Domains() []domain.AcceptedDomain {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.domains.list()
}

// Users returns the directory users in discovery order.
func (c *TenantCache) Users() []domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()

	users := c.users.list()
	for i := range users {
		users[i].LicenseSkuIDs = slices.Clone(users[i].LicenseSkuIDs)
	}
	return users
}

// Groups returns the directory groups in discovery order.
func (c *TenantCache) Groups() []domain.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.groups.list()
}

// SharedMailboxes returns the shared mailboxes in discovery order.
func (c *TenantCache) SharedMailboxes() []domain.SharedMailbox {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sharedMailboxes.list()
}

// DistributionLists returns the distribution lists in discovery order.
func (c *TenantCache) DistributionLists() []domain.DistributionList {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.distributionLists.list()
}

// MailSecurityGroups returns the mail-enabled security groups in discovery order.
func (c *TenantCache) MailSecurityGroups() []domain.MailSecurityGroup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mailSecurityGroups.list()
}

// LicenseSkus returns the subscribed license SKUs in discovery order.
func (c *TenantCache) LicenseSkus() []domain.LicenseSku {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.licenseSkus.list()
}

// Sites returns the SharePoint sites in discovery order.
func (c *TenantCache) Sites() []domain.Site {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sites.list()
}

// Count returns the size of one collection. Unknown collections count as zero.
func (c *TenantCache) Count(col domain.Collection) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.countLocked(col)
}

// Counts returns the size of every collection.
func (c *TenantCache) Counts() map[domain.Collection]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[domain.Collection]int, len(domain.AllCollections()))
	for _, col := range domain.AllCollections() {
		counts[col] = c.countLocked(col)
	}
	return counts
}

// IsEmpty reports whether every collection is empty.
func (c *TenantCache) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, col := range domain.AllCollections() {
		if c.countLocked(col) > 0 {
			return false
		}
	}
	return true
}

func (c *TenantCache) countLocked(col domain.Collection) int {
	switch col {
	case domain.CollectionDomains:
		return c.domains.len()
	case domain.CollectionUsers:
		return c.users.len()
	case domain.CollectionGroups:
		return c.groups.len()
	case domain.CollectionSharedMailboxes:
		return c.sharedMailboxes.len()
	case domain.CollectionDistributionLists:
		return c.distributionLists.len()
	case domain.CollectionMailSecurityGroups:
		return c.mailSecurityGroups.len()
	case domain.CollectionLicenseSkus:
		return c.licenseSkus.len()
	case domain.CollectionSites:
		return c.sites.len()
	default:
		return 0
	}
}

