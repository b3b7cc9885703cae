package domain

import "time"

// Collection names one cached entity collection.
type Collection string

// Cache collections.
const (
	CollectionDomains            Collection = "domains"
	CollectionUsers              Collection = "users"
	CollectionGroups             Collection = "groups"
	CollectionSharedMailboxes    Collection = "shared-mailboxes"
	CollectionDistributionLists  Collection = "distribution-lists"
	CollectionMailSecurityGroups Collection = "mail-security-groups"
	CollectionLicenseSkus        Collection = "licenses"
	CollectionSites              Collection = "sites"
)

// AllCollections returns every collection in display order.
func AllCollections() []Collection {
	return []Collection{
		CollectionDomains,
		CollectionUsers,
		CollectionGroups,
		CollectionSharedMailboxes,
		CollectionDistributionLists,
		CollectionMailSecurityGroups,
		CollectionLicenseSkus,
		CollectionSites,
	}
}

// ParseCollection resolves a collection name. Returns false for unknown names.
func ParseCollection(name string) (Collection, bool) {
	for _, c := range AllCollections() {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// DataSource tags where discovered data came from.
type DataSource string

const (
	// DataSourceLive means the data was read from the remote service.
	DataSourceLive DataSource = "live"
	// DataSourcePartial means some collections could not be read.
	DataSourcePartial DataSource = "partial"
	// DataSourceFallback means the remote read failed and the collection is left empty.
	DataSourceFallback DataSource = "fallback"
)

// DiscoveryResult summarises one discovery run.
type DiscoveryResult struct {
	TenantID string
	Counts   map[Collection]int
	Sources  map[Collection]DataSource
	// DataSource is live when every collection is live, fallback when none is, partial otherwise.
	DataSource DataSource
	Warnings   []string
	StartedAt  time.Time
	Duration   time.Duration
}

// Total returns the number of cached objects across all collections.
func (r DiscoveryResult) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Summarise computes the overall DataSource from the per-collection sources.
func Summarise(sources map[Collection]DataSource) DataSource {
	live, fallback := 0, 0
	for _, s := range sources {
		switch s {
		case DataSourceLive:
			live++
		default:
			fallback++
		}
	}
	switch {
	case fallback == 0:
		return DataSourceLive
	case live == 0:
		return DataSourceFallback
	default:
		return DataSourcePartial
	}
}
