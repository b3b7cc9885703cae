package domain

// ServiceKind identifies one of the two remote services a tenant session talks to.
type ServiceKind string

const (
	// ServiceDirectory is the identity/directory service (users, groups, domains, licenses, sites).
	ServiceDirectory ServiceKind = "directory"
	// ServiceMail is the mailbox/groups service (shared mailboxes, distribution lists, mail-enabled security groups).
	ServiceMail ServiceKind = "mail"
)

// Collections returns the cache collections populated from this service, in discovery order.
func (k ServiceKind) Collections() []Collection {
	switch k {
	case ServiceDirectory:
		return []Collection{
			CollectionDomains, CollectionUsers, CollectionGroups, CollectionLicenseSkus, CollectionSites,
		}
	case ServiceMail:
		return []Collection{
			CollectionSharedMailboxes, CollectionDistributionLists, CollectionMailSecurityGroups,
		}
	default:
		return nil
	}
}
