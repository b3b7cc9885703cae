package domain

// Keyed is implemented by every cached directory object.
// Key must be stable for the lifetime of the object within its tenant.
type Keyed interface {
	Key() string
}

// AcceptedDomain is a domain registered to the tenant.
type AcceptedDomain struct {
	Name      string
	IsDefault bool
	IsInitial bool
	Verified  bool
}

// Key returns the domain name.
func (d AcceptedDomain) Key() string { return d.Name }

// User is a directory user.
type User struct {
	ID                string
	DisplayName       string
	UserPrincipalName string
	Mail              string
	AccountEnabled    bool
	UserType          string
	LicenseSkuIDs     []string
}

// Key returns the directory object id.
func (u User) Key() string { return u.ID }

// Group is a directory group.
type Group struct {
	ID              string
	DisplayName     string
	Mail            string
	MailEnabled     bool
	SecurityEnabled bool
	// Unified is true for Microsoft 365 groups.
	Unified bool
}

// Key returns the directory object id.
func (g Group) Key() string { return g.ID }

// SharedMailbox is an Exchange shared mailbox.
type SharedMailbox struct {
	ID                 string
	DisplayName        string
	Alias              string
	PrimarySmtpAddress string
}

// Key returns the Exchange object id.
func (m SharedMailbox) Key() string { return m.ID }

// DistributionList is a mail-enabled distribution group.
type DistributionList struct {
	ID                 string
	DisplayName        string
	Alias              string
	PrimarySmtpAddress string
}

// Key returns the Exchange object id.
func (d DistributionList) Key() string { return d.ID }

// MailSecurityGroup is a mail-enabled security group.
type MailSecurityGroup struct {
	ID                 string
	DisplayName        string
	Alias              string
	PrimarySmtpAddress string
}

// Key returns the Exchange object id.
func (g MailSecurityGroup) Key() string { return g.ID }

// LicenseSku is a license SKU subscribed by the tenant.
type LicenseSku struct {
	SkuID         string
	SkuPartNumber string
	Enabled       int
	Consumed      int
}

// Key returns the SKU id.
func (l LicenseSku) Key() string { return l.SkuID }

// Available returns the number of unassigned licenses.
func (l LicenseSku) Available() int {
	if l.Consumed >= l.Enabled {
		return 0
	}
	return l.Enabled - l.Consumed
}

// Site is a SharePoint site.
type Site struct {
	ID          string
	DisplayName string
	WebURL      string
}

// Key returns the site id.
func (s Site) Key() string { return s.ID }
