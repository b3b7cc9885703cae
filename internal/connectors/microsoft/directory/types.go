package directory

import (
	"slices"
	"strings"

	"github.com/custodia-labs/tenantctl/internal/core/domain"
)

// Graph resource shapes. Only the selected properties are decoded.

type verifiedDomain struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
	IsInitial bool   `json:"isInitial"`
}

type graphOrganization struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"displayName"`
	VerifiedDomains []verifiedDomain `json:"verifiedDomains"`
}

func (o graphOrganization) defaultDomain() string {
	for _, d := range o.VerifiedDomains {
		if d.IsDefault {
			return d.Name
		}
	}
	for _, d := range o.VerifiedDomains {
		if d.IsInitial {
			return d.Name
		}
	}
	return ""
}

func (o graphOrganization) hasDomain(name string) bool {
	return slices.ContainsFunc(o.VerifiedDomains, func(d verifiedDomain) bool {
		return strings.EqualFold(d.Name, name)
	})
}

type graphDomain struct {
	ID         string `json:"id"`
	IsDefault  bool   `json:"isDefault"`
	IsInitial  bool   `json:"isInitial"`
	IsVerified bool   `json:"isVerified"`
}

func (d graphDomain) toDomain() domain.AcceptedDomain {
	return domain.AcceptedDomain{
		Name:      d.ID,
		IsDefault: d.IsDefault,
		IsInitial: d.IsInitial,
		Verified:  d.IsVerified,
	}
}

type graphUser struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Mail              string `json:"mail"`
	AccountEnabled    bool   `json:"accountEnabled"`
	UserType          string `json:"userType"`
	AssignedLicenses  []struct {
		SkuID string `json:"skuId"`
	} `json:"assignedLicenses"`
}

func (u graphUser) toDomain() domain.User {
	out := domain.User{
		ID:                u.ID,
		DisplayName:       u.DisplayName,
		UserPrincipalName: u.UserPrincipalName,
		Mail:              u.Mail,
		AccountEnabled:    u.AccountEnabled,
		UserType:          u.UserType,
	}
	for _, l := range u.AssignedLicenses {
		out.LicenseSkuIDs = append(out.LicenseSkuIDs, l.SkuID)
	}
	return out
}

type graphGroup struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"displayName"`
	Mail            string   `json:"mail"`
	MailEnabled     bool     `json:"mailEnabled"`
	SecurityEnabled bool     `json:"securityEnabled"`
	GroupTypes      []string `json:"groupTypes"`
}

func (g graphGroup) toDomain() domain.Group {
	return domain.Group{
		ID:              g.ID,
		DisplayName:     g.DisplayName,
		Mail:            g.Mail,
		MailEnabled:     g.MailEnabled,
		SecurityEnabled: g.SecurityEnabled,
		Unified:         slices.Contains(g.GroupTypes, "Unified"),
	}
}

type graphSku struct {
	SkuID         string `json:"skuId"`
	SkuPartNumber string `json:"skuPartNumber"`
	ConsumedUnits int    `json:"consumedUnits"`
	PrepaidUnits  struct {
		Enabled int `json:"enabled"`
	} `json:"prepaidUnits"`
}

func (s graphSku) toDomain() domain.LicenseSku {
	return domain.LicenseSku{
		SkuID:         s.SkuID,
		SkuPartNumber: s.SkuPartNumber,
		Enabled:       s.PrepaidUnits.Enabled,
		Consumed:      s.ConsumedUnits,
	}
}

type graphSite struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

func (s graphSite) toDomain() domain.Site {
	name := s.DisplayName
	if name == "" {
		name = s.Name
	}
	return domain.Site{ID: s.ID, DisplayName: name, WebURL: s.WebURL}
}

func convert[G any, D any](in []G, fn func(G) D) []D {
	out := make([]D, 0, len(in))
	for _, g := range in {
		out = append(out, fn(g))
	}
	return out
}
