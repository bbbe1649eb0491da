package models

import "strings"

// Asset is the common view of the four asset collections used for filtering.
type Asset interface {
	AssetID() string
	AssetName() string
	ParentDomain() string
	Labels() []string
	Active() bool
}

// Lifecycle carries the activity flags shared by every asset kind.
// Missing flags default to active and not archived.
type Lifecycle struct {
	IsActive   *bool `json:"is_active,omitempty"`
	IsArchived *bool `json:"is_archived,omitempty"`
}

// Active reports is_active != false && is_archived != true.
func (l Lifecycle) Active() bool {
	if l.IsActive != nil && !*l.IsActive {
		return false
	}
	if l.IsArchived != nil && *l.IsArchived {
		return false
	}
	return true
}

// Audit carries creation metadata
type Audit struct {
	CreatedAt Timestamp `json:"created_at"`
	CreatedBy string    `json:"created_by,omitempty"`
	UpdatedBy string    `json:"updated_by,omitempty"`
}

// Domain represents a root domain in the inventory
type Domain struct {
	ID              string         `json:"id"`
	DomainName      string         `json:"domain_name"`
	ASN             string         `json:"asn,omitempty"`
	Tags            []string       `json:"tags"`
	DiscoverySource string         `json:"discovery_source,omitempty"`
	Subdomains      []SubdomainRef `json:"subdomains,omitempty"`
	Lifecycle
	Audit
}

// SubdomainRef is the abbreviated subdomain embedded in a domain record
type SubdomainRef struct {
	ID            string    `json:"id"`
	SubdomainName string    `json:"subdomain_name"`
	CreatedAt     Timestamp `json:"created_at"`
}

func (d Domain) AssetID() string      { return d.ID }
func (d Domain) AssetName() string    { return d.DomainName }
func (d Domain) ParentDomain() string { return d.DomainName }
func (d Domain) Labels() []string     { return d.Tags }

// Subdomain represents a subdomain asset
type Subdomain struct {
	ID            string   `json:"id"`
	DomainID      string   `json:"domain_id,omitempty"`
	DomainName    string   `json:"domain_name,omitempty"`
	Name          string   `json:"name,omitempty"`
	SubdomainName string   `json:"subdomain_name,omitempty"`
	Tags          []string `json:"tags"`
	Lifecycle
	Audit
}

func (s Subdomain) AssetID() string { return s.ID }

// AssetName prefers subdomain_name and falls back to the legacy name field.
func (s Subdomain) AssetName() string {
	if s.SubdomainName != "" {
		return s.SubdomainName
	}
	return s.Name
}
func (s Subdomain) ParentDomain() string { return s.DomainName }
func (s Subdomain) Labels() []string     { return s.Tags }

// IPAddress represents an IP address asset
type IPAddress struct {
	ID            string   `json:"id"`
	DomainID      string   `json:"domain_id,omitempty"`
	DomainName    string   `json:"domain_name,omitempty"`
	IPAddressName string   `json:"ipaddress_name"`
	Tags          []string `json:"tags"`
	Lifecycle
	Audit
}

func (i IPAddress) AssetID() string      { return i.ID }
func (i IPAddress) AssetName() string    { return i.IPAddressName }
func (i IPAddress) ParentDomain() string { return i.DomainName }
func (i IPAddress) Labels() []string     { return i.Tags }

// URLAsset represents a URL asset
type URLAsset struct {
	ID         string   `json:"id"`
	DomainID   string   `json:"domain_id,omitempty"`
	DomainName string   `json:"domain_name,omitempty"`
	URLName    string   `json:"url_name"`
	Tags       []string `json:"tags"`
	Lifecycle
	Audit
}

func (u URLAsset) AssetID() string      { return u.ID }
func (u URLAsset) AssetName() string    { return u.URLName }
func (u URLAsset) ParentDomain() string { return u.DomainName }
func (u URLAsset) Labels() []string     { return u.Tags }

// AssetType is the kind of asset an asset group bundles
type AssetType string

const (
	AssetTypeSubdomain AssetType = "SUBDOMAIN"
	AssetTypeIP        AssetType = "IP"
)

// MaxGroupAssets is the most assets a single group may hold.
const MaxGroupAssets = 5

// AssetGroup bundles up to MaxGroupAssets assets of one type under one domain
type AssetGroup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DomainID    string    `json:"domain_id"`
	DomainName  string    `json:"domain_name,omitempty"`
	AssetType   AssetType `json:"asset_type"`
	AssetIDs    []string  `json:"asset_ids"`
	Description string    `json:"description,omitempty"`
	CreatedAt   Timestamp `json:"created_at"`
}

func (g AssetGroup) AssetID() string      { return g.ID }
func (g AssetGroup) AssetName() string    { return g.Name }
func (g AssetGroup) ParentDomain() string { return g.DomainName }

// Labels lets the label filter match a group by its asset type or description.
func (g AssetGroup) Labels() []string { return []string{string(g.AssetType), g.Description} }
func (g AssetGroup) Active() bool     { return true }

// ParseTags splits a comma-separated tag list into an ordered set:
// entries are trimmed, empties dropped and later duplicates ignored.
func ParseTags(s string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		t := strings.TrimSpace(part)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}
