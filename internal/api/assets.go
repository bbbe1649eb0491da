package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hakim/asmctl/internal/models"
)

// NewAsset is the body shared by the subdomain, IP and URL create calls;
// Name is sent under the field each endpoint expects.
type NewAsset struct {
	DomainID string
	Name     string
	Tags     []string
}

// NewAssetGroup is the body of POST /assets/asset-groups
type NewAssetGroup struct {
	Name        string           `json:"name"`
	DomainID    string           `json:"domain_id"`
	AssetType   models.AssetType `json:"asset_type"`
	AssetIDs    []string         `json:"asset_ids"`
	Description string           `json:"description,omitempty"`
}

func (c *Client) ListDomains(ctx context.Context) ([]models.Domain, error) {
	return list[models.Domain](ctx, c, call{op: "Fetch domains", method: http.MethodGet, path: "/assets/domain"})
}

// GetDomain fetches one domain including its subdomain references.
func (c *Client) GetDomain(ctx context.Context, id string) (*models.Domain, error) {
	return item[models.Domain](ctx, c, call{
		op:     "Fetch domain",
		method: http.MethodGet,
		path:   "/assets/domain/" + url.PathEscape(id),
	})
}

func (c *Client) CreateDomain(ctx context.Context, name string, tags []string) (*models.Domain, error) {
	return item[models.Domain](ctx, c, call{
		op:     "Create domain",
		method: http.MethodPost,
		path:   "/assets/domain",
		body:   map[string]any{"domain_name": name, "tags": nonNil(tags)},
	})
}

// UpdateDomainTags replaces the tag set of a domain. Tags are the only
// client-side mutation an asset supports.
func (c *Client) UpdateDomainTags(ctx context.Context, id string, tags []string) (*models.Domain, error) {
	return item[models.Domain](ctx, c, call{
		op:     "Update domain",
		method: http.MethodPatch,
		path:   "/assets/domain/" + url.PathEscape(id),
		body:   map[string]any{"tags": nonNil(tags)},
	})
}

func (c *Client) ListSubdomains(ctx context.Context) ([]models.Subdomain, error) {
	return list[models.Subdomain](ctx, c, call{op: "Fetch subdomains", method: http.MethodGet, path: "/subdomain/subdomain"})
}

func (c *Client) CreateSubdomain(ctx context.Context, in NewAsset) (*models.Subdomain, error) {
	return item[models.Subdomain](ctx, c, call{
		op:     "Create subdomain",
		method: http.MethodPost,
		path:   "/subdomain/subdomain",
		body:   map[string]any{"domain_id": in.DomainID, "subdomain_name": in.Name, "tags": nonNil(in.Tags)},
	})
}

func (c *Client) ListIPAddresses(ctx context.Context) ([]models.IPAddress, error) {
	return list[models.IPAddress](ctx, c, call{op: "Fetch IP addresses", method: http.MethodGet, path: "/assets/ip-addresses"})
}

func (c *Client) CreateIPAddress(ctx context.Context, in NewAsset) (*models.IPAddress, error) {
	return item[models.IPAddress](ctx, c, call{
		op:     "Create IP address",
		method: http.MethodPost,
		path:   "/assets/ip-addresses",
		body:   map[string]any{"domain_id": in.DomainID, "ipaddress_name": in.Name, "tags": nonNil(in.Tags)},
	})
}

func (c *Client) ListURLs(ctx context.Context) ([]models.URLAsset, error) {
	return list[models.URLAsset](ctx, c, call{op: "Fetch URLs", method: http.MethodGet, path: "/assets/urls"})
}

func (c *Client) CreateURL(ctx context.Context, in NewAsset) (*models.URLAsset, error) {
	return item[models.URLAsset](ctx, c, call{
		op:     "Create URL",
		method: http.MethodPost,
		path:   "/assets/urls",
		body:   map[string]any{"domain_id": in.DomainID, "url_name": in.Name, "tags": nonNil(in.Tags)},
	})
}

func (c *Client) ListAssetGroups(ctx context.Context) ([]models.AssetGroup, error) {
	return list[models.AssetGroup](ctx, c, call{op: "Fetch asset groups", method: http.MethodGet, path: "/assets/asset-groups"})
}

// CreateAssetGroup posts a group as given. Callers are expected to have
// validated it; see inventory.GroupDraft.
func (c *Client) CreateAssetGroup(ctx context.Context, in NewAssetGroup) (*models.AssetGroup, error) {
	in.AssetIDs = nonNil(in.AssetIDs)
	return item[models.AssetGroup](ctx, c, call{
		op:     "Create asset group",
		method: http.MethodPost,
		path:   "/assets/asset-groups",
		body:   in,
	})
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
