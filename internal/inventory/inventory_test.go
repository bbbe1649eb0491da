package inventory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/models"
)

type fakeSource struct {
	domains    []models.Domain
	subdomains []models.Subdomain
	ips        []models.IPAddress
	urls       []models.URLAsset
	groups     []models.AssetGroup

	ipErr   error
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeSource) enter() func() {
	n := f.running.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return func() { f.running.Add(-1) }
}

func (f *fakeSource) ListDomains(ctx context.Context) ([]models.Domain, error) {
	defer f.enter()()
	return f.domains, nil
}

func (f *fakeSource) ListSubdomains(ctx context.Context) ([]models.Subdomain, error) {
	defer f.enter()()
	return f.subdomains, nil
}

func (f *fakeSource) ListIPAddresses(ctx context.Context) ([]models.IPAddress, error) {
	defer f.enter()()
	return f.ips, f.ipErr
}

func (f *fakeSource) ListURLs(ctx context.Context) ([]models.URLAsset, error) {
	defer f.enter()()
	return f.urls, nil
}

func (f *fakeSource) ListAssetGroups(ctx context.Context) ([]models.AssetGroup, error) {
	defer f.enter()()
	return f.groups, nil
}

type fakeCreator struct {
	calls int
}

func (c *fakeCreator) CreateAssetGroup(ctx context.Context, in api.NewAssetGroup) (*models.AssetGroup, error) {
	c.calls++
	return &models.AssetGroup{ID: "g1", Name: in.Name, DomainID: in.DomainID, AssetType: in.AssetType, AssetIDs: in.AssetIDs}, nil
}

func boolPtr(b bool) *bool { return &b }

func fixture() *fakeSource {
	return &fakeSource{
		domains: []models.Domain{
			{ID: "d1", DomainName: "example.com", Tags: []string{"Production", "external"}},
			{ID: "d2", DomainName: "corp.io", Tags: []string{"internal"}, Lifecycle: models.Lifecycle{IsArchived: boolPtr(true)}},
		},
		subdomains: []models.Subdomain{
			{ID: "s1", DomainID: "d1", DomainName: "example.com", SubdomainName: "api.example.com"},
			{ID: "s2", DomainID: "d1", DomainName: "example.com", Name: "www.example.com"},
			{ID: "s3", DomainID: "d2", DomainName: "corp.io", SubdomainName: "vpn.corp.io"},
		},
		ips: []models.IPAddress{
			{ID: "i1", DomainID: "d1", DomainName: "example.com", IPAddressName: "203.0.113.10"},
		},
		urls: []models.URLAsset{
			{ID: "u1", DomainID: "d1", DomainName: "example.com", URLName: "https://api.example.com/v1"},
		},
	}
}

func TestLoadAllRunsInParallel(t *testing.T) {
	src := fixture()
	src.delay = 50 * time.Millisecond
	inv := New(src, nil)

	require.NoError(t, inv.LoadAll(context.Background()))
	assert.Greater(t, src.peak.Load(), int32(1), "loads should overlap")
	assert.Len(t, inv.Domains().Items, 2)
	assert.Len(t, inv.Subdomains().Items, 3)
	assert.Len(t, inv.IPAddresses().Items, 1)
	assert.Len(t, inv.URLs().Items, 1)
	assert.Empty(t, inv.Groups().Items)
	assert.NotNil(t, inv.Groups().Items, "empty collections are empty, not missing")
}

func TestLoadEmptyCollectionStaysNonNil(t *testing.T) {
	inv := New(&fakeSource{}, nil)
	assert.Nil(t, inv.Groups().Items, "nothing loaded yet")

	require.NoError(t, inv.Load(context.Background(), KindGroups))
	groups := inv.Groups()
	assert.NotNil(t, groups.Items)
	assert.Empty(t, groups.Items)

	groups.Items = append(groups.Items, models.AssetGroup{ID: "g9"})
	assert.Empty(t, inv.Groups().Items, "callers get a copy")
}

func TestFailedLoadKeepsOtherSlotsAndPreviousItems(t *testing.T) {
	src := fixture()
	inv := New(src, nil)
	require.NoError(t, inv.LoadAll(context.Background()))

	src.ipErr = errors.New("Fetch IP addresses failed: 502 Bad Gateway")
	src.domains = append(src.domains, models.Domain{ID: "d3", DomainName: "new.dev"})

	err := inv.LoadAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ip addresses")

	ips := inv.IPAddresses()
	assert.Error(t, ips.Err)
	assert.Len(t, ips.Items, 1, "previously loaded items survive a failed reload")
	assert.False(t, ips.Loading)

	domains := inv.Domains()
	assert.NoError(t, domains.Err)
	assert.Len(t, domains.Items, 3)
}

func TestSummaryEmptyInventory(t *testing.T) {
	inv := New(&fakeSource{}, nil)
	require.NoError(t, inv.LoadAll(context.Background()))

	s := inv.Summary()
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Groups)
}

func TestSummaryCounts(t *testing.T) {
	src := fixture()
	src.domains[0].Subdomains = []models.SubdomainRef{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	inv := New(src, nil)
	require.NoError(t, inv.LoadAll(context.Background()))

	s := inv.Summary()
	assert.Equal(t, 2, s.Domains)
	assert.Equal(t, 4, s.Subdomains)
	assert.Equal(t, 1, s.IPAddresses)
	assert.Equal(t, 1, s.Inactive)
	assert.Equal(t, 6, s.Active)
}

func TestDomainNames(t *testing.T) {
	inv := New(fixture(), nil)
	require.NoError(t, inv.Load(context.Background(), KindDomains))
	assert.Equal(t, []string{"example.com", "corp.io"}, inv.DomainNames())

	d, ok := inv.DomainByID("d2")
	require.True(t, ok)
	assert.Equal(t, "corp.io", d.DomainName)
}
