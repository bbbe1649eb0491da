// Package inventory keeps the client-side copies of the asset collections
// and the filtering, paging and grouping logic built on top of them.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/hakim/asmctl/internal/models"
)

// Source fetches the asset collections. api.Client implements it.
type Source interface {
	ListDomains(ctx context.Context) ([]models.Domain, error)
	ListSubdomains(ctx context.Context) ([]models.Subdomain, error)
	ListIPAddresses(ctx context.Context) ([]models.IPAddress, error)
	ListURLs(ctx context.Context) ([]models.URLAsset, error)
	ListAssetGroups(ctx context.Context) ([]models.AssetGroup, error)
}

// Kind names one of the collections
type Kind string

const (
	KindDomains    Kind = "domains"
	KindSubdomains Kind = "subdomains"
	KindIPs        Kind = "ip addresses"
	KindURLs       Kind = "urls"
	KindGroups     Kind = "asset groups"
)

// Kinds lists every collection in display order.
var Kinds = []Kind{KindDomains, KindSubdomains, KindIPs, KindURLs, KindGroups}

// Collection is one independently loaded slot. Items survive a failed
// reload; Err reports the most recent failure.
type Collection[T any] struct {
	Items    []T
	Loading  bool
	Err      error
	LoadedAt time.Time
}

func (c Collection[T]) clone() Collection[T] {
	c.Items = slices.Clone(c.Items)
	return c
}

// Inventory holds the five collections. Each slot is written only by its
// own load path; a failure in one never touches the others.
type Inventory struct {
	src    Source
	logger *zap.SugaredLogger
	now    func() time.Time

	mu         sync.RWMutex
	domains    Collection[models.Domain]
	subdomains Collection[models.Subdomain]
	ips        Collection[models.IPAddress]
	urls       Collection[models.URLAsset]
	groups     Collection[models.AssetGroup]
}

// New creates an empty inventory backed by src
func New(src Source, logger *zap.SugaredLogger) *Inventory {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Inventory{src: src, logger: logger, now: time.Now}
}

// LoadAll fetches every collection concurrently and waits for all of them.
// The returned error joins the per-collection failures; successful
// collections are updated regardless.
func (inv *Inventory) LoadAll(ctx context.Context) error {
	var wg conc.WaitGroup
	errs := make([]error, len(Kinds))
	for i, kind := range Kinds {
		wg.Go(func() {
			errs[i] = inv.Load(ctx, kind)
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Load fetches a single collection.
func (inv *Inventory) Load(ctx context.Context, kind Kind) error {
	switch kind {
	case KindDomains:
		return load(ctx, inv, kind, &inv.domains, inv.src.ListDomains)
	case KindSubdomains:
		return load(ctx, inv, kind, &inv.subdomains, inv.src.ListSubdomains)
	case KindIPs:
		return load(ctx, inv, kind, &inv.ips, inv.src.ListIPAddresses)
	case KindURLs:
		return load(ctx, inv, kind, &inv.urls, inv.src.ListURLs)
	case KindGroups:
		return load(ctx, inv, kind, &inv.groups, inv.src.ListAssetGroups)
	default:
		return fmt.Errorf("unknown collection %q", kind)
	}
}

func load[T any](ctx context.Context, inv *Inventory, kind Kind, slot *Collection[T], fetch func(context.Context) ([]T, error)) error {
	inv.mu.Lock()
	slot.Loading = true
	inv.mu.Unlock()

	items, err := fetch(ctx)

	inv.mu.Lock()
	defer inv.mu.Unlock()
	slot.Loading = false
	if err != nil {
		slot.Err = err
		inv.logger.Warnw("Collection load failed", "collection", kind, "error", err)
		return fmt.Errorf("loading %s: %w", kind, err)
	}
	if items == nil {
		items = []T{}
	}
	slot.Items = items
	slot.Err = nil
	slot.LoadedAt = inv.now()
	inv.logger.Debugw("Collection loaded", "collection", kind, "count", len(items))
	return nil
}

func (inv *Inventory) Domains() Collection[models.Domain] {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.domains.clone()
}

func (inv *Inventory) Subdomains() Collection[models.Subdomain] {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.subdomains.clone()
}

func (inv *Inventory) IPAddresses() Collection[models.IPAddress] {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.ips.clone()
}

func (inv *Inventory) URLs() Collection[models.URLAsset] {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.urls.clone()
}

func (inv *Inventory) Groups() Collection[models.AssetGroup] {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.groups.clone()
}

// DomainByID looks up a loaded domain.
func (inv *Inventory) DomainByID(id string) (models.Domain, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	for _, d := range inv.domains.Items {
		if d.ID == id {
			return d, true
		}
	}
	return models.Domain{}, false
}

// DomainNames returns the loaded domain names in list order, skipping blanks.
func (inv *Inventory) DomainNames() []string {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	names := make([]string, 0, len(inv.domains.Items))
	for _, d := range inv.domains.Items {
		if d.DomainName != "" {
			names = append(names, d.DomainName)
		}
	}
	return names
}

// Summary is the dashboard's headline counts
type Summary struct {
	Domains     int
	Subdomains  int
	IPAddresses int
	URLs        int
	Groups      int
	Active      int
	Inactive    int
}

// Total counts every asset except groups.
func (s Summary) Total() int {
	return s.Domains + s.Subdomains + s.IPAddresses + s.URLs
}

// Summary counts the loaded assets. Subdomains are the larger of the
// subdomain collection and the references embedded in domain records, since
// older backends only return the latter.
func (inv *Inventory) Summary() Summary {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	nested := 0
	for _, d := range inv.domains.Items {
		nested += len(d.Subdomains)
	}

	s := Summary{
		Domains:     len(inv.domains.Items),
		Subdomains:  max(len(inv.subdomains.Items), nested),
		IPAddresses: len(inv.ips.Items),
		URLs:        len(inv.urls.Items),
		Groups:      len(inv.groups.Items),
	}

	count := func(active bool) {
		if active {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	for _, d := range inv.domains.Items {
		count(d.Active())
	}
	for _, a := range inv.subdomains.Items {
		count(a.Active())
	}
	for _, a := range inv.ips.Items {
		count(a.Active())
	}
	for _, a := range inv.urls.Items {
		count(a.Active())
	}
	return s
}
