package inventory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/models"
)

// ErrGroupFull is returned by Toggle when the draft already holds the maximum.
var ErrGroupFull = fmt.Errorf("an asset group holds at most %d assets", models.MaxGroupAssets)

// ValidationError is a client-side rejection; nothing was sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// GroupCreator creates asset groups. api.Client implements it.
type GroupCreator interface {
	CreateAssetGroup(ctx context.Context, in api.NewAssetGroup) (*models.AssetGroup, error)
}

// GroupDraft is an asset group being assembled
type GroupDraft struct {
	Name        string
	DomainID    string
	AssetType   models.AssetType
	AssetIDs    []string
	Description string
}

// NewGroupDraft starts a draft for subdomains, the default asset type.
func NewGroupDraft() *GroupDraft {
	return &GroupDraft{AssetType: models.AssetTypeSubdomain}
}

// SetDomain switches the domain and drops the selection, which belonged to
// the previous domain.
func (d *GroupDraft) SetDomain(id string) {
	if d.DomainID != id {
		d.AssetIDs = nil
	}
	d.DomainID = id
}

// SetAssetType switches the asset type and drops the selection.
func (d *GroupDraft) SetAssetType(t models.AssetType) {
	if d.AssetType != t {
		d.AssetIDs = nil
	}
	d.AssetType = t
}

// Toggle selects id, or deselects it when already selected. Selecting past
// the maximum returns ErrGroupFull and leaves the draft unchanged.
func (d *GroupDraft) Toggle(id string) error {
	if i := slices.Index(d.AssetIDs, id); i >= 0 {
		d.AssetIDs = slices.Delete(d.AssetIDs, i, i+1)
		return nil
	}
	if len(d.AssetIDs) >= models.MaxGroupAssets {
		return ErrGroupFull
	}
	d.AssetIDs = append(d.AssetIDs, id)
	return nil
}

// Candidate is an asset that may be added to a group
type Candidate struct {
	ID   string
	Name string
}

// Candidates lists the loaded assets of type t that belong to domainID.
func (inv *Inventory) Candidates(domainID string, t models.AssetType) []Candidate {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := []Candidate{}
	switch t {
	case models.AssetTypeSubdomain:
		for _, s := range inv.subdomains.Items {
			if s.DomainID == domainID {
				out = append(out, Candidate{ID: s.ID, Name: s.AssetName()})
			}
		}
	case models.AssetTypeIP:
		for _, ip := range inv.ips.Items {
			if ip.DomainID == domainID {
				out = append(out, Candidate{ID: ip.ID, Name: ip.IPAddressName})
			}
		}
	}
	return out
}

// ValidateGroup checks a draft against the loaded inventory: a name and
// domain are required, the asset type must be SUBDOMAIN or IP, and between
// 1 and 5 distinct ids must be chosen from Candidates.
func (inv *Inventory) ValidateGroup(d GroupDraft) error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "Group name is required"}
	}
	if strings.TrimSpace(d.DomainID) == "" {
		return &ValidationError{Field: "domain", Message: "Domain is required"}
	}
	if d.AssetType != models.AssetTypeSubdomain && d.AssetType != models.AssetTypeIP {
		return &ValidationError{Field: "asset_type", Message: fmt.Sprintf("Asset type must be %s or %s", models.AssetTypeSubdomain, models.AssetTypeIP)}
	}
	if len(d.AssetIDs) == 0 {
		return &ValidationError{Field: "asset_ids", Message: "Select at least one asset"}
	}
	if len(d.AssetIDs) > models.MaxGroupAssets {
		return &ValidationError{Field: "asset_ids", Message: fmt.Sprintf("Select at most %d assets", models.MaxGroupAssets)}
	}

	allowed := make(map[string]bool)
	for _, c := range inv.Candidates(d.DomainID, d.AssetType) {
		allowed[c.ID] = true
	}
	seen := make(map[string]bool, len(d.AssetIDs))
	for _, id := range d.AssetIDs {
		if seen[id] {
			return &ValidationError{Field: "asset_ids", Message: fmt.Sprintf("Asset %s selected twice", id)}
		}
		seen[id] = true
		if !allowed[id] {
			return &ValidationError{Field: "asset_ids", Message: fmt.Sprintf("Asset %s is not a %s of the selected domain", id, strings.ToLower(string(d.AssetType)))}
		}
	}
	return nil
}

// CreateGroup validates the draft and, only if it passes, creates the group
// and appends it to the loaded groups.
func (inv *Inventory) CreateGroup(ctx context.Context, creator GroupCreator, d GroupDraft) (*models.AssetGroup, error) {
	if err := inv.ValidateGroup(d); err != nil {
		return nil, err
	}

	group, err := creator.CreateAssetGroup(ctx, api.NewAssetGroup{
		Name:        strings.TrimSpace(d.Name),
		DomainID:    d.DomainID,
		AssetType:   d.AssetType,
		AssetIDs:    slices.Clone(d.AssetIDs),
		Description: strings.TrimSpace(d.Description),
	})
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, errors.New("create asset group returned no group")
	}

	inv.mu.Lock()
	inv.groups.Items = append(inv.groups.Items, *group)
	inv.mu.Unlock()
	return group, nil
}
