package inventory

import (
	"fmt"
	"strings"

	"github.com/hakim/asmctl/internal/models"
)

// Status is the active/inactive categorical filter
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus accepts "", "all", "active" or "inactive".
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	}
	return "", fmt.Errorf("unknown status filter %q (want all, active or inactive)", s)
}

// Filter combines free-text search with categorical filters. Every
// non-empty criterion must match.
type Filter struct {
	// Query is a case-insensitive substring of the asset or parent domain name.
	Query string
	// Status restricts to active or inactive assets. Empty means all.
	Status Status
	// Label requires a tag equal to it, ignoring case.
	Label string
	// Domain requires the parent domain name to equal it, ignoring case.
	Domain string
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" &&
		(f.Status == "" || f.Status == StatusAll) &&
		strings.TrimSpace(f.Label) == "" &&
		strings.TrimSpace(f.Domain) == ""
}

// Match reports whether a satisfies every criterion.
func (f Filter) Match(a models.Asset) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.AssetName()), q) &&
			!strings.Contains(strings.ToLower(a.ParentDomain()), q) {
			return false
		}
	}

	switch f.Status {
	case StatusActive:
		if !a.Active() {
			return false
		}
	case StatusInactive:
		if a.Active() {
			return false
		}
	}

	if label := strings.TrimSpace(f.Label); label != "" {
		found := false
		for _, t := range a.Labels() {
			if strings.EqualFold(t, label) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if d := strings.TrimSpace(f.Domain); d != "" && !strings.EqualFold(a.ParentDomain(), d) {
		return false
	}
	return true
}

// Apply returns the items matching f, preserving order.
func Apply[T models.Asset](items []T, f Filter) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}
