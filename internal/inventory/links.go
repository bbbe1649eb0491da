package inventory

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DomainParam is the query parameter that opens a domain's detail view.
const DomainParam = "domain"

// DomainLink returns base with ?domain=<id> set, keeping any other parameters.
func DomainLink(base, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", errors.New("domain id is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing link base: %w", err)
	}
	q := u.Query()
	q.Set(DomainParam, id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseDomainLink extracts the domain id from a link produced by DomainLink.
// A bare query string ("?domain=42" or "domain=42") is accepted too.
func ParseDomainLink(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	var q url.Values
	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "/") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false
		}
		q = u.Query()
	} else {
		parsed, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
		if err != nil {
			return "", false
		}
		q = parsed
	}
	id := strings.TrimSpace(q.Get(DomainParam))
	return id, id != ""
}
