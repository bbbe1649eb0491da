package orchestrator

import (
	"fmt"
	"net/netip"
	"strings"
)

// Scope restricts which targets may be scanned. An empty Scope allows any target.
type Scope struct {
	// AllowedDomains are exact domains ("example.com") or single-label
	// wildcards ("*.example.com").
	AllowedDomains []string

	// AllowedCIDRs are prefixes a network scan target must fall within.
	AllowedCIDRs []string
}

// ValidateDomain returns nil if target is in scope.
func (s *Scope) ValidateDomain(target string) error {
	if s == nil || len(s.AllowedDomains) == 0 {
		return nil
	}
	for _, pattern := range s.AllowedDomains {
		if domainMatches(target, pattern) {
			return nil
		}
	}
	return fmt.Errorf("target %q is outside allowed scope (domains: %s)",
		target, strings.Join(s.AllowedDomains, ", "))
}

// ValidateIP returns nil if ip falls within an allowed prefix.
func (s *Scope) ValidateIP(ip netip.Addr) error {
	if s == nil || len(s.AllowedCIDRs) == 0 {
		return nil
	}
	for _, cidr := range s.AllowedCIDRs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			continue
		}
		if prefix.Contains(ip.Unmap()) {
			return nil
		}
	}
	return fmt.Errorf("IP %q is outside allowed CIDR scope (%s)",
		ip, strings.Join(s.AllowedCIDRs, ", "))
}

// domainMatches compares case-insensitively.
//
//   - "*.example.com" matches "foo.example.com" but not "example.com" or
//     "foo.bar.example.com".
//   - "example.com" matches only "example.com".
func domainMatches(target, pattern string) bool {
	target = strings.ToLower(strings.TrimSuffix(target, "."))
	pattern = strings.ToLower(pattern)

	if !strings.HasPrefix(pattern, "*.") {
		return target == pattern
	}

	suffix := pattern[2:]
	if !strings.HasSuffix(target, "."+suffix) {
		return false
	}
	label := target[:len(target)-len(suffix)-1]
	return len(label) > 0 && !strings.Contains(label, ".")
}
