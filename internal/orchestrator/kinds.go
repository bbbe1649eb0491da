package orchestrator

import (
	"fmt"
	"net/netip"
	"net/url"
	"slices"
	"strings"

	"github.com/hakim/asmctl/internal/models"
)

// Request is a scan as entered by the user. Which fields matter depends on Type.
type Request struct {
	Name string
	Type models.ScanType

	// Domain is the root domain of a domain-discovery scan.
	Domain string

	// Subdomain is the host of a subdomain scan. ParentDomain is optional;
	// when empty the last two labels of Subdomain are used.
	Subdomain    string
	ParentDomain string

	// TargetIP is the address of a network scan.
	TargetIP string

	// AssetURL is the base URL an API-testing scan runs Endpoints against.
	AssetURL  string
	Endpoints []models.Endpoint
}

// ValidationError is a request rejected before anything was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Kind describes one scan type and how its payload is built
type Kind struct {
	Type        models.ScanType
	Name        string
	Description string

	// Polled kinds run asynchronously and are followed via the scan list.
	// Others return their result inline.
	Polled bool

	payload func(req Request, scope *Scope) (map[string]any, error)
}

var builtinKinds = map[models.ScanType]Kind{
	models.ScanTypeDomainDiscovery: {
		Type:        models.ScanTypeDomainDiscovery,
		Name:        "domain discovery",
		Description: "Enumerate subdomains, IPs and URLs under a root domain",
		Polled:      true,
		payload:     domainPayload,
	},
	models.ScanTypeSubdomain: {
		Type:        models.ScanTypeSubdomain,
		Name:        "subdomain",
		Description: "Deep scan of a single subdomain",
		Polled:      true,
		payload:     subdomainPayload,
	},
	models.ScanTypeNetwork: {
		Type:        models.ScanTypeNetwork,
		Name:        "network",
		Description: "Port and service scan of one IP address",
		Polled:      true,
		payload:     networkPayload,
	},
	models.ScanTypeAPI: {
		Type:        models.ScanTypeAPI,
		Name:        "API testing",
		Description: "Security tests against selected endpoints of an API",
		Polled:      false,
		payload:     apiPayload,
	},
}

// Kinds returns the scan kinds in display order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(builtinKinds))
	for _, t := range []models.ScanType{
		models.ScanTypeDomainDiscovery,
		models.ScanTypeSubdomain,
		models.ScanTypeNetwork,
		models.ScanTypeAPI,
	} {
		out = append(out, builtinKinds[t])
	}
	return out
}

// GetKind returns the kind for a scan type.
func GetKind(t models.ScanType) (Kind, error) {
	k, ok := builtinKinds[models.ScanType(strings.ToLower(string(t)))]
	if !ok {
		return Kind{}, invalid("type", "unknown scan type %q (available: dd, subdomain, network, api)", t)
	}
	return k, nil
}

// Validate checks req and builds the backend payload for its kind.
func Validate(req Request, scope *Scope) (Kind, map[string]any, error) {
	if strings.TrimSpace(req.Name) == "" {
		return Kind{}, nil, invalid("name", "Please enter a scan name")
	}
	kind, err := GetKind(req.Type)
	if err != nil {
		return Kind{}, nil, err
	}
	payload, err := kind.payload(req, scope)
	if err != nil {
		return Kind{}, nil, err
	}
	return kind, payload, nil
}

func domainPayload(req Request, scope *Scope) (map[string]any, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return nil, invalid("domain", "Please select a domain")
	}
	if err := scope.ValidateDomain(domain); err != nil {
		return nil, invalid("domain", "%s", err)
	}
	return map[string]any{"domain": domain}, nil
}

func subdomainPayload(req Request, scope *Scope) (map[string]any, error) {
	sub := strings.TrimSpace(req.Subdomain)
	if sub == "" {
		return nil, invalid("subdomain", "Please select a subdomain")
	}
	domain := strings.TrimSpace(req.ParentDomain)
	if domain == "" {
		domain = DeriveDomain(sub)
	}
	if err := scope.ValidateDomain(domain); err != nil {
		return nil, invalid("subdomain", "%s", err)
	}
	return map[string]any{"domain": domain, "subdomains": []string{sub}}, nil
}

func networkPayload(req Request, scope *Scope) (map[string]any, error) {
	raw := strings.TrimSpace(req.TargetIP)
	if raw == "" {
		return nil, invalid("target_ip", "Please select a target IP")
	}
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return nil, invalid("target_ip", "%q is not a valid IP address", raw)
	}
	if err := scope.ValidateIP(ip); err != nil {
		return nil, invalid("target_ip", "%s", err)
	}
	return map[string]any{"target_ip": ip.String()}, nil
}

func apiPayload(req Request, _ *Scope) (map[string]any, error) {
	base := strings.TrimSpace(req.AssetURL)
	if base == "" {
		return nil, invalid("asset_url", "Please select Asset Base URL")
	}
	if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, invalid("asset_url", "Asset Base URL %q must be an absolute URL", base)
	}
	if len(req.Endpoints) == 0 {
		return nil, invalid("endpoints", "Please select at least one endpoint")
	}
	return map[string]any{"asset_url": base, "endpoints": slices.Clone(req.Endpoints)}, nil
}

// DeriveDomain returns the last two labels of host: "a.b.example.com" -> "example.com".
func DeriveDomain(host string) string {
	labels := strings.Split(strings.Trim(host, "."), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}
