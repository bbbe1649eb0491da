package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hakim/asmctl/internal/models"
)

// Inventory is the asset snapshot rendered by WriteInventoryReport.
type Inventory struct {
	Domains     []models.Domain
	Subdomains  []models.Subdomain
	IPAddresses []models.IPAddress
	URLs        []models.URLAsset
}

// RenderInventory builds a markdown overview of the asset inventory, one
// section per domain with its subdomains, IPs and URLs.
func RenderInventory(inv Inventory, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Asset Inventory Report\n\n")
	b.WriteString(fmt.Sprintf("**Date:** %s\n", now.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("**Domains:** %d | **Subdomains:** %d | **IP addresses:** %d | **URLs:** %d\n\n",
		len(inv.Domains), len(inv.Subdomains), len(inv.IPAddresses), len(inv.URLs)))

	b.WriteString("## Domains\n\n")
	if len(inv.Domains) == 0 {
		b.WriteString("None found.\n\n")
		return b.String()
	}

	domains := make([]models.Domain, len(inv.Domains))
	copy(domains, inv.Domains)
	sort.SliceStable(domains, func(i, j int) bool { return domains[i].DomainName < domains[j].DomainName })

	b.WriteString("| Domain | Status | Tags | Subdomains | IPs | URLs |\n")
	b.WriteString("|--------|--------|------|------------|-----|------|\n")
	for _, d := range domains {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d | %d |\n",
			cell(d.DomainName), status(d.Active()), tags(d.Tags),
			len(owned(inv.Subdomains, d, subdomainOwner)), len(owned(inv.IPAddresses, d, ipOwner)), len(owned(inv.URLs, d, urlOwner))))
	}
	b.WriteString("\n")

	for _, d := range domains {
		b.WriteString(fmt.Sprintf("## %s\n\n", d.DomainName))
		writeAssets(&b, "Subdomains", owned(inv.Subdomains, d, subdomainOwner))
		writeAssets(&b, "IP Addresses", owned(inv.IPAddresses, d, ipOwner))
		writeAssets(&b, "URLs", owned(inv.URLs, d, urlOwner))
	}

	return b.String()
}

// WriteInventoryReport renders the inventory as markdown and writes it to outputPath.
func WriteInventoryReport(inv Inventory, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(RenderInventory(inv, time.Now())), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}

func writeAssets[T models.Asset](b *strings.Builder, heading string, assets []T) {
	b.WriteString(fmt.Sprintf("### %s\n\n", heading))
	if len(assets) == 0 {
		b.WriteString("None found.\n\n")
		return
	}
	b.WriteString("| Name | Status | Tags |\n")
	b.WriteString("|------|--------|------|\n")
	for _, a := range assets {
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n", cell(a.AssetName()), status(a.Active()), tags(a.Labels())))
	}
	b.WriteString("\n")
}

// owned returns the assets belonging to d, matched by domain id and
// falling back to the domain name for rows that only carry the name.
func owned[T models.Asset](assets []T, d models.Domain, domainID func(T) string) []T {
	var out []T
	for _, a := range assets {
		if id := domainID(a); id != "" {
			if id == d.ID {
				out = append(out, a)
			}
			continue
		}
		if strings.EqualFold(a.ParentDomain(), d.DomainName) {
			out = append(out, a)
		}
	}
	return out
}

func subdomainOwner(s models.Subdomain) string { return s.DomainID }
func ipOwner(i models.IPAddress) string        { return i.DomainID }
func urlOwner(u models.URLAsset) string        { return u.DomainID }

func status(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func tags(t []string) string {
	if len(t) == 0 {
		return "-"
	}
	return cell(strings.Join(t, ", "))
}
