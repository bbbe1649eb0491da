package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakim/asmctl/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSeverityCounts(t *testing.T) {
	counts := SeverityCounts([]models.Finding{
		{Severity: models.SeverityHigh},
		{Severity: "high"},
		{Severity: "moderate"},
		{Severity: ""},
	})

	assert.Equal(t, 0, counts[models.SeverityCritical])
	assert.Equal(t, 2, counts[models.SeverityHigh])
	assert.Equal(t, 1, counts[models.SeverityMedium])
	assert.Equal(t, 1, counts[models.SeverityInfo])
	assert.Len(t, counts, len(models.SeverityOrder))
}

func TestRenderFindingsGroupsBySeverity(t *testing.T) {
	out := RenderFindings("", []models.Finding{
		{Issue: "Open redirect", Severity: models.SeverityLow, AssetURL: "https://example.com/r"},
		{Issue: "SQL injection | login", Severity: models.SeverityCritical, AssetURL: "https://api.example.com", ScanID: "s1"},
	}, fixedNow)

	assert.Contains(t, out, "# Findings Report")
	assert.Contains(t, out, "**Date:** 2026-03-01 12:00:00 UTC")
	assert.Contains(t, out, "**Total findings:** 2 | **Critical:** 1 | **High:** 0")
	assert.Contains(t, out, `| SQL injection \| login | https://api.example.com | s1 | - |`)
	assert.Contains(t, out, "No HIGH findings.")

	critical := strings.Index(out, "## Critical Findings")
	low := strings.Index(out, "## Low Findings")
	info := strings.Index(out, "## Info Findings")
	require.True(t, critical >= 0 && low >= 0 && info >= 0)
	assert.Less(t, critical, low)
	assert.Less(t, low, info)
}

func TestWriteFindingsReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "findings.md")
	require.NoError(t, WriteFindingsReport(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No CRITICAL findings.")

	assert.Error(t, WriteFindingsReport(nil, filepath.Join(t.TempDir(), "missing", "x.md")))
}

func TestRenderInventory(t *testing.T) {
	archived := true
	inv := Inventory{
		Domains: []models.Domain{
			{ID: "d2", DomainName: "corp.io", Lifecycle: models.Lifecycle{IsArchived: &archived}},
			{ID: "d1", DomainName: "example.com", Tags: []string{"prod", "external"}},
		},
		Subdomains: []models.Subdomain{
			{ID: "s1", DomainID: "d1", SubdomainName: "api.example.com"},
			{ID: "s2", DomainName: "example.com", SubdomainName: "www.example.com"},
			{ID: "s3", DomainID: "d2", SubdomainName: "vpn.corp.io"},
		},
		IPAddresses: []models.IPAddress{{ID: "i1", DomainID: "d1", IPAddressName: "203.0.113.7"}},
	}

	out := RenderInventory(inv, fixedNow)

	assert.Contains(t, out, "**Domains:** 2 | **Subdomains:** 3 | **IP addresses:** 1 | **URLs:** 0")
	assert.Contains(t, out, "| example.com | active | prod, external | 2 | 1 | 0 |")
	assert.Contains(t, out, "| corp.io | inactive | - | 1 | 0 | 0 |")
	assert.Less(t, strings.Index(out, "## corp.io"), strings.Index(out, "## example.com"))
	assert.Contains(t, out, "| www.example.com | active | - |")
}

func TestRenderInventoryEmpty(t *testing.T) {
	out := RenderInventory(Inventory{}, fixedNow)
	assert.Contains(t, out, "## Domains\n\nNone found.")
}
