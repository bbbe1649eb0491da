package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hakim/asmctl/internal/models"
)

var titleCase = cases.Title(language.English)

// SeverityCounts tallies findings per severity. Every known severity is
// present in the result, with zero when nothing was found at that level.
func SeverityCounts(findings []models.Finding) map[models.Severity]int {
	counts := make(map[models.Severity]int, len(models.SeverityOrder))
	for _, sev := range models.SeverityOrder {
		counts[sev] = 0
	}
	for _, f := range findings {
		counts[models.ParseSeverity(string(f.Severity))]++
	}
	return counts
}

// RenderFindings builds a markdown report for findings, one section per
// severity in priority order.
func RenderFindings(title string, findings []models.Finding, now time.Time) string {
	var b strings.Builder
	counts := SeverityCounts(findings)

	if title == "" {
		title = "Findings Report"
	}
	b.WriteString(fmt.Sprintf("# %s\n\n", title))
	b.WriteString(fmt.Sprintf("**Date:** %s\n", now.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf(
		"**Total findings:** %d | **Critical:** %d | **High:** %d | **Medium:** %d | **Low:** %d | **Info:** %d\n\n",
		len(findings),
		counts[models.SeverityCritical],
		counts[models.SeverityHigh],
		counts[models.SeverityMedium],
		counts[models.SeverityLow],
		counts[models.SeverityInfo],
	))

	bySeverity := findingsBySeverity(findings)
	for _, sev := range models.SeverityOrder {
		b.WriteString(fmt.Sprintf("## %s Findings\n\n", titleCase.String(string(sev))))

		group := bySeverity[sev]
		if len(group) == 0 {
			b.WriteString(fmt.Sprintf("No %s findings.\n\n", string(sev)))
			continue
		}

		b.WriteString("| Issue | Asset | Scan | Recommendation |\n")
		b.WriteString("|-------|-------|------|----------------|\n")
		for _, f := range group {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				cell(f.Issue), cell(f.AssetURL), cell(f.ScanID), cell(f.Recommendation)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteFindingsReport renders findings as markdown and writes them to outputPath.
func WriteFindingsReport(findings []models.Finding, outputPath string) error {
	content := RenderFindings("Findings Report", findings, time.Now())
	if err := os.WriteFile(outputPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing report to %s: %w", outputPath, err)
	}
	return nil
}

func findingsBySeverity(findings []models.Finding) map[models.Severity][]models.Finding {
	groups := make(map[models.Severity][]models.Finding)
	for _, f := range findings {
		sev := models.ParseSeverity(string(f.Severity))
		groups[sev] = append(groups[sev], f)
	}
	return groups
}

// cell makes a value safe inside a markdown table row.
func cell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
