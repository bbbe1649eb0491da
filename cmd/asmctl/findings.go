package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/report"
)

var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "List vulnerability findings grouped by severity",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiOnly, _ := cmd.Flags().GetBool("api")
		severity, _ := cmd.Flags().GetString("severity")
		out, _ := cmd.Flags().GetString("out")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := context.Background()

		var findings []models.Finding
		if apiOnly {
			findings, err = a.client.ListAPIFindings(ctx)
		} else {
			findings, err = a.client.ListFindings(ctx)
		}
		if err != nil {
			return a.check(err)
		}

		if wanted := splitCSV(severity); len(wanted) > 0 {
			keep := make(map[models.Severity]bool)
			for _, s := range wanted {
				keep[models.ParseSeverity(s)] = true
			}
			filtered := findings[:0]
			for _, f := range findings {
				if keep[models.ParseSeverity(string(f.Severity))] {
					filtered = append(filtered, f)
				}
			}
			findings = filtered
		}

		if out != "" {
			if err := report.WriteFindingsReport(findings, out); err != nil {
				return err
			}
			fmt.Printf("[+] %d finding(s) written to %s\n", len(findings), out)
			return nil
		}

		if len(findings) == 0 {
			fmt.Println("No findings")
			return nil
		}

		counts := report.SeverityCounts(findings)
		parts := make([]string, 0, len(models.SeverityOrder))
		for _, sev := range models.SeverityOrder {
			parts = append(parts, fmt.Sprintf("%s %d", sev, counts[sev]))
		}
		fmt.Printf("%d finding(s): %s\n\n", len(findings), strings.Join(parts, " | "))

		w := newTable()
		fmt.Fprintln(w, "Severity\tIssue\tAsset\tScan")
		for _, sev := range models.SeverityOrder {
			for _, f := range findings {
				if models.ParseSeverity(string(f.Severity)) == sev {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", sev, f.Issue, orDash(f.AssetURL), orDash(shortID(f.ScanID)))
				}
			}
		}
		w.Flush()
		return nil
	},
}

func init() {
	findingsCmd.Flags().Bool("api", false, "Only findings from API-testing scans")
	findingsCmd.Flags().String("severity", "", "Comma-separated severities to keep, e.g. critical,high")
	findingsCmd.Flags().StringP("out", "o", "", "Write a markdown report here instead of printing")
	rootCmd.AddCommand(findingsCmd)
}
