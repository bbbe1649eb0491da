package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/report"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show inventory counts, scan activity and findings by severity",
	Long: `Load every asset collection in parallel and print the headline numbers.
A collection that fails to load is reported and left out; the rest are
shown regardless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		recent, _ := cmd.Flags().GetInt("recent")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := context.Background()

		inv := inventory.New(a.client, logger)
		if err := a.check(inv.LoadAll(ctx)); err != nil {
			fmt.Printf("[!] Some collections failed to load: %v\n", err)
		}
		sum := inv.Summary()

		fmt.Println()
		fmt.Println("Inventory")
		w := newTable()
		fmt.Fprintf(w, "  Domains\t%d\n", sum.Domains)
		fmt.Fprintf(w, "  Subdomains\t%d\n", sum.Subdomains)
		fmt.Fprintf(w, "  IP addresses\t%d\n", sum.IPAddresses)
		fmt.Fprintf(w, "  URLs\t%d\n", sum.URLs)
		fmt.Fprintf(w, "  Asset groups\t%d\n", sum.Groups)
		fmt.Fprintf(w, "  Active / inactive\t%d / %d\n", sum.Active, sum.Inactive)
		w.Flush()

		scans, err := a.client.ListScans(ctx)
		if err != nil {
			fmt.Printf("[!] Scans unavailable: %v\n", a.check(err))
		} else {
			byStatus := make(map[models.ScanStatus]int)
			for _, s := range scans {
				byStatus[s.Status.Normalize()]++
			}
			fmt.Println()
			fmt.Printf("Scans (%d)\n", len(scans))
			w = newTable()
			for _, st := range []models.ScanStatus{
				models.ScanPending, models.ScanInProgress, models.ScanPaused,
				models.ScanCompleted, models.ScanFailed, models.ScanTerminated,
			} {
				fmt.Fprintf(w, "  %s\t%d\n", formatStatus(st), byStatus[st])
			}
			w.Flush()

			if recent > 0 && len(scans) > 0 {
				sort.SliceStable(scans, func(i, j int) bool { return scans[i].CreatedAt.After(scans[j].CreatedAt.Time) })
				fmt.Println()
				fmt.Println("Recent scans")
				w = newTable()
				for _, s := range scans[:min(recent, len(scans))] {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", shortID(s.ScanID), s.ScanName, formatStatus(s.Status), formatTime(s.CreatedAt))
				}
				w.Flush()
			}
		}

		findings, err := a.client.ListFindings(ctx)
		if err != nil {
			fmt.Printf("[!] Findings unavailable: %v\n", a.check(err))
			return nil
		}
		counts := report.SeverityCounts(findings)
		fmt.Println()
		fmt.Printf("Findings (%d)\n", len(findings))
		w = newTable()
		for _, sev := range models.SeverityOrder {
			fmt.Fprintf(w, "  %s\t%d\n", sev, counts[sev])
		}
		w.Flush()
		return nil
	},
}

func init() {
	dashboardCmd.Flags().Int("recent", 5, "Number of recent scans to list")
	rootCmd.AddCommand(dashboardCmd)
}
