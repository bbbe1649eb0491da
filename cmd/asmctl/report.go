package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/reporting"
)

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"reports"},
	Short:   "Generate and download PDF reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List generated reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		reports, err := reporter(a).List(context.Background(), limit, offset)
		if err != nil {
			return a.check(err)
		}
		if len(reports) == 0 {
			fmt.Println("No reports generated yet")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tName\tType\tCreated")
		for _, r := range reports {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.ID, r.ReportName, reporting.DescribeType(r.ReportType, r.DomainName), formatTime(r.CreatedAt))
		}
		w.Flush()
		return nil
	},
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a report and download its PDF",
	Long: `Create a report and immediately download it as "<name>.pdf" into
output.download_dir (whitespace in the name becomes "-").

The assessment decides what the report covers:
  DOMAIN       the whole domain
  WEBSCAN      one subdomain, given with --subdomain
  API_TESTING  one API scan, given with --scan-id

For API_TESTING without --scan-id, the API scans for the domain are listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		reportType, _ := flags.GetString("type")
		description, _ := flags.GetString("description")
		domain, _ := flags.GetString("domain")
		assessment, _ := flags.GetString("assessment")
		subdomain, _ := flags.GetString("subdomain")
		scanID, _ := flags.GetString("scan-id")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := context.Background()

		req := reporting.Request{
			Name:        name,
			Type:        reportType,
			Description: description,
			Domain:      domain,
			Assessment:  models.AssessmentType(strings.ToUpper(assessment)),
			Subdomain:   subdomain,
			ScanID:      scanID,
		}
		if req.Assessment == models.AssessmentAPITesting && scanID == "" {
			return listAPIScanChoices(ctx, a, domain)
		}

		fmt.Printf("[*] Generating %s\n", reporting.DescribeType(reportType, domain))
		saved, err := reporter(a).Generate(ctx, req)
		var verr *reporting.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
		}
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] Report %s saved to %s (%s)\n", saved.Report.ID, saved.Path, humanize.Bytes(uint64(saved.Size)))
		return nil
	},
}

var reportDownloadCmd = &cobra.Command{
	Use:   "download <report-id>",
	Short: "Download the PDF of an existing report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := context.Background()
		r := reporter(a)

		// The listing supplies the name the file is saved under.
		target := models.Report{ID: args[0]}
		if reports, err := r.List(ctx, 0, 0); err == nil {
			for _, rep := range reports {
				if rep.ID == args[0] {
					target = rep
					break
				}
			}
		}

		saved, err := r.DownloadExisting(ctx, target)
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] Saved %s (%s)\n", saved.Path, humanize.Bytes(uint64(saved.Size)))
		return nil
	},
}

var reportASMCmd = &cobra.Command{
	Use:   "asm",
	Short: "Download the attack surface PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := reporter(a).DownloadASM(context.Background(), domain)
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] Saved %s (%s)\n", saved.Path, humanize.Bytes(uint64(saved.Size)))
		return nil
	},
}

func reporter(a *app) *reporting.Reporter {
	return reporting.New(a.client, cfg.Output.DownloadDir, logger)
}

func listAPIScanChoices(ctx context.Context, a *app, domain string) error {
	scans, err := a.client.ListScans(ctx)
	if err != nil {
		return a.check(err)
	}
	choices := reporting.APIScansForDomain(scans, domain)
	if len(choices) == 0 {
		return errors.New("no API scans found; run one with 'asmctl scan run --type api' first")
	}

	fmt.Println("Select an API scan with --scan-id:")
	w := newTable()
	for _, s := range choices {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", s.ScanID, s.ScanName, orDash(firstNonEmpty(s.AssetURL, s.AssetName)), formatStatus(s.Status))
	}
	w.Flush()
	return errors.New("--scan-id is required for API_TESTING reports")
}

func init() {
	reportListCmd.Flags().Int("limit", reporting.DefaultListLimit, "Maximum number of reports")
	reportListCmd.Flags().Int("offset", 0, "Reports to skip")

	flags := reportGenerateCmd.Flags()
	flags.String("name", "", "Report name (required)")
	flags.String("type", reporting.TypeExecSummary, "Summary type: EXEC_SUMMARY or DETAILS_SUMMARY")
	flags.String("description", "", "Optional description")
	flags.StringP("domain", "d", "", "Domain the report covers (required)")
	flags.String("assessment", string(models.AssessmentDomain), "Assessment: DOMAIN, WEBSCAN or API_TESTING")
	flags.String("subdomain", "", "Subdomain for WEBSCAN reports")
	flags.String("scan-id", "", "API scan for API_TESTING reports")

	reportASMCmd.Flags().StringP("domain", "d", "", "Limit the report to one domain")

	reportCmd.AddCommand(reportListCmd, reportGenerateCmd, reportDownloadCmd, reportASMCmd)
	rootCmd.AddCommand(reportCmd)
}
