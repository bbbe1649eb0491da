package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/apispec"
	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/orchestrator"
)

var scanCmd = &cobra.Command{
	Use:     "scan",
	Aliases: []string{"scans"},
	Short:   "Submit, follow and control scans",
}

var scanRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Submit a scan and follow it until it finishes",
	Long: `Submit a scan of one of the supported kinds and poll the scan list until it
reaches COMPLETED, FAILED or TERMINATED, Ctrl-C is pressed, or the polling
ceiling (polling.scan_ceiling) elapses. Stopping the watch never stops the
scan itself.

API-testing scans run inline and print their result when the call returns.

Examples:
  asmctl scan run --name weekly --type dd --domain example.com
  asmctl scan run --name api-edge --type subdomain --subdomain api.example.com
  asmctl scan run --name dmz --type network --ip 203.0.113.7
  asmctl scan run --name orders --type api --asset-url https://api.example.com \
      --spec openapi.yaml --endpoints "GET /orders,POST /orders"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		noWatch, _ := cmd.Flags().GetBool("no-watch")
		req, err := scanRequestFromFlags(cmd)
		if err != nil {
			return err
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		orch := a.orchestrator()

		ctx, stop := interruptible()
		defer stop()

		fmt.Printf("[*] Submitting %s scan %q\n", req.Type, req.Name)
		sub, err := orch.Submit(ctx, req)
		if err != nil {
			return describeValidation(a.check(err))
		}

		if !sub.Kind.Polled {
			fmt.Printf("[+] %s scan finished\n", sub.Kind.Name)
			return printJSON(sub.Result)
		}

		fmt.Printf("[+] Scan submitted: %s (%s)\n", sub.Scan.ScanID, formatStatus(sub.Scan.Status))
		if noWatch {
			fmt.Printf("    Follow it with: asmctl scan watch %s\n", sub.Scan.ScanID)
			return nil
		}

		res := orch.Watch(ctx, sub.Scan.ScanID, printingHooks(sub.Scan.ScanID))
		return watchError(a, res)
	},
}

var scanKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the scan kinds and what each needs",
	Run: func(cmd *cobra.Command, args []string) {
		w := newTable()
		fmt.Fprintln(w, "Type\tName\tFollowed\tDescription")
		for _, k := range orchestrator.Kinds() {
			followed := "polled"
			if !k.Polled {
				followed = "inline"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", k.Type, k.Name, followed, k.Description)
		}
		w.Flush()
	},
}

var scanHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List scans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanType, _ := cmd.Flags().GetString("type")
		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		scans, err := a.client.ListScans(context.Background())
		if err != nil {
			return a.check(err)
		}
		scans = filterScans(scans, scanType, status, search)

		if len(scans) == 0 {
			fmt.Println("No scan history found")
			return nil
		}

		sort.SliceStable(scans, func(i, j int) bool { return scans[i].CreatedAt.After(scans[j].CreatedAt.Time) })
		total := len(scans)
		if limit > 0 && len(scans) > limit {
			scans = scans[:limit]
		}

		const separator = "────────────────────────────────────────────────────────────────────────────────"

		fmt.Println()
		fmt.Println(separator)
		fmt.Printf("  %-3s  %-12s  %-24s  %-10s  %-12s  %s\n", "#", "Scan ID", "Name", "Type", "Status", "Created")
		fmt.Println(separator)
		for i, s := range scans {
			fmt.Printf("  %-3d  %-12s  %-24s  %-10s  %-12s  %s\n",
				i+1, shortID(s.ScanID), truncate(s.ScanName, 24), s.ScanType, formatStatus(s.Status), formatTime(s.CreatedAt))
		}
		fmt.Println(separator)
		fmt.Printf("Showing %d of %d scan(s)\n\n", len(scans), total)
		return nil
	},
}

var scanShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show the current state of one scan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.orchestrator().Status(context.Background(), args[0])
		if err != nil {
			return a.check(err)
		}
		printScan(*s)
		return nil
	},
}

var scanResultsCmd = &cobra.Command{
	Use:   "results <scan-id>",
	Short: "Print a scan's results as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		raw, err := a.client.ScanResults(context.Background(), args[0])
		if err != nil {
			return a.check(err)
		}
		if out == "" {
			return printJSON(raw)
		}
		if err := os.WriteFile(out, indentJSON(raw), 0644); err != nil {
			return fmt.Errorf("writing results to %s: %w", out, err)
		}
		fmt.Printf("[+] Results written to %s\n", out)
		return nil
	},
}

var scanSubdomainsCmd = &cobra.Command{
	Use:   "subdomains",
	Short: "Run the standalone subdomain scanner and print its result",
	Long: `Run the subdomain scanner directly against a domain. The call blocks until
the scanner answers and is not recorded in scan history.

Examples:
  asmctl scan subdomains --domain example.com
  asmctl scan subdomains --domain example.com --subdomains api,www --export-json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, _ := cmd.Flags().GetString("domain")
		subs, _ := cmd.Flags().GetString("subdomains")
		exportJSON, _ := cmd.Flags().GetBool("export-json")
		exportPDF, _ := cmd.Flags().GetBool("export-pdf")

		req, err := subdomainScanRequest(domain, subs, exportJSON, exportPDF)
		if err != nil {
			return err
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := interruptible()
		defer stop()

		fmt.Printf("[*] Scanning subdomains of %s\n", req.Domain)
		raw, err := a.client.RunSubdomainScan(ctx, req)
		if err != nil {
			return a.check(err)
		}
		fmt.Println("[+] Subdomain scan finished")
		return printJSON(raw)
	},
}

func subdomainScanRequest(domain, subs string, exportJSON, exportPDF bool) (api.SubdomainScanRequest, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return api.SubdomainScanRequest{}, errors.New("--domain is required")
	}
	return api.SubdomainScanRequest{
		Domain:     domain,
		Subdomains: splitCSV(subs),
		ExportJSON: exportJSON,
		ExportPDF:  exportPDF,
	}, nil
}

// scanActionCmd builds pause/resume/terminate. The acknowledgement is only
// printed; the scan list stays the source of truth.
func scanActionCmd(use, short string, act func(o *orchestrator.Orchestrator, ctx context.Context, id string) (*models.ScanAction, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <scan-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAuthed()
			if err != nil {
				return err
			}
			defer a.Close()

			ack, err := act(a.orchestrator(), context.Background(), args[0])
			if err != nil {
				return describeValidation(a.check(err))
			}
			msg := ack.Message
			if msg == "" {
				msg = use + " requested"
			}
			fmt.Printf("[+] %s: %s\n", args[0], msg)
			fmt.Printf("    Run 'asmctl scan show %s' to confirm the new status\n", args[0])
			return nil
		},
	}
}

var scanWatchCmd = &cobra.Command{
	Use:   "watch <scan-id>...",
	Short: "Follow one or more scans until they finish",
	Long: `Follow scans already running. Each scan is polled independently and stops
on its own terminal status or the polling ceiling; Ctrl-C stops them all.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := interruptible()
		defer stop()

		tracker := a.orchestrator().NewTracker(ctx)
		for _, id := range args {
			if !tracker.Track(id, printingHooks(id)) {
				fmt.Printf("[!] %s is already being watched\n", id)
				continue
			}
			fmt.Printf("[*] Watching %s\n", id)
		}

		var errs []error
		for _, res := range tracker.Wait() {
			if err := watchError(a, res); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	},
}

func scanRequestFromFlags(cmd *cobra.Command) (orchestrator.Request, error) {
	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	scanType, _ := flags.GetString("type")
	domain, _ := flags.GetString("domain")
	subdomain, _ := flags.GetString("subdomain")
	parent, _ := flags.GetString("parent")
	ip, _ := flags.GetString("ip")
	assetURL, _ := flags.GetString("asset-url")
	specPath, _ := flags.GetString("spec")
	format, _ := flags.GetString("format")
	selected, _ := flags.GetString("endpoints")

	req := orchestrator.Request{
		Name:         name,
		Type:         models.ScanType(strings.ToLower(scanType)),
		Domain:       domain,
		Subdomain:    subdomain,
		ParentDomain: parent,
		TargetIP:     ip,
		AssetURL:     assetURL,
	}

	if specPath != "" {
		endpoints, err := loadEndpoints(specPath, format)
		if err != nil {
			return req, err
		}
		if keys := splitCSV(selected); len(keys) > 0 {
			endpoints, err = apispec.Select(endpoints, keys)
			if err != nil {
				return req, err
			}
		}
		req.Endpoints = endpoints
		fmt.Printf("[*] %d endpoint(s) selected from %s\n", len(endpoints), specPath)
	}
	return req, nil
}

func addScanRequestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("name", "", "Scan name (required)")
	flags.StringP("type", "t", string(models.ScanTypeDomainDiscovery), "Scan kind: dd, subdomain, network, api")
	flags.StringP("domain", "d", "", "Root domain (dd)")
	flags.String("subdomain", "", "Subdomain host (subdomain)")
	flags.String("parent", "", "Parent domain of --subdomain (default: its last two labels)")
	flags.String("ip", "", "Target IP address (network)")
	flags.String("asset-url", "", "Base URL of the API under test (api)")
	flags.String("spec", "", "OpenAPI, Postman or CSV/XLSX endpoint file (api)")
	flags.String("format", "AUTO", "Spec format: AUTO, OPENAPI, POSTMAN, CUSTOM")
	flags.String("endpoints", "", `Comma-separated "METHOD path" keys to test (default: all)`)
}

func printingHooks(scanID string) orchestrator.ScanHooks {
	var last models.ScanStatus
	return orchestrator.ScanHooks{
		OnRefresh: func(scans []models.Scan) {
			for _, s := range scans {
				if s.ScanID != scanID {
					continue
				}
				if st := s.Status.Normalize(); st != last {
					fmt.Printf("[*] %s: %s\n", shortID(scanID), formatStatus(st))
					last = st
				}
				return
			}
		},
		OnTerminal: func(s models.Scan) {
			prefix := "[+]"
			if s.Status.Normalize() != models.ScanCompleted {
				prefix = "[!]"
			}
			fmt.Printf("%s Scan %s (%s) finished: %s\n", prefix, s.ScanID, s.ScanName, formatStatus(s.Status))
		},
	}
}

// watchError reports how a watch ended and returns an error for failed scans.
func watchError(a *app, res orchestrator.WatchResult) error {
	if res.LastErr != nil {
		fmt.Printf("[!] %s: last poll error: %v\n", shortID(res.ScanID), a.check(res.LastErr))
	}
	switch res.Reason {
	case orchestrator.StopTerminal:
		if st := res.Last.Status.Normalize(); st != models.ScanCompleted {
			return fmt.Errorf("scan %s ended %s", res.ScanID, formatStatus(st))
		}
		fmt.Printf("    Elapsed: %s, polls: %d\n", sinceStart(res.Elapsed), res.Polls)
	case orchestrator.StopCeiling:
		fmt.Printf("[!] Stopped following %s after %s; the scan continues on the backend\n", res.ScanID, sinceStart(res.Elapsed))
		fmt.Printf("    Resume with: asmctl scan watch %s\n", res.ScanID)
	case orchestrator.StopCancelled:
		fmt.Printf("[!] Stopped following %s\n", res.ScanID)
	}
	return nil
}

func printScan(s models.Scan) {
	fmt.Printf("  Scan ID:   %s\n", s.ScanID)
	fmt.Printf("  Name:      %s\n", s.ScanName)
	fmt.Printf("  Type:      %s\n", s.ScanType)
	fmt.Printf("  Status:    %s\n", formatStatus(s.Status))
	fmt.Printf("  Asset:     %s\n", orDash(firstNonEmpty(s.AssetURL, s.AssetName)))
	fmt.Printf("  Created:   %s by %s\n", formatTime(s.CreatedAt), orDash(s.CreatedBy))
}

func filterScans(scans []models.Scan, scanType, status, search string) []models.Scan {
	out := make([]models.Scan, 0, len(scans))
	q := strings.ToLower(strings.TrimSpace(search))
	for _, s := range scans {
		if scanType != "" && !strings.EqualFold(string(s.ScanType), scanType) {
			continue
		}
		if status != "" && s.Status.Normalize() != models.ScanStatus(status).Normalize() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.ScanName+" "+s.AssetName+" "+s.AssetURL), q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func loadEndpoints(path, format string) ([]models.Endpoint, error) {
	f, err := apispec.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return apispec.Parse(data, f, path)
}

// describeValidation prefixes validation failures with the offending field.
func describeValidation(err error) error {
	var verr *orchestrator.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("invalid %s: %s", verr.Field, verr.Message)
	}
	return err
}

func indentJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

func printJSON(raw []byte) error {
	_, err := os.Stdout.Write(indentJSON(raw))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	addScanRequestFlags(scanRunCmd)
	scanRunCmd.Flags().Bool("no-watch", false, "Submit and return without following the scan")
	scanRunCmd.MarkFlagRequired("name")

	scanHistoryCmd.Flags().String("type", "", "Only scans of this kind")
	scanHistoryCmd.Flags().String("status", "", "Only scans with this status")
	scanHistoryCmd.Flags().StringP("search", "s", "", "Search scan names and assets")
	scanHistoryCmd.Flags().Int("limit", 20, "Maximum number of scans to display (0 for all)")

	scanResultsCmd.Flags().StringP("out", "o", "", "Write results to this file instead of stdout")

	scanSubdomainsCmd.Flags().String("domain", "", "Domain to enumerate (required)")
	scanSubdomainsCmd.Flags().String("subdomains", "", "Comma-separated subdomains to check as well")
	scanSubdomainsCmd.Flags().Bool("export-json", false, "Ask the scanner to export a JSON report")
	scanSubdomainsCmd.Flags().Bool("export-pdf", false, "Ask the scanner to export a PDF report")

	scanCmd.AddCommand(
		scanRunCmd,
		scanKindsCmd,
		scanHistoryCmd,
		scanShowCmd,
		scanResultsCmd,
		scanSubdomainsCmd,
		scanActionCmd("pause", "Pause a running scan", (*orchestrator.Orchestrator).Pause),
		scanActionCmd("resume", "Resume a paused scan", (*orchestrator.Orchestrator).Resume),
		scanActionCmd("terminate", "Terminate a scan", (*orchestrator.Orchestrator).Terminate),
		scanWatchCmd,
	)
	rootCmd.AddCommand(scanCmd)
}
