package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
	"github.com/hakim/asmctl/internal/report"
	"github.com/hakim/asmctl/internal/storage"
)

var domainsCmd = &cobra.Command{
	Use:     "domains",
	Aliases: []string{"domain"},
	Short:   "Browse and manage root domains",
}

var domainsList listFlags

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List domains with search, filters and paging",
	RunE: func(cmd *cobra.Command, args []string) error {
		pager, err := domainsList.pager()
		if err != nil {
			return err
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		inv := inventory.New(a.client, logger)
		if err := inv.Load(context.Background(), inventory.KindDomains); err != nil {
			return a.check(err)
		}

		page := inventory.Paginate(pager, inv.Domains().Items)
		if page.TotalItems == 0 {
			fmt.Println("No domains found")
			return nil
		}

		w := newTable()
		fmt.Fprintln(w, "ID\tDomain\tStatus\tSubdomains\tTags\tCreated")
		for _, d := range page.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				d.ID, d.DomainName, formatActive(d.Active()), len(d.Subdomains), formatTags(d.Tags), formatTime(d.CreatedAt))
		}
		w.Flush()
		printPageFooter(page.Number, page.TotalPages, page.TotalItems)
		return nil
	},
}

var domainsShowCmd = &cobra.Command{
	Use:   "show <id|link>",
	Short: "Show one domain with its subdomains",
	Long: `Show a domain's details. The argument is a domain id or a link produced by
'asmctl domains link', e.g. "https://asm.example.com/assets?domain=42".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		if linked, ok := inventory.ParseDomainLink(id); ok {
			id = linked
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.client.GetDomain(context.Background(), id)
		if err != nil {
			return a.check(err)
		}

		fmt.Printf("  ID:         %s\n", d.ID)
		fmt.Printf("  Domain:     %s\n", d.DomainName)
		fmt.Printf("  Status:     %s\n", formatActive(d.Active()))
		fmt.Printf("  Tags:       %s\n", formatTags(d.Tags))
		fmt.Printf("  ASN:        %s\n", orDash(d.ASN))
		fmt.Printf("  Source:     %s\n", orDash(d.DiscoverySource))
		fmt.Printf("  Created:    %s by %s\n", formatTime(d.CreatedAt), orDash(d.CreatedBy))

		fmt.Println()
		if len(d.Subdomains) == 0 {
			fmt.Println("No subdomains recorded")
			return nil
		}
		fmt.Printf("Subdomains (%d)\n", len(d.Subdomains))
		w := newTable()
		for _, s := range d.Subdomains {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", s.ID, s.SubdomainName, formatTime(s.CreatedAt))
		}
		w.Flush()
		return nil
	},
}

var domainsAddCmd = &cobra.Command{
	Use:   "add <domain>",
	Short: "Add a root domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetString("tags")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.client.CreateDomain(context.Background(), args[0], models.ParseTags(tags))
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] Domain %s added (id %s)\n", d.DomainName, d.ID)
		return nil
	},
}

var domainsTagCmd = &cobra.Command{
	Use:   "tag <id>",
	Short: "Replace a domain's tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tags, _ := cmd.Flags().GetString("tags")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.client.UpdateDomainTags(context.Background(), args[0], models.ParseTags(tags))
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] %s tags: %s\n", d.DomainName, formatTags(d.Tags))
		return nil
	},
}

var domainsLinkCmd = &cobra.Command{
	Use:   "link <id>",
	Short: "Print a shareable link that opens the domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("base")
		if base == "" {
			if cfg == nil {
				return errors.New("no --base given and config not loaded")
			}
			base = cfg.API.BaseURL
		}
		link, err := inventory.DomainLink(base, args[0])
		if err != nil {
			return err
		}
		fmt.Println(link)
		return nil
	},
}

var domainsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a markdown report of the whole inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = filepath.Join(cfg.Output.DownloadDir, "inventory.md")
		}

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		inv := inventory.New(a.client, logger)
		if err := a.check(inv.LoadAll(context.Background())); err != nil {
			fmt.Printf("[!] Exporting without some collections: %v\n", err)
		}

		if err := storage.EnsureDir(filepath.Dir(out)); err != nil {
			return err
		}
		if err := report.WriteInventoryReport(report.Inventory{
			Domains:     inv.Domains().Items,
			Subdomains:  inv.Subdomains().Items,
			IPAddresses: inv.IPAddresses().Items,
			URLs:        inv.URLs().Items,
		}, out); err != nil {
			return err
		}
		fmt.Printf("[+] Inventory report written to %s\n", out)
		return nil
	},
}

func init() {
	domainsList.register(domainsListCmd.Flags())
	domainsAddCmd.Flags().String("tags", "", "Comma-separated tags, e.g. production,external")
	domainsTagCmd.Flags().String("tags", "", "Comma-separated tags; empty clears them")
	domainsLinkCmd.Flags().String("base", "", "Base URL of the web application (default: api.base_url)")
	domainsExportCmd.Flags().StringP("out", "o", "", "Output path (default: <download_dir>/inventory.md)")

	domainsCmd.AddCommand(domainsListCmd, domainsShowCmd, domainsAddCmd, domainsTagCmd, domainsLinkCmd, domainsExportCmd)
	rootCmd.AddCommand(domainsCmd)
}
