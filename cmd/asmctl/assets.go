package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
)

// assetKind wires one asset collection to its list and add commands.
type assetKind struct {
	use     string
	aliases []string
	noun    string
	kind    inventory.Kind
	rows    func(inv *inventory.Inventory, p *inventory.Pager) (rows [][]string, number, total, items int)
	create  func(ctx context.Context, c *api.Client, in api.NewAsset) (string, error)
}

func pageRows[T models.Asset](p *inventory.Pager, items []T) ([][]string, int, int, int) {
	page := inventory.Paginate(p, items)
	rows := make([][]string, 0, len(page.Items))
	for _, a := range page.Items {
		rows = append(rows, []string{a.AssetID(), a.AssetName(), orDash(a.ParentDomain()), formatActive(a.Active()), formatTags(a.Labels())})
	}
	return rows, page.Number, page.TotalPages, page.TotalItems
}

var assetKinds = []assetKind{
	{
		use:     "subdomains",
		aliases: []string{"subdomain", "subs"},
		noun:    "subdomain",
		kind:    inventory.KindSubdomains,
		rows: func(inv *inventory.Inventory, p *inventory.Pager) ([][]string, int, int, int) {
			return pageRows(p, inv.Subdomains().Items)
		},
		create: func(ctx context.Context, c *api.Client, in api.NewAsset) (string, error) {
			s, err := c.CreateSubdomain(ctx, in)
			if err != nil {
				return "", err
			}
			return s.ID, nil
		},
	},
	{
		use:     "ips",
		aliases: []string{"ip", "ipaddresses"},
		noun:    "IP address",
		kind:    inventory.KindIPs,
		rows: func(inv *inventory.Inventory, p *inventory.Pager) ([][]string, int, int, int) {
			return pageRows(p, inv.IPAddresses().Items)
		},
		create: func(ctx context.Context, c *api.Client, in api.NewAsset) (string, error) {
			ip, err := c.CreateIPAddress(ctx, in)
			if err != nil {
				return "", err
			}
			return ip.ID, nil
		},
	},
	{
		use:     "urls",
		aliases: []string{"url"},
		noun:    "URL",
		kind:    inventory.KindURLs,
		rows: func(inv *inventory.Inventory, p *inventory.Pager) ([][]string, int, int, int) {
			return pageRows(p, inv.URLs().Items)
		},
		create: func(ctx context.Context, c *api.Client, in api.NewAsset) (string, error) {
			u, err := c.CreateURL(ctx, in)
			if err != nil {
				return "", err
			}
			return u.ID, nil
		},
	},
}

func (k assetKind) command() *cobra.Command {
	parent := &cobra.Command{
		Use:     k.use,
		Aliases: k.aliases,
		Short:   fmt.Sprintf("Browse and add %s assets", k.noun),
	}

	var lf listFlags
	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s assets with search, filters and paging", k.noun),
		RunE: func(cmd *cobra.Command, args []string) error {
			pager, err := lf.pager()
			if err != nil {
				return err
			}

			a, err := openAuthed()
			if err != nil {
				return err
			}
			defer a.Close()

			inv := inventory.New(a.client, logger)
			if err := inv.Load(context.Background(), k.kind); err != nil {
				return a.check(err)
			}

			rows, number, total, items := k.rows(inv, pager)
			if items == 0 {
				fmt.Printf("No %s assets found\n", k.noun)
				return nil
			}
			w := newTable()
			fmt.Fprintln(w, "ID\tName\tDomain\tStatus\tTags")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r[0], r[1], r[2], r[3], r[4])
			}
			w.Flush()
			printPageFooter(number, total, items)
			return nil
		},
	}
	lf.register(list.Flags())

	add := &cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Add a %s under a domain", k.noun),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domainID, _ := cmd.Flags().GetString("domain-id")
			tags, _ := cmd.Flags().GetString("tags")

			a, err := openAuthed()
			if err != nil {
				return err
			}
			defer a.Close()

			id, err := k.create(context.Background(), a.client, api.NewAsset{
				DomainID: domainID,
				Name:     args[0],
				Tags:     models.ParseTags(tags),
			})
			if err != nil {
				return a.check(err)
			}
			fmt.Printf("[+] %s %s added (id %s)\n", k.noun, args[0], id)
			return nil
		},
	}
	add.Flags().String("domain-id", "", "Id of the owning domain (required)")
	add.Flags().String("tags", "", "Comma-separated tags")
	add.MarkFlagRequired("domain-id")

	parent.AddCommand(list, add)
	return parent
}

func init() {
	for _, k := range assetKinds {
		rootCmd.AddCommand(k.command())
	}
}
