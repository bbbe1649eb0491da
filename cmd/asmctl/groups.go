package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/inventory"
	"github.com/hakim/asmctl/internal/models"
)

var groupsCmd = &cobra.Command{
	Use:     "groups",
	Aliases: []string{"group"},
	Short:   "Browse and create asset groups",
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List asset groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()

		inv := inventory.New(a.client, logger)
		if err := inv.Load(context.Background(), inventory.KindGroups); err != nil {
			return a.check(err)
		}

		groups := inventory.Apply(inv.Groups().Items, inventory.Filter{Query: search})
		if len(groups) == 0 {
			fmt.Println("No asset groups found")
			return nil
		}
		w := newTable()
		fmt.Fprintln(w, "ID\tName\tDomain\tType\tAssets\tDescription")
		for _, g := range groups {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				g.ID, g.Name, orDash(g.DomainName), g.AssetType, len(g.AssetIDs), orDash(g.Description))
		}
		w.Flush()
		return nil
	},
}

var groupsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a group of up to 5 subdomains or IPs under one domain",
	Long: `Create an asset group. Assets are given by id and must belong to the chosen
domain and asset type. Run without --assets to list the candidates.

Example:
  asmctl groups create --name edge --domain-id 12 --type SUBDOMAIN --assets 31,32`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		domainID, _ := cmd.Flags().GetString("domain-id")
		assetType, _ := cmd.Flags().GetString("type")
		assets, _ := cmd.Flags().GetString("assets")
		description, _ := cmd.Flags().GetString("description")

		a, err := openAuthed()
		if err != nil {
			return err
		}
		defer a.Close()
		ctx := context.Background()

		inv := inventory.New(a.client, logger)
		if err := a.check(inv.LoadAll(ctx)); err != nil {
			return err
		}

		draft := inventory.NewGroupDraft()
		draft.Name = name
		draft.Description = description
		draft.SetDomain(domainID)
		draft.SetAssetType(models.AssetType(strings.ToUpper(assetType)))

		ids := splitCSV(assets)
		if len(ids) == 0 {
			return printCandidates(inv, draft)
		}
		for _, id := range ids {
			if err := draft.Toggle(id); err != nil {
				return fmt.Errorf("adding %s: %w", id, err)
			}
		}

		group, err := inv.CreateGroup(ctx, a.client, *draft)
		var verr *inventory.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%s: %s", verr.Field, verr.Message)
		}
		if err != nil {
			return a.check(err)
		}
		fmt.Printf("[+] Asset group %s created (id %s, %d assets)\n", group.Name, group.ID, len(group.AssetIDs))
		return nil
	},
}

func printCandidates(inv *inventory.Inventory, draft *inventory.GroupDraft) error {
	if draft.DomainID == "" {
		return errors.New("--domain-id is required")
	}
	candidates := inv.Candidates(draft.DomainID, draft.AssetType)
	if len(candidates) == 0 {
		fmt.Printf("No %s assets under domain %s\n", draft.AssetType, draft.DomainID)
		return nil
	}
	fmt.Printf("Candidates (%s, pick up to %d with --assets):\n", draft.AssetType, models.MaxGroupAssets)
	w := newTable()
	for _, c := range candidates {
		fmt.Fprintf(w, "  %s\t%s\n", c.ID, c.Name)
	}
	w.Flush()
	return nil
}

func init() {
	groupsListCmd.Flags().StringP("search", "s", "", "Search group names and descriptions")

	groupsCreateCmd.Flags().String("name", "", "Group name")
	groupsCreateCmd.Flags().String("domain-id", "", "Id of the domain the assets belong to")
	groupsCreateCmd.Flags().String("type", string(models.AssetTypeSubdomain), "Asset type: SUBDOMAIN or IP")
	groupsCreateCmd.Flags().String("assets", "", "Comma-separated asset ids (at most 5)")
	groupsCreateCmd.Flags().String("description", "", "Optional description")

	groupsCmd.AddCommand(groupsListCmd, groupsCreateCmd)
	rootCmd.AddCommand(groupsCmd)
}
