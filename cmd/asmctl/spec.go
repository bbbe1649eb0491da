package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/apispec"
)

var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "Inspect API documentation used by API-testing scans",
}

var specEndpointsCmd = &cobra.Command{
	Use:   "endpoints <file>",
	Short: "List the endpoints found in an OpenAPI, Postman or CSV/XLSX file",
	Long: `Parse an API description and print the endpoints an API-testing scan could
target. The KEY column is what 'asmctl scan run --endpoints' accepts.

When the declared format finds nothing, the other JSON format is tried.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		endpoints, err := loadEndpoints(args[0], format)
		if err != nil {
			return err
		}

		w := newTable()
		fmt.Fprintln(w, "Key\tName")
		for _, ep := range endpoints {
			fmt.Fprintf(w, "%s\t%s\n", apispec.Key(ep), ep.Name)
		}
		w.Flush()
		fmt.Printf("%d endpoint(s)\n", len(endpoints))
		return nil
	},
}

func init() {
	specEndpointsCmd.Flags().String("format", "AUTO", "Spec format: AUTO, OPENAPI, POSTMAN, CUSTOM")
	specCmd.AddCommand(specEndpointsCmd)
	rootCmd.AddCommand(specCmd)
}
