package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the help center a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, _ := cmd.Flags().GetInt("sources")
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("question is empty")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		answer, err := a.client.AskHelp(context.Background(), question, sources)
		if err != nil {
			return a.check(err)
		}

		fmt.Println(strings.TrimSpace(answer.Answer))
		if len(answer.Sources) > 0 {
			fmt.Println()
			fmt.Println("Sources:")
			for _, s := range answer.Sources {
				fmt.Printf("  - %s (%s)\n", orDash(s.Title), orDash(s.Source))
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().Int("sources", 3, "Maximum number of sources to cite")
	rootCmd.AddCommand(askCmd)
}
