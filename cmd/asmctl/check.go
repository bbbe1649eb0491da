package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/session"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration, session stores and backend reachability",
	Long: `Verify that the configuration loads, both session stores open, and the
backend at api.base_url answers. When a token is stored it is validated
against the backend; a rejected token signs you out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		w := newTable()
		fmt.Fprintln(w, "Component\tStatus\tDetail")
		fmt.Fprintln(w, "---------\t------\t------")

		fmt.Fprintf(w, "config\t[+]\t%s\n", a.client.BaseURL())
		fmt.Fprintf(w, "session store\t[+]\t%s\n", cfg.Session.DBPath)
		fmt.Fprintf(w, "scoped store\t[+]\t%s\n", cfg.Session.ScopedPath)

		var failure error
		ctx := context.Background()
		claims, err := a.session.Validate(ctx, a.client)
		switch {
		case err == nil:
			fmt.Fprintf(w, "backend\t[+]\treachable\n")
			fmt.Fprintf(w, "session\t[+]\tsigned in as %s\n", claims.Subject)
		case errors.Is(err, session.ErrNoToken):
			// Without a token, any answer at all proves the backend is up.
			_, pingErr := a.client.TokenClaims(ctx)
			if errors.Is(pingErr, api.ErrBackendUnreachable) {
				fmt.Fprintf(w, "backend\t[-]\t%v\n", pingErr)
				failure = pingErr
			} else {
				fmt.Fprintf(w, "backend\t[+]\treachable\n")
			}
			fmt.Fprintf(w, "session\t[-]\tnot signed in\n")
		case errors.Is(err, api.ErrBackendUnreachable):
			fmt.Fprintf(w, "backend\t[-]\t%v\n", err)
			fmt.Fprintf(w, "session\t[-]\tcleared\n")
			failure = err
		default:
			fmt.Fprintf(w, "backend\t[+]\treachable\n")
			fmt.Fprintf(w, "session\t[-]\t%v (cleared)\n", err)
		}
		w.Flush()

		if failure != nil {
			return fmt.Errorf("backend check failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
