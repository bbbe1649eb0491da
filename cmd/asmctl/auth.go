package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/hakim/asmctl/internal/api"
	"github.com/hakim/asmctl/internal/session"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create a platform account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		tenant, _ := cmd.Flags().GetString("tenant")
		password, err := passwordFrom(cmd)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.client.Signup(context.Background(), api.Credentials{
			Username: username,
			Password: password,
			Tenant:   tenant,
		})
		if err != nil {
			return err
		}
		fmt.Printf("[+] Account %s created. Run 'asmctl login -u %s' to sign in.\n", username, username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the access token",
	Long: `Sign in with username and password. The token is kept in the persistent
session store unless --no-persist is given, in which case it lives in the
session-scoped store and is gone after a reboot. Either way the other store
is cleared.

The password is read from --password, ASM_PASSWORD, or standard input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, err := passwordFrom(cmd)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		persist := persistChoice()
		claims, err := a.session.Login(context.Background(), a.client, username, password, persist)
		if err != nil {
			return err
		}

		where := "persistent store"
		if !persist {
			where = "session-scoped store"
		}
		fmt.Printf("[+] Signed in as %s", claims.Subject)
		if claims.Tenant != "" {
			fmt.Printf(" (tenant %s)", claims.Tenant)
		}
		fmt.Printf(", token kept in the %s\n", where)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.session.Logout(); err != nil {
			return err
		}
		fmt.Println("[+] Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Validate the stored token and show who it belongs to",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		claims, err := a.session.Validate(context.Background(), a.client)
		if errors.Is(err, session.ErrNoToken) {
			fmt.Println("[-] Not signed in")
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w (signed out)", err)
		}

		fmt.Printf("  Subject:  %s\n", claims.Subject)
		fmt.Printf("  Tenant:   %s\n", orDash(claims.Tenant))
		if claims.Issuer != "" {
			fmt.Printf("  Issuer:   %s\n", claims.Issuer)
		}
		if claims.ExpiresAt > 0 {
			exp := time.Unix(claims.ExpiresAt, 0)
			fmt.Printf("  Expires:  %s (%s)\n", exp.Local().Format("2006-01-02 15:04"), humanize.Time(exp))
		}
		fmt.Printf("  Persist:  %t\n", a.session.Persist())
		return nil
	},
}

// passwordFrom reads the password flag, then ASM_PASSWORD, then one line of stdin.
func passwordFrom(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("ASM_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	p := strings.TrimRight(line, "\r\n")
	if p == "" {
		return "", errors.New("no password given")
	}
	return p, nil
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringP("username", "u", "", "Username (required)")
		c.Flags().StringP("password", "p", "", "Password (prefer ASM_PASSWORD or stdin)")
		c.MarkFlagRequired("username")
	}
	signupCmd.Flags().String("tenant", "", "Tenant to create the account in")

	rootCmd.AddCommand(signupCmd, loginCmd, logoutCmd, whoamiCmd)
}
