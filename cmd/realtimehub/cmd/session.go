package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/auth"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/session"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session token",
	Long: `Exchange an email and password for a token via POST /auth/login.
On success the email and token are stored in the session store; on any
failure every session key is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := app.MustResolve[*auth.Client](application)
		s, err := client.Login(cmd.Context(), loginEmail, loginPassword)
		if err != nil {
			return fmt.Errorf("login failed: %s", domain.Message(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", s.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.MustResolve[*auth.Client](application).Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, ok, err := app.MustResolve[*session.Manager](application).Current(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Username)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
