package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oneshotcoding/shotdeck/internal/client"
)

// newLoginCommand stores a token pair obtained from the browser flow.
// Login itself happens in the browser; the front end's callback page
// shows the pair to paste here.
func newLoginCommand() *cobra.Command {
	var accessToken, refreshToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a token pair from the browser login flow",
		Long: "Log in via the browser (GET /auth/github or /auth/twitter on the server),\n" +
			"then store the resulting token pair for shotctl to use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" || refreshToken == "" {
				return fmt.Errorf("both --access-token and --refresh-token are required")
			}

			store, err := client.NewFileTokenStore(tokenFile)
			if err != nil {
				return err
			}
			if err := store.Save(accessToken, refreshToken); err != nil {
				return err
			}

			// Prove the pair works before declaring success.
			c := client.New(serverURL, store)
			user, err := c.Me(cmd.Context())
			if err != nil {
				_ = store.Clear()
				return fmt.Errorf("stored tokens were rejected by the server: %w", err)
			}

			fmt.Printf("Logged in as %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "Access token from the browser callback")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token from the browser callback")
	return cmd
}

func newMeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the authenticated user's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			user, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("ID:           %s\n", user.ID)
			fmt.Printf("Username:     %s\n", user.Username)
			fmt.Printf("Display name: %s\n", user.DisplayName)
			if user.Email != nil {
				fmt.Printf("Email:        %s\n", *user.Email)
			}
			if user.IsAdmin {
				fmt.Println("Admin:        yes")
			}
			return nil
		},
	}
}

func newAccountsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage linked OAuth accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List linked OAuth accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			accounts, err := c.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No linked accounts.")
				return nil
			}
			for _, a := range accounts {
				username := ""
				if a.ProviderUsername != nil {
					username = " (" + *a.ProviderUsername + ")"
				}
				fmt.Printf("%s%s  linked %s\n", a.Provider, username, a.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unlink <provider>",
		Short: "Unlink an OAuth account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Unlink(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Unlinked %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored session and clear local credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newLogoutAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout-all",
		Short: "Revoke every session on every device",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			if err := c.LogoutAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("All sessions revoked.")
			return nil
		},
	}
}
