package account

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicenote-go/internal/account"
	"github.com/tphakala/voicenote-go/internal/app"
	"github.com/tphakala/voicenote-go/internal/conf"
	"github.com/tphakala/voicenote-go/internal/notestore"
)

// Command creates the account command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local user account",
	}

	cmd.AddCommand(
		registerCommand(settings),
		loginCommand(settings),
		logoutCommand(settings),
		whoamiCommand(settings),
		profileCommand(settings),
	)

	return cmd
}

// withProvider wires the account provider over the application database and
// runs fn with it.
func withProvider(settings *conf.Settings, fn func(cmd *cobra.Command, provider account.Provider) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		application, err := app.New(settings)
		if err != nil {
			return err
		}
		defer application.Close()

		sqliteStore, ok := application.Backend.(*notestore.SQLiteStore)
		if !ok {
			return fmt.Errorf("account management requires the SQLite storage backend")
		}

		provider, err := account.NewLocalProvider(sqliteStore.DB, settings.Account.SessionPath)
		if err != nil {
			return err
		}
		return fn(cmd, provider)
	}
}

func registerCommand(settings *conf.Settings) *cobra.Command {
	var username, password, displayName string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: withProvider(settings, func(cmd *cobra.Command, provider account.Provider) error {
			user, err := provider.Register(cmd.Context(), username, password, displayName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Username)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username for the new account")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password for the new account")
	cmd.Flags().StringVar(&displayName, "display-name", "", "Display name, defaults to the username")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func loginCommand(settings *conf.Settings) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and persist the session",
		RunE: withProvider(settings, func(cmd *cobra.Command, provider account.Provider) error {
			user, err := provider.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Username)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func logoutCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: withProvider(settings, func(cmd *cobra.Command, provider account.Provider) error {
			if err := provider.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

func whoamiCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: withProvider(settings, func(cmd *cobra.Command, provider account.Provider) error {
			user, err := provider.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Username, user.DisplayName)
			return nil
		}),
	}
}

func profileCommand(settings *conf.Settings) *cobra.Command {
	var displayName, avatarURL string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the logged-in user's profile",
		RunE: withProvider(settings, func(cmd *cobra.Command, provider account.Provider) error {
			update := account.ProfileUpdate{}
			if cmd.Flags().Changed("display-name") {
				update.DisplayName = &displayName
			}
			if cmd.Flags().Changed("avatar-url") {
				update.AvatarURL = &avatarURL
			}

			user, err := provider.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s", user.DisplayName)
			if user.AvatarURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", user.AvatarURL)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		}),
	}

	cmd.Flags().StringVar(&displayName, "display-name", "", "New display name")
	cmd.Flags().StringVar(&avatarURL, "avatar-url", "", "New avatar image URL")

	return cmd
}
