package cli

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

func newAuthCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Session lifecycle: login, register, logout, whoami",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newAuthLoginCommand(app))
	cmd.AddCommand(newAuthRegisterCommand(app))
	cmd.AddCommand(newAuthLogoutCommand(app))
	cmd.AddCommand(newAuthWhoamiCommand(app))
	cmd.AddCommand(newAuthUpdateCommand(app))
	return cmd
}

func newAuthLoginCommand(app *bootstrap.App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				var err error
				if password, err = readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}
			session, err := app.Sessions.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n",
				session.Identity.FullName, session.Identity.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newAuthRegisterCommand(app *bootstrap.App) *cobra.Command {
	var email, password, fullName, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readPassword(cmd, "Password: "); err != nil {
					return err
				}
			}
			session, err := app.Sessions.Register(cmd.Context(), domain.RegisterProfile{
				Email:    email,
				Password: password,
				FullName: fullName,
				Role:     domain.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s (%s)\n",
				session.Identity.FullName, session.Identity.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	cmd.Flags().StringVar(&role, "role", "client", "Account role: lawyer or client")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAuthLogoutCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newAuthWhoamiCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			session := app.Sessions.Current()
			if !session.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			u := session.Identity
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s active=%t\n",
				u.FullName, u.Email, u.Role, u.Active)
			return nil
		},
	}
}

func newAuthUpdateCommand(app *bootstrap.App) *cobra.Command {
	var fullName, email, password string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the authenticated user's own profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.FullName = &fullName
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("password") {
				patch.Password = &password
			}
			updated, err := app.Sessions.UpdateIdentity(cmd.Context(), patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated: %s <%s>\n", updated.FullName, updated.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "New full name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&password, "password", "", "New password")
	return cmd
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; pass --password instead")
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(raw), nil
}
