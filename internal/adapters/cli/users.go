package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

func newUsersCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User directory and admin management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newUsersListCommand(app))
	cmd.AddCommand(newUsersShowCommand(app))
	cmd.AddCommand(newUsersUpdateCommand(app))
	return cmd
}

func newUsersListCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.Users.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.FullName, u.Email, u.Role, u.Active)
			}
			return w.Flush()
		},
	}
}

func newUsersShowCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := app.Users.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s active=%t\n",
				u.FullName, u.Email, u.Role, u.Active)
			return nil
		},
	}
}

func newUsersUpdateCommand(app *bootstrap.App) *cobra.Command {
	var fullName, email, role string
	var active bool

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update another user's record (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.UserPatch
			if cmd.Flags().Changed("name") {
				patch.FullName = &fullName
			}
			if cmd.Flags().Changed("email") {
				patch.Email = &email
			}
			if cmd.Flags().Changed("role") {
				r := domain.Role(role)
				patch.Role = &r
			}
			if cmd.Flags().Changed("active") {
				patch.Active = &active
			}
			updated, err := app.Users.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: role=%s active=%t\n",
				updated.ID, updated.Role, updated.Active)
			return nil
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "New full name")
	cmd.Flags().StringVar(&email, "email", "", "New email")
	cmd.Flags().StringVar(&role, "role", "", "New role: admin, lawyer, or client")
	cmd.Flags().BoolVar(&active, "active", true, "Activate or deactivate the account")
	return cmd
}
