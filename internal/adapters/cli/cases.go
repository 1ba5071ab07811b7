package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
	"github.com/easylaw/easylaw-cli/internal/core/usecase"
)

func newCasesCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List, inspect, and manage cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCasesListCommand(app))
	cmd.AddCommand(newCasesShowCommand(app))
	cmd.AddCommand(newCasesCreateCommand(app))
	cmd.AddCommand(newCasesStatusCommand(app))
	cmd.AddCommand(newCasesAssignCommand(app))
	cmd.AddCommand(newCasesDeleteCommand(app))
	return cmd
}

func newCasesListCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cases visible to the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := app.Cases.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tUPDATED")
			for _, c := range cases {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					c.ID, c.Title, c.Status, c.UpdatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newCasesShowCommand(app *bootstrap.App) *cobra.Command {
	var tab string

	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show one case with its chat or documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := app.NewDetailController(args[0])
			defer controller.Close()

			view, err := controller.SelectTab(cmd.Context(), usecase.Tab(tab))
			if err != nil {
				return err
			}
			return renderDetail(cmd, view)
		},
	}

	cmd.Flags().StringVar(&tab, "tab", string(usecase.TabDetails), "Pane to show: details, chat, or documents")
	return cmd
}

func renderDetail(cmd *cobra.Command, view usecase.DetailView) error {
	out := cmd.OutOrStdout()
	if view.Case == nil {
		return fmt.Errorf("case not loaded")
	}
	c := view.Case
	fmt.Fprintf(out, "%s  [%s]\n%s\n", c.Title, c.Status, c.Description)
	if c.LawyerID != "" {
		fmt.Fprintf(out, "Lawyer: %s\n", c.LawyerID)
	}
	if c.ClientID != "" {
		fmt.Fprintf(out, "Client: %s\n", c.ClientID)
	}

	switch view.ActiveTab {
	case usecase.TabChat:
		fmt.Fprintln(out)
		for _, m := range view.Messages {
			fmt.Fprintf(out, "[%s] %s\n", m.Role, m.Content)
		}
	case usecase.TabDocuments:
		fmt.Fprintln(out)
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tSTATUS")
		for _, d := range view.Documents {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.OriginalFilename, d.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if view.LastError != nil {
		fmt.Fprintf(out, "\nwarning: showing cached data, last refresh failed: %v\n", view.LastError)
	}
	return nil
}

func newCasesCreateCommand(app *bootstrap.App) *cobra.Command {
	var title, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := app.Cases.Create(cmd.Context(), title, description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created case %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Case title")
	cmd.Flags().StringVar(&description, "description", "", "Case description")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newCasesStatusCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <case-id> <open|in_progress|closed>",
		Short: "Change a case's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := app.Cases.ChangeStatus(cmd.Context(), args[0], domain.CaseStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Case %s is now %s\n", updated.ID, updated.Status)
			return nil
		},
	}
}

func newCasesAssignCommand(app *bootstrap.App) *cobra.Command {
	var lawyerID, clientID string

	cmd := &cobra.Command{
		Use:   "assign <case-id>",
		Short: "Assign the lawyer and/or client on a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lawyerID == "" && clientID == "" {
				return fmt.Errorf("pass --lawyer and/or --client")
			}
			updated, err := app.Cases.Assign(cmd.Context(), args[0], lawyerID, clientID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Case %s assigned (lawyer=%s client=%s)\n",
				updated.ID, updated.LawyerID, updated.ClientID)
			return nil
		},
	}

	cmd.Flags().StringVar(&lawyerID, "lawyer", "", "Lawyer user id")
	cmd.Flags().StringVar(&clientID, "client", "", "Client user id")
	return cmd
}

func newCasesDeleteCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <case-id>",
		Short: "Delete a case and everything scoped to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd, fmt.Sprintf("Delete case %s and all its messages and documents?", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			if err := app.Cases.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted case %s\n", args[0])
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}
