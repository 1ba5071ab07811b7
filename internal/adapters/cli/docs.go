package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
	"github.com/easylaw/easylaw-cli/internal/core/domain"
)

func newDocsCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Upload, analyze, and manage case documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newDocsListCommand(app))
	cmd.AddCommand(newDocsUploadCommand(app))
	cmd.AddCommand(newDocsAnalyzeCommand(app))
	cmd.AddCommand(newDocsShowCommand(app))
	cmd.AddCommand(newDocsDeleteCommand(app))
	return cmd
}

func newDocsListCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <case-id>",
		Short: "List the case's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := app.Documents.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFILE\tTYPE\tSTATUS")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.OriginalFilename, d.MimeType, d.Status)
			}
			return w.Flush()
		},
	}
}

func newDocsUploadCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <case-id> <path>",
		Short: "Upload a document to a case",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Documents.Upload(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s (%s)\n",
				doc.OriginalFilename, doc.ID, doc.Status)
			return nil
		},
	}
}

func newDocsAnalyzeCommand(app *bootstrap.App) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "analyze <case-id> <document-id>",
		Short: "Request AI analysis of an uploaded document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.Documents.Analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document %s is %s\n", doc.ID, doc.Status)
			if !wait {
				return nil
			}
			for update := range app.Tracker.Watch(cmd.Context(), args[0], args[1]) {
				fmt.Fprintf(cmd.OutOrStdout(), "Document %s is %s\n", update.ID, update.Status)
				if update.Status.Terminal() {
					printAnalysis(cmd, update)
				}
			}
			return cmd.Context().Err()
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until analysis finishes")
	return cmd
}

func newDocsShowCommand(app *bootstrap.App) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "show <case-id> <document-id>",
		Short: "Show a document's status and analysis results",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				for update := range app.Tracker.Watch(cmd.Context(), args[0], args[1]) {
					fmt.Fprintf(cmd.OutOrStdout(), "Document %s is %s\n", update.ID, update.Status)
					if update.Status.Terminal() {
						printAnalysis(cmd, update)
					}
				}
				return cmd.Context().Err()
			}
			doc, err := app.Tracker.Refresh(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) status=%s\n",
				doc.OriginalFilename, doc.ID, doc.Status)
			printAnalysis(cmd, *doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep polling until the lifecycle ends")
	return cmd
}

func printAnalysis(cmd *cobra.Command, doc domain.Document) {
	out := cmd.OutOrStdout()
	if doc.AISummary != "" {
		fmt.Fprintf(out, "\nSummary:\n%s\n", doc.AISummary)
	}
	if points := doc.KeyPoints(); len(points) > 0 {
		fmt.Fprintln(out, "\nKey points:")
		for _, p := range points {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
}

func newDocsDeleteCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <case-id> <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd, fmt.Sprintf("Delete document %s?", args[1]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			if err := app.Documents.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted document %s\n", args[1])
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}
