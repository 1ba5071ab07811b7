package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
)

func newChatCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Per-case conversation with the legal assistant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newChatHistoryCommand(app))
	cmd.AddCommand(newChatSendCommand(app))
	cmd.AddCommand(newChatDeleteCommand(app))
	return cmd
}

func newChatHistoryCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <case-id>",
		Short: "Show the case's conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			messages, err := app.Chat.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, m := range messages {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n",
					m.CreatedAt.Format("15:04"), m.Role, m.Content)
			}
			return nil
		},
	}
}

func newChatSendCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <case-id> <message...>",
		Short: "Send a message and print the assistant's reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args[1:], " ")
			history, err := app.Chat.Send(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}
			// The reply is the last message of the reconciled history.
			reply := history[len(history)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", reply.Role, reply.Content)
			return nil
		},
	}
}

func newChatDeleteCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <case-id> <message-id>",
		Short: "Delete one message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := confirm(cmd, fmt.Sprintf("Delete message %s?", args[1]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
				return nil
			}
			if err := app.Chat.Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted message %s\n", args[1])
			return nil
		},
	}
	addYesFlag(cmd)
	return cmd
}
