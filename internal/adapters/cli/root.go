package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/easylaw/easylaw-cli/internal/bootstrap"
)

// NewRootCommand assembles the easylaw command tree over a wired app.
func NewRootCommand(app *bootstrap.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "easylaw",
		Short:         "Command line client for the EasyLAW case management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newAuthCommand(app))
	cmd.AddCommand(newCasesCommand(app))
	cmd.AddCommand(newChatCommand(app))
	cmd.AddCommand(newDocsCommand(app))
	cmd.AddCommand(newUsersCommand(app))
	return cmd
}

// confirm asks on stdin unless the command carries --yes.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func addYesFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
