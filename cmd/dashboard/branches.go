package dashboard

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
)

var branchesCmd = &cobra.Command{
	Use:     "branches",
	Short:   "List branches and their release channels",
	GroupID: cmd.GroupDashboard,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		client, err := connect(c.Context())
		if err != nil {
			return err
		}

		branches, err := client.ListBranches(c.Context())
		if err != nil {
			return fmt.Errorf("listing branches: %w", err)
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(branches)
		}

		if len(branches) == 0 {
			out.Info("No branches found.")
			return nil
		}

		rows := make([][]string, len(branches))
		for i, b := range branches {
			rows[i] = []string{b.BranchName, orDash(b.ReleaseChannel)}
		}
		out.Table([]string{"BRANCH", "RELEASE CHANNEL"}, rows)
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(branchesCmd)
}
