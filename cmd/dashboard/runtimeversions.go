package dashboard

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
)

var runtimeVersionsBranch string

var runtimeVersionsCmd = &cobra.Command{
	Use:     "runtime-versions",
	Short:   "List the runtime versions of a branch",
	GroupID: cmd.GroupDashboard,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		branch, err := cmdutil.ResolveBranch(runtimeVersionsBranch, out)
		if err != nil {
			return err
		}

		client, err := connect(c.Context())
		if err != nil {
			return err
		}

		versions, err := client.ListRuntimeVersions(c.Context(), branch)
		if err != nil {
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(versions)
		}

		if len(versions) == 0 {
			out.Info("No runtime versions found on branch %s.", branch)
			return nil
		}

		rows := make([][]string, len(versions))
		for i, rv := range versions {
			rows[i] = []string{
				rv.RuntimeVersion,
				strconv.Itoa(rv.NumberOfUpdates),
				cmdutil.FormatTime(rv.CreatedAt),
				cmdutil.FormatTime(rv.LastUpdatedAt),
			}
		}
		out.Table([]string{"RUNTIME VERSION", "UPDATES", "CREATED", "LAST UPDATED"}, rows)
		return nil
	},
}

func init() {
	runtimeVersionsCmd.Flags().StringVar(&runtimeVersionsBranch, "branch", "", "branch name (env: EOAS_BRANCH)")
	cmd.RootCmd.AddCommand(runtimeVersionsCmd)
}
