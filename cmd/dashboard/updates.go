package dashboard

import (
	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

var (
	updatesBranch         string
	updatesRuntimeVersion string
	updatesPlatform       string
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "List the updates of a runtime version",
	Long: `List the updates published on a branch for one runtime version.

Rollbacks to the embedded update are listed as "Rollback to embedded".`,
	GroupID: cmd.GroupDashboard,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		branch, err := cmdutil.ResolveBranch(updatesBranch, out)
		if err != nil {
			return err
		}
		platform, err := cmdutil.ResolveRequestedPlatform(updatesPlatform)
		if err != nil {
			return err
		}
		runtimeVersion, err := cmdutil.ResolveInputInteractive(updatesRuntimeVersion, "Runtime version", "", nil, out)
		if err != nil {
			return err
		}

		client, err := connect(c.Context())
		if err != nil {
			return err
		}

		updates, err := client.ListUpdates(c.Context(), branch, runtimeVersion)
		if err != nil {
			return err
		}
		updates = pipeline.FilterUpdates(updates, platform)

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(updates)
		}

		if len(updates) == 0 {
			out.Info("No updates found.")
			return nil
		}

		rows := make([][]string, len(updates))
		for i, u := range updates {
			uuid := u.UpdateUUID
			if uuid == ota.RollbackToEmbeddedUUID {
				uuid = "Rollback to embedded"
			}
			rows[i] = []string{
				uuid,
				u.UpdateID,
				u.Platform,
				cmdutil.Truncate(u.CommitHash, 12),
				cmdutil.FormatTime(u.CreatedAt),
			}
		}
		out.Table([]string{"UPDATE", "ID", "PLATFORM", "COMMIT", "CREATED"}, rows)
		return nil
	},
}

func init() {
	updatesCmd.Flags().StringVar(&updatesBranch, "branch", "", "branch name (env: EOAS_BRANCH)")
	updatesCmd.Flags().StringVar(&updatesRuntimeVersion, "runtime-version", "", "runtime version")
	updatesCmd.Flags().StringVar(&updatesPlatform, "platform", "", "only list updates for ios or android (env: EOAS_PLATFORM)")
	cmd.RootCmd.AddCommand(updatesCmd)
}
