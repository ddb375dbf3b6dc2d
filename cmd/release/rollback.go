package release

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/ci"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

var (
	rollbackBranch   string
	rollbackChannel  string
	rollbackPlatform string
	rollbackYes      bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll a branch back to the embedded update",
	Long: `Publish a rollback directive on a branch so devices return to the
update embedded in the app binary.

Use republish to go back to an earlier OTA update instead.`,
	GroupID: cmd.GroupUpdates,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		creds, err := cmdutil.RequireCredentials()
		if err != nil {
			return err
		}

		branch, err := cmdutil.ResolveBranch(rollbackBranch, out)
		if err != nil {
			return err
		}
		platform, err := cmdutil.ResolveRequestedPlatform(rollbackPlatform)
		if err != nil {
			return err
		}

		deps := cmd.NewDeps(c.Context(), cmd.DepsOptions{Credentials: creds})
		result, err := pipeline.Rollback(c.Context(), deps, pipeline.RollbackOptions{
			ProjectDir: cmd.ProjectDir,
			Branch:     branch,
			Channel:    cmdutil.ResolveFlag(rollbackChannel, cmdutil.EnvChannel),
			Platform:   platform,
			Yes:        rollbackYes,
		})
		if err != nil {
			var rbErr *pipeline.RollbackError
			if errors.As(err, &rbErr) && cmd.JSONOutput {
				_ = cmdutil.OutputJSON(rbErr.Failures)
			}
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(result)
		}

		rows := []output.KeyValue{
			{Key: "Branch", Value: result.Branch},
			{Key: "Channel", Value: result.Channel},
		}
		for _, t := range result.Targets {
			rows = append(rows, output.KeyValue{Key: "Runtime version (" + string(t.Platform) + ")", Value: t.RuntimeVersion})
		}
		out.Result(rows)

		cmdutil.ExportSummary(c.Context(), ci.Summary{
			Title: "eoas rollback",
			File:  "eoas-rollback-summary.json",
			Data:  result,
			Rows:  rows,
			Outputs: map[string]string{
				"EOAS_BRANCH":             result.Branch,
				"EOAS_CHANNEL":            result.Channel,
				"EOAS_ROLLBACK_PLATFORMS": rollbackPlatforms(result),
			},
		}, out)
		return nil
	},
}

func rollbackPlatforms(r *pipeline.RollbackResult) string {
	platforms := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		platforms[i] = string(t.Platform)
	}
	return strings.Join(platforms, ",")
}

func init() {
	rollbackCmd.Flags().StringVar(&rollbackBranch, "branch", "", "branch to roll back (env: EOAS_BRANCH)")
	rollbackCmd.Flags().StringVar(&rollbackChannel, "channel", "", "release channel linked to the branch (env: EOAS_CHANNEL)")
	rollbackCmd.Flags().StringVar(&rollbackPlatform, "platform", "", "platform to roll back: ios, android or all (env: EOAS_PLATFORM)")
	rollbackCmd.Flags().BoolVarP(&rollbackYes, "yes", "y", false, "skip the confirmation prompt")
	cmd.RootCmd.AddCommand(rollbackCmd)
}
