package release

import (
	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/ci"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

var (
	republishBranch         string
	republishPlatform       string
	republishRuntimeVersion string
	republishUpdate         string
)

var republishCmd = &cobra.Command{
	Use:   "republish",
	Short: "Make an earlier update the latest one again",
	Long: `Republish an earlier update of a branch for one platform.

The runtime version and the update are picked interactively unless
--runtime-version and --update are given.`,
	GroupID: cmd.GroupUpdates,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		creds, err := cmdutil.RequireCredentials()
		if err != nil {
			return err
		}

		branch, err := cmdutil.ResolveBranch(republishBranch, out)
		if err != nil {
			return err
		}
		platform, err := cmdutil.ResolvePlatformInteractive(republishPlatform, out)
		if err != nil {
			return err
		}

		deps := cmd.NewDeps(c.Context(), cmd.DepsOptions{Credentials: creds})
		result, err := pipeline.Republish(c.Context(), deps, pipeline.RepublishOptions{
			ProjectDir:     cmd.ProjectDir,
			Branch:         branch,
			Platform:       platform,
			RuntimeVersion: republishRuntimeVersion,
			UpdateUUID:     republishUpdate,
		})
		if err != nil {
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(result)
		}

		rows := []output.KeyValue{
			{Key: "Branch", Value: result.Branch},
			{Key: "Platform", Value: result.Update.Platform},
			{Key: "Runtime version", Value: result.RuntimeVersion},
			{Key: "Update", Value: result.Update.UpdateUUID},
			{Key: "Commit", Value: result.Update.CommitHash},
		}
		out.Result(rows)

		cmdutil.ExportSummary(c.Context(), ci.Summary{
			Title: "eoas republish",
			File:  "eoas-republish-summary.json",
			Data:  result,
			Rows:  rows,
			Outputs: map[string]string{
				"EOAS_BRANCH":          result.Branch,
				"EOAS_RUNTIME_VERSION": result.RuntimeVersion,
				"EOAS_UPDATE_ID":       result.Update.UpdateID,
			},
		}, out)
		return nil
	},
}

func init() {
	republishCmd.Flags().StringVar(&republishBranch, "branch", "", "branch to republish on (env: EOAS_BRANCH)")
	republishCmd.Flags().StringVar(&republishPlatform, "platform", "", "platform to republish: ios or android (env: EOAS_PLATFORM)")
	republishCmd.Flags().StringVar(&republishRuntimeVersion, "runtime-version", "", "runtime version to pick the update from")
	republishCmd.Flags().StringVar(&republishUpdate, "update", "", "UUID of the update to republish")
	republishCmd.Flags().SetNormalizeFunc(camelCaseFlags)
	cmd.RootCmd.AddCommand(republishCmd)
}
