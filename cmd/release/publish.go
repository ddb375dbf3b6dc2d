package release

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/ci"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

var (
	publishBranch                 string
	publishChannel                string
	publishPlatform               string
	publishOutputDir              string
	publishDisableRepositoryCheck bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish an update to a branch",
	Long: `Export the project with the Expo CLI and publish the result as a new
update on the given branch.

Runtime versions are resolved per platform. Platforms whose export matches
the latest update on the server are left untouched.`,
	GroupID: cmd.GroupUpdates,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		creds, err := cmdutil.RequireCredentials()
		if err != nil {
			return err
		}

		branch, err := cmdutil.ResolveBranch(publishBranch, out)
		if err != nil {
			return err
		}
		platform, err := cmdutil.ResolveRequestedPlatform(publishPlatform)
		if err != nil {
			return err
		}

		deps := cmd.NewDeps(c.Context(), cmd.DepsOptions{
			Credentials:       creds,
			AllowNoRepository: publishDisableRepositoryCheck,
		})

		result, err := pipeline.Publish(c.Context(), deps, pipeline.PublishOptions{
			ProjectDir:             cmd.ProjectDir,
			Branch:                 branch,
			Channel:                cmdutil.ResolveFlag(publishChannel, cmdutil.EnvChannel),
			Platform:               platform,
			NonInteractive:         cmd.NonInteractive,
			OutputDir:              publishOutputDir,
			DisableRepositoryCheck: publishDisableRepositoryCheck,
		})
		if result != nil {
			cmdutil.ExportSummary(c.Context(), publishSummary(result), out)
		}
		if err != nil {
			if errors.Is(err, pipeline.ErrMarkFailed) && cmd.JSONOutput {
				_ = cmdutil.OutputJSON(result)
			}
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(result)
		}
		if result.NothingToDeploy {
			return nil
		}

		out.Result(publishRows(result))
		return nil
	},
}

func publishRows(r *pipeline.PublishResult) []output.KeyValue {
	rows := []output.KeyValue{
		{Key: "Branch", Value: r.Branch},
	}
	if r.Channel != "" {
		rows = append(rows, output.KeyValue{Key: "Channel", Value: r.Channel})
	}
	rows = append(rows,
		output.KeyValue{Key: "Platforms", Value: strings.Join(r.Deployed, ", ")},
		output.KeyValue{Key: "Commit", Value: r.CommitHash},
		output.KeyValue{Key: "Deployed at", Value: r.DeployedAt.Format(time.RFC3339)},
	)
	for _, res := range r.Results {
		if res.Result == ota.MarkDeployed {
			rows = append(rows, output.KeyValue{Key: "Update ID (" + string(res.Target.Platform) + ")", Value: res.UpdateID})
		}
	}
	return rows
}

func publishSummary(r *pipeline.PublishResult) ci.Summary {
	outputs := map[string]string{
		"EOAS_BRANCH":             r.Branch,
		"EOAS_COMMIT_HASH":        r.CommitHash,
		"EOAS_DEPLOYED_PLATFORMS": strings.Join(r.Deployed, ","),
	}
	for _, res := range r.Results {
		if res.Result == ota.MarkDeployed {
			outputs["EOAS_"+strings.ToUpper(string(res.Target.Platform))+"_UPDATE_ID"] = res.UpdateID
		}
	}
	return ci.Summary{
		Title:   "eoas publish",
		File:    "eoas-publish-summary.json",
		Data:    r,
		Rows:    publishRows(r),
		Outputs: outputs,
	}
}

func init() {
	publishCmd.Flags().StringVar(&publishBranch, "branch", "", "branch to publish to (env: EOAS_BRANCH)")
	publishCmd.Flags().StringVar(&publishChannel, "channel", "", "deprecated: release channel exposed as RELEASE_CHANNEL (env: EOAS_CHANNEL)")
	publishCmd.Flags().StringVar(&publishPlatform, "platform", "", "platform to publish: ios, android or all (env: EOAS_PLATFORM)")
	publishCmd.Flags().StringVar(&publishOutputDir, "output-dir", "dist", "export directory, relative to the project")
	publishCmd.Flags().BoolVar(&publishDisableRepositoryCheck, "disable-repository-check", false, "skip the clean working tree check")
	publishCmd.Flags().SetNormalizeFunc(camelCaseFlags)
	cmd.RootCmd.AddCommand(publishCmd)
}
