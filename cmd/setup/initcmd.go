package setup

import (
	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/credentials"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Point the project at your update server",
	Long: `Configure the Expo app config to fetch updates from a self-hosted
expo-open-ota server.

Sets updates.url, enables code signing with the certificate created by
generate-certs, and sends the RELEASE_CHANNEL as expo-channel-name.`,
	GroupID: cmd.GroupSetup,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		deps := cmd.NewDeps(c.Context(), cmd.DepsOptions{Credentials: credentials.Resolve()})
		result, err := pipeline.Init(c.Context(), deps, pipeline.InitOptions{ProjectDir: cmd.ProjectDir})
		if err != nil {
			return err
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(result)
		}

		out.Result([]output.KeyValue{
			{Key: "Manifest URL", Value: result.ManifestURL},
			{Key: "Certificate", Value: result.CertificatePath},
		})
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(initCmd)
}
