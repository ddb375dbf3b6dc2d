package dashboard

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/output"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	Short:   "Show the update server settings",
	GroupID: cmd.GroupDashboard,
	Args:    cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		out := cmd.Out

		client, err := connect(c.Context())
		if err != nil {
			return err
		}

		settings, err := client.GetSettings(c.Context())
		if err != nil {
			return fmt.Errorf("getting settings: %w", err)
		}

		if cmd.JSONOutput {
			return cmdutil.OutputJSON(settings)
		}

		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]output.KeyValue, len(keys))
		for i, k := range keys {
			pairs[i] = output.KeyValue{Key: k, Value: settings[k]}
		}
		out.Result(pairs)
		return nil
	},
}

func init() {
	cmd.RootCmd.AddCommand(settingsCmd)
}
