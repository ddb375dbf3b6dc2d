package setup

import (
	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
)

func init() {
	cmd.RootCmd.AddGroup(&cobra.Group{ID: cmd.GroupSetup, Title: "Setup:"})
}
