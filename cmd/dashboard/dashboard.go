package dashboard

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
	"github.com/expo-open-ota/eoas/internal/cmdutil"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/pipeline"
)

func init() {
	cmd.RootCmd.AddGroup(&cobra.Group{ID: cmd.GroupDashboard, Title: "Dashboard:"})
}

// connect returns a client for the project's update server.
func connect(ctx context.Context) (ota.Client, error) {
	creds, err := cmdutil.RequireCredentials()
	if err != nil {
		return nil, err
	}
	deps := cmd.NewDeps(ctx, cmd.DepsOptions{Credentials: creds})
	return pipeline.Connect(ctx, deps, cmd.ProjectDir)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}
