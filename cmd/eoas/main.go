// eoas publishes and manages Expo over-the-air updates on a self-hosted
// expo-open-ota server.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/expo-open-ota/eoas/cmd"
	_ "github.com/expo-open-ota/eoas/cmd/dashboard"
	_ "github.com/expo-open-ota/eoas/cmd/release"
	_ "github.com/expo-open-ota/eoas/cmd/setup"
	"github.com/expo-open-ota/eoas/internal/output"
)

func main() {
	cmd.Out = output.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cmd.Out.Error("%s", err)
		os.Exit(1)
	}
}
