package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/cmd"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(c *cobra.Command, args []string) {
		v, rev, built := buildInfo()
		cmd.Out.Println("eoas %s", v)
		cmd.Out.Info("commit: %s", rev)
		cmd.Out.Info("built: %s", built)
	},
}

// buildInfo falls back to the module version and VCS stamp embedded by
// go install when no ldflags were given.
func buildInfo() (string, string, string) {
	v, rev, built := version, commit, date
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v, rev, built
	}
	if v == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && rev == "none":
			rev = s.Value
		case s.Key == "vcs.time" && built == "unknown":
			built = s.Value
		}
	}
	return v, rev, built
}

func init() {
	cmd.RootCmd.AddCommand(versionCmd)
}
