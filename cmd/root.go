package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/expo-open-ota/eoas/internal/logging"
	"github.com/expo-open-ota/eoas/internal/output"
)

// GroupID is a typed alias for command group identifiers.
type GroupID = string

// Command group identifiers for organizing help output.
const (
	GroupUpdates   GroupID = "updates"
	GroupDashboard GroupID = "dashboard"
	GroupSetup     GroupID = "setup"
)

// Out is the shared CLI output writer. Set by main() before Execute().
var Out *output.Writer

// Global flag values, bound to RootCmd's persistent flags.
var (
	JSONOutput     bool
	Debug          bool
	NonInteractive bool
	ProjectDir     string
)

// RootCmd is the top-level cobra command.
var RootCmd = &cobra.Command{
	Use:   "eoas",
	Short: "Publish and manage updates on a self-hosted Expo OTA server",
	Long: `eoas publishes over-the-air updates of an Expo project to a
self-hosted expo-open-ota server.

It exports the project with the Expo CLI, uploads the bundles and assets,
and lets you roll back or republish updates per branch.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		logging.Setup(Debug, os.Stderr)
		if NonInteractive {
			Out.SetInteractive(false)
		}

		dir, err := resolveProjectDir(ProjectDir)
		if err != nil {
			return err
		}
		ProjectDir = dir
		return nil
	},
}

func resolveProjectDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving project directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("project directory %s does not exist", dir)
	}
	return abs, nil
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&JSONOutput, "json", false, "output results as JSON to stdout")
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "print diagnostic logs")
	RootCmd.PersistentFlags().BoolVar(&NonInteractive, "non-interactive", false, "never prompt; fail when input is missing")
	RootCmd.PersistentFlags().StringVar(&ProjectDir, "project-dir", "", "Expo project directory (defaults to current directory)")
}
