package ci

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/expo-open-ota/eoas/internal/shell"
)

// IsBitriseEnvironment returns true if running inside a Bitrise CI build.
func IsBitriseEnvironment() bool {
	return os.Getenv("BITRISE_BUILD_NUMBER") != "" || os.Getenv("BITRISE_DEPLOY_DIR") != ""
}

// WriteToDeployDir writes data to a file in the Bitrise deploy directory.
// Returns the full path of the written file.
func WriteToDeployDir(filename string, data []byte) (string, error) {
	deployDir := os.Getenv("BITRISE_DEPLOY_DIR")
	if deployDir == "" {
		return "", fmt.Errorf("BITRISE_DEPLOY_DIR is not set")
	}

	if err := os.MkdirAll(deployDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create deploy directory: %w", err)
	}

	destPath := filepath.Join(deployDir, filename)
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write to deploy directory: %w", err)
	}

	return destPath, nil
}

// ExportEnvVar exports an environment variable using envman so that
// downstream Bitrise steps can access it. Skips silently if envman
// is not available on PATH.
func ExportEnvVar(ctx context.Context, executor shell.CommandExecutor, key, value string) error {
	envmanPath, err := exec.LookPath("envman")
	if err != nil {
		return nil
	}

	if _, err := shell.Output(ctx, executor, shell.Command{
		Name: envmanPath,
		Args: []string{"add", "--key", key, "--value", value},
	}); err != nil {
		return fmt.Errorf("envman export %s: %w", key, err)
	}
	return nil
}
