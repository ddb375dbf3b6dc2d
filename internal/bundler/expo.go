package bundler

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// Export runs "npx expo export" into a freshly emptied output directory and
// returns its stdout. Dotenv loading is disabled in the child; the caller
// passes the already merged environment in opts.Env.
func Export(ctx context.Context, executor shell.CommandExecutor, opts Options, out *output.Writer) (string, error) {
	outputDir := opts.OutputPath()
	if err := removeOutputDir(outputDir); err != nil {
		return "", err
	}

	env := opts.Env
	if env == nil {
		env = project.FromEnviron(os.Environ())
	}

	args := buildArgs(opts)
	log.Debugf("running npx %s in %s", strings.Join(args, " "), opts.ProjectDir)

	stdout, err := shell.Output(ctx, executor, shell.Command{
		Dir:  opts.ProjectDir,
		Env:  env.With("EXPO_NO_DOTENV", "1").Environ(),
		Name: "npx",
		Args: args,
	})
	if err != nil {
		return "", fmt.Errorf("expo export failed: %w", err)
	}

	if msg := strings.TrimSpace(stdout); msg != "" && out != nil {
		out.Info("%s", msg)
	}
	return stdout, nil
}

// buildArgs constructs the argument list for "npx expo export".
func buildArgs(opts Options) []string {
	dir := opts.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	return []string{"expo", "export", "--output-dir", dir}
}
