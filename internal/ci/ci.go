// Package ci exports command summaries to the CI system running eoas.
// GitHub Actions and Bitrise are supported.
package ci

import (
	"context"
	"encoding/json"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// Provider identifies a CI system.
type Provider string

const (
	ProviderNone    Provider = ""
	ProviderGitHub  Provider = "github"
	ProviderBitrise Provider = "bitrise"
)

// Detect returns the CI system eoas runs in.
func Detect() Provider {
	switch {
	case os.Getenv("GITHUB_ACTIONS") == "true":
		return ProviderGitHub
	case IsBitriseEnvironment():
		return ProviderBitrise
	default:
		return ProviderNone
	}
}

// Summary is the result of a command as exported to CI. Title heads the
// GitHub step summary and Rows are rendered as its table. File names the JSON
// copy of Data in the Bitrise deploy dir. Outputs become step outputs on
// GitHub and env vars on Bitrise.
type Summary struct {
	Title   string
	File    string
	Data    any
	Rows    []output.KeyValue
	Outputs map[string]string
}

// Export publishes s to the detected CI system. Failures are reported as
// warnings; they never fail the command.
func Export(ctx context.Context, s Summary, executor shell.CommandExecutor, out *output.Writer) {
	provider := Detect()
	log.Debugf("exporting %s summary to CI provider %q", s.Title, provider)

	switch provider {
	case ProviderGitHub:
		if err := WriteStepSummary(s.Title, s.Rows); err != nil {
			out.Warning("failed to write step summary: %v", err)
		}
		if err := WriteOutputs(s.Outputs); err != nil {
			out.Warning("failed to write step outputs: %v", err)
		}
	case ProviderBitrise:
		data, err := json.MarshalIndent(s.Data, "", "  ")
		if err != nil {
			out.Warning("failed to marshal %s: %v", s.File, err)
			return
		}
		path, err := WriteToDeployDir(s.File, data)
		if err != nil {
			out.Warning("failed to export %s: %v", s.File, err)
		} else {
			out.Info("Summary exported to: %s", path)
		}
		for key, value := range s.Outputs {
			if err := ExportEnvVar(ctx, executor, key, value); err != nil {
				out.Warning("failed to export %s: %v", key, err)
			}
		}
	}
}
