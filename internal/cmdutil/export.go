package cmdutil

import (
	"context"

	"github.com/expo-open-ota/eoas/internal/ci"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// executor runs envman when exporting to Bitrise. Tests swap it out.
var executor shell.CommandExecutor = &shell.DefaultExecutor{}

// ExportSummary hands a command summary to the CI system, if any.
func ExportSummary(ctx context.Context, s ci.Summary, out *output.Writer) {
	if ci.Detect() == ci.ProviderNone {
		return
	}
	ci.Export(ctx, s, executor, out)
}
