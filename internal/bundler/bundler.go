// Package bundler produces the update payload: JavaScript bundles, assets and
// metadata.json, exported by the Expo CLI.
package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/project"
	"github.com/expo-open-ota/eoas/internal/shell"
)

// DefaultOutputDir is where the export is written, relative to the project.
const DefaultOutputDir = "dist"

// Options holds the inputs of an export. OutputDir is relative to
// ProjectDir unless absolute.
type Options struct {
	ProjectDir string
	OutputDir  string
	Env        project.Env
}

// Exporter is the interface for producing an export.
type Exporter interface {
	Export(ctx context.Context, opts Options) (string, error)
}

// ExpoExporter exports through the project's Expo CLI.
type ExpoExporter struct {
	executor shell.CommandExecutor
	out      *output.Writer
}

// NewExpoExporter creates an ExpoExporter.
func NewExpoExporter(executor shell.CommandExecutor, out *output.Writer) *ExpoExporter {
	return &ExpoExporter{executor: executor, out: out}
}

// Export implements Exporter.
func (e *ExpoExporter) Export(ctx context.Context, opts Options) (string, error) {
	return Export(ctx, e.executor, opts, e.out)
}

// OutputPath returns the absolute export directory for opts.
func (o Options) OutputPath() string {
	dir := o.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(o.ProjectDir, dir)
}

// removeOutputDir clears the previous export so stale bundles are never
// uploaded.
func removeOutputDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("removing output directory %s: %w", path, err)
	}
	return nil
}
