package runtimeversion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/expo-open-ota/eoas/internal/expoconfig"
)

// IgnoreChecker reports whether a path is ignored by version control.
type IgnoreChecker interface {
	IsFileIgnored(ctx context.Context, path string) (bool, error)
}

// nativeMarker returns a file that exists only when the platform's native
// project is present.
func nativeMarker(projectDir string, platform expoconfig.Platform) string {
	if platform == expoconfig.PlatformIOS {
		matches, _ := filepath.Glob(filepath.Join(projectDir, "ios", "*.xcodeproj", "project.pbxproj"))
		if len(matches) > 0 {
			return matches[0]
		}
		return ""
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		p := filepath.Join(projectDir, "android", "app", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ResolveWorkflow returns WorkflowGeneric when the platform's native project
// exists and is tracked by version control.
func ResolveWorkflow(ctx context.Context, projectDir string, platform expoconfig.Platform, vcs IgnoreChecker) (Workflow, error) {
	marker := nativeMarker(projectDir, platform)
	if marker == "" {
		return WorkflowManaged, nil
	}

	rel, err := filepath.Rel(projectDir, marker)
	if err != nil {
		rel = marker
	}
	ignored, err := vcs.IsFileIgnored(ctx, filepath.ToSlash(rel))
	if err != nil {
		return "", fmt.Errorf("checking whether %s is ignored: %w", rel, err)
	}
	if ignored {
		return WorkflowManaged, nil
	}
	return WorkflowGeneric, nil
}

// Target is a platform with its resolved runtime version.
type Target struct {
	Platform       expoconfig.Platform
	RuntimeVersion string
}

// ResolveAll resolves the runtime version of every platform concurrently.
// Platforms that need no runtime version are left out.
func ResolveAll(ctx context.Context, r Interface, base Params, platforms []expoconfig.Platform, vcs IgnoreChecker) ([]Target, error) {
	results := make([]*Result, len(platforms))

	g, gctx := errgroup.WithContext(ctx)
	for i, platform := range platforms {
		g.Go(func() error {
			workflow, err := ResolveWorkflow(gctx, base.ProjectDir, platform, vcs)
			if err != nil {
				return err
			}

			params := base
			params.Platform = platform
			params.Workflow = workflow
			res, err := r.Resolve(gctx, params)
			if err != nil {
				return fmt.Errorf("resolving %s runtime version: %w", platform, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var targets []Target
	for i, res := range results {
		if res == nil || res.RuntimeVersion == "" {
			continue
		}
		targets = append(targets, Target{Platform: platforms[i], RuntimeVersion: res.RuntimeVersion})
	}
	return targets, nil
}
