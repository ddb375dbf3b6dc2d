// Package pipeline orchestrates the eoas commands on top of the project,
// config, runtime version, export and update server packages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expo-open-ota/eoas/internal/bundler"
	"github.com/expo-open-ota/eoas/internal/expoconfig"
	"github.com/expo-open-ota/eoas/internal/ota"
	"github.com/expo-open-ota/eoas/internal/output"
	"github.com/expo-open-ota/eoas/internal/runtimeversion"
	"github.com/expo-open-ota/eoas/internal/vcs"
)

var (
	// ErrNoRuntimeVersions is returned when no requested platform needs an
	// update.
	ErrNoRuntimeVersions = errors.New("Could not resolve runtime versions for the requested platforms")

	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("Operation cancelled")
)

// ConfigReader reads the app config of a project.
type ConfigReader interface {
	Private(ctx context.Context, projectDir string, opts expoconfig.Options) (expoconfig.Config, error)
	Public(ctx context.Context, projectDir string, opts expoconfig.Options) (expoconfig.Config, error)
}

var _ ConfigReader = (*expoconfig.Reader)(nil)

// Deps are the collaborators of every pipeline. NewClient returns the update
// server client for a server URL.
type Deps struct {
	Config    ConfigReader
	Resolver  runtimeversion.Interface
	Exporter  bundler.Exporter
	VCS       vcs.Client
	NewClient func(serverURL string) ota.Client
	Out       *output.Writer
	Prompt    output.Prompter
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// confirm asks msg unless yes is set. Non-interactive sessions must pass yes.
func confirm(p output.Prompter, msg string, yes bool) error {
	if yes {
		return nil
	}
	if !p.IsInteractive() {
		return fmt.Errorf("%s; use --yes to confirm", msg)
	}
	ok, err := p.Confirm(msg)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// resolveTargets resolves the runtime version of every requested platform
// and fails when none needs one.
func resolveTargets(ctx context.Context, d Deps, base runtimeversion.Params, requested expoconfig.RequestedPlatform) ([]runtimeversion.Target, error) {
	var targets []runtimeversion.Target
	err := d.Out.Spinner("Resolving runtime version", func() error {
		var err error
		targets, err = runtimeversion.ResolveAll(ctx, d.Resolver, base, requested.Selected(), d.VCS)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrNoRuntimeVersions
	}
	d.Out.Success("Runtime versions resolved")
	return targets, nil
}

// responseBody returns the server's error body when err carries one.
func responseBody(err error) string {
	var statusErr *ota.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Body
	}
	return err.Error()
}
